package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// CategoryScores maps a category to its cumulative net feedback score
// (+1 per like, -1 per dislike) and remembers the order in which categories
// were first scored. First-seen order is the documented tie-breaker for the
// top-interest ranking, so it must survive serialization: the JSON encoding
// is a plain object whose key order is the insertion order.
type CategoryScores struct {
	order  []string
	scores map[string]int
}

// NewCategoryScores returns an empty, ready-to-use score map.
func NewCategoryScores() CategoryScores {
	return CategoryScores{
		order:  []string{},
		scores: map[string]int{},
	}
}

// Add adjusts the score for category by delta, registering the category at
// the end of the insertion order on first touch.
func (cs *CategoryScores) Add(category string, delta int) {
	if cs.scores == nil {
		cs.scores = map[string]int{}
	}
	if _, ok := cs.scores[category]; !ok {
		cs.order = append(cs.order, category)
	}
	cs.scores[category] += delta
}

// Get returns the score for category, zero when the category was never scored.
func (cs *CategoryScores) Get(category string) int {
	return cs.scores[category]
}

// Len returns the number of scored categories.
func (cs *CategoryScores) Len() int {
	return len(cs.scores)
}

// Entries returns all (category, score) pairs in first-seen order.
func (cs *CategoryScores) Entries() []CategoryScore {
	entries := make([]CategoryScore, 0, len(cs.order))
	for _, c := range cs.order {
		entries = append(entries, CategoryScore{Category: c, Score: cs.scores[c]})
	}
	return entries
}

// Clone returns an independent copy.
func (cs CategoryScores) Clone() CategoryScores {
	cp := CategoryScores{
		order:  make([]string, len(cs.order)),
		scores: make(map[string]int, len(cs.scores)),
	}
	copy(cp.order, cs.order)
	for k, v := range cs.scores {
		cp.scores[k] = v
	}
	return cp
}

// MarshalJSON encodes the scores as a JSON object in insertion order.
func (cs CategoryScores) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range cs.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		fmt.Fprintf(&buf, ":%d", cs.scores[c])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, taking its key order as the insertion
// order. A JSON null resets to an empty map.
func (cs *CategoryScores) UnmarshalJSON(data []byte) error {
	*cs = NewCategoryScores()

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("category scores: expected object, got %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("category scores: non-string key %v", keyTok)
		}

		valTok, err := dec.Token()
		if err != nil {
			return err
		}
		num, ok := valTok.(json.Number)
		if !ok {
			return fmt.Errorf("category scores: non-numeric score for %q", key)
		}
		score, err := num.Int64()
		if err != nil {
			return fmt.Errorf("category scores: score for %q is not an integer: %w", key, err)
		}

		cs.order = append(cs.order, key)
		cs.scores[key] = int(score)
	}

	// Consume the closing brace.
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}
