// Package notify provides cross-process feedback event notification using
// filesystem events. Any process that records feedback (the server, the
// backup CLI's restore path, a future digest scheduler) drops an event
// file; the server's watcher consumes them and forwards to live listeners.
package notify

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Event is the payload written to an event file.
type Event struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	UserID   string `json:"user_id"`
	Category string `json:"category,omitempty"`
	Action   string `json:"action,omitempty"`
	Time     int64  `json:"time"`
}

// Event types emitted by the personalization service.
const (
	EventFeedback       = "feedback"
	EventProfileUpdated = "profile_updated"
	EventConversation   = "conversation"
)

// EventWriter writes notification event files to a shared directory.
type EventWriter struct {
	dir string
}

// NewEventWriter creates a writer that emits events to {dataPath}/events/.
func NewEventWriter(dataPath string) *EventWriter {
	return &EventWriter{dir: filepath.Join(dataPath, "events")}
}

// Notify writes an event file. Safe to call concurrently. Errors are
// returned but never fatal to the recording path that triggered them.
func (w *EventWriter) Notify(evt Event) error {
	if err := os.MkdirAll(w.dir, 0o700); err != nil {
		return fmt.Errorf("notify: mkdir %s: %w", w.dir, err)
	}
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	if evt.Time == 0 {
		evt.Time = time.Now().UnixNano()
	}

	data, _ := json.Marshal(evt)
	filename := fmt.Sprintf("%d-%s.event", evt.Time, evt.ID)
	path := filepath.Join(w.dir, filename)
	return os.WriteFile(path, data, 0o600)
}
