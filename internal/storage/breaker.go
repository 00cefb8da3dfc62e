package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sony/gobreaker"

	"github.com/pressfeed/pressfeed/pkg/types"
)

// BreakerConfig holds circuit breaker settings for a guarded store.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive persistence failures that
	// trips the circuit. Default: 3.
	MaxFailures uint32

	// Timeout is how long the circuit stays open before allowing probe
	// requests. Default: 30 seconds.
	Timeout time.Duration

	// HalfOpenMaxSuccesses is the number of consecutive successes in
	// half-open state that closes the circuit again. Default: 2.
	HalfOpenMaxSuccesses uint32
}

// breakerStore decorates a ProfileStore with a circuit breaker so that a
// failing durable medium produces fast ErrStoreUnavailable results instead
// of every caller queueing on broken I/O. Validation errors and caller
// cancellation do not count as persistence failures.
type breakerStore struct {
	inner   ProfileStore
	breaker *gobreaker.CircuitBreaker
}

// WithBreaker wraps store with a circuit breaker using default settings.
func WithBreaker(store ProfileStore) ProfileStore {
	return WithBreakerConfig(store, BreakerConfig{})
}

// WithBreakerConfig wraps store with a circuit breaker using cfg.
func WithBreakerConfig(store ProfileStore, cfg BreakerConfig) ProfileStore {
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 3
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.HalfOpenMaxSuccesses == 0 {
		cfg.HalfOpenMaxSuccesses = 2
	}

	settings := gobreaker.Settings{
		Name:        "profile-store",
		MaxRequests: cfg.HalfOpenMaxSuccesses,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			// The medium is healthy when the caller's own input or
			// mutation function was at fault, or the caller went away.
			return errors.Is(err, ErrInvalidInput) ||
				errors.Is(err, context.Canceled) ||
				errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("storage: circuit breaker %s: %s -> %s", name, from, to)
		},
	}

	return &breakerStore{
		inner:   store,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

func (b *breakerStore) Get(ctx context.Context, userID string) (*types.UserProfile, error) {
	result, err := b.breaker.Execute(func() (interface{}, error) {
		return b.inner.Get(ctx, userID)
	})
	if err != nil {
		return nil, b.translate(err)
	}
	return result.(*types.UserProfile), nil
}

func (b *breakerStore) Update(ctx context.Context, userID string, fn func(*types.UserProfile) error) (*types.UserProfile, error) {
	result, err := b.breaker.Execute(func() (interface{}, error) {
		return b.inner.Update(ctx, userID, fn)
	})
	if err != nil {
		return nil, b.translate(err)
	}
	return result.(*types.UserProfile), nil
}

func (b *breakerStore) Users(ctx context.Context) ([]string, error) {
	result, err := b.breaker.Execute(func() (interface{}, error) {
		return b.inner.Users(ctx)
	})
	if err != nil {
		return nil, b.translate(err)
	}
	return result.([]string), nil
}

func (b *breakerStore) Close() error {
	return b.inner.Close()
}

// translate maps breaker rejections onto the store error taxonomy so
// callers only ever see storage sentinels.
func (b *breakerStore) translate(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: circuit open", ErrStoreUnavailable)
	}
	return err
}
