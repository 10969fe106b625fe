// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/nhle/taskkeeper/internal/kv"
)

// NewTestKV creates an in-memory SQLite key-value store with all
// migrations applied. It automatically closes the store when the test
// completes.
func NewTestKV(t *testing.T) *kv.SQLiteStore {
	t.Helper()

	s, err := kv.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test kv store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test kv store: %v", err)
		}
	})

	return s
}

// Clock is a manually advanced time source.
type Clock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewClock returns a clock starting at start that advances by step
// after every reading. A zero step freezes time.
func NewClock(start time.Time, step time.Duration) *Clock {
	return &Clock{now: start.UTC(), step: step}
}

// Now returns the current reading and advances the clock.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now
	c.now = c.now.Add(c.step)
	return now
}

// Set moves the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = t.UTC()
}

// SequentialIDs returns a generator yielding prefix-1, prefix-2, ...
func SequentialIDs(prefix string) func() string {
	var (
		mu sync.Mutex
		n  int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

// Date is shorthand for a UTC timestamp.
func Date(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, time.UTC)
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
