// Package store holds the authoritative in-memory task and category
// collections. Every mutation rewrites the whole collection to the
// key-value store; there is no partial-update persistence.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nhle/taskkeeper/internal/kv"
)

// ErrDuplicateCategoryName is returned by CategoryStore.Add when a
// category with the same name (ignoring case) already exists.
var ErrDuplicateCategoryName = errors.New("category with this name already exists")

type options struct {
	now    func() time.Time
	newID  func() string
	logger *zap.Logger
}

// Option configures a store.
type Option func(*options)

// WithClock overrides the time source used for CreatedAt/UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIDGenerator overrides the identifier source for new entities.
func WithIDGenerator(newID func() string) Option {
	return func(o *options) { o.newID = newID }
}

// WithLogger sets the logger used for persistence failures.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

func buildOptions(opts []Option) options {
	o := options{
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return uuid.New().String() },
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// blob reads and writes one JSON-encoded collection under a single key.
type blob[T any] struct {
	kv     kv.Store
	key    string
	logger *zap.Logger
}

// load returns the stored collection. A missing key, a read failure and
// a decode failure all yield an empty collection; a corrupt blob is never
// partially recovered.
func (b blob[T]) load(ctx context.Context) []T {
	raw, ok, err := b.kv.Get(ctx, b.key)
	if err != nil {
		b.logger.Error("failed to load collection", zap.String("key", b.key), zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}

	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		b.logger.Warn("discarding unreadable collection",
			zap.String("key", b.key), zap.Error(err))
		return nil
	}
	return items
}

// save overwrites the stored collection. Failures are logged and the
// caller's in-memory state is left as is.
func (b blob[T]) save(ctx context.Context, items []T) {
	if items == nil {
		items = []T{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		b.logger.Error("failed to encode collection", zap.String("key", b.key), zap.Error(err))
		return
	}
	if err := b.kv.Set(ctx, b.key, string(raw)); err != nil {
		b.logger.Error("failed to save collection", zap.String("key", b.key), zap.Error(err))
	}
}

// observers fans a collection snapshot out to subscribers.
type observers[T any] struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func([]T)
}

func (o *observers[T]) subscribe(fn func([]T)) func() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.subs == nil {
		o.subs = make(map[int]func([]T))
	}
	id := o.nextID
	o.nextID++
	o.subs[id] = fn

	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		delete(o.subs, id)
	}
}

func (o *observers[T]) notify(snapshot func() []T) {
	o.mu.Lock()
	fns := make([]func([]T), 0, len(o.subs))
	for _, fn := range o.subs {
		fns = append(fns, fn)
	}
	o.mu.Unlock()

	for _, fn := range fns {
		fn(snapshot())
	}
}

func laterOf(prev, now time.Time) time.Time {
	if now.Before(prev) {
		return prev
	}
	return now
}
