package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/nhle/taskkeeper/internal/kv"
	"github.com/nhle/taskkeeper/internal/model"
)

// CategoryStore owns the category collection.
type CategoryStore struct {
	mu         sync.Mutex
	categories []model.Category
	blob       blob[model.Category]
	obs        observers[model.Category]
	opts       options
}

// NewCategoryStore creates an empty category store persisting to s.
// Call Load before use to read the saved collection.
func NewCategoryStore(s kv.Store, opts ...Option) *CategoryStore {
	o := buildOptions(opts)
	return &CategoryStore{
		blob: blob[model.Category]{kv: s, key: kv.KeyCategories, logger: o.logger},
		opts: o,
	}
}

// Load replaces the in-memory collection with the persisted one.
func (s *CategoryStore) Load(ctx context.Context) {
	categories := s.blob.load(ctx)

	s.mu.Lock()
	s.categories = categories
	s.mu.Unlock()

	s.opts.logger.Debug("categories loaded", zap.Int("count", len(categories)))
	s.obs.notify(s.All)
}

// Subscribe registers fn to receive the collection after every mutation.
func (s *CategoryStore) Subscribe(fn func([]model.Category)) func() {
	return s.obs.subscribe(fn)
}

// All returns a copy of every category in insertion order.
func (s *CategoryStore) All() []model.Category {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Category, len(s.categories))
	copy(out, s.categories)
	return out
}

// Add creates a category. It fails with ErrDuplicateCategoryName when
// another category already has the same name, ignoring case.
func (s *CategoryStore) Add(ctx context.Context, draft model.CategoryDraft) (model.Category, error) {
	s.mu.Lock()
	for _, c := range s.categories {
		if strings.EqualFold(c.Name, draft.Name) {
			s.mu.Unlock()
			return model.Category{}, fmt.Errorf("adding category %q: %w", draft.Name, ErrDuplicateCategoryName)
		}
	}

	now := s.opts.now()
	category := model.Category{
		ID:        s.opts.newID(),
		Name:      draft.Name,
		Color:     draft.Color,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.categories = append(s.categories, category)
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.obs.notify(s.All)
	return category, nil
}

// Update merges patch into the category. The new name is not checked
// for uniqueness. It reports false when no such category exists.
func (s *CategoryStore) Update(ctx context.Context, id string, patch model.CategoryPatch) (model.Category, bool) {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return model.Category{}, false
	}

	prev := s.categories[idx]
	next := patch.Apply(prev)
	next.UpdatedAt = laterOf(prev.UpdatedAt, s.opts.now())

	s.categories[idx] = next
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.obs.notify(s.All)
	return next, true
}

// Delete removes the category and reports whether it existed. Tasks
// referencing it keep their CategoryID.
func (s *CategoryStore) Delete(ctx context.Context, id string) bool {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}

	s.categories = append(s.categories[:idx:idx], s.categories[idx+1:]...)
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.obs.notify(s.All)
	return true
}

// Get returns the category with the given id.
func (s *CategoryStore) Get(id string) (model.Category, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return model.Category{}, false
	}
	return s.categories[idx], true
}

// FindByName looks a category up by name, ignoring case.
func (s *CategoryStore) FindByName(name string) (model.Category, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.categories {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return model.Category{}, false
}

func (s *CategoryStore) indexLocked(id string) int {
	for i := range s.categories {
		if s.categories[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *CategoryStore) persistLocked(ctx context.Context) {
	s.blob.save(ctx, s.categories)
}
