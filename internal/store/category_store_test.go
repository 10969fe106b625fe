package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskkeeper/internal/kv"
	"github.com/nhle/taskkeeper/internal/model"
	"github.com/nhle/taskkeeper/internal/store"
	"github.com/nhle/taskkeeper/internal/testutil"
)

func TestCategoryStore_AddRejectsDuplicateNameIgnoringCase(t *testing.T) {
	ctx := context.Background()
	cs := store.NewCategoryStore(kv.NewMemoryStore())
	cs.Load(ctx)

	_, err := cs.Add(ctx, model.CategoryDraft{Name: "Work", Color: "#f00"})
	require.NoError(t, err)

	_, err = cs.Add(ctx, model.CategoryDraft{Name: "work", Color: "#0f0"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrDuplicateCategoryName))
	assert.Contains(t, err.Error(), "category with this name already exists")

	assert.Len(t, cs.All(), 1)
}

func TestCategoryStore_UpdateDoesNotRecheckNames(t *testing.T) {
	ctx := context.Background()
	cs := store.NewCategoryStore(kv.NewMemoryStore())
	cs.Load(ctx)

	_, err := cs.Add(ctx, model.CategoryDraft{Name: "Work"})
	require.NoError(t, err)
	home, err := cs.Add(ctx, model.CategoryDraft{Name: "Home"})
	require.NoError(t, err)

	renamed, ok := cs.Update(ctx, home.ID, model.CategoryPatch{Name: model.Set("WORK")})
	require.True(t, ok)
	assert.Equal(t, "WORK", renamed.Name)
	assert.Equal(t, home.Color, renamed.Color)
}

func TestCategoryStore_UpdateAndDeleteUnknown(t *testing.T) {
	ctx := context.Background()
	cs := store.NewCategoryStore(kv.NewMemoryStore())
	cs.Load(ctx)

	_, ok := cs.Update(ctx, "nope", model.CategoryPatch{Color: model.Set("#000")})
	assert.False(t, ok)
	assert.False(t, cs.Delete(ctx, "nope"))
}

func TestCategoryStore_UpdateBumpsUpdatedAt(t *testing.T) {
	ctx := context.Background()
	clock := testutil.NewClock(testutil.Date(2026, 6, 1, 8, 0), time.Hour)
	cs := store.NewCategoryStore(kv.NewMemoryStore(), store.WithClock(clock.Now))
	cs.Load(ctx)

	c, err := cs.Add(ctx, model.CategoryDraft{Name: "Errands", Color: "#abc"})
	require.NoError(t, err)
	assert.Equal(t, c.CreatedAt, c.UpdatedAt)

	updated, ok := cs.Update(ctx, c.ID, model.CategoryPatch{Color: model.Set("#def")})
	require.True(t, ok)
	assert.Equal(t, "#def", updated.Color)
	assert.Equal(t, c.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(c.UpdatedAt))
}

func TestCategoryStore_FindByName(t *testing.T) {
	ctx := context.Background()
	cs := store.NewCategoryStore(kv.NewMemoryStore())
	cs.Load(ctx)

	added, err := cs.Add(ctx, model.CategoryDraft{Name: "Health"})
	require.NoError(t, err)

	got, ok := cs.FindByName("HEALTH")
	require.True(t, ok)
	assert.Equal(t, added.ID, got.ID)

	_, ok = cs.FindByName("Finance")
	assert.False(t, ok)
}

func TestCategoryStore_ReloadIsDeepEqual(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestKV(t)
	clock := testutil.NewClock(testutil.Date(2026, 6, 1, 8, 0), time.Millisecond)

	cs := store.NewCategoryStore(db, store.WithClock(clock.Now))
	cs.Load(ctx)
	for _, name := range []string{"Work", "Home", "Travel"} {
		_, err := cs.Add(ctx, model.CategoryDraft{Name: name, Color: "#123456"})
		require.NoError(t, err)
	}

	reloaded := store.NewCategoryStore(db)
	reloaded.Load(ctx)
	assert.Equal(t, cs.All(), reloaded.All())
}

func TestCategoryStore_LoadReadFailureIsEmpty(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemoryStore()
	require.NoError(t, mem.Set(ctx, kv.KeyCategories, `[{"id":"c1","name":"Work"}]`))
	mem.FailGet = errors.New("disk gone")

	cs := store.NewCategoryStore(mem)
	cs.Load(ctx)
	assert.Empty(t, cs.All())
}

// A category deleted out from under its tasks leaves them pointing at an
// id that no longer resolves.
func TestStores_DeletingCategoryDoesNotCascade(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestKV(t)

	cs := store.NewCategoryStore(db)
	cs.Load(ctx)
	ts := store.NewTaskStore(db)
	ts.Load(ctx)

	work, err := cs.Add(ctx, model.CategoryDraft{Name: "Work", Color: "#007AFF"})
	require.NoError(t, err)

	task := ts.Add(ctx, model.TaskDraft{Title: "Report", CategoryID: &work.ID})
	assert.Len(t, ts.ByCategory(&work.ID), 1)

	require.True(t, cs.Delete(ctx, work.ID))

	got, ok := ts.Get(task.ID)
	require.True(t, ok)
	require.NotNil(t, got.CategoryID)
	assert.Equal(t, work.ID, *got.CategoryID)

	_, ok = cs.Get(*got.CategoryID)
	assert.False(t, ok)
}

func TestCategoryStore_SubscribersReceiveSnapshots(t *testing.T) {
	ctx := context.Background()
	cs := store.NewCategoryStore(kv.NewMemoryStore())
	cs.Load(ctx)

	var last []model.Category
	cs.Subscribe(func(categories []model.Category) { last = categories })

	c, err := cs.Add(ctx, model.CategoryDraft{Name: "Work"})
	require.NoError(t, err)
	require.Len(t, last, 1)

	last[0].Name = "mutated"
	got, ok := cs.Get(c.ID)
	require.True(t, ok)
	assert.Equal(t, "Work", got.Name)
}
