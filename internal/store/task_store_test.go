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

func newTaskStore(t *testing.T, s kv.Store, clock *testutil.Clock) *store.TaskStore {
	t.Helper()

	ts := store.NewTaskStore(s,
		store.WithClock(clock.Now),
		store.WithIDGenerator(testutil.SequentialIDs("task")),
	)
	ts.Load(context.Background())
	return ts
}

func TestTaskStore_AddAssignsUniqueIDsAndEqualTimestamps(t *testing.T) {
	ctx := context.Background()
	ts := store.NewTaskStore(kv.NewMemoryStore())
	ts.Load(ctx)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		task := ts.Add(ctx, model.TaskDraft{Title: "same title"})
		assert.False(t, seen[task.ID], "duplicate id %s", task.ID)
		seen[task.ID] = true
		assert.Equal(t, task.CreatedAt, task.UpdatedAt)
		assert.Equal(t, model.PriorityMedium, task.Priority)
	}
	assert.Len(t, ts.All(), 50)
}

func TestTaskStore_UpdateMergesFieldsAndBumpsUpdatedAt(t *testing.T) {
	ctx := context.Background()
	clock := testutil.NewClock(testutil.Date(2026, 3, 1, 9, 0), time.Minute)
	ts := newTaskStore(t, kv.NewMemoryStore(), clock)

	due := testutil.Date(2026, 3, 5, 17, 0)
	created := ts.Add(ctx, model.TaskDraft{
		Title:       "Report",
		Description: "quarterly",
		Priority:    model.PriorityLow,
		DueDate:     &due,
	})

	updated, ok := ts.Update(ctx, created.ID, model.TaskPatch{
		Title:    model.Set("Final report"),
		Priority: model.Set(model.PriorityHigh),
	})
	require.True(t, ok)
	assert.Equal(t, "Final report", updated.Title)
	assert.Equal(t, model.PriorityHigh, updated.Priority)
	assert.Equal(t, "quarterly", updated.Description, "untouched fields keep their value")
	require.NotNil(t, updated.DueDate)
	assert.True(t, due.Equal(*updated.DueDate))
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	got, ok := ts.Get(created.ID)
	require.True(t, ok)
	assert.Equal(t, updated, got)
}

func TestTaskStore_UpdateNeverMovesUpdatedAtBackwards(t *testing.T) {
	ctx := context.Background()
	clock := testutil.NewClock(testutil.Date(2026, 3, 1, 9, 0), 0)
	ts := newTaskStore(t, kv.NewMemoryStore(), clock)

	created := ts.Add(ctx, model.TaskDraft{Title: "a"})

	clock.Set(testutil.Date(2026, 2, 1, 9, 0))
	updated, ok := ts.Update(ctx, created.ID, model.TaskPatch{Title: model.Set("b")})
	require.True(t, ok)
	assert.Equal(t, created.UpdatedAt, updated.UpdatedAt)
}

func TestTaskStore_UpdateDistinguishesClearFromUntouched(t *testing.T) {
	ctx := context.Background()
	clock := testutil.NewClock(testutil.Date(2026, 3, 1, 9, 0), time.Second)
	ts := newTaskStore(t, kv.NewMemoryStore(), clock)

	reminder := testutil.Date(2026, 3, 2, 8, 0)
	created := ts.Add(ctx, model.TaskDraft{
		Title:        "call mom",
		ReminderDate: &reminder,
		CategoryID:   testutil.Ptr("cat-1"),
	})

	untouched, ok := ts.Update(ctx, created.ID, model.TaskPatch{Title: model.Set("call dad")})
	require.True(t, ok)
	assert.NotNil(t, untouched.ReminderDate)
	assert.NotNil(t, untouched.CategoryID)

	cleared, ok := ts.Update(ctx, created.ID, model.TaskPatch{
		ReminderDate: model.Clear[time.Time](),
		CategoryID:   model.Clear[string](),
	})
	require.True(t, ok)
	assert.Nil(t, cleared.ReminderDate)
	assert.Nil(t, cleared.CategoryID)
	assert.Equal(t, "call dad", cleared.Title)
}

func TestTaskStore_UpdateUnknownIDIsNotFound(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemoryStore()
	ts := store.NewTaskStore(mem)
	ts.Load(ctx)

	_, ok := ts.Update(ctx, "missing", model.TaskPatch{Title: model.Set("x")})
	assert.False(t, ok)
	assert.Equal(t, 0, mem.SetCount(), "a not-found update must not persist")
}

func TestTaskStore_DeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	ts := store.NewTaskStore(kv.NewMemoryStore())
	ts.Load(ctx)

	task := ts.Add(ctx, model.TaskDraft{Title: "temp"})

	assert.True(t, ts.Delete(ctx, task.ID))
	_, ok := ts.Get(task.ID)
	assert.False(t, ok)

	assert.False(t, ts.Delete(ctx, task.ID))
	assert.False(t, ts.Delete(ctx, task.ID))
}

func TestTaskStore_ToggleCompletionIsAnInvolution(t *testing.T) {
	ctx := context.Background()
	ts := store.NewTaskStore(kv.NewMemoryStore())
	ts.Load(ctx)

	task := ts.Add(ctx, model.TaskDraft{Title: "flip me"})

	once, ok := ts.ToggleCompletion(ctx, task.ID)
	require.True(t, ok)
	assert.True(t, once.Completed)

	twice, ok := ts.ToggleCompletion(ctx, task.ID)
	require.True(t, ok)
	assert.Equal(t, task.Completed, twice.Completed)

	_, ok = ts.ToggleCompletion(ctx, "missing")
	assert.False(t, ok)
}

func TestTaskStore_Search(t *testing.T) {
	ctx := context.Background()
	ts := store.NewTaskStore(kv.NewMemoryStore())
	ts.Load(ctx)

	milk := ts.Add(ctx, model.TaskDraft{Title: "Buy milk"})
	dog := ts.Add(ctx, model.TaskDraft{Title: "Walk dog", Description: "buy leash"})
	book := ts.Add(ctx, model.TaskDraft{Title: "Read book"})

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"empty returns all", "", []string{milk.ID, dog.ID, book.ID}},
		{"whitespace returns all", "   ", []string{milk.ID, dog.ID, book.ID}},
		{"title or description", "buy", []string{milk.ID, dog.ID}},
		{"case insensitive", "BUY", []string{milk.ID, dog.ID}},
		{"trimmed", "  dog ", []string{dog.ID}},
		{"no match", "groceries", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ids []string
			for _, task := range ts.Search(tt.query) {
				ids = append(ids, task.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestTaskStore_ByCategory(t *testing.T) {
	ctx := context.Background()
	ts := store.NewTaskStore(kv.NewMemoryStore())
	ts.Load(ctx)

	work := ts.Add(ctx, model.TaskDraft{Title: "Report", CategoryID: testutil.Ptr("work")})
	loose := ts.Add(ctx, model.TaskDraft{Title: "Loose"})
	ts.Add(ctx, model.TaskDraft{Title: "Gym", CategoryID: testutil.Ptr("health")})

	got := ts.ByCategory(testutil.Ptr("work"))
	require.Len(t, got, 1)
	assert.Equal(t, work.ID, got[0].ID)

	uncategorized := ts.ByCategory(nil)
	require.Len(t, uncategorized, 1)
	assert.Equal(t, loose.ID, uncategorized[0].ID)
}

func TestTaskStore_BulkAddKeepsTasksVerbatim(t *testing.T) {
	ctx := context.Background()
	ts := store.NewTaskStore(kv.NewMemoryStore())
	ts.Load(ctx)

	at := testutil.Date(2026, 1, 1, 0, 0)
	imported := []model.Task{
		{ID: "tpl-1", Title: "Book flights", Priority: model.PriorityHigh, CreatedAt: at, UpdatedAt: at},
		{ID: "tpl-1", Title: "Book flights", Priority: model.PriorityHigh, CreatedAt: at, UpdatedAt: at},
	}
	ts.BulkAdd(ctx, imported)

	assert.Equal(t, imported, ts.All())
}

func TestTaskStore_BulkAddNormalizesToUTC(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestKV(t)
	ts := store.NewTaskStore(db)
	ts.Load(ctx)

	zone := time.FixedZone("EST", -5*60*60)
	at := time.Date(2026, 2, 1, 9, 0, 0, 0, zone)
	due := time.Date(2026, 2, 3, 17, 0, 0, 0, zone)
	ts.BulkAdd(ctx, []model.Task{
		{ID: "imp-1", Title: "Imported", Priority: model.PriorityLow, DueDate: &due, ReminderDate: &due, CreatedAt: at, UpdatedAt: at},
	})

	got, ok := ts.Get("imp-1")
	require.True(t, ok)
	assert.Equal(t, time.UTC, got.DueDate.Location())
	assert.True(t, got.DueDate.Equal(due))
	assert.Equal(t, time.UTC, got.CreatedAt.Location())

	reloaded := store.NewTaskStore(db)
	reloaded.Load(ctx)
	assert.Equal(t, ts.All(), reloaded.All())
}

func TestTaskStore_ReloadIsDeepEqual(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestKV(t)
	clock := testutil.NewClock(testutil.Date(2026, 4, 1, 12, 30), 1500*time.Millisecond)
	ts := newTaskStore(t, db, clock)

	local := time.FixedZone("CEST", 2*60*60)
	due := time.Date(2026, 4, 3, 18, 0, 0, 123456789, local)
	ts.Add(ctx, model.TaskDraft{Title: "with dates", DueDate: &due, ReminderDate: &due, CategoryID: testutil.Ptr("c")})
	ts.Add(ctx, model.TaskDraft{Title: "plain", Priority: model.PriorityLow})
	toggled := ts.Add(ctx, model.TaskDraft{Title: "done"})
	ts.ToggleCompletion(ctx, toggled.ID)

	reloaded := store.NewTaskStore(db)
	reloaded.Load(ctx)

	assert.Equal(t, ts.All(), reloaded.All())
}

func TestTaskStore_LoadTreatsCorruptBlobAsEmpty(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemoryStore()
	require.NoError(t, mem.Set(ctx, kv.KeyTasks, `[{"id":"a","title":"ok"}, {"id": 42}]`))

	ts := store.NewTaskStore(mem)
	ts.Load(ctx)

	assert.Empty(t, ts.All())
}

func TestTaskStore_PersistFailureKeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemoryStore()
	ts := store.NewTaskStore(mem)
	ts.Load(ctx)

	mem.FailSet = errors.New("quota exceeded")
	task := ts.Add(ctx, model.TaskDraft{Title: "unsaved"})

	got, ok := ts.Get(task.ID)
	require.True(t, ok)
	assert.Equal(t, "unsaved", got.Title)

	_, saved, err := mem.Get(ctx, kv.KeyTasks)
	require.NoError(t, err)
	assert.False(t, saved)
}

func TestTaskStore_SubscribersSeeEveryMutation(t *testing.T) {
	ctx := context.Background()
	ts := store.NewTaskStore(kv.NewMemoryStore())
	ts.Load(ctx)

	var sizes []int
	unsubscribe := ts.Subscribe(func(tasks []model.Task) {
		sizes = append(sizes, len(tasks))
	})

	a := ts.Add(ctx, model.TaskDraft{Title: "a"})
	ts.Add(ctx, model.TaskDraft{Title: "b"})
	ts.Delete(ctx, a.ID)
	unsubscribe()
	ts.Add(ctx, model.TaskDraft{Title: "c"})

	assert.Equal(t, []int{1, 2, 1}, sizes)
}

func TestTaskStore_ReturnedTasksDoNotAliasState(t *testing.T) {
	ctx := context.Background()
	ts := store.NewTaskStore(kv.NewMemoryStore())
	ts.Load(ctx)

	due := testutil.Date(2026, 5, 1, 0, 0)
	task := ts.Add(ctx, model.TaskDraft{Title: "a", DueDate: &due})
	*task.DueDate = testutil.Date(2030, 1, 1, 0, 0)

	got, ok := ts.Get(task.ID)
	require.True(t, ok)
	assert.True(t, due.Equal(*got.DueDate))
}
