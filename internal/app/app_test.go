package app_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskkeeper/internal/app"
	"github.com/nhle/taskkeeper/internal/kv"
	"github.com/nhle/taskkeeper/internal/model"
	"github.com/nhle/taskkeeper/internal/reminder"
	"github.com/nhle/taskkeeper/internal/testutil"
)

// fakePlatform records pending alerts by handle.
type fakePlatform struct {
	mu      sync.Mutex
	n       int
	pending map[string]reminder.Alert
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{pending: make(map[string]reminder.Alert)}
}

func (p *fakePlatform) RequestPermission(context.Context) (bool, error) { return true, nil }

func (p *fakePlatform) ScheduleAt(_ context.Context, _ time.Time, a reminder.Alert) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.n++
	h := fmt.Sprintf("h-%d", p.n)
	p.pending[h] = a
	return h, nil
}

func (p *fakePlatform) Cancel(_ context.Context, handle string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.pending[handle]; !ok {
		return reminder.ErrUnknownHandle
	}
	delete(p.pending, handle)
	return nil
}

func (p *fakePlatform) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

func newTestApp(t *testing.T) (*app.App, *fakePlatform, kv.Store) {
	t.Helper()

	db := testutil.NewTestKV(t)
	platform := newFakePlatform()
	clock := testutil.NewClock(testutil.Date(2026, 8, 1, 9, 0), time.Second)
	a := app.New(context.Background(), db, platform, app.WithClock(clock.Now))
	return a, platform, db
}

func TestSaveTaskSchedulesReminder(t *testing.T) {
	ctx := context.Background()
	a, platform, _ := newTestApp(t)

	remind := testutil.Date(2026, 8, 2, 8, 0)
	task := a.SaveTask(ctx, model.TaskDraft{Title: "Call bank", ReminderDate: &remind})

	entries := a.Reminders.ForTask(task.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, "Reminder: Call bank", entries[0].Title)
	assert.Equal(t, 1, platform.Pending())

	a.SaveTask(ctx, model.TaskDraft{Title: "No alarm"})
	assert.Len(t, a.Reminders.Active(), 1)
}

func TestEditTaskReschedules(t *testing.T) {
	ctx := context.Background()
	a, platform, _ := newTestApp(t)

	first := testutil.Date(2026, 8, 2, 8, 0)
	task := a.SaveTask(ctx, model.TaskDraft{Title: "Call bank", ReminderDate: &first})

	second := testutil.Date(2026, 8, 3, 8, 0)
	_, ok := a.EditTask(ctx, task.ID, model.TaskPatch{ReminderDate: model.Set(second)})
	require.True(t, ok)

	entries := a.Reminders.ForTask(task.ID)
	require.Len(t, entries, 1)
	assert.True(t, second.Equal(entries[0].Date))
	assert.Equal(t, 1, platform.Pending())

	_, ok = a.EditTask(ctx, task.ID, model.TaskPatch{ReminderDate: model.Clear[time.Time]()})
	require.True(t, ok)
	assert.Empty(t, a.Reminders.ForTask(task.ID))
	assert.Equal(t, 0, platform.Pending())
}

func TestEditUnknownTask(t *testing.T) {
	a, _, _ := newTestApp(t)
	_, ok := a.EditTask(context.Background(), "missing", model.TaskPatch{Title: model.Set("x")})
	assert.False(t, ok)
}

func TestDeleteTaskCancelsReminder(t *testing.T) {
	ctx := context.Background()
	a, platform, _ := newTestApp(t)

	remind := testutil.Date(2026, 8, 2, 8, 0)
	task := a.SaveTask(ctx, model.TaskDraft{Title: "Call bank", ReminderDate: &remind})

	assert.True(t, a.DeleteTask(ctx, task.ID))
	assert.Empty(t, a.Reminders.Active())
	assert.Equal(t, 0, platform.Pending())
	assert.False(t, a.DeleteTask(ctx, task.ID))
}

func TestDeleteCategory(t *testing.T) {
	ctx := context.Background()

	for _, detach := range []bool{false, true} {
		t.Run(fmt.Sprintf("detach=%v", detach), func(t *testing.T) {
			a, _, _ := newTestApp(t)

			work, err := a.Categories.Add(ctx, model.CategoryDraft{Name: "Work", Color: "#007AFF"})
			require.NoError(t, err)
			task := a.SaveTask(ctx, model.TaskDraft{Title: "Report", CategoryID: &work.ID})

			require.True(t, a.DeleteCategory(ctx, work.ID, detach))
			_, ok := a.Categories.Get(work.ID)
			assert.False(t, ok)

			got, ok := a.Tasks.Get(task.ID)
			require.True(t, ok)
			if detach {
				assert.Nil(t, got.CategoryID)
			} else {
				require.NotNil(t, got.CategoryID)
				assert.Equal(t, work.ID, *got.CategoryID)
			}

			assert.False(t, a.DeleteCategory(ctx, work.ID, detach))
		})
	}
}

func TestImportTemplate(t *testing.T) {
	ctx := context.Background()
	a, _, _ := newTestApp(t)

	n, err := a.ImportTemplate(ctx, "vacation")
	require.NoError(t, err)
	assert.Equal(t, 9, n)

	tasks := a.Tasks.All()
	require.Len(t, tasks, 9)
	assert.Equal(t, "Book flights", tasks[0].Title)
	assert.True(t, tasks[2].Completed, "Create itinerary is completed in the template")

	_, err = a.ImportTemplate(ctx, "nope")
	assert.ErrorIs(t, err, app.ErrUnknownTemplate)
}

func TestClearAll(t *testing.T) {
	ctx := context.Background()
	a, platform, db := newTestApp(t)

	remind := testutil.Date(2026, 8, 2, 8, 0)
	a.SaveTask(ctx, model.TaskDraft{Title: "Call bank", ReminderDate: &remind})
	_, err := a.Categories.Add(ctx, model.CategoryDraft{Name: "Work"})
	require.NoError(t, err)

	require.NoError(t, a.ClearAll(ctx))

	assert.Empty(t, a.Tasks.All())
	assert.Empty(t, a.Categories.All())
	assert.Empty(t, a.Reminders.Active())
	assert.Equal(t, 0, platform.Pending())

	_, ok, err := db.Get(ctx, kv.KeyTasks)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	a, _, _ := newTestApp(t)

	remind := testutil.Date(2026, 8, 2, 8, 0)
	a.SaveTask(ctx, model.TaskDraft{Title: "Call bank", ReminderDate: &remind})
	_, err := a.Categories.Add(ctx, model.CategoryDraft{Name: "Work"})
	require.NoError(t, err)

	data, err := a.Export(ctx)
	require.NoError(t, err)

	var snap app.Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.Equal(t, a.Tasks.All(), snap.Tasks)
	assert.Equal(t, a.Categories.All(), snap.Categories)
	assert.Equal(t, a.Reminders.Active(), snap.Notifications)
}

func TestOpenPersistsAcrossSessions(t *testing.T) {
	ctx := context.Background()
	cfg := model.DefaultAppConfig()
	cfg.Storage.Path = t.TempDir() + "/data/taskkeeper.db"

	a, err := app.Open(ctx, cfg, newFakePlatform())
	require.NoError(t, err)
	task := a.SaveTask(ctx, model.TaskDraft{Title: "Persist me"})
	require.NoError(t, a.Close())

	b, err := app.Open(ctx, cfg, newFakePlatform())
	require.NoError(t, err)
	defer b.Close()

	got, ok := b.Tasks.Get(task.ID)
	require.True(t, ok)
	assert.Equal(t, task, got)
}
