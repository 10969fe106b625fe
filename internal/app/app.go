package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/taskkeeper/internal/kv"
	"github.com/nhle/taskkeeper/internal/model"
	"github.com/nhle/taskkeeper/internal/reminder"
	"github.com/nhle/taskkeeper/internal/store"
	"github.com/nhle/taskkeeper/internal/template"
)

// ErrUnknownTemplate is returned by ImportTemplate for a name that
// matches no builtin template.
var ErrUnknownTemplate = errors.New("unknown template")

// App owns the key-value store and the three components built on it.
// Callers construct it once with Open and release it with Close.
type App struct {
	Tasks      *store.TaskStore
	Categories *store.CategoryStore
	Reminders  *reminder.Scheduler

	kv     kv.Store
	logger *zap.Logger
	now    func() time.Time
}

// Option configures an App.
type Option func(*config)

type config struct {
	logger    *zap.Logger
	now       func() time.Time
	storeOpts []store.Option
	remOpts   []reminder.Option
}

// WithLogger sets the logger shared by every component.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithClock overrides the time source of the stores and importers.
func WithClock(now func() time.Time) Option {
	return func(c *config) { c.now = now }
}

// Open opens the SQLite database named by cfg and loads every collection.
func Open(ctx context.Context, cfg *model.AppConfig, platform reminder.Platform, opts ...Option) (*App, error) {
	path := cfg.Storage.Path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory for %s: %w", path, err)
		}
	}

	s, err := kv.NewSQLiteStore(path)
	if err != nil {
		return nil, fmt.Errorf("opening store %s: %w", path, err)
	}

	return New(ctx, s, platform, opts...), nil
}

// New builds an App over an already opened key-value store and loads
// every collection. The App takes ownership of s.
func New(ctx context.Context, s kv.Store, platform reminder.Platform, opts ...Option) *App {
	c := config{
		logger: zap.NewNop(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(&c)
	}
	c.storeOpts = append(c.storeOpts, store.WithLogger(c.logger), store.WithClock(c.now))
	c.remOpts = append(c.remOpts, reminder.WithLogger(c.logger))

	a := &App{
		Tasks:      store.NewTaskStore(s, c.storeOpts...),
		Categories: store.NewCategoryStore(s, c.storeOpts...),
		Reminders:  reminder.NewScheduler(s, platform, c.remOpts...),
		kv:         s,
		logger:     c.logger,
		now:        c.now,
	}

	a.Tasks.Load(ctx)
	a.Categories.Load(ctx)
	a.Reminders.Init(ctx)
	return a
}

// Close releases the key-value store.
func (a *App) Close() error {
	if err := a.kv.Close(); err != nil {
		return fmt.Errorf("closing store: %w", err)
	}
	return nil
}

// SaveTask creates a task and schedules its reminder, if any.
func (a *App) SaveTask(ctx context.Context, draft model.TaskDraft) model.Task {
	task := a.Tasks.Add(ctx, draft)
	if task.ReminderDate != nil {
		a.Reminders.ScheduleFor(ctx, task)
	}
	return task
}

// EditTask applies patch and reschedules the task's reminder from the
// updated reminder date.
func (a *App) EditTask(ctx context.Context, id string, patch model.TaskPatch) (model.Task, bool) {
	a.Reminders.CancelFor(ctx, id)

	task, ok := a.Tasks.Update(ctx, id, patch)
	if !ok {
		return model.Task{}, false
	}
	a.Reminders.ScheduleFor(ctx, task)
	return task, true
}

// ToggleTask flips a task's completion. Its reminder is left alone.
func (a *App) ToggleTask(ctx context.Context, id string) (model.Task, bool) {
	return a.Tasks.ToggleCompletion(ctx, id)
}

// DeleteTask cancels the task's reminders and removes it.
func (a *App) DeleteTask(ctx context.Context, id string) bool {
	a.Reminders.CancelFor(ctx, id)
	return a.Tasks.Delete(ctx, id)
}

// DeleteCategory removes a category. With detach, tasks referencing it
// become uncategorized first; otherwise they keep the dangling id.
func (a *App) DeleteCategory(ctx context.Context, id string, detach bool) bool {
	if _, ok := a.Categories.Get(id); !ok {
		return false
	}

	if detach {
		for _, t := range a.Tasks.ByCategory(&id) {
			a.Tasks.Update(ctx, t.ID, model.TaskPatch{CategoryID: model.Clear[string]()})
		}
	}
	return a.Categories.Delete(ctx, id)
}

// ImportTemplate appends the tasks of the named builtin template and
// returns how many were added.
func (a *App) ImportTemplate(ctx context.Context, name string) (int, error) {
	tpl, ok := template.Find(name)
	if !ok {
		return 0, fmt.Errorf("importing template %q: %w", name, ErrUnknownTemplate)
	}

	tasks := template.Build(tpl, a.now())
	a.Tasks.BulkAdd(ctx, tasks)

	a.logger.Info("template imported",
		zap.String("template", tpl.Name), zap.Int("tasks", len(tasks)))
	return len(tasks), nil
}

// ClearAll cancels every reminder and wipes all stored data.
func (a *App) ClearAll(ctx context.Context) error {
	a.Reminders.CancelAll(ctx)

	if err := a.kv.Clear(ctx); err != nil {
		return fmt.Errorf("clearing store: %w", err)
	}

	a.Tasks.Load(ctx)
	a.Categories.Load(ctx)
	a.Reminders.Load(ctx)
	a.logger.Info("all data cleared")
	return nil
}

// Snapshot is the exported form of every collection.
type Snapshot struct {
	Tasks         []model.Task     `json:"tasks"`
	Categories    []model.Category `json:"categories"`
	Notifications []model.Reminder `json:"notifications"`
}

// Export returns every collection as indented JSON.
func (a *App) Export(context.Context) ([]byte, error) {
	snap := Snapshot{
		Tasks:         a.Tasks.All(),
		Categories:    a.Categories.All(),
		Notifications: a.Reminders.Active(),
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding export: %w", err)
	}
	return data, nil
}
