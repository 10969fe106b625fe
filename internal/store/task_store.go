package store

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/nhle/taskkeeper/internal/kv"
	"github.com/nhle/taskkeeper/internal/model"
)

// TaskStore owns the task collection.
type TaskStore struct {
	mu    sync.Mutex
	tasks []model.Task
	blob  blob[model.Task]
	obs   observers[model.Task]
	opts  options
}

// NewTaskStore creates an empty task store persisting to s.
// Call Load before use to read the saved collection.
func NewTaskStore(s kv.Store, opts ...Option) *TaskStore {
	o := buildOptions(opts)
	return &TaskStore{
		blob: blob[model.Task]{kv: s, key: kv.KeyTasks, logger: o.logger},
		opts: o,
	}
}

// Load replaces the in-memory collection with the persisted one.
func (s *TaskStore) Load(ctx context.Context) {
	tasks := s.blob.load(ctx)

	s.mu.Lock()
	s.tasks = tasks
	s.mu.Unlock()

	s.opts.logger.Debug("tasks loaded", zap.Int("count", len(tasks)))
	s.obs.notify(s.All)
}

// Subscribe registers fn to receive the collection after every mutation.
// The returned function removes the subscription.
func (s *TaskStore) Subscribe(fn func([]model.Task)) func() {
	return s.obs.subscribe(fn)
}

// All returns a copy of every task in insertion order.
func (s *TaskStore) All() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	return cloneTasks(s.tasks)
}

// Add creates a task from draft. Duplicate titles are allowed.
func (s *TaskStore) Add(ctx context.Context, draft model.TaskDraft) model.Task {
	now := s.opts.now()
	task := model.Task{
		ID:           s.opts.newID(),
		Title:        draft.Title,
		Description:  draft.Description,
		Completed:    draft.Completed,
		Priority:     draft.Priority,
		DueDate:      draft.DueDate,
		ReminderDate: draft.ReminderDate,
		CategoryID:   draft.CategoryID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}.Clone()
	normalizeDates(&task)
	if task.Priority == "" {
		task.Priority = model.PriorityMedium
	}

	s.mu.Lock()
	s.tasks = append(s.tasks, task)
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.obs.notify(s.All)
	return task.Clone()
}

// BulkAdd appends tasks verbatim. IDs and timestamps are the caller's;
// nothing is deduplicated. Times are stored in UTC.
func (s *TaskStore) BulkAdd(ctx context.Context, tasks []model.Task) {
	if len(tasks) == 0 {
		return
	}

	added := cloneTasks(tasks)
	for i := range added {
		normalizeDates(&added[i])
		added[i].CreatedAt = added[i].CreatedAt.UTC()
		added[i].UpdatedAt = added[i].UpdatedAt.UTC()
	}

	s.mu.Lock()
	s.tasks = append(s.tasks, added...)
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.obs.notify(s.All)
}

// Update merges patch into the task with the given id and refreshes
// UpdatedAt. It reports false when no such task exists.
func (s *TaskStore) Update(ctx context.Context, id string, patch model.TaskPatch) (model.Task, bool) {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return model.Task{}, false
	}

	prev := s.tasks[idx]
	next := patch.Apply(prev)
	next.ID = prev.ID
	next.CreatedAt = prev.CreatedAt
	next.UpdatedAt = laterOf(prev.UpdatedAt, s.opts.now())
	normalizeDates(&next)

	s.tasks[idx] = next
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.obs.notify(s.All)
	return next.Clone(), true
}

// Delete removes the task and reports whether it existed. Reminders for
// the task are not touched.
func (s *TaskStore) Delete(ctx context.Context, id string) bool {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}

	s.tasks = append(s.tasks[:idx:idx], s.tasks[idx+1:]...)
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.obs.notify(s.All)
	return true
}

// Get returns the task with the given id.
func (s *TaskStore) Get(id string) (model.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return model.Task{}, false
	}
	return s.tasks[idx].Clone(), true
}

// ByCategory returns the tasks referencing categoryID; nil selects
// uncategorized tasks.
func (s *TaskStore) ByCategory(categoryID *string) []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Task
	for _, t := range s.tasks {
		if t.HasCategory(categoryID) {
			out = append(out, t.Clone())
		}
	}
	return out
}

// ToggleCompletion flips the completed flag of a task.
func (s *TaskStore) ToggleCompletion(ctx context.Context, id string) (model.Task, bool) {
	task, ok := s.Get(id)
	if !ok {
		return model.Task{}, false
	}
	return s.Update(ctx, id, model.TaskPatch{Completed: model.Set(!task.Completed)})
}

// Search matches query case-insensitively against title or description.
// A blank query returns the whole collection.
func (s *TaskStore) Search(query string) []model.Task {
	term := strings.ToLower(strings.TrimSpace(query))
	if term == "" {
		return s.All()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Task
	for _, t := range s.tasks {
		if strings.Contains(strings.ToLower(t.Title), term) ||
			strings.Contains(strings.ToLower(t.Description), term) {
			out = append(out, t.Clone())
		}
	}
	return out
}

func (s *TaskStore) indexLocked(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *TaskStore) persistLocked(ctx context.Context) {
	s.blob.save(ctx, s.tasks)
}

// normalizeDates stores optional dates in UTC so a reloaded collection
// compares equal to the one that was saved.
func normalizeDates(t *model.Task) {
	if t.DueDate != nil {
		d := t.DueDate.UTC()
		t.DueDate = &d
	}
	if t.ReminderDate != nil {
		r := t.ReminderDate.UTC()
		t.ReminderDate = &r
	}
}

func cloneTasks(tasks []model.Task) []model.Task {
	out := make([]model.Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}
