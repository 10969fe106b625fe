package reminder

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nhle/taskkeeper/internal/kv"
	"github.com/nhle/taskkeeper/internal/model"
)

type options struct {
	newID  func() string
	logger *zap.Logger
}

// Option configures a Scheduler.
type Option func(*options)

// WithLogger sets the scheduler logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithIDGenerator overrides the ledger record id source.
func WithIDGenerator(newID func() string) Option {
	return func(o *options) { o.newID = newID }
}

// Scheduler schedules and cancels task reminders and owns the ledger of
// active ones.
type Scheduler struct {
	mu       sync.Mutex
	ledger   []model.Reminder
	kv       kv.Store
	platform Platform
	opts     options
}

// NewScheduler creates a scheduler with an empty ledger.
func NewScheduler(s kv.Store, p Platform, opts ...Option) *Scheduler {
	o := options{
		newID:  func() string { return uuid.New().String() },
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Scheduler{kv: s, platform: p, opts: o}
}

// Init loads the ledger and asks the platform for permission. A denied
// or failed request is logged; scheduling is still attempted later.
func (s *Scheduler) Init(ctx context.Context) {
	s.Load(ctx)

	granted, err := s.platform.RequestPermission(ctx)
	switch {
	case err != nil:
		s.opts.logger.Warn("reminder permission request failed", zap.Error(err))
	case !granted:
		s.opts.logger.Warn("reminder permission denied")
	}
}

// Load replaces the in-memory ledger with the persisted one. A missing,
// unreadable or corrupt ledger loads as empty.
func (s *Scheduler) Load(ctx context.Context) {
	ledger := s.readLedger(ctx)

	s.mu.Lock()
	s.ledger = ledger
	s.mu.Unlock()

	s.opts.logger.Debug("reminders loaded", zap.Int("count", len(ledger)))
}

// ScheduleFor schedules an alert at the task's reminder date, replacing
// any alert already scheduled for the task. It returns the platform
// handle, or false when the task has no reminder date or the platform
// refused.
func (s *Scheduler) ScheduleFor(ctx context.Context, task model.Task) (string, bool) {
	if task.ReminderDate == nil {
		return "", false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancelLocked(ctx, task.ID) {
		s.persistLocked(ctx)
	}

	alert := AlertFor(task)
	at := task.ReminderDate.UTC()

	handle, err := s.platform.ScheduleAt(ctx, at, alert)
	if err != nil {
		s.opts.logger.Error("failed to schedule reminder",
			zap.String("task_id", task.ID), zap.Error(err))
		return "", false
	}

	s.ledger = append(s.ledger, model.Reminder{
		ID:     s.opts.newID(),
		TaskID: task.ID,
		Handle: handle,
		Title:  alert.Title,
		Body:   alert.Body,
		Date:   at,
	})
	s.persistLocked(ctx)

	s.opts.logger.Debug("reminder scheduled",
		zap.String("task_id", task.ID), zap.String("handle", handle), zap.Time("at", at))
	return handle, true
}

// CancelFor cancels every alert scheduled for taskID and drops them from
// the ledger. It reports whether any ledger entry matched.
func (s *Scheduler) CancelFor(ctx context.Context, taskID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.cancelLocked(ctx, taskID) {
		return false
	}
	s.persistLocked(ctx)
	return true
}

// CancelAll cancels every alert in the ledger and empties it.
func (s *Scheduler) CancelAll(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.ledger {
		s.cancelHandle(ctx, r)
	}
	s.ledger = nil
	s.persistLocked(ctx)
}

// Rearm hands every ledger entry still in the future back to the
// platform and records the new handles. It is meant for in-process
// platforms whose timers do not survive a restart. Entries at or before
// now came due while nothing was running; their handles belong to the
// old process, so they are dropped. It returns how many alerts were
// re-armed.
func (s *Scheduler) Rearm(ctx context.Context, now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.ledger[:0:0]
	n, expired := 0, 0
	for _, r := range s.ledger {
		if !r.Date.After(now) {
			expired++
			continue
		}
		alert := Alert{
			Title:    r.Title,
			Body:     r.Body,
			Metadata: map[string]string{MetadataTaskID: r.TaskID},
		}
		handle, err := s.platform.ScheduleAt(ctx, r.Date, alert)
		if err != nil {
			s.opts.logger.Error("failed to re-arm reminder",
				zap.String("task_id", r.TaskID), zap.Error(err))
			kept = append(kept, r)
			continue
		}
		r.Handle = handle
		kept = append(kept, r)
		n++
	}
	s.ledger = kept

	if expired > 0 {
		s.opts.logger.Info("dropped expired reminders", zap.Int("count", expired))
	}
	if n > 0 || expired > 0 {
		s.persistLocked(ctx)
	}
	return n
}

// Active returns a copy of the ledger.
func (s *Scheduler) Active() []model.Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Reminder, len(s.ledger))
	copy(out, s.ledger)
	return out
}

// ForTask returns the ledger entries for taskID.
func (s *Scheduler) ForTask(taskID string) []model.Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Reminder
	for _, r := range s.ledger {
		if r.TaskID == taskID {
			out = append(out, r)
		}
	}
	return out
}

// cancelLocked cancels and removes the entries for taskID, reporting
// whether there were any. The caller persists.
func (s *Scheduler) cancelLocked(ctx context.Context, taskID string) bool {
	kept := s.ledger[:0:0]
	matched := false
	for _, r := range s.ledger {
		if r.TaskID != taskID {
			kept = append(kept, r)
			continue
		}
		matched = true
		s.cancelHandle(ctx, r)
	}
	if matched {
		s.ledger = kept
	}
	return matched
}

// cancelHandle withdraws one alert. An alert that already fired is not
// an error; any other failure is logged and the entry is dropped anyway.
func (s *Scheduler) cancelHandle(ctx context.Context, r model.Reminder) {
	err := s.platform.Cancel(ctx, r.Handle)
	if err == nil || errors.Is(err, ErrUnknownHandle) {
		return
	}
	s.opts.logger.Warn("failed to cancel reminder",
		zap.String("task_id", r.TaskID), zap.String("handle", r.Handle), zap.Error(err))
}

func (s *Scheduler) readLedger(ctx context.Context) []model.Reminder {
	raw, ok, err := s.kv.Get(ctx, kv.KeyNotifications)
	if err != nil {
		s.opts.logger.Error("failed to load reminders", zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}

	var ledger []model.Reminder
	if err := json.Unmarshal([]byte(raw), &ledger); err != nil {
		s.opts.logger.Warn("discarding unreadable reminders", zap.Error(err))
		return nil
	}
	return ledger
}

func (s *Scheduler) persistLocked(ctx context.Context) {
	ledger := s.ledger
	if ledger == nil {
		ledger = []model.Reminder{}
	}
	raw, err := json.Marshal(ledger)
	if err != nil {
		s.opts.logger.Error("failed to encode reminders", zap.Error(err))
		return
	}
	if err := s.kv.Set(ctx, kv.KeyNotifications, string(raw)); err != nil {
		s.opts.logger.Error("failed to save reminders", zap.Error(err))
	}
}
