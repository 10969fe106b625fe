package reminder

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LocalPlatform schedules alerts as in-process timers. It lives only as
// long as the process, so it suits the CLI's foreground modes.
type LocalPlatform struct {
	mu      sync.Mutex
	timers  map[string]*time.Timer
	closed  bool
	deliver Deliverer
	logger  *zap.Logger
}

// NewLocalPlatform returns a platform that hands fired alerts to d.
func NewLocalPlatform(d Deliverer, logger *zap.Logger) *LocalPlatform {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalPlatform{
		timers:  make(map[string]*time.Timer),
		deliver: d,
		logger:  logger,
	}
}

// RequestPermission always grants; a terminal needs no prompt.
func (p *LocalPlatform) RequestPermission(context.Context) (bool, error) {
	return true, nil
}

// ScheduleAt arms a timer for at. Times in the past fire immediately.
func (p *LocalPlatform) ScheduleAt(_ context.Context, at time.Time, alert Alert) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return "", ErrPlatformClosed
	}

	handle := uuid.New().String()
	delay := time.Until(at)
	if delay < 0 {
		delay = 0
	}
	p.timers[handle] = time.AfterFunc(delay, func() { p.fire(handle, alert) })
	return handle, nil
}

// Cancel stops a pending timer. Handles that already fired, or were
// never issued, yield ErrUnknownHandle.
func (p *LocalPlatform) Cancel(_ context.Context, handle string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	t, ok := p.timers[handle]
	if !ok {
		return ErrUnknownHandle
	}
	t.Stop()
	delete(p.timers, handle)
	return nil
}

// Pending returns the number of armed timers.
func (p *LocalPlatform) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.timers)
}

// Close stops every pending timer. Later ScheduleAt calls fail.
func (p *LocalPlatform) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for handle, t := range p.timers {
		t.Stop()
		delete(p.timers, handle)
	}
	p.closed = true
	return nil
}

func (p *LocalPlatform) fire(handle string, alert Alert) {
	p.mu.Lock()
	_, ok := p.timers[handle]
	delete(p.timers, handle)
	p.mu.Unlock()

	if !ok {
		return
	}

	if err := p.deliver.Deliver(context.Background(), alert); err != nil {
		p.logger.Error("failed to deliver reminder",
			zap.String("handle", handle),
			zap.String("task_id", alert.Metadata[MetadataTaskID]),
			zap.Error(err))
	}
}

var _ Platform = (*LocalPlatform)(nil)
