package reminder_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskkeeper/internal/kv"
	"github.com/nhle/taskkeeper/internal/reminder"
)

type recordingDeliverer struct {
	mu     sync.Mutex
	alerts []reminder.Alert
	fired  chan struct{}
}

func newRecordingDeliverer() *recordingDeliverer {
	return &recordingDeliverer{fired: make(chan struct{}, 8)}
}

func (d *recordingDeliverer) Deliver(_ context.Context, a reminder.Alert) error {
	d.mu.Lock()
	d.alerts = append(d.alerts, a)
	d.mu.Unlock()
	d.fired <- struct{}{}
	return nil
}

func (d *recordingDeliverer) Alerts() []reminder.Alert {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]reminder.Alert(nil), d.alerts...)
}

func waitFired(t *testing.T, d *recordingDeliverer) {
	t.Helper()
	select {
	case <-d.fired:
	case <-time.After(2 * time.Second):
		t.Fatal("alert was not delivered")
	}
}

func TestLocalPlatform_PastTimeFiresImmediately(t *testing.T) {
	ctx := context.Background()
	d := newRecordingDeliverer()
	p := reminder.NewLocalPlatform(d, nil)
	defer p.Close()

	alert := reminder.Alert{Title: "Reminder: x", Metadata: map[string]string{"taskId": "t1"}}
	handle, err := p.ScheduleAt(ctx, time.Now().Add(-time.Hour), alert)
	require.NoError(t, err)
	require.NotEmpty(t, handle)

	waitFired(t, d)
	assert.Equal(t, []reminder.Alert{alert}, d.Alerts())
	assert.Equal(t, 0, p.Pending())

	assert.ErrorIs(t, p.Cancel(ctx, handle), reminder.ErrUnknownHandle)
}

func TestLocalPlatform_CancelStopsPendingTimer(t *testing.T) {
	ctx := context.Background()
	d := newRecordingDeliverer()
	p := reminder.NewLocalPlatform(d, nil)
	defer p.Close()

	handle, err := p.ScheduleAt(ctx, time.Now().Add(time.Hour), reminder.Alert{Title: "later"})
	require.NoError(t, err)
	assert.Equal(t, 1, p.Pending())

	require.NoError(t, p.Cancel(ctx, handle))
	assert.Equal(t, 0, p.Pending())
	assert.ErrorIs(t, p.Cancel(ctx, handle), reminder.ErrUnknownHandle)
}

func TestLocalPlatform_CloseRejectsNewAlerts(t *testing.T) {
	ctx := context.Background()
	p := reminder.NewLocalPlatform(newRecordingDeliverer(), nil)

	_, err := p.ScheduleAt(ctx, time.Now().Add(time.Hour), reminder.Alert{})
	require.NoError(t, err)
	require.NoError(t, p.Close())

	assert.Equal(t, 0, p.Pending())
	_, err = p.ScheduleAt(ctx, time.Now(), reminder.Alert{})
	assert.ErrorIs(t, err, reminder.ErrPlatformClosed)
}

// Cancelling a task whose alert already fired still clears its ledger
// entry and reports a match.
func TestScheduler_CancelAfterFireWithLocalPlatform(t *testing.T) {
	ctx := context.Background()
	d := newRecordingDeliverer()
	p := reminder.NewLocalPlatform(d, nil)
	defer p.Close()

	s := reminder.NewScheduler(kv.NewMemoryStore(), p)
	s.Init(ctx)

	_, ok := s.ScheduleFor(ctx, remindedTask("t1", time.Now().Add(-time.Minute)))
	require.True(t, ok)
	waitFired(t, d)

	assert.True(t, s.CancelFor(ctx, "t1"))
	assert.Empty(t, s.Active())
}
