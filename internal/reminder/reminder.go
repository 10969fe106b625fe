// Package reminder keeps local alerts in step with tasks. A Scheduler
// records every alert it hands to a Platform in a ledger persisted under
// the "notifications" key, so alerts can be cancelled later by task id.
package reminder

import (
	"context"
	"errors"
	"time"

	"github.com/nhle/taskkeeper/internal/model"
)

// MetadataTaskID is the Alert metadata key carrying the owning task id.
const MetadataTaskID = "taskId"

const defaultBody = "Task reminder"

var (
	// ErrUnknownHandle is returned by Platform.Cancel when the handle is
	// not pending, typically because the alert already fired.
	ErrUnknownHandle = errors.New("unknown reminder handle")

	// ErrPlatformClosed is returned when scheduling on a closed platform.
	ErrPlatformClosed = errors.New("reminder platform closed")
)

// Alert is the content of one local notification.
type Alert struct {
	Title    string
	Body     string
	Metadata map[string]string
}

// Platform is the local-notification facility of the host.
type Platform interface {
	// RequestPermission asks the user to allow alerts.
	RequestPermission(ctx context.Context) (bool, error)

	// ScheduleAt arranges for alert to be shown at the given time and
	// returns an opaque handle for cancellation.
	ScheduleAt(ctx context.Context, at time.Time, alert Alert) (string, error)

	// Cancel withdraws a pending alert.
	Cancel(ctx context.Context, handle string) error
}

// Deliverer shows a fired alert to the user.
type Deliverer interface {
	Deliver(ctx context.Context, alert Alert) error
}

// AlertFor builds the alert shown for task.
func AlertFor(task model.Task) Alert {
	body := task.Description
	if body == "" {
		body = defaultBody
	}
	return Alert{
		Title:    "Reminder: " + task.Title,
		Body:     body,
		Metadata: map[string]string{MetadataTaskID: task.ID},
	}
}
