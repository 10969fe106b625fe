package reminder

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/nhle/taskkeeper/internal/model"
)

func TestMailDeliverer_ComposesPlainTextMessage(t *testing.T) {
	d := NewMailDeliverer(model.MailConfig{
		Host:     "smtp.example.com",
		Port:     "587",
		Username: "me@example.com",
		To:       "inbox@example.com",
	}, "secret")
	d.now = func() time.Time { return time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC) }

	var sent []byte
	d.send = func(_ context.Context, cfg SMTPConfig, from, to string, msg []byte) error {
		assert.Equal(t, "secret", cfg.Password)
		assert.Equal(t, "me@example.com", from, "from falls back to the username")
		assert.Equal(t, "inbox@example.com", to)
		sent = msg
		return nil
	}

	alert := AlertFor(model.Task{ID: "t1", Title: "Pay rent", Description: "before the 5th"})
	require.NoError(t, d.Deliver(context.Background(), alert))

	mr, err := mail.CreateReader(bytes.NewReader(sent))
	require.NoError(t, err)

	subject, err := mr.Header.Subject()
	require.NoError(t, err)
	assert.Equal(t, "Reminder: Pay rent", subject)
	assert.Equal(t, "t1", mr.Header.Get("X-Task-Id"))

	to, err := mr.Header.AddressList("To")
	require.NoError(t, err)
	require.Len(t, to, 1)
	assert.Equal(t, "inbox@example.com", to[0].Address)

	part, err := mr.NextPart()
	require.NoError(t, err)
	body, err := io.ReadAll(part.Body)
	require.NoError(t, err)
	assert.Equal(t, "before the 5th", string(body))
}

func TestMailDeliverer_WrapsSendErrors(t *testing.T) {
	d := NewMailDeliverer(model.MailConfig{From: "a@example.com", To: "b@example.com"}, "")
	d.send = func(context.Context, SMTPConfig, string, string, []byte) error {
		return errors.New("connection refused")
	}

	err := d.Deliver(context.Background(), Alert{Title: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sending reminder mail")
}

func TestLogDeliverer_LogsAlert(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	d := LogDeliverer{Logger: zap.New(core)}

	require.NoError(t, d.Deliver(context.Background(), Alert{
		Title:    "Reminder: Stretch",
		Body:     "Task reminder",
		Metadata: map[string]string{MetadataTaskID: "t7"},
	}))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "Reminder: Stretch", entries[0].Message)
	assert.Equal(t, "t7", entries[0].ContextMap()["task_id"])
}
