package reminder

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"time"

	"github.com/emersion/go-message/mail"
	"go.uber.org/zap"

	"github.com/nhle/taskkeeper/internal/model"
)

// LogDeliverer writes fired alerts to a logger.
type LogDeliverer struct {
	Logger *zap.Logger
}

func (d LogDeliverer) Deliver(_ context.Context, alert Alert) error {
	d.Logger.Info(alert.Title,
		zap.String("body", alert.Body),
		zap.String("task_id", alert.Metadata[MetadataTaskID]))
	return nil
}

// SMTPConfig holds SMTP connection settings.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	TLS      bool
}

// MailDeliverer emails fired alerts.
type MailDeliverer struct {
	smtp SMTPConfig
	from string
	to   string
	now  func() time.Time

	// send is swapped out in tests.
	send func(ctx context.Context, cfg SMTPConfig, from, to string, msg []byte) error
}

// NewMailDeliverer builds a deliverer from the mail settings and the
// SMTP password.
func NewMailDeliverer(cfg model.MailConfig, password string) *MailDeliverer {
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &MailDeliverer{
		smtp: SMTPConfig{
			Host:     cfg.Host,
			Port:     cfg.Port,
			Username: cfg.Username,
			Password: password,
			TLS:      cfg.TLS,
		},
		from: from,
		to:   cfg.To,
		now:  time.Now,
		send: sendSMTP,
	}
}

func (d *MailDeliverer) Deliver(ctx context.Context, alert Alert) error {
	msg, err := d.compose(alert)
	if err != nil {
		return fmt.Errorf("composing reminder mail: %w", err)
	}
	if err := d.send(ctx, d.smtp, d.from, d.to, msg); err != nil {
		return fmt.Errorf("sending reminder mail: %w", err)
	}
	return nil
}

// compose renders alert as a single-part plain text message.
func (d *MailDeliverer) compose(alert Alert) ([]byte, error) {
	var h mail.Header
	h.SetDate(d.now())
	h.SetAddressList("From", []*mail.Address{{Address: d.from}})
	h.SetAddressList("To", []*mail.Address{{Address: d.to}})
	h.SetSubject(alert.Title)
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	if taskID := alert.Metadata[MetadataTaskID]; taskID != "" {
		h.Set("X-Task-Id", taskID)
	}
	if err := h.GenerateMessageID(); err != nil {
		return nil, fmt.Errorf("generating message id: %w", err)
	}

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("creating message writer: %w", err)
	}
	if _, err := w.Write([]byte(alert.Body)); err != nil {
		return nil, fmt.Errorf("writing message body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing message writer: %w", err)
	}
	return buf.Bytes(), nil
}

// sendSMTP delivers msg over implicit TLS or STARTTLS depending on cfg.
func sendSMTP(ctx context.Context, cfg SMTPConfig, from, to string, msg []byte) error {
	addr := net.JoinHostPort(cfg.Host, cfg.Port)
	tlsConfig := &tls.Config{ServerName: cfg.Host}

	dialer := &net.Dialer{Timeout: 30 * time.Second}
	var (
		conn net.Conn
		err  error
	)
	if cfg.TLS {
		conn, err = (&tls.Dialer{NetDialer: dialer, Config: tlsConfig}).DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return fmt.Errorf("dial to %s: %w", addr, err)
	}

	client, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("creating SMTP client: %w", err)
	}
	defer client.Close()

	if !cfg.TLS {
		if err := client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("SMTP STARTTLS: %w", err)
		}
	}

	if cfg.Username != "" {
		auth := smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP auth: %w", err)
		}
	}

	if err := client.Mail(from); err != nil {
		return fmt.Errorf("SMTP MAIL FROM: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("SMTP RCPT TO: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("SMTP DATA: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("writing message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing message: %w", err)
	}

	return client.Quit()
}
