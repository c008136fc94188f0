// internal/app/system/mailer/mailer.go
package mailer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// Email is one outgoing message. Both bodies are sent when present.
type Email struct {
	To       string
	ToName   string
	Subject  string
	TextBody string
	HTMLBody string
}

// Sender delivers email.
type Sender interface {
	Send(ctx context.Context, e Email) error
}

// Config selects and configures the sender.
type Config struct {
	SendGridAPIKey string
	FromEmail      string
	FromName       string
}

// New returns a SendGrid sender when an API key is configured, otherwise a
// sender that only logs.
func New(cfg Config, logger *zap.Logger) Sender {
	if cfg.SendGridAPIKey == "" || cfg.FromEmail == "" {
		logger.Info("mailer: sendgrid not configured; emails will be logged only")
		return &LogSender{log: logger}
	}
	return &SendGrid{
		client: sendgrid.NewSendClient(cfg.SendGridAPIKey),
		from:   sgmail.NewEmail(cfg.FromName, cfg.FromEmail),
		log:    logger,
	}
}

// SendGrid sends through the SendGrid v3 API.
type SendGrid struct {
	client *sendgrid.Client
	from   *sgmail.Email
	log    *zap.Logger
}

func (s *SendGrid) Send(ctx context.Context, e Email) error {
	if e.To == "" {
		return errors.New("mailer: empty recipient")
	}

	p := sgmail.NewPersonalization()
	p.Subject = e.Subject
	p.AddTos(sgmail.NewEmail(e.ToName, e.To))

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)
	if e.TextBody != "" {
		m.AddContent(sgmail.NewContent("text/plain", e.TextBody))
	}
	if e.HTMLBody != "" {
		m.AddContent(sgmail.NewContent("text/html", e.HTMLBody))
	}

	resp, err := s.client.SendWithContext(ctx, m)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send: status %d: %s", resp.StatusCode, resp.Body)
	}
	s.log.Debug("email sent", zap.String("to", e.To), zap.String("subject", e.Subject))
	return nil
}

// LogSender writes the envelope to the log instead of sending.
type LogSender struct {
	log *zap.Logger
}

func (s *LogSender) Send(_ context.Context, e Email) error {
	s.log.Info("email (not sent)", zap.String("to", e.To), zap.String("subject", e.Subject))
	return nil
}

// Recorder keeps sent messages in memory. Tests use it to assert on mail.
type Recorder struct {
	mu   sync.Mutex
	Sent []Email
}

func (r *Recorder) Send(_ context.Context, e Email) error {
	r.mu.Lock()
	r.Sent = append(r.Sent, e)
	r.mu.Unlock()
	return nil
}

// Messages returns a copy of everything sent so far.
func (r *Recorder) Messages() []Email {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Email(nil), r.Sent...)
}
