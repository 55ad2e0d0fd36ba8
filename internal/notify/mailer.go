package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/civicdesk/helpdesk/internal/config"
)

// Message is a plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer sends email messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Sender is the part of gomail.Dialer used by SMTPMailer.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer delivers mail through an SMTP relay guarded by a circuit breaker.
type SMTPMailer struct {
	from   string
	sender Sender
	cb     *gobreaker.CircuitBreaker
}

// NewSMTPMailer builds a mailer from SMTP settings.
func NewSMTPMailer(cfg config.MailConfig, logger *zap.Logger) *SMTPMailer {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return NewSMTPMailerWithSender(cfg.From, dialer, logger)
}

// NewSMTPMailerWithSender wires a custom transport.
func NewSMTPMailerWithSender(from string, sender Sender, logger *zap.Logger) *SMTPMailer {
	return &SMTPMailer{
		from:   from,
		sender: sender,
		cb:     NewCircuitBreaker("smtp-mailer", 30*time.Second, logger),
	}
}

// Send delivers msg unless ctx is already done or the breaker is open.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg.To == "" {
		return fmt.Errorf("email recipient is required")
	}

	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/plain", msg.Body)

	_, err := m.cb.Execute(func() (interface{}, error) {
		return nil, m.sender.DialAndSend(gm)
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// LogMailer only logs messages. Used when SMTP is not configured.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer returns a mailer that writes messages to the log.
func NewLogMailer(logger *zap.Logger) *LogMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.logger.Info("email (smtp disabled)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject))
	return nil
}
