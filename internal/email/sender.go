package email

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"github.com/Urdemonlord/atlasproject/internal/config"
)

// Message is a plain-text email. Tag names the event that produced it
// (for example "booking_created") and is used to file mock copies.
type Message struct {
	To      []string
	Subject string
	Body    string
	Tag     string
}

// Sender defines the interface for sending emails.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPSender delivers messages through an SMTP relay using gomail.
type SMTPSender struct {
	from   string
	dialer dialer
	log    logrus.FieldLogger
}

// NewSMTPSender returns an SMTP sender, or a LoggingSender when no SMTP host
// is configured.
func NewSMTPSender(cfg *config.Config, log logrus.FieldLogger) Sender {
	if cfg.SmtpHost == "" {
		log.Info("SMTP host not configured, using logging email sender")
		return NewLoggingSender(cfg.SmtpFromAddress, log)
	}
	return &SMTPSender{
		from:   cfg.SmtpFromAddress,
		dialer: gomail.NewDialer(cfg.SmtpHost, cfg.SmtpPort, cfg.SmtpUsername, cfg.SmtpPassword),
		log:    log,
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("email %q has no recipients", msg.Subject)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To...)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp error: %w", err)
	}
	s.log.WithFields(logrus.Fields{"to": msg.To, "subject": msg.Subject}).Info("email sent via SMTP")
	return nil
}

// LoggingSender writes messages to the log instead of sending them.
type LoggingSender struct {
	from string
	log  logrus.FieldLogger
}

func NewLoggingSender(from string, log logrus.FieldLogger) *LoggingSender {
	return &LoggingSender{from: from, log: log}
}

func (s *LoggingSender) Send(ctx context.Context, msg Message) error {
	s.log.WithFields(logrus.Fields{
		"from":    s.from,
		"to":      msg.To,
		"subject": msg.Subject,
		"tag":     msg.Tag,
		"body":    msg.Body,
	}).Info("email logged")
	return nil
}
