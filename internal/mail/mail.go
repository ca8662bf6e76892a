// Package mail delivers one-time passcodes.
package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/dhaqane/shop-backend/internal/config"
	"github.com/dhaqane/shop-backend/internal/logging"
)

type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// New returns an SMTP mailer when a host is configured and a LogMailer
// otherwise.
func New(cfg config.SMTPConfig, log *zap.Logger) Mailer {
	if strings.TrimSpace(cfg.Host) == "" {
		return LogMailer{Log: log}
	}
	return &SMTPMailer{cfg: cfg, send: smtp.SendMail}
}

type SMTPMailer struct {
	cfg  config.SMTPConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	port := m.cfg.Port
	if port == "" {
		port = "587"
	}
	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)
	}
	msg := BuildMessage(m.cfg.From, to, subject, body)
	if err := m.send(m.cfg.Host+":"+port, auth, m.cfg.From, []string{to}, msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// BuildMessage renders a plain-text RFC 5322 message.
func BuildMessage(from, to, subject, body string) []byte {
	clean := func(s string) string { return strings.NewReplacer("\r", "", "\n", "").Replace(s) }
	return []byte("From: " + clean(from) + "\r\n" +
		"To: " + clean(to) + "\r\n" +
		"Subject: " + clean(subject) + "\r\n" +
		"MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n" +
		body)
}

// LogMailer writes messages to the log instead of sending them.  It is
// what development setups without an SMTP relay get.
type LogMailer struct{ Log *zap.Logger }

func (m LogMailer) Send(ctx context.Context, to, subject, body string) error {
	log := m.Log
	if log == nil {
		log = logging.FromContext(ctx)
	}
	log.Info("mail not sent, no SMTP host configured",
		zap.String("to", to), zap.String("subject", subject), zap.String("body", body))
	return nil
}

// PasscodeBody is the text of a passcode email.
func PasscodeBody(name, code, purpose string) string {
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf("Hello %s,\n\nYour %s code is %s.\nIt expires shortly; do not share it with anyone.\n", name, purpose, code)
}
