package mailer

import (
	"fmt"
	"net/smtp"

	"github.com/stitchline/stitchline-backend/config"
	"github.com/stitchline/stitchline-backend/pkg/logger"
)

// Mailer sends plain-text email over SMTP. When no SMTP host is configured
// it degrades to logging the message, which keeps local development and
// tests free of a mail dependency.
type Mailer struct {
	cfg config.SMTPConfig
}

func New(cfg config.SMTPConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

// Send delivers one message. Failures are returned to the caller; whether a
// failure matters is the caller's decision.
func (m *Mailer) Send(to, subject, body string) error {
	if m.cfg.Host == "" {
		logger.Info("SMTP not configured, skipping email", map[string]interface{}{
			"to":      to,
			"subject": subject,
		})
		return nil
	}

	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s\r\n",
		m.cfg.From, to, subject, body,
	))

	addr := fmt.Sprintf("%s:%s", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
