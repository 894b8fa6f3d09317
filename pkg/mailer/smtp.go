package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/shiftwise/volunteer-api/pkg/config"
)

// SMTPMailer delivers plain-text mail over SMTP.
type SMTPMailer struct {
	addr string
	from string
	auth smtp.Auth
}

// NewSMTP builds a mailer from SMTP configuration.
func NewSMTP(cfg config.SMTPConfig) *SMTPMailer {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPMailer{
		addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		from: cfg.From,
		auth: auth,
	}
}

// Send delivers one message to all recipients.
func (m *SMTPMailer) Send(recipients []string, subject, body string) error {
	if len(recipients) == 0 {
		return nil
	}

	msg := strings.Builder{}
	msg.WriteString(fmt.Sprintf("From: %s\r\n", m.from))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(recipients, ", ")))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(body)

	if err := smtp.SendMail(m.addr, m.auth, m.from, recipients, []byte(msg.String())); err != nil {
		return fmt.Errorf("send mail to %d recipients: %w", len(recipients), err)
	}
	return nil
}
