package email

import (
	"crypto/tls"
	"fmt"

	gomail "gopkg.in/gomail.v2"

	"github.com/sashakt-platform/sashakt-ops/src/configs"
)

// dial is swapped out in tests.
var dial = func(d *gomail.Dialer, m *gomail.Message) error {
	return d.DialAndSend(m)
}

// SendEmail delivers a plain-text message through the configured SMTP server.
func SendEmail(cfg *configs.Email, subject, body string) error {
	if cfg == nil || !cfg.Enable {
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", cfg.SenderEmail)
	m.SetHeader("To", cfg.RecipientEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SenderEmail, cfg.SenderPassword)
	// Local catchers like mailcatcher present no usable certificate.
	d.TLSConfig = &tls.Config{InsecureSkipVerify: true}

	if err := dial(d, m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
