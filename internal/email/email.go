// Package email sends transactional mail over SMTP. Delivery is
// best-effort everywhere it is used; a send failure is logged by the
// caller and never fails the operation that triggered it.
package email

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/ayurmed/hms-api/internal/config"
)

type Sender interface {
	SendWelcome(to, name, role, credential string) error
}

type Service struct {
	dialer *gomail.Dialer
	from   string
}

// NewSender returns an SMTP-backed sender, or a no-op one when SMTP is
// not configured so local setups work without a mail server.
func NewSender(cfg config.SMTPConfig) Sender {
	if cfg.Host == "" {
		return noopSender{}
	}
	return &Service{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.From,
	}
}

// SendWelcome mails onboarding details to a newly registered user.
// credential is the health ID for patients and the license number for
// doctors.
func (s *Service) SendWelcome(to, name, role, credential string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Welcome to AyurMed")
	m.SetBody("text/plain", fmt.Sprintf(
		"Hello %s,\n\nYour %s account has been created.\nYour ID: %s\n\nAyurMed Hospital",
		name, role, credential,
	))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send welcome email to %s: %w", to, err)
	}
	return nil
}

type noopSender struct{}

func (noopSender) SendWelcome(to, name, role, credential string) error { return nil }
