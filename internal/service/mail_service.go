package service

import (
	"fmt"

	"punchcard/config"

	"gopkg.in/gomail.v2"
)

// MailService sends transactional mail over SMTP. Nil-safe: a portal running
// without SMTP config simply skips sending.
type MailService struct {
	cfg *config.SMTPConfig
}

func NewMailService(cfg *config.SMTPConfig) *MailService {
	if cfg == nil || cfg.Host == "" {
		return nil
	}
	return &MailService{cfg: cfg}
}

func (s *MailService) send(to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	return d.DialAndSend(m)
}

func (s *MailService) SendPasswordReset(to, name, link string) error {
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>Someone requested a password reset for your merchant portal account.
If that was you, click the link below within the next hour:</p>
<p><a href="%s">Reset your password</a></p>
<p>If you did not ask for this, you can ignore this email.</p>`, name, link)
	return s.send(to, "Reset your password", body)
}
