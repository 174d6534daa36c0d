package mail

import (
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"github.com/diewo77/estate-listings/internal/config"
)

// Mailer delivers account emails. The rest of the application only depends on
// this interface; transport details stay here.
type Mailer interface {
	SendConfirmation(name, email, token string) error
	SendPasswordReset(name, email, token string) error
}

// New returns an SMTP mailer when a host is configured, otherwise a logging
// fallback so development and tests work without a mail server.
func New(cfg config.Config) Mailer {
	if cfg.SMTP.Host == "" {
		return LogMailer{}
	}
	return &SMTPMailer{cfg: cfg}
}

type SMTPMailer struct {
	cfg config.Config
}

func (m *SMTPMailer) SendConfirmation(name, email, token string) error {
	link := m.cfg.BaseURL + "/auth/confirm/" + token
	body := fmt.Sprintf("Hi %s,\r\n\r\nConfirm your account by visiting:\r\n%s\r\n", name, link)
	return m.send(email, "Confirm your account", body)
}

func (m *SMTPMailer) SendPasswordReset(name, email, token string) error {
	link := m.cfg.BaseURL + "/auth/reset-password/" + token
	body := fmt.Sprintf("Hi %s,\r\n\r\nReset your password by visiting:\r\n%s\r\n", name, link)
	return m.send(email, "Reset your password", body)
}

func (m *SMTPMailer) send(to, subject, body string) error {
	s := m.cfg.SMTP
	msg := strings.Join([]string{
		"From: " + s.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")
	var auth smtp.Auth
	if s.User != "" {
		auth = smtp.PlainAuth("", s.User, s.Pass, s.Host)
	}
	return smtp.SendMail(s.Host+":"+s.Port, auth, s.From, []string{to}, []byte(msg))
}

// LogMailer writes the would-be email to the process log.
type LogMailer struct{}

func (LogMailer) SendConfirmation(name, email, token string) error {
	log.Printf("[mail] confirmation for %s <%s>: token=%s", name, email, token)
	return nil
}

func (LogMailer) SendPasswordReset(name, email, token string) error {
	log.Printf("[mail] password reset for %s <%s>: token=%s", name, email, token)
	return nil
}
