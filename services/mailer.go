package services

import (
	"fmt"
	"log/slog"

	"gopkg.in/gomail.v2"

	"awazgram-server/config"
	"awazgram-server/logger"
)

// Mailer delivers onboarding messages to new staff members.
type Mailer interface {
	SendPasswordSetup(to, username, token string) error
	// Delivers reports whether messages actually leave the process.
	Delivers() bool
}

type SMTPMailer struct {
	cfg     config.SMTPConfig
	baseURL string
	dialer  *gomail.Dialer
}

func NewSMTPMailer(cfg config.SMTPConfig, baseURL string) *SMTPMailer {
	return &SMTPMailer{
		cfg:     cfg,
		baseURL: baseURL,
		dialer:  gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
	}
}

func (m *SMTPMailer) Delivers() bool { return true }

func (m *SMTPMailer) SendPasswordSetup(to, username, token string) error {
	resetURL := fmt.Sprintf("%s/password/reset?token=%s", m.baseURL, token)

	subject := "Set up your AwazGram staff account"
	htmlBody := fmt.Sprintf(`
		<html>
		<body>
			<h2>Welcome to AwazGram, %s</h2>
			<p>An administrator created a staff account for you. Set your password here:</p>
			<p><a href="%s">Set password</a></p>
			<p>Your one-time setup code is: <b>%s</b></p>
			<p>The code can be used once and expires soon.</p>
		</body>
		</html>
	`, username, resetURL, token)

	plainBody := fmt.Sprintf(`
Welcome to AwazGram, %s

An administrator created a staff account for you. Set your password at:
%s

One-time setup code: %s
	`, username, resetURL, token)

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.cfg.FromAddress, m.cfg.FromName)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", plainBody)
	msg.AddAlternative("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// LogMailer is used when no SMTP host is configured. It logs that a setup code was
// issued; the code itself only goes back to the administrator who created the account.
type LogMailer struct {
	log *slog.Logger
}

func NewLogMailer() *LogMailer {
	return &LogMailer{log: logger.WithComponent("mailer")}
}

func (m *LogMailer) Delivers() bool { return false }

func (m *LogMailer) SendPasswordSetup(to, username, token string) error {
	m.log.Info("password setup issued, not emailed", "to", to, "username", username)
	return nil
}

// NewMailer picks SMTP when a host is configured.
func NewMailer(cfg config.SMTPConfig, baseURL string) Mailer {
	if cfg.Host == "" {
		return NewLogMailer()
	}
	return NewSMTPMailer(cfg, baseURL)
}
