// Package mail delivers account emails: password reset links and invites
// for newly created administrators.
package mail

import (
	"context"
	"fmt"
	"net/url"

	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// Sender delivers a single plain-text message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type Message struct {
	To      string
	Subject string
	Body    string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type smtpSender struct {
	cfg SMTPConfig
}

func NewSMTPSender(cfg SMTPConfig) Sender {
	return &smtpSender{cfg: cfg}
}

func (s *smtpSender) Send(ctx context.Context, msg Message) error {
	m := gomail.NewMsg()
	if err := m.From(s.cfg.From); err != nil {
		return fmt.Errorf("set from: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("set to: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextPlain, msg.Body)

	opts := []gomail.Option{gomail.WithPort(s.cfg.Port)}
	if s.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.cfg.Username),
			gomail.WithPassword(s.cfg.Password),
		)
	}

	client, err := gomail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// logSender stands in for SMTP in development. Only the recipient and the
// subject are logged; bodies carry secrets.
type logSender struct {
	log *zap.Logger
}

func NewLogSender(log *zap.Logger) Sender {
	return &logSender{log: log}
}

func (s *logSender) Send(ctx context.Context, msg Message) error {
	s.log.Info("mail not sent (no SMTP host configured)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	return nil
}

// ResetLink builds the frontend URL carrying a reset or setup token.
func ResetLink(frontendURL, token string) string {
	return frontendURL + "/reset-password/" + url.PathEscape(token)
}

func PasswordResetMessage(to, link string) Message {
	return Message{
		To:      to,
		Subject: "Password reset",
		Body: "You requested a password reset.\n\n" +
			"Open the link below within 10 minutes to choose a new password:\n\n" +
			link + "\n\n" +
			"If you did not request this, ignore this email.",
	}
}

func InviteMessage(to, name, storeName, link string) Message {
	return Message{
		To:      to,
		Subject: "Your store administrator account",
		Body: fmt.Sprintf("Hello %s,\n\n"+
			"An administrator account was created for you at %s.\n\n"+
			"Set your password using the link below to activate it:\n\n%s\n", name, storeName, link),
	}
}
