package mail

import (
	"context"
	"fmt"

	"github.com/motivatem3/server/internal/config"
)

// Message is a single outgoing email with HTML and plain-text bodies.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New builds the mailer selected by MAIL_PROVIDER.
func New(cfg *config.Config) (Mailer, error) {
	switch cfg.MailProvider {
	case "sendgrid":
		return NewSendGrid(cfg.SendGridAPIKey, cfg.MailDefaultSender), nil
	case "smtp":
		return NewSMTP(SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailDefaultSender,
		}), nil
	case "log":
		return NewLogMailer(cfg.MailDefaultSender), nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.MailProvider)
	}
}
