package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wneessen/go-mail"
)

const infoSubject = "Pager rotation notification"

// MailerConfig describes the SMTP relay used for rotation notices.
type MailerConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	TLS      bool
}

// Mailer sends the HTML rotation notice.
type Mailer struct {
	cfg MailerConfig
}

func NewMailer(cfg MailerConfig) *Mailer {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port <= 0 {
		cfg.Port = 25
	}
	return &Mailer{cfg: cfg}
}

// BuildInfoMessage composes the notice without sending it.
func BuildInfoMessage(sender, receiver, bodyHTML string) (*mail.Msg, error) {
	if strings.TrimSpace(sender) == "" || strings.TrimSpace(receiver) == "" {
		return nil, errors.New("sender and receiver are required")
	}
	m := mail.NewMsg()
	if err := m.From(sender); err != nil {
		return nil, fmt.Errorf("sender: %w", err)
	}
	if err := m.To(receiver); err != nil {
		return nil, fmt.Errorf("receiver: %w", err)
	}
	m.Subject(infoSubject)
	m.SetBodyString(mail.TypeTextHTML, bodyHTML)
	return m, nil
}

func (m *Mailer) SendInfoEmail(ctx context.Context, sender, receiver, bodyHTML string) error {
	msg, err := BuildInfoMessage(sender, receiver, bodyHTML)
	if err != nil {
		return err
	}
	opts := []mail.Option{mail.WithPort(m.cfg.Port)}
	if m.cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}
	c, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := c.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send to %s: %w", receiver, err)
	}
	return nil
}
