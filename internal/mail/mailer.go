// Package mail sends account notifications over SMTP.
package mail

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"

	"gymsync/internal/config"
)

var ErrNoRecipient = errors.New("mail recipient missing")

type Message struct {
	To      string
	Subject string
	// Body is sent as text/plain.
	Body string
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type Mailer struct {
	dialer dialer
	from   string
	log    zerolog.Logger
}

// New returns a Mailer for cfg. Without an SMTP host, messages are only logged.
func New(cfg config.SMTPConfig, log zerolog.Logger) *Mailer {
	m := &Mailer{from: cfg.From, log: log}
	if cfg.Host != "" {
		m.dialer = gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	}
	return m
}

func (m *Mailer) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if m.dialer == nil {
		m.log.Info().
			Str("to", msg.To).
			Str("subject", msg.Subject).
			Msg("smtp not configured, mail not sent")
		return nil
	}

	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/plain", msg.Body)

	if err := m.dialer.DialAndSend(gm); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	m.log.Debug().Str("to", msg.To).Str("subject", msg.Subject).Msg("mail sent")
	return nil
}
