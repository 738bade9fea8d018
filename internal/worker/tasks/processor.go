package tasks

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"gymsync/internal/events"
	"gymsync/internal/mail"
)

type Sender interface {
	Send(ctx context.Context, msg mail.Message) error
}

// Processor turns account events into notification mail. A returned error
// leaves the stream entry pending so the consumer retries it.
type Processor struct {
	mailer     Sender
	adminEmail string
	logger     zerolog.Logger
}

func NewProcessor(mailer Sender, adminEmail string, logger zerolog.Logger) *Processor {
	return &Processor{
		mailer:     mailer,
		adminEmail: adminEmail,
		logger:     logger,
	}
}

func (p *Processor) Handle(ctx context.Context, msg redis.XMessage) error {
	event, err := events.Parse(msg.Values)
	if err != nil {
		// Retrying cannot fix a malformed entry, so it is dropped.
		p.logger.Warn().Err(err).Str("message_id", msg.ID).Msg("discarding malformed event")
		return nil
	}

	switch event.Type {
	case events.AccountPending:
		return p.notifyAdmin(ctx, event, pendingMessage(event))
	case events.PendingDigest:
		return p.notifyAdmin(ctx, event, digestMessage(event))
	case events.AccountApproved:
		return p.notifyApplicant(ctx, event, approvedMessage(event))
	case events.AccountRejected:
		return p.notifyApplicant(ctx, event, rejectedMessage(event))
	default:
		p.logger.Warn().Str("type", string(event.Type)).Msg("unknown event type")
		return nil
	}
}

func (p *Processor) notifyAdmin(ctx context.Context, event events.Event, msg mail.Message) error {
	if p.adminEmail == "" {
		p.logger.Warn().Str("type", string(event.Type)).Msg("no admin address, notification skipped")
		return nil
	}
	msg.To = p.adminEmail
	return p.send(ctx, event, msg)
}

func (p *Processor) notifyApplicant(ctx context.Context, event events.Event, msg mail.Message) error {
	if event.Email == "" {
		p.logger.Warn().Str("type", string(event.Type)).Str("account_id", event.AccountID).Msg("event has no email, notification skipped")
		return nil
	}
	msg.To = event.Email
	return p.send(ctx, event, msg)
}

func (p *Processor) send(ctx context.Context, event events.Event, msg mail.Message) error {
	if err := p.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify %s: %w", event.Type, err)
	}
	p.logger.Info().
		Str("type", string(event.Type)).
		Str("account_id", event.AccountID).
		Str("to", msg.To).
		Msg("notification sent")
	return nil
}

func pendingMessage(e events.Event) mail.Message {
	return mail.Message{
		Subject: "New gym owner application: " + e.OrganizationName,
		Body: fmt.Sprintf("%s <%s> applied to register %q.\nReview it in the approvals dashboard.\n",
			e.Name, e.Email, e.OrganizationName),
	}
}

func digestMessage(e events.Event) mail.Message {
	noun, verb := "applications", "are"
	if e.Pending == 1 {
		noun, verb = "application", "is"
	}
	return mail.Message{
		Subject: fmt.Sprintf("%d gym owner %s waiting", e.Pending, noun),
		Body:    fmt.Sprintf("%d gym owner %s %s waiting for review.\n", e.Pending, noun, verb),
	}
}

func approvedMessage(e events.Event) mail.Message {
	return mail.Message{
		Subject: "Your GymSync application was approved",
		Body: fmt.Sprintf("Hi %s,\n\n%s is now active on GymSync. You can sign in to your dashboard.\n",
			e.Name, e.OrganizationName),
	}
}

func rejectedMessage(e events.Event) mail.Message {
	body := fmt.Sprintf("Hi %s,\n\nYour application for %s was not approved.\n", e.Name, e.OrganizationName)
	if e.Reason != "" {
		body += "Reason: " + e.Reason + "\n"
	}
	return mail.Message{
		Subject: "Your GymSync application was not approved",
		Body:    body,
	}
}
