// Package events carries account lifecycle notifications from the API to the
// worker over a redis stream.
package events

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

type Type string

const (
	AccountPending  Type = "account.pending"
	AccountApproved Type = "account.approved"
	AccountRejected Type = "account.rejected"
	PendingDigest   Type = "pending.digest"
)

type Event struct {
	Type             Type
	AccountID        string
	Email            string
	Name             string
	OrganizationName string
	Reason           string
	// Pending is only set on PendingDigest.
	Pending    int
	OccurredAt time.Time
}

// Values flattens e into stream entry fields.
func (e Event) Values() map[string]any {
	values := map[string]any{
		"type":       string(e.Type),
		"occurredAt": e.OccurredAt.UTC().Format(time.RFC3339),
	}
	if e.AccountID != "" {
		values["accountId"] = e.AccountID
	}
	if e.Email != "" {
		values["email"] = e.Email
	}
	if e.Name != "" {
		values["name"] = e.Name
	}
	if e.OrganizationName != "" {
		values["organizationName"] = e.OrganizationName
	}
	if e.Reason != "" {
		values["reason"] = e.Reason
	}
	if e.Type == PendingDigest {
		values["pending"] = strconv.Itoa(e.Pending)
	}
	return values
}

// Parse is the inverse of Values. Stream fields always come back as strings.
func Parse(values map[string]any) (Event, error) {
	str := func(key string) string {
		s, _ := values[key].(string)
		return s
	}

	e := Event{
		Type:             Type(str("type")),
		AccountID:        str("accountId"),
		Email:            str("email"),
		Name:             str("name"),
		OrganizationName: str("organizationName"),
		Reason:           str("reason"),
	}
	if e.Type == "" {
		return Event{}, fmt.Errorf("event type missing")
	}
	if raw := str("occurredAt"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return Event{}, fmt.Errorf("parse occurredAt: %w", err)
		}
		e.OccurredAt = t
	}
	if raw := str("pending"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Event{}, fmt.Errorf("parse pending: %w", err)
		}
		e.Pending = n
	}
	return e, nil
}

type Publisher struct {
	client *redis.Client
	stream string
	now    func() time.Time
}

func NewPublisher(client *redis.Client, stream string) *Publisher {
	return &Publisher{client: client, stream: stream, now: time.Now}
}

func (p *Publisher) Publish(ctx context.Context, e Event) error {
	if p.client == nil {
		return nil
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = p.now()
	}
	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: e.Values(),
	}).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	return nil
}
