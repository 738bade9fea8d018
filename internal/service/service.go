package service

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog"

	"gymsync/internal/apperr"
	"gymsync/internal/events"
	"gymsync/internal/models"
	"gymsync/internal/repository"
)

// AccountStore is the persistence the services need. *repository.AccountRepository
// satisfies it.
type AccountStore interface {
	Create(ctx context.Context, account models.Account) (models.Account, error)
	FindByEmail(ctx context.Context, email string) (models.Account, error)
	FindByID(ctx context.Context, id string) (models.Account, error)
	FindFirstByRole(ctx context.Context, role models.Role) (models.Account, error)
	ListByStatus(ctx context.Context, status models.Status) ([]models.Account, error)
	CountByStatus(ctx context.Context) (models.StatusCounts, error)
	UpdateStatus(ctx context.Context, id string, change models.StatusChange) (models.Account, error)
	UpdateProfile(ctx context.Context, id string, profile models.Profile) (models.Account, error)
	SetAvatar(ctx context.Context, id string, key string) (models.Account, error)
}

type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, e events.Event) error
}

type AvatarStore interface {
	PutAvatar(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	RemoveAvatar(ctx context.Context, key string) error
}

// storeError translates repository sentinels into client-facing errors.
// notFound lets callers pick the code used for a missing account.
func storeError(err error, notFound *apperr.Error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrAccountNotFound):
		return notFound.Wrap(err)
	case errors.Is(err, repository.ErrDuplicateEmail):
		return apperr.ErrDuplicateEmail.Wrap(err)
	case errors.Is(err, repository.ErrStoreUnavailable), errors.Is(err, context.DeadlineExceeded):
		return apperr.ErrStoreUnavailable.Wrap(err)
	default:
		return apperr.ErrInternal.Wrap(err)
	}
}

// publish is best effort: notifications never fail the request that caused them.
func publish(ctx context.Context, pub EventPublisher, log zerolog.Logger, e events.Event) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, e); err != nil {
		log.Warn().Err(err).Str("event", string(e.Type)).Str("account_id", e.AccountID).Msg("publish event failed")
	}
}
