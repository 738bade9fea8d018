package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"gymsync/internal/apperr"
	"gymsync/internal/events"
	"gymsync/internal/models"
	"gymsync/internal/repository"
)

// ApprovalService is the super admin review queue for gym-owner applications.
type ApprovalService struct {
	accounts AccountStore
	events   EventPublisher
	log      zerolog.Logger
}

func NewApprovalService(accounts AccountStore, events EventPublisher, log zerolog.Logger) *ApprovalService {
	return &ApprovalService{accounts: accounts, events: events, log: log}
}

func (s *ApprovalService) ListPending(ctx context.Context, caller models.Account) ([]models.Account, error) {
	return s.list(ctx, caller, models.StatusPending)
}

func (s *ApprovalService) ListApproved(ctx context.Context, caller models.Account) ([]models.Account, error) {
	return s.list(ctx, caller, models.StatusApproved)
}

func (s *ApprovalService) ListRejected(ctx context.Context, caller models.Account) ([]models.Account, error) {
	return s.list(ctx, caller, models.StatusRejected)
}

func (s *ApprovalService) list(ctx context.Context, caller models.Account, status models.Status) ([]models.Account, error) {
	if err := requireSuperAdmin(caller); err != nil {
		return nil, err
	}
	accounts, err := s.accounts.ListByStatus(ctx, status)
	if err != nil {
		return nil, storeError(err, apperr.ErrNotFound)
	}
	return accounts, nil
}

func (s *ApprovalService) Stats(ctx context.Context, caller models.Account) (models.StatusCounts, error) {
	if err := requireSuperAdmin(caller); err != nil {
		return models.StatusCounts{}, err
	}
	counts, err := s.accounts.CountByStatus(ctx)
	if err != nil {
		return models.StatusCounts{}, storeError(err, apperr.ErrNotFound)
	}
	return counts, nil
}

func (s *ApprovalService) Approve(ctx context.Context, caller models.Account, accountID string) (models.Account, error) {
	return s.review(ctx, caller, accountID, models.StatusApproved, "")
}

func (s *ApprovalService) Reject(ctx context.Context, caller models.Account, accountID, reason string) (models.Account, error) {
	return s.review(ctx, caller, accountID, models.StatusRejected, strings.TrimSpace(reason))
}

// review moves a pending application to target. Repeating a decision that
// already holds returns the account unchanged; reversing one is a conflict.
func (s *ApprovalService) review(ctx context.Context, caller models.Account, accountID string, target models.Status, reason string) (models.Account, error) {
	if err := requireSuperAdmin(caller); err != nil {
		return models.Account{}, err
	}

	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return models.Account{}, storeError(err, apperr.ErrNotFound)
	}
	if account.Role != models.RoleGymOwner {
		return models.Account{}, apperr.ErrNotGymOwner
	}

	switch account.Status {
	case target:
		return account, nil
	case models.StatusPending:
	default:
		return models.Account{}, invalidTransition(account.Status, target)
	}

	updated, err := s.accounts.UpdateStatus(ctx, accountID, models.StatusChange{
		From:       models.StatusPending,
		To:         target,
		ReviewerID: caller.ID,
		Reason:     reason,
	})
	if errors.Is(err, repository.ErrStatusConflict) {
		// Another reviewer got there first.
		current, findErr := s.accounts.FindByID(ctx, accountID)
		if findErr != nil {
			return models.Account{}, storeError(findErr, apperr.ErrNotFound)
		}
		if current.Status == target {
			return current, nil
		}
		return models.Account{}, invalidTransition(current.Status, target)
	}
	if err != nil {
		return models.Account{}, storeError(err, apperr.ErrNotFound)
	}

	s.log.Info().
		Str("account_id", updated.ID).
		Str("status", string(updated.Status)).
		Str("reviewer_id", caller.ID).
		Msg("application reviewed")

	eventType := events.AccountApproved
	if target == models.StatusRejected {
		eventType = events.AccountRejected
	}
	publish(ctx, s.events, s.log, events.Event{
		Type:             eventType,
		AccountID:        updated.ID,
		Email:            updated.Email,
		Name:             updated.Name,
		OrganizationName: updated.OrganizationName,
		Reason:           reason,
	})

	return updated, nil
}

func requireSuperAdmin(caller models.Account) error {
	if caller.Role != models.RoleSuperAdmin {
		return apperr.ErrForbidden
	}
	return nil
}

func invalidTransition(from, to models.Status) error {
	return apperr.ErrInvalidTransition.WithDetails(map[string]string{
		"from": string(from),
		"to":   string(to),
	})
}
