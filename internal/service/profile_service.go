package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"gymsync/internal/apperr"
	"gymsync/internal/ids"
	"gymsync/internal/media/sniffer"
	"gymsync/internal/models"
	"gymsync/internal/rbac"
)

type ProfileService struct {
	accounts       AccountStore
	avatars        AvatarStore
	registry       *rbac.Registry
	maxAvatarBytes int64
	log            zerolog.Logger
}

func NewProfileService(accounts AccountStore, avatars AvatarStore, registry *rbac.Registry, maxAvatarBytes int64, log zerolog.Logger) *ProfileService {
	return &ProfileService{
		accounts:       accounts,
		avatars:        avatars,
		registry:       registry,
		maxAvatarBytes: maxAvatarBytes,
		log:            log,
	}
}

// Update applies the non-nil fields of profile. A gym-owner application can
// only be edited before it has been reviewed.
func (s *ProfileService) Update(ctx context.Context, caller models.Account, profile models.Profile) (models.Account, error) {
	if !s.registry.HasPermission(caller.Role, rbac.PermEditOwnProfile) {
		return models.Account{}, apperr.ErrForbidden
	}
	if caller.Role.NeedsApproval() && caller.Status != models.StatusPending {
		return models.Account{}, apperr.ErrProfileLocked.WithDetails(map[string]string{"status": string(caller.Status)})
	}

	profile = trimProfile(profile)
	if profile.Empty() {
		return caller, nil
	}
	if profile.Name != nil && *profile.Name == "" {
		return models.Account{}, apperr.ErrMissingFields.WithDetails(map[string][]string{"fields": {"name"}})
	}
	if caller.Role == models.RoleGymOwner && profile.OrganizationName != nil && *profile.OrganizationName == "" {
		return models.Account{}, apperr.ErrMissingFields.WithDetails(map[string][]string{"fields": {"organizationName"}})
	}

	updated, err := s.accounts.UpdateProfile(ctx, caller.ID, profile)
	if err != nil {
		return models.Account{}, storeError(err, apperr.ErrAccountNotFound)
	}
	return updated, nil
}

// UploadAvatar stores the image read from r as the caller's profile picture.
// The type is taken from the content, and declared must agree when set.
func (s *ProfileService) UploadAvatar(ctx context.Context, caller models.Account, r io.Reader, size int64, declared string) (models.Account, error) {
	if size <= 0 {
		return models.Account{}, apperr.ErrInvalidRequest.WithDetails(map[string]string{"reason": "empty file"})
	}
	if s.maxAvatarBytes > 0 && size > s.maxAvatarBytes {
		return models.Account{}, apperr.ErrInvalidRequest.WithDetails(map[string]any{"reason": "file too large", "maxBytes": s.maxAvatarBytes})
	}

	result, head, err := sniffer.Detect(r)
	if err != nil {
		if errors.Is(err, sniffer.ErrUnknownType) {
			return models.Account{}, apperr.ErrUnsupportedMedia
		}
		return models.Account{}, apperr.ErrInvalidRequest.Wrap(err)
	}
	if declared != "" && declared != "application/octet-stream" && declared != result.MIME {
		return models.Account{}, apperr.ErrUnsupportedMedia.WithDetails(map[string]string{
			"declared": declared,
			"actual":   result.MIME,
		})
	}

	key := fmt.Sprintf("avatars/%s/%s.%s", caller.ID, ids.New(), result.Extension())
	body := io.MultiReader(bytes.NewReader(head), r)
	if err := s.avatars.PutAvatar(ctx, key, body, size, result.MIME); err != nil {
		return models.Account{}, apperr.ErrServiceUnavailable.Wrap(err)
	}

	updated, err := s.accounts.SetAvatar(ctx, caller.ID, key)
	if err != nil {
		if removeErr := s.avatars.RemoveAvatar(ctx, key); removeErr != nil {
			s.log.Warn().Err(removeErr).Str("key", key).Msg("remove orphaned avatar failed")
		}
		return models.Account{}, storeError(err, apperr.ErrAccountNotFound)
	}

	if previous := caller.AvatarKey; previous != nil && *previous != "" && *previous != key {
		if err := s.avatars.RemoveAvatar(ctx, *previous); err != nil {
			s.log.Warn().Err(err).Str("key", *previous).Msg("remove previous avatar failed")
		}
	}

	s.log.Info().Str("account_id", caller.ID).Str("key", key).Msg("avatar updated")
	return updated, nil
}

func (s *ProfileService) Permissions(caller models.Account) []string {
	return s.registry.Permissions(caller.Role)
}

func trimProfile(p models.Profile) models.Profile {
	trim := func(v *string) *string {
		if v == nil {
			return nil
		}
		t := strings.TrimSpace(*v)
		return &t
	}
	return models.Profile{
		Name:             trim(p.Name),
		OrganizationName: trim(p.OrganizationName),
		PhoneNumber:      trim(p.PhoneNumber),
		Address:          trim(p.Address),
		Description:      trim(p.Description),
	}
}
