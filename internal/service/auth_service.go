package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"gymsync/internal/apperr"
	"gymsync/internal/events"
	"gymsync/internal/ids"
	"gymsync/internal/models"
	"gymsync/internal/repository"
	"gymsync/internal/security"
)

var emailPattern = regexp.MustCompile(`^[\w.+-]+@([\w-]+\.)+[\w-]{2,63}$`)

type AuthService struct {
	accounts AccountStore
	codec    *security.Codec
	hasher   *security.Hasher
	revoked  TokenRevoker
	events   EventPublisher
	log      zerolog.Logger
}

func NewAuthService(
	accounts AccountStore,
	codec *security.Codec,
	hasher *security.Hasher,
	revoked TokenRevoker,
	events EventPublisher,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		accounts: accounts,
		codec:    codec,
		hasher:   hasher,
		revoked:  revoked,
		events:   events,
		log:      log,
	}
}

type LoginInput struct {
	Email    string
	Password string
	// Role is an optional hint; when set it must match the stored role.
	Role string
}

type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	Account   models.Account
	// PendingApproval is set for gym-owner registrations, which get no token.
	PendingApproval bool
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (AuthResult, error) {
	email := normalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return AuthResult{}, apperr.ErrMissingFields.WithDetails(missing(map[string]string{
			"email":    email,
			"password": input.Password,
		}))
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return AuthResult{}, apperr.ErrInvalidCredentials
		}
		return AuthResult{}, storeError(err, apperr.ErrAccountNotFound)
	}

	ok, err := s.hasher.Verify(input.Password, account.PasswordHash)
	if err != nil {
		s.log.Error().Err(err).Str("account_id", account.ID).Msg("stored password hash unreadable")
		return AuthResult{}, apperr.ErrInvalidCredentials
	}
	if !ok {
		return AuthResult{}, apperr.ErrInvalidCredentials
	}

	if hint := strings.TrimSpace(input.Role); hint != "" {
		if role, ok := models.ParseRole(hint); !ok || role != account.Role {
			return AuthResult{}, apperr.ErrInvalidCredentials
		}
	}

	if account.Role.NeedsApproval() {
		switch account.Status {
		case models.StatusPending:
			return AuthResult{}, apperr.ErrPendingApproval
		case models.StatusRejected:
			return AuthResult{}, apperr.ErrApplicationRejected
		}
	}

	return s.issue(account)
}

type RegisterInput struct {
	Name             string
	Email            string
	Password         string
	Role             string
	OrganizationName string
	PhoneNumber      string
	Address          string
	Description      string
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (AuthResult, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = normalizeEmail(input.Email)
	input.OrganizationName = strings.TrimSpace(input.OrganizationName)

	required := map[string]string{
		"name":     input.Name,
		"email":    input.Email,
		"password": input.Password,
		"role":     strings.TrimSpace(input.Role),
	}
	if fields := missing(required); fields != nil {
		return AuthResult{}, apperr.ErrMissingFields.WithDetails(fields)
	}

	role, ok := models.ParseRole(input.Role)
	if !ok {
		return AuthResult{}, apperr.ErrInvalidRole.WithDetails(map[string]string{"role": input.Role})
	}
	if role == models.RoleSuperAdmin {
		return AuthResult{}, apperr.ErrForbidden.WithDetails(map[string]string{"reason": "super admin cannot self-register"})
	}
	if role == models.RoleGymOwner && input.OrganizationName == "" {
		return AuthResult{}, apperr.ErrMissingFields.WithDetails(map[string][]string{"fields": {"organizationName"}})
	}

	if !emailPattern.MatchString(input.Email) {
		return AuthResult{}, apperr.ErrInvalidEmailFormat
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return AuthResult{}, apperr.ErrInternal.Wrap(err)
	}

	account, err := s.accounts.Create(ctx, models.Account{
		ID:               ids.New(),
		Email:            input.Email,
		PasswordHash:     hash,
		Name:             input.Name,
		OrganizationName: input.OrganizationName,
		PhoneNumber:      strings.TrimSpace(input.PhoneNumber),
		Address:          strings.TrimSpace(input.Address),
		Description:      strings.TrimSpace(input.Description),
		Role:             role,
	})
	if err != nil {
		return AuthResult{}, storeError(err, apperr.ErrAccountNotFound)
	}

	s.log.Info().
		Str("account_id", account.ID).
		Str("role", string(account.Role)).
		Str("status", string(account.Status)).
		Msg("account registered")

	if account.Status == models.StatusPending {
		publish(ctx, s.events, s.log, events.Event{
			Type:             events.AccountPending,
			AccountID:        account.ID,
			Email:            account.Email,
			Name:             account.Name,
			OrganizationName: account.OrganizationName,
		})
		return AuthResult{Account: account, PendingApproval: true}, nil
	}

	return s.issue(account)
}

// Verify resolves a credential to the current stored account. Legacy mock
// tokens never authenticate API calls.
func (s *AuthService) Verify(ctx context.Context, raw string) (models.Account, security.Token, error) {
	token, err := s.codec.Decode(raw)
	if err != nil {
		return models.Account{}, security.Token{}, apperr.ErrUnauthenticated.Wrap(err)
	}
	if token.Format != security.FormatSigned {
		return models.Account{}, security.Token{}, apperr.ErrUnauthenticated
	}

	if s.revoked != nil {
		revoked, err := s.revoked.IsRevoked(ctx, token.Claims.ID)
		if err != nil {
			return models.Account{}, security.Token{}, apperr.ErrStoreUnavailable.Wrap(err)
		}
		if revoked {
			return models.Account{}, security.Token{}, apperr.ErrUnauthenticated
		}
	}

	account, err := s.accounts.FindByID(ctx, token.SubjectID())
	if err != nil {
		return models.Account{}, security.Token{}, storeError(err, apperr.ErrAccountNotFound)
	}
	return account, token, nil
}

// Logout revokes raw until it would have expired anyway. Credentials that do
// not decode are already unusable, so they are ignored.
func (s *AuthService) Logout(ctx context.Context, raw string) error {
	token, err := s.codec.Decode(raw)
	if err != nil || token.Format != security.FormatSigned || s.revoked == nil {
		return nil
	}
	if err := s.revoked.Revoke(ctx, token.Claims.ID, token.ExpiresAt()); err != nil {
		return apperr.ErrStoreUnavailable.Wrap(err)
	}
	s.log.Info().Str("account_id", token.SubjectID()).Msg("token revoked")
	return nil
}

// BootstrapSuperAdmin creates the super admin account unless one exists. It
// reports whether an account was created.
func (s *AuthService) BootstrapSuperAdmin(ctx context.Context, email, password string) (bool, error) {
	if _, err := s.accounts.FindFirstByRole(ctx, models.RoleSuperAdmin); err == nil {
		return false, nil
	} else if !errors.Is(err, repository.ErrAccountNotFound) {
		return false, storeError(err, apperr.ErrAccountNotFound)
	}

	email = normalizeEmail(email)
	if email == "" || password == "" {
		return false, apperr.ErrMissingFields.WithDetails(missing(map[string]string{
			"email":    email,
			"password": password,
		}))
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return false, apperr.ErrInternal.Wrap(err)
	}

	account, err := s.accounts.Create(ctx, models.Account{
		ID:           ids.New(),
		Email:        email,
		PasswordHash: hash,
		Name:         "Super Admin",
		Role:         models.RoleSuperAdmin,
	})
	if err != nil {
		return false, storeError(err, apperr.ErrAccountNotFound)
	}

	s.log.Info().Str("account_id", account.ID).Str("email", account.Email).Msg("super admin created")
	return true, nil
}

func (s *AuthService) issue(account models.Account) (AuthResult, error) {
	token, claims, err := s.codec.Issue(account)
	if err != nil {
		return AuthResult{}, apperr.ErrInternal.Wrap(err)
	}
	return AuthResult{Token: token, ExpiresAt: claims.ExpiresAt.Time, Account: account}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// missing lists the keys whose value is empty, or nil when none are.
func missing(fields map[string]string) map[string][]string {
	var names []string
	for _, name := range []string{"name", "email", "password", "role"} {
		if value, ok := fields[name]; ok && value == "" {
			names = append(names, name)
		}
	}
	if names == nil {
		return nil
	}
	return map[string][]string{"fields": names}
}
