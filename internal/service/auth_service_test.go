package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymsync/internal/apperr"
	"gymsync/internal/events"
	"gymsync/internal/memstore"
	"gymsync/internal/models"
	"gymsync/internal/repository"
	"gymsync/internal/security"
)

var cheapParams = security.Argon2Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16}

type authFixture struct {
	svc      *AuthService
	accounts *memstore.Accounts
	revoked  *memstore.Revocations
	events   *memstore.Events
	codec    *security.Codec
	hasher   *security.Hasher
}

func newAuthFixture(t *testing.T) authFixture {
	t.Helper()
	f := authFixture{
		accounts: memstore.NewAccounts(),
		revoked:  memstore.NewRevocations(),
		events:   &memstore.Events{},
		codec:    security.NewCodec("test-secret", time.Hour, true),
		hasher:   security.NewHasherWithParams(cheapParams),
	}
	f.svc = NewAuthService(f.accounts, f.codec, f.hasher, f.revoked, f.events, zerolog.Nop())
	return f
}

func (f authFixture) seed(t *testing.T, role models.Role, status models.Status, email, password string) models.Account {
	t.Helper()
	hash, err := f.hasher.Hash(password)
	require.NoError(t, err)
	return f.accounts.Put(models.Account{
		ID:           email,
		Email:        email,
		PasswordHash: hash,
		Name:         "Seeded",
		Role:         role,
		Status:       status,
	})
}

func TestRegisterMemberGetsToken(t *testing.T) {
	f := newAuthFixture(t)

	result, err := f.svc.Register(context.Background(), RegisterInput{
		Name: "Mia", Email: " Mia@Gym.com ", Password: "secret1", Role: "Member",
	})
	require.NoError(t, err)
	assert.False(t, result.PendingApproval)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "mia@gym.com", result.Account.Email)
	assert.Equal(t, models.StatusApproved, result.Account.Status)

	token, err := f.codec.Decode(result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.Account.ID, token.SubjectID())
	assert.Equal(t, models.RoleMember, token.Role)
	assert.Empty(t, f.events.Published())
}

func TestRegisterGymOwnerIsPending(t *testing.T) {
	f := newAuthFixture(t)

	result, err := f.svc.Register(context.Background(), RegisterInput{
		Name: "Olga", Email: "olga@gym.com", Password: "secret1", Role: "Gym Owner", OrganizationName: "Iron Temple",
	})
	require.NoError(t, err)
	assert.True(t, result.PendingApproval)
	assert.Empty(t, result.Token)
	assert.Equal(t, models.RoleGymOwner, result.Account.Role)
	assert.Equal(t, models.StatusPending, result.Account.Status)

	published := f.events.Published()
	require.Len(t, published, 1)
	assert.Equal(t, events.AccountPending, published[0].Type)
	assert.Equal(t, "Iron Temple", published[0].OrganizationName)
}

func TestRegisterPublishFailureDoesNotFail(t *testing.T) {
	f := newAuthFixture(t)
	f.events.Err = errors.New("redis down")

	result, err := f.svc.Register(context.Background(), RegisterInput{
		Name: "Olga", Email: "olga@gym.com", Password: "secret1", Role: "gym-owner", OrganizationName: "Iron Temple",
	})
	require.NoError(t, err)
	assert.True(t, result.PendingApproval)
}

func TestRegisterValidation(t *testing.T) {
	f := newAuthFixture(t)
	f.seed(t, models.RoleMember, models.StatusApproved, "taken@gym.com", "secret1")

	cases := []struct {
		name  string
		input RegisterInput
		want  *apperr.Error
	}{
		{"missing name", RegisterInput{Email: "a@gym.com", Password: "secret1", Role: "member"}, apperr.ErrMissingFields},
		{"missing role", RegisterInput{Name: "Al", Email: "a@gym.com", Password: "secret1"}, apperr.ErrMissingFields},
		{"gym owner without organization", RegisterInput{Name: "Al", Email: "a@gym.com", Password: "secret1", Role: "gymOwner"}, apperr.ErrMissingFields},
		{"bad email", RegisterInput{Name: "Al", Email: "not-an-email", Password: "secret1", Role: "member"}, apperr.ErrInvalidEmailFormat},
		{"unknown role", RegisterInput{Name: "Al", Email: "a@gym.com", Password: "secret1", Role: "janitor"}, apperr.ErrInvalidRole},
		{"super admin", RegisterInput{Name: "Al", Email: "a@gym.com", Password: "secret1", Role: "Super Admin"}, apperr.ErrForbidden},
		{"duplicate", RegisterInput{Name: "Al", Email: "TAKEN@gym.com", Password: "secret1", Role: "trainer"}, apperr.ErrDuplicateEmail},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Register(context.Background(), tc.input)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestLogin(t *testing.T) {
	f := newAuthFixture(t)
	f.seed(t, models.RoleTrainer, models.StatusApproved, "coach@gym.com", "secret1")
	f.seed(t, models.RoleGymOwner, models.StatusPending, "pending@gym.com", "secret1")
	f.seed(t, models.RoleGymOwner, models.StatusRejected, "rejected@gym.com", "secret1")
	f.seed(t, models.RoleGymOwner, models.StatusApproved, "owner@gym.com", "secret1")

	ctx := context.Background()

	result, err := f.svc.Login(ctx, LoginInput{Email: "Coach@gym.com", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), result.ExpiresAt, time.Minute)

	_, err = f.svc.Login(ctx, LoginInput{Email: "coach@gym.com", Password: "secret1", Role: "Trainer"})
	assert.NoError(t, err)

	_, err = f.svc.Login(ctx, LoginInput{Email: "owner@gym.com", Password: "secret1", Role: "Gym Owner"})
	assert.NoError(t, err)

	cases := []struct {
		input LoginInput
		want  *apperr.Error
	}{
		{LoginInput{Email: "nobody@gym.com", Password: "secret1"}, apperr.ErrInvalidCredentials},
		{LoginInput{Email: "coach@gym.com", Password: "wrong"}, apperr.ErrInvalidCredentials},
		{LoginInput{Email: "coach@gym.com", Password: "secret1", Role: "member"}, apperr.ErrInvalidCredentials},
		{LoginInput{Email: "pending@gym.com", Password: "secret1"}, apperr.ErrPendingApproval},
		{LoginInput{Email: "rejected@gym.com", Password: "secret1"}, apperr.ErrApplicationRejected},
		{LoginInput{Email: "", Password: ""}, apperr.ErrMissingFields},
	}
	for _, tc := range cases {
		_, err := f.svc.Login(ctx, tc.input)
		assert.ErrorIs(t, err, tc.want, tc.input.Email)
	}
}

func TestLoginStoreFailure(t *testing.T) {
	f := newAuthFixture(t)
	f.accounts.Err = repository.ErrStoreUnavailable

	_, err := f.svc.Login(context.Background(), LoginInput{Email: "a@gym.com", Password: "secret1"})
	assert.ErrorIs(t, err, apperr.ErrStoreUnavailable)
	assert.Equal(t, apperr.KindDependency, apperr.KindOf(err))
}

func TestVerifyResolvesCurrentAccount(t *testing.T) {
	f := newAuthFixture(t)
	account := f.seed(t, models.RoleGymOwner, models.StatusApproved, "owner@gym.com", "secret1")
	raw, _, err := f.codec.Issue(account)
	require.NoError(t, err)

	account.Name = "Renamed"
	f.accounts.Put(account)

	got, token, err := f.svc.Verify(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, security.FormatSigned, token.Format)
}

func TestVerifyRejects(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, _, err := f.svc.Verify(ctx, "garbage")
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	_, _, err = f.svc.Verify(ctx, "mock-token-superAdmin")
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	ghost, _, err := f.codec.Issue(models.Account{ID: "gone", Email: "g@gym.com", Role: models.RoleMember})
	require.NoError(t, err)
	_, _, err = f.svc.Verify(ctx, ghost)
	assert.ErrorIs(t, err, apperr.ErrAccountNotFound)
}

func TestLogoutRevokes(t *testing.T) {
	f := newAuthFixture(t)
	account := f.seed(t, models.RoleMember, models.StatusApproved, "mia@gym.com", "secret1")
	raw, _, err := f.codec.Issue(account)
	require.NoError(t, err)
	ctx := context.Background()

	_, _, err = f.svc.Verify(ctx, raw)
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, raw))
	_, _, err = f.svc.Verify(ctx, raw)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	assert.NoError(t, f.svc.Logout(ctx, "garbage"))
	assert.NoError(t, f.svc.Logout(ctx, "mock-token-member"))
}

func TestLogoutStoreFailure(t *testing.T) {
	f := newAuthFixture(t)
	raw, _, err := f.codec.Issue(models.Account{ID: "a", Email: "a@gym.com", Role: models.RoleMember})
	require.NoError(t, err)
	f.revoked.Err = errors.New("redis down")

	assert.ErrorIs(t, f.svc.Logout(context.Background(), raw), apperr.ErrStoreUnavailable)
}

func TestBootstrapSuperAdmin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	created, err := f.svc.BootstrapSuperAdmin(ctx, "Admin@GymSync.com", "admin123")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = f.svc.BootstrapSuperAdmin(ctx, "other@gymsync.com", "admin123")
	require.NoError(t, err)
	assert.False(t, created)

	result, err := f.svc.Login(ctx, LoginInput{Email: "admin@gymsync.com", Password: "admin123", Role: "superAdmin"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleSuperAdmin, result.Account.Role)
	assert.Equal(t, models.StatusApproved, result.Account.Status)
}

func TestBootstrapRequiresPassword(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.BootstrapSuperAdmin(context.Background(), "admin@gymsync.com", "")
	assert.ErrorIs(t, err, apperr.ErrMissingFields)
}

func TestRegisterAcceptsShortNameAndPassword(t *testing.T) {
	f := newAuthFixture(t)

	result, err := f.svc.Register(context.Background(), RegisterInput{
		Name: "A", Email: "a@x.com", Password: "p", Role: "member", OrganizationName: "Gym",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.False(t, result.PendingApproval)
	assert.Equal(t, models.StatusApproved, result.Account.Status)

	login, err := f.svc.Login(context.Background(), LoginInput{Email: "a@x.com", Password: "p"})
	require.NoError(t, err)
	assert.Equal(t, result.Account.ID, login.Account.ID)
}

func TestRegisterAcceptsLongTopLevelDomain(t *testing.T) {
	f := newAuthFixture(t)

	for _, email := range []string{"a@x.email", "coach+legs@iron.fitness"} {
		_, err := f.svc.Register(context.Background(), RegisterInput{
			Name: "Al", Email: email, Password: "secret1", Role: "trainer",
		})
		assert.NoError(t, err, email)
	}

	_, err := f.svc.Register(context.Background(), RegisterInput{
		Name: "Al", Email: "a@localhost", Password: "secret1", Role: "trainer",
	})
	assert.ErrorIs(t, err, apperr.ErrInvalidEmailFormat)
}
