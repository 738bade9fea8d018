package service

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymsync/internal/apperr"
	"gymsync/internal/memstore"
	"gymsync/internal/models"
	"gymsync/internal/rbac"
)

var pngBytes = append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, bytes.Repeat([]byte{7}, 100)...)

func newProfileFixture() (*ProfileService, *memstore.Accounts, *memstore.Avatars) {
	accounts := memstore.NewAccounts()
	avatars := memstore.NewAvatars()
	return NewProfileService(accounts, avatars, rbac.Default(), 1024, zerolog.Nop()), accounts, avatars
}

func ptr(s string) *string { return &s }

func TestUpdateProfile(t *testing.T) {
	svc, accounts, _ := newProfileFixture()
	member := accounts.Put(models.Account{ID: "m1", Name: "Mia", Role: models.RoleMember, Status: models.StatusApproved})

	updated, err := svc.Update(context.Background(), member, models.Profile{PhoneNumber: ptr(" 555-0100 "), Address: ptr("Main St")})
	require.NoError(t, err)
	assert.Equal(t, "555-0100", updated.PhoneNumber)
	assert.Equal(t, "Main St", updated.Address)
	assert.Equal(t, "Mia", updated.Name)
}

func TestUpdateProfileRules(t *testing.T) {
	svc, accounts, _ := newProfileFixture()
	pending := accounts.Put(models.Account{ID: "o1", Role: models.RoleGymOwner, Status: models.StatusPending, OrganizationName: "Gym"})
	approved := accounts.Put(models.Account{ID: "o2", Role: models.RoleGymOwner, Status: models.StatusApproved})
	ctx := context.Background()

	updated, err := svc.Update(ctx, pending, models.Profile{Description: ptr("24/7 gym")})
	require.NoError(t, err)
	assert.Equal(t, "24/7 gym", updated.Description)

	_, err = svc.Update(ctx, approved, models.Profile{Description: ptr("x")})
	assert.ErrorIs(t, err, apperr.ErrProfileLocked)

	_, err = svc.Update(ctx, pending, models.Profile{OrganizationName: ptr("  ")})
	assert.ErrorIs(t, err, apperr.ErrMissingFields)

	_, err = svc.Update(ctx, pending, models.Profile{Name: ptr(" ")})
	assert.ErrorIs(t, err, apperr.ErrMissingFields)

	unchanged, err := svc.Update(ctx, pending, models.Profile{})
	require.NoError(t, err)
	assert.Equal(t, pending.ID, unchanged.ID)
}

func TestUploadAvatar(t *testing.T) {
	svc, accounts, avatars := newProfileFixture()
	member := accounts.Put(models.Account{ID: "m1", Role: models.RoleMember, Status: models.StatusApproved})
	ctx := context.Background()

	updated, err := svc.UploadAvatar(ctx, member, bytes.NewReader(pngBytes), int64(len(pngBytes)), "image/png")
	require.NoError(t, err)
	require.NotNil(t, updated.AvatarKey)
	assert.True(t, strings.HasPrefix(*updated.AvatarKey, "avatars/m1/"))
	assert.True(t, strings.HasSuffix(*updated.AvatarKey, ".png"))

	data, contentType, ok := avatars.Object(*updated.AvatarKey)
	require.True(t, ok)
	assert.Equal(t, pngBytes, data)
	assert.Equal(t, "image/png", contentType)

	replaced, err := svc.UploadAvatar(ctx, updated, bytes.NewReader(pngBytes), int64(len(pngBytes)), "")
	require.NoError(t, err)
	assert.NotEqual(t, *updated.AvatarKey, *replaced.AvatarKey)
	assert.Equal(t, 1, avatars.Len())
}

func TestUploadAvatarRejects(t *testing.T) {
	svc, accounts, avatars := newProfileFixture()
	member := accounts.Put(models.Account{ID: "m1", Role: models.RoleMember, Status: models.StatusApproved})
	ctx := context.Background()

	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`)
	_, err := svc.UploadAvatar(ctx, member, bytes.NewReader(svg), int64(len(svg)), "image/svg+xml")
	assert.ErrorIs(t, err, apperr.ErrUnsupportedMedia)

	_, err = svc.UploadAvatar(ctx, member, bytes.NewReader(pngBytes), int64(len(pngBytes)), "image/jpeg")
	assert.ErrorIs(t, err, apperr.ErrUnsupportedMedia)

	_, err = svc.UploadAvatar(ctx, member, bytes.NewReader(nil), 0, "")
	assert.ErrorIs(t, err, apperr.ErrInvalidRequest)

	big := bytes.Repeat([]byte{0}, 2048)
	_, err = svc.UploadAvatar(ctx, member, bytes.NewReader(big), int64(len(big)), "")
	assert.ErrorIs(t, err, apperr.ErrInvalidRequest)

	assert.Equal(t, 0, avatars.Len())
}

func TestPermissions(t *testing.T) {
	svc, _, _ := newProfileFixture()
	assert.Contains(t, svc.Permissions(models.Account{Role: models.RoleTrainer}), rbac.PermViewClients)
	assert.Equal(t, []string{rbac.Wildcard}, svc.Permissions(models.Account{Role: models.RoleSuperAdmin}))
}
