package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func TestDefaults(t *testing.T) {
	cfg, err := decode(newViper())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 24*time.Hour, cfg.Security.TokenTTL)
	assert.Equal(t, 8*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, 5*time.Second, cfg.Postgres.QueryTimeout)
	assert.Equal(t, "accounts:events", cfg.Redis.Stream)
	assert.True(t, cfg.Security.LegacyMockTokens, "mock tokens default on in development")
}

func TestMockTokensFollowEnvironment(t *testing.T) {
	v := newViper()
	v.Set("environment", "staging")
	cfg, err := decode(v)
	require.NoError(t, err)
	assert.False(t, cfg.Security.LegacyMockTokens)

	v.Set("security.legacymocktokens", true)
	cfg, err = decode(v)
	require.NoError(t, err)
	assert.True(t, cfg.Security.LegacyMockTokens)
}

func TestProductionRequiresSecret(t *testing.T) {
	v := newViper()
	v.Set("environment", "production")
	_, err := decode(v)
	assert.Error(t, err)

	v.Set("security.tokensecret", "a-real-secret")
	cfg, err := decode(v)
	require.NoError(t, err)
	assert.False(t, cfg.Development())
}

func TestDurationsAndSlices(t *testing.T) {
	v := newViper()
	v.Set("security.tokenttl", "2h")
	v.Set("allowcorsorigins", "http://localhost:3000,https://gymsync.app")
	cfg, err := decode(v)
	require.NoError(t, err)

	assert.Equal(t, 2*time.Hour, cfg.Security.TokenTTL)
	assert.Equal(t, []string{"http://localhost:3000", "https://gymsync.app"}, cfg.AllowCORSOrigins)
}

func TestInvalidTTL(t *testing.T) {
	v := newViper()
	v.Set("security.tokenttl", "0s")
	_, err := decode(v)
	assert.Error(t, err)
}
