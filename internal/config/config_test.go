package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/go-hr-portal/internal/config"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	c := config.New()
	require.Equal(t, ":8080", c.GetPort())
	require.Equal(t, config.CredentialsModeMemory, c.GetCredentialsMode())
	require.Equal(t, 30*time.Minute, c.GetMaxSessionAge())
	require.Equal(t, "portal_sid", c.GetCookieName())
	require.Empty(t, c.GetDatabaseURL())
	require.Empty(t, c.GetCookieSecret())
	require.Empty(t, c.GetAllowedOrigins())
}

func TestFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("RESOLVE_WAIT", "500ms")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("OIDC_ISSUER", "https://idp.example")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("SESSION_COOKIE_SECRET", "s3cret")

	c := config.New()
	require.Equal(t, ":9090", c.GetPort())
	require.Equal(t, 500*time.Millisecond, c.GetResolveWait())
	require.Equal(t, 3, c.GetRedisDB())
	require.Equal(t, "s3cret", c.GetCookieSecret())
	require.Equal(t, "https://idp.example/token", c.GetOIDCTokenURL())
	require.True(t, c.GetAllowedOrigins().IsAllowedOrigin("https://b.example"))
	require.Equal(t, "https://a.example, https://b.example", c.GetAllowedOrigins().String())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(file, []byte("APP_NAME=Portal From File\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("APP_NAME") })

	require.NoError(t, config.Load(file, filepath.Join(dir, "missing.env")))
	require.Equal(t, "Portal From File", config.New().GetAppName())
}
