package config

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "this-is-a-test-secret-with-32-bytes!"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("REDIS_HOST", "localhost")
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 15*time.Minute, cfg.JWTAccessExpiry)
	assert.Equal(t, 168*time.Hour, cfg.JWTRefreshExpiry)
	assert.Equal(t, []string{"nhs.net", "nhs.uk", "doctors.org.uk"}, cfg.ApprovedDomains)
	assert.Equal(t, []string{".ac.uk"}, cfg.ApprovedSuffixes)
	assert.Equal(t, "media", cfg.S3.Bucket)
	assert.Equal(t, http.SameSiteLaxMode, cfg.Cookie.SameSite)
	assert.True(t, cfg.RequireEmailVerification)
	assert.False(t, cfg.S3.Enabled())
	assert.Empty(t, cfg.SwaggerHost)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("JWT_ACCESS_EXPIRY", "5m")
	t.Setenv("APPROVED_EMAIL_DOMAINS", "nhs.net, ,example.org")
	t.Setenv("COOKIE_SAMESITE", "strict")
	t.Setenv("SITE_URL", "https://dukesclub.org.uk/")
	t.Setenv("REQUIRE_EMAIL_VERIFICATION", "false")
	t.Setenv("SWAGGER_HOST", "localhost:8080")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 5*time.Minute, cfg.JWTAccessExpiry)
	assert.Equal(t, []string{"nhs.net", "example.org"}, cfg.ApprovedDomains)
	assert.Equal(t, http.SameSiteStrictMode, cfg.Cookie.SameSite)
	assert.Equal(t, "https://dukesclub.org.uk", cfg.SiteURL)
	assert.False(t, cfg.RequireEmailVerification)
	assert.Equal(t, "localhost:8080", cfg.SwaggerHost)
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("REDIS_HOST", "")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_HOST")
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoad_ShortSecret(t *testing.T) {
	t.Setenv("REDIS_HOST", "localhost")
	t.Setenv("JWT_SECRET", "short")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_UnsupportedDriver(t *testing.T) {
	t.Setenv("REDIS_HOST", "localhost")
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("DB_DRIVER", "mysql")

	_, err := Load()
	require.Error(t, err)
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 2*time.Hour, parseDuration("2h", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("bogus", time.Minute))
}
