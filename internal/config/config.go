// Package config handles configuration loading for the Dukes' Club service.
package config

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// CookieConfig controls how authentication cookies are written.
type CookieConfig struct {
	Domain   string
	Secure   bool
	SameSite http.SameSite
	Path     string
}

// S3Config holds the media bucket settings. Endpoint is optional for AWS.
type S3Config struct {
	Endpoint      string
	Region        string
	Bucket        string
	KeyID         string
	Secret        string
	PublicBaseURL string
	UsePathStyle  bool
}

// Enabled reports whether uploads can be served.
func (s S3Config) Enabled() bool {
	return s.Bucket != "" && s.KeyID != "" && s.Secret != ""
}

// Config holds all configuration for the service.
type Config struct {
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	DBPath     string

	RedisHost     string
	RedisPort     string
	RedisPassword string

	JWTSecret          string
	JWTAccessExpiry    time.Duration
	JWTRefreshExpiry   time.Duration
	VerificationExpiry time.Duration
	ResetExpiry        time.Duration

	// SiteURL is the public origin used to build links sent by email.
	SiteURL                  string
	RequireEmailVerification bool

	ApprovedDomains  []string
	ApprovedSuffixes []string

	AllowedOrigins []string
	Cookie         CookieConfig
	S3             S3Config

	RateLimitRPS   float64
	RateLimitBurst int

	Port        string
	Environment string
	LogLevel    string

	// SwaggerHost enables /swagger when set.
	SwaggerHost string
}

// IsProduction returns true when running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// SlogLevel maps LogLevel to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load reads configuration from environment variables, after loading an
// optional .env file from the working directory.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var missing []string
	cfg := &Config{
		DBDriver:   strings.ToLower(GetEnv("DB_DRIVER", "postgres")),
		DBHost:     GetEnv("DB_HOST", "localhost"),
		DBPort:     GetEnv("DB_PORT", "5432"),
		DBUser:     GetEnv("DB_USER", "postgres"),
		DBPassword: GetEnv("DB_PASSWORD", ""),
		DBName:     GetEnv("DB_NAME", "dukes_club"),
		DBSSLMode:  GetEnv("DB_SSLMODE", "disable"),
		DBPath:     GetEnv("DB_PATH", "dukes_club.db"),

		RedisHost:     getEnvRequired("REDIS_HOST", &missing),
		RedisPort:     GetEnv("REDIS_PORT", "6379"),
		RedisPassword: GetEnv("REDIS_PASSWORD", ""),

		JWTSecret:          getEnvRequired("JWT_SECRET", &missing),
		JWTAccessExpiry:    parseDuration(GetEnv("JWT_ACCESS_EXPIRY", "15m"), 15*time.Minute),
		JWTRefreshExpiry:   parseDuration(GetEnv("JWT_REFRESH_EXPIRY", "168h"), 168*time.Hour),
		VerificationExpiry: parseDuration(GetEnv("VERIFICATION_EXPIRY", "24h"), 24*time.Hour),
		ResetExpiry:        parseDuration(GetEnv("PASSWORD_RESET_EXPIRY", "1h"), time.Hour),

		SiteURL:                  strings.TrimSuffix(GetEnv("SITE_URL", "http://localhost:8080"), "/"),
		RequireEmailVerification: getEnvBool("REQUIRE_EMAIL_VERIFICATION", true),

		ApprovedDomains:  getEnvList("APPROVED_EMAIL_DOMAINS", []string{"nhs.net", "nhs.uk", "doctors.org.uk"}),
		ApprovedSuffixes: getEnvList("APPROVED_EMAIL_SUFFIXES", []string{".ac.uk"}),

		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:8080"}),
		Cookie: CookieConfig{
			Domain:   GetEnv("COOKIE_DOMAIN", ""),
			Secure:   getEnvBool("COOKIE_SECURE", false),
			SameSite: parseSameSite(GetEnv("COOKIE_SAMESITE", "lax")),
			Path:     "/",
		},
		S3: S3Config{
			Endpoint:      GetEnv("S3_ENDPOINT", ""),
			Region:        GetEnv("S3_REGION", "eu-west-2"),
			Bucket:        GetEnv("S3_BUCKET", "media"),
			KeyID:         GetEnv("S3_KEY_ID", ""),
			Secret:        GetEnv("S3_SECRET", ""),
			PublicBaseURL: strings.TrimSuffix(GetEnv("S3_PUBLIC_BASE_URL", ""), "/"),
			UsePathStyle:  getEnvBool("S3_USE_PATH_STYLE", true),
		},

		RateLimitRPS:   getEnvFloat("AUTH_RATE_LIMIT_RPS", 1),
		RateLimitBurst: getEnvInt("AUTH_RATE_LIMIT_BURST", 10),

		Port:        GetEnv("PORT", "8080"),
		Environment: GetEnv("ENVIRONMENT", "development"),
		LogLevel:    GetEnv("LOG_LEVEL", "info"),

		SwaggerHost: GetEnv("SWAGGER_HOST", ""),
	}

	if cfg.DBDriver != "postgres" && cfg.DBDriver != "sqlite" {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q (want postgres or sqlite)", cfg.DBDriver)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("JWT_SECRET must be at least 32 bytes")
	}
	return cfg, nil
}

func parseSameSite(value string) http.SameSite {
	switch strings.ToLower(value) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
