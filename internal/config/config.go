package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName     string
	AppEnv      string
	AppURL      string
	Port        string
	AppTimezone string
	LogLevel    string

	// Database (mysql by default, sqlite for local development and tests)
	DBDriver     string
	DBConnection string

	// Security
	JWTSecret                string
	JWTExpiry                time.Duration
	TokenPasswordResetExpiry time.Duration
	CORSOrigin               string

	// OAuth
	GoogleClientID     string
	GoogleClientSecret string

	// Email
	EmailFrom    string
	ResendAPIKey string

	// Observability (optional)
	SentryDSN string

	// Storage (S3-compatible, used for avatars)
	S3Region               string
	S3Bucket               string
	S3AccessKey            string
	S3SecretKey            string
	S3Endpoint             string
	S3PresignExpiryPublic  time.Duration
	S3PresignExpiryPrivate time.Duration

	// Web Push
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubject    string
	NotifyEnabled   bool
	NotifySchedule  string
	NotifyTTL       int

	// Limits
	MaxActiveGoals   int
	MaxCustomActions int
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		AppName:     envString("APP_NAME", "Syfte"),
		AppEnv:      envRequired("APP_ENV"), // 'development' or 'production'
		AppURL:      envRequired("APP_URL"), // used in reset links and OAuth redirects
		Port:        envString("PORT", "8090"),
		AppTimezone: envString("APP_TIMEZONE", "Europe/Zurich"),
		LogLevel:    envString("LOG_LEVEL", ""),

		DBDriver:     envString("DB_DRIVER", "mysql"),
		DBConnection: envString("DB_CONNECTION", "syfte:syfte@tcp(localhost:3306)/syfte?parseTime=true&loc=UTC&charset=utf8mb4&clientFoundRows=true"),

		JWTSecret:                envRequired("JWT_SECRET"),
		JWTExpiry:                envDuration("JWT_EXPIRY", 168*time.Hour),
		TokenPasswordResetExpiry: envDuration("TOKEN_PASSWORD_RESET_EXPIRY", 1*time.Hour),
		CORSOrigin:               envString("CORS_ORIGIN", ""),

		GoogleClientID:     envString("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: envString("GOOGLE_CLIENT_SECRET", ""),

		EmailFrom:    envString("EMAIL_FROM", "noreply@syfte.ch"),
		ResendAPIKey: envString("RESEND_API_KEY", ""),

		SentryDSN: envString("SENTRY_DSN", ""),

		S3Region:               envString("S3_REGION", "eu-central-1"),
		S3Bucket:               envString("S3_BUCKET", ""),
		S3AccessKey:            envString("S3_ACCESS_KEY", ""),
		S3SecretKey:            envString("S3_SECRET_KEY", ""),
		S3Endpoint:             envString("S3_ENDPOINT", ""),
		S3PresignExpiryPublic:  envDuration("S3_PRESIGN_EXPIRY_PUBLIC", 168*time.Hour),
		S3PresignExpiryPrivate: envDuration("S3_PRESIGN_EXPIRY_PRIVATE", 1*time.Hour),

		VAPIDPublicKey:  envString("VAPID_PUBLIC_KEY", ""),
		VAPIDPrivateKey: envString("VAPID_PRIVATE_KEY", ""),
		VAPIDSubject:    envString("VAPID_SUBJECT", "mailto:hello@syfte.ch"),
		NotifyEnabled:   envBool("NOTIFY_ENABLED", true),
		NotifySchedule:  envString("NOTIFY_SCHEDULE", "* * * * *"),
		NotifyTTL:       envInt("NOTIFY_TTL", 86400),

		MaxActiveGoals:   envInt("MAX_ACTIVE_GOALS", 50),
		MaxCustomActions: envInt("MAX_CUSTOM_ACTIONS", 100),
	}

	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// validateProduction exits when a production deployment is missing services
// that have a logging fallback in development.
func validateProduction(cfg *Config) {
	if cfg.ResendAPIKey == "" {
		slog.Error("production deployment requires RESEND_API_KEY",
			"hint", "set APP_ENV=development for local testing with email log mode")
		os.Exit(1)
	}
	if cfg.NotifyEnabled && (cfg.VAPIDPublicKey == "" || cfg.VAPIDPrivateKey == "") {
		slog.Error("production deployment requires VAPID keys when notifications are enabled",
			"hint", "run 'syftectl vapid generate' or set NOTIFY_ENABLED=false")
		os.Exit(1)
	}
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return i
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Location returns the time zone used for calendar-day logic (streaks,
// reminder send times). Falls back to UTC when the zone is unknown.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.AppTimezone)
	if err != nil {
		slog.Warn("config invalid time zone, using UTC", "timezone", c.AppTimezone, "error", err)
		return time.UTC
	}
	return loc
}

// StorageEnabled reports whether an S3 bucket is configured for avatars.
func (c *Config) StorageEnabled() bool {
	return c.S3Bucket != ""
}

// Sanitized returns a copy of the config with only public fields.
// Safe to expose in request contexts.
func (c *Config) Sanitized() *Config {
	return &Config{
		AppName:        c.AppName,
		AppEnv:         c.AppEnv,
		AppURL:         c.AppURL,
		Port:           c.Port,
		AppTimezone:    c.AppTimezone,
		CORSOrigin:     c.CORSOrigin,
		GoogleClientID: c.GoogleClientID,
		VAPIDPublicKey: c.VAPIDPublicKey,
	}
}
