package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    string

	DatabaseURL          string
	DBMaxOpenConns       int
	DBMaxIdleConns       int
	DBConnMaxLifetime    time.Duration
	DBConnMaxIdleTime    time.Duration
	RunMigrations        bool
	RequestTimeout       time.Duration
	ShutdownTimeout      time.Duration
	CORSAllowedOrigins   []string
	SentryDSN            string
	CloudinaryURL        string
	CronSecret           string
	CleanupSchedule      string
	CleanupBatchSize     int
	LoginRateLimitMax    int
	LoginRateLimitWindow time.Duration
	AdminEmail           string
	AdminPassword        string
	GateRejectBlocked    bool
	TrustProxyHeaders    bool
	Auth                 AuthConfig
}

type AuthConfig struct {
	JWTSecret    string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	CookieSecure bool
	CookieDomain string
}

// Load reads the process environment once. It is the only place in the
// module that touches os.Getenv.
func Load(loadDotEnv bool) (Config, error) {
	if loadDotEnv {
		_ = godotenv.Load()
	}

	databaseURL, err := mustEnv("DATABASE_URL")
	if err != nil {
		return Config{}, err
	}
	jwtSecret, err := mustEnv("JWT_SECRET")
	if err != nil {
		return Config{}, err
	}
	if len(jwtSecret) < 32 {
		return Config{}, fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}

	cfg := Config{
		Port:                 envOrDefault("PORT", "3000"),
		Environment:          envOrDefault("APP_ENV", "development"),
		LogLevel:             envOrDefault("LOG_LEVEL", "info"),
		DatabaseURL:          databaseURL,
		DBMaxOpenConns:       envIntOrDefault("DB_MAX_OPEN_CONNS", 10),
		DBMaxIdleConns:       envIntOrDefault("DB_MAX_IDLE_CONNS", 5),
		DBConnMaxLifetime:    envMinutesOrDefault("DB_CONN_MAX_LIFETIME_MINUTES", 30),
		DBConnMaxIdleTime:    envMinutesOrDefault("DB_CONN_MAX_IDLE_TIME_MINUTES", 10),
		RunMigrations:        EnvBoolOrDefault("RUN_MIGRATIONS_ON_STARTUP", true),
		RequestTimeout:       envSecondsOrDefault("REQUEST_TIMEOUT_SECONDS", 15),
		ShutdownTimeout:      envSecondsOrDefault("SHUTDOWN_TIMEOUT_SECONDS", 10),
		CORSAllowedOrigins:   envListOrDefault("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		SentryDSN:            strings.TrimSpace(os.Getenv("SENTRY_DSN")),
		CloudinaryURL:        strings.TrimSpace(os.Getenv("CLOUDINARY_URL")),
		CronSecret:           strings.TrimSpace(os.Getenv("CRON_SECRET")),
		CleanupSchedule:      envOrDefault("CLEANUP_SCHEDULE", "@hourly"),
		CleanupBatchSize:     envIntOrDefault("AUTH_CLEANUP_BATCH_SIZE", 500),
		LoginRateLimitMax:    envIntOrDefault("LOGIN_RATE_LIMIT_MAX", 10),
		LoginRateLimitWindow: envSecondsOrDefault("LOGIN_RATE_LIMIT_WINDOW_SECONDS", 60),
		AdminEmail:           strings.TrimSpace(os.Getenv("ADMIN_EMAIL")),
		AdminPassword:        strings.TrimSpace(os.Getenv("ADMIN_PASSWORD")),
		GateRejectBlocked:    EnvBoolOrDefault("AUTH_GATE_REJECT_BLOCKED", false),
		TrustProxyHeaders:    EnvBoolOrDefault("TRUST_PROXY_HEADERS", false),
		Auth: AuthConfig{
			JWTSecret:    jwtSecret,
			AccessTTL:    envMinutesOrDefault("ACCESS_TOKEN_TTL_MINUTES", 24*60),
			RefreshTTL:   envHoursOrDefault("REFRESH_TOKEN_TTL_HOURS", 72),
			CookieSecure: EnvBoolOrDefault("COOKIE_SECURE", true),
			CookieDomain: strings.TrimSpace(os.Getenv("COOKIE_DOMAIN")),
		},
	}

	if strings.EqualFold(os.Getenv("CLEANUP_SCHEDULE"), "off") {
		cfg.CleanupSchedule = ""
	}

	return cfg, nil
}

func mustEnv(name string) (string, error) {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return "", fmt.Errorf("missing required env: %s", name)
	}
	return value, nil
}

func envOrDefault(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func envIntOrDefault(name string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func envListOrDefault(name string, fallback []string) []string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}

	items := make([]string, 0)
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}

func envMinutesOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Minute
}

func envHoursOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Hour
}

func envSecondsOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Second
}

func EnvBoolOrDefault(name string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if value == "" {
		return fallback
	}

	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
