package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting of the service.
type Config struct {
	DatabaseURL    string
	DBMaxOpenConns int
	JWTSecretKey   string
	ServerPort     int

	ClashAPIToken   string
	ClashAPIBaseURL string

	CORSAllowedOrigins []string
	CookieSecure       bool

	// BracketSeed fixes the bracket shuffle when set.
	BracketSeed       *int64
	SchedulerInterval time.Duration

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string
}

// Load reads configuration from the environment, loading a .env file first
// when one is present.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from an arbitrary variable source.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	cfg := &Config{
		DatabaseURL:       get("DATABASE_URL", ""),
		JWTSecretKey:      get("JWT_SECRET_KEY", ""),
		ClashAPIToken:     get("CLASH_API_TOKEN", ""),
		ClashAPIBaseURL:   get("CLASH_API_BASE_URL", "https://api.clashofclans.com/v1"),
		R2AccountID:       get("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:     get("R2_ACCESS_KEY_ID", ""),
		R2SecretAccessKey: get("R2_SECRET_ACCESS_KEY", ""),
		R2BucketName:      get("R2_BUCKET_NAME", ""),
		R2PublicBaseURL:   get("R2_PUBLIC_BASE_URL", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}
	if cfg.JWTSecretKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	port, err := strconv.Atoi(get("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}
	cfg.ServerPort = port

	for _, origin := range strings.Split(get("CORS_ALLOWED_ORIGINS", "*"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}

	if raw := get("COOKIE_SECURE", ""); raw != "" {
		secure, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid COOKIE_SECURE environment variable: %w", err)
		}
		cfg.CookieSecure = secure
	}

	if raw := get("BRACKET_SEED", ""); raw != "" {
		seed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid BRACKET_SEED environment variable: %w", err)
		}
		cfg.BracketSeed = &seed
	}

	maxConns, err := strconv.Atoi(get("DB_MAX_OPEN_CONNS", "25"))
	if err != nil || maxConns < 1 {
		return nil, fmt.Errorf("invalid DB_MAX_OPEN_CONNS environment variable: %q", get("DB_MAX_OPEN_CONNS", ""))
	}
	cfg.DBMaxOpenConns = maxConns

	interval, err := time.ParseDuration(get("SCHEDULER_INTERVAL", "1m"))
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULER_INTERVAL environment variable: %w", err)
	}
	if interval < time.Second {
		return nil, fmt.Errorf("SCHEDULER_INTERVAL must be at least 1s, got %s", interval)
	}
	cfg.SchedulerInterval = interval

	return cfg, nil
}

// UploadsEnabled reports whether the R2 settings are complete.
func (c *Config) UploadsEnabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" &&
		c.R2BucketName != "" && c.R2PublicBaseURL != ""
}
