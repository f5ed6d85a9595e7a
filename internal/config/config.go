// Package config provides configuration loading and validation for the API server.
// It uses koanf to merge environment variables with optional file overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration values for the API server.
type Config struct {
	// Server settings
	Port int    `koanf:"port"`
	Env  string `koanf:"env"`

	// Storage. Empty DatabaseURL selects the in-memory stores seeded with demo data.
	DatabaseURL string `koanf:"database_url"`
	RedisURL    string `koanf:"redis_url"`

	// Load the demo creator, learner and courses at startup. Defaults to on
	// for the in-memory stores and off with a database.
	SeedDemoData bool `koanf:"seed_demo_data"`

	// JWT bearer identity. Empty disables bearer parsing.
	JWTSecret string `koanf:"jwt_secret"`

	// Browser origins allowed by CORS. Empty disables CORS headers.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// Feed
	RankingCalibrationPath string        `koanf:"ranking_calibration_path"`
	FeedPageSize           int           `koanf:"feed_page_size"`
	FeedNewCreatorWindow   time.Duration `koanf:"feed_new_creator_window"`
	FeedCacheTTL           time.Duration `koanf:"feed_cache_ttl"`

	// Stories
	StoryTTL time.Duration `koanf:"story_ttl"`

	// Rate limiting
	RateLimitPerMinute int `koanf:"rate_limit_per_minute"`

	// Tracing
	TracingEnabled    bool    `koanf:"tracing_enabled"`
	OTLPEndpoint      string  `koanf:"otlp_endpoint"`
	OTLPExporter      string  `koanf:"otlp_exporter"` // "http" or "grpc"
	TracingSampleRate float64 `koanf:"tracing_sample_rate"`
}

// Configuration validation errors.
var (
	ErrMissingDatabaseURL   = errors.New("DATABASE_URL is required in production")
	ErrMissingJWTSecret     = errors.New("JWT_SECRET is required in production")
	ErrInvalidPort          = errors.New("PORT must be a valid integer")
	ErrPortOutOfRange       = errors.New("PORT must be between 1 and 65535")
	ErrInvalidDuration      = errors.New("value must be a valid duration")
	ErrInvalidFeedPageSize  = errors.New("FEED_PAGE_SIZE must be between 1 and 100")
	ErrInvalidFeedWindow    = errors.New("FEED_NEW_CREATOR_WINDOW must be positive")
	ErrInvalidStoryTTL      = errors.New("STORY_TTL must be positive")
	ErrInvalidRateLimit     = errors.New("RATE_LIMIT_PER_MINUTE must be positive")
	ErrInvalidOTLPExporter  = errors.New("OTLP_EXPORTER must be http or grpc")
	ErrInvalidSampleRate    = errors.New("TRACING_SAMPLE_RATE must be between 0 and 1")
	ErrMissingOTLPEndpoint  = errors.New("OTLP_ENDPOINT is required when tracing is enabled")
	ErrShortJWTSecret       = errors.New("JWT_SECRET must be at least 32 characters")
	ErrNegativeFeedCacheTTL = errors.New("FEED_CACHE_TTL must not be negative")
	ErrInvalidBool          = errors.New("value must be a boolean")
)

// Default values for non-secret configuration.
const (
	DefaultPort                 = 8080
	DefaultEnv                  = "development"
	DefaultFeedPageSize         = 20
	DefaultFeedNewCreatorWindow = 14 * 24 * time.Hour
	DefaultFeedCacheTTL         = 30 * time.Second
	DefaultStoryTTL             = 24 * time.Hour
	DefaultRateLimitPerMinute   = 100
	DefaultOTLPExporter         = "http"
	DefaultTracingSampleRate    = 0.1
	minJWTSecretLength          = 32
)

// Load reads configuration from environment variables and an optional config file.
// Environment variables take precedence over file values.
// Returns the loaded config and a slice of validation errors (empty if valid).
// If a config file path is provided and the file cannot be loaded, an error is returned.
func Load(configFilePath string) (*Config, []error) {
	k := koanf.New(".")
	var loadErrs []error

	// Load from YAML file first if provided (lower precedence)
	if configFilePath != "" {
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("failed to load config file %s: %w", configFilePath, err)}
		}
	}

	collect := func(err error) {
		if err != nil {
			loadErrs = append(loadErrs, err)
		}
	}

	// Try REELED_PORT first, then PORT for platforms that inject it
	port, err := getEnvIntOrDefaultMulti([]string{"REELED_PORT", "PORT"}, k.Int("port"), DefaultPort)
	collect(err)

	pageSize, err := getEnvIntOrDefault("FEED_PAGE_SIZE", k.Int("feed_page_size"), DefaultFeedPageSize)
	collect(err)

	rateLimit, err := getEnvIntOrDefault("RATE_LIMIT_PER_MINUTE", k.Int("rate_limit_per_minute"), DefaultRateLimitPerMinute)
	collect(err)

	newCreatorWindow, err := getEnvDurationOrDefault("FEED_NEW_CREATOR_WINDOW", k.String("feed_new_creator_window"), DefaultFeedNewCreatorWindow)
	collect(err)

	cacheTTL, err := getEnvDurationOrDefault("FEED_CACHE_TTL", k.String("feed_cache_ttl"), DefaultFeedCacheTTL)
	collect(err)

	storyTTL, err := getEnvDurationOrDefault("STORY_TTL", k.String("story_ttl"), DefaultStoryTTL)
	collect(err)

	sampleRate, err := getEnvFloatOrDefault("TRACING_SAMPLE_RATE", k.Float64("tracing_sample_rate"), DefaultTracingSampleRate)
	collect(err)

	tracingEnabled, err := getEnvBoolOrKoanf("TRACING_ENABLED", k, "tracing_enabled")
	collect(err)

	databaseURL := getEnvOrKoanf("DATABASE_URL", k, "database_url")
	seedDemo := databaseURL == ""
	if os.Getenv("SEED_DEMO_DATA") != "" || k.Exists("seed_demo_data") {
		seedDemo, err = getEnvBoolOrKoanf("SEED_DEMO_DATA", k, "seed_demo_data")
		collect(err)
	}

	// Build config struct, with env vars taking precedence over file values
	cfg := &Config{
		Port:                   port,
		Env:                    getEnvOrDefaultMulti([]string{"REELED_ENV", "ENV", "GO_ENV"}, k.String("env"), DefaultEnv),
		DatabaseURL:            databaseURL,
		RedisURL:               getEnvOrKoanf("REDIS_URL", k, "redis_url"),
		SeedDemoData:           seedDemo,
		JWTSecret:              getEnvOrKoanf("JWT_SECRET", k, "jwt_secret"),
		CORSAllowedOrigins:     getEnvListOrKoanf("CORS_ALLOWED_ORIGINS", k, "cors_allowed_origins"),
		RankingCalibrationPath: getEnvOrKoanf("RANKING_CALIBRATION_PATH", k, "ranking_calibration_path"),
		FeedPageSize:           pageSize,
		FeedNewCreatorWindow:   newCreatorWindow,
		FeedCacheTTL:           cacheTTL,
		StoryTTL:               storyTTL,
		RateLimitPerMinute:     rateLimit,
		TracingEnabled:         tracingEnabled,
		OTLPEndpoint:           getEnvOrKoanf("OTLP_ENDPOINT", k, "otlp_endpoint"),
		OTLPExporter:           getEnvOrDefault("OTLP_EXPORTER", k.String("otlp_exporter"), DefaultOTLPExporter),
		TracingSampleRate:      sampleRate,
	}

	// Validate and collect errors
	errs := cfg.Validate()
	errs = append(loadErrs, errs...)

	return cfg, errs
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// getEnvOrKoanf returns the environment variable value if set, otherwise the koanf value.
func getEnvOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	return k.String(koanfKey)
}

// getEnvOrDefault returns the environment variable value if set, otherwise the koanf value, or default.
func getEnvOrDefault(envKey string, koanfVal string, defaultVal string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	if koanfVal != "" {
		return koanfVal
	}
	return defaultVal
}

// getEnvOrDefaultMulti tries multiple environment variable keys in order.
// Returns the first non-empty value found, otherwise the koanf value, or default.
func getEnvOrDefaultMulti(envKeys []string, koanfVal string, defaultVal string) string {
	for _, key := range envKeys {
		if val := os.Getenv(key); val != "" {
			return val
		}
	}
	if koanfVal != "" {
		return koanfVal
	}
	return defaultVal
}

// getEnvIntOrDefault returns the environment variable as int if set, otherwise the koanf value, or default.
// A zero koanf value falls back to the default.
func getEnvIntOrDefault(envKey string, koanfVal int, defaultVal int) (int, error) {
	return getEnvIntOrDefaultMulti([]string{envKey}, koanfVal, defaultVal)
}

// getEnvIntOrDefaultMulti tries multiple environment variable keys in order.
// Returns an error if any environment variable is set but cannot be parsed as an integer.
func getEnvIntOrDefaultMulti(envKeys []string, koanfVal int, defaultVal int) (int, error) {
	for _, key := range envKeys {
		if val := os.Getenv(key); val != "" {
			i, err := strconv.Atoi(val)
			if err != nil {
				return 0, fmt.Errorf("%s must be a valid integer: %w", key, ErrInvalidPort)
			}
			return i, nil
		}
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// getEnvFloatOrDefault returns the environment variable as float64 if set, otherwise the koanf value, or default.
func getEnvFloatOrDefault(envKey string, koanfVal float64, defaultVal float64) (float64, error) {
	if val := os.Getenv(envKey); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid float: %w", envKey, err)
		}
		return f, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// getEnvDurationOrDefault parses durations such as "30s" or "336h".
func getEnvDurationOrDefault(envKey string, koanfVal string, defaultVal time.Duration) (time.Duration, error) {
	raw := getEnvOrDefault(envKey, koanfVal, "")
	if raw == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return defaultVal, fmt.Errorf("%s=%q: %w", envKey, raw, ErrInvalidDuration)
	}
	return d, nil
}

// getEnvListOrKoanf splits a comma-separated environment value, falling back to a YAML list.
func getEnvListOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) []string {
	raw := k.Strings(koanfKey)
	if val := os.Getenv(envKey); val != "" {
		raw = strings.Split(val, ",")
	}
	var out []string
	for _, v := range raw {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// getEnvBoolOrKoanf accepts true/false, 1/0, yes/no and on/off from the environment.
func getEnvBoolOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) (bool, error) {
	val := os.Getenv(envKey)
	if val == "" {
		return k.Bool(koanfKey), nil
	}
	switch strings.ToLower(val) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("%s=%q: %w", envKey, val, ErrInvalidBool)
}

// Validate checks configuration values for consistency.
// Returns a slice of validation errors (empty if valid).
func (c *Config) Validate() []error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, ErrPortOutOfRange)
	}

	// Development runs without a database or secret; production must not.
	if c.IsProduction() {
		if c.DatabaseURL == "" {
			errs = append(errs, ErrMissingDatabaseURL)
		}
		if c.JWTSecret == "" {
			errs = append(errs, ErrMissingJWTSecret)
		}
	}
	if c.JWTSecret != "" && len(c.JWTSecret) < minJWTSecretLength {
		errs = append(errs, ErrShortJWTSecret)
	}

	if c.FeedPageSize < 1 || c.FeedPageSize > 100 {
		errs = append(errs, ErrInvalidFeedPageSize)
	}
	if c.FeedNewCreatorWindow <= 0 {
		errs = append(errs, ErrInvalidFeedWindow)
	}
	if c.FeedCacheTTL < 0 {
		errs = append(errs, ErrNegativeFeedCacheTTL)
	}
	if c.StoryTTL <= 0 {
		errs = append(errs, ErrInvalidStoryTTL)
	}
	if c.RateLimitPerMinute <= 0 {
		errs = append(errs, ErrInvalidRateLimit)
	}

	if c.OTLPExporter != "http" && c.OTLPExporter != "grpc" {
		errs = append(errs, ErrInvalidOTLPExporter)
	}
	if c.TracingSampleRate < 0 || c.TracingSampleRate > 1 {
		errs = append(errs, ErrInvalidSampleRate)
	}
	if c.TracingEnabled && c.OTLPEndpoint == "" {
		errs = append(errs, ErrMissingOTLPEndpoint)
	}

	return errs
}

// LogSummary returns a summary of the configuration suitable for logging.
// All secrets are masked to prevent accidental exposure.
func (c *Config) LogSummary() map[string]string {
	return map[string]string{
		"port":                     strconv.Itoa(c.Port),
		"env":                      c.Env,
		"database_url":             maskDatabaseURL(c.DatabaseURL),
		"redis_url":                maskDatabaseURL(c.RedisURL),
		"seed_demo_data":           strconv.FormatBool(c.SeedDemoData),
		"jwt_secret":               maskSecret(c.JWTSecret),
		"cors_allowed_origins":     strings.Join(c.CORSAllowedOrigins, ","),
		"ranking_calibration_path": c.RankingCalibrationPath,
		"feed_page_size":           strconv.Itoa(c.FeedPageSize),
		"feed_new_creator_window":  c.FeedNewCreatorWindow.String(),
		"feed_cache_ttl":           c.FeedCacheTTL.String(),
		"story_ttl":                c.StoryTTL.String(),
		"rate_limit_per_minute":    strconv.Itoa(c.RateLimitPerMinute),
		"tracing_enabled":          strconv.FormatBool(c.TracingEnabled),
		"otlp_endpoint":            c.OTLPEndpoint,
		"otlp_exporter":            c.OTLPExporter,
		"tracing_sample_rate":      strconv.FormatFloat(c.TracingSampleRate, 'f', -1, 64),
	}
}

// maskSecret masks a secret value, showing only the first 4 characters followed by ****
// If the secret is shorter than 8 characters, it's fully masked.
func maskSecret(s string) string {
	if s == "" {
		return "<not set>"
	}
	if len(s) < 8 {
		return "****"
	}
	return s[:4] + "****"
}

// maskDatabaseURL masks the password in a connection URL (postgres://, redis://).
func maskDatabaseURL(s string) string {
	if s == "" {
		return "<not set>"
	}

	schemeEnd := strings.Index(s, "://")
	if schemeEnd == -1 {
		return maskSecret(s)
	}

	rest := s[schemeEnd+3:]
	atIndex := strings.Index(rest, "@")
	if atIndex == -1 {
		return s // No credentials in URL
	}

	colonIndex := strings.Index(rest[:atIndex], ":")
	if colonIndex == -1 {
		return s // No password (only username)
	}

	scheme := s[:schemeEnd+3]
	user := rest[:colonIndex]
	hostAndPath := rest[atIndex:]

	return scheme + user + ":****" + hostAndPath
}
