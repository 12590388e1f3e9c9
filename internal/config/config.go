package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// placeholderSecret is the built-in jwt secret. It lets the CLI run without
// setup but must never sign real tokens.
const placeholderSecret = "your-secret-key-change-in-production"

var ErrPlaceholderSecret = errors.New("JWT_SECRET is not set: refusing to sign tokens with the built-in placeholder")

// Config is the application configuration.
//
// Values are layered: built-in defaults, then the YAML file named by
// WAYFINDER_CONFIG, then the .env file (WAYFINDER_ENV_FILE, default ".env"),
// then the process environment.
type Config struct {
	Port      string `yaml:"port" validate:"required"`
	DBPath    string `yaml:"db_path" validate:"required"`
	JWTSecret string `yaml:"jwt_secret" validate:"required,min=16"`
	TokenTTL  int    `yaml:"token_ttl_hours" validate:"gt=0"`

	GeocodingProvider string `yaml:"geocoding_provider" validate:"oneof=nominatim google"`
	RoutingProvider   string `yaml:"routing_provider" validate:"oneof=osrm google"`
	NominatimURL      string `yaml:"nominatim_url" validate:"omitempty,url"`
	OSRMURL           string `yaml:"osrm_url" validate:"omitempty,url"`
	GoogleMapsAPIKey  string `yaml:"google_maps_api_key"`
	UserAgent         string `yaml:"user_agent" validate:"required"`
	ProviderTimeout   int    `yaml:"provider_timeout_seconds" validate:"gt=0"`

	SuggestCacheSize int `yaml:"suggest_cache_size" validate:"gt=0"`
	SuggestRateLimit int `yaml:"suggest_rate_limit" validate:"gte=0"`
	SuggestDebounce  int `yaml:"suggest_debounce_ms" validate:"gte=0"`

	PageTTL int `yaml:"page_ttl_minutes" validate:"gt=0"`

	RedisAddr string `yaml:"redis_addr" validate:"omitempty,hostname_port"`
	NtfyURL   string `yaml:"ntfy_url" validate:"omitempty,url"`
	NtfyTopic string `yaml:"ntfy_topic"`
}

func defaults() Config {
	return Config{
		Port:              ":8080",
		DBPath:            "./data/wayfinders.db",
		JWTSecret:         placeholderSecret,
		TokenTTL:          24,
		GeocodingProvider: "nominatim",
		RoutingProvider:   "osrm",
		UserAgent:         "WayFindersHub/1.0",
		ProviderTimeout:   15,
		SuggestCacheSize:  512,
		SuggestRateLimit:  60,
		SuggestDebounce:   300,
		PageTTL:           120,
	}
}

// Load reads and validates the configuration
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("WAYFINDER_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	envPath := os.Getenv("WAYFINDER_ENV_FILE")
	if envPath == "" {
		envPath = ".env"
	}
	fileEnv, err := godotenv.Read(envPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read %s: %w", envPath, err)
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v, true
		}
		v, ok := fileEnv[key]
		return v, ok && v != ""
	}
	if err := applyEnv(&cfg, lookup); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and provider requirements
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if (c.GeocodingProvider == "google" || c.RoutingProvider == "google") && c.GoogleMapsAPIKey == "" {
		return errors.New("invalid configuration: GOOGLE_MAPS_API_KEY is required for the google provider")
	}
	return nil
}

// CheckServe reports whether the configuration is fit for running the API
func (c *Config) CheckServe() error {
	if c.JWTSecret == placeholderSecret {
		return ErrPlaceholderSecret
	}
	return nil
}

// ProviderTimeoutDuration returns the HTTP timeout for geocoding and routing calls
func (c *Config) ProviderTimeoutDuration() time.Duration {
	return time.Duration(c.ProviderTimeout) * time.Second
}

func (c *Config) TokenTTLDuration() time.Duration {
	return time.Duration(c.TokenTTL) * time.Hour
}

func (c *Config) SuggestDebounceDuration() time.Duration {
	return time.Duration(c.SuggestDebounce) * time.Millisecond
}

func (c *Config) PageTTLDuration() time.Duration {
	return time.Duration(c.PageTTL) * time.Minute
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"PORT":                &cfg.Port,
		"DB_PATH":             &cfg.DBPath,
		"JWT_SECRET":          &cfg.JWTSecret,
		"GEOCODING_PROVIDER":  &cfg.GeocodingProvider,
		"ROUTING_PROVIDER":    &cfg.RoutingProvider,
		"NOMINATIM_URL":       &cfg.NominatimURL,
		"OSRM_URL":            &cfg.OSRMURL,
		"GOOGLE_MAPS_API_KEY": &cfg.GoogleMapsAPIKey,
		"USER_AGENT":          &cfg.UserAgent,
		"REDIS_ADDR":          &cfg.RedisAddr,
		"NTFY_URL":            &cfg.NtfyURL,
		"NTFY_TOPIC":          &cfg.NtfyTopic,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"TOKEN_TTL_HOURS":          &cfg.TokenTTL,
		"PROVIDER_TIMEOUT_SECONDS": &cfg.ProviderTimeout,
		"SUGGEST_CACHE_SIZE":       &cfg.SuggestCacheSize,
		"SUGGEST_RATE_LIMIT":       &cfg.SuggestRateLimit,
		"SUGGEST_DEBOUNCE_MS":      &cfg.SuggestDebounce,
		"PAGE_TTL_MINUTES":         &cfg.PageTTL,
	}
	for key, dst := range ints {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, v, err)
		}
		*dst = n
	}
	return nil
}
