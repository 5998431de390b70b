package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"

	"github.com/lumichat/lumichat/internal/cache"
	"github.com/lumichat/lumichat/internal/provider"
)

// Config aggregates every runtime setting of the service.
type Config struct {
	Server   ServerConfig
	Provider ProviderConfig
	Cache    CacheConfig
	Store    StoreConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	providerCfg, err := loadProviderConfig()
	if err != nil {
		return nil, err
	}

	cacheCfg, err := loadCacheConfig()
	if err != nil {
		return nil, err
	}

	storeCfg, err := loadStoreConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:   server,
		Provider: providerCfg,
		Cache:    cacheCfg,
		Store:    storeCfg,
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Allow ":8080" or "127.0.0.1:8080" directly.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// ProviderConfig describes the inference backend. Exactly one backend kind
// is selected at startup; there is no per-request switching.
type ProviderConfig struct {
	Kind        string
	BaseURL     string
	Model       string
	APIKey      string
	Temperature *float64
	MaxTokens   *int
	Timeout     time.Duration
}

// Enabled reports whether a backend is configured at all. When false the
// service still runs, but every chat request fails with a configuration
// error until it is fixed.
func (c ProviderConfig) Enabled() bool {
	return c.Kind != "" && c.Model != ""
}

// NewChatModel resolves the configuration into the concrete backend.
func (c ProviderConfig) NewChatModel() (model.BaseChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("no inference backend configured: set PROVIDER_KIND and PROVIDER_MODEL")
	}

	cfg := provider.Config{
		Kind:    c.Kind,
		BaseURL: c.BaseURL,
		Model:   c.Model,
		APIKey:  c.APIKey,
		Timeout: c.Timeout,
	}
	if c.Temperature != nil {
		cfg.Temperature = float32(*c.Temperature)
	}
	if c.MaxTokens != nil {
		cfg.MaxTokens = *c.MaxTokens
	}
	return provider.New(cfg)
}

func loadProviderConfig() (ProviderConfig, error) {
	temperature, err := parseOptionalFloatEnv("PROVIDER_TEMPERATURE")
	if err != nil {
		return ProviderConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("PROVIDER_MAX_TOKENS")
	if err != nil {
		return ProviderConfig{}, err
	}

	timeoutSeconds, err := parseOptionalIntEnv("PROVIDER_TIMEOUT_SECONDS")
	if err != nil {
		return ProviderConfig{}, err
	}
	timeout := provider.DefaultTimeout
	if timeoutSeconds != nil {
		timeout = time.Duration(*timeoutSeconds) * time.Second
	}

	kind := strings.TrimSpace(os.Getenv("PROVIDER_KIND"))

	baseURL := strings.TrimSpace(os.Getenv("PROVIDER_BASE_URL"))
	if baseURL == "" {
		switch kind {
		case provider.KindSelfHosted:
			baseURL = "http://localhost:11434"
		case provider.KindHosted:
			baseURL = "https://openrouter.ai/api/v1"
		}
	}

	return ProviderConfig{
		Kind:        kind,
		BaseURL:     baseURL,
		Model:       strings.TrimSpace(os.Getenv("PROVIDER_MODEL")),
		APIKey:      strings.TrimSpace(os.Getenv("PROVIDER_API_KEY")),
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Timeout:     timeout,
	}, nil
}

// CacheConfig describes the ephemeral session cache.
type CacheConfig struct {
	Dir           string
	MaxAge        time.Duration
	SweepInterval time.Duration
}

func loadCacheConfig() (CacheConfig, error) {
	maxAgeHours, err := parseOptionalIntEnv("CACHE_MAX_AGE_HOURS")
	if err != nil {
		return CacheConfig{}, err
	}
	maxAge := cache.DefaultMaxAge
	if maxAgeHours != nil {
		if *maxAgeHours < 1 {
			return CacheConfig{}, fmt.Errorf("CACHE_MAX_AGE_HOURS must be at least 1, got %d", *maxAgeHours)
		}
		maxAge = time.Duration(*maxAgeHours) * time.Hour
	}

	sweepMinutes, err := parseOptionalIntEnv("CACHE_SWEEP_INTERVAL_MINUTES")
	if err != nil {
		return CacheConfig{}, err
	}
	sweepInterval := cache.DefaultSweepInterval
	if sweepMinutes != nil {
		if *sweepMinutes < 1 {
			return CacheConfig{}, fmt.Errorf("CACHE_SWEEP_INTERVAL_MINUTES must be at least 1, got %d", *sweepMinutes)
		}
		sweepInterval = time.Duration(*sweepMinutes) * time.Minute
	}

	return CacheConfig{
		Dir:           getEnvOrDefault("CACHE_DIR", "data/sessions"),
		MaxAge:        maxAge,
		SweepInterval: sweepInterval,
	}, nil
}

// StoreConfig selects the durable exchange store backend.
type StoreConfig struct {
	Backend     string
	DatabaseURL string
}

const (
	StoreBackendMemory   = "memory"
	StoreBackendPostgres = "postgres"
)

func loadStoreConfig() (StoreConfig, error) {
	backend := getEnvOrDefault("STORE_BACKEND", StoreBackendMemory)
	dsn := strings.TrimSpace(os.Getenv("DATABASE_URL"))

	switch backend {
	case StoreBackendMemory:
	case StoreBackendPostgres:
		if dsn == "" {
			return StoreConfig{}, fmt.Errorf("DATABASE_URL must be set when STORE_BACKEND=postgres")
		}
	default:
		return StoreConfig{}, fmt.Errorf("invalid STORE_BACKEND value %q, want %q or %q",
			backend, StoreBackendMemory, StoreBackendPostgres)
	}

	return StoreConfig{Backend: backend, DatabaseURL: dsn}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
