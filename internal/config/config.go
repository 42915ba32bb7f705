package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	AppEnv              string
	Port                string
	DatabaseURL         string
	RedisURL            string
	UpstreamBaseURL     string
	UpstreamBearerToken string
	UpstreamTimeout     time.Duration
	OpenAIAPIKey        string
	OpenAIModel         string
	OpenAIBaseURL       string
	CacheWindow         time.Duration
	EnrichBatchSize     int
	FetchMaxPosts       int
	LogLevel            string
	LogFormat           string
}

func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:              getEnv("APP_ENV", "development"),
		Port:                getEnv("PORT", "8080"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		RedisURL:            getEnv("REDIS_URL", ""),
		UpstreamBaseURL:     getEnv("UPSTREAM_BASE_URL", ""),
		UpstreamBearerToken: getEnv("UPSTREAM_BEARER_TOKEN", ""),
		OpenAIAPIKey:        getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:         getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:       getEnv("OPENAI_BASE_URL", ""),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "text"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}
	if cfg.UpstreamBaseURL == "" {
		return nil, fmt.Errorf("UPSTREAM_BASE_URL is required")
	}
	if cfg.UpstreamBearerToken == "" {
		return nil, fmt.Errorf("UPSTREAM_BEARER_TOKEN is required")
	}
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}

	upstreamTimeout, err := getEnvInt("UPSTREAM_TIMEOUT_SECONDS", 10)
	if err != nil {
		return nil, err
	}
	if upstreamTimeout <= 0 {
		return nil, fmt.Errorf("UPSTREAM_TIMEOUT_SECONDS must be positive")
	}
	cfg.UpstreamTimeout = time.Duration(upstreamTimeout) * time.Second

	cacheHours, err := getEnvInt("CACHE_WINDOW_HOURS", 10)
	if err != nil {
		return nil, err
	}
	if cacheHours <= 0 {
		return nil, fmt.Errorf("CACHE_WINDOW_HOURS must be positive")
	}
	cfg.CacheWindow = time.Duration(cacheHours) * time.Hour

	cfg.EnrichBatchSize, err = getEnvInt("ENRICH_BATCH_SIZE", 50)
	if err != nil {
		return nil, err
	}
	if cfg.EnrichBatchSize <= 0 {
		return nil, fmt.Errorf("ENRICH_BATCH_SIZE must be positive")
	}

	cfg.FetchMaxPosts, err = getEnvInt("FETCH_MAX_POSTS", 15)
	if err != nil {
		return nil, err
	}
	// Upstream API caps a single search call at 100 results.
	if cfg.FetchMaxPosts <= 0 || cfg.FetchMaxPosts > 100 {
		return nil, fmt.Errorf("FETCH_MAX_POSTS must be between 1 and 100")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
