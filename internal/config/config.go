// Package config reads service settings from the environment.
package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port            int
	LogLevel        string
	DatabaseURL     string
	NatsURL         string
	NatsToken       string
	AnthropicAPIKey string
	AnthropicModel  string
	ValidatorURL    string
	InsightURL      string
	InsightPageURL  string
	RemoteTimeout   time.Duration
	APIToken        string
}

func Load() Config {
	return Config{
		Port:            envInt("AGRIFORM_PORT", 8760),
		LogLevel:        envStr("LOG_LEVEL", "info"),
		DatabaseURL:     envStr("DATABASE_URL", ""),
		NatsURL:         envStr("NATS_URL", ""),
		NatsToken:       envStr("NATS_TOKEN", ""),
		AnthropicAPIKey: envStr("ANTHROPIC_API_KEY", ""),
		AnthropicModel:  envStr("AGRIFORM_MODEL", "claude-3-5-haiku-latest"),
		ValidatorURL:    envStr("AGRIFORM_VALIDATOR_URL", ""),
		InsightURL:      envStr("AGRIFORM_INSIGHT_URL", ""),
		InsightPageURL:  envStr("AGRIFORM_INSIGHT_PAGE_URL", ""),
		RemoteTimeout:   envDuration("AGRIFORM_REMOTE_TIMEOUT", 15*time.Second),
		APIToken:        envStr("AGRIFORM_API_TOKEN", ""),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
