package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port         int
	NatsURL      string
	NatsToken    string
	DatabaseURL  string
	RedisURL     string
	LogLevel     string
	OpenAIAPIKey string
	OpenAIModel  string
	APIToken     string
	BasePrompt   string
	SampleLimit  int
}

func Load() Config {
	return Config{
		Port:         envInt("INSIGHT_PORT", 8620),
		NatsURL:      envStr("NATS_URL", "nats://localhost:4222"),
		NatsToken:    envStr("NATS_TOKEN", ""),
		DatabaseURL:  envStr("DATABASE_URL", ""),
		RedisURL:     envStr("REDIS_URL", ""),
		LogLevel:     envStr("LOG_LEVEL", "info"),
		OpenAIAPIKey: envStr("OPENAI_API_KEY", ""),
		OpenAIModel:  envStr("INSIGHT_MODEL", "gpt-4o-mini"),
		APIToken:     envStr("INSIGHT_API_TOKEN", ""),
		BasePrompt:   envStr("INSIGHT_BASE_PROMPT", ""),
		SampleLimit:  envInt("INSIGHT_FEEDBACK_SAMPLE", 10),
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
