package config

import (
	"os"
	"strconv"
)

// Config holds all runtime settings, read once at startup.
type Config struct {
	Port     string
	ModelDir string

	// Remote classification service (HuggingFace-style inference API)
	RemoteURL       string
	RemoteToken     string
	RemoteTimeoutMS int
	RemoteRetries   int

	// Optional Redis cache for remote raw scores. Empty disables it.
	RedisAddr string

	// FallbackEnabled controls the deterministic offline fallback. When
	// false and no backend is configured, /api/predict returns 503.
	FallbackEnabled bool
}

// Load reads configuration from the environment with defaults.
func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "5001"),
		ModelDir:        getEnv("MODEL_DIR", "./saved_model"),
		RemoteURL:       getEnv("REMOTE_API_URL", "https://api-inference.huggingface.co/models/nickmuchi/vit-finetuned-chest-xray-pneumonia"),
		RemoteToken:     os.Getenv("REMOTE_API_TOKEN"),
		RemoteTimeoutMS: getEnvInt("REMOTE_TIMEOUT_MS", 30000),
		RemoteRetries:   getEnvInt("REMOTE_MAX_RETRIES", 3),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		FallbackEnabled: getEnv("FALLBACK", "enabled") != "disabled",
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}
