package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port              string
	BindAddress       string
	DataDir           string
	GeminiAPIKey      string
	GeminiModel       string
	ChallengeDuration int
	LogLevel          string
}

func Load() *Config {
	return &Config{
		Port:              getEnv("PORT", "8080"),
		BindAddress:       getEnv("BIND_ADDRESS", "localhost"),
		DataDir:           getEnv("DATA_DIR", "data"),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		ChallengeDuration: getEnvInt("CHALLENGE_DURATION", 300),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}
