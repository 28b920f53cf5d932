package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the relay.
type Config struct {
	Port         string
	Env          string
	ClientOrigin string // allowed cross-origin client URL

	// History backend selection: RedisURL wins over SQLitePath, which wins
	// over the flat-file default.
	HistoryFile string
	SQLitePath  string
	RedisURL    string
}

// Load reads configuration from environment variables. In development, it
// loads from a .env file if present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:         getEnv("PORT", "8080"),
		Env:          getEnv("ENV", "development"),
		ClientOrigin: getEnv("CLIENT_ORIGIN", "http://localhost:3000"),
		HistoryFile:  getEnv("HISTORY_FILE", "messages.json"),
		SQLitePath:   os.Getenv("SQLITE_PATH"),
		RedisURL:     os.Getenv("REDIS_URL"),
	}
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
