package config

import (
	"os"

	_ "github.com/joho/godotenv/autoload"
)

// Config holds the application configuration. Database settings are read
// by the database service itself (DB_HOST, DB_PORT, DB_USER, DB_PASSWORD,
// DB_NAME, DB_SSLMODE).
type Config struct {
	Port      string
	JWTSecret string
}

// Load reads configuration from environment variables; a local .env is
// picked up automatically.
func Load() *Config {
	return &Config{
		Port:      getEnv("PORT", "8080"),
		JWTSecret: getEnv("JWT_SECRET", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
