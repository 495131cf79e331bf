package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config returns the value of an environment variable, loading .env first so
// local development works without exporting anything.
func Config(key string) string {
	err := godotenv.Load(".env")
	if err != nil {
		log.Println("Warning: .env file not found, reading from system environment variables")
	}

	return os.Getenv(key)
}

// ConfigDefault behaves like Config but falls back to def when unset.
func ConfigDefault(key, def string) string {
	if val := Config(key); val != "" {
		return val
	}
	return def
}

// Int parses an integer variable, falling back to def on absence or garbage.
func Int(key string, def int) int {
	val := Config(key)
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using default %d", key, val, def)
		return def
	}
	return parsed
}

// Duration parses a duration variable. Values below min are clamped so a typo
// cannot turn a polling loop into a busy loop.
func Duration(key string, def, min time.Duration) time.Duration {
	val := Config(key)
	if val == "" {
		return def
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using default %s", key, val, def)
		return def
	}
	if parsed < min {
		return min
	}
	return parsed
}
