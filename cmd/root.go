package cmd

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Config holds CLI configuration.
type Config struct {
	DBPath        string
	RedisAddr     string
	GeminiAPIKey  string
	PlacesAPIKey  string
	LogPath       string
}

// ParseFlags parses command-line flags and returns configuration. Env vars
// fill anything not given as a flag; .env files are loaded first so local
// setups work without exporting keys.
func ParseFlags() (*Config, error) {
	// Missing .env files are fine.
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	config := &Config{}
	flag.StringVar(&config.DBPath, "db", "", "Path to SQLite database file (default: ~/.wayfarer/wayfarer.db)")
	flag.StringVar(&config.RedisAddr, "redis", "", "Redis address to use instead of SQLite (or set WAYFARER_REDIS_URL)")
	flag.StringVar(&config.GeminiAPIKey, "gemini-key", "", "Gemini API key (or set GEMINI_API_KEY)")
	flag.StringVar(&config.PlacesAPIKey, "places-key", "", "Google Places API key (or set GOOGLE_PLACES_API_KEY)")
	flag.Parse()

	if config.GeminiAPIKey == "" {
		config.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if config.PlacesAPIKey == "" {
		config.PlacesAPIKey = os.Getenv("GOOGLE_PLACES_API_KEY")
	}
	if config.RedisAddr == "" {
		config.RedisAddr = os.Getenv("WAYFARER_REDIS_URL")
	}

	var configDir string
	if config.DBPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}

		configDir = filepath.Join(home, ".wayfarer")
		if err := os.MkdirAll(configDir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}

		config.DBPath = filepath.Join(configDir, "wayfarer.db")
	} else {
		configDir = filepath.Dir(config.DBPath)
	}
	config.LogPath = filepath.Join(configDir, "wayfarer.log")

	return config, nil
}
