package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Port            string
	GoogleTTSAPIKey string
	StaticRoot      string
	// SpeakOrigin is where local clients send their speech requests
	SpeakOrigin string
	ESpeakBin   string

	LogLevel string
	LogFile  string

	BotToken    string
	BotPassword string

	Database   DatabaseConfig
	SQLitePath string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not exists)
	_ = godotenv.Load()

	port := getEnv("PORT", "3000")

	cfg := &Config{
		Port:            port,
		GoogleTTSAPIKey: os.Getenv("GOOGLE_TTS_API_KEY"),
		StaticRoot:      getEnv("STATIC_ROOT", "./web"),
		SpeakOrigin:     getEnv("SPEAK_ORIGIN", "http://localhost:"+port),
		ESpeakBin:       getEnv("ESPEAK_BIN", "espeak-ng"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFile:         os.Getenv("LOG_FILE"),
		BotToken:        os.Getenv("BOT_TOKEN"),
		BotPassword:     os.Getenv("BOT_PASSWORD"),
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "pinyinmatch"),
			User:     getEnv("DB_USER", "pinyinmatch"),
			Password: os.Getenv("DB_PASSWORD"),
		},
		SQLitePath: getEnv("SQLITE_PATH", "./pinyinmatch.db"),
	}

	// Validate fields
	if n, err := strconv.Atoi(cfg.Port); err != nil || n < 1 || n > 65535 {
		return nil, fmt.Errorf("PORT must be a number between 1 and 65535, got %q", cfg.Port)
	}
	if cfg.BotToken != "" && cfg.BotPassword == "" {
		return nil, fmt.Errorf("BOT_PASSWORD is required when BOT_TOKEN is set")
	}

	return cfg, nil
}

// DSN returns PostgreSQL connection string
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
	)
}

// Addr returns the HTTP listen address
func (c *Config) Addr() string {
	return ":" + c.Port
}

// RemoteSpeechEnabled reports whether the cloud speech credential is configured
func (c *Config) RemoteSpeechEnabled() bool {
	return c.GoogleTTSAPIKey != ""
}

// BotEnabled reports whether the Telegram front-end should run
func (c *Config) BotEnabled() bool {
	return c.BotToken != ""
}

// UsePostgres reports whether state lives in PostgreSQL rather than SQLite
func (c *Config) UsePostgres() bool {
	return c.Database.Password != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
