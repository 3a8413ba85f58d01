package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string // development, production

	// Storage
	DataFile      string
	AttachmentDir string

	// Intake
	MaxUploadSizeMB int

	// Dispatch
	BoardEmails []string

	// Admin API
	AdminTokenHash string

	// SMTP
	SMTPHost        string
	SMTPPort        int
	SMTPUser        string
	SMTPPass        string
	SMTPFromAddress string
	SMTPFromName    string
}

func Load() (*Config, error) {
	// Load .env file if it exists (don't error if missing)
	_ = godotenv.Load()

	cfg := &Config{}

	// Define flags with env var fallbacks
	flag.StringVar(&cfg.Port, "port", getEnv("PORT", "8080"), "Server port")
	flag.StringVar(&cfg.Env, "env", getEnv("ENV", "development"), "Environment (development, production)")
	flag.StringVar(&cfg.DataFile, "data-file", getEnv("DATA_FILE", "data.json"), "Path of the draft store document")
	flag.StringVar(&cfg.AttachmentDir, "attachment-dir", getEnv("ATTACHMENT_DIR", "attachments"), "Directory for uploaded receipts")

	cfg.AdminTokenHash = getEnv("ADMIN_TOKEN_HASH", "")
	cfg.SMTPHost = getEnv("SMTP_HOST", "")
	cfg.SMTPUser = getEnv("SMTP_USER", "")
	cfg.SMTPPass = getEnv("SMTP_PASS", "")
	cfg.SMTPFromAddress = getEnv("SMTP_FROM_ADDRESS", "")
	cfg.SMTPFromName = getEnv("SMTP_FROM_NAME", "Declabot")

	cfg.SMTPPort, _ = strconv.Atoi(getEnv("SMTP_PORT", "587"))
	cfg.MaxUploadSizeMB, _ = strconv.Atoi(getEnv("MAX_UPLOAD_SIZE_MB", "16"))

	// Comma-separated board recipient list
	if emails := getEnv("BOARD_EMAILS", ""); emails != "" {
		for _, email := range strings.Split(emails, ",") {
			if trimmed := strings.TrimSpace(email); trimmed != "" {
				cfg.BoardEmails = append(cfg.BoardEmails, trimmed)
			}
		}
	}

	flag.Parse()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DataFile == "" {
		return fmt.Errorf("DATA_FILE is required")
	}
	if c.AttachmentDir == "" {
		return fmt.Errorf("ATTACHMENT_DIR is required")
	}
	if c.AdminTokenHash == "" {
		return fmt.Errorf("ADMIN_TOKEN_HASH is required")
	}
	if c.MaxUploadSizeMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE_MB must be positive")
	}
	if c.SMTPHost != "" && c.SMTPFromAddress == "" {
		return fmt.Errorf("SMTP_FROM_ADDRESS is required when SMTP_HOST is set")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
