// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"complaintdraft-backend/storage"

	"github.com/joho/godotenv"
)

// Config holds the server configuration
type Config struct {
	Port        string
	LogLevel    string
	DatabaseURL string // Empty disables the draft archive

	SchemaStorage storage.StorageConfig
	DraftStorage  storage.StorageConfig

	LLM LLMConfig

	// Offense keys loaded and validated at startup
	PreloadOffenses []string
}

// LLMConfig holds text-generation settings
type LLMConfig struct {
	APIKey      string
	Model       string
	MaxAttempts int
	Timeout     time.Duration
}

// LoadDotEnv loads a .env file from the current directory or the project root
// (relative to cmd/<tool>/). It reports whether a file was found.
func LoadDotEnv() bool {
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../../.env"); err != nil {
			return false
		}
	}
	return true
}

// Load builds a Config from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getenv("PORT", "8080"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		LLM: LLMConfig{
			APIKey: os.Getenv("GEMINI_API_KEY"),
			Model:  getenv("GEMINI_MODEL", "gemini-2.5-flash"),
		},
		PreloadOffenses: splitList(getenv("PRELOAD_OFFENSES", "fraud,insult")),
	}

	var err error
	if cfg.LLM.MaxAttempts, err = strconv.Atoi(getenv("LLM_MAX_ATTEMPTS", "1")); err != nil || cfg.LLM.MaxAttempts < 1 {
		return nil, fmt.Errorf("invalid LLM_MAX_ATTEMPTS: %q", os.Getenv("LLM_MAX_ATTEMPTS"))
	}
	if cfg.LLM.Timeout, err = time.ParseDuration(getenv("LLM_TIMEOUT", "60s")); err != nil {
		return nil, fmt.Errorf("invalid LLM_TIMEOUT: %w", err)
	}

	cfg.SchemaStorage, err = storageFromEnv("SCHEMA_", "./data")
	if err != nil {
		return nil, err
	}
	cfg.DraftStorage, err = storageFromEnv("", "./storage/files")
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// storageFromEnv reads <prefix>STORAGE_TYPE and the matching backend settings.
// Draft storage uses the bare variable names; the schema source is prefixed with SCHEMA_.
func storageFromEnv(prefix, defaultLocalPath string) (storage.StorageConfig, error) {
	cfg := storage.StorageConfig{
		Type: storage.StorageType(getenv(prefix+"STORAGE_TYPE", string(storage.StorageTypeLocal))),
	}

	switch cfg.Type {
	case storage.StorageTypeLocal:
		cfg.LocalPath = getenv(prefix+"STORAGE_LOCAL_PATH", defaultLocalPath)
	case storage.StorageTypeS3:
		bucketVar := "AWS_S3_BUCKET"
		if prefix != "" {
			bucketVar = prefix + "S3_BUCKET"
		}
		cfg.S3Bucket = os.Getenv(bucketVar)
		cfg.S3Prefix = os.Getenv(prefix + "S3_PREFIX")
		cfg.S3Region = getenv("AWS_REGION", "us-east-1")
		cfg.AWSAccessKey = os.Getenv("AWS_ACCESS_KEY_ID")
		cfg.AWSSecretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
		if cfg.S3Bucket == "" {
			return cfg, fmt.Errorf("%s environment variable is required for S3 storage", bucketVar)
		}
	default:
		return cfg, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
