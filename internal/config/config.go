// Package config provides configuration loading for the semantic index
// engine.
//
// Configuration is loaded from environment variables with sensible
// defaults, optionally seeded from a YAML file.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the complete engine configuration.
type Config struct {
	Storage    StorageConfig    `koanf:"storage"`
	Embeddings EmbeddingsConfig `koanf:"embeddings"`
	Augment    AugmentConfig    `koanf:"augment"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// StorageConfig holds snapshot storage configuration.
type StorageConfig struct {
	// Path is the directory for the index snapshot files.
	Path string `koanf:"path"`

	// VectorSize is the embedding dimension.
	VectorSize int `koanf:"vector_size"`
}

// EmbeddingsConfig holds embedding provider configuration.
type EmbeddingsConfig struct {
	// Provider is "fastembed" (local ONNX) or "tei" (HTTP).
	Provider string `koanf:"provider"`

	// Model is the embedding model name.
	Model string `koanf:"model"`

	// BaseURL is the TEI endpoint (only used for the tei provider).
	BaseURL string `koanf:"base_url"`

	// CacheDir caches model files (only used for fastembed).
	CacheDir string `koanf:"cache_dir"`
}

// AugmentConfig holds default prompt-augmentation parameters.
type AugmentConfig struct {
	MaxContextLength    int     `koanf:"max_context_length"`
	SimilarityThreshold float64 `koanf:"similarity_threshold"`
	MaxContexts         int     `koanf:"max_contexts"`
}

// LoggingConfig holds logger configuration.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is "json" or "console".
	Format string `koanf:"format"`
}

// Load loads configuration from environment variables with defaults.
//
// Environment variables:
//   - STORAGE_PATH: snapshot directory (default: ./embeddings)
//   - STORAGE_VECTOR_SIZE: embedding dimension (default: 384)
//   - EMBEDDINGS_PROVIDER: fastembed or tei (default: fastembed)
//   - EMBEDDINGS_MODEL: model name (default: sentence-transformers/all-MiniLM-L6-v2)
//   - EMBEDDINGS_BASE_URL: TEI endpoint (default: http://localhost:8080)
//   - EMBEDDINGS_CACHE_DIR: model cache directory
//   - AUGMENT_MAX_CONTEXT_LENGTH: context character budget (default: 1500)
//   - AUGMENT_SIMILARITY_THRESHOLD: max relevant distance (default: 5.0)
//   - AUGMENT_MAX_CONTEXTS: max context documents (default: 3)
//   - LOGGING_LEVEL: log level (default: info)
//   - LOGGING_FORMAT: json or console (default: json)
func Load() *Config {
	cfg := &Config{
		Storage: StorageConfig{
			Path:       getEnvString("STORAGE_PATH", "./embeddings"),
			VectorSize: getEnvInt("STORAGE_VECTOR_SIZE", 384),
		},
		Embeddings: EmbeddingsConfig{
			Provider: getEnvString("EMBEDDINGS_PROVIDER", "fastembed"),
			Model:    getEnvString("EMBEDDINGS_MODEL", "sentence-transformers/all-MiniLM-L6-v2"),
			BaseURL:  getEnvString("EMBEDDINGS_BASE_URL", "http://localhost:8080"),
			CacheDir: getEnvString("EMBEDDINGS_CACHE_DIR", ""),
		},
		Augment: AugmentConfig{
			MaxContextLength:    getEnvInt("AUGMENT_MAX_CONTEXT_LENGTH", 1500),
			SimilarityThreshold: getEnvFloat("AUGMENT_SIMILARITY_THRESHOLD", 5.0),
			MaxContexts:         getEnvInt("AUGMENT_MAX_CONTEXTS", 3),
		},
		Logging: LoggingConfig{
			Level:  getEnvString("LOGGING_LEVEL", "info"),
			Format: getEnvString("LOGGING_FORMAT", "json"),
		},
	}
	return cfg
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Storage.VectorSize <= 0 {
		return fmt.Errorf("vector size must be positive, got %d", c.Storage.VectorSize)
	}
	if c.Embeddings.Provider != "fastembed" && c.Embeddings.Provider != "tei" {
		return fmt.Errorf("unknown embeddings provider %q (want fastembed or tei)", c.Embeddings.Provider)
	}
	if c.Embeddings.Provider == "tei" && c.Embeddings.BaseURL == "" {
		return fmt.Errorf("base URL required for tei provider")
	}
	if c.Augment.MaxContextLength < 0 {
		return fmt.Errorf("max context length must not be negative")
	}
	if c.Augment.MaxContexts < 0 {
		return fmt.Errorf("max contexts must not be negative")
	}
	return nil
}

// Helper functions for environment variable parsing

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
