// Package config loads application configuration from the environment.
package config

import (
	"fmt"
	"os"
	"time"

	"payscan/internal/logger"
	"payscan/internal/ocr"
)

// Recognizer backend selectors for OCRBackend.
const (
	BackendVision     = "vision"
	BackendDocumentAI = "documentai"
)

type Config struct {
	// OCR Configuration
	OCRBackend  string // vision or documentai
	OCRLanguage string // language hint passed to the recognizer
	OCRTimeout  time.Duration

	// Google Cloud Configuration (Document AI backend)
	GoogleCloudProject         string
	GoogleCloudLocation        string
	DocumentAIProcessorID      string
	DocumentAIProcessorVersion string

	// HTTP Configuration
	HTTPAddr string

	// Result delivery: optional webhook receiving extracted records
	ResultWebhookURL string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	timeout, err := time.ParseDuration(getEnv("OCR_TIMEOUT", "60s"))
	if err != nil {
		return nil, fmt.Errorf("invalid OCR_TIMEOUT: %w", err)
	}

	config := &Config{
		OCRBackend:                 getEnv("OCR_BACKEND", BackendVision),
		OCRLanguage:                getEnv("OCR_LANGUAGE", "en"),
		OCRTimeout:                 timeout,
		GoogleCloudProject:         getEnv("GOOGLE_CLOUD_PROJECT", ""),
		GoogleCloudLocation:        getEnv("GOOGLE_CLOUD_LOCATION", "us"),
		DocumentAIProcessorID:      getEnv("DOCUMENT_AI_PROCESSOR_ID", ""),
		DocumentAIProcessorVersion: getEnv("DOCUMENT_AI_PROCESSOR_VERSION", ""),
		HTTPAddr:                   getEnv("HTTP_ADDR", ":8080"),
		ResultWebhookURL:           getEnv("RESULT_WEBHOOK_URL", ""),
		LogLevel:                   getEnv("LOG_LEVEL", "info"),
		LogFormat:                  getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:              getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:                  getEnv("LOG_OUTPUT", "stderr"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.OCRBackend {
	case BackendVision:
	case BackendDocumentAI:
		if c.GoogleCloudProject == "" {
			return fmt.Errorf("GOOGLE_CLOUD_PROJECT is required for the documentai backend")
		}
		if c.DocumentAIProcessorID == "" {
			return fmt.Errorf("DOCUMENT_AI_PROCESSOR_ID is required for the documentai backend")
		}
	default:
		return fmt.Errorf("OCR_BACKEND must be %q or %q, got %q", BackendVision, BackendDocumentAI, c.OCRBackend)
	}
	return nil
}

// DocumentAIConfig returns the Document AI backend configuration.
func (c *Config) DocumentAIConfig() ocr.DocumentAIConfig {
	return ocr.DocumentAIConfig{
		ProjectID:        c.GoogleCloudProject,
		Location:         c.GoogleCloudLocation,
		ProcessorID:      c.DocumentAIProcessorID,
		ProcessorVersion: c.DocumentAIProcessorVersion,
		Timeout:          c.OCRTimeout,
	}
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
