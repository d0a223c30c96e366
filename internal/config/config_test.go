package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OCR_BACKEND", "")
	t.Setenv("OCR_TIMEOUT", "")
	t.Setenv("OCR_LANGUAGE", "")
	t.Setenv("HTTP_ADDR", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendVision, cfg.OCRBackend)
	assert.Equal(t, "en", cfg.OCRLanguage)
	assert.Equal(t, 60*time.Second, cfg.OCRTimeout)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
}

func TestLoadDocumentAIBackendRequiresProcessor(t *testing.T) {
	t.Setenv("OCR_BACKEND", BackendDocumentAI)
	t.Setenv("GOOGLE_CLOUD_PROJECT", "test-project")
	t.Setenv("DOCUMENT_AI_PROCESSOR_ID", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DOCUMENT_AI_PROCESSOR_ID")
}

func TestLoadDocumentAIBackend(t *testing.T) {
	t.Setenv("OCR_BACKEND", BackendDocumentAI)
	t.Setenv("GOOGLE_CLOUD_PROJECT", "test-project")
	t.Setenv("GOOGLE_CLOUD_LOCATION", "eu")
	t.Setenv("DOCUMENT_AI_PROCESSOR_ID", "proc-123")

	cfg, err := Load()
	require.NoError(t, err)

	dai := cfg.DocumentAIConfig()
	assert.Equal(t, "test-project", dai.ProjectID)
	assert.Equal(t, "eu", dai.Location)
	assert.Equal(t, "proc-123", dai.ProcessorID)
	assert.Equal(t, cfg.OCRTimeout, dai.Timeout)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("OCR_BACKEND", "tesseract")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OCR_BACKEND")
}

func TestLoadRejectsBadTimeout(t *testing.T) {
	t.Setenv("OCR_TIMEOUT", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OCR_TIMEOUT")
}
