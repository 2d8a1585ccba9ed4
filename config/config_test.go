package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
base_url: https://sheets.example.com/
timezone: UTC
request_timeout: 5s
headers:
  X-Api-Key: secret
messages:
  submit_success: Saved
`))
	require.NoError(t, err)

	assert.Equal(t, "https://sheets.example.com", cfg.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, time.UTC, cfg.Location())
	assert.Equal(t, "secret", cfg.Headers["X-Api-Key"])
	assert.Equal(t, "Saved", cfg.Messages.SubmitSuccess)
	assert.Equal(t, DefaultCorrectErrorsMessage, cfg.Messages.CorrectErrors)
	assert.Equal(t, DefaultNoRecordMessage, cfg.Messages.NoRecord)
	assert.Equal(t, DefaultFeature, cfg.Feature)
	assert.Equal(t, DefaultIndexSeparator, cfg.IndexSeparator)
	assert.Equal(t, DefaultDateLayout, cfg.DateLayout)
}

func TestParseRejectsInvalidSettings(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "timezone", doc: "timezone: Mars/Olympus"},
		{name: "base url scheme", doc: "base_url: ftp://example.com"},
		{name: "negative timeout", doc: "request_timeout: -1s"},
		{name: "malformed", doc: "headers: ["},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "formflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte("feature: intake\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "intake", cfg.Feature)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, time.Local, cfg.Location())
}
