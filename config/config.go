// Package config loads the form engine configuration.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"gopkg.in/yaml.v3"
)

const (
	DefaultFeature         = "form"
	DefaultDateLayout      = "2006-01-02"
	DefaultTimezone        = "Local"
	DefaultRequestTimeout  = 30 * time.Second
	DefaultIndexSeparator  = "--"
	DefaultTimestampLayout = "2006-01-02T15:04:05.000Z07:00"

	DefaultSubmitSuccessMessage = "Form submission successful"
	DefaultCorrectErrorsMessage = "Correct errors before submission"
	DefaultNoRecordMessage      = "No record found"
)

var ErrInvalidConfig = errors.New("invalid configuration", errors.CategoryValidation).
	WithTextCode("INVALID_CONFIG")

// Messages are the user visible notification texts.
type Messages struct {
	SubmitSuccess string `yaml:"submit_success" json:"submit_success"`
	CorrectErrors string `yaml:"correct_errors" json:"correct_errors"`
	NoRecord      string `yaml:"no_record" json:"no_record"`
}

// Config drives the engine and its HTTP transport.
type Config struct {
	BaseURL         string            `yaml:"base_url" json:"base_url"`
	Feature         string            `yaml:"feature" json:"feature"`
	DateLayout      string            `yaml:"date_layout" json:"date_layout"`
	Timezone        string            `yaml:"timezone" json:"timezone"`
	RequestTimeout  time.Duration     `yaml:"request_timeout" json:"request_timeout"`
	IndexSeparator  string            `yaml:"index_separator" json:"index_separator"`
	TimestampLayout string            `yaml:"timestamp_layout" json:"timestamp_layout"`
	Headers         map[string]string `yaml:"headers" json:"headers"`
	Messages        Messages          `yaml:"messages" json:"messages"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Feature:         DefaultFeature,
		DateLayout:      DefaultDateLayout,
		Timezone:        DefaultTimezone,
		RequestTimeout:  DefaultRequestTimeout,
		IndexSeparator:  DefaultIndexSeparator,
		TimestampLayout: DefaultTimestampLayout,
		Messages: Messages{
			SubmitSuccess: DefaultSubmitSuccessMessage,
			CorrectErrors: DefaultCorrectErrorsMessage,
			NoRecord:      DefaultNoRecordMessage,
		},
	}
}

// Parse decodes YAML (or JSON) over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(err, errors.CategoryValidation, "decode configuration").
			WithTextCode("INVALID_CONFIG")
	}
	cfg = cfg.WithDefaults()
	return cfg, cfg.Validate()
}

// Load reads and parses a configuration file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Default(), errors.Wrap(err, errors.CategoryBadInput, "read configuration file").
			WithTextCode("CONFIG_READ_FAILED").
			WithMetadata(map[string]any{"path": path})
	}
	return Parse(data)
}

// WithDefaults fills empty values with their defaults.
func (c Config) WithDefaults() Config {
	def := Default()
	if strings.TrimSpace(c.Feature) == "" {
		c.Feature = def.Feature
	}
	if strings.TrimSpace(c.DateLayout) == "" {
		c.DateLayout = def.DateLayout
	}
	if strings.TrimSpace(c.Timezone) == "" {
		c.Timezone = def.Timezone
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = def.RequestTimeout
	}
	if c.IndexSeparator == "" {
		c.IndexSeparator = def.IndexSeparator
	}
	if strings.TrimSpace(c.TimestampLayout) == "" {
		c.TimestampLayout = def.TimestampLayout
	}
	if strings.TrimSpace(c.Messages.SubmitSuccess) == "" {
		c.Messages.SubmitSuccess = def.Messages.SubmitSuccess
	}
	if strings.TrimSpace(c.Messages.CorrectErrors) == "" {
		c.Messages.CorrectErrors = def.Messages.CorrectErrors
	}
	if strings.TrimSpace(c.Messages.NoRecord) == "" {
		c.Messages.NoRecord = def.Messages.NoRecord
	}
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	return c
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.RequestTimeout < 0 {
		return ErrInvalidConfig.Clone().
			WithMetadata(map[string]any{"field": "request_timeout", "value": c.RequestTimeout.String()})
	}
	if _, err := c.loadLocation(); err != nil {
		return errors.Wrap(err, errors.CategoryValidation, "unknown timezone").
			WithTextCode("INVALID_CONFIG").
			WithMetadata(map[string]any{"field": "timezone", "value": c.Timezone})
	}
	if base := c.BaseURL; base != "" && !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		return ErrInvalidConfig.Clone().
			WithMetadata(map[string]any{"field": "base_url", "value": base})
	}
	return nil
}

// Location resolves Timezone, falling back to the local zone.
func (c Config) Location() *time.Location {
	loc, err := c.loadLocation()
	if err != nil {
		return time.Local
	}
	return loc
}

func (c Config) loadLocation() (*time.Location, error) {
	switch strings.TrimSpace(c.Timezone) {
	case "", "Local":
		return time.Local, nil
	case "UTC":
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}
