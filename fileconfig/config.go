// Package fileconfig loads forwarder settings from YAML or TOML files.
package fileconfig

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for files that are neither YAML nor TOML.
var ErrUnsupportedFormat = errors.New("fileconfig: unsupported config format")

// Config is the on-disk form of the forwarder configuration.
type Config struct {
	AppName          string `yaml:"app_name" toml:"app_name"`
	WebhookURL       string `yaml:"webhook_url" toml:"webhook_url"`
	MinLevel         string `yaml:"min_level" toml:"min_level"`
	Layout           string `yaml:"layout" toml:"layout"`
	DefaultTarget    string `yaml:"default_target" toml:"default_target"`
	ThumbnailURL     string `yaml:"thumbnail_url" toml:"thumbnail_url"`
	Mention          string `yaml:"mention" toml:"mention"`
	MentionLevel     string `yaml:"mention_level" toml:"mention_level"`
	ValidatePayloads bool   `yaml:"validate_payloads" toml:"validate_payloads"`

	Filters  FiltersConfig  `yaml:"filters" toml:"filters"`
	Delivery DeliveryConfig `yaml:"delivery" toml:"delivery"`
	Log      LogConfig      `yaml:"log" toml:"log"`
}

// RuleConfig is one filter rule.
type RuleConfig struct {
	Polarity string `yaml:"polarity" toml:"polarity"`
	Pattern  string `yaml:"pattern" toml:"pattern"`
}

// FiltersConfig groups the filter rules.
type FiltersConfig struct {
	Target        []RuleConfig `yaml:"target" toml:"target"`
	Message       []RuleConfig `yaml:"message" toml:"message"`
	Field         []RuleConfig `yaml:"field" toml:"field"`
	ExcludeFields []string     `yaml:"exclude_fields" toml:"exclude_fields"`
}

// DeliveryConfig holds the retry and timeout settings. Durations use
// time.ParseDuration syntax; empty keeps the default.
type DeliveryConfig struct {
	RequestTimeout  string `yaml:"request_timeout" toml:"request_timeout"`
	MaxAttempts     int    `yaml:"max_attempts" toml:"max_attempts"`
	RetryBackoff    string `yaml:"retry_backoff" toml:"retry_backoff"`
	ShutdownTimeout string `yaml:"shutdown_timeout" toml:"shutdown_timeout"`
}

// LogConfig configures the local diagnostics logger of the CLI.
type LogConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// Load reads path, expands environment variables and decodes it by file
// extension (.yaml, .yml or .toml). Unknown keys are rejected.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %q: %w", path, err)
	}
	expanded := []byte(os.ExpandEnv(string(raw)))

	var cfg Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(expanded))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("decode YAML %q: %w", path, err)
		}
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(expanded))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("decode TOML %q: %w", path, err)
		}
	default:
		return Config{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return cfg, nil
}
