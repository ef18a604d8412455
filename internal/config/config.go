package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tricount-export/tricount-export/internal/tricount"
)

// FileName is the default config file name.
const FileName = "tricount-export.yaml"

// Config represents the top-level tricount-export.yaml configuration.
type Config struct {
	API         APIConfig         `yaml:"api"`
	Export      ExportConfig      `yaml:"export"`
	Attachments AttachmentsConfig `yaml:"attachments"`
	Log         LogConfig         `yaml:"log"`
}

// APIConfig identifies the remote API and the client it presents as.
type APIConfig struct {
	BaseURL           string        `yaml:"base_url"`
	UserAgent         string        `yaml:"user_agent"`
	RequestID         string        `yaml:"request_id"`
	DeviceDescription string        `yaml:"device_description"`
	Timeout           time.Duration `yaml:"timeout"`
}

// ExportConfig selects the output format and location.
type ExportConfig struct {
	Format     string `yaml:"format"`
	Delimiter  string `yaml:"delimiter,omitempty"` // single character; overrides delimited formats, a tab writes .tsv
	OutputDir  string `yaml:"output_dir"`
	FilePrefix string `yaml:"file_prefix"`
}

// AttachmentsConfig controls receipt downloads.
type AttachmentsConfig struct {
	Download bool   `yaml:"download"`
	Dir      string `yaml:"dir"`
	Workers  int    `yaml:"workers"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// DelimiterRune returns the configured delimiter, or 0 when unset.
func (e ExportConfig) DelimiterRune() (rune, error) {
	switch r := []rune(e.Delimiter); len(r) {
	case 0:
		return 0, nil
	case 1:
		return r[0], nil
	default:
		if e.Delimiter == `\t` {
			return '\t', nil
		}
		return 0, fmt.Errorf("delimiter must be a single character, got %q", e.Delimiter)
	}
}

// Load reads a config file from disk. Unset values keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with the values used when no file is given.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:           tricount.DefaultBaseURL,
			UserAgent:         tricount.DefaultUserAgent,
			RequestID:         tricount.DefaultRequestID,
			DeviceDescription: tricount.DefaultDeviceDescription,
			Timeout:           30 * time.Second,
		},
		Export: ExportConfig{
			Format:     "tsv",
			OutputDir:  ".",
			FilePrefix: "Transactions",
		},
		Attachments: AttachmentsConfig{
			Download: false,
			Dir:      "attachments",
			Workers:  4,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
