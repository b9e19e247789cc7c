package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// MetricsVariant selects which metrics record the board edits and submits.
const (
	VariantSales     = "sales"
	VariantInstagram = "instagram"
	VariantFinancial = "financial"
)

// Config models ceoboard.yml. The canonical copy lives in the DB; the YAML
// file is only the import/export format.
type Config struct {
	Board struct {
		UserCode       string `yaml:"user_code"`
		MetricsVariant string `yaml:"metrics_variant"`
	} `yaml:"board"`
	Remote struct {
		WebhookURL     string `yaml:"webhook_url"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
		Fallback       *bool  `yaml:"fallback"`
	} `yaml:"remote"`
	Refresh struct {
		IntervalSeconds int `yaml:"interval_seconds"`
	} `yaml:"refresh"`
}

// FallbackEnabled reports whether the hard-coded demo bundle should stand in
// when the remote fetch fails. Defaults to on.
func (c *Config) FallbackEnabled() bool {
	if c.Remote.Fallback == nil {
		return true
	}
	return *c.Remote.Fallback
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Board.UserCode == "" {
		return fmt.Errorf("config.board.user_code is required")
	}
	switch c.Board.MetricsVariant {
	case VariantSales, VariantInstagram, VariantFinancial:
	default:
		return fmt.Errorf("config.board.metrics_variant must be one of sales, instagram, financial")
	}
	if c.Remote.WebhookURL == "" {
		return fmt.Errorf("config.remote.webhook_url is required")
	}
	if c.Remote.TimeoutSeconds < 0 {
		return fmt.Errorf("config.remote.timeout_seconds must not be negative")
	}
	if c.Refresh.IntervalSeconds < 0 {
		return fmt.Errorf("config.refresh.interval_seconds must not be negative")
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "ceoboard.yml")
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; import with ceo config import --file <path>", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Default returns the default Config struct for a user code.
func Default(userCode string) *Config {
	var cfg Config
	_ = yaml.NewDecoder(bytes.NewBufferString(fmt.Sprintf(defaultTemplate, userCode))).Decode(&cfg)
	cfg.Board.UserCode = userCode
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

// GenerateDefault returns default config YAML.
func GenerateDefault(userCode string) string {
	return fmt.Sprintf(defaultTemplate, userCode)
}

const defaultTemplate = `board:
  user_code: %s
  metrics_variant: financial

remote:
  webhook_url: https://n8n.srv880021.hstgr.cloud/webhook/CeoPremium
  timeout_seconds: 15
  fallback: true

refresh:
  interval_seconds: 30
`
