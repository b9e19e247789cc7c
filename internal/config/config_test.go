package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default("CEO2024")
	if cfg.Board.UserCode != "CEO2024" {
		t.Fatalf("user code %q", cfg.Board.UserCode)
	}
	if cfg.Board.MetricsVariant != VariantFinancial {
		t.Fatalf("variant %q", cfg.Board.MetricsVariant)
	}
	if cfg.Remote.TimeoutSeconds != 15 || cfg.Refresh.IntervalSeconds != 30 {
		t.Fatalf("timings %d/%d", cfg.Remote.TimeoutSeconds, cfg.Refresh.IntervalSeconds)
	}
	if !strings.Contains(cfg.Remote.WebhookURL, "/webhook/") {
		t.Fatalf("webhook url %q", cfg.Remote.WebhookURL)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default must validate: %v", err)
	}
}

func TestFallbackDefaultsOn(t *testing.T) {
	var cfg Config
	if !cfg.FallbackEnabled() {
		t.Fatal("unset fallback should be on")
	}
	off := false
	cfg.Remote.Fallback = &off
	if cfg.FallbackEnabled() {
		t.Fatal("explicit false should win")
	}
}

func TestFromYAMLRejectsBadConfigs(t *testing.T) {
	cases := map[string]string{
		"missing user code": `
board:
  metrics_variant: financial
remote:
  webhook_url: https://example.com/hook
`,
		"unknown variant": `
board:
  user_code: CEO2024
  metrics_variant: engagement
remote:
  webhook_url: https://example.com/hook
`,
		"missing webhook": `
board:
  user_code: CEO2024
  metrics_variant: sales
`,
		"negative timeout": `
board:
  user_code: CEO2024
  metrics_variant: sales
remote:
  webhook_url: https://example.com/hook
  timeout_seconds: -1
`,
		"not yaml": `{{{`,
	}
	for name, raw := range cases {
		if _, err := FromYAML([]byte(raw)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestLoadOptional(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadOptional(dir)
	if err != nil || cfg != nil {
		t.Fatalf("absent file: %v, %v", cfg, err)
	}

	if err := os.WriteFile(filepath.Join(dir, "ceoboard.yml"), []byte(GenerateDefault("ACME")), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = LoadOptional(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Board.UserCode != "ACME" {
		t.Fatalf("user code %q", cfg.Board.UserCode)
	}
}
