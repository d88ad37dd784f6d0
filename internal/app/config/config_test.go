package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	data := `
link:
  primary: tcp://10.201.48.7:1883
  fallback: tcp://broker.emqx.io:1883
scanner:
  whitelist:
    C495FC2984: card
  allow_prefixes: ["08"]
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Link.Topic != "1404TOPIC" {
		t.Fatalf("expected default topic, got %s", cfg.Link.Topic)
	}
	if cfg.Link.Backoff != 900*time.Millisecond {
		t.Fatalf("expected default backoff 900ms, got %s", cfg.Link.Backoff)
	}
	if cfg.Scanner.Interval != 150*time.Millisecond {
		t.Fatalf("expected default scan interval 150ms, got %s", cfg.Scanner.Interval)
	}
	if cfg.Unlock.PulseDuration != 5*time.Second {
		t.Fatalf("expected default pulse 5s, got %s", cfg.Unlock.PulseDuration)
	}
	if cfg.Metrics.Addr != ":9100" {
		t.Fatalf("expected default metrics addr :9100, got %s", cfg.Metrics.Addr)
	}
	if cfg.Scanner.Whitelist["C495FC2984"] != "card" {
		t.Fatalf("whitelist not preserved: %v", cfg.Scanner.Whitelist)
	}
}

func TestLoadRejectsMissingPrimary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(path, []byte("link: {}\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatalf("expected validation error for missing link.primary")
	}
}

func TestLoadRejectsBadDebounce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	data := `
link:
  primary: tcp://localhost:1883
scanner:
  debounce_samples: 7
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatalf("expected validation error for debounce_samples out of range")
	}
}
