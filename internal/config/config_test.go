package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pos.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.API.BaseURL != "https://app.tablecrm.com/api/v1" {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.Search.ClientDebounce.Std() != 300*time.Millisecond {
		t.Errorf("ClientDebounce = %v", cfg.Search.ClientDebounce.Std())
	}
	if cfg.Search.ProductDebounce.Std() != 500*time.Millisecond {
		t.Errorf("ProductDebounce = %v", cfg.Search.ProductDebounce.Std())
	}
	if cfg.Search.ClientMinLength != 3 || cfg.Search.ProductMinLength != 2 {
		t.Errorf("min lengths = %d/%d", cfg.Search.ClientMinLength, cfg.Search.ProductMinLength)
	}
	if cfg.Notify.Dismiss.Std() != 5*time.Second {
		t.Errorf("Dismiss = %v", cfg.Notify.Dismiss.Std())
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: "http://localhost:9000/api/v1"
  timeout: "10s"
search:
  client_debounce: "150ms"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.BaseURL != "http://localhost:9000/api/v1" {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout.Std() != 10*time.Second {
		t.Errorf("Timeout = %v", cfg.API.Timeout.Std())
	}
	if cfg.Search.ClientDebounce.Std() != 150*time.Millisecond {
		t.Errorf("ClientDebounce = %v", cfg.Search.ClientDebounce.Std())
	}
	// Untouched fields keep their defaults.
	if cfg.Search.ProductDebounce.Std() != 500*time.Millisecond {
		t.Errorf("ProductDebounce = %v", cfg.Search.ProductDebounce.Std())
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := writeConfig(t, `
api:
  timeout: "soon"
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := writeConfig(t, `
search:
  client_min_length: 0
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadOrDefaultFallsBack(t *testing.T) {
	cfg := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	if cfg.API.BaseURL != Default().API.BaseURL {
		t.Fatalf("expected defaults, got %q", cfg.API.BaseURL)
	}
}
