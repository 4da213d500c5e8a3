package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Addr != DefaultHTTPAddr {
		t.Fatalf("server addr = %q, want %q", cfg.Server.Addr, DefaultHTTPAddr)
	}
	if cfg.WhatsApp.DefaultRegion != DefaultRegion {
		t.Fatalf("default region = %q, want %q", cfg.WhatsApp.DefaultRegion, DefaultRegion)
	}
	if cfg.Media.MaxBytes != DefaultMediaMaxBytes {
		t.Fatalf("media max bytes = %d, want %d", cfg.Media.MaxBytes, DefaultMediaMaxBytes)
	}
	if got := cfg.Pairing.TimeoutDuration(); got != 30*time.Second {
		t.Fatalf("pairing timeout = %v, want 30s", got)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.toml")
	raw := `
[server]
addr = ":9090"

[whatsapp]
default_region = "KE"

[pairing]
timeout = "45s"

[broadcast]
max_concurrency = 8
rate_per_sec = 20
log_failures = true
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Fatalf("server addr = %q", cfg.Server.Addr)
	}
	if cfg.WhatsApp.DefaultRegion != "KE" {
		t.Fatalf("default region = %q", cfg.WhatsApp.DefaultRegion)
	}
	if cfg.WhatsApp.StoreDialect != DefaultStoreDialect {
		t.Fatalf("store dialect should keep default, got %q", cfg.WhatsApp.StoreDialect)
	}
	if cfg.Pairing.TimeoutDuration() != 45*time.Second {
		t.Fatalf("pairing timeout = %v", cfg.Pairing.TimeoutDuration())
	}
	if cfg.Broadcast.MaxConcurrency != 8 || cfg.Broadcast.RatePerSec != 20 || !cfg.Broadcast.LogFailures {
		t.Fatalf("unexpected broadcast config: %+v", cfg.Broadcast)
	}
}

func TestPairingTimeoutFallback(t *testing.T) {
	t.Parallel()

	tests := []string{"", "nonsense", "-5s", "0s"}
	for _, raw := range tests {
		if got := (PairingConfig{Timeout: raw}).TimeoutDuration(); got != 30*time.Second {
			t.Errorf("TimeoutDuration(%q) = %v, want 30s", raw, got)
		}
	}
}
