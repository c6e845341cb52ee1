package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFile_Success(t *testing.T) {
	path := writeConfig(t, `
api:
  crypto: [bitcoin, ethereum, solana]
  currency: eur
  endpoint: https://test.coingecko.local/coins/markets
  per_page: 10
  requests_per_minute: 5
http:
  timeout: 5s
  retry_count: 1
paths:
  raw: data/raw
  processed: data/processed
  output: data/output
  logs: logs
  tests: tests
log:
  level: debug
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() returned unexpected error: %v", err)
	}

	if want := []string{"bitcoin", "ethereum", "solana"}; !reflect.DeepEqual(cfg.API.Crypto, want) {
		t.Errorf("API.Crypto = %v, want %v", cfg.API.Crypto, want)
	}

	tests := []struct {
		name     string
		got      any
		expected any
	}{
		{"API.Currency", cfg.API.Currency, "eur"},
		{"API.Endpoint", cfg.API.Endpoint, "https://test.coingecko.local/coins/markets"},
		{"API.PerPage", cfg.API.PerPage, 10},
		{"API.RequestsPerMinute", cfg.API.RequestsPerMinute, 5.0},
		{"HTTP.Timeout", cfg.HTTP.Timeout, 5 * time.Second},
		{"HTTP.RetryCount", cfg.HTTP.RetryCount, 1},
		{"Paths.Raw", cfg.Paths.Raw, "data/raw"},
		{"Paths.Processed", cfg.Paths.Processed, "data/processed"},
		{"Paths.Output", cfg.Paths.Output, "data/output"},
		{"Paths.Logs", cfg.Paths.Logs, "logs"},
		{"Paths.Tests", cfg.Paths.Tests, "tests"},
		{"Log.Level", cfg.Log.Level, "debug"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.expected)
			}
		})
	}
}

func TestLoadFile_WithDefaults(t *testing.T) {
	path := writeConfig(t, "api:\n  crypto: [bitcoin]\n")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() returned unexpected error: %v", err)
	}

	tests := []struct {
		name     string
		got      any
		expected any
	}{
		{"API.Currency", cfg.API.Currency, "usd"},
		{"API.Endpoint", cfg.API.Endpoint, "https://api.coingecko.com/api/v3/coins/markets"},
		{"API.Order", cfg.API.Order, "market_cap_desc"},
		{"API.Page", cfg.API.Page, 1},
		{"HTTP.Timeout", cfg.HTTP.Timeout, 30 * time.Second},
		{"HTTP.RetryMaxWait", cfg.HTTP.RetryMaxWait, 10 * time.Second},
		{"Paths.Raw", cfg.Paths.Raw, "data/raw"},
		{"Paths.Logs", cfg.Paths.Logs, "logs"},
		{"Log.Level", cfg.Log.Level, "info"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.expected)
			}
		})
	}
}

func TestLoadFile_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "api:\n  crypto: [bitcoin]\n  currency: usd\n")

	t.Setenv("CRYPTOETL_API_CRYPTO", "cardano, dogecoin")
	t.Setenv("CRYPTOETL_API_CURRENCY", "pln")
	t.Setenv("CRYPTOETL_PATHS_OUTPUT", "/tmp/out")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() returned unexpected error: %v", err)
	}

	if want := []string{"cardano", "dogecoin"}; !reflect.DeepEqual(cfg.API.Crypto, want) {
		t.Errorf("API.Crypto = %v, want %v", cfg.API.Crypto, want)
	}
	if cfg.API.Currency != "pln" {
		t.Errorf("API.Currency = %q, want pln", cfg.API.Currency)
	}
	if cfg.Paths.Output != "/tmp/out" {
		t.Errorf("Paths.Output = %q, want /tmp/out", cfg.Paths.Output)
	}
}

func TestLoadFile_MissingRequired(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantErrText string
	}{
		{
			name:        "missing crypto",
			body:        "api:\n  currency: usd\n",
			wantErrText: "api.crypto",
		},
		{
			name:        "empty currency",
			body:        "api:\n  crypto: [bitcoin]\n  currency: \"\"\n",
			wantErrText: "api.currency",
		},
		{
			name:        "empty raw path",
			body:        "api:\n  crypto: [bitcoin]\npaths:\n  raw: \"\"\n",
			wantErrText: "paths.raw",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("LoadFile() expected error, got nil")
			}
			if !strings.Contains(err.Error(), "missing required configuration") ||
				!strings.Contains(err.Error(), tt.wantErrText) {
				t.Errorf("LoadFile() error = %q, want error containing %q", err.Error(), tt.wantErrText)
			}
		})
	}
}

func TestLoadFile_NotFound(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("LoadFile() expected error for a missing file")
	}
}

func TestLoad_EnvOnly(t *testing.T) {
	// no config file in the package directory; everything comes from env and defaults
	t.Setenv("CRYPTOETL_API_CRYPTO", "bitcoin")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if len(cfg.API.Crypto) != 1 || cfg.API.Crypto[0] != "bitcoin" {
		t.Errorf("API.Crypto = %v, want [bitcoin]", cfg.API.Crypto)
	}
}

func TestLoad_MissingCrypto(t *testing.T) {
	t.Setenv("CRYPTOETL_API_CRYPTO", "")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "api.crypto") {
		t.Errorf("Load() error = %v, want missing api.crypto", err)
	}
}
