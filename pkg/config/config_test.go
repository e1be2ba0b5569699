package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Sternrassler/crunchbase-client/pkg/pagination"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cbapi.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Workers != 1 {
		t.Errorf("Workers = %d, want 1", cfg.Workers)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.Timeout)
	}
	if cfg.BaseURL != "https://crunchbase-crunchbase-v1.p.rapidapi.com" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.Strategy != "chunked" {
		t.Errorf("Strategy = %q, want chunked", cfg.Strategy)
	}
	if cfg.Redis.Key != "cbapi:results" {
		t.Errorf("Redis.Key = %q", cfg.Redis.Key)
	}
	if cfg.File != "" {
		t.Errorf("File = %q, want empty for missing file", cfg.File)
	}
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, `
api_key: file-key
workers: 5
strategy: balanced
page_timeout: 15s
log:
  level: debug
  pretty: true
redis:
  addr: redis:6379
  db: 2
  key: crunchbase:orgs
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.APIKey != "file-key" {
		t.Errorf("APIKey = %q, want file-key", cfg.APIKey)
	}
	if cfg.Workers != 5 {
		t.Errorf("Workers = %d, want 5", cfg.Workers)
	}
	if cfg.Strategy != "balanced" {
		t.Errorf("Strategy = %q, want balanced", cfg.Strategy)
	}
	if cfg.PageTimeout != 15*time.Second {
		t.Errorf("PageTimeout = %v, want 15s", cfg.PageTimeout)
	}
	if cfg.LogLevel != "debug" || !cfg.LogPretty {
		t.Errorf("log = %q/%v, want debug/true", cfg.LogLevel, cfg.LogPretty)
	}
	if cfg.Redis.Addr != "redis:6379" || cfg.Redis.DB != 2 || cfg.Redis.Key != "crunchbase:orgs" {
		t.Errorf("Redis = %+v", cfg.Redis)
	}
	if cfg.File != path {
		t.Errorf("File = %q, want %q", cfg.File, path)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "api_key: file-key\nworkers: 2\n")
	t.Setenv("CBAPI_API_KEY", "env-key")
	t.Setenv("CBAPI_WORKERS", "8")
	t.Setenv("CBAPI_REDIS_ADDR", "cache:6380")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.APIKey != "env-key" {
		t.Errorf("APIKey = %q, want env-key", cfg.APIKey)
	}
	if cfg.Workers != 8 {
		t.Errorf("Workers = %d, want 8", cfg.Workers)
	}
	if cfg.Redis.Addr != "cache:6380" {
		t.Errorf("Redis.Addr = %q, want cache:6380", cfg.Redis.Addr)
	}
}

func TestLoad_InvalidWorkers(t *testing.T) {
	path := writeFile(t, "workers: 0\n")
	if _, err := Load(path); err == nil {
		t.Error("Expected error for workers: 0")
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	path := writeFile(t, "api_key: [unterminated\n")
	if _, err := Load(path); err == nil {
		t.Error("Expected error for malformed YAML")
	}
}

func TestSaveAPIKey(t *testing.T) {
	path := writeFile(t, "workers: 4\n")

	if err := SaveAPIKey(path, "saved-key"); err != nil {
		t.Fatalf("SaveAPIKey failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.APIKey != "saved-key" {
		t.Errorf("APIKey = %q, want saved-key", cfg.APIKey)
	}
	if cfg.Workers != 4 {
		t.Errorf("Workers = %d, want existing setting kept", cfg.Workers)
	}
}

func TestSaveAPIKey_NewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new.yaml")

	if err := SaveAPIKey(path, "fresh"); err != nil {
		t.Fatalf("SaveAPIKey failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !strings.Contains(string(data), "fresh") {
		t.Errorf("file content = %q, want key", data)
	}
}

func TestSaveAPIKey_Empty(t *testing.T) {
	if err := SaveAPIKey(filepath.Join(t.TempDir(), "x.yaml"), " "); err == nil {
		t.Error("Expected error for empty key")
	}
}

func TestConfig_ClientConfig(t *testing.T) {
	cfg := Config{
		APIKey:   "k",
		BaseURL:  "http://localhost:1234",
		Host:     "example.test",
		Workers:  6,
		Strategy: "balanced",
		Timeout:  5 * time.Second,
	}

	cc, err := cfg.ClientConfig()
	if err != nil {
		t.Fatalf("ClientConfig failed: %v", err)
	}
	if cc.APIKey != "k" || cc.BaseURL != "http://localhost:1234" || cc.Host != "example.test" {
		t.Errorf("client config = %+v", cc)
	}
	if cc.MaxWorkers != 6 {
		t.Errorf("MaxWorkers = %d, want 6", cc.MaxWorkers)
	}
	if cc.Strategy != pagination.StrategyBalanced {
		t.Errorf("Strategy = %q, want balanced", cc.Strategy)
	}

	cfg.Strategy = "zigzag"
	if _, err := cfg.ClientConfig(); err == nil {
		t.Error("Expected error for unknown strategy")
	}
}

func TestLoad_SecretsFromEnvOnly(t *testing.T) {
	t.Setenv("CBAPI_API_KEY", "secret-key")
	t.Setenv("CBAPI_REDIS_PASSWORD", "hunter2")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.APIKey != "secret-key" {
		t.Errorf("APIKey = %q, want secret-key", cfg.APIKey)
	}
	if cfg.Redis.Password != "hunter2" {
		t.Errorf("Redis.Password = %q, want hunter2", cfg.Redis.Password)
	}
}
