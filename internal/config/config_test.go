package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/ineed/internal/config"
)

const baseConfig = `
shutdown_timeout = "30s"
version = "0.1.0"

[server]
host = "0.0.0.0"
port = 8080
read_timeout = "1m"
write_timeout = "15m"

[database]
host = "localhost"
port = 5432
name = "ineed"
user = "ineed"
password = "ineed"
ssl_mode = "disable"

[storage]
provider = "azure"
container_name = "listings"
connection_string = "DefaultEndpointsProtocol=http;AccountName=ineedstore;AccountKey=key;BlobEndpoint=http://127.0.0.1:10000/ineedstore;"

[redis]
addr = "localhost:6379"

[auth]
mode = "hmac"
secret = "local-development-secret"

[genai]
model = "gemini-2.5-flash"

[moderation]
timeout = "10s"
workers = 2

[api]
base_path = "/api"

[api.pagination]
default_page_size = 25
max_page_size = 50

[api.rate_limit]
enabled = true
requests = 10
window = "30s"
`

const overlayConfig = `
[server]
port = 9090

[database]
host = "prodhost"
`

const minimalConfig = `
[database]
name = "ineed"
user = "ineed"

[storage]
connection_string = "conn"

[auth]
secret = "local-development-secret"
`

func writeConfig(t *testing.T, dir, filename, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, filename), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", filename, err)
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(orig) })
}

func load(t *testing.T, content string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	writeConfig(t, dir, config.BaseConfigFile, content)
	chdir(t, dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	return cfg
}

func TestLoad(t *testing.T) {
	cfg := load(t, baseConfig)

	if cfg.Server.Port != 8080 {
		t.Errorf("server port: got %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Host != "localhost" {
		t.Errorf("db host: got %s, want localhost", cfg.Database.Host)
	}
	if cfg.Storage.ContainerName != "listings" {
		t.Errorf("storage container: got %s, want listings", cfg.Storage.ContainerName)
	}
	if cfg.API.Pagination.DefaultPageSize != 25 || cfg.API.Pagination.MaxPageSize != 50 {
		t.Errorf("pagination: got %+v, want 25/50", cfg.API.Pagination)
	}
	if cfg.Moderation.TimeoutDuration() != 10*time.Second || cfg.Moderation.Workers != 2 {
		t.Errorf("moderation: got %+v", cfg.Moderation)
	}
	if !cfg.API.RateLimit.Enabled || cfg.API.RateLimit.Requests != 10 {
		t.Errorf("rate limit: got %+v", cfg.API.RateLimit)
	}
}

func TestLoadWithOverlay(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	writeConfig(t, dir, "config.staging.toml", overlayConfig)
	chdir(t, dir)

	t.Setenv("INEED_ENV", "staging")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("server port: got %d, want 9090 (from overlay)", cfg.Server.Port)
	}
	if cfg.Database.Host != "prodhost" {
		t.Errorf("db host: got %s, want prodhost (from overlay)", cfg.Database.Host)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("db port: got %d, want 5432 (from base)", cfg.Database.Port)
	}
}

func TestLoadEnvVarOverrides(t *testing.T) {
	t.Setenv("INEED_VERSION", "2.0.0")
	t.Setenv("INEED_SERVER_PORT", "3000")
	t.Setenv("INEED_REDIS_ADDR", "cache:6380")
	t.Setenv("INEED_GENAI_API_KEY", "key")
	t.Setenv("INEED_MODERATION_TIMEOUT", "5s")

	cfg := load(t, baseConfig)

	if cfg.Version != "2.0.0" {
		t.Errorf("version: got %s, want 2.0.0", cfg.Version)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("server port: got %d, want 3000", cfg.Server.Port)
	}
	if cfg.Redis.Options().Addr != "cache:6380" {
		t.Errorf("redis addr: got %s", cfg.Redis.Addr)
	}
	if !cfg.GenAI.Enabled() {
		t.Error("genai should be enabled with an api key")
	}
	if cfg.Moderation.TimeoutDuration() != 5*time.Second {
		t.Errorf("moderation timeout: got %v", cfg.Moderation.TimeoutDuration())
	}
}

func TestLoadNoConfigFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	t.Setenv("INEED_DB_NAME", "testdb")
	t.Setenv("INEED_STORAGE_CONNECTION_STRING", "conn")
	t.Setenv("INEED_AUTH_SECRET", "0123456789abcdef")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load without config.toml failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server port default: got %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Name != "testdb" {
		t.Errorf("db name from env: got %s, want testdb", cfg.Database.Name)
	}
	if cfg.GenAI.Enabled() {
		t.Error("genai enabled without an api key")
	}
}

func TestLoadInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", `server = {`)
	chdir(t, dir)

	if _, err := config.Load(); err == nil {
		t.Fatal("expected error for invalid TOML")
	}
}

func TestEnv(t *testing.T) {
	cfg := load(t, baseConfig)
	if cfg.Env() != "local" {
		t.Errorf("env: got %s, want local", cfg.Env())
	}

	t.Setenv("INEED_ENV", "production")
	if cfg.Env() != "production" {
		t.Errorf("env: got %s, want production", cfg.Env())
	}
}

func TestDurationsAndAddr(t *testing.T) {
	cfg := load(t, baseConfig)

	if d := cfg.ShutdownTimeoutDuration(); d != 30*time.Second {
		t.Errorf("shutdown timeout: got %v, want 30s", d)
	}
	if addr := cfg.Server.Addr(); addr != "0.0.0.0:8080" {
		t.Errorf("addr: got %s, want 0.0.0.0:8080", addr)
	}
	if d := cfg.Server.WriteTimeoutDuration(); d != 15*time.Minute {
		t.Errorf("write timeout: got %v", d)
	}
}

func TestDefaults(t *testing.T) {
	cfg := load(t, minimalConfig)

	if cfg.API.Pagination.DefaultPageSize != 20 || cfg.API.Pagination.MaxPageSize != 100 {
		t.Errorf("pagination: got %+v, want 20/100", cfg.API.Pagination)
	}
	if cfg.API.Feed.DefaultPageSize != 12 || cfg.API.Feed.MaxPageSize != 20 {
		t.Errorf("feed: got %+v, want 12/20", cfg.API.Feed)
	}
	if cfg.Moderation.TimeoutDuration() != 30*time.Second {
		t.Errorf("moderation timeout: got %v, want 30s", cfg.Moderation.TimeoutDuration())
	}
	if cfg.Auth.Mode != "hmac" {
		t.Errorf("auth mode: got %s, want hmac", cfg.Auth.Mode)
	}
	if cfg.API.OpenAPI.Title == "" {
		t.Error("openapi title not defaulted")
	}
}

func TestFeedEnvOverrides(t *testing.T) {
	t.Setenv("INEED_FEED_DEFAULT_PAGE_SIZE", "6")
	t.Setenv("INEED_FEED_MAX_PAGE_SIZE", "10")

	cfg := load(t, minimalConfig)

	if cfg.API.Feed.DefaultPageSize != 6 || cfg.API.Feed.MaxPageSize != 10 {
		t.Errorf("feed: got %+v, want 6/10", cfg.API.Feed)
	}
}

func TestMaxUploadSizeBytes(t *testing.T) {
	tests := []struct {
		name string
		size string
		want int64
	}{
		{"valid 5MB", "5MB", 5 * 1024 * 1024},
		{"valid 1GB", "1GB", 1024 * 1024 * 1024},
		{"invalid falls back to 10MB", "bad", 10 * 1024 * 1024},
		{"empty falls back to 10MB", "", 10 * 1024 * 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.APIConfig{MaxUploadSize: tt.size}
			if got := cfg.MaxUploadSizeBytes(); got != tt.want {
				t.Errorf("MaxUploadSizeBytes() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		extra   string
		wantErr string
	}{
		{"invalid port", "[server]\nport = 99999\n", "invalid port"},
		{"invalid read_timeout", "[server]\nread_timeout = \"bad\"\n", "invalid read_timeout"},
		{"invalid moderation timeout", "[moderation]\ntimeout = \"0s\"\n", "moderation"},
		{"feed default above cap", "[api.feed]\ndefault_page_size = 30\nmax_page_size = 20\n", "feed"},
		{"unknown auth mode", "[auth]\nmode = \"basic\"\n", "auth"},
		{"workers exhaust pool", "[moderation]\nworkers = 8\n", "max_open_conns"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			content := tt.extra + `
[database]
name = "ineed"
max_open_conns = 8

[storage]
connection_string = "conn"
`
			if !strings.Contains(tt.extra, "[auth]") {
				content += "\n[auth]\nsecret = \"local-development-secret\"\n"
			}
			writeConfig(t, dir, "config.toml", content)
			chdir(t, dir)

			_, err := config.Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}
