// ABOUTME: Tests for centralized configuration system
// ABOUTME: Verifies file and environment variable parsing and validation
package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/thumbcoded/kemmei-app-sub000/internal/storage"
)

var envKeys = []string{
	"KEMMEI_CONFIG", "KEMMEI_ENGINE", "KEMMEI_DATA_DIR", "KEMMEI_DB_NAME",
	"KEMMEI_DOMAIN_MAP", "KEMMEI_POSTGRES_DSN", "KEMMEI_HTTP_ADDR",
	"KEMMEI_LOG_LEVEL", "KEMMEI_LOG_FORMAT", "CHARM_HOST", "CHARM_DB", "CHARM_AUTO_SYNC",
}

// clearEnv blanks every variable Load reads; t.Setenv restores them afterwards
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Engine != EngineEmbedded {
		t.Errorf("Engine = %s, want embedded", cfg.Engine)
	}
	if cfg.DataDir != storage.DefaultDataDir() {
		t.Errorf("DataDir = %s, want %s", cfg.DataDir, storage.DefaultDataDir())
	}
	if cfg.DBName != "kemmei.db" {
		t.Errorf("DBName = %s, want kemmei.db", cfg.DBName)
	}
	if cfg.HTTPAddr != ":4000" {
		t.Errorf("HTTPAddr = %s, want :4000", cfg.HTTPAddr)
	}
	if cfg.CharmHost != "charm.2389.dev" {
		t.Errorf("CharmHost = %s, want charm.2389.dev", cfg.CharmHost)
	}
	if cfg.CharmDBName != "kemmei" {
		t.Errorf("CharmDBName = %s, want kemmei", cfg.CharmDBName)
	}
	if !cfg.AutoSync {
		t.Error("AutoSync = false, want true")
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "console" {
		t.Errorf("logging = %s/%s, want info/console", cfg.LogLevel, cfg.LogFormat)
	}
	if want := filepath.Join(storage.DefaultDataDir(), DefaultDomainMapName); cfg.DomainMapPath != want {
		t.Errorf("DomainMapPath = %s, want %s", cfg.DomainMapPath, want)
	}
	if d := Defaults(); d.DomainMapPath != cfg.DomainMapPath {
		t.Errorf("Defaults().DomainMapPath = %s, want %s", d.DomainMapPath, cfg.DomainMapPath)
	}
}

func TestLoad_DomainMapFollowsDataDir(t *testing.T) {
	clearEnv(t)
	t.Setenv("KEMMEI_DATA_DIR", "/srv/kemmei")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if want := filepath.Join("/srv/kemmei", DefaultDomainMapName); cfg.DomainMapPath != want {
		t.Errorf("DomainMapPath = %s, want %s", cfg.DomainMapPath, want)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("KEMMEI_ENGINE", "NATIVE")
	t.Setenv("KEMMEI_DATA_DIR", "/tmp/kemmei-data")
	t.Setenv("KEMMEI_DB_NAME", "study.db")
	t.Setenv("KEMMEI_DOMAIN_MAP", "/etc/kemmei/domainmap.json")
	t.Setenv("KEMMEI_HTTP_ADDR", "127.0.0.1:9000")
	t.Setenv("CHARM_HOST", "custom.charm.sh")
	t.Setenv("CHARM_DB", "test_db")
	t.Setenv("CHARM_AUTO_SYNC", "false")
	t.Setenv("KEMMEI_LOG_LEVEL", "debug")
	t.Setenv("KEMMEI_LOG_FORMAT", "json")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Engine != EngineNative {
		t.Errorf("Engine = %s, want native", cfg.Engine)
	}
	if cfg.DBPath() != filepath.Join("/tmp/kemmei-data", "study.db") {
		t.Errorf("DBPath() = %s", cfg.DBPath())
	}
	if cfg.DomainMapPath != "/etc/kemmei/domainmap.json" {
		t.Errorf("DomainMapPath = %s", cfg.DomainMapPath)
	}
	if cfg.HTTPAddr != "127.0.0.1:9000" {
		t.Errorf("HTTPAddr = %s", cfg.HTTPAddr)
	}
	if cfg.CharmHost != "custom.charm.sh" {
		t.Errorf("CharmHost = %s, want custom.charm.sh", cfg.CharmHost)
	}
	if cfg.CharmDBName != "test_db" {
		t.Errorf("CharmDBName = %s, want test_db", cfg.CharmDBName)
	}
	if cfg.AutoSync {
		t.Error("AutoSync = true, want false")
	}
	if cfg.LogLevel != "debug" || cfg.LogFormat != "json" {
		t.Errorf("logging = %s/%s, want debug/json", cfg.LogLevel, cfg.LogFormat)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "kemmei.yaml")
	content := "engine: postgres\npostgres_dsn: postgres://localhost/kemmei\nhttp_addr: :5000\nauto_sync: false\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("KEMMEI_CONFIG", path)
	t.Setenv("KEMMEI_HTTP_ADDR", ":6000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Engine != EnginePostgres {
		t.Errorf("Engine = %s, want postgres from file", cfg.Engine)
	}
	if cfg.PostgresDSN != "postgres://localhost/kemmei" {
		t.Errorf("PostgresDSN = %s", cfg.PostgresDSN)
	}
	if cfg.HTTPAddr != ":6000" {
		t.Errorf("HTTPAddr = %s, env should override file", cfg.HTTPAddr)
	}
	if cfg.AutoSync {
		t.Error("AutoSync = true, want false from file")
	}
	if cfg.DBName != "kemmei.db" {
		t.Errorf("DBName = %s, defaults should survive a partial file", cfg.DBName)
	}
}

func TestLoad_BadFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "kemmei.yaml")
	if err := os.WriteFile(path, []byte("engine: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("KEMMEI_CONFIG", path)
	if _, err := Load(); err == nil {
		t.Error("Load() should fail on malformed YAML")
	}

	t.Setenv("KEMMEI_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Error("Load() should fail when the config file is missing")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"unknown engine", func(c *Config) { c.Engine = "mongo" }, true},
		{"postgres without dsn", func(c *Config) { c.Engine = EnginePostgres }, true},
		{"postgres with dsn", func(c *Config) { c.Engine = EnginePostgres; c.PostgresDSN = "postgres://x/y" }, false},
		{"db name with separator", func(c *Config) { c.DBName = "a" + string(os.PathSeparator) + "b.db" }, true},
		{"empty db name", func(c *Config) { c.DBName = "" }, true},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, true},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_UnknownEngineIsSentinel(t *testing.T) {
	cfg := Defaults()
	cfg.Engine = "mongo"
	if err := cfg.Validate(); !errors.Is(err, storage.ErrUnknownEngine) {
		t.Errorf("Validate() error = %v, want ErrUnknownEngine", err)
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name       string
		value      string
		defaultVal bool
		want       bool
	}{
		{"empty uses default true", "", true, true},
		{"empty uses default false", "", false, false},
		{"true", "true", false, true},
		{"1", "1", false, true},
		{"false", "false", true, false},
		{"0", "0", true, false},
		{"garbage uses default", "maybe", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_BOOL", tt.value)
			got := getEnvBool("TEST_BOOL", tt.defaultVal)
			if got != tt.want {
				t.Errorf("getEnvBool() = %v, want %v", got, tt.want)
			}
		})
	}
}
