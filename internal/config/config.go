// ABOUTME: Centralized configuration for the study data service
// ABOUTME: Loads an optional YAML file, then environment variables, with validation and defaults
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/thumbcoded/kemmei-app-sub000/internal/storage"
)

// Engine names accepted by KEMMEI_ENGINE
const (
	EngineNative   = "native"
	EngineEmbedded = "embedded"
	EnginePostgres = "postgres"
	EngineCharm    = "charm"
)

// DefaultDomainMapName is the domain-map file looked up inside the data directory
const DefaultDomainMapName = "domainmap.json"

// Config holds all configuration for the service
type Config struct {
	// Storage settings
	Engine        string `yaml:"engine"`
	DataDir       string `yaml:"data_dir"`
	DBName        string `yaml:"db_name"`
	DomainMapPath string `yaml:"domain_map"`
	PostgresDSN   string `yaml:"postgres_dsn"`

	// Charm settings
	CharmHost   string `yaml:"charm_host"`
	CharmDBName string `yaml:"charm_db"`
	AutoSync    bool   `yaml:"auto_sync"`

	// Surfaces
	HTTPAddr string `yaml:"http_addr"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Defaults returns the built-in configuration
func Defaults() *Config {
	cfg := defaults()
	cfg.deriveDomainMapPath()
	return cfg
}

func defaults() *Config {
	return &Config{
		Engine:      EngineEmbedded,
		DataDir:     storage.DefaultDataDir(),
		DBName:      storage.DefaultDBName,
		CharmHost:   "charm.2389.dev",
		CharmDBName: storage.AppDirName,
		AutoSync:    true,
		HTTPAddr:    ":4000",
		LogLevel:    "info",
		LogFormat:   "console",
	}
}

// Load reads configuration: defaults, then the KEMMEI_CONFIG file if set, then environment variables.
// An unset domain map resolves inside the final data directory.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("KEMMEI_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	cfg.Engine = strings.ToLower(getEnv("KEMMEI_ENGINE", cfg.Engine))
	cfg.DataDir = getEnv("KEMMEI_DATA_DIR", cfg.DataDir)
	cfg.DBName = getEnv("KEMMEI_DB_NAME", cfg.DBName)
	cfg.DomainMapPath = getEnv("KEMMEI_DOMAIN_MAP", cfg.DomainMapPath)
	cfg.PostgresDSN = getEnv("KEMMEI_POSTGRES_DSN", cfg.PostgresDSN)
	cfg.CharmHost = getEnv("CHARM_HOST", cfg.CharmHost)
	cfg.CharmDBName = getEnv("CHARM_DB", cfg.CharmDBName)
	cfg.AutoSync = getEnvBool("CHARM_AUTO_SYNC", cfg.AutoSync)
	cfg.HTTPAddr = getEnv("KEMMEI_HTTP_ADDR", cfg.HTTPAddr)
	cfg.LogLevel = getEnv("KEMMEI_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("KEMMEI_LOG_FORMAT", cfg.LogFormat)
	cfg.deriveDomainMapPath()

	return cfg, cfg.Validate()
}

func (c *Config) deriveDomainMapPath() {
	if c.DomainMapPath == "" {
		c.DomainMapPath = filepath.Join(c.DataDir, DefaultDomainMapName)
	}
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks value ranges and engine requirements
func (c *Config) Validate() error {
	switch c.Engine {
	case EngineNative, EngineEmbedded, EngineCharm:
	case EnginePostgres:
		if c.PostgresDSN == "" {
			return errors.New("KEMMEI_POSTGRES_DSN is required for the postgres engine")
		}
	default:
		return fmt.Errorf("%w: KEMMEI_ENGINE must be native, embedded, postgres or charm, got %q", storage.ErrUnknownEngine, c.Engine)
	}
	if c.DBName == "" || strings.ContainsRune(c.DBName, os.PathSeparator) {
		return fmt.Errorf("KEMMEI_DB_NAME must be a plain file name, got %q", c.DBName)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("KEMMEI_LOG_LEVEL must be debug, info, warn or error, got %q", c.LogLevel)
	}
	switch strings.ToLower(c.LogFormat) {
	case "console", "json":
	default:
		return fmt.Errorf("KEMMEI_LOG_FORMAT must be console or json, got %q", c.LogFormat)
	}
	return nil
}

// DBPath returns the database file path inside the data directory
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, c.DBName)
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return defaultVal
}
