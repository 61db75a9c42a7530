package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/listdex/internal/domain/record"
)

// Source types.
const (
	SourceFile   = "file"
	SourceRedis  = "redis"
	SourceSQLite = "sqlite"
)

// Config holds the listdex API configuration.
type Config struct {
	HTTP     HTTPConfig      `yaml:"http"`
	Database DatabaseConfig  `yaml:"database"`
	Auth     AuthConfig      `yaml:"auth"`
	Logging  LoggingConfig   `yaml:"logging"`
	Datasets []DatasetConfig `yaml:"datasets"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds connection settings for snapshot sources.
type DatabaseConfig struct {
	Redis  RedisConfig  `yaml:"redis"`
	SQLite SQLiteConfig `yaml:"sqlite"`
}

// RedisConfig holds Redis/Valkey connection settings.
type RedisConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// SQLiteConfig holds the SQLite database location.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// DatasetConfig describes one listed dataset.
type DatasetConfig struct {
	Name             string            `yaml:"name"`
	Source           SourceConfig      `yaml:"source"`
	SearchableFields []string          `yaml:"searchable_fields"`
	Schema           map[string]string `yaml:"schema"`
	Collation        string            `yaml:"collation"`
	DefaultPageSize  int               `yaml:"default_page_size"`
	MaxPageSize      int               `yaml:"max_page_size"`
	RefreshInterval  int               `yaml:"refresh_interval_sec"` // 0 = load once
}

// SourceConfig says where a dataset snapshot comes from.
type SourceConfig struct {
	Type       string `yaml:"type"`        // file, redis, sqlite
	Path       string `yaml:"path"`        // file
	KeyPattern string `yaml:"key_pattern"` // redis
	Query      string `yaml:"query"`       // sqlite
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse expands env variables, decodes YAML, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Redis.ReadinessTimeout <= 0 {
		c.Database.Redis.ReadinessTimeout = 10
	}
	for i := range c.Datasets {
		d := &c.Datasets[i]
		if d.Source.Type == "" {
			d.Source.Type = SourceFile
		}
		if d.DefaultPageSize <= 0 {
			d.DefaultPageSize = 20
		}
		if d.MaxPageSize <= 0 {
			d.MaxPageSize = 100
		}
		if d.Collation == "" {
			d.Collation = "und"
		}
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	seen := make(map[string]struct{}, len(c.Datasets))
	var usesRedis, usesSQLite bool
	for i, d := range c.Datasets {
		if d.Name == "" {
			return fmt.Errorf("datasets[%d].name is required", i)
		}
		if _, dup := seen[d.Name]; dup {
			return fmt.Errorf("datasets[%d].name %q is duplicated", i, d.Name)
		}
		seen[d.Name] = struct{}{}

		switch d.Source.Type {
		case SourceFile:
			if d.Source.Path == "" {
				return fmt.Errorf("datasets.%s.source.path is required for file sources", d.Name)
			}
		case SourceRedis:
			if d.Source.KeyPattern == "" {
				return fmt.Errorf("datasets.%s.source.key_pattern is required for redis sources", d.Name)
			}
			usesRedis = true
		case SourceSQLite:
			if d.Source.Query == "" {
				return fmt.Errorf("datasets.%s.source.query is required for sqlite sources", d.Name)
			}
			usesSQLite = true
		default:
			return fmt.Errorf(
				"datasets.%s.source.type must be \"file\", \"redis\" or \"sqlite\", got %q",
				d.Name, d.Source.Type,
			)
		}

		if _, err := language.Parse(d.Collation); err != nil {
			return fmt.Errorf("datasets.%s.collation %q: %w", d.Name, d.Collation, err)
		}
		if _, err := record.ParseSchema(d.Schema); err != nil {
			return fmt.Errorf("datasets.%s.schema: %w", d.Name, err)
		}
		if d.DefaultPageSize > d.MaxPageSize {
			return fmt.Errorf("datasets.%s.default_page_size exceeds max_page_size", d.Name)
		}
		if d.RefreshInterval < 0 {
			return fmt.Errorf("datasets.%s.refresh_interval_sec must not be negative", d.Name)
		}
	}

	if usesRedis && len(c.Database.Redis.Addrs) == 0 {
		return fmt.Errorf("database.redis.addrs is required")
	}
	if usesSQLite && c.Database.SQLite.Path == "" {
		return fmt.Errorf("database.sqlite.path is required")
	}
	return nil
}

// UsesSource reports whether any dataset loads from the given source type.
func (c *Config) UsesSource(typ string) bool {
	for _, d := range c.Datasets {
		if d.Source.Type == typ {
			return true
		}
	}
	return false
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
