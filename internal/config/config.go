// Package config provides centralized application configuration with
// support for YAML files, environment variable overrides, and defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the complete application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server" json:"server"`
	Database DatabaseConfig `yaml:"database" json:"database"`
	Scanner  ScannerConfig  `yaml:"scanner" json:"scanner"`
	Probe    ProbeConfig    `yaml:"probe" json:"probe"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string        `yaml:"host" json:"host" env:"VIDVAULT_HOST"`
	Port         int           `yaml:"port" json:"port" env:"VIDVAULT_PORT"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout" env:"VIDVAULT_READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout" env:"VIDVAULT_WRITE_TIMEOUT"`
	EnableCORS   bool          `yaml:"enable_cors" json:"enable_cors" env:"VIDVAULT_ENABLE_CORS"`
}

// DatabaseConfig holds catalog store configuration.
type DatabaseConfig struct {
	Type         string `yaml:"type" json:"type" env:"DATABASE_TYPE"`
	DataDir      string `yaml:"data_dir" json:"data_dir" env:"VIDVAULT_DATA_DIR"`
	DatabasePath string `yaml:"database_path" json:"database_path" env:"VIDVAULT_DATABASE_PATH"`
	Host         string `yaml:"host" json:"host" env:"POSTGRES_HOST"`
	Port         int    `yaml:"port" json:"port" env:"POSTGRES_PORT"`
	Username     string `yaml:"username" json:"username" env:"POSTGRES_USER"`
	Password     string `yaml:"password" json:"password" env:"POSTGRES_PASSWORD"`
	Database     string `yaml:"database" json:"database" env:"POSTGRES_DB"`
	LogQueries   bool   `yaml:"log_queries" json:"log_queries" env:"DB_LOG_QUERIES"`
}

// ScannerConfig holds directory scanning configuration.
type ScannerConfig struct {
	ParallelScanning bool          `yaml:"parallel_scanning" json:"parallel_scanning" env:"VIDVAULT_PARALLEL_SCANNING"`
	WorkerCount      int           `yaml:"worker_count" json:"worker_count" env:"VIDVAULT_WORKER_COUNT"`
	WatchEnabled     bool          `yaml:"watch_enabled" json:"watch_enabled" env:"VIDVAULT_WATCH_ENABLED"`
	WatchDirectories []string      `yaml:"watch_directories" json:"watch_directories"`
	ThrottleEnabled  bool          `yaml:"throttle_enabled" json:"throttle_enabled" env:"VIDVAULT_THROTTLE_ENABLED"`
	CPUThreshold     float64       `yaml:"cpu_threshold" json:"cpu_threshold" env:"VIDVAULT_CPU_THRESHOLD"`
	ThrottleDelay    time.Duration `yaml:"throttle_delay" json:"throttle_delay" env:"VIDVAULT_THROTTLE_DELAY"`
}

// ProbeConfig holds media prober configuration.
type ProbeConfig struct {
	FFprobePath string        `yaml:"ffprobe_path" json:"ffprobe_path" env:"VIDVAULT_FFPROBE_PATH"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout" env:"VIDVAULT_PROBE_TIMEOUT"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" json:"format" env:"LOG_FORMAT"`
}

// Manager handles configuration loading, access, and persistence.
type Manager struct {
	mu         sync.RWMutex
	config     *Config
	configPath string
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// GetManager returns the global configuration manager.
func GetManager() *Manager {
	managerOnce.Do(func() {
		globalManager = &Manager{config: DefaultConfig()}
	})
	return globalManager
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			EnableCORS:   true,
		},
		Database: DatabaseConfig{
			Type:     "sqlite",
			DataDir:  "./vidvault-data",
			Host:     "localhost",
			Port:     5432,
			Username: "vidvault",
			Database: "vidvault",
		},
		Scanner: ScannerConfig{
			ParallelScanning: false,
			WorkerCount:      4,
			ThrottleEnabled:  false,
			CPUThreshold:     85.0,
			ThrottleDelay:    250 * time.Millisecond,
		},
		Probe: ProbeConfig{
			FFprobePath: "ffprobe",
			Timeout:     30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from the given file (if it exists) and applies
// environment variable overrides on top of the defaults.
func (m *Manager) Load(configPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	config := DefaultConfig()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return fmt.Errorf("failed to read config file: %w", err)
			}
			if err := yaml.Unmarshal(data, config); err != nil {
				return fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	if err := applyEnvOverrides(reflect.ValueOf(config).Elem()); err != nil {
		return fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := validate(config); err != nil {
		return err
	}

	if config.Database.DatabasePath == "" {
		config.Database.DatabasePath = filepath.Join(config.Database.DataDir, "vidvault.db")
	}

	m.config = config
	m.configPath = configPath
	return nil
}

// Get returns the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// Save writes the current configuration back to the config file.
func (m *Manager) Save() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.configPath == "" {
		return fmt.Errorf("no config file path set")
	}

	data, err := yaml.Marshal(m.config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(m.configPath), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(m.configPath, data, 0o644)
}

// applyEnvOverrides walks the config struct and applies values from
// environment variables named by `env` struct tags.
func applyEnvOverrides(v reflect.Value) error {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		structField := t.Field(i)

		if field.Kind() == reflect.Struct && structField.Type != reflect.TypeOf(time.Duration(0)) {
			if err := applyEnvOverrides(field); err != nil {
				return err
			}
			continue
		}

		envName := structField.Tag.Get("env")
		if envName == "" {
			continue
		}
		envValue, ok := os.LookupEnv(envName)
		if !ok {
			continue
		}
		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("invalid value for %s: %w", envName, err)
		}
	}
	return nil
}

func setFieldValue(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
			return nil
		}
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(n)
	case reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
	default:
		return fmt.Errorf("unsupported field kind: %s", field.Kind())
	}
	return nil
}

func validate(config *Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}
	switch strings.ToLower(config.Database.Type) {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database type: %s", config.Database.Type)
	}
	if config.Scanner.WorkerCount < 1 {
		config.Scanner.WorkerCount = 1
	}
	return nil
}

// Get returns the global configuration.
func Get() *Config {
	return GetManager().Get()
}

// Load loads configuration using the global manager.
func Load(configPath string) error {
	return GetManager().Load(configPath)
}

// Save persists configuration using the global manager.
func Save() error {
	return GetManager().Save()
}
