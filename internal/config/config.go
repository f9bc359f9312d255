// Package config loads Locography settings from defaults, a YAML file,
// .env files and LOCOGRAPHY_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to environment variable overrides,
// e.g. LOCOGRAPHY_SERVER_ADDR.
const EnvPrefix = "LOCOGRAPHY"

// Storage backends.
const (
	StorageLocal = "local"
	StorageMinio = "minio"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"   yaml:"server"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Storage  StorageConfig  `mapstructure:"storage"  yaml:"storage"`
	LLM      LLMConfig      `mapstructure:"llm"      yaml:"llm"`
	Search   SearchConfig   `mapstructure:"search"   yaml:"search"`
	Log      LogConfig      `mapstructure:"log"      yaml:"log"`
}

type ServerConfig struct {
	Addr            string `mapstructure:"addr"             yaml:"addr"`
	ShutdownTimeout string `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	MaxUploadSize   int64  `mapstructure:"max_upload_size"  yaml:"max_upload_size"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

type StorageConfig struct {
	Type  string             `mapstructure:"type"  yaml:"type"`
	Local LocalStorageConfig `mapstructure:"local" yaml:"local"`
	Minio MinioStorageConfig `mapstructure:"minio" yaml:"minio"`
}

type LocalStorageConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

type MinioStorageConfig struct {
	Endpoint  string `mapstructure:"endpoint"   yaml:"endpoint"`
	AccessKey string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"    yaml:"use_ssl"`
	Bucket    string `mapstructure:"bucket"     yaml:"bucket"`
	Region    string `mapstructure:"region"     yaml:"region"`
}

type LLMConfig struct {
	Enabled     bool    `mapstructure:"enabled"     yaml:"enabled"`
	BaseURL     string  `mapstructure:"base_url"    yaml:"base_url"`
	Model       string  `mapstructure:"model"       yaml:"model"`
	APIKey      string  `mapstructure:"api_key"     yaml:"api_key"`
	Temperature float32 `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"  yaml:"max_tokens"`
	Timeout     string  `mapstructure:"timeout"     yaml:"timeout"`
}

type SearchConfig struct {
	DefaultLimit     int     `mapstructure:"default_limit"     yaml:"default_limit"`
	MaxLimit         int     `mapstructure:"max_limit"         yaml:"max_limit"`
	DefaultThreshold float64 `mapstructure:"default_threshold" yaml:"default_threshold"`
	ReindexWorkers   int     `mapstructure:"reindex_workers"   yaml:"reindex_workers"`
}

type LogConfig struct {
	Level    string            `mapstructure:"level"    yaml:"level"`
	File     string            `mapstructure:"file"     yaml:"file"`
	JSON     bool              `mapstructure:"json"     yaml:"json"`
	Rotation LogRotationConfig `mapstructure:"rotation" yaml:"rotation"`
}

type LogRotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"    yaml:"max_size"`
	MaxBackups int  `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"     yaml:"max_age"`
	Compress   bool `mapstructure:"compress"    yaml:"compress"`
}

// Init points v at the config file (path, or config.yaml in the usual
// directories), loads .env files next to it and enables environment overrides.
// A missing config file is not an error.
func Init(v *viper.Viper, path string) error {
	envFiles := []string{".env", ".env.local"}
	dirs := []string{".", "/etc/locography"}

	if path != "" {
		v.SetConfigFile(path)
		dirs = []string{".", filepath.Dir(path)}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		for _, dir := range dirs {
			v.AddConfigPath(dir)
		}
	}

	// Missing .env files are ignored, unreadable ones are not.
	for _, dir := range dirs {
		for _, envFile := range envFiles {
			envPath := filepath.Join(dir, envFile)
			if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("loading %s: %w", envPath, err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config file: %w", err)
		}
	}
	return nil
}

// Load applies defaults to v and decodes and validates the configuration.
func Load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that can't be expressed by types alone.
func (c *Config) Validate() error {
	var errs []error

	if _, err := time.ParseDuration(c.Server.ShutdownTimeout); err != nil {
		errs = append(errs, fmt.Errorf("server.shutdown_timeout: %w", err))
	}
	if c.Server.MaxUploadSize <= 0 {
		errs = append(errs, errors.New("server.max_upload_size must be positive"))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}

	switch c.Storage.Type {
	case StorageLocal:
		if c.Storage.Local.Dir == "" {
			errs = append(errs, errors.New("storage.local.dir is required"))
		}
	case StorageMinio:
		if c.Storage.Minio.Endpoint == "" || c.Storage.Minio.Bucket == "" {
			errs = append(errs, errors.New("storage.minio.endpoint and storage.minio.bucket are required"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.type must be %q or %q, got %q", StorageLocal, StorageMinio, c.Storage.Type))
	}

	if _, err := time.ParseDuration(c.LLM.Timeout); err != nil {
		errs = append(errs, fmt.Errorf("llm.timeout: %w", err))
	}
	if c.LLM.Enabled && c.LLM.BaseURL == "" {
		errs = append(errs, errors.New("llm.base_url is required when llm is enabled"))
	}

	if c.Search.DefaultLimit < 1 || c.Search.MaxLimit < c.Search.DefaultLimit {
		errs = append(errs, errors.New("search limits must satisfy 1 <= default_limit <= max_limit"))
	}
	if c.Search.DefaultThreshold < 0 || c.Search.DefaultThreshold > 1 {
		errs = append(errs, errors.New("search.default_threshold must be within [0, 1]"))
	}

	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// ShutdownTimeout returns the parsed server shutdown timeout.
func (c *Config) ShutdownTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Server.ShutdownTimeout)
	return d
}

// LLMTimeout returns the parsed LLM request timeout.
func (c *Config) LLMTimeout() time.Duration {
	d, _ := time.ParseDuration(c.LLM.Timeout)
	return d
}
