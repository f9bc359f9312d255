package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/viper"
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8000",
			ShutdownTimeout: "10s",
			MaxUploadSize:   10 << 20,
		},
		Database: DatabaseConfig{
			Path: "locography.db",
		},
		Storage: StorageConfig{
			Type:  StorageLocal,
			Local: LocalStorageConfig{Dir: "./uploads"},
			Minio: MinioStorageConfig{
				Endpoint: "localhost:9000",
				Bucket:   "locography",
			},
		},
		LLM: LLMConfig{
			Enabled:     false,
			BaseURL:     "http://localhost:1234/v1",
			Model:       "llava",
			APIKey:      "",
			Temperature: 0.7,
			MaxTokens:   500,
			Timeout:     "60s",
		},
		Search: SearchConfig{
			DefaultLimit:     10,
			MaxLimit:         50,
			DefaultThreshold: 0.5,
			ReindexWorkers:   4,
		},
		Log: LogConfig{
			Level: "info",
			File:  "",
			JSON:  false,
			Rotation: LogRotationConfig{
				MaxSize:    128,
				MaxBackups: 5,
				MaxAge:     16,
				Compress:   false,
			},
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.max_upload_size", d.Server.MaxUploadSize)

	v.SetDefault("database.path", d.Database.Path)

	v.SetDefault("storage.type", d.Storage.Type)
	v.SetDefault("storage.local.dir", d.Storage.Local.Dir)
	v.SetDefault("storage.minio.endpoint", d.Storage.Minio.Endpoint)
	v.SetDefault("storage.minio.access_key", d.Storage.Minio.AccessKey)
	v.SetDefault("storage.minio.secret_key", d.Storage.Minio.SecretKey)
	v.SetDefault("storage.minio.use_ssl", d.Storage.Minio.UseSSL)
	v.SetDefault("storage.minio.bucket", d.Storage.Minio.Bucket)
	v.SetDefault("storage.minio.region", d.Storage.Minio.Region)

	v.SetDefault("llm.enabled", d.LLM.Enabled)
	v.SetDefault("llm.base_url", d.LLM.BaseURL)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.api_key", d.LLM.APIKey)
	v.SetDefault("llm.temperature", d.LLM.Temperature)
	v.SetDefault("llm.max_tokens", d.LLM.MaxTokens)
	v.SetDefault("llm.timeout", d.LLM.Timeout)

	v.SetDefault("search.default_limit", d.Search.DefaultLimit)
	v.SetDefault("search.max_limit", d.Search.MaxLimit)
	v.SetDefault("search.default_threshold", d.Search.DefaultThreshold)
	v.SetDefault("search.reindex_workers", d.Search.ReindexWorkers)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.json", d.Log.JSON)
	v.SetDefault("log.rotation.max_size", d.Log.Rotation.MaxSize)
	v.SetDefault("log.rotation.max_backups", d.Log.Rotation.MaxBackups)
	v.SetDefault("log.rotation.max_age", d.Log.Rotation.MaxAge)
	v.SetDefault("log.rotation.compress", d.Log.Rotation.Compress)
}

// WriteDefault writes the default configuration as commented YAML.
func WriteDefault(w io.Writer) error {
	def := Default()

	comments := yaml.CommentMap{
		"$.server.addr":             {yaml.HeadComment(fmt.Sprintf(" address to listen on (default: %v)", def.Server.Addr))},
		"$.server.shutdown_timeout": {yaml.HeadComment(fmt.Sprintf(" how long to wait for requests on shutdown (default: %v)", def.Server.ShutdownTimeout))},
		"$.server.max_upload_size":  {yaml.HeadComment(fmt.Sprintf(" maximum photo upload size in bytes (default: %v)", def.Server.MaxUploadSize))},

		"$.database.path": {yaml.HeadComment(fmt.Sprintf(" sqlite database file (default: %v)", def.Database.Path))},

		"$.storage.type":             {yaml.HeadComment(fmt.Sprintf(" where photos are kept, local or minio (default: %v)", def.Storage.Type))},
		"$.storage.local.dir":        {yaml.HeadComment(fmt.Sprintf(" directory for local photo storage (default: %v)", def.Storage.Local.Dir))},
		"$.storage.minio.endpoint":   {yaml.HeadComment(fmt.Sprintf(" minio/s3 endpoint host:port (default: %v)", def.Storage.Minio.Endpoint))},
		"$.storage.minio.access_key": {yaml.HeadComment(" minio/s3 access key")},
		"$.storage.minio.secret_key": {yaml.HeadComment(" minio/s3 secret key")},
		"$.storage.minio.use_ssl":    {yaml.HeadComment(fmt.Sprintf(" connect using https (default: %v)", def.Storage.Minio.UseSSL))},
		"$.storage.minio.bucket":     {yaml.HeadComment(fmt.Sprintf(" bucket name, created if missing (default: %v)", def.Storage.Minio.Bucket))},
		"$.storage.minio.region":     {yaml.HeadComment(" bucket region, optional for minio")},

		"$.llm.enabled":     {yaml.HeadComment(fmt.Sprintf(" enable AI descriptions and tags for photos (default: %v)", def.LLM.Enabled))},
		"$.llm.base_url":    {yaml.HeadComment(fmt.Sprintf(" OpenAI-compatible API base url, e.g. LM Studio or Ollama (default: %v)", def.LLM.BaseURL))},
		"$.llm.model":       {yaml.HeadComment(fmt.Sprintf(" vision model name (default: %v)", def.LLM.Model))},
		"$.llm.api_key":     {yaml.HeadComment(" api key, if the endpoint needs one")},
		"$.llm.temperature": {yaml.HeadComment(fmt.Sprintf(" sampling temperature (default: %v)", def.LLM.Temperature))},
		"$.llm.max_tokens":  {yaml.HeadComment(fmt.Sprintf(" maximum tokens per reply (default: %v)", def.LLM.MaxTokens))},
		"$.llm.timeout":     {yaml.HeadComment(fmt.Sprintf(" request timeout (default: %v)", def.LLM.Timeout))},

		"$.search.default_limit":     {yaml.HeadComment(fmt.Sprintf(" image search results when no limit is given (default: %v)", def.Search.DefaultLimit))},
		"$.search.max_limit":         {yaml.HeadComment(fmt.Sprintf(" largest accepted image search limit (default: %v)", def.Search.MaxLimit))},
		"$.search.default_threshold": {yaml.HeadComment(fmt.Sprintf(" minimum similarity (0-1) when no threshold is given (default: %v)", def.Search.DefaultThreshold))},
		"$.search.reindex_workers":   {yaml.HeadComment(fmt.Sprintf(" concurrent feature extractions during reindex (default: %v)", def.Search.ReindexWorkers))},

		"$.log.level":                {yaml.HeadComment(fmt.Sprintf(" debug, info, warn or error (default: %v)", def.Log.Level))},
		"$.log.file":                 {yaml.HeadComment(" also write logs to this file, rotated")},
		"$.log.json":                 {yaml.HeadComment(fmt.Sprintf(" log as json instead of text (default: %v)", def.Log.JSON))},
		"$.log.rotation.max_size":    {yaml.HeadComment(fmt.Sprintf(" megabytes before a log file is rotated (default: %v)", def.Log.Rotation.MaxSize))},
		"$.log.rotation.max_backups": {yaml.HeadComment(fmt.Sprintf(" rotated files to keep (default: %v)", def.Log.Rotation.MaxBackups))},
		"$.log.rotation.max_age":     {yaml.HeadComment(fmt.Sprintf(" days to keep rotated files (default: %v)", def.Log.Rotation.MaxAge))},
		"$.log.rotation.compress":    {yaml.HeadComment(fmt.Sprintf(" gzip rotated files (default: %v)", def.Log.Rotation.Compress))},
	}

	return yaml.NewEncoder(w, yaml.WithComment(comments)).Encode(def)
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("log.level: unknown level %q", s)
}
