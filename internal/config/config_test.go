package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	v := viper.New()
	t.Chdir(t.TempDir())
	require.NoError(t, Init(v, ""))

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout())
	assert.Equal(t, int64(10<<20), cfg.Server.MaxUploadSize)
	assert.Equal(t, StorageLocal, cfg.Storage.Type)
	assert.False(t, cfg.LLM.Enabled)
	assert.Equal(t, time.Minute, cfg.LLMTimeout())
	assert.Equal(t, 10, cfg.Search.DefaultLimit)
	assert.Equal(t, 50, cfg.Search.MaxLimit)
	assert.InDelta(t, 0.5, cfg.Search.DefaultThreshold, 1e-9)
	assert.Equal(t, 128, cfg.Log.Rotation.MaxSize)
}

func TestInitLoadsDotEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, os.WriteFile(".env", []byte("LOCOGRAPHY_DATABASE_PATH=dotenv.db\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("LOCOGRAPHY_DATABASE_PATH") })

	v := viper.New()
	require.NoError(t, Init(v, ""))
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "dotenv.db", cfg.Database.Path)
}

func TestInitUnreadableDotEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, os.Mkdir(".env", 0o755))

	err := Init(viper.New(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ".env")
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  addr: ":9000"
storage:
  type: minio
  minio:
    endpoint: "s3.local:9000"
    bucket: photos
search:
  default_threshold: 0.8
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("LOCOGRAPHY_DATABASE_PATH", "/tmp/env.db")

	v := viper.New()
	require.NoError(t, Init(v, path))
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, StorageMinio, cfg.Storage.Type)
	assert.Equal(t, "s3.local:9000", cfg.Storage.Minio.Endpoint)
	assert.Equal(t, "photos", cfg.Storage.Minio.Bucket)
	assert.InDelta(t, 0.8, cfg.Search.DefaultThreshold, 1e-9)
	assert.Equal(t, "/tmp/env.db", cfg.Database.Path)
	// Untouched keys keep their defaults.
	assert.Equal(t, 50, cfg.Search.MaxLimit)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"bad shutdown timeout", func(c *Config) { c.Server.ShutdownTimeout = "soon" }},
		{"zero upload size", func(c *Config) { c.Server.MaxUploadSize = 0 }},
		{"no database", func(c *Config) { c.Database.Path = "" }},
		{"unknown storage", func(c *Config) { c.Storage.Type = "ftp" }},
		{"minio without bucket", func(c *Config) {
			c.Storage.Type = StorageMinio
			c.Storage.Minio.Bucket = ""
		}},
		{"llm without url", func(c *Config) {
			c.LLM.Enabled = true
			c.LLM.BaseURL = ""
		}},
		{"default above max", func(c *Config) { c.Search.DefaultLimit = 100 }},
		{"threshold above one", func(c *Config) { c.Search.DefaultThreshold = 1.5 }},
		{"unknown level", func(c *Config) { c.Log.Level = "loud" }},
	}

	def := Default()
	require.NoError(t, def.Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestWriteDefault(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDefault(&buf))

	out := buf.String()
	assert.Contains(t, out, "# address to listen on")
	assert.Contains(t, out, "max_upload_size")

	var decoded Config
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	def := Default()
	assert.Equal(t, def.Server, decoded.Server)
	assert.Equal(t, def.Storage, decoded.Storage)
	assert.Equal(t, def.Search, decoded.Search)
	assert.Equal(t, def.Log, decoded.Log)
}

func TestParseLevel(t *testing.T) {
	for _, name := range []string{"debug", "INFO", "warn", "warning", "error", ""} {
		_, err := ParseLevel(name)
		assert.NoError(t, err, name)
	}
	_, err := ParseLevel("trace")
	assert.Error(t, err)
}
