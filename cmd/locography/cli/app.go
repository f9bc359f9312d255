package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/viper"

	"github.com/erazemk/locography/internal/catalog"
	"github.com/erazemk/locography/internal/config"
	"github.com/erazemk/locography/internal/db"
	"github.com/erazemk/locography/internal/llm"
	"github.com/erazemk/locography/internal/logging"
	"github.com/erazemk/locography/internal/storage"
)

// app holds what serve and reindex share.
type app struct {
	cfg     *config.Config
	db      *sqlx.DB
	llm     *llm.Client
	catalog *catalog.Service
	cleanup []func()
}

// setup loads the configuration, installs the logger and opens the database
// and photo storage.
func setup(ctx context.Context) (*app, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	level, _ := config.ParseLevel(cfg.Log.Level)
	a := &app{cfg: cfg}
	a.cleanup = append(a.cleanup, logging.Setup(logging.Options{
		Level:      level,
		JSON:       cfg.Log.JSON,
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.Rotation.MaxSize,
		MaxBackups: cfg.Log.Rotation.MaxBackups,
		MaxAge:     cfg.Log.Rotation.MaxAge,
		Compress:   cfg.Log.Rotation.Compress,
	}))

	a.db, err = db.Open(cfg.Database.Path)
	if err != nil {
		a.close()
		return nil, err
	}
	a.cleanup = append(a.cleanup, func() { a.db.Close() })

	if err := db.EnsureSchema(a.db); err != nil {
		a.close()
		return nil, err
	}
	slog.Info("database ready", "path", cfg.Database.Path)

	st, err := openStorage(ctx, cfg.Storage)
	if err != nil {
		a.close()
		return nil, err
	}

	a.llm = llm.New(llm.Config{
		Enabled:     cfg.LLM.Enabled,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		APIKey:      cfg.LLM.APIKey,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLMTimeout(),
	})
	if a.llm.Enabled() {
		slog.Info("llm analysis enabled", "base_url", cfg.LLM.BaseURL, "model", cfg.LLM.Model)
	}

	a.catalog = catalog.New(a.db, st, a.llm)
	return a, nil
}

// close releases resources in reverse order.
func (a *app) close() {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		a.cleanup[i]()
	}
}

func openStorage(ctx context.Context, cfg config.StorageConfig) (storage.Storage, error) {
	switch cfg.Type {
	case config.StorageMinio:
		st, err := storage.NewMinio(ctx, storage.MinioConfig{
			Endpoint:        cfg.Minio.Endpoint,
			AccessKeyID:     cfg.Minio.AccessKey,
			SecretAccessKey: cfg.Minio.SecretKey,
			UseSSL:          cfg.Minio.UseSSL,
			Bucket:          cfg.Minio.Bucket,
			Region:          cfg.Minio.Region,
		})
		if err != nil {
			return nil, err
		}
		slog.Info("photo storage ready", "type", cfg.Type, "endpoint", cfg.Minio.Endpoint, "bucket", cfg.Minio.Bucket)
		return st, nil
	default:
		st, err := storage.NewLocal(cfg.Local.Dir)
		if err != nil {
			return nil, err
		}
		slog.Info("photo storage ready", "type", config.StorageLocal, "dir", cfg.Local.Dir)
		return st, nil
	}
}
