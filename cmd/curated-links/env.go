package main

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/joestump/curated-links/internal/assets"
	"github.com/joestump/curated-links/internal/config"
	"github.com/joestump/curated-links/internal/db"
)

// newLogger builds the process logger from the log section of the config.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid log level %q", cfg.Log.Level)
	}

	var zc zap.Config
	if cfg.Log.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// openDB connects and brings the schema up to date.
func openDB(cfg *config.Config) (*sqlx.DB, error) {
	database, err := db.New(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	if err := db.Migrate(database, cfg.DB.Driver); err != nil {
		_ = database.Close()
		return nil, errors.Wrap(err, "migrate database")
	}
	return database, nil
}

// newAssetStore returns the object store selected by CURATED_ASSETS_BACKEND.
func newAssetStore(ctx context.Context, cfg config.AssetsConfig, log *zap.Logger) (assets.Store, error) {
	switch cfg.Backend {
	case "memory":
		log.Warn("using in-memory asset store; images are lost on restart")
		return assets.NewMemoryStore(cfg.PublicBaseURL), nil
	default:
		return assets.NewS3Store(ctx, assets.S3Config{
			Region:          cfg.Region,
			Bucket:          cfg.Bucket,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			Endpoint:        cfg.Endpoint,
			UsePathStyle:    cfg.UsePathStyle,
			PublicBaseURL:   cfg.PublicBaseURL,
		})
	}
}
