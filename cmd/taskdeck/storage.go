package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rezkam/taskdeck/internal/config"
	"github.com/rezkam/taskdeck/internal/kvstore"
	fsstore "github.com/rezkam/taskdeck/internal/kvstore/fs"
	"github.com/rezkam/taskdeck/internal/kvstore/gcs"
	"github.com/rezkam/taskdeck/internal/kvstore/memory"
	"github.com/rezkam/taskdeck/internal/kvstore/postgres"
	"github.com/rezkam/taskdeck/internal/kvstore/redis"
	"github.com/rezkam/taskdeck/internal/kvstore/sqlite"
)

// openStore opens the session backend selected by TASKDECK_STORAGE.
func openStore(ctx context.Context, cfg *config.Config) (kvstore.Store, error) {
	sc := cfg.Storage

	switch sc.Type {
	case config.StorageMemory:
		return memory.NewStore(), nil

	case config.StorageFS:
		dir, err := sc.Dir()
		if err != nil {
			return nil, err
		}
		return fsstore.NewStore(dir)

	case config.StorageSQLite:
		path, err := sc.SQLiteFile()
		if err != nil {
			return nil, err
		}
		return sqlite.NewStore(ctx, path)

	case config.StoragePostgres:
		db := cfg.Database
		return postgres.NewStoreWithConfig(ctx, postgres.DBConfig{
			DSN:             db.DSN,
			MaxConns:        db.MaxConns,
			MinConns:        db.MinConns,
			ConnMaxLifetime: time.Duration(db.ConnMaxLifetime) * time.Second,
			ConnMaxIdleTime: time.Duration(db.ConnMaxIdleTime) * time.Second,
			AutoMigrate:     db.AutoMigrate,
		})

	case config.StorageRedis:
		return redis.NewStore(ctx, sc.RedisURL, sc.RedisPrefix)

	case config.StorageGCS:
		return gcs.NewStore(ctx, sc.GCSBucket, sc.GCSPrefix, sc.GCSEndpoint)

	default:
		return nil, fmt.Errorf("unknown storage type: %s", sc.Type)
	}
}
