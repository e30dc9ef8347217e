// Package data opens the process-wide stores: PostgreSQL, Redis and the blob backend.
package data

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Tanvin-Ahmed/file-management-server/internal/conf"
	"github.com/Tanvin-Ahmed/file-management-server/internal/drive/biz"
	"github.com/Tanvin-Ahmed/file-management-server/internal/drive/blob"
	drivedata "github.com/Tanvin-Ahmed/file-management-server/internal/drive/data"
	"github.com/Tanvin-Ahmed/file-management-server/internal/pkg/database"
	"github.com/Tanvin-Ahmed/file-management-server/internal/pkg/logger"
	"github.com/Tanvin-Ahmed/file-management-server/internal/pkg/redis"
	userdata "github.com/Tanvin-Ahmed/file-management-server/internal/user/data"
)

const startupTimeout = 30 * time.Second

type Data struct {
	DB     *database.DB
	Redis  *redis.Client
	Blobs  biz.BlobStore
	logger *logger.Logger

	closeBlobs func() error
}

func NewData(config *conf.Config, log *logger.Logger) (*Data, func(), error) {
	log = log.Named("data")

	db, err := database.New(&config.Database, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init database: %w", err)
	}

	models := append([]interface{}{&userdata.UserPO{}}, drivedata.Models()...)
	if err := db.AutoMigrate(models...); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	rdb, err := redis.New(&config.Redis, log)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to init redis: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()
	blobs, closeBlobs, err := blob.New(ctx, config.Blob, log)
	if err != nil {
		_ = rdb.Close()
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to init blob store: %w", err)
	}

	d := &Data{
		DB:         db,
		Redis:      rdb,
		Blobs:      blobs,
		logger:     log,
		closeBlobs: closeBlobs,
	}

	cleanup := func() {
		log.Info("cleaning up data resources")
		if err := d.closeBlobs(); err != nil {
			log.Warn("failed to close blob store", zap.Error(err))
		}
		if err := d.Redis.Close(); err != nil {
			log.Warn("failed to close redis", zap.Error(err))
		}
		if err := d.DB.Close(); err != nil {
			log.Warn("failed to close database", zap.Error(err))
		}
	}

	return d, cleanup, nil
}

// Check pings every dependency. A nil entry means healthy.
func (d *Data) Check(ctx context.Context) map[string]error {
	return map[string]error{
		"database": d.DB.HealthCheck(ctx),
		"redis":    d.Redis.Ping(ctx),
		"blob":     d.Blobs.Ping(ctx),
	}
}

func GormDB(d *Data) *gorm.DB { return d.DB.DB }

func BlobStore(d *Data) biz.BlobStore { return d.Blobs }

func RedisClient(d *Data) *redis.Client { return d.Redis }
