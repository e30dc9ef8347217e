package blob

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Tanvin-Ahmed/file-management-server/internal/drive/biz"
	"github.com/Tanvin-Ahmed/file-management-server/internal/pkg/logger"
	pkgminio "github.com/Tanvin-Ahmed/file-management-server/internal/pkg/minio"
)

// Backend names a BlobStore implementation
type Backend string

const (
	BackendMinIO  Backend = "minio"
	BackendS3     Backend = "s3"
	BackendMemory Backend = "memory"
)

// Config selects and configures the blob backend
type Config struct {
	Backend Backend         `mapstructure:"backend" validate:"omitempty,oneof=minio s3 memory"`
	Bucket  string          `mapstructure:"bucket"`
	Prefix  string          `mapstructure:"prefix"`
	MinIO   pkgminio.Config `mapstructure:"minio"`
	S3      S3Config        `mapstructure:"s3"`
}

// New opens the configured backend. The returned close func releases the
// underlying client and is never nil.
func New(ctx context.Context, cfg Config, log *logger.Logger) (biz.BlobStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case BackendMemory:
		log.Warn("using in-memory blob store, content is lost on restart")
		return NewMemoryStore(), noop, nil

	case BackendS3:
		s3cfg := cfg.S3
		if s3cfg.Bucket == "" {
			s3cfg.Bucket = cfg.Bucket
		}
		if s3cfg.KeyPrefix == "" {
			s3cfg.KeyPrefix = cfg.Prefix
		}
		client, err := NewS3Client(ctx, s3cfg)
		if err != nil {
			return nil, noop, err
		}
		store := NewS3Store(client, s3cfg, log)
		if err := store.Ping(ctx); err != nil {
			return nil, noop, fmt.Errorf("s3 bucket %s not reachable: %w", s3cfg.Bucket, err)
		}
		log.Info("blob store ready", zap.String("backend", "s3"), zap.String("bucket", s3cfg.Bucket))
		return store, noop, nil

	case BackendMinIO, "":
		mcfg := cfg.MinIO
		mcfg.SetDefaults()
		client, err := pkgminio.NewClient(&mcfg, log.Logger)
		if err != nil {
			return nil, noop, err
		}
		if err := client.EnsureBucket(ctx, cfg.Bucket, mcfg.Region); err != nil {
			_ = client.Close()
			return nil, noop, err
		}
		log.Info("blob store ready", zap.String("backend", "minio"), zap.String("bucket", cfg.Bucket))
		return NewMinIOStore(client, cfg.Bucket, cfg.Prefix, log), client.Close, nil
	}

	return nil, noop, fmt.Errorf("unknown blob backend %q", cfg.Backend)
}
