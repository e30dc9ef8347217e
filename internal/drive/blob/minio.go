package blob

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Tanvin-Ahmed/file-management-server/internal/drive/biz"
	"github.com/Tanvin-Ahmed/file-management-server/internal/pkg/logger"
	"github.com/Tanvin-Ahmed/file-management-server/internal/pkg/metrics"
	pkgminio "github.com/Tanvin-Ahmed/file-management-server/internal/pkg/minio"
)

// MinIOStore keeps blobs as objects in one bucket, keyed prefix+id
type MinIOStore struct {
	client *pkgminio.Client
	bucket string
	prefix string
	logger *logger.Logger
}

func NewMinIOStore(client *pkgminio.Client, bucket, prefix string, log *logger.Logger) *MinIOStore {
	return &MinIOStore{client: client, bucket: bucket, prefix: prefix, logger: log.Named("blob.minio")}
}

func (s *MinIOStore) key(id string) string { return s.prefix + id }

func (s *MinIOStore) Put(ctx context.Context, r io.Reader, size int64, contentType, filename string) (id string, err error) {
	start := time.Now()
	defer func() { metrics.ObserveBlobOperation("minio", "put", start, err) }()

	id = newID()
	_, err = s.client.PutObject(ctx, s.bucket, s.key(id), r, size, pkgminio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: map[string]string{metaFilename: filename},
	})
	if err != nil {
		// a cancelled multipart put may leave parts behind
		if abortErr := s.client.RemoveIncompleteUpload(context.WithoutCancel(ctx), s.bucket, s.key(id)); abortErr != nil && !pkgminio.IsNotFound(abortErr) {
			s.logger.Warn("failed to abort incomplete upload", zap.String("blob_id", id), zap.Error(abortErr))
		}
		return "", err
	}
	return id, nil
}

func (s *MinIOStore) Get(ctx context.Context, id string) (rc io.ReadCloser, info biz.BlobInfo, err error) {
	start := time.Now()
	defer func() { metrics.ObserveBlobOperation("minio", "get", start, err) }()

	rc, oi, err := s.client.GetObject(ctx, s.bucket, s.key(id))
	if err != nil {
		return nil, biz.BlobInfo{}, s.mapErr(id, err)
	}
	return rc, toBlobInfo(oi), nil
}

func (s *MinIOStore) Stat(ctx context.Context, id string) (biz.BlobInfo, error) {
	oi, err := s.client.StatObject(ctx, s.bucket, s.key(id))
	if err != nil {
		return biz.BlobInfo{}, s.mapErr(id, err)
	}
	return toBlobInfo(oi), nil
}

// Rename rewrites the filename metadata with a server-side self copy
func (s *MinIOStore) Rename(ctx context.Context, id, newName string) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveBlobOperation("minio", "rename", start, err) }()

	oi, err := s.client.StatObject(ctx, s.bucket, s.key(id))
	if err != nil {
		return s.mapErr(id, err)
	}
	meta := make(map[string]string, len(oi.Metadata)+1)
	for k, v := range oi.Metadata {
		if !strings.EqualFold(k, metaFilename) {
			meta[k] = v
		}
	}
	meta[metaFilename] = newName

	if err := s.client.ReplaceMetadata(ctx, s.bucket, s.key(id), oi.ContentType, meta); err != nil {
		return s.mapErr(id, err)
	}
	return nil
}

func (s *MinIOStore) Copy(ctx context.Context, id, newName string) (newID string, err error) {
	start := time.Now()
	defer func() { metrics.ObserveBlobOperation("minio", "copy", start, err) }()
	return streamCopy(ctx, s, id, newName)
}

func (s *MinIOStore) Delete(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveBlobOperation("minio", "delete", start, err) }()

	if err := s.client.RemoveObject(ctx, s.bucket, s.key(id)); err != nil && !pkgminio.IsNotFound(err) {
		return err
	}
	return nil
}

func (s *MinIOStore) List(ctx context.Context, fn func(biz.BlobEntry) error) error {
	return s.client.ListObjects(ctx, s.bucket, s.prefix, func(oi pkgminio.ObjectInfo) error {
		return fn(biz.BlobEntry{
			ID:           oi.Key[len(s.prefix):],
			Size:         oi.Size,
			LastModified: oi.LastModified,
		})
	})
}

func (s *MinIOStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func (s *MinIOStore) mapErr(id string, err error) error {
	if pkgminio.IsNotFound(err) {
		return fmt.Errorf("blob %s: %w", id, biz.ErrBlobNotFound)
	}
	return err
}

func toBlobInfo(oi pkgminio.ObjectInfo) biz.BlobInfo {
	return biz.BlobInfo{
		ContentType:  oi.ContentType,
		Filename:     lookupMeta(oi.Metadata, metaFilename),
		Size:         oi.Size,
		LastModified: oi.LastModified,
	}
}
