package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"github.com/Tanvin-Ahmed/file-management-server/internal/drive/biz"
	"github.com/Tanvin-Ahmed/file-management-server/internal/pkg/logger"
	"github.com/Tanvin-Ahmed/file-management-server/internal/pkg/metrics"
)

// minimum S3 multipart part size
const minPartSize = 5 << 20

// S3Config selects a bucket on AWS S3 or an S3-compatible endpoint
type S3Config struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	KeyPrefix       string `mapstructure:"key_prefix"`
	PartSize        int64  `mapstructure:"part_size"`
	MaxRetries      int    `mapstructure:"max_retries"`
}

// NewS3Client builds an SDK client. A custom endpoint switches to
// path-style addressing for MinIO and Localstack.
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 blob store: bucket is required")
	}
	if cfg.Region == "" {
		return nil, errors.New("s3 blob store: region is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 5
	}
	opts = append(opts, awsconfig.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = maxRetries
		})
	}))

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// S3Store keeps blobs as objects keyed prefix+id. Puts larger than one part
// go through a multipart upload so at most one part is buffered.
type S3Store struct {
	client   *s3.Client
	bucket   string
	prefix   string
	partSize int64
	logger   *logger.Logger
}

func NewS3Store(client *s3.Client, cfg S3Config, log *logger.Logger) *S3Store {
	partSize := cfg.PartSize
	if partSize < minPartSize {
		partSize = minPartSize
	}
	return &S3Store{
		client:   client,
		bucket:   cfg.Bucket,
		prefix:   cfg.KeyPrefix,
		partSize: partSize,
		logger:   log.Named("blob.s3"),
	}
}

func (s *S3Store) key(id string) string { return s.prefix + id }

func (s *S3Store) Put(ctx context.Context, r io.Reader, _ int64, contentType, filename string) (id string, err error) {
	start := time.Now()
	defer func() { metrics.ObserveBlobOperation("s3", "put", start, err) }()

	id = newID()
	meta := map[string]string{metaFilename: filename}

	first := make([]byte, s.partSize)
	n, err := io.ReadFull(r, first)
	switch {
	case errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF):
		_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(s.bucket),
			Key:           aws.String(s.key(id)),
			Body:          bytes.NewReader(first[:n]),
			ContentLength: aws.Int64(int64(n)),
			ContentType:   optional(contentType),
			Metadata:      meta,
		})
		if err != nil {
			return "", fmt.Errorf("put object: %w", err)
		}
		return id, nil
	case err != nil:
		return "", err
	}

	if err := s.putMultipart(ctx, s.key(id), first, r, contentType, meta); err != nil {
		return "", err
	}
	return id, nil
}

func (s *S3Store) putMultipart(ctx context.Context, key string, first []byte, r io.Reader, contentType string, meta map[string]string) error {
	created, err := s.client.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: optional(contentType),
		Metadata:    meta,
	})
	if err != nil {
		return fmt.Errorf("create multipart upload: %w", err)
	}

	abort := func(cause error) error {
		_, abortErr := s.client.AbortMultipartUpload(context.WithoutCancel(ctx), &s3.AbortMultipartUploadInput{
			Bucket:   aws.String(s.bucket),
			Key:      aws.String(key),
			UploadId: created.UploadId,
		})
		if abortErr != nil {
			s.logger.Warn("failed to abort multipart upload", zap.String("key", key), zap.Error(abortErr))
		}
		return cause
	}

	var parts []types.CompletedPart
	buf := first
	for partNum := int32(1); len(buf) > 0; partNum++ {
		out, err := s.client.UploadPart(ctx, &s3.UploadPartInput{
			Bucket:        aws.String(s.bucket),
			Key:           aws.String(key),
			UploadId:      created.UploadId,
			PartNumber:    aws.Int32(partNum),
			Body:          bytes.NewReader(buf),
			ContentLength: aws.Int64(int64(len(buf))),
		})
		if err != nil {
			return abort(fmt.Errorf("upload part %d: %w", partNum, err))
		}
		parts = append(parts, types.CompletedPart{ETag: out.ETag, PartNumber: aws.Int32(partNum)})

		// the part is sent, so its buffer can be refilled
		n, err := io.ReadFull(r, first)
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
			return abort(err)
		}
		buf = first[:n]
	}

	_, err = s.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:          aws.String(s.bucket),
		Key:             aws.String(key),
		UploadId:        created.UploadId,
		MultipartUpload: &types.CompletedMultipartUpload{Parts: parts},
	})
	if err != nil {
		return abort(fmt.Errorf("complete multipart upload: %w", err))
	}
	return nil
}

func (s *S3Store) Get(ctx context.Context, id string) (rc io.ReadCloser, info biz.BlobInfo, err error) {
	start := time.Now()
	defer func() { metrics.ObserveBlobOperation("s3", "get", start, err) }()

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	})
	if err != nil {
		return nil, biz.BlobInfo{}, s.mapErr(id, err)
	}
	return out.Body, biz.BlobInfo{
		ContentType:  aws.ToString(out.ContentType),
		Filename:     lookupMeta(out.Metadata, metaFilename),
		Size:         aws.ToInt64(out.ContentLength),
		LastModified: aws.ToTime(out.LastModified),
	}, nil
}

func (s *S3Store) Stat(ctx context.Context, id string) (biz.BlobInfo, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	})
	if err != nil {
		return biz.BlobInfo{}, s.mapErr(id, err)
	}
	return biz.BlobInfo{
		ContentType:  aws.ToString(out.ContentType),
		Filename:     lookupMeta(out.Metadata, metaFilename),
		Size:         aws.ToInt64(out.ContentLength),
		LastModified: aws.ToTime(out.LastModified),
	}, nil
}

// Rename replaces the metadata through a server-side self copy
func (s *S3Store) Rename(ctx context.Context, id, newName string) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveBlobOperation("s3", "rename", start, err) }()

	info, err := s.Stat(ctx, id)
	if err != nil {
		return err
	}
	_, err = s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:            aws.String(s.bucket),
		Key:               aws.String(s.key(id)),
		CopySource:        aws.String(s.bucket + "/" + url.PathEscape(s.key(id))),
		MetadataDirective: types.MetadataDirectiveReplace,
		ContentType:       optional(info.ContentType),
		Metadata:          map[string]string{metaFilename: newName},
	})
	if err != nil {
		return s.mapErr(id, err)
	}
	return nil
}

func (s *S3Store) Copy(ctx context.Context, id, newName string) (newID string, err error) {
	start := time.Now()
	defer func() { metrics.ObserveBlobOperation("s3", "copy", start, err) }()
	return streamCopy(ctx, s, id, newName)
}

// Delete succeeds for missing keys
func (s *S3Store) Delete(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveBlobOperation("s3", "delete", start, err) }()

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	})
	if err != nil && !isS3NotFound(err) {
		return err
	}
	return nil
}

func (s *S3Store) List(ctx context.Context, fn func(biz.BlobEntry) error) error {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("failed to list objects: %w", err)
		}
		for _, obj := range page.Contents {
			err := fn(biz.BlobEntry{
				ID:           strings.TrimPrefix(aws.ToString(obj.Key), s.prefix),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *S3Store) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	return err
}

func (s *S3Store) mapErr(id string, err error) error {
	if isS3NotFound(err) {
		return fmt.Errorf("blob %s: %w", id, biz.ErrBlobNotFound)
	}
	return err
}

func isS3NotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return aws.String(s)
}
