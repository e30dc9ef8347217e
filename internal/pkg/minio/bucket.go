package minio

import (
	"context"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// EnsureBucket creates bucket when it does not exist yet
func (c *Client) EnsureBucket(ctx context.Context, bucket, region string) error {
	if err := c.checkClosed(); err != nil {
		return err
	}
	if bucket == "" {
		return WrapError("EnsureBucket", ErrInvalidBucketName, bucket, "")
	}

	exists, err := c.client.BucketExists(ctx, bucket)
	if err != nil {
		return WrapError("EnsureBucket", err, bucket, "")
	}
	if exists {
		return nil
	}

	err = c.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region})
	if err != nil && !IsBucketAlreadyExists(err) {
		return WrapError("EnsureBucket", err, bucket, "")
	}

	c.logger.Info("bucket created", zap.String("bucket", bucket))
	return nil
}

// ListObjects streams every object under prefix to fn. Returning an error from
// fn stops the listing.
func (c *Client) ListObjects(ctx context.Context, bucket, prefix string, fn func(ObjectInfo) error) error {
	if err := c.checkClosed(); err != nil {
		return err
	}
	if bucket == "" {
		return WrapError("ListObjects", ErrInvalidBucketName, bucket, "")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for obj := range c.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return WrapError("ListObjects", obj.Err, bucket, "")
		}
		if err := fn(toObjectInfo(obj)); err != nil {
			return err
		}
	}
	return ctx.Err()
}
