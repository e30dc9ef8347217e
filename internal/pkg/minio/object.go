package minio

import (
	"context"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// PutObjectOptions represents options for uploading an object
type PutObjectOptions struct {
	ContentType  string
	UserMetadata map[string]string
}

// UploadInfo describes a stored object
type UploadInfo struct {
	Bucket string
	Key    string
	ETag   string
	Size   int64
}

// ObjectInfo represents object metadata
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	LastModified time.Time
	ContentType  string
	Metadata     map[string]string
}

// PutObject streams reader into bucket/object. A size of -1 uploads in
// multipart chunks of unknown total length; minio aborts the multipart upload
// when the reader or context fails, so no partial object becomes visible.
func (c *Client) PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts PutObjectOptions) (UploadInfo, error) {
	if err := c.checkClosed(); err != nil {
		return UploadInfo{}, err
	}
	if err := checkNames("PutObject", bucket, object); err != nil {
		return UploadInfo{}, err
	}

	info, err := c.client.PutObject(ctx, bucket, object, reader, size, minio.PutObjectOptions{
		ContentType:  opts.ContentType,
		UserMetadata: opts.UserMetadata,
	})
	if err != nil {
		return UploadInfo{}, WrapError("PutObject", err, bucket, object)
	}

	c.logger.Debug("object uploaded",
		zap.String("bucket", bucket),
		zap.String("object", object),
		zap.Int64("size", info.Size),
	)

	return UploadInfo{Bucket: info.Bucket, Key: info.Key, ETag: info.ETag, Size: info.Size}, nil
}

// GetObject opens a reader on bucket/object. Unlike the raw minio call it
// stats the object first, so a missing key fails here rather than on first Read.
func (c *Client) GetObject(ctx context.Context, bucket, object string) (io.ReadCloser, ObjectInfo, error) {
	if err := c.checkClosed(); err != nil {
		return nil, ObjectInfo{}, err
	}
	if err := checkNames("GetObject", bucket, object); err != nil {
		return nil, ObjectInfo{}, err
	}

	obj, err := c.client.GetObject(ctx, bucket, object, minio.GetObjectOptions{})
	if err != nil {
		return nil, ObjectInfo{}, WrapError("GetObject", err, bucket, object)
	}

	st, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, ObjectInfo{}, WrapError("GetObject", err, bucket, object)
	}

	return obj, toObjectInfo(st), nil
}

// StatObject gets object metadata
func (c *Client) StatObject(ctx context.Context, bucket, object string) (ObjectInfo, error) {
	if err := c.checkClosed(); err != nil {
		return ObjectInfo{}, err
	}
	if err := checkNames("StatObject", bucket, object); err != nil {
		return ObjectInfo{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	st, err := c.client.StatObject(ctx, bucket, object, minio.StatObjectOptions{})
	if err != nil {
		return ObjectInfo{}, WrapError("StatObject", err, bucket, object)
	}
	return toObjectInfo(st), nil
}

// RemoveObject removes bucket/object. S3 semantics make this succeed for
// missing keys.
func (c *Client) RemoveObject(ctx context.Context, bucket, object string) error {
	if err := c.checkClosed(); err != nil {
		return err
	}
	if err := checkNames("RemoveObject", bucket, object); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	if err := c.client.RemoveObject(ctx, bucket, object, minio.RemoveObjectOptions{}); err != nil {
		return WrapError("RemoveObject", err, bucket, object)
	}

	c.logger.Debug("object removed", zap.String("bucket", bucket), zap.String("object", object))
	return nil
}

// ReplaceMetadata rewrites the user metadata of bucket/object in place using a
// server-side self copy. Content is not transferred.
func (c *Client) ReplaceMetadata(ctx context.Context, bucket, object, contentType string, meta map[string]string) error {
	if err := c.checkClosed(); err != nil {
		return err
	}
	if err := checkNames("ReplaceMetadata", bucket, object); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	// standard headers in UserMetadata are sent as-is by minio-go
	headers := make(map[string]string, len(meta)+1)
	for k, v := range meta {
		headers[k] = v
	}
	if contentType != "" {
		headers["Content-Type"] = contentType
	}

	_, err := c.client.CopyObject(ctx,
		minio.CopyDestOptions{
			Bucket:          bucket,
			Object:          object,
			UserMetadata:    headers,
			ReplaceMetadata: true,
		},
		minio.CopySrcOptions{Bucket: bucket, Object: object},
	)
	if err != nil {
		return WrapError("ReplaceMetadata", err, bucket, object)
	}
	return nil
}

// RemoveIncompleteUpload aborts any dangling multipart upload for object
func (c *Client) RemoveIncompleteUpload(ctx context.Context, bucket, object string) error {
	if err := c.checkClosed(); err != nil {
		return err
	}
	if err := checkNames("RemoveIncompleteUpload", bucket, object); err != nil {
		return err
	}
	if err := c.client.RemoveIncompleteUpload(ctx, bucket, object); err != nil {
		return WrapError("RemoveIncompleteUpload", err, bucket, object)
	}
	return nil
}

func toObjectInfo(st minio.ObjectInfo) ObjectInfo {
	return ObjectInfo{
		Key:          st.Key,
		Size:         st.Size,
		ETag:         st.ETag,
		LastModified: st.LastModified,
		ContentType:  st.ContentType,
		Metadata:     st.UserMetadata,
	}
}
