// Package blob implements biz.BlobStore on MinIO, S3 and memory.
package blob

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Tanvin-Ahmed/file-management-server/internal/drive/biz"
)

// metaFilename is the user metadata key carrying the display name
const metaFilename = "filename"

func newID() string {
	return uuid.NewString()
}

// lookupMeta finds key in user metadata regardless of the backend's casing
func lookupMeta(meta map[string]string, key string) string {
	if v, ok := meta[key]; ok {
		return v
	}
	for k, v := range meta {
		if strings.EqualFold(k, key) || strings.EqualFold(k, "X-Amz-Meta-"+key) {
			return v
		}
	}
	return ""
}

// streamCopy reads id and writes it back under a fresh id. The new blob is
// visible only after the write completes.
func streamCopy(ctx context.Context, s biz.BlobStore, id, newName string) (string, error) {
	rc, info, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	newID, err := s.Put(ctx, rc, info.Size, info.ContentType, newName)
	if err != nil {
		return "", fmt.Errorf("rewrite blob %s: %w", id, err)
	}
	return newID, nil
}
