package blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tanvin-Ahmed/file-management-server/internal/drive/biz"
)

var _ biz.BlobStore = (*MemoryStore)(nil)

func readAll(t *testing.T, s biz.BlobStore, id string) ([]byte, biz.BlobInfo) {
	t.Helper()
	rc, info, err := s.Get(context.Background(), id)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return data, info
}

func TestMemoryStore_PutGet(t *testing.T) {
	s := NewMemoryStore()
	content := []byte("quarterly report")

	id, err := s.Put(context.Background(), bytes.NewReader(content), -1, biz.MIMEPDF, "report.pdf")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	data, info := readAll(t, s, id)
	assert.Equal(t, content, data)
	assert.Equal(t, biz.MIMEPDF, info.ContentType)
	assert.Equal(t, "report.pdf", info.Filename)
	assert.Equal(t, int64(len(content)), info.Size)
	assert.False(t, info.LastModified.IsZero())
}

func TestMemoryStore_MissingBlob(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, _, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, biz.ErrBlobNotFound)

	_, err = s.Stat(ctx, "missing")
	assert.ErrorIs(t, err, biz.ErrBlobNotFound)

	assert.ErrorIs(t, s.Rename(ctx, "missing", "x"), biz.ErrBlobNotFound)

	_, err = s.Copy(ctx, "missing", "x")
	assert.ErrorIs(t, err, biz.ErrBlobNotFound)
}

func TestMemoryStore_Rename(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	id, err := s.Put(ctx, strings.NewReader("abc"), 3, "text/plain", "a.txt")
	require.NoError(t, err)
	require.NoError(t, s.Rename(ctx, id, "b.txt"))

	data, info := readAll(t, s, id)
	assert.Equal(t, "abc", string(data))
	assert.Equal(t, "b.txt", info.Filename)
	assert.Equal(t, "text/plain", info.ContentType)
}

func TestMemoryStore_Copy(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	id, err := s.Put(ctx, strings.NewReader("payload"), 7, "image/png", "img.png")
	require.NoError(t, err)

	copyID, err := s.Copy(ctx, id, "img (1).png")
	require.NoError(t, err)
	assert.NotEqual(t, id, copyID)
	assert.Equal(t, 2, s.Len())

	data, info := readAll(t, s, copyID)
	assert.Equal(t, "payload", string(data))
	assert.Equal(t, "img (1).png", info.Filename)
	assert.Equal(t, "image/png", info.ContentType)

	// the source is untouched
	_, srcInfo := readAll(t, s, id)
	assert.Equal(t, "img.png", srcInfo.Filename)
}

func TestMemoryStore_DeleteIsIdempotent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	id, err := s.Put(ctx, strings.NewReader("x"), 1, "", "x")
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, id))
	require.NoError(t, s.Delete(ctx, id))
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStore_CancelledPutStoresNothing(t *testing.T) {
	s := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Put(ctx, strings.NewReader("never stored"), -1, "", "x")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStore_List(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	ids := map[string]bool{}
	for _, body := range []string{"a", "bb", "ccc"} {
		id, err := s.Put(ctx, strings.NewReader(body), -1, "", body)
		require.NoError(t, err)
		ids[id] = true
	}
	old := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	for id := range ids {
		s.SetModTime(id, old)
	}

	var seen []biz.BlobEntry
	require.NoError(t, s.List(ctx, func(e biz.BlobEntry) error {
		seen = append(seen, e)
		return nil
	}))
	require.Len(t, seen, 3)
	for i, e := range seen {
		assert.True(t, ids[e.ID])
		assert.True(t, e.LastModified.Equal(old))
		if i > 0 {
			assert.Less(t, seen[i-1].ID, e.ID)
		}
	}

	stop := errors.New("stop")
	calls := 0
	err := s.List(ctx, func(biz.BlobEntry) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestLookupMeta(t *testing.T) {
	tests := []struct {
		name string
		meta map[string]string
		want string
	}{
		{name: "exact", meta: map[string]string{"filename": "a"}, want: "a"},
		{name: "canonical", meta: map[string]string{"Filename": "b"}, want: "b"},
		{name: "amz header", meta: map[string]string{"X-Amz-Meta-Filename": "c"}, want: "c"},
		{name: "absent", meta: map[string]string{"other": "d"}, want: ""},
		{name: "nil", meta: nil, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, lookupMeta(tt.meta, metaFilename))
		})
	}
}
