package blob

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/Tanvin-Ahmed/file-management-server/internal/drive/biz"
)

type memBlob struct {
	data []byte
	info biz.BlobInfo
}

// MemoryStore keeps blobs in a map. A put becomes visible only once the
// reader is fully drained.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string]memBlob
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string]memBlob), now: time.Now}
}

func (m *MemoryStore) Put(ctx context.Context, r io.Reader, _ int64, contentType, filename string) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, &ctxReader{ctx: ctx, r: r}); err != nil {
		return "", err
	}

	id := newID()
	m.mu.Lock()
	m.blobs[id] = memBlob{
		data: buf.Bytes(),
		info: biz.BlobInfo{
			ContentType:  contentType,
			Filename:     filename,
			Size:         int64(buf.Len()),
			LastModified: m.now(),
		},
	}
	m.mu.Unlock()
	return id, nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (io.ReadCloser, biz.BlobInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.blobs[id]
	if !ok {
		return nil, biz.BlobInfo{}, biz.ErrBlobNotFound
	}
	return io.NopCloser(bytes.NewReader(b.data)), b.info, nil
}

func (m *MemoryStore) Stat(_ context.Context, id string) (biz.BlobInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.blobs[id]
	if !ok {
		return biz.BlobInfo{}, biz.ErrBlobNotFound
	}
	return b.info, nil
}

func (m *MemoryStore) Rename(_ context.Context, id, newName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blobs[id]
	if !ok {
		return biz.ErrBlobNotFound
	}
	b.info.Filename = newName
	m.blobs[id] = b
	return nil
}

func (m *MemoryStore) Copy(ctx context.Context, id, newName string) (string, error) {
	return streamCopy(ctx, m, id, newName)
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.blobs, id)
	m.mu.Unlock()
	return nil
}

// List visits blobs in id order over a snapshot
func (m *MemoryStore) List(ctx context.Context, fn func(biz.BlobEntry) error) error {
	m.mu.RLock()
	entries := make([]biz.BlobEntry, 0, len(m.blobs))
	for id, b := range m.blobs {
		entries = append(entries, biz.BlobEntry{ID: id, Size: b.info.Size, LastModified: b.info.LastModified})
	}
	m.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

// Len reports the number of stored blobs
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.blobs)
}

// SetModTime backdates a blob. Tests use it to age blobs past the grace period.
func (m *MemoryStore) SetModTime(id string, t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.blobs[id]; ok {
		b.info.LastModified = t
		m.blobs[id] = b
	}
}

// ctxReader fails reads once ctx is done so a cancelled upload stores nothing
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
