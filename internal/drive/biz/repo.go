package biz

import (
	"context"
	"io"
	"time"
)

// ItemQuery filters listings. Nil pointers do not filter.
type ItemQuery struct {
	OwnerID  string
	Private  *bool
	Favorite *bool
	// UpdatedFrom inclusive, UpdatedTo exclusive.
	UpdatedFrom *time.Time
	UpdatedTo   *time.Time
	// Limit <= 0 means unbounded.
	Limit int
}

// FileQuery narrows an ItemQuery to files
type FileQuery struct {
	ItemQuery
	// FileTypes matches exactly, TypePrefix matches a MIME prefix such as "image/".
	FileTypes  []string
	TypePrefix string
}

// FolderRepo is the folder half of the metadata store. Every lookup is
// scoped by owner; a folder of another owner reads as ErrFolderNotFound.
type FolderRepo interface {
	Create(ctx context.Context, folder *Folder) error
	Get(ctx context.Context, ownerID, id string) (*Folder, error)
	ExistsName(ctx context.Context, ownerID string, parentID *string, name string) (bool, error)
	Rename(ctx context.Context, ownerID, id, name string) (*Folder, error)
	SetFavorite(ctx context.Context, ownerID, id string, favorite bool) (*Folder, error)
	SetPrivate(ctx context.Context, ownerID, id string, private bool) error
	// IncrementSize adds delta atomically.
	IncrementSize(ctx context.Context, id string, delta int64) error
	Delete(ctx context.Context, ownerID, id string) error
	// List returns matching folders ordered by UpdatedAt descending.
	List(ctx context.Context, q ItemQuery) ([]*Folder, error)
	// ListByParent returns the direct subfolders of parentID. A nil private
	// returns both scopes.
	ListByParent(ctx context.Context, ownerID string, parentID *string, private *bool) ([]*Folder, error)
}

// FileRepo is the file half of the metadata store
type FileRepo interface {
	Create(ctx context.Context, file *File) error
	Get(ctx context.Context, ownerID, id string) (*File, error)
	ExistsName(ctx context.Context, ownerID string, folderID *string, name string) (bool, error)
	Rename(ctx context.Context, ownerID, id, name string) (*File, error)
	SetFavorite(ctx context.Context, ownerID, id string, favorite bool) (*File, error)
	SetPrivate(ctx context.Context, ownerID, id string, private bool) (*File, error)
	// SetPrivateInFolder flips every direct file of folderID.
	SetPrivateInFolder(ctx context.Context, ownerID, folderID string, private bool) error
	Delete(ctx context.Context, ownerID, id string) error
	List(ctx context.Context, q FileQuery) ([]*File, error)
	ListByFolder(ctx context.Context, ownerID string, folderID *string, private *bool) ([]*File, error)
	UsageByType(ctx context.Context, ownerID string) ([]TypeUsage, error)

	// ReferencedBlobs reports which of refs are held by a file row.
	ReferencedBlobs(ctx context.Context, refs []string) (map[string]bool, error)
	// Scan pages through all files ordered by id, starting after afterID.
	Scan(ctx context.Context, afterID string, limit int) ([]*File, error)
}

// BlobInfo is the metadata stored alongside a blob
type BlobInfo struct {
	ContentType  string
	Filename     string
	Size         int64
	LastModified time.Time
}

// BlobEntry is one blob seen while listing
type BlobEntry struct {
	ID           string
	Size         int64
	LastModified time.Time
}

// BlobStore holds file content keyed by an opaque id
type BlobStore interface {
	// Put streams r into a new blob. size is -1 when unknown. A failed put
	// leaves nothing behind.
	Put(ctx context.Context, r io.Reader, size int64, contentType, filename string) (string, error)
	Get(ctx context.Context, id string) (io.ReadCloser, BlobInfo, error)
	Stat(ctx context.Context, id string) (BlobInfo, error)
	Rename(ctx context.Context, id, newName string) error
	// Copy rewrites the content under a new id with filename newName.
	Copy(ctx context.Context, id, newName string) (string, error)
	// Delete is idempotent.
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, fn func(BlobEntry) error) error
	Ping(ctx context.Context) error
}
