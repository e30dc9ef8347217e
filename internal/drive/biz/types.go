package biz

import (
	"io"
	"sort"
	"strings"
	"time"
)

// Folder is a node of an owner's tree. ParentID nil means the root.
type Folder struct {
	ID         string
	Name       string
	ParentID   *string
	OwnerID    string
	Size       int64
	IsFavorite bool
	Private    bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// File is a leaf referencing one blob. FolderID nil means the root.
type File struct {
	ID         string
	FileName   string
	BlobRef    string
	FileType   string
	FileSize   int64
	FolderID   *string
	OwnerID    string
	IsFavorite bool
	Private    bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ItemKind tags the Item union
type ItemKind string

const (
	KindFolder ItemKind = "folder"
	KindFile   ItemKind = "file"
)

// Item is either a File or a Folder
type Item struct {
	Kind   ItemKind
	Folder *Folder
	File   *File
}

func FolderItem(f *Folder) Item { return Item{Kind: KindFolder, Folder: f} }

func FileItem(f *File) Item { return Item{Kind: KindFile, File: f} }

func (i Item) ID() string {
	if i.Kind == KindFolder {
		return i.Folder.ID
	}
	return i.File.ID
}

func (i Item) UpdatedAt() time.Time {
	if i.Kind == KindFolder {
		return i.Folder.UpdatedAt
	}
	return i.File.UpdatedAt
}

// MergeItems interleaves folders and files by UpdatedAt descending. A
// positive limit truncates the merged result.
func MergeItems(folders []*Folder, files []*File, limit int) []Item {
	items := make([]Item, 0, len(folders)+len(files))
	for _, f := range folders {
		items = append(items, FolderItem(f))
	}
	for _, f := range files {
		items = append(items, FileItem(f))
	}

	sort.SliceStable(items, func(a, b int) bool {
		ta, tb := items[a].UpdatedAt(), items[b].UpdatedAt()
		if !ta.Equal(tb) {
			return ta.After(tb)
		}
		return items[a].ID() < items[b].ID()
	})

	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

// Scope identifies a sibling namespace for name uniqueness
type Scope struct {
	OwnerID  string
	ParentID *string
	Kind     ItemKind
	// Current is the name the item already holds when it is being renamed.
	// It counts as free.
	Current string
}

// FileKind groups MIME types for listings and the storage breakdown
type FileKind string

const (
	FileKindNotes  FileKind = "notes"
	FileKindPDF    FileKind = "pdf"
	FileKindImages FileKind = "images"
	FileKindOther  FileKind = "other"
)

const (
	MIMEDocx  = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEDoc   = "application/msword"
	MIMEPDF   = "application/pdf"
	mimeImage = "image/"
)

// ParseFileKind accepts the listable kinds only
func ParseFileKind(s string) (FileKind, error) {
	switch k := FileKind(strings.ToLower(s)); k {
	case FileKindNotes, FileKindPDF, FileKindImages:
		return k, nil
	}
	return "", ErrInvalidFileKind
}

// KindOf classifies a MIME type
func KindOf(mimeType string) FileKind {
	switch {
	case mimeType == MIMEDocx:
		return FileKindNotes
	case mimeType == MIMEPDF:
		return FileKindPDF
	case strings.HasPrefix(mimeType, mimeImage):
		return FileKindImages
	}
	return FileKindOther
}

// KindUsage is one row of the storage breakdown
type KindUsage struct {
	Kind  FileKind `json:"kind"`
	Bytes int64    `json:"bytes"`
	Count int64    `json:"count"`
}

// StorageSummary describes an owner's quota
type StorageSummary struct {
	TotalQuota int64       `json:"totalQuota"`
	Used       int64       `json:"used"`
	Available  int64       `json:"available"`
	Breakdown  []KindUsage `json:"breakdown"`
}

// TypeUsage is a per-MIME aggregate returned by the file store
type TypeUsage struct {
	FileType string
	Bytes    int64
	Count    int64
}

// Upload is one decoded part of a multipart upload
type Upload struct {
	FileName    string
	ContentType string
	// Size is the declared length, -1 if unknown.
	Size    int64
	Content io.Reader
}

// Download is an open blob stream plus its headers
type Download struct {
	File        *File
	Content     io.ReadCloser
	ContentType string
	FileName    string
	Size        int64
}
