package biz

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Tanvin-Ahmed/file-management-server/internal/pkg/logger"
	"github.com/Tanvin-Ahmed/file-management-server/internal/pkg/metrics"
)

// TreeOperations runs the recursive copy, delete and privacy cascades.
// Nodes are visited one at a time. A failure stops the walk where it is;
// nothing is rolled back. Totals are left to the caller.
type TreeOperations struct {
	folders  FolderRepo
	files    FileRepo
	blobs    BlobStore
	names    *NameResolver
	maxDepth int
	logger   *logger.Logger
}

func NewTreeOperations(folders FolderRepo, files FileRepo, blobs BlobStore, names *NameResolver, opts Options, log *logger.Logger) *TreeOperations {
	return &TreeOperations{
		folders:  folders,
		files:    files,
		blobs:    blobs,
		names:    names,
		maxDepth: opts.withDefaults().MaxDepth,
		logger:   log.Named("tree"),
	}
}

// CheckPrivacy enforces that an item moves only within its privacy scope.
// The root is public.
func (t *TreeOperations) CheckPrivacy(ctx context.Context, ownerID string, itemPrivate bool, destID *string) (*Folder, error) {
	if destID == nil {
		if itemPrivate {
			return nil, fmt.Errorf("%w: private item cannot be placed at the root", ErrPrivacyConflict)
		}
		return nil, nil
	}
	dest, err := t.folders.Get(ctx, ownerID, *destID)
	if err != nil {
		return nil, err
	}
	if dest.Private != itemPrivate {
		return nil, fmt.Errorf("%w: item private=%t, destination private=%t", ErrPrivacyConflict, itemPrivate, dest.Private)
	}
	return dest, nil
}

// CopySubtree copies sourceID with all descendants under destParentID and
// returns the new root and the file bytes copied. On error the returned
// bytes cover what was copied before the failure.
func (t *TreeOperations) CopySubtree(ctx context.Context, sourceID string, destParentID *string, ownerID string) (copied *Folder, copiedBytes int64, err error) {
	start := time.Now()
	defer func() { metrics.ObserveTreeOperation("copy", start, err) }()

	source, err := t.folders.Get(ctx, ownerID, sourceID)
	if err != nil {
		return nil, 0, err
	}
	if _, err := t.CheckPrivacy(ctx, ownerID, source.Private, destParentID); err != nil {
		return nil, 0, err
	}
	if err := t.ensureNotDescendant(ctx, ownerID, sourceID, destParentID); err != nil {
		return nil, 0, err
	}
	height, err := t.subtreeHeight(ctx, source, 0)
	if err != nil {
		return nil, 0, err
	}
	if err := t.EnsureRoom(ctx, ownerID, destParentID, height); err != nil {
		return nil, 0, err
	}

	copied, err = t.copyFolder(ctx, source, destParentID, 0, &copiedBytes)
	if err != nil {
		t.logger.WithContext(ctx).Warn("subtree copy stopped",
			zap.String("folder_id", sourceID),
			zap.Int64("bytes", copiedBytes),
			zap.Error(err))
		return copied, copiedBytes, err
	}

	t.logger.WithContext(ctx).Info("subtree copied",
		zap.String("folder_id", sourceID),
		zap.String("copy_id", copied.ID),
		zap.Int64("bytes", copiedBytes))
	return copied, copiedBytes, nil
}

func (t *TreeOperations) copyFolder(ctx context.Context, source *Folder, destParentID *string, depth int, copiedBytes *int64) (*Folder, error) {
	if depth > t.maxDepth {
		return nil, ErrTreeTooDeep
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name, err := t.names.ResolveUniqueName(ctx, source.Name, Scope{OwnerID: source.OwnerID, ParentID: destParentID, Kind: KindFolder})
	if err != nil {
		return nil, err
	}

	// children are read before the copy exists so it never lists itself
	files, err := t.files.ListByFolder(ctx, source.OwnerID, &source.ID, nil)
	if err != nil {
		return nil, err
	}
	subfolders, err := t.folders.ListByParent(ctx, source.OwnerID, &source.ID, nil)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	copied := &Folder{
		ID:        uuid.NewString(),
		Name:      name,
		ParentID:  destParentID,
		OwnerID:   source.OwnerID,
		Size:      source.Size,
		Private:   source.Private,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := t.folders.Create(ctx, copied); err != nil {
		return nil, fmt.Errorf("create folder copy: %w", err)
	}

	for _, f := range files {
		if _, err := t.CopyFile(ctx, f, &copied.ID); err != nil {
			return copied, err
		}
		*copiedBytes += f.FileSize
	}

	for _, sub := range subfolders {
		if _, err := t.copyFolder(ctx, sub, &copied.ID, depth+1, copiedBytes); err != nil {
			return copied, err
		}
	}
	return copied, nil
}

// CopyFile duplicates one file and its blob into destFolderID. Privacy and
// totals are the caller's concern.
func (t *TreeOperations) CopyFile(ctx context.Context, source *File, destFolderID *string) (*File, error) {
	name, err := t.names.ResolveUniqueName(ctx, source.FileName, Scope{OwnerID: source.OwnerID, ParentID: destFolderID, Kind: KindFile})
	if err != nil {
		return nil, err
	}

	blobID, err := t.blobs.Copy(ctx, source.BlobRef, name)
	if err != nil {
		return nil, fmt.Errorf("copy blob %s: %w", source.BlobRef, err)
	}

	now := time.Now().UTC()
	copied := &File{
		ID:        uuid.NewString(),
		FileName:  name,
		BlobRef:   blobID,
		FileType:  source.FileType,
		FileSize:  source.FileSize,
		FolderID:  destFolderID,
		OwnerID:   source.OwnerID,
		Private:   source.Private,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := t.files.Create(ctx, copied); err != nil {
		// the new blob is unreferenced; reconciliation reclaims it if this fails too
		if delErr := t.blobs.Delete(ctx, blobID); delErr != nil {
			t.logger.WithContext(ctx).Warn("failed to drop blob of uncommitted copy",
				zap.String("blob_id", blobID), zap.Error(delErr))
		}
		return nil, fmt.Errorf("create file copy: %w", err)
	}
	return copied, nil
}

// DeleteSubtree removes folderID with all descendants, children before
// parents and each blob before its row. It returns the file bytes removed,
// which on error covers what was removed before the failure. The folder's
// own Size must be read by the caller beforehand.
func (t *TreeOperations) DeleteSubtree(ctx context.Context, folderID, ownerID string) (removedBytes int64, err error) {
	start := time.Now()
	defer func() { metrics.ObserveTreeOperation("delete", start, err) }()

	folder, err := t.folders.Get(ctx, ownerID, folderID)
	if err != nil {
		return 0, err
	}

	err = t.deleteFolder(ctx, folder, 0, &removedBytes)
	if err != nil {
		t.logger.WithContext(ctx).Warn("subtree delete stopped",
			zap.String("folder_id", folderID),
			zap.Int64("bytes", removedBytes),
			zap.Error(err))
		return removedBytes, err
	}

	t.logger.WithContext(ctx).Info("subtree deleted",
		zap.String("folder_id", folderID),
		zap.Int64("bytes", removedBytes))
	return removedBytes, nil
}

func (t *TreeOperations) deleteFolder(ctx context.Context, folder *Folder, depth int, removedBytes *int64) error {
	if depth > t.maxDepth {
		return ErrTreeTooDeep
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	subfolders, err := t.folders.ListByParent(ctx, folder.OwnerID, &folder.ID, nil)
	if err != nil {
		return err
	}
	for _, sub := range subfolders {
		if err := t.deleteFolder(ctx, sub, depth+1, removedBytes); err != nil {
			return err
		}
	}

	files, err := t.files.ListByFolder(ctx, folder.OwnerID, &folder.ID, nil)
	if err != nil {
		return err
	}
	for _, f := range files {
		if err := t.DeleteFile(ctx, f); err != nil {
			return err
		}
		*removedBytes += f.FileSize
	}

	if err := t.folders.Delete(ctx, folder.OwnerID, folder.ID); err != nil {
		return fmt.Errorf("delete folder %s: %w", folder.ID, err)
	}
	return nil
}

// DeleteFile drops the blob then the row. A blob failure is logged and the
// row is removed anyway; the sweep reclaims the orphan.
func (t *TreeOperations) DeleteFile(ctx context.Context, f *File) error {
	if err := t.blobs.Delete(ctx, f.BlobRef); err != nil {
		t.logger.WithContext(ctx).Warn("blob delete failed, leaving orphan",
			zap.String("file_id", f.ID),
			zap.String("blob_id", f.BlobRef),
			zap.Error(err))
	}
	if err := t.files.Delete(ctx, f.OwnerID, f.ID); err != nil {
		return fmt.Errorf("delete file %s: %w", f.ID, err)
	}
	return nil
}

// SetPrivacyRecursive writes private on folderID, its direct files and
// every descendant. Nodes already holding the value are rewritten too.
func (t *TreeOperations) SetPrivacyRecursive(ctx context.Context, folderID, ownerID string, private bool) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveTreeOperation("privacy", start, err) }()

	folder, err := t.folders.Get(ctx, ownerID, folderID)
	if err != nil {
		return err
	}
	if err = t.setPrivacy(ctx, folder, private, 0); err != nil {
		return err
	}

	t.logger.WithContext(ctx).Info("subtree privacy set",
		zap.String("folder_id", folderID),
		zap.Bool("private", private))
	return nil
}

func (t *TreeOperations) setPrivacy(ctx context.Context, folder *Folder, private bool, depth int) error {
	if depth > t.maxDepth {
		return ErrTreeTooDeep
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := t.folders.SetPrivate(ctx, folder.OwnerID, folder.ID, private); err != nil {
		return err
	}
	if err := t.files.SetPrivateInFolder(ctx, folder.OwnerID, folder.ID, private); err != nil {
		return err
	}

	subfolders, err := t.folders.ListByParent(ctx, folder.OwnerID, &folder.ID, nil)
	if err != nil {
		return err
	}
	for _, sub := range subfolders {
		if err := t.setPrivacy(ctx, sub, private, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// EnsureRoom fails with ErrTreeTooDeep unless a subtree of the given height
// fits under parentID. Root folders sit at depth 0.
func (t *TreeOperations) EnsureRoom(ctx context.Context, ownerID string, parentID *string, height int) error {
	depth := 0
	for parentID != nil {
		if depth+height > t.maxDepth {
			return ErrTreeTooDeep
		}
		parent, err := t.folders.Get(ctx, ownerID, *parentID)
		if err != nil {
			return err
		}
		depth++
		parentID = parent.ParentID
	}
	if depth+height > t.maxDepth {
		return ErrTreeTooDeep
	}
	return nil
}

// subtreeHeight counts the folder levels below folder
func (t *TreeOperations) subtreeHeight(ctx context.Context, folder *Folder, depth int) (int, error) {
	if depth > t.maxDepth {
		return 0, ErrTreeTooDeep
	}
	subfolders, err := t.folders.ListByParent(ctx, folder.OwnerID, &folder.ID, nil)
	if err != nil {
		return 0, err
	}
	height := 0
	for _, sub := range subfolders {
		h, err := t.subtreeHeight(ctx, sub, depth+1)
		if err != nil {
			return 0, err
		}
		if h+1 > height {
			height = h + 1
		}
	}
	return height, nil
}

// ensureNotDescendant rejects copying a folder into itself or below itself
func (t *TreeOperations) ensureNotDescendant(ctx context.Context, ownerID, sourceID string, destID *string) error {
	for depth := 0; destID != nil; depth++ {
		if *destID == sourceID {
			return ErrCopyIntoSelf
		}
		if depth > t.maxDepth {
			return ErrTreeTooDeep
		}
		dest, err := t.folders.Get(ctx, ownerID, *destID)
		if err != nil {
			return err
		}
		destID = dest.ParentID
	}
	return nil
}
