package biz

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Tanvin-Ahmed/file-management-server/internal/pkg/logger"
	"github.com/Tanvin-Ahmed/file-management-server/internal/pkg/metrics"
)

// FileUseCase is the file half of the drive facade
type FileUseCase struct {
	files   FileRepo
	folders FolderRepo
	blobs   BlobStore
	names   *NameResolver
	tree    *TreeOperations
	ledger  *QuotaLedger
	opts    Options
	logger  *logger.Logger
}

func NewFileUseCase(files FileRepo, folders FolderRepo, blobs BlobStore, names *NameResolver, tree *TreeOperations, ledger *QuotaLedger, opts Options, log *logger.Logger) *FileUseCase {
	return &FileUseCase{
		files:   files,
		folders: folders,
		blobs:   blobs,
		names:   names,
		tree:    tree,
		ledger:  ledger,
		opts:    opts.withDefaults(),
		logger:  log.Named("file"),
	}
}

// Options returns the effective limits
func (uc *FileUseCase) Options() Options {
	return uc.opts
}

// Upload stores a batch into folderID (nil for the root). Each file gets a
// unique name, its blob, then its row. Usage is charged once for the batch;
// after a mid-batch failure the files already stored stay and are charged.
func (uc *FileUseCase) Upload(ctx context.Context, ownerID string, folderID *string, uploads []Upload) ([]*File, error) {
	if len(uploads) == 0 {
		return nil, ErrNoFiles
	}
	if len(uploads) > uc.opts.MaxUploadFiles {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyFiles, len(uploads), uc.opts.MaxUploadFiles)
	}

	var declared int64
	for _, u := range uploads {
		if strings.TrimSpace(u.FileName) == "" {
			return nil, ErrNameRequired
		}
		if !uc.opts.TypeAllowed(u.ContentType) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidFileType, u.ContentType)
		}
		if u.Size > 0 {
			declared += u.Size
		}
	}

	private := false
	if folderID != nil {
		folder, err := uc.folders.Get(ctx, ownerID, *folderID)
		if err != nil {
			return nil, err
		}
		private = folder.Private
	}

	if err := uc.ledger.CheckAdmission(ctx, ownerID, declared); err != nil {
		recordQuotaRejection("upload", err)
		return nil, err
	}

	created := make([]*File, 0, len(uploads))
	var stored int64
	var uploadErr error
	for _, u := range uploads {
		f, err := uc.storeOne(ctx, ownerID, folderID, private, u)
		if err != nil {
			uploadErr = err
			break
		}
		created = append(created, f)
		stored += f.FileSize
	}

	if err := uc.ledger.Commit(ctx, ownerID, folderID, stored, stored); err != nil {
		return created, errors.Join(uploadErr, err)
	}
	if uploadErr != nil {
		return created, uploadErr
	}

	uc.logger.WithContext(ctx).Info("files uploaded",
		zap.Stringp("folder_id", folderID),
		zap.Int("count", len(created)),
		zap.Int64("bytes", stored))
	return created, nil
}

func (uc *FileUseCase) storeOne(ctx context.Context, ownerID string, folderID *string, private bool, u Upload) (*File, error) {
	name, err := uc.names.ResolveUniqueName(ctx, strings.TrimSpace(u.FileName), Scope{OwnerID: ownerID, ParentID: folderID, Kind: KindFile})
	if err != nil {
		return nil, err
	}

	counter := &countingReader{r: u.Content}
	blobID, err := uc.blobs.Put(ctx, counter, u.Size, u.ContentType, name)
	if err != nil {
		metrics.RecordUpload(counter.n, false)
		return nil, fmt.Errorf("store blob for %q: %w", name, err)
	}

	now := time.Now().UTC()
	f := &File{
		ID:        uuid.NewString(),
		FileName:  name,
		BlobRef:   blobID,
		FileType:  u.ContentType,
		FileSize:  counter.n,
		FolderID:  folderID,
		OwnerID:   ownerID,
		Private:   private,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.files.Create(ctx, f); err != nil {
		if delErr := uc.blobs.Delete(ctx, blobID); delErr != nil {
			uc.logger.WithContext(ctx).Warn("failed to drop blob of uncommitted upload",
				zap.String("blob_id", blobID), zap.Error(delErr))
		}
		metrics.RecordUpload(counter.n, false)
		return nil, fmt.Errorf("create file row: %w", err)
	}

	metrics.RecordUpload(f.FileSize, true)
	return f, nil
}

func (uc *FileUseCase) GetFile(ctx context.Context, ownerID, id string) (*File, error) {
	return uc.files.Get(ctx, ownerID, id)
}

// RenameFile sets the name to newName plus the current extension, suffixed
// when a sibling holds it, and mirrors it into the blob metadata.
func (uc *FileUseCase) RenameFile(ctx context.Context, ownerID, id, newName string) (*File, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil, ErrNameRequired
	}

	f, err := uc.files.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	_, ext := SplitExt(f.FileName)
	name := newName + ext
	if name == f.FileName {
		return f, nil
	}

	name, err = uc.names.ResolveUniqueName(ctx, name, Scope{
		OwnerID:  ownerID,
		ParentID: f.FolderID,
		Kind:     KindFile,
		Current:  f.FileName,
	})
	if err != nil {
		return nil, err
	}
	if name == f.FileName {
		return f, nil
	}

	renamed, err := uc.files.Rename(ctx, ownerID, id, name)
	if err != nil {
		return nil, err
	}
	if err := uc.blobs.Rename(ctx, f.BlobRef, name); err != nil {
		uc.logger.WithContext(ctx).Warn("blob rename failed, keeping file rename",
			zap.String("file_id", id),
			zap.String("blob_id", f.BlobRef),
			zap.Error(err))
	}
	return renamed, nil
}

// CopyFile duplicates id into destID (nil for the root)
func (uc *FileUseCase) CopyFile(ctx context.Context, ownerID, id string, destID *string) (*File, error) {
	f, err := uc.files.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if _, err := uc.tree.CheckPrivacy(ctx, ownerID, f.Private, destID); err != nil {
		return nil, err
	}
	if err := uc.ledger.CheckAdmission(ctx, ownerID, f.FileSize); err != nil {
		recordQuotaRejection("copy", err)
		return nil, err
	}

	copied, err := uc.tree.CopyFile(ctx, f, destID)
	if err != nil {
		return nil, err
	}
	if err := uc.ledger.Commit(ctx, ownerID, destID, copied.FileSize, copied.FileSize); err != nil {
		return nil, err
	}

	uc.logger.WithContext(ctx).Info("file copied",
		zap.String("file_id", id),
		zap.String("copy_id", copied.ID),
		zap.Int64("bytes", copied.FileSize))
	return copied, nil
}

// DeleteFile removes the blob, the row, and the file's bytes from its
// folder and owner.
func (uc *FileUseCase) DeleteFile(ctx context.Context, ownerID, id string) error {
	f, err := uc.files.Get(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := uc.tree.DeleteFile(ctx, f); err != nil {
		return err
	}
	if err := uc.ledger.Commit(ctx, ownerID, f.FolderID, -f.FileSize, -f.FileSize); err != nil {
		return err
	}

	uc.logger.WithContext(ctx).Info("file deleted",
		zap.String("file_id", id),
		zap.String("blob_id", f.BlobRef),
		zap.Int64("bytes", f.FileSize))
	return nil
}

func (uc *FileUseCase) SetFavorite(ctx context.Context, ownerID, id string, favorite bool) (*File, error) {
	return uc.files.SetFavorite(ctx, ownerID, id, favorite)
}

// SetPrivacy flips one file. Inside a folder the value must match the
// folder's so the subtree stays uniform.
func (uc *FileUseCase) SetPrivacy(ctx context.Context, ownerID, id string, private bool) (*File, error) {
	f, err := uc.files.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if f.FolderID != nil {
		folder, err := uc.folders.Get(ctx, ownerID, *f.FolderID)
		if err != nil {
			return nil, err
		}
		if folder.Private != private {
			return nil, fmt.Errorf("%w: folder private=%t", ErrPrivacyConflict, folder.Private)
		}
	}
	return uc.files.SetPrivate(ctx, ownerID, id, private)
}

// Open returns the file's content stream. The caller closes it.
func (uc *FileUseCase) Open(ctx context.Context, ownerID, id string) (*Download, error) {
	f, err := uc.files.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	rc, info, err := uc.blobs.Get(ctx, f.BlobRef)
	if err != nil {
		if errors.Is(err, ErrBlobNotFound) {
			uc.logger.WithContext(ctx).Error("file row references missing blob",
				zap.String("file_id", f.ID),
				zap.String("blob_id", f.BlobRef))
			return nil, fmt.Errorf("%w: content missing", ErrFileNotFound)
		}
		return nil, err
	}

	d := &Download{
		File:        f,
		Content:     rc,
		ContentType: info.ContentType,
		FileName:    f.FileName,
		Size:        info.Size,
	}
	if d.ContentType == "" {
		d.ContentType = f.FileType
	}
	if d.Size <= 0 {
		d.Size = f.FileSize
	}
	return d, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
