package biz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Tanvin-Ahmed/file-management-server/internal/pkg/logger"
)

// FolderUseCase is the folder half of the drive facade
type FolderUseCase struct {
	folders FolderRepo
	tree    *TreeOperations
	ledger  *QuotaLedger
	logger  *logger.Logger
}

func NewFolderUseCase(folders FolderRepo, tree *TreeOperations, ledger *QuotaLedger, log *logger.Logger) *FolderUseCase {
	return &FolderUseCase{folders: folders, tree: tree, ledger: ledger, logger: log.Named("folder")}
}

// CreateFolder adds an empty folder under parentID. An exact sibling name
// is rejected rather than suffixed. The new folder inherits the parent's
// privacy; folders at the root are public. Nesting stops at the configured
// depth so every tree stays within reach of the recursive operations.
func (uc *FolderUseCase) CreateFolder(ctx context.Context, ownerID, name string, parentID *string) (*Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	private := false
	if parentID != nil {
		parent, err := uc.folders.Get(ctx, ownerID, *parentID)
		if err != nil {
			return nil, err
		}
		private = parent.Private
	}
	if err := uc.tree.EnsureRoom(ctx, ownerID, parentID, 0); err != nil {
		return nil, err
	}

	taken, err := uc.folders.ExistsName(ctx, ownerID, parentID, name)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}

	now := time.Now().UTC()
	folder := &Folder{
		ID:        uuid.NewString(),
		Name:      name,
		ParentID:  parentID,
		OwnerID:   ownerID,
		Private:   private,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.folders.Create(ctx, folder); err != nil {
		return nil, fmt.Errorf("create folder: %w", err)
	}

	uc.logger.WithContext(ctx).Info("folder created",
		zap.String("folder_id", folder.ID),
		zap.Stringp("parent_id", parentID))
	return folder, nil
}

func (uc *FolderUseCase) GetFolder(ctx context.Context, ownerID, id string) (*Folder, error) {
	return uc.folders.Get(ctx, ownerID, id)
}

// RenameFolder renames one folder. A taken sibling name is suffixed the
// way copies are. Descendants are untouched.
func (uc *FolderUseCase) RenameFolder(ctx context.Context, ownerID, id, name string) (*Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	folder, err := uc.folders.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if folder.Name == name {
		return folder, nil
	}

	name, err = uc.tree.names.ResolveUniqueName(ctx, name, Scope{
		OwnerID:  ownerID,
		ParentID: folder.ParentID,
		Kind:     KindFolder,
		Current:  folder.Name,
	})
	if err != nil {
		return nil, err
	}
	if folder.Name == name {
		return folder, nil
	}
	return uc.folders.Rename(ctx, ownerID, id, name)
}

// SetFavorite flips the flag on this folder only
func (uc *FolderUseCase) SetFavorite(ctx context.Context, ownerID, id string, favorite bool) (*Folder, error) {
	return uc.folders.SetFavorite(ctx, ownerID, id, favorite)
}

// SetPrivacy cascades private over the whole subtree. A nested folder must
// keep its parent's privacy.
func (uc *FolderUseCase) SetPrivacy(ctx context.Context, ownerID, id string, private bool) (*Folder, error) {
	folder, err := uc.folders.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if folder.ParentID != nil {
		parent, err := uc.folders.Get(ctx, ownerID, *folder.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.Private != private {
			return nil, fmt.Errorf("%w: parent private=%t", ErrPrivacyConflict, parent.Private)
		}
	}

	if err := uc.tree.SetPrivacyRecursive(ctx, id, ownerID, private); err != nil {
		return nil, err
	}
	return uc.folders.Get(ctx, ownerID, id)
}

// CopyFolder duplicates id with its subtree under destID (nil for the
// root) and charges the copied bytes once. A partial copy is kept and
// charged for what it holds.
func (uc *FolderUseCase) CopyFolder(ctx context.Context, ownerID, id string, destID *string) (*Folder, error) {
	source, err := uc.folders.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if _, err := uc.tree.CheckPrivacy(ctx, ownerID, source.Private, destID); err != nil {
		return nil, err
	}
	if err := uc.ledger.CheckAdmission(ctx, ownerID, source.Size); err != nil {
		recordQuotaRejection("copy", err)
		return nil, err
	}

	copied, copiedBytes, copyErr := uc.tree.CopySubtree(ctx, id, destID, ownerID)

	var sizeDelta int64
	if copied != nil {
		sizeDelta = copied.Size
	}
	if err := uc.ledger.Commit(ctx, ownerID, destID, copiedBytes, sizeDelta); err != nil {
		return nil, errors.Join(copyErr, err)
	}
	if copyErr != nil {
		return nil, copyErr
	}
	return copied, nil
}

// DeleteFolder removes id with its subtree. The parent loses the folder's
// recorded size and the owner loses the file bytes actually removed.
func (uc *FolderUseCase) DeleteFolder(ctx context.Context, ownerID, id string) error {
	folder, err := uc.folders.Get(ctx, ownerID, id)
	if err != nil {
		return err
	}

	removed, delErr := uc.tree.DeleteSubtree(ctx, id, ownerID)

	parentID, sizeDelta := folder.ParentID, -folder.Size
	if delErr != nil {
		// the folder row survives a partial delete
		parentID, sizeDelta = nil, 0
	}
	if err := uc.ledger.Commit(ctx, ownerID, parentID, -removed, sizeDelta); err != nil {
		return errors.Join(delErr, err)
	}
	return delErr
}
