package data

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Tanvin-Ahmed/file-management-server/internal/drive/biz"
	"github.com/Tanvin-Ahmed/file-management-server/internal/pkg/database"
)

// FolderPO is the folders table
type FolderPO struct {
	ID         string    `gorm:"type:varchar(36);primarykey"`
	Name       string    `gorm:"size:255;not null;index:idx_folders_scope,priority:3"`
	ParentID   *string   `gorm:"type:varchar(36);index:idx_folders_scope,priority:2"`
	OwnerID    string    `gorm:"type:varchar(128);not null;index:idx_folders_scope,priority:1;index:idx_folders_owner_updated,priority:1"`
	Size       int64     `gorm:"not null;default:0"`
	IsFavorite bool      `gorm:"not null;default:false"`
	Private    bool      `gorm:"not null;default:false"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null;index:idx_folders_owner_updated,priority:2"`
}

func (FolderPO) TableName() string {
	return "folders"
}

// FolderRepo implements biz.FolderRepo on gorm
type FolderRepo struct {
	db *gorm.DB
}

func NewFolderRepo(db *gorm.DB) biz.FolderRepo {
	return &FolderRepo{db: db}
}

func (r *FolderRepo) Create(ctx context.Context, folder *biz.Folder) error {
	if err := r.db.WithContext(ctx).Create(fromFolder(folder)).Error; err != nil {
		return fmt.Errorf("failed to create folder: %w", err)
	}
	return nil
}

func (r *FolderRepo) Get(ctx context.Context, ownerID, id string) (*biz.Folder, error) {
	var po FolderPO
	err := r.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).First(&po).Error
	if err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, biz.ErrFolderNotFound
		}
		return nil, fmt.Errorf("failed to get folder: %w", err)
	}
	return po.toDomain(), nil
}

func (r *FolderRepo) ExistsName(ctx context.Context, ownerID string, parentID *string, name string) (bool, error) {
	taken, err := database.Exists(ctx, r.db.Scopes(database.NullableEq("parent_id", parentID)), &FolderPO{},
		"owner_id = ? AND name = ?", ownerID, name)
	if err != nil {
		return false, fmt.Errorf("failed to check folder name: %w", err)
	}
	return taken, nil
}

// update applies fields and bumps updated_at, then reads the row back
func (r *FolderRepo) update(ctx context.Context, ownerID, id string, fields map[string]interface{}) (*biz.Folder, error) {
	fields["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&FolderPO{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Updates(fields)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update folder: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, biz.ErrFolderNotFound
	}
	return r.Get(ctx, ownerID, id)
}

func (r *FolderRepo) Rename(ctx context.Context, ownerID, id, name string) (*biz.Folder, error) {
	return r.update(ctx, ownerID, id, map[string]interface{}{"name": name})
}

func (r *FolderRepo) SetFavorite(ctx context.Context, ownerID, id string, favorite bool) (*biz.Folder, error) {
	return r.update(ctx, ownerID, id, map[string]interface{}{"is_favorite": favorite})
}

func (r *FolderRepo) SetPrivate(ctx context.Context, ownerID, id string, private bool) error {
	_, err := r.update(ctx, ownerID, id, map[string]interface{}{"private": private})
	return err
}

// IncrementSize leaves updated_at alone so size bookkeeping does not reorder
// recent listings.
func (r *FolderRepo) IncrementSize(ctx context.Context, id string, delta int64) error {
	n, err := database.Increment(ctx, r.db, &FolderPO{}, "size", delta, "id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to adjust folder size: %w", err)
	}
	if n == 0 {
		return biz.ErrFolderNotFound
	}
	return nil
}

func (r *FolderRepo) Delete(ctx context.Context, ownerID, id string) error {
	res := r.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).Delete(&FolderPO{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete folder: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return biz.ErrFolderNotFound
	}
	return nil
}

func (r *FolderRepo) List(ctx context.Context, q biz.ItemQuery) ([]*biz.Folder, error) {
	var pos []FolderPO
	if err := r.db.WithContext(ctx).Scopes(itemScopes(q)...).Find(&pos).Error; err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	return toFolders(pos), nil
}

func (r *FolderRepo) ListByParent(ctx context.Context, ownerID string, parentID *string, private *bool) ([]*biz.Folder, error) {
	var pos []FolderPO
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Scopes(
			database.NullableEq("parent_id", parentID),
			boolEq("private", private),
			database.OrderBy("updated_at", true),
			database.OrderBy("id", false),
		).
		Find(&pos).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list subfolders: %w", err)
	}
	return toFolders(pos), nil
}

func fromFolder(f *biz.Folder) *FolderPO {
	return &FolderPO{
		ID:         f.ID,
		Name:       f.Name,
		ParentID:   f.ParentID,
		OwnerID:    f.OwnerID,
		Size:       f.Size,
		IsFavorite: f.IsFavorite,
		Private:    f.Private,
		CreatedAt:  f.CreatedAt,
		UpdatedAt:  f.UpdatedAt,
	}
}

func (po *FolderPO) toDomain() *biz.Folder {
	return &biz.Folder{
		ID:         po.ID,
		Name:       po.Name,
		ParentID:   po.ParentID,
		OwnerID:    po.OwnerID,
		Size:       po.Size,
		IsFavorite: po.IsFavorite,
		Private:    po.Private,
		CreatedAt:  po.CreatedAt,
		UpdatedAt:  po.UpdatedAt,
	}
}

func toFolders(pos []FolderPO) []*biz.Folder {
	out := make([]*biz.Folder, len(pos))
	for i := range pos {
		out[i] = pos[i].toDomain()
	}
	return out
}
