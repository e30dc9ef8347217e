package data

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Tanvin-Ahmed/file-management-server/internal/drive/biz"
	"github.com/Tanvin-Ahmed/file-management-server/internal/pkg/database"
)

// FilePO is the files table
type FilePO struct {
	ID         string    `gorm:"type:varchar(36);primarykey"`
	FileName   string    `gorm:"column:file_name;size:255;not null;index:idx_files_scope,priority:3"`
	BlobRef    string    `gorm:"column:blob_ref;size:512;not null;index:idx_files_blob_ref"`
	FileType   string    `gorm:"column:file_type;size:255;not null"`
	FileSize   int64     `gorm:"column:file_size;not null;default:0"`
	FolderID   *string   `gorm:"column:folder_id;type:varchar(36);index:idx_files_scope,priority:2"`
	OwnerID    string    `gorm:"column:owner_id;type:varchar(128);not null;index:idx_files_scope,priority:1;index:idx_files_owner_updated,priority:1"`
	IsFavorite bool      `gorm:"not null;default:false"`
	Private    bool      `gorm:"not null;default:false"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null;index:idx_files_owner_updated,priority:2"`
}

func (FilePO) TableName() string {
	return "files"
}

// FileRepo implements biz.FileRepo on gorm
type FileRepo struct {
	db *gorm.DB
}

func NewFileRepo(db *gorm.DB) biz.FileRepo {
	return &FileRepo{db: db}
}

func (r *FileRepo) Create(ctx context.Context, file *biz.File) error {
	if err := r.db.WithContext(ctx).Create(fromFile(file)).Error; err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	return nil
}

func (r *FileRepo) Get(ctx context.Context, ownerID, id string) (*biz.File, error) {
	var po FilePO
	err := r.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).First(&po).Error
	if err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, biz.ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	return po.toDomain(), nil
}

func (r *FileRepo) ExistsName(ctx context.Context, ownerID string, folderID *string, name string) (bool, error) {
	taken, err := database.Exists(ctx, r.db.Scopes(database.NullableEq("folder_id", folderID)), &FilePO{},
		"owner_id = ? AND file_name = ?", ownerID, name)
	if err != nil {
		return false, fmt.Errorf("failed to check file name: %w", err)
	}
	return taken, nil
}

func (r *FileRepo) update(ctx context.Context, ownerID, id string, fields map[string]interface{}) (*biz.File, error) {
	fields["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&FilePO{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Updates(fields)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update file: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, biz.ErrFileNotFound
	}
	return r.Get(ctx, ownerID, id)
}

func (r *FileRepo) Rename(ctx context.Context, ownerID, id, name string) (*biz.File, error) {
	return r.update(ctx, ownerID, id, map[string]interface{}{"file_name": name})
}

func (r *FileRepo) SetFavorite(ctx context.Context, ownerID, id string, favorite bool) (*biz.File, error) {
	return r.update(ctx, ownerID, id, map[string]interface{}{"is_favorite": favorite})
}

func (r *FileRepo) SetPrivate(ctx context.Context, ownerID, id string, private bool) (*biz.File, error) {
	return r.update(ctx, ownerID, id, map[string]interface{}{"private": private})
}

func (r *FileRepo) SetPrivateInFolder(ctx context.Context, ownerID, folderID string, private bool) error {
	err := r.db.WithContext(ctx).Model(&FilePO{}).
		Where("owner_id = ? AND folder_id = ?", ownerID, folderID).
		Updates(map[string]interface{}{"private": private, "updated_at": time.Now().UTC()}).Error
	if err != nil {
		return fmt.Errorf("failed to set folder files privacy: %w", err)
	}
	return nil
}

func (r *FileRepo) Delete(ctx context.Context, ownerID, id string) error {
	res := r.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).Delete(&FilePO{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete file: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return biz.ErrFileNotFound
	}
	return nil
}

func (r *FileRepo) List(ctx context.Context, q biz.FileQuery) ([]*biz.File, error) {
	var pos []FilePO
	err := r.db.WithContext(ctx).
		Scopes(itemScopes(q.ItemQuery)...).
		Scopes(fileTypeFilter(q)).
		Find(&pos).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	return toFiles(pos), nil
}

// fileTypeFilter ORs the exact types with the prefix match
func fileTypeFilter(q biz.FileQuery) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch {
		case len(q.FileTypes) > 0 && q.TypePrefix != "":
			return db.Where("file_type IN ? OR file_type LIKE ?", q.FileTypes, q.TypePrefix+"%")
		case len(q.FileTypes) > 0:
			return db.Where("file_type IN ?", q.FileTypes)
		}
		return db.Scopes(database.WhereIf(q.TypePrefix != "", "file_type LIKE ?", q.TypePrefix+"%"))
	}
}

func (r *FileRepo) ListByFolder(ctx context.Context, ownerID string, folderID *string, private *bool) ([]*biz.File, error) {
	var pos []FilePO
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Scopes(
			database.NullableEq("folder_id", folderID),
			boolEq("private", private),
			database.OrderBy("updated_at", true),
			database.OrderBy("id", false),
		).
		Find(&pos).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list folder files: %w", err)
	}
	return toFiles(pos), nil
}

func (r *FileRepo) UsageByType(ctx context.Context, ownerID string) ([]biz.TypeUsage, error) {
	var rows []struct {
		FileType string
		Bytes    int64
		Count    int64
	}
	err := r.db.WithContext(ctx).Model(&FilePO{}).
		Select("file_type, COALESCE(SUM(file_size), 0) AS bytes, COUNT(*) AS count").
		Where("owner_id = ?", ownerID).
		Group("file_type").
		Order("file_type").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate usage: %w", err)
	}

	out := make([]biz.TypeUsage, len(rows))
	for i, row := range rows {
		out[i] = biz.TypeUsage{FileType: row.FileType, Bytes: row.Bytes, Count: row.Count}
	}
	return out, nil
}

func (r *FileRepo) ReferencedBlobs(ctx context.Context, refs []string) (map[string]bool, error) {
	out := make(map[string]bool, len(refs))
	if len(refs) == 0 {
		return out, nil
	}

	var held []string
	err := r.db.WithContext(ctx).Model(&FilePO{}).
		Where("blob_ref IN ?", refs).
		Distinct().
		Pluck("blob_ref", &held).Error
	if err != nil {
		return nil, fmt.Errorf("failed to look up blob refs: %w", err)
	}
	for _, ref := range held {
		out[ref] = true
	}
	return out, nil
}

func (r *FileRepo) Scan(ctx context.Context, afterID string, limit int) ([]*biz.File, error) {
	var pos []FilePO
	err := r.db.WithContext(ctx).
		Where("id > ?", afterID).
		Order("id").
		Limit(limit).
		Find(&pos).Error
	if err != nil {
		return nil, fmt.Errorf("failed to scan files: %w", err)
	}
	return toFiles(pos), nil
}

func fromFile(f *biz.File) *FilePO {
	return &FilePO{
		ID:         f.ID,
		FileName:   f.FileName,
		BlobRef:    f.BlobRef,
		FileType:   f.FileType,
		FileSize:   f.FileSize,
		FolderID:   f.FolderID,
		OwnerID:    f.OwnerID,
		IsFavorite: f.IsFavorite,
		Private:    f.Private,
		CreatedAt:  f.CreatedAt,
		UpdatedAt:  f.UpdatedAt,
	}
}

func (po *FilePO) toDomain() *biz.File {
	return &biz.File{
		ID:         po.ID,
		FileName:   po.FileName,
		BlobRef:    po.BlobRef,
		FileType:   po.FileType,
		FileSize:   po.FileSize,
		FolderID:   po.FolderID,
		OwnerID:    po.OwnerID,
		IsFavorite: po.IsFavorite,
		Private:    po.Private,
		CreatedAt:  po.CreatedAt,
		UpdatedAt:  po.UpdatedAt,
	}
}

func toFiles(pos []FilePO) []*biz.File {
	out := make([]*biz.File, len(pos))
	for i := range pos {
		out[i] = pos[i].toDomain()
	}
	return out
}
