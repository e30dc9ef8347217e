// Package data implements the drive metadata store on PostgreSQL via gorm.
package data

import (
	"time"

	"gorm.io/gorm"

	"github.com/Tanvin-Ahmed/file-management-server/internal/drive/biz"
	"github.com/Tanvin-Ahmed/file-management-server/internal/pkg/database"
)

// Models lists the tables owned by the drive for AutoMigrate
func Models() []interface{} {
	return []interface{}{&FolderPO{}, &FilePO{}}
}

func boolEq(column string, v *bool) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if v == nil {
			return db
		}
		return db.Where(column+" = ?", *v)
	}
}

func timeRange(from, to *time.Time) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if from != nil {
			db = db.Where("updated_at >= ?", *from)
		}
		if to != nil {
			db = db.Where("updated_at < ?", *to)
		}
		return db
	}
}

// itemScopes applies the shared listing filters and ordering
func itemScopes(q biz.ItemQuery) []func(db *gorm.DB) *gorm.DB {
	return []func(db *gorm.DB) *gorm.DB{
		func(db *gorm.DB) *gorm.DB { return db.Where("owner_id = ?", q.OwnerID) },
		boolEq("private", q.Private),
		boolEq("is_favorite", q.Favorite),
		timeRange(q.UpdatedFrom, q.UpdatedTo),
		database.OrderBy("updated_at", true),
		database.OrderBy("id", false),
		func(db *gorm.DB) *gorm.DB {
			if q.Limit > 0 {
				return db.Limit(q.Limit)
			}
			return db
		},
	}
}
