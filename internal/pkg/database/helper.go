package database

import (
	"context"

	"gorm.io/gorm"
)

// OrderBy adds ordering to a query
func OrderBy(field string, desc bool) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if desc {
			return db.Order(field + " DESC")
		}
		return db.Order(field)
	}
}

// WhereIf conditionally adds a where clause
func WhereIf(condition bool, query interface{}, args ...interface{}) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if condition {
			return db.Where(query, args...)
		}
		return db
	}
}

// NullableEq matches column against a nullable value: IS NULL for nil.
func NullableEq(column string, value *string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if value == nil {
			return db.Where(column + " IS NULL")
		}
		return db.Where(column+" = ?", *value)
	}
}

// Exists reports whether any row matches the query
func Exists(ctx context.Context, db *gorm.DB, model interface{}, query interface{}, args ...interface{}) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Model(model).Where(query, args...).Limit(1).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Increment atomically adds delta to column on the rows matching query.
// It returns the number of rows affected so callers can detect missing rows.
func Increment(ctx context.Context, db *gorm.DB, model interface{}, column string, delta int64, query interface{}, args ...interface{}) (int64, error) {
	res := db.WithContext(ctx).Model(model).Where(query, args...).
		UpdateColumn(column, gorm.Expr(column+" + ?", delta))
	return res.RowsAffected, res.Error
}
