package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Tanvin-Ahmed/file-management-server/internal/pkg/database"
	"github.com/Tanvin-Ahmed/file-management-server/internal/user/biz"
)

// UserPO is the users table
type UserPO struct {
	ID          string    `gorm:"type:varchar(128);primarykey"`
	UsedStorage int64     `gorm:"not null;default:0"`
	QuotaLimit  int64     `gorm:"not null;default:0"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func (UserPO) TableName() string {
	return "users"
}

// UserRepo implements biz.UserRepo on gorm
type UserRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) biz.UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Ensure(ctx context.Context, id string) (*biz.User, error) {
	now := time.Now().UTC()
	po := &UserPO{ID: id, CreatedAt: now, UpdatedAt: now}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(po).Error
	if err != nil {
		return nil, fmt.Errorf("ensure user: %w", err)
	}
	return r.Get(ctx, id)
}

func (r *UserRepo) Get(ctx context.Context, id string) (*biz.User, error) {
	var po UserPO
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&po).Error; err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, biz.ErrUserNotFound
		}
		return nil, err
	}
	return po.toUser(), nil
}

func (r *UserRepo) IncrementUsedStorage(ctx context.Context, id string, delta int64) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := database.Increment(ctx, tx, &UserPO{}, "used_storage", delta, "id = ?", id)
		if err != nil {
			return err
		}
		if n == 0 {
			return biz.ErrUserNotFound
		}
		return tx.Model(&UserPO{}).Where("id = ?", id).Pluck("used_storage", &total).Error
	})
	if err != nil {
		if errors.Is(err, biz.ErrUserNotFound) {
			return 0, err
		}
		return 0, fmt.Errorf("increment used storage: %w", err)
	}
	return total, nil
}

func (po *UserPO) toUser() *biz.User {
	return &biz.User{
		ID:          po.ID,
		UsedStorage: po.UsedStorage,
		QuotaLimit:  po.QuotaLimit,
		CreatedAt:   po.CreatedAt,
		UpdatedAt:   po.UpdatedAt,
	}
}
