package biz

import (
	"context"
	"errors"
	"time"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrQuotaExceeded  = errors.New("storage quota exceeded")
	ErrInvalidOwnerID = errors.New("owner id is required")
)

// User holds the storage ledger of one owner. The id is the subject of the
// verified access token.
type User struct {
	ID          string
	UsedStorage int64
	// QuotaLimit of 0 means the configured default applies.
	QuotaLimit int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// EffectiveQuota returns the limit enforced for u
func (u *User) EffectiveQuota(defaultQuota int64) int64 {
	if u.QuotaLimit > 0 {
		return u.QuotaLimit
	}
	return defaultQuota
}

// UserRepo persists the ledger
type UserRepo interface {
	// Ensure returns the user, creating an empty ledger on first sight.
	Ensure(ctx context.Context, id string) (*User, error)
	Get(ctx context.Context, id string) (*User, error)
	// IncrementUsedStorage applies delta atomically and returns the new total.
	IncrementUsedStorage(ctx context.Context, id string, delta int64) (int64, error)
}

// UserUseCase exposes ledger lookups to the drive facade
type UserUseCase struct {
	repo         UserRepo
	defaultQuota int64
}

func NewUserUseCase(repo UserRepo, defaultQuota int64) *UserUseCase {
	return &UserUseCase{repo: repo, defaultQuota: defaultQuota}
}

func (uc *UserUseCase) EnsureUser(ctx context.Context, id string) (*User, error) {
	if id == "" {
		return nil, ErrInvalidOwnerID
	}
	return uc.repo.Ensure(ctx, id)
}

// Quota returns the owner's limit and current usage
func (uc *UserUseCase) Quota(ctx context.Context, id string) (limit, used int64, err error) {
	u, err := uc.EnsureUser(ctx, id)
	if err != nil {
		return 0, 0, err
	}
	return u.EffectiveQuota(uc.defaultQuota), u.UsedStorage, nil
}
