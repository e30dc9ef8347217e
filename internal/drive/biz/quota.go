package biz

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Tanvin-Ahmed/file-management-server/internal/pkg/logger"
	"github.com/Tanvin-Ahmed/file-management-server/internal/pkg/metrics"
	userbiz "github.com/Tanvin-Ahmed/file-management-server/internal/user/biz"
)

// QuotaLedger maintains owner used-storage and folder sizes. Each unit of
// work applies one delta; recursive steps never adjust totals themselves.
type QuotaLedger struct {
	users        userbiz.UserRepo
	folders      FolderRepo
	defaultQuota int64
	logger       *logger.Logger
}

func NewQuotaLedger(users userbiz.UserRepo, folders FolderRepo, defaultQuota int64, log *logger.Logger) *QuotaLedger {
	return &QuotaLedger{users: users, folders: folders, defaultQuota: defaultQuota, logger: log}
}

// CheckAdmission fails with ErrQuotaExceeded when adding delta would pass
// the owner's limit. It does not reserve anything. The owner's ledger row is
// created on first sight so a later Commit always has a row to update.
func (q *QuotaLedger) CheckAdmission(ctx context.Context, ownerID string, delta int64) error {
	u, err := q.users.Ensure(ctx, ownerID)
	if err != nil {
		return err
	}
	if delta <= 0 {
		return nil
	}
	limit := u.EffectiveQuota(q.defaultQuota)
	if u.UsedStorage+delta > limit {
		q.logger.WithContext(ctx).Info("quota admission rejected",
			zap.Int64("used", u.UsedStorage),
			zap.Int64("bytes", delta),
			zap.Int64("limit", limit))
		return fmt.Errorf("%w: %d + %d > %d", ErrQuotaExceeded, u.UsedStorage, delta, limit)
	}
	return nil
}

// AdjustUsedStorage applies delta to the owner's total. Positive deltas are
// admitted first.
func (q *QuotaLedger) AdjustUsedStorage(ctx context.Context, ownerID string, delta int64) (int64, error) {
	if delta > 0 {
		if err := q.CheckAdmission(ctx, ownerID, delta); err != nil {
			return 0, err
		}
	}
	total, err := q.users.IncrementUsedStorage(ctx, ownerID, delta)
	if err != nil {
		return 0, fmt.Errorf("adjust used storage: %w", err)
	}
	return total, nil
}

// AdjustFolderSize applies delta to folderID only. Ancestors are untouched
// and the root has no size.
func (q *QuotaLedger) AdjustFolderSize(ctx context.Context, folderID *string, delta int64) error {
	if folderID == nil || delta == 0 {
		return nil
	}
	if err := q.folders.IncrementSize(ctx, *folderID, delta); err != nil {
		return fmt.Errorf("adjust folder size: %w", err)
	}
	return nil
}

// Commit records an already admitted unit of work: usedDelta on the owner
// and sizeDelta on parentID. Upload batches, copies and deletes call it
// exactly once, including after a partial failure, so totals keep matching
// the rows that exist.
func (q *QuotaLedger) Commit(ctx context.Context, ownerID string, parentID *string, usedDelta, sizeDelta int64) error {
	if usedDelta != 0 {
		if _, err := q.users.IncrementUsedStorage(ctx, ownerID, usedDelta); err != nil {
			return fmt.Errorf("adjust used storage: %w", err)
		}
	}
	if err := q.AdjustFolderSize(ctx, parentID, sizeDelta); err != nil {
		return err
	}
	q.logger.WithContext(ctx).Debug("storage committed",
		zap.Stringp("folder_id", parentID),
		zap.Int64("bytes", usedDelta),
		zap.Int64("folder_bytes", sizeDelta))
	return nil
}

func recordQuotaRejection(op string, err error) {
	if errors.Is(err, ErrQuotaExceeded) {
		metrics.RecordQuotaExceeded(op)
	}
}
