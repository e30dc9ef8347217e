package biz

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Tanvin-Ahmed/file-management-server/internal/pkg/logger"
	"github.com/Tanvin-Ahmed/file-management-server/internal/pkg/metrics"
	"github.com/Tanvin-Ahmed/file-management-server/internal/pkg/redis"
	"github.com/Tanvin-Ahmed/file-management-server/internal/pkg/workerpool"
)

const reconcileLockKey = "drive:reconcile:lock"

// ReconcileConfig drives the background sweep
type ReconcileConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Interval  time.Duration `mapstructure:"interval" validate:"omitempty,min=1s"`
	BatchSize int           `mapstructure:"batch_size" validate:"omitempty,min=1,max=10000"`
	// DryRun logs orphans without deleting them.
	DryRun  bool          `mapstructure:"dry_run"`
	LockTTL time.Duration `mapstructure:"lock_ttl"`
	// GracePeriod protects blobs of uploads and copies still in flight.
	GracePeriod time.Duration `mapstructure:"grace_period"`
	RunTimeout  time.Duration `mapstructure:"run_timeout"`
}

func (c ReconcileConfig) withDefaults() ReconcileConfig {
	if c.Interval <= 0 {
		c.Interval = 6 * time.Hour
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 500
	}
	if c.LockTTL <= 0 {
		c.LockTTL = 30 * time.Minute
	}
	if c.GracePeriod <= 0 {
		c.GracePeriod = time.Hour
	}
	if c.RunTimeout <= 0 {
		c.RunTimeout = 20 * time.Minute
	}
	return c
}

// Locker serializes sweeps across instances. *redis.Client satisfies it.
type Locker interface {
	WithLock(ctx context.Context, key string, expiration time.Duration, fn func(ctx context.Context) error) error
}

// ReconcileStats summarizes one sweep
type ReconcileStats struct {
	StartTime      time.Time
	EndTime        time.Time
	BlobsSeen      int64
	BlobsTooYoung  int64
	Orphaned       int64
	Deleted        int64
	FailedDeletes  int64
	FilesScanned   int64
	MissingContent int64
}

func (s *ReconcileStats) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

// Reconciler matches file rows against blobs in both directions. Orphaned
// blobs are deleted; rows whose blob is gone are only reported.
type Reconciler struct {
	files  FileRepo
	blobs  BlobStore
	locker Locker
	pool   *workerpool.Pool
	config ReconcileConfig
	logger *logger.Logger

	stopOnce sync.Once
	started  atomic.Bool
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewReconciler builds a stopped sweeper. locker may be nil for a single
// instance deployment.
func NewReconciler(files FileRepo, blobs BlobStore, locker Locker, pool *workerpool.Pool, config ReconcileConfig, log *logger.Logger) *Reconciler {
	return &Reconciler{
		files:  files,
		blobs:  blobs,
		locker: locker,
		pool:   pool,
		config: config.withDefaults(),
		logger: log.Named("reconcile"),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start launches the periodic sweep. No-op when disabled or already started.
func (r *Reconciler) Start() {
	if !r.config.Enabled || !r.started.CompareAndSwap(false, true) {
		return
	}
	r.logger.Info("starting reconciliation sweep",
		zap.Duration("interval", r.config.Interval),
		zap.Int("batch_size", r.config.BatchSize),
		zap.Bool("dry_run", r.config.DryRun))
	go r.worker()
}

// Stop signals the worker and waits for the current sweep to end
func (r *Reconciler) Stop(ctx context.Context) error {
	if !r.started.Load() {
		return nil
	}
	r.stopOnce.Do(func() { close(r.stopCh) })

	select {
	case <-r.doneCh:
		r.logger.Info("reconciliation sweep stopped")
		return nil
	case <-ctx.Done():
		r.logger.Warn("reconciliation sweep shutdown timeout")
		return ctx.Err()
	}
}

func (r *Reconciler) worker() {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), r.config.RunTimeout)
			go func() {
				select {
				case <-r.stopCh:
					cancel()
				case <-ctx.Done():
				}
			}()
			_, err := r.RunNow(ctx)
			cancel()
			if err != nil && !errors.Is(err, redis.ErrLockNotAcquired) {
				r.logger.Error("reconciliation sweep failed", zap.Error(err))
			}
		case <-r.stopCh:
			return
		}
	}
}

// RunNow runs one sweep under the cluster lock
func (r *Reconciler) RunNow(ctx context.Context) (*ReconcileStats, error) {
	var stats *ReconcileStats
	run := func(ctx context.Context) error {
		var err error
		stats, err = r.collect(ctx)
		return err
	}

	var err error
	if r.locker != nil {
		err = r.locker.WithLock(ctx, reconcileLockKey, r.config.LockTTL, run)
	} else {
		err = run(ctx)
	}

	if errors.Is(err, redis.ErrLockNotAcquired) {
		r.logger.Debug("reconciliation sweep held by another instance")
		return nil, err
	}
	metrics.RecordReconcileRun(err == nil)
	return stats, err
}

func (r *Reconciler) collect(ctx context.Context) (*ReconcileStats, error) {
	stats := &ReconcileStats{StartTime: time.Now()}
	defer func() { stats.EndTime = time.Now() }()

	if err := r.sweepBlobs(ctx, stats); err != nil {
		return stats, fmt.Errorf("sweep blobs: %w", err)
	}
	if err := r.probeFiles(ctx, stats); err != nil {
		return stats, fmt.Errorf("probe files: %w", err)
	}

	metrics.RecordReconcileOrphans("found", int(stats.Orphaned))
	metrics.RecordReconcileOrphans("deleted", int(stats.Deleted))
	r.logger.Info("reconciliation sweep completed",
		zap.Int64("blobs", stats.BlobsSeen),
		zap.Int64("orphaned", stats.Orphaned),
		zap.Int64("deleted", stats.Deleted),
		zap.Int64("failed", stats.FailedDeletes),
		zap.Int64("files", stats.FilesScanned),
		zap.Int64("missing_content", stats.MissingContent),
		zap.Duration("duration", stats.Duration()))
	return stats, nil
}

// sweepBlobs deletes blobs no row references, batch by batch
func (r *Reconciler) sweepBlobs(ctx context.Context, stats *ReconcileStats) error {
	cutoff := time.Now().Add(-r.config.GracePeriod)
	batch := make([]string, 0, r.config.BatchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := r.deleteOrphans(ctx, batch, stats)
		batch = batch[:0]
		return err
	}

	err := r.blobs.List(ctx, func(e BlobEntry) error {
		stats.BlobsSeen++
		if e.LastModified.IsZero() || e.LastModified.After(cutoff) {
			stats.BlobsTooYoung++
			return nil
		}
		batch = append(batch, e.ID)
		if len(batch) >= r.config.BatchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return err
	}
	return flush()
}

func (r *Reconciler) deleteOrphans(ctx context.Context, ids []string, stats *ReconcileStats) error {
	referenced, err := r.files.ReferencedBlobs(ctx, ids)
	if err != nil {
		return err
	}

	var orphans []string
	for _, id := range ids {
		if !referenced[id] {
			orphans = append(orphans, id)
		}
	}
	stats.Orphaned += int64(len(orphans))
	if len(orphans) == 0 {
		return nil
	}

	if r.config.DryRun {
		for _, id := range orphans {
			r.logger.Info("orphaned blob (dry run)", zap.String("blob_id", id))
		}
		return nil
	}

	var deleted, failed atomic.Int64
	g := r.pool.NewGroup(ctx)
	for _, id := range orphans {
		id := id
		g.Go(func(ctx context.Context) error {
			if err := r.blobs.Delete(ctx, id); err != nil {
				failed.Add(1)
				r.logger.Warn("failed to delete orphaned blob", zap.String("blob_id", id), zap.Error(err))
				return nil
			}
			deleted.Add(1)
			return nil
		})
	}
	err = g.Wait()
	stats.Deleted += deleted.Load()
	stats.FailedDeletes += failed.Load()
	return err
}

// probeFiles reports rows whose blob no longer exists
func (r *Reconciler) probeFiles(ctx context.Context, stats *ReconcileStats) error {
	var missing atomic.Int64
	after := ""
	for {
		page, err := r.files.Scan(ctx, after, r.config.BatchSize)
		if err != nil {
			return err
		}
		if len(page) == 0 {
			break
		}
		stats.FilesScanned += int64(len(page))

		g := r.pool.NewGroup(ctx)
		for _, f := range page {
			f := f
			g.Go(func(ctx context.Context) error {
				_, err := r.blobs.Stat(ctx, f.BlobRef)
				if errors.Is(err, ErrBlobNotFound) {
					missing.Add(1)
					r.logger.Error("file row references missing blob",
						zap.String("file_id", f.ID),
						zap.String("owner_id", f.OwnerID),
						zap.String("blob_id", f.BlobRef))
					return nil
				}
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		after = page[len(page)-1].ID
		if len(page) < r.config.BatchSize {
			break
		}
	}

	stats.MissingContent = missing.Load()
	metrics.RecordReconcileOrphans("missing_content", int(stats.MissingContent))
	return nil
}
