package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

var ErrPoolClosed = errors.New("worker pool is closed")

// Config sizes the pool
type Config struct {
	Workers int `mapstructure:"workers"`
	// Nonblocking makes Submit fail instead of waiting for a free worker.
	Nonblocking bool `mapstructure:"nonblocking"`
}

func DefaultConfig() *Config {
	return &Config{Workers: 8}
}

// Statistics counts tasks over the pool's lifetime
type Statistics struct {
	Submitted int64
	Completed int64
	Failed    int64
	Panicked  int64
}

// Pool runs tasks on a bounded ants pool
type Pool struct {
	pool   *ants.Pool
	logger *zap.Logger

	submitted atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
	panicked  atomic.Int64

	closeOnce sync.Once
	closed    atomic.Bool
}

// New creates a pool. A nil config uses DefaultConfig.
func New(config *Config, logger *zap.Logger) (*Pool, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Workers <= 0 {
		return nil, fmt.Errorf("workers must be positive, got %d", config.Workers)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &Pool{logger: logger}
	antsPool, err := ants.NewPool(config.Workers,
		ants.WithNonblocking(config.Nonblocking),
		ants.WithPanicHandler(func(v interface{}) {
			p.panicked.Add(1)
			p.failed.Add(1)
			logger.Error("worker panic", zap.Any("error", v))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ants pool: %w", err)
	}
	p.pool = antsPool
	return p, nil
}

// Submit queues task
func (p *Pool) Submit(task func()) error {
	if p.closed.Load() {
		return ErrPoolClosed
	}
	p.submitted.Add(1)
	err := p.pool.Submit(func() {
		task()
		p.completed.Add(1)
	})
	if err != nil {
		p.failed.Add(1)
		if errors.Is(err, ants.ErrPoolClosed) {
			return ErrPoolClosed
		}
		return err
	}
	return nil
}

// Group collects errors from tasks submitted through it
type Group struct {
	pool *Pool
	ctx  context.Context
	wg   sync.WaitGroup

	mu   sync.Mutex
	errs []error
}

// NewGroup binds a group to ctx. Tasks submitted after ctx is done are
// skipped and report ctx.Err().
func (p *Pool) NewGroup(ctx context.Context) *Group {
	return &Group{pool: p, ctx: ctx}
}

// Go runs fn on the pool
func (g *Group) Go(fn func(ctx context.Context) error) {
	if err := g.ctx.Err(); err != nil {
		g.record(err)
		return
	}

	g.wg.Add(1)
	err := g.pool.Submit(func() {
		defer g.wg.Done()
		if err := fn(g.ctx); err != nil {
			g.pool.failed.Add(1)
			g.record(err)
		}
	})
	if err != nil {
		g.wg.Done()
		g.record(err)
	}
}

// Wait blocks until every task finished and joins their errors
func (g *Group) Wait() error {
	g.wg.Wait()
	g.mu.Lock()
	defer g.mu.Unlock()
	return errors.Join(g.errs...)
}

func (g *Group) record(err error) {
	g.mu.Lock()
	g.errs = append(g.errs, err)
	g.mu.Unlock()
}

func (p *Pool) Running() int { return p.pool.Running() }

func (p *Pool) Free() int { return p.pool.Free() }

func (p *Pool) Stats() Statistics {
	return Statistics{
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
		Panicked:  p.panicked.Load(),
	}
}

// Shutdown stops accepting tasks and releases the workers
func (p *Pool) Shutdown() {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		p.pool.Release()
	})
}
