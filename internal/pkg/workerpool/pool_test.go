package workerpool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_InvalidWorkers(t *testing.T) {
	_, err := New(&Config{Workers: 0}, nil)
	assert.Error(t, err)
}

func TestGroup(t *testing.T) {
	pool, err := New(&Config{Workers: 4}, zap.NewNop())
	require.NoError(t, err)
	defer pool.Shutdown()

	var ran atomic.Int32
	boom := errors.New("boom")

	g := pool.NewGroup(context.Background())
	for i := 0; i < 20; i++ {
		i := i
		g.Go(func(ctx context.Context) error {
			ran.Add(1)
			if i%5 == 0 {
				return boom
			}
			return nil
		})
	}

	err = g.Wait()
	assert.ErrorIs(t, err, boom)
	assert.EqualValues(t, 20, ran.Load())

	stats := pool.Stats()
	assert.EqualValues(t, 20, stats.Submitted)
	assert.EqualValues(t, 4, stats.Failed)
}

func TestGroup_CancelledContext(t *testing.T) {
	pool, err := New(nil, nil)
	require.NoError(t, err)
	defer pool.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := pool.NewGroup(ctx)
	g.Go(func(context.Context) error {
		t.Fatal("task must not run")
		return nil
	})
	assert.ErrorIs(t, g.Wait(), context.Canceled)
}

func TestShutdown(t *testing.T) {
	pool, err := New(nil, nil)
	require.NoError(t, err)

	pool.Shutdown()
	pool.Shutdown()
	assert.ErrorIs(t, pool.Submit(func() {}), ErrPoolClosed)
}
