package workers_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/aretw0/warden/pkg/workers"
	"github.com/stretchr/testify/assert"
)

func TestPool_RunsAllJobs(t *testing.T) {
	var count atomic.Int32
	p := workers.New(context.Background(), workers.WithLimit(2))

	for i := 0; i < 20; i++ {
		assert.True(t, p.Submit("inc", func(ctx context.Context) error {
			count.Add(1)
			return nil
		}))
	}
	p.Close()
	assert.Equal(t, int32(20), count.Load())
}

func TestPool_IsolatesFailures(t *testing.T) {
	var mu sync.Mutex
	done := map[string]error{}
	p := workers.New(context.Background(), workers.WithOnDone(func(name string, err error) {
		mu.Lock()
		defer mu.Unlock()
		done[name] = err
	}))

	p.Submit("boom", func(ctx context.Context) error { panic("kaboom") })
	p.Submit("fail", func(ctx context.Context) error { return errors.New("nope") })
	p.Submit("ok", func(ctx context.Context) error { return nil })
	p.Close()

	assert.Len(t, done, 3)
	assert.ErrorContains(t, done["boom"], "kaboom")
	assert.EqualError(t, done["fail"], "nope")
	assert.NoError(t, done["ok"])
}

func TestPool_RejectsAfterClose(t *testing.T) {
	p := workers.New(context.Background())
	p.Close()
	assert.False(t, p.Submit("late", func(ctx context.Context) error { return nil }))
}
