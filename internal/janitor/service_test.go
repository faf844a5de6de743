package janitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakePruner struct {
	mu     sync.Mutex
	calls  int
	maxAge time.Duration
	err    error
}

func (f *fakePruner) PruneIdentifications(maxAge time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.maxAge = maxAge
	return 1, f.err
}

func (f *fakePruner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestNewService_Defaults(t *testing.T) {
	s := NewService(&fakePruner{}, 0, 0)
	assert.Equal(t, DefaultMaxAge, s.maxAge)
	assert.Equal(t, DefaultPruneInterval, s.interval)
}

func TestRun_PrunesImmediatelyAndPeriodically(t *testing.T) {
	pruner := &fakePruner{}
	s := NewService(pruner, time.Hour, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return pruner.callCount() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	<-done

	pruner.mu.Lock()
	defer pruner.mu.Unlock()
	assert.Equal(t, time.Hour, pruner.maxAge)
}

func TestRun_KeepsGoingAfterErrors(t *testing.T) {
	pruner := &fakePruner{err: errors.New("database is locked")}
	s := NewService(pruner, time.Hour, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	assert.Eventually(t, func() bool { return pruner.callCount() >= 2 }, 2*time.Second, 5*time.Millisecond)
}
