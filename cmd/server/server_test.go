package server

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/martinsuchenak/labeld/internal/config"
	"github.com/martinsuchenak/labeld/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingJobs holds a prune open until its context is cancelled and records
// whether it was still running when Close was called.
type blockingJobs struct {
	storage.JobStorage
	started chan struct{}

	mu           sync.Mutex
	running      bool
	closed       bool
	usedAfterEnd bool
}

func (b *blockingJobs) DeleteJobsBefore(ctx context.Context, before time.Time) (int, error) {
	b.mu.Lock()
	b.running = true
	b.mu.Unlock()
	close(b.started)

	<-ctx.Done()
	// Simulate a slow driver returning after cancellation
	time.Sleep(20 * time.Millisecond)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		b.usedAfterEnd = true
	}
	b.running = false
	return 0, ctx.Err()
}

func (b *blockingJobs) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	if b.running {
		b.usedAfterEnd = true
	}
	return nil
}

func TestHistoryPrunerFinishesBeforeClose(t *testing.T) {
	jobs := &blockingJobs{started: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())

	done := startHistoryPruner(ctx, jobs, 30)
	select {
	case <-jobs.started:
	case <-time.After(5 * time.Second):
		t.Fatal("prune never started")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("pruner did not exit after cancellation")
	}
	require.NoError(t, jobs.Close())

	jobs.mu.Lock()
	defer jobs.mu.Unlock()
	assert.False(t, jobs.usedAfterEnd)
}

func TestHistoryPrunerDisabled(t *testing.T) {
	jobs := &blockingJobs{started: make(chan struct{})}

	done := startHistoryPruner(context.Background(), jobs, 0)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("disabled pruner should return immediately")
	}
	select {
	case <-jobs.started:
		t.Fatal("disabled pruner should not delete anything")
	default:
	}
}

func TestProberConfig(t *testing.T) {
	pc := proberConfig(config.StatusConfig{Timeout: time.Second})
	assert.Equal(t, time.Second, pc.Timeout)
	assert.Nil(t, pc.SNMP)

	pc = proberConfig(config.StatusConfig{SNMP: config.SNMPConfig{Enabled: true, Community: "public", Version: "2c"}})
	require.NotNil(t, pc.SNMP)
	assert.Equal(t, "public", pc.SNMP.Community)
}
