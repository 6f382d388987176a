package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type countingSyncer struct {
	calls atomic.Int32
	err   error
}

func (s *countingSyncer) SyncStatuses(context.Context) (int64, error) {
	s.calls.Add(1)
	return 1, s.err
}

func TestStatusWorkerSyncsUntilCancelled(t *testing.T) {
	syncer := &countingSyncer{}
	w := NewStatusWorker(syncer, nil, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	deadline := time.After(time.Second)
	for syncer.calls.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("expected at least 3 syncs, got %d", syncer.calls.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestStatusWorkerKeepsRunningAfterError(t *testing.T) {
	syncer := &countingSyncer{err: errors.New("database unavailable")}
	w := NewStatusWorker(syncer, nil, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	w.Start(ctx)

	if syncer.calls.Load() < 2 {
		t.Fatalf("expected repeated syncs after failure, got %d", syncer.calls.Load())
	}
}

func TestStatusWorkerDisabled(t *testing.T) {
	syncer := &countingSyncer{}
	NewStatusWorker(syncer, nil, 0).Start(context.Background())

	if syncer.calls.Load() != 0 {
		t.Fatalf("disabled worker synced %d times", syncer.calls.Load())
	}
}
