package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeMaturer struct {
	mu      sync.Mutex
	batches []int
	err     error
	calls   int
}

func (f *fakeMaturer) MatureDue(_ context.Context, batchSize int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	if len(f.batches) == 0 {
		return 0, nil
	}
	n := f.batches[0]
	f.batches = f.batches[1:]
	if n > batchSize {
		n = batchSize
	}
	return n, nil
}

func (f *fakeMaturer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestRunOnceDrainsFullBatches(t *testing.T) {
	m := &fakeMaturer{batches: []int{maturityBatchSize, maturityBatchSize, 30, 50}}
	NewMaturityJob(m, time.Second).RunOnce()

	if m.calls != 3 {
		t.Errorf("expected 3 batches before a short one, got %d", m.calls)
	}
}

func TestRunOnceStopsOnError(t *testing.T) {
	m := &fakeMaturer{err: errors.New("database unavailable")}
	NewMaturityJob(m, time.Second).RunOnce()

	if m.calls != 1 {
		t.Errorf("expected a single attempt, got %d", m.calls)
	}
}

func TestStartAndStop(t *testing.T) {
	m := &fakeMaturer{}
	job := NewMaturityJob(m, 10*time.Millisecond)
	go job.Start()

	deadline := time.Now().Add(2 * time.Second)
	for m.callCount() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	job.Stop()

	if m.callCount() < 2 {
		t.Fatalf("expected the ticker to run the job, got %d calls", m.callCount())
	}

	after := m.callCount()
	time.Sleep(30 * time.Millisecond)
	if m.callCount() != after {
		t.Error("job kept running after Stop")
	}
}
