package common

import (
	"sync"
	"testing"
	"time"
)

type batchRecorder struct {
	mu      sync.Mutex
	batches [][]int
	total   int
}

func (r *batchRecorder) process(items []int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	batch := make([]int, len(items))
	copy(batch, items)
	r.batches = append(r.batches, batch)
	r.total += len(items)
}

func (r *batchRecorder) snapshot() (int, [][]int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.total, r.batches
}

func TestQueueHandlerDrain(t *testing.T) {
	rec := &batchRecorder{}
	q := NewQueueHandler(rec.process, 100)
	defer q.Stop()

	q.Add(1, 2, 3)
	q.Drain()

	total, batches := rec.snapshot()
	if total != 3 {
		t.Errorf("Expected 3 items processed, got %d", total)
	}
	if len(batches) != 1 {
		t.Errorf("Expected a single batch, got %d", len(batches))
	}
}

func TestQueueHandlerDrainEmpty(t *testing.T) {
	rec := &batchRecorder{}
	q := NewQueueHandler(rec.process, 10)
	defer q.Stop()

	q.Drain()

	total, _ := rec.snapshot()
	if total != 0 {
		t.Errorf("Expected no items processed, got %d", total)
	}
}

func TestQueueHandlerBackgroundChunks(t *testing.T) {
	rec := &batchRecorder{}
	q := NewQueueHandler(rec.process, 2)
	defer q.Stop()

	q.Add(1, 2, 3, 4, 5)

	deadline := time.Now().Add(3 * time.Second)
	for {
		total, _ := rec.snapshot()
		if total == 5 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("Expected 5 items processed, got %d", total)
		}
		time.Sleep(10 * time.Millisecond)
	}

	_, batches := rec.snapshot()
	for _, batch := range batches {
		if len(batch) > 2 {
			t.Errorf("Expected chunks of at most 2, got %d", len(batch))
		}
	}
}
