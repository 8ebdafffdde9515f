package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/okian/cupstats/internal/domain/view"
)

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	if !q.Enqueue(ctx, Job{View: view.Home}) {
		t.Error("expected enqueue to succeed")
	}

	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	job := <-q.Dequeue(ctx)
	if job.View != view.Home {
		t.Errorf("expected Home, got %q", job.View)
	}

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if !q.Enqueue(ctx, Job{View: view.Home}) {
		t.Error("expected enqueue to succeed")
	}
	if !q.Enqueue(ctx, Job{View: view.Visuals}) {
		t.Error("expected enqueue to succeed")
	}
	if q.Enqueue(ctx, Job{View: view.Insights}) {
		t.Error("expected enqueue to fail when full")
	}

	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_DefaultCapacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(-1))
	if q.capacity != defaultQueueCapacity {
		t.Errorf("expected default capacity %d, got %d", defaultQueueCapacity, q.capacity)
	}
}

func TestInMemoryQueue_Close(t *testing.T) {
	q := NewInMemoryQueue()
	ctx := context.Background()

	if !q.Enqueue(ctx, Job{View: view.DatasetInfo}) {
		t.Fatal("expected enqueue to succeed")
	}
	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed")
	}
	if err := q.Close(); err != nil {
		t.Errorf("second close should be a no-op, got %v", err)
	}
	if q.Enqueue(ctx, Job{View: view.Home}) {
		t.Error("expected enqueue on a closed queue to fail")
	}

	var got []view.View
	for job := range q.Dequeue(ctx) {
		got = append(got, job.View)
	}
	if len(got) != 1 || got[0] != view.DatasetInfo {
		t.Errorf("expected queued job to be delivered after close, got %v", got)
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if q.Enqueue(ctx, Job{View: view.Home}) {
		t.Error("expected enqueue with a cancelled context to fail")
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(8))
	ctx := context.Background()
	views := []view.View{view.Home, view.DatasetInfo, view.Visuals, view.Insights}
	producers := 4
	perProducer := 25

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				job := Job{View: views[(id+j)%len(views)]}
				for !q.Enqueue(ctx, job) {
					time.Sleep(time.Millisecond)
				}
			}
		}(i)
	}

	received := 0
	done := make(chan struct{})
	go func() {
		for range q.Dequeue(ctx) {
			received++
		}
		close(done)
	}()

	wg.Wait()
	_ = q.Close()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out draining the queue")
	}

	if received != producers*perProducer {
		t.Errorf("expected %d jobs, got %d", producers*perProducer, received)
	}
}
