package queue

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	job := NewJob(101, nil)
	if job.ID == "" {
		t.Fatal("expected job id to be set")
	}
	if !q.Enqueue(ctx, job) {
		t.Error("expected enqueue to succeed")
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	got := <-q.Dequeue(ctx)
	if got.ID != job.ID || got.AthleteID != 101 {
		t.Errorf("expected job %s for athlete 101, got %s/%d", job.ID, got.ID, got.AthleteID)
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if !q.Enqueue(ctx, NewJob(1, nil)) || !q.Enqueue(ctx, NewJob(2, nil)) {
		t.Fatal("expected enqueue to succeed")
	}
	if q.Enqueue(ctx, NewJob(3, nil)) {
		t.Error("expected enqueue to fail when full")
	}
	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_UniqueIDs(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := NewJob(int64(i), nil).ID
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate job id %s", id)
		}
		seen[id] = struct{}{}
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(100))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	numProducers := 10
	numJobs := 100

	var wg sync.WaitGroup
	for i := 0; i < numProducers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < numJobs; j++ {
				for !q.Enqueue(ctx, NewJob(int64(id*numJobs+j), nil)) {
					time.Sleep(time.Millisecond)
				}
			}
		}(i)
	}

	consumed := make(chan string, numProducers*numJobs)
	for i := 0; i < 4; i++ {
		go func() {
			for job := range q.Dequeue(ctx) {
				consumed <- job.ID
			}
		}()
	}

	wg.Wait()

	timeout := time.After(2 * time.Second)
	for n := 0; n < numProducers*numJobs; n++ {
		select {
		case <-consumed:
		case <-timeout:
			t.Fatalf("consumed only %d jobs", n)
		}
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected final length 0, got %d", l)
	}
}

func TestInMemoryQueue_CancelledConsumerReplies(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(4))
	reply := make(chan Outcome, 1)
	if !q.Enqueue(context.Background(), NewJob(7, reply)) {
		t.Fatal("expected enqueue to succeed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// Nobody reads the dequeue channel, so the cancelled forwarder must
	// report the job it already took.
	_ = q.Dequeue(ctx)

	select {
	case out := <-reply:
		if out.AthleteID != 7 || out.Err == nil {
			t.Errorf("expected cancellation outcome for athlete 7, got %+v", out)
		}
	case <-time.After(time.Second):
		t.Fatal("expected an outcome for the abandoned job")
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	if !q.Enqueue(ctx, NewJob(1, nil)) || !q.Enqueue(ctx, NewJob(2, nil)) {
		t.Fatal("expected enqueue to succeed")
	}
	if q.IsClosed() {
		t.Error("expected queue to be open initially")
	}
	if err := q.Close(); err != nil {
		t.Errorf("expected close to succeed, got error: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed after Close()")
	}
	if q.Enqueue(ctx, NewJob(3, nil)) {
		t.Error("expected enqueue to fail after closing")
	}

	// Buffered jobs drain before the dequeue channel closes.
	drained := 0
	timeout := time.After(time.Second)
	jobs := q.Dequeue(ctx)
	for {
		select {
		case _, ok := <-jobs:
			if !ok {
				if drained != 2 {
					t.Errorf("expected 2 drained jobs, got %d", drained)
				}
				if err := q.Close(); err != nil {
					t.Errorf("expected second close to succeed, got error: %v", err)
				}
				return
			}
			drained++
		case <-timeout:
			t.Fatal("expected dequeue channel to be closed within timeout")
		}
	}
}
