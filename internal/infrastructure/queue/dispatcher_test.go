package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type recordingRemover struct {
	mu   sync.Mutex
	urls []string
	err  error
	done chan struct{}
}

func (r *recordingRemover) Remove(_ context.Context, url string) error {
	r.mu.Lock()
	r.urls = append(r.urls, url)
	r.mu.Unlock()
	if r.done != nil {
		r.done <- struct{}{}
	}
	return r.err
}

func TestCleanupDispatcher_RemovesInBackground(t *testing.T) {
	remover := &recordingRemover{done: make(chan struct{}, 8)}
	d := NewCleanupDispatcher(2, remover, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	urls := []string{"https://cdn/a.png", "https://cdn/b.png", "https://cdn/c.png"}
	for _, u := range urls {
		if err := d.Remove(context.Background(), u); err != nil {
			t.Fatalf("enqueue %s: %v", u, err)
		}
	}

	for range urls {
		select {
		case <-remover.done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for cleanup")
		}
	}

	remover.mu.Lock()
	defer remover.mu.Unlock()
	if len(remover.urls) != len(urls) {
		t.Fatalf("expected %d removals, got %d", len(urls), len(remover.urls))
	}
}

func TestCleanupDispatcher_FailureDoesNotStopWorker(t *testing.T) {
	remover := &recordingRemover{err: errors.New("boom"), done: make(chan struct{}, 4)}
	d := NewCleanupDispatcher(1, remover, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	_ = d.Remove(ctx, "https://cdn/1.png")
	_ = d.Remove(ctx, "https://cdn/2.png")

	for i := 0; i < 2; i++ {
		select {
		case <-remover.done:
		case <-time.After(2 * time.Second):
			t.Fatal("worker stopped after a failed removal")
		}
	}
}

func TestCleanupDispatcher_FullQueueRejects(t *testing.T) {
	d := NewCleanupDispatcher(1, &recordingRemover{}, zerolog.Nop())
	// Not started: nothing drains the channel.
	for i := 0; i < channelBuffer; i++ {
		if err := d.Remove(context.Background(), "https://cdn/x.png"); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}
	if err := d.Remove(context.Background(), "https://cdn/x.png"); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
}

func TestCleanupDispatcher_ShardIndexIsStable(t *testing.T) {
	d := NewCleanupDispatcher(0, &recordingRemover{}, zerolog.Nop())
	if len(d.workers) != defaultWorkers {
		t.Fatalf("expected %d workers, got %d", defaultWorkers, len(d.workers))
	}
	a := d.shardIndex("https://cdn/a.png")
	for i := 0; i < 10; i++ {
		if d.shardIndex("https://cdn/a.png") != a {
			t.Fatal("shard index must be deterministic")
		}
	}
}

func TestCleanupDispatcher_DrainsOnShutdown(t *testing.T) {
	remover := &recordingRemover{}
	d := NewCleanupDispatcher(2, remover, zerolog.Nop())

	for _, u := range []string{"https://cdn/a.png", "https://cdn/b.png", "https://cdn/c.png"} {
		if err := d.Remove(context.Background(), u); err != nil {
			t.Fatalf("enqueue %s: %v", u, err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Start(ctx)
	d.Wait()

	remover.mu.Lock()
	defer remover.mu.Unlock()
	if len(remover.urls) != 3 {
		t.Fatalf("expected queued jobs to drain, got %d removals", len(remover.urls))
	}
}
