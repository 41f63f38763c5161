package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/deadwick/feedback-service/internal/api/metrics"
	"github.com/deadwick/feedback-service/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	drainTimeout   = 10 * time.Second
)

// ErrQueueFull is returned when the target worker cannot accept another job.
var ErrQueueFull = errors.New("cleanup queue full")

// CleanupDispatcher removes blobs in the background. URLs are sharded across
// a fixed set of workers by hash so repeated removals of one URL stay ordered.
// It satisfies ports.BlobRemover.
type CleanupDispatcher struct {
	workers []chan string
	remover ports.BlobRemover
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewCleanupDispatcher creates a dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewCleanupDispatcher(numWorkers int, remover ports.BlobRemover, log zerolog.Logger) *CleanupDispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &CleanupDispatcher{
		workers: make([]chan string, numWorkers),
		remover: remover,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan string, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *CleanupDispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has drained its queue after ctx was cancelled.
func (d *CleanupDispatcher) Wait() {
	d.wg.Wait()
}

// Remove enqueues url for removal without blocking. The caller's context is
// not carried into the worker; the job outlives the request.
func (d *CleanupDispatcher) Remove(_ context.Context, url string) error {
	idx := d.shardIndex(url)
	select {
	case d.workers[idx] <- url:
		metrics.CleanupQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
		return nil
	default:
		metrics.BlobCleanupTotal.WithLabelValues("dropped").Inc()
		return ErrQueueFull
	}
}

// shardIndex maps a URL deterministically to a worker index.
func (d *CleanupDispatcher) shardIndex(url string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(url))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *CleanupDispatcher) runWorker(ctx context.Context, id int, ch <-chan string) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			d.drain(id, ch)
			return
		case url, ok := <-ch:
			if !ok {
				return
			}
			d.process(ctx, id, url, len(ch))
		}
	}
}

// drain finishes whatever is already queued, bounded by drainTimeout.
func (d *CleanupDispatcher) drain(id int, ch <-chan string) {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for {
		select {
		case url, ok := <-ch:
			if !ok {
				return
			}
			d.process(ctx, id, url, len(ch))
		default:
			return
		}
		if ctx.Err() != nil {
			d.log.Warn().Int("worker_id", id).Int("left", len(ch)).Msg("cleanup drain timed out")
			return
		}
	}
}

func (d *CleanupDispatcher) process(ctx context.Context, id int, url string, depth int) {
	metrics.CleanupQueueDepth.WithLabelValues(strconv.Itoa(id)).Set(float64(depth))
	if err := d.remover.Remove(ctx, url); err != nil {
		metrics.BlobCleanupTotal.WithLabelValues("failed").Inc()
		d.log.Error().Err(err).
			Str("image_ref", url).
			Int("worker_id", id).
			Msg("blob cleanup failed")
		return
	}
	metrics.BlobCleanupTotal.WithLabelValues("removed").Inc()
}
