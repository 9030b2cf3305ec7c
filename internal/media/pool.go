package media

import (
	"context"
	"sync"
	"time"

	"mangashelf/internal/logging"
	"mangashelf/internal/memory"
	"mangashelf/internal/metrics"
	"mangashelf/internal/workers"
)

// ThumbnailResult is an asynchronous thumbnail delivery. Results carry
// the source path they were requested for; consumers must match it
// against their live display slots and discard anything stale.
type ThumbnailResult struct {
	Path string
	Data []byte
	Err  error
}

// closeGracePeriod is how long Close waits for in-flight renders before
// giving up on them. Leftover work finishes in the background and is
// discarded.
const closeGracePeriod = 500 * time.Millisecond

// ThumbnailPool serves thumbnail requests on a bounded worker pool.
// Completions arrive on Results in arbitrary order; there is no
// ordering guarantee across files and no hard cancellation, only the
// grace period on Close.
type ThumbnailPool struct {
	gen     *ThumbnailGenerator
	monitor *memory.Monitor

	requests chan string
	results  chan ThumbnailResult

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	closeOnce sync.Once
}

// NewThumbnailPool starts a pool of render workers sized for mixed
// read-render-write work. monitor may be nil to disable memory
// backpressure.
func NewThumbnailPool(gen *ThumbnailGenerator, monitor *memory.Monitor, maxWorkers int) *ThumbnailPool {
	ctx, cancel := context.WithCancel(context.Background())
	p := &ThumbnailPool{
		gen:      gen,
		monitor:  monitor,
		requests: make(chan string, 256),
		results:  make(chan ThumbnailResult, 256),
		ctx:      ctx,
		cancel:   cancel,
	}

	count := workers.ForMixed(maxWorkers)
	logging.Info("Starting %d thumbnail workers", count)
	for i := 0; i < count; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Results returns the delivery channel. It is closed after Close once
// the workers have drained.
func (p *ThumbnailPool) Results() <-chan ThumbnailResult {
	return p.results
}

// Request enqueues a thumbnail render for path. Returns false when the
// queue is full or the pool is shutting down; the caller falls back to
// a placeholder and may re-request on the next refresh.
func (p *ThumbnailPool) Request(path string) bool {
	select {
	case <-p.ctx.Done():
		return false
	default:
	}

	select {
	case p.requests <- path:
		metrics.ThumbnailQueueDepth.Set(float64(len(p.requests)))
		return true
	default:
		logging.Debug("Thumbnail queue full, dropping request for %s", path)
		return false
	}
}

func (p *ThumbnailPool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case path := <-p.requests:
			metrics.ThumbnailQueueDepth.Set(float64(len(p.requests)))
			if p.monitor != nil && !p.monitor.WaitIfPaused() {
				return
			}
			data, err := p.gen.GetThumbnail(p.ctx, path)

			select {
			case p.results <- ThumbnailResult{Path: path, Data: data, Err: err}:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// Close shuts the pool down, giving in-flight renders a short grace
// period before returning. The results channel is closed only after the
// last worker has exited, so a render that outlives the grace period
// finishes in the background and the channel closes behind it.
func (p *ThumbnailPool) Close() {
	p.closeOnce.Do(func() {
		p.cancel()

		done := make(chan struct{})
		go func() {
			p.wg.Wait()
			close(p.results)
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(closeGracePeriod):
			logging.Debug("Thumbnail pool close grace period expired with work in flight")
		}
	})
}
