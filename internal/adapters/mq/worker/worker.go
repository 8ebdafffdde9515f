// Package worker renders views off a job queue so screens can be warmed
// concurrently before the first request.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/cupstats/internal/adapters/mq/queue"
	"github.com/okian/cupstats/internal/domain/view"
	"github.com/okian/cupstats/pkg/logger"
	"github.com/okian/cupstats/pkg/metrics"
)

// Default worker configuration constants.
const (
	poolShutdownTimeout = 30 * time.Second
)

// Renderer renders one view. The service's render cache stores the result.
type Renderer interface {
	Render(ctx context.Context, v view.View) (*view.Screen, error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes render jobs.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue drains.
	Run(ctx context.Context)

	// Shutdown stops the worker after its current job.
	Shutdown(ctx context.Context) error
}

// RenderWorker implements Worker on top of a Renderer.
type RenderWorker struct {
	queue    Queue
	renderer Renderer
	name     string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	mu   sync.Mutex
	errs []error

	logger logger.Logger
}

// NewRenderWorker creates a new worker with configuration options.
func NewRenderWorker(q Queue, r Renderer, opts ...Option) *RenderWorker {
	w := &RenderWorker{
		queue:    q,
		renderer: r,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Nop(),
	}

	for _, opt := range opts {
		opt(w)
	}

	w.logger = w.logger.Named(w.name)

	return w
}

// Run starts the worker loop.
func (w *RenderWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, job); err != nil {
				w.logger.Error(ctx, "prerender failed",
					logger.String("view", string(job.View)),
					logger.Error(err),
				)
				w.mu.Lock()
				w.errs = append(w.errs, err)
				w.mu.Unlock()
			}
		}
	}
}

// Shutdown stops the worker.
func (w *RenderWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Err returns the failures seen by the worker so far.
func (w *RenderWorker) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return errors.Join(w.errs...)
}

func (w *RenderWorker) process(ctx context.Context, job queue.Job) error {
	start := time.Now()
	if _, err := w.renderer.Render(ctx, job.View); err != nil {
		metrics.RecordPrerenderJob("error")
		metrics.RecordErrorByComponent("worker", "render_error")
		return fmt.Errorf("render %q: %w", job.View, err)
	}
	metrics.RecordPrerenderJob("ok")
	w.logger.Debug(ctx, "view prerendered",
		logger.String("view", string(job.View)),
		logger.Duration("took", time.Since(start)),
	)
	return nil
}

// Pool manages multiple render workers over one queue.
type Pool struct {
	workers []*RenderWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a new worker pool. A non-positive count uses one worker
// per CPU.
func NewPool(workerCount int, q Queue, r Renderer, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	// The pool logs through the logger its workers are given.
	base := &RenderWorker{logger: logger.Nop()}
	for _, opt := range opts {
		opt(base)
	}

	pool := &Pool{
		workers: make([]*RenderWorker, workerCount),
		queue:   q,
		logger:  base.logger.Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		pool.workers[i] = NewRenderWorker(q, r, wopts...)
	}

	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	metrics.UpdatePrerenderWorkers(len(p.workers))
}

// Drain closes the queue, waits for the workers to finish the remaining
// jobs and returns every render failure joined together.
func (p *Pool) Drain(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	defer metrics.UpdatePrerenderWorkers(0)

	var errs []error
	for i, w := range p.workers {
		select {
		case <-w.done:
			if err := w.Err(); err != nil {
				errs = append(errs, err)
			}
		case <-ctx.Done():
			p.logger.Warn(ctx, "worker drain timed out", logger.Int("worker_id", i))
			return errors.Join(append(errs, fmt.Errorf("drain: %w", ctx.Err()))...)
		}
	}
	return errors.Join(errs...)
}

// Shutdown stops all workers without waiting for the queue to drain.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var errs []error
	for _, w := range p.workers {
		if err := w.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
	}
	metrics.UpdatePrerenderWorkers(0)
	return errors.Join(errs...)
}
