package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	// ErrClosed is returned when submitting to a shut-down pool.
	ErrClosed = errors.New("worker pool is shut down")
	// ErrQueueFull is returned when the task queue is at capacity.
	ErrQueueFull = errors.New("worker pool queue is full")
)

// Task is a blocking unit of work executed on a pool worker.
type Task func() (any, error)

// Future is the pending result of a submitted task. A caller that
// abandons Wait does not stop the task; the result is buffered in the
// future and discarded when nobody reads it.
type Future struct {
	done  chan struct{}
	value any
	err   error
}

// Wait blocks until the task finishes or ctx is done. Cancelling the
// context aborts only the wait, never the task itself.
func (f *Future) Wait(ctx context.Context) (any, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-f.done:
		return f.value, f.err
	}
}

type job struct {
	run Task
	fut *Future
}

// Stats is a snapshot of pool activity.
type Stats struct {
	Workers   int   `json:"workers"`
	Pending   int   `json:"pending"`
	Active    int64 `json:"active"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
}

// Pool runs blocking CPU-bound work on a fixed set of workers so the
// request-handling path never executes it directly. Queued tasks are
// scheduled first submitted, first served.
type Pool struct {
	workers int
	tasks   chan job
	wg      sync.WaitGroup
	logger  *zap.Logger

	mu      sync.RWMutex
	running bool

	active    int64
	completed int64
	failed    int64
}

// New creates a pool with the given worker count and queue capacity.
func New(logger *zap.Logger, workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = workers * 16
	}

	p := &Pool{
		workers: workers,
		tasks:   make(chan job, queueSize),
		logger:  logger,
		running: true,
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	return p
}

// Submit enqueues a task and returns its future. It fails fast with
// ErrQueueFull instead of blocking the caller when the queue is at
// capacity.
func (p *Pool) Submit(task Task) (*Future, error) {
	p.mu.RLock()
	running := p.running
	p.mu.RUnlock()
	if !running {
		return nil, ErrClosed
	}

	fut := &Future{done: make(chan struct{})}
	select {
	case p.tasks <- job{run: task, fut: fut}:
		return fut, nil
	default:
		return nil, ErrQueueFull
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for j := range p.tasks {
		p.execute(id, j)
	}
}

func (p *Pool) execute(workerID int, j job) {
	atomic.AddInt64(&p.active, 1)
	defer atomic.AddInt64(&p.active, -1)

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Task panicked",
				zap.Int("worker_id", workerID),
				zap.Any("panic", r))
			j.fut.err = fmt.Errorf("task panicked: %v", r)
			atomic.AddInt64(&p.failed, 1)
			close(j.fut.done)
		}
	}()

	value, err := j.run()
	j.fut.value = value
	j.fut.err = err
	if err != nil {
		atomic.AddInt64(&p.failed, 1)
	} else {
		atomic.AddInt64(&p.completed, 1)
	}
	close(j.fut.done)
}

// Stats returns a snapshot of pool activity.
func (p *Pool) Stats() Stats {
	return Stats{
		Workers:   p.workers,
		Pending:   len(p.tasks),
		Active:    atomic.LoadInt64(&p.active),
		Completed: atomic.LoadInt64(&p.completed),
		Failed:    atomic.LoadInt64(&p.failed),
	}
}

// Shutdown stops accepting tasks and waits for queued work to drain.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.mu.Unlock()

	close(p.tasks)
	p.wg.Wait()
}
