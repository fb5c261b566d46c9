package detector

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/mikey/content-moderation/internal/core"
	"github.com/mikey/content-moderation/internal/pool"
)

// State describes where the loader is in the detector's lifecycle.
type State int

const (
	// StateUnloaded means no detector exists; the next Acquire starts
	// a construction attempt. Failed attempts return here, so loading
	// is always retryable.
	StateUnloaded State = iota
	// StateLoading means exactly one construction is in flight.
	StateLoading
	// StateReady means the detector was built and will be reused for
	// the rest of the process lifetime.
	StateReady
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "loaded"
	default:
		return "unloaded"
	}
}

// LoadError wraps a failed construction attempt.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("detector load failed: %v", e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Constructor builds the heavyweight detector resource.
type Constructor func(ctx context.Context) (core.Detector, error)

// Loader is the thread-safe lazy owner of the detector singleton. At
// most one construction runs at a time; concurrent Acquire calls join
// the in-flight attempt and are woken as soon as it settles. A failed
// attempt's error is shared with every joined caller, and the next
// Acquire retries from scratch.
type Loader struct {
	construct Constructor
	logger    *zap.Logger

	group singleflight.Group

	mu       sync.RWMutex
	detector core.Detector
	state    State
}

// NewLoader creates a loader around the given constructor. Nothing is
// built until Acquire or Warmup is called.
func NewLoader(construct Constructor, logger *zap.Logger) *Loader {
	return &Loader{
		construct: construct,
		logger:    logger,
	}
}

// Acquire returns the ready detector, constructing it on first use.
// Cancelling ctx abandons the wait; an in-flight construction keeps
// running and later callers pick up its result.
func (l *Loader) Acquire(ctx context.Context) (core.Detector, error) {
	l.mu.RLock()
	if l.detector != nil {
		d := l.detector
		l.mu.RUnlock()
		return d, nil
	}
	l.mu.RUnlock()

	ch := l.group.DoChan("detector", func() (any, error) {
		return l.load()
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(core.Detector), nil
	}
}

// load runs a single construction attempt. It executes on whichever
// goroutine triggered the singleflight, which in practice is a pool
// worker.
func (l *Loader) load() (core.Detector, error) {
	l.setState(StateLoading)
	l.logger.Info("Loading content detector")

	// Construction is detached from any single caller's context: the
	// resource outlives the request that triggered it.
	d, err := l.construct(context.Background())
	if err != nil {
		l.setState(StateUnloaded)
		l.logger.Error("Detector load failed", zap.Error(err))
		return nil, &LoadError{Err: err}
	}

	l.mu.Lock()
	l.detector = d
	l.state = StateReady
	l.mu.Unlock()

	l.logger.Info("Content detector loaded")
	return d, nil
}

// Warmup eagerly constructs the detector through the worker pool at
// service start. The error is surfaced to the caller so startup can
// log it without crashing the process.
func (l *Loader) Warmup(ctx context.Context, p *pool.Pool) error {
	fut, err := p.Submit(func() (any, error) {
		return l.Acquire(context.Background())
	})
	if err != nil {
		return fmt.Errorf("failed to schedule warmup: %w", err)
	}
	if _, err := fut.Wait(ctx); err != nil {
		return err
	}
	return nil
}

// State reports the loader's current lifecycle state.
func (l *Loader) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// Loaded reports whether the detector is ready.
func (l *Loader) Loaded() bool {
	return l.State() == StateReady
}

func (l *Loader) setState(s State) {
	l.mu.Lock()
	l.state = s
	l.mu.Unlock()
}
