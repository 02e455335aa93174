package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/molbridge/pubchem-mcp/internal/model"
	"github.com/molbridge/pubchem-mcp/internal/store"
)

// Defaults applied when an Options field is zero.
const (
	DefaultWorkers       = 4
	DefaultStatusTTL     = time.Hour
	DefaultSweepInterval = 5 * time.Minute
)

// ErrShutdown is returned by Submit once the engine has been shut down.
var ErrShutdown = errors.New("engine is shut down")

// Fetcher is the work function the engine schedules: a synchronous,
// potentially slow compound lookup. Implementations must be safe for
// concurrent use.
type Fetcher interface {
	Fetch(ctx context.Context, p model.Params) (string, error)
}

// Options configure the engine's concurrency bound and retention policy.
type Options struct {
	Workers       int
	StatusTTL     time.Duration
	SweepInterval time.Duration
}

// Engine orchestrates asynchronous request execution. One engine instance is
// created per process and passed to every surface that submits or queries
// requests.
type Engine struct {
	store   store.Store
	fetcher Fetcher
	logger  *slog.Logger

	statusTTL     time.Duration
	sweepInterval time.Duration

	// mu guards queue and closed; cond wakes idle workers. The queue is
	// deliberately unbounded: submission never blocks and never rejects
	// work once parameters validate.
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []string
	closed bool

	wg        sync.WaitGroup
	sweepStop chan struct{}
	sweepDone chan struct{}
	stopOnce  sync.Once
}

// New creates an engine and starts its worker pool and retention sweeper.
// Callers must invoke Shutdown before process exit.
func New(s store.Store, f Fetcher, logger *slog.Logger, opts Options) *Engine {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.StatusTTL <= 0 {
		opts.StatusTTL = DefaultStatusTTL
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = DefaultSweepInterval
	}

	e := &Engine{
		store:         s,
		fetcher:       f,
		logger:        logger.With("component", "engine"),
		statusTTL:     opts.StatusTTL,
		sweepInterval: opts.SweepInterval,
		sweepStop:     make(chan struct{}),
		sweepDone:     make(chan struct{}),
	}
	e.cond = sync.NewCond(&e.mu)

	for i := 0; i < opts.Workers; i++ {
		e.wg.Add(1)
		go e.worker()
	}
	go e.sweeper()

	e.logger.Info("engine started",
		"workers", opts.Workers,
		"status_ttl", opts.StatusTTL,
		"sweep_interval", opts.SweepInterval,
	)
	return e
}

// Submit validates p, records a pending request, and enqueues it for a
// worker. It returns the request id without blocking on execution. Validation
// failures never create a request record.
func (e *Engine) Submit(p model.Params) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return "", ErrShutdown
	}
	e.mu.Unlock()

	id, err := e.store.Insert(p)
	if err != nil {
		return "", err
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return "", ErrShutdown
	}
	e.queue = append(e.queue, id)
	queueDepth.Set(float64(len(e.queue)))
	e.cond.Signal()
	e.mu.Unlock()

	requestsSubmitted.Inc()
	e.logger.Info("request submitted", "request_id", id, "query", p.Query, "format", p.Format)
	return id, nil
}

// GetStatus returns a snapshot of the request, or store.ErrNotFound when the
// id is unknown or has been evicted.
func (e *Engine) GetStatus(id string) (model.Request, error) {
	return e.store.Get(id)
}

// Stats returns request counts by status.
func (e *Engine) Stats() store.Stats {
	return e.store.Stats()
}

// Shutdown stops intake, wakes idle workers, and waits for in-flight work and
// the sweeper to finish. Calling it more than once has no additional effect.
func (e *Engine) Shutdown() {
	e.stopOnce.Do(func() {
		e.mu.Lock()
		e.closed = true
		pending := len(e.queue)
		e.mu.Unlock()
		e.cond.Broadcast()

		close(e.sweepStop)
		e.wg.Wait()
		<-e.sweepDone

		e.logger.Info("engine stopped", "abandoned_queue", pending)
	})
}

// worker pulls request ids off the queue until shutdown.
func (e *Engine) worker() {
	defer e.wg.Done()
	for {
		id, ok := e.dequeue()
		if !ok {
			return
		}
		e.process(id)
	}
}

// dequeue blocks until work is available or the engine is closed. Once closed,
// workers stop pulling even if queued work remains; abandoned entries stay
// pending and are discarded with the process.
func (e *Engine) dequeue() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for len(e.queue) == 0 && !e.closed {
		e.cond.Wait()
	}
	if e.closed {
		return "", false
	}

	id := e.queue[0]
	e.queue = e.queue[1:]
	queueDepth.Set(float64(len(e.queue)))
	return id, true
}

// process runs one request lifecycle: processing, then completed or failed.
// A panic in the fetcher marks the request failed and leaves the pool intact.
func (e *Engine) process(id string) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("worker panic", "request_id", id, "panic", r)
			e.finish(id, model.StatusFailed, "", "internal error")
			requestsFailed.Inc()
		}
	}()

	req, err := e.store.Get(id)
	if err != nil {
		// Evicted between enqueue and pickup; nothing to do.
		e.logger.Warn("request not found at pickup", "request_id", id)
		return
	}

	if err := e.store.Transition(id, model.StatusProcessing, "", ""); err != nil {
		e.logger.Warn("cannot start request", "request_id", id, "error", err)
		return
	}
	e.logger.Info("processing request", "request_id", id, "query", req.Query)

	start := time.Now()
	result, err := e.fetcher.Fetch(context.Background(), req.Params())
	fetchDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		e.finish(id, model.StatusFailed, "", err.Error())
		requestsFailed.Inc()
		e.logger.Error("request failed", "request_id", id, "query", req.Query, "error", err)
		return
	}

	e.finish(id, model.StatusCompleted, result, "")
	requestsCompleted.Inc()
	e.logger.Info("request completed", "request_id", id, "duration_ms", time.Since(start).Milliseconds())
}

// finish records a terminal transition. A missing record means the sweeper got
// there first; that is logged and dropped, never fatal.
func (e *Engine) finish(id, status, result, errMsg string) {
	if err := e.store.Transition(id, status, result, errMsg); err != nil {
		e.logger.Warn("terminal transition dropped", "request_id", id, "status", status, "error", err)
	}
}

// sweeper evicts stale terminal records on a fixed period until Shutdown.
func (e *Engine) sweeper() {
	defer close(e.sweepDone)

	ticker := time.NewTicker(e.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.sweepStop:
			return
		case <-ticker.C:
			e.sweep()
		}
	}
}

// sweep runs one eviction pass. Failures are contained so the periodic
// schedule always continues.
func (e *Engine) sweep() {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("sweep panic", "panic", r)
		}
	}()

	if n := e.store.RemoveTerminalOlderThan(e.statusTTL); n > 0 {
		requestsEvicted.Add(float64(n))
		e.logger.Info("evicted expired requests", "count", n, "ttl", e.statusTTL)
	}
}
