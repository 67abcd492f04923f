package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/gyaneshwarpardhi/kahnflow/internal/catalog"
	"github.com/gyaneshwarpardhi/kahnflow/internal/config"
	"github.com/gyaneshwarpardhi/kahnflow/internal/ctxlog"
	"github.com/gyaneshwarpardhi/kahnflow/internal/dag"
	"github.com/gyaneshwarpardhi/kahnflow/internal/metrics"
	"github.com/gyaneshwarpardhi/kahnflow/internal/run"
)

var (
	// ErrQueueFull is returned when the run queue has no free slot.
	ErrQueueFull = errors.New("run queue full")
	// ErrUnknownPipeline is returned for a pipeline ID missing from the catalog.
	ErrUnknownPipeline = errors.New("unknown pipeline")
)

// RunResult is the outcome of a single pipeline run.
type RunResult struct {
	RunID      string                 `json:"run_id"`
	Pipeline   string                 `json:"pipeline"`
	DurationMs int64                  `json:"duration_ms"`
	Completed  int                    `json:"completed"`
	Executed   []string               `json:"executed"`
	Failed     []string               `json:"failed,omitempty"`
	Skipped    []dag.Starved          `json:"skipped,omitempty"`
	Outputs    map[string]interface{} `json:"outputs"`
	Error      string                 `json:"error,omitempty"`
}

// Engine runs pipeline requests through a bounded worker pool.
type Engine struct {
	catalog atomic.Pointer[catalog.Catalog]
	pool    *workerPool[*runWork]
	conf    config.EngineConf
}

type runWork struct {
	ctx     context.Context // nil for async runs
	req     *run.Request
	resultC chan *RunResult
}

// New creates an Engine over cat and starts the run pool.
func New(ctx context.Context, cat *catalog.Catalog, conf config.EngineConf) *Engine {
	e := &Engine{conf: conf}
	e.catalog.Store(cat)
	e.pool = newWorkerPool(ctx, conf.RunWorkers, conf.QueueDepth, func(ctx context.Context, w *runWork) {
		if w.ctx != nil {
			ctx = w.ctx
		}
		res := e.process(ctx, w.req)
		if w.resultC != nil {
			w.resultC <- res
		}
	})
	return e
}

// SwapCatalog atomically replaces the catalog (used on hot-reload).
// Runs already in flight finish against the catalog they started with.
func (e *Engine) SwapCatalog(c *catalog.Catalog) {
	e.catalog.Store(c)
}

// Catalog returns the current catalog.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog.Load()
}

// ProcessSync runs req and waits for the result. Canceling ctx also cancels
// the run.
func (e *Engine) ProcessSync(ctx context.Context, req *run.Request) (*RunResult, error) {
	if err := e.admit(req); err != nil {
		return nil, err
	}
	resultC := make(chan *RunResult, 1)
	w := &runWork{ctx: ctx, req: req, resultC: resultC}

	if !e.submit(w) {
		return nil, fmt.Errorf("%w (capacity %d)", ErrQueueFull, e.pool.QueueCap())
	}

	timeout := e.timeout()
	select {
	case res := <-resultC:
		return res, nil
	case <-time.After(timeout):
		return nil, fmt.Errorf("run %s: timeout after %v", req.ID, timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ProcessAsync enqueues req for background processing. Returns false if the
// queue is full or the pipeline is unknown.
func (e *Engine) ProcessAsync(req *run.Request) bool {
	if err := e.admit(req); err != nil {
		return false
	}
	return e.submit(&runWork{req: req})
}

// QueueUtilization returns queue used / capacity (0-1).
func (e *Engine) QueueUtilization() float64 {
	if e.pool.QueueCap() == 0 {
		return 0
	}
	return float64(e.pool.QueueLen()) / float64(e.pool.QueueCap())
}

// Shutdown stops accepting runs and waits for queued runs to finish.
func (e *Engine) Shutdown() {
	e.pool.Drain()
	metrics.QueueUtilization.Set(0)
}

// admit fills in defaults on req and checks the pipeline exists.
func (e *Engine) admit(req *run.Request) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.ReceivedAt.IsZero() {
		req.ReceivedAt = time.Now()
	}
	if _, ok := e.catalog.Load().Get(req.Pipeline); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPipeline, req.Pipeline)
	}
	return nil
}

func (e *Engine) submit(w *runWork) bool {
	ok := e.pool.Submit(w)
	if ok {
		metrics.RunsEnqueued.Inc()
	} else {
		metrics.RunsDropped.Inc()
	}
	metrics.QueueUtilization.Set(e.QueueUtilization())
	return ok
}

func (e *Engine) timeout() time.Duration {
	if e.conf.RunTimeoutMs <= 0 {
		return 5 * time.Second
	}
	return time.Duration(e.conf.RunTimeoutMs) * time.Millisecond
}

func (e *Engine) process(ctx context.Context, req *run.Request) *RunResult {
	start := time.Now()
	result := &RunResult{RunID: req.ID, Pipeline: req.Pipeline, Executed: []string{}}

	p, ok := e.catalog.Load().Get(req.Pipeline)
	if !ok {
		// The pipeline was removed by a reload while the run was queued.
		result.Error = fmt.Sprintf("%v: %q", ErrUnknownPipeline, req.Pipeline)
		return result
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout())
	defer cancel()
	logger := ctxlog.FromContext(ctx).With(slog.String("run_id", req.ID), slog.String("pipeline", req.Pipeline))
	ctx = ctxlog.WithLogger(ctx, logger)

	res := run.NewResponse()
	report := p.Run(ctx, req.WithContext(ctx), res)

	result.Completed = report.Completed
	result.Executed = append(result.Executed, report.Executed...)
	result.Failed = report.Failed
	result.Skipped = report.Starved
	result.Outputs = res.Snapshot()
	if report.Err != nil {
		result.Error = report.Err.Error()
	}
	result.DurationMs = time.Since(start).Milliseconds()

	metrics.RunsProcessed.WithLabelValues(req.Pipeline).Inc()
	metrics.RunDuration.Observe(float64(time.Since(start).Microseconds()) / 1000)
	metrics.NodesExecuted.WithLabelValues(req.Pipeline, "success").Add(float64(report.Completed))
	metrics.NodesExecuted.WithLabelValues(req.Pipeline, "failure").Add(float64(len(report.Failed)))
	for _, s := range report.Starved {
		metrics.NodesSkipped.WithLabelValues(req.Pipeline, s.Reason.String()).Inc()
	}

	logger.Debug("run finished",
		slog.Int("completed", report.Completed),
		slog.Int("failed", len(report.Failed)),
		slog.Int("skipped", len(report.Starved)),
		slog.Int64("duration_ms", result.DurationMs),
	)
	return result
}
