package dag

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/gyaneshwarpardhi/kahnflow/internal/ctxlog"
)

// ParallelExecutor runs every released node on a fixed set of workers.
// It applies the same release rule as KahnExecutor; only the order among
// nodes that are ready at the same time is unspecified.
type ParallelExecutor struct {
	Workers int // defaults to GOMAXPROCS when <= 0
}

// parallelRun holds the state shared by the workers of one Execute call.
type parallelRun struct {
	g        *Graph
	req, res any
	incoming map[string]*atomic.Int64 // read-only map; counters mutate
	ready    chan string
	pending  sync.WaitGroup // released but not yet processed nodes

	completed atomic.Int64
	canceled  atomic.Bool

	mu      sync.Mutex
	order   []string
	failed  []string
	outcome map[string]bool
}

func (p *ParallelExecutor) Execute(ctx context.Context, g *Graph, req, res any) *Report {
	logger := ctxlog.FromContext(ctx)
	workers := p.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	r := &parallelRun{
		g:        g,
		req:      req,
		res:      res,
		incoming: make(map[string]*atomic.Int64, g.NodeCount()),
		// Each node is sent at most once, so sends never block.
		ready:   make(chan string, g.NodeCount()),
		outcome: make(map[string]bool, g.NodeCount()),
	}
	for id, n := range g.InDegrees() {
		c := new(atomic.Int64)
		c.Store(int64(n))
		r.incoming[id] = c
	}
	for _, id := range g.order {
		if r.incoming[id].Load() == 0 {
			r.release(id)
		}
	}

	var eg errgroup.Group
	for i := 0; i < workers; i++ {
		workerID := i
		eg.Go(func() error {
			r.work(ctx, logger.With("worker", workerID))
			return nil
		})
	}
	r.pending.Wait()
	close(r.ready)
	_ = eg.Wait()

	report := &Report{
		Completed: int(r.completed.Load()),
		Executed:  r.order,
		Failed:    r.failed,
	}
	if r.canceled.Load() {
		report.Err = ctx.Err()
	}
	final := make(map[string]int, len(r.incoming))
	for id, c := range r.incoming {
		final[id] = int(c.Load())
	}
	report.Starved = diagnose(g, final, r.outcome)
	return report
}

func (r *parallelRun) release(id string) {
	r.pending.Add(1)
	r.ready <- id
}

func (r *parallelRun) work(ctx context.Context, logger *slog.Logger) {
	for id := range r.ready {
		if ctx.Err() != nil {
			r.canceled.Store(true)
			logger.Debug("run canceled, node not executed", "node", id)
			r.pending.Done()
			continue
		}

		completed := r.g.nodes[id].Execute(r.req, r.res)
		if completed {
			r.completed.Add(1)
		}
		r.mu.Lock()
		r.order = append(r.order, id)
		r.outcome[id] = completed
		if !completed {
			r.failed = append(r.failed, id)
		}
		r.mu.Unlock()
		logger.Debug("node executed", "node", id, "completed", completed)

		for _, e := range r.g.edges[id] {
			if !completed && e.Type == Required {
				continue
			}
			child := e.Target.ID()
			// Only the decrement that observes zero releases the child.
			if r.incoming[child].Add(-1) == 0 {
				r.release(child)
			}
		}
		r.pending.Done()
	}
}
