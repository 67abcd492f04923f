package dag

import (
	"context"
	"fmt"
	"strings"

	"github.com/gyaneshwarpardhi/kahnflow/internal/ctxlog"
)

// Executor traverses a graph and executes each node at most once.
type Executor interface {
	Execute(ctx context.Context, g *Graph, req, res any) *Report
}

// Strategy names accepted by NewExecutor.
const (
	StrategyKahn     = "kahn"
	StrategyParallel = "parallel"
)

// NewExecutor returns the executor registered under strategy.
// workers is only used by the parallel strategy.
func NewExecutor(strategy string, workers int) (Executor, error) {
	switch strings.ToLower(strategy) {
	case "", StrategyKahn:
		return KahnExecutor{}, nil
	case StrategyParallel:
		return &ParallelExecutor{Workers: workers}, nil
	}
	return nil, fmt.Errorf("dag: unknown executor strategy %q", strategy)
}

// KahnExecutor runs nodes one at a time in FIFO topological order.
//
// A node is released once every incoming edge has been resolved. An edge is
// resolved when its source completed, or when it is Optional and its source
// ran at all. A Required edge from a failed source is never resolved, so the
// target and everything that needs it are skipped.
type KahnExecutor struct{}

func (KahnExecutor) Execute(ctx context.Context, g *Graph, req, res any) *Report {
	logger := ctxlog.FromContext(ctx)
	report := &Report{}

	incoming := g.InDegrees()
	queue := make([]string, 0, g.NodeCount())
	for _, id := range g.order {
		if incoming[id] == 0 {
			queue = append(queue, id)
		}
	}

	outcome := make(map[string]bool, g.NodeCount())
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			report.Err = err
			break
		}
		id := queue[0]
		queue = queue[1:]

		completed := g.nodes[id].Execute(req, res)
		outcome[id] = completed
		report.Executed = append(report.Executed, id)
		if completed {
			report.Completed++
		} else {
			report.Failed = append(report.Failed, id)
		}
		logger.Debug("node executed", "node", id, "completed", completed)

		for _, e := range g.edges[id] {
			child := e.Target.ID()
			if !completed && e.Type == Required {
				logger.Debug("edge withheld", "from", id, "to", child)
				continue
			}
			incoming[child]--
			if incoming[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	report.Starved = diagnose(g, incoming, outcome)
	return report
}
