package dag

import (
	"context"
	"errors"
)

// Builder binds one Executor strategy to one Graph.
type Builder struct {
	executor Executor
	graph    *Graph
}

// NewBuilder validates g and binds it to executor. Cyclic graphs are
// rejected with an error wrapping ErrCyclicGraph.
func NewBuilder(executor Executor, g *Graph) (*Builder, error) {
	if executor == nil {
		return nil, errors.New("dag: nil executor")
	}
	if g == nil {
		return nil, errors.New("dag: nil graph")
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &Builder{executor: executor, graph: g}, nil
}

// Schedule runs the graph and returns the number of nodes that completed.
func (b *Builder) Schedule(ctx context.Context, req, res any) int {
	return b.Run(ctx, req, res).Completed
}

// Run runs the graph and returns the full report.
func (b *Builder) Run(ctx context.Context, req, res any) *Report {
	if ctx == nil {
		ctx = context.Background()
	}
	return b.executor.Execute(ctx, b.graph, req, res)
}

// Graph returns the bound graph.
func (b *Builder) Graph() *Graph { return b.graph }
