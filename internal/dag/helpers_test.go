package dag_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/kahnflow/internal/dag"
)

// recorder collects the execution order of stub nodes.
type recorder struct {
	mu    sync.Mutex
	order []string
}

func (r *recorder) record(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = append(r.order, id)
}

func (r *recorder) Order() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func (r *recorder) position(id string) int {
	for i, v := range r.Order() {
		if v == id {
			return i
		}
	}
	return -1
}

func (r *recorder) count(id string) int {
	n := 0
	for _, v := range r.Order() {
		if v == id {
			n++
		}
	}
	return n
}

// stub returns a node that records itself and reports ok.
func (r *recorder) stub(id string, ok bool) dag.Node {
	return dag.Func(id, func(req, res any) bool {
		r.record(id)
		return ok
	})
}

type edgeSpec struct {
	from, to string
	typ      dag.EdgeType
}

// buildGraph registers keys first, in order, then the edges.
func buildGraph(t *testing.T, nodes []dag.Node, edges []edgeSpec) *dag.Graph {
	t.Helper()
	byID := make(map[string]dag.Node, len(nodes))
	g := dag.NewGraph()
	for _, n := range nodes {
		byID[n.ID()] = n
		require.NoError(t, g.AddNode(n))
	}
	for _, e := range edges {
		require.NoError(t, g.AddEdge(byID[e.from], byID[e.to], e.typ))
	}
	return g
}

// executors lists every strategy so scheduling tests run against both.
func executors() map[string]dag.Executor {
	return map[string]dag.Executor{
		"kahn":     dag.KahnExecutor{},
		"parallel": &dag.ParallelExecutor{Workers: 4},
	}
}
