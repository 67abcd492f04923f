// Package catalog compiles pipeline definitions into executable graphs.
package catalog

import (
	"fmt"

	"github.com/gyaneshwarpardhi/kahnflow/internal/config"
	"github.com/gyaneshwarpardhi/kahnflow/internal/dag"
	"github.com/gyaneshwarpardhi/kahnflow/internal/task"
)

// Pipeline is a compiled pipeline bound to an executor.
type Pipeline struct {
	ID          string
	Description string
	*dag.Builder
}

// Catalog holds the compiled pipelines of one config revision.
// It is immutable once built; a reload builds a new Catalog.
type Catalog struct {
	version   string
	pipelines map[string]*Pipeline
	order     []string
}

// Build compiles every enabled pipeline in cfg. Node params are validated by
// their factories here, so nothing is parsed at run time.
func Build(cfg *config.Config, reg *task.Registry, exec dag.Executor) (*Catalog, error) {
	c := &Catalog{version: cfg.Version, pipelines: make(map[string]*Pipeline)}
	for _, p := range cfg.Pipelines {
		if !p.IsEnabled() {
			continue
		}
		if _, dup := c.pipelines[p.ID]; dup {
			return nil, fmt.Errorf("pipeline %s: defined more than once", p.ID)
		}
		g, err := buildGraph(p, reg)
		if err != nil {
			return nil, fmt.Errorf("pipeline %s: %w", p.ID, err)
		}
		b, err := dag.NewBuilder(exec, g)
		if err != nil {
			return nil, fmt.Errorf("pipeline %s: %w", p.ID, err)
		}
		c.pipelines[p.ID] = &Pipeline{ID: p.ID, Description: p.Description, Builder: b}
		c.order = append(c.order, p.ID)
	}
	return c, nil
}

// Compile validates cfg, picks the executor it names and builds the catalog.
func Compile(cfg *config.Config, reg *task.Registry) (*Catalog, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	exec, err := dag.NewExecutor(cfg.Engine.Strategy, cfg.Engine.NodeWorkers)
	if err != nil {
		return nil, err
	}
	return Build(cfg, reg, exec)
}

func buildGraph(p config.Pipeline, reg *task.Registry) (*dag.Graph, error) {
	g := dag.NewGraph()
	nodes := make(map[string]dag.Node, len(p.Nodes))
	for _, def := range p.Nodes {
		n, err := reg.Build(def.ID, def.Type, def.Params)
		if err != nil {
			return nil, err
		}
		if err := g.AddNode(n); err != nil {
			return nil, err
		}
		nodes[def.ID] = n
	}
	for i, e := range p.Edges {
		from, ok := nodes[e.From]
		if !ok {
			return nil, fmt.Errorf("edges[%d]: unknown source node %q", i, e.From)
		}
		to, ok := nodes[e.To]
		if !ok {
			return nil, fmt.Errorf("edges[%d]: %w: unknown target node %q", i, dag.ErrDanglingEdge, e.To)
		}
		typ, err := dag.ParseEdgeType(e.Type)
		if err != nil {
			return nil, fmt.Errorf("edges[%d]: %w", i, err)
		}
		if err := g.AddEdge(from, to, typ); err != nil {
			return nil, fmt.Errorf("edges[%d]: %w", i, err)
		}
	}
	return g, nil
}

// Get returns a pipeline by ID.
func (c *Catalog) Get(id string) (*Pipeline, bool) {
	p, ok := c.pipelines[id]
	return p, ok
}

// IDs returns pipeline IDs in config order.
func (c *Catalog) IDs() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Len returns the number of compiled pipelines.
func (c *Catalog) Len() int { return len(c.order) }

// Version returns the config version the catalog was built from.
func (c *Catalog) Version() string { return c.version }

// NodeView describes one node for API listings.
type NodeView struct {
	ID   string `json:"id"`
	Type string `json:"type,omitempty"`
}

// EdgeView describes one edge for API listings.
type EdgeView struct {
	From string       `json:"from"`
	To   string       `json:"to"`
	Type dag.EdgeType `json:"type"`
}

// Description is a serialisable view of a compiled pipeline.
type Description struct {
	ID          string     `json:"id"`
	Description string     `json:"description,omitempty"`
	Nodes       []NodeView `json:"nodes"`
	Edges       []EdgeView `json:"edges"`
	Roots       []string   `json:"roots"`
	Order       []string   `json:"order"`
}

// Describe returns the structure of pipeline id.
func (c *Catalog) Describe(id string) (*Description, bool) {
	p, ok := c.pipelines[id]
	if !ok {
		return nil, false
	}
	g := p.Graph()
	d := &Description{ID: p.ID, Description: p.Description, Nodes: []NodeView{}, Edges: []EdgeView{}, Roots: []string{}}
	for _, n := range g.Nodes() {
		v := NodeView{ID: n.ID()}
		if t, ok := n.(task.Typed); ok {
			v.Type = t.Type()
		}
		d.Nodes = append(d.Nodes, v)
		for _, e := range g.Edges(n.ID()) {
			d.Edges = append(d.Edges, EdgeView{From: n.ID(), To: e.Target.ID(), Type: e.Type})
		}
	}
	for _, r := range g.Roots() {
		d.Roots = append(d.Roots, r.ID())
	}
	// Graphs in a catalog are validated acyclic, so TopoOrder cannot fail.
	d.Order, _ = g.TopoOrder()
	return d, true
}
