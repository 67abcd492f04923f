package dag

import "fmt"

// Graph maps each node to its ordered outgoing edges.
// It must not be mutated while a run is in progress.
type Graph struct {
	nodes map[string]Node   // id → Node
	edges map[string][]Edge // source id → ordered edges
	order []string          // node universe in registration order
	keys  map[string]bool   // ids registered as adjacency keys
}

// NewGraph allocates an empty Graph.
func NewGraph() *Graph {
	return &Graph{
		nodes: make(map[string]Node),
		edges: make(map[string][]Edge),
		keys:  make(map[string]bool),
	}
}

// AddNode registers n in the node universe. Adding the same node twice is a
// no-op; adding a different node under an existing ID is an error.
func (g *Graph) AddNode(n Node) error {
	if n == nil {
		return ErrNilNode
	}
	id := n.ID()
	if id == "" {
		return ErrEmptyID
	}
	if prev, ok := g.nodes[id]; ok {
		if !sameNode(prev, n) {
			return fmt.Errorf("%w: %q", ErrDuplicateNode, id)
		}
		return nil
	}
	g.nodes[id] = n
	g.order = append(g.order, id)
	return nil
}

// AddEdges registers from as an adjacency key and appends edges to its list.
// Every target joins the node universe. Nothing is recorded when any edge is
// invalid.
func (g *Graph) AddEdges(from Node, edges ...Edge) error {
	if err := g.checkNode(from); err != nil {
		return err
	}
	batch := map[string]Node{from.ID(): from}
	for i, e := range edges {
		if e.Target == nil {
			return fmt.Errorf("%w: %s edge #%d", ErrDanglingEdge, from.ID(), i)
		}
		if !e.Type.valid() {
			return fmt.Errorf("%w: %s -> %s (%d)", ErrInvalidEdgeType, from.ID(), e.Target.ID(), int(e.Type))
		}
		if err := g.checkNode(e.Target); err != nil {
			return fmt.Errorf("%s edge #%d: %w", from.ID(), i, err)
		}
		if prev, ok := batch[e.Target.ID()]; ok && !sameNode(prev, e.Target) {
			return fmt.Errorf("%s edge #%d: %w: %q", from.ID(), i, ErrDuplicateNode, e.Target.ID())
		}
		batch[e.Target.ID()] = e.Target
	}

	if err := g.AddNode(from); err != nil {
		return err
	}
	g.keys[from.ID()] = true
	for _, e := range edges {
		if err := g.AddNode(e.Target); err != nil {
			return err
		}
		g.edges[from.ID()] = append(g.edges[from.ID()], e)
	}
	return nil
}

// AddEdge is shorthand for AddEdges(from, Edge{Target: to, Type: typ}).
func (g *Graph) AddEdge(from, to Node, typ EdgeType) error {
	return g.AddEdges(from, Edge{Target: to, Type: typ})
}

// checkNode validates n against the universe without registering it.
func (g *Graph) checkNode(n Node) error {
	if n == nil {
		return ErrNilNode
	}
	if n.ID() == "" {
		return ErrEmptyID
	}
	if prev, ok := g.nodes[n.ID()]; ok && !sameNode(prev, n) {
		return fmt.Errorf("%w: %q", ErrDuplicateNode, n.ID())
	}
	return nil
}

// Node returns a node by ID (nil if not found).
func (g *Graph) Node(id string) Node {
	return g.nodes[id]
}

// Edges returns the outgoing edges of a node in insertion order.
func (g *Graph) Edges(id string) []Edge {
	return g.edges[id]
}

// IsKey reports whether id was registered with AddEdges, even with no edges.
func (g *Graph) IsKey(id string) bool {
	return g.keys[id]
}

// Nodes returns the node universe in registration order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// IDs returns the node IDs in registration order.
func (g *Graph) IDs() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// NodeCount returns the size of the node universe.
func (g *Graph) NodeCount() int {
	return len(g.order)
}

// EdgeCount returns the total number of edges, counting parallel edges.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, es := range g.edges {
		n += len(es)
	}
	return n
}

// InDegrees returns the number of incoming edges for every node in the universe.
func (g *Graph) InDegrees() map[string]int {
	in := make(map[string]int, len(g.order))
	for _, id := range g.order {
		in[id] += 0
		for _, e := range g.edges[id] {
			in[e.Target.ID()]++
		}
	}
	return in
}

// Roots returns the nodes with no incoming edges, in registration order.
func (g *Graph) Roots() []Node {
	in := g.InDegrees()
	var out []Node
	for _, id := range g.order {
		if in[id] == 0 {
			out = append(out, g.nodes[id])
		}
	}
	return out
}

// incomingEdge is a reverse adjacency entry.
type incomingEdge struct {
	from string
	typ  EdgeType
}

func (g *Graph) incoming() map[string][]incomingEdge {
	rev := make(map[string][]incomingEdge, len(g.order))
	for _, id := range g.order {
		for _, e := range g.edges[id] {
			t := e.Target.ID()
			rev[t] = append(rev[t], incomingEdge{from: id, typ: e.Type})
		}
	}
	return rev
}
