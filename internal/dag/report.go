package dag

// StarveReason explains why a node never executed.
type StarveReason int

const (
	// ReasonFailedDependency: a Required edge from a node that ran and failed
	// was left unsatisfied.
	ReasonFailedDependency StarveReason = iota
	// ReasonCycle: the node lies on a cycle of nodes that never ran.
	ReasonCycle
	// ReasonUpstream: the node waits on a predecessor that itself never ran.
	ReasonUpstream
	// ReasonCanceled: the node was released but the run was canceled first.
	ReasonCanceled
)

func (r StarveReason) String() string {
	switch r {
	case ReasonFailedDependency:
		return "failed_dependency"
	case ReasonCycle:
		return "cycle"
	case ReasonUpstream:
		return "upstream"
	case ReasonCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

func (r StarveReason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Starved describes a node that never executed during a run.
type Starved struct {
	ID      string       `json:"id"`
	Pending int          `json:"pending"` // unresolved incoming edges at the end of the run
	Reason  StarveReason `json:"reason"`
}

// Report is the outcome of one scheduling run.
type Report struct {
	Completed int       `json:"completed"`
	Executed  []string  `json:"executed"` // in execution order
	Failed    []string  `json:"failed,omitempty"`
	Starved   []Starved `json:"starved,omitempty"`
	Err       error     `json:"-"`
}

// Ran reports whether the node with the given ID executed.
func (r *Report) Ran(id string) bool {
	for _, e := range r.Executed {
		if e == id {
			return true
		}
	}
	return false
}

// diagnose classifies every node of g that did not execute.
// pending holds the final in-degree counters; outcome holds the result of
// every executed node.
func diagnose(g *Graph, pending map[string]int, outcome map[string]bool) []Starved {
	if len(outcome) == g.NodeCount() {
		return nil
	}
	unrun := make(map[string]bool)
	for _, id := range g.order {
		if _, ran := outcome[id]; !ran {
			unrun[id] = true
		}
	}
	cyclic := g.cyclicNodes(unrun)
	rev := g.incoming()

	out := make([]Starved, 0, len(unrun))
	for _, id := range g.order {
		if !unrun[id] {
			continue
		}
		s := Starved{ID: id, Pending: pending[id]}
		switch {
		case s.Pending == 0:
			s.Reason = ReasonCanceled
		case cyclic[id]:
			s.Reason = ReasonCycle
		case blockedByFailure(rev[id], outcome):
			s.Reason = ReasonFailedDependency
		default:
			s.Reason = ReasonUpstream
		}
		out = append(out, s)
	}
	return out
}

func blockedByFailure(in []incomingEdge, outcome map[string]bool) bool {
	for _, e := range in {
		if e.typ != Required {
			continue
		}
		if ok, ran := outcome[e.from]; ran && !ok {
			return true
		}
	}
	return false
}
