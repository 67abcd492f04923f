package dag

import (
	"reflect"
	"strings"
)

// Node is a unit of work in a dependency graph.
//
// Execute receives the same req/res pair as every other node of a run and
// reports whether the work completed. Implementations must not panic or
// propagate errors; a failure is reported as false.
type Node interface {
	ID() string
	Execute(req, res any) bool
}

// EdgeType controls whether a failed source node releases its target.
type EdgeType int

const (
	// Required edges release the target only when the source completed.
	Required EdgeType = iota
	// Optional edges release the target regardless of the source outcome.
	Optional
)

func (t EdgeType) String() string {
	switch t {
	case Required:
		return "required"
	case Optional:
		return "optional"
	default:
		return "unknown"
	}
}

func (t EdgeType) valid() bool { return t == Required || t == Optional }

// MarshalText lets edge types appear by name in JSON output.
func (t EdgeType) MarshalText() ([]byte, error) {
	if !t.valid() {
		return nil, ErrInvalidEdgeType
	}
	return []byte(t.String()), nil
}

// ParseEdgeType parses "required" or "optional" (case-insensitive).
// An empty string means Required.
func ParseEdgeType(s string) (EdgeType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "required":
		return Required, nil
	case "optional":
		return Optional, nil
	}
	return Required, &EdgeTypeError{Value: s}
}

// Edge links a source node to Target.
type Edge struct {
	Target Node
	Type   EdgeType
}

// Requires returns a Required edge to n.
func Requires(n Node) Edge { return Edge{Target: n, Type: Required} }

// Optionally returns an Optional edge to n.
func Optionally(n Node) Edge { return Edge{Target: n, Type: Optional} }

// Func adapts a plain function to a Node.
func Func(id string, fn func(req, res any) bool) Node {
	return &funcNode{id: id, fn: fn}
}

type funcNode struct {
	id string
	fn func(req, res any) bool
}

func (n *funcNode) ID() string { return n.id }

func (n *funcNode) Execute(req, res any) bool {
	if n.fn == nil {
		return false
	}
	return n.fn(req, res)
}

// sameNode reports whether a and b are the same node value. Node values of
// non-comparable dynamic types are never considered equal.
func sameNode(a, b Node) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}
