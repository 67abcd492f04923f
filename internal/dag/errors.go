package dag

import (
	"errors"
	"fmt"
	"strings"
)

// Graph construction errors.
var (
	ErrNilNode         = errors.New("dag: nil node")
	ErrEmptyID         = errors.New("dag: node has empty id")
	ErrDanglingEdge    = errors.New("dag: edge has no target node")
	ErrInvalidEdgeType = errors.New("dag: invalid edge type")
	ErrDuplicateNode   = errors.New("dag: duplicate node id")
	ErrCyclicGraph     = errors.New("dag: cyclic graph")
)

// EdgeTypeError reports an unknown edge type name.
type EdgeTypeError struct {
	Value string
}

func (e *EdgeTypeError) Error() string {
	return fmt.Sprintf("dag: invalid edge type %q (want required or optional)", e.Value)
}

func (e *EdgeTypeError) Unwrap() error { return ErrInvalidEdgeType }

// CycleError lists the nodes that lie on at least one cycle.
type CycleError struct {
	Nodes []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dag: cyclic graph involving %s", strings.Join(e.Nodes, ", "))
}

func (e *CycleError) Unwrap() error { return ErrCyclicGraph }
