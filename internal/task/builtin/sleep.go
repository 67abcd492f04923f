package builtin

import (
	"fmt"
	"time"

	"github.com/gyaneshwarpardhi/kahnflow/internal/dag"
)

// Sleep waits for a fixed duration. It fails when the run is canceled first.
type Sleep struct{}

func (Sleep) Type() string { return "sleep" }

func (Sleep) Validate(params map[string]interface{}) error {
	s, err := stringParam(params, "duration", true)
	if err != nil {
		return fmt.Errorf("sleep: %w", err)
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("sleep: %w", err)
	}
	if d < 0 {
		return fmt.Errorf("sleep: negative duration %s", d)
	}
	return nil
}

func (Sleep) New(id string, params map[string]interface{}) (dag.Node, error) {
	s, _ := stringParam(params, "duration", true)
	d, err := time.ParseDuration(s)
	if err != nil {
		return nil, fmt.Errorf("sleep: %w", err)
	}
	return &sleepNode{id: id, d: d}, nil
}

type sleepNode struct {
	id string
	d  time.Duration
}

func (n *sleepNode) ID() string { return n.id }

func (n *sleepNode) Execute(req, res any) bool {
	rq, _, ok := args(req, res)
	if !ok {
		return false
	}
	t := time.NewTimer(n.d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-rq.Context().Done():
		return false
	}
}
