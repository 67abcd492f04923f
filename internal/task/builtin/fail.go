package builtin

import (
	"fmt"
	"log/slog"

	"github.com/gyaneshwarpardhi/kahnflow/internal/dag"
)

// Fail never completes. Useful for fallbacks wired with optional edges.
type Fail struct{}

func (Fail) Type() string { return "fail" }

func (Fail) Validate(params map[string]interface{}) error {
	if _, err := stringParam(params, "message", false); err != nil {
		return fmt.Errorf("fail: %w", err)
	}
	return nil
}

func (Fail) New(id string, params map[string]interface{}) (dag.Node, error) {
	msg, _ := stringParam(params, "message", false)
	return &failNode{id: id, msg: msg}, nil
}

type failNode struct {
	id  string
	msg string
}

func (n *failNode) ID() string { return n.id }

func (n *failNode) Execute(req, res any) bool {
	if n.msg != "" {
		slog.Info("node declined", "node", n.id, "reason", n.msg)
	}
	return false
}
