package builtin

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/gyaneshwarpardhi/kahnflow/internal/ctxlog"
	"github.com/gyaneshwarpardhi/kahnflow/internal/dag"
)

// Log writes a message through the run's logger and always completes.
type Log struct{}

func (Log) Type() string { return "log" }

func (Log) Validate(params map[string]interface{}) error {
	if _, err := stringParam(params, "message", true); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	level, err := stringParam(params, "level", false)
	if err != nil {
		return fmt.Errorf("log: %w", err)
	}
	switch strings.ToLower(level) {
	case "", "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("log: unknown level %q", level)
}

func (Log) New(id string, params map[string]interface{}) (dag.Node, error) {
	msg, _ := stringParam(params, "message", true)
	level, _ := stringParam(params, "level", false)
	return &logNode{id: id, msg: msg, level: ctxlog.ParseLevel(level)}, nil
}

type logNode struct {
	id    string
	msg   string
	level slog.Level
}

func (n *logNode) ID() string { return n.id }

func (n *logNode) Execute(req, res any) bool {
	rq, _, ok := args(req, res)
	if !ok {
		return false
	}
	ctx := rq.Context()
	ctxlog.FromContext(ctx).Log(ctx, n.level, n.msg,
		"node", n.id, "run", rq.ID, "pipeline", rq.Pipeline)
	return true
}
