package builtin

import (
	"fmt"
	"log/slog"

	"github.com/gyaneshwarpardhi/kahnflow/internal/condition"
	"github.com/gyaneshwarpardhi/kahnflow/internal/dag"
	"github.com/gyaneshwarpardhi/kahnflow/internal/run"
)

// Guard completes when its expression evaluates to true.
//
//	params:
//	  expression: payload.amount > 0 AND meta.region == "eu"
type Guard struct{}

func (Guard) Type() string { return "guard" }

func (Guard) Validate(params map[string]interface{}) error {
	src, err := stringParam(params, "expression", true)
	if err != nil {
		return fmt.Errorf("guard: %w", err)
	}
	if _, err := condition.Parse(src); err != nil {
		return fmt.Errorf("guard: parse %q: %w", src, err)
	}
	return nil
}

func (Guard) New(id string, params map[string]interface{}) (dag.Node, error) {
	src, _ := stringParam(params, "expression", true)
	expr, err := condition.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("guard: parse %q: %w", src, err)
	}
	return &guardNode{id: id, src: src, expr: expr}, nil
}

type guardNode struct {
	id   string
	src  string
	expr condition.Expr // compiled once at build time
}

func (n *guardNode) ID() string { return n.id }

func (n *guardNode) Execute(req, res any) bool {
	rq, rs, ok := args(req, res)
	if !ok {
		return false
	}
	pass, err := condition.Evaluate(n.expr, run.Scope{Req: rq, Res: rs})
	if err != nil {
		slog.Warn("guard evaluation failed", "node", n.id, "run", rq.ID, "expression", n.src, "err", err)
		return false
	}
	return pass
}
