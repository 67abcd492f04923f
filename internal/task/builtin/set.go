package builtin

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/gyaneshwarpardhi/kahnflow/internal/condition"
	"github.com/gyaneshwarpardhi/kahnflow/internal/dag"
	"github.com/gyaneshwarpardhi/kahnflow/internal/run"
)

// Set writes an output value. It supports two param modes:
//   - value: <literal>
//   - formula: <arithmetic expression evaluated against the run scope>
//
// round (optional) rounds formula results to that many decimal places.
type Set struct{}

func (Set) Type() string { return "set" }

func (Set) Validate(params map[string]interface{}) error {
	if _, err := stringParam(params, "key", true); err != nil {
		return fmt.Errorf("set: %w", err)
	}
	_, hasValue := params["value"]
	formula, err := stringParam(params, "formula", false)
	if err != nil {
		return fmt.Errorf("set: %w", err)
	}
	switch {
	case hasValue && formula != "":
		return fmt.Errorf("set: only one of 'value' or 'formula' may be set")
	case !hasValue && formula == "":
		return fmt.Errorf("set: one of 'value' or 'formula' is required")
	}
	if formula != "" {
		if _, err := condition.ParseFormula(formula); err != nil {
			return fmt.Errorf("set: formula %q: %w", formula, err)
		}
	}
	if r, ok := params["round"]; ok {
		if _, ok := condition.ToFloat64(r); !ok {
			return fmt.Errorf("set: param \"round\" must be a number, got %T", r)
		}
	}
	return nil
}

func (Set) New(id string, params map[string]interface{}) (dag.Node, error) {
	key, _ := stringParam(params, "key", true)
	n := &setNode{id: id, key: key, value: params["value"], round: -1}
	if formula, _ := stringParam(params, "formula", false); formula != "" {
		op, err := condition.ParseFormula(formula)
		if err != nil {
			return nil, fmt.Errorf("set: formula %q: %w", formula, err)
		}
		n.formula = op
	}
	if r, ok := condition.ToFloat64(params["round"]); ok {
		n.round = int(r)
	}
	return n, nil
}

type setNode struct {
	id      string
	key     string
	value   interface{}
	formula condition.Operand
	round   int // decimal places; negative keeps full precision
}

func (n *setNode) ID() string { return n.id }

func (n *setNode) Execute(req, res any) bool {
	rq, rs, ok := args(req, res)
	if !ok {
		return false
	}
	if n.formula == nil {
		rs.Set(n.key, n.value)
		return true
	}
	v, err := condition.Number(n.formula, run.Scope{Req: rq, Res: rs})
	if err != nil {
		slog.Warn("set formula failed", "node", n.id, "run", rq.ID, "err", err)
		return false
	}
	if n.round >= 0 {
		scale := math.Pow(10, float64(n.round))
		v = math.Round(v*scale) / scale
	}
	rs.Set(n.key, v)
	return true
}
