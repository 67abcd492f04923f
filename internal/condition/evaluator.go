package condition

import (
	"fmt"
	"strings"
)

// Evaluate reports whether expr holds in ctx.
func Evaluate(expr Expr, ctx EvalContext) (bool, error) {
	switch e := expr.(type) {
	case *LogicalExpr:
		left, err := Evaluate(e.Left, ctx)
		if err != nil {
			return false, err
		}
		// AND stops on false, OR stops on true.
		if left == (e.Op == Or) {
			return left, nil
		}
		return Evaluate(e.Right, ctx)
	case *NotExpr:
		v, err := Evaluate(e.Expr, ctx)
		return !v && err == nil, err
	case *CompareExpr:
		return evalCompare(e, ctx)
	case *TruthExpr:
		v, err := Value(e.Operand, ctx)
		if err != nil {
			return false, err
		}
		return truthy(v), nil
	}
	return false, fmt.Errorf("unknown expr type %T", expr)
}

func evalCompare(e *CompareExpr, ctx EvalContext) (bool, error) {
	left, err := Value(e.Left, ctx)
	if err != nil {
		return false, err
	}
	if e.re != nil {
		s, ok := left.(string)
		if !ok {
			return false, fmt.Errorf("matches: left operand must be a string, got %T", left)
		}
		return e.re.MatchString(s), nil
	}
	right, err := Value(e.Right, ctx)
	if err != nil {
		return false, err
	}
	return compare(e.Op, left, right)
}

// Value resolves an operand. Arithmetic operands always yield float64.
func Value(op Operand, ctx EvalContext) (interface{}, error) {
	switch o := op.(type) {
	case *Literal:
		return o.Value, nil
	case *Field:
		if v, ok := ctx.Resolve(o.Path); ok {
			return v, nil
		}
		return nil, fmt.Errorf("field %q not found", strings.Join(o.Path, "."))
	case *Arith:
		return Number(o, ctx)
	}
	return nil, fmt.Errorf("unknown operand type %T", op)
}

// Number resolves an operand that must be numeric.
func Number(op Operand, ctx EvalContext) (float64, error) {
	a, ok := op.(*Arith)
	if !ok {
		v, err := Value(op, ctx)
		if err != nil {
			return 0, err
		}
		f, ok := ToFloat64(v)
		if !ok {
			return 0, fmt.Errorf("value %v (%T) is not numeric", v, v)
		}
		return f, nil
	}

	l, err := Number(a.Left, ctx)
	if err != nil {
		return 0, err
	}
	r, err := Number(a.Right, ctx)
	if err != nil {
		return 0, err
	}
	switch a.Op {
	case '+':
		return l + r, nil
	case '-':
		return l - r, nil
	case '*':
		return l * r, nil
	case '/':
		if r == 0 {
			return 0, fmt.Errorf("division by zero")
		}
		return l / r, nil
	}
	return 0, fmt.Errorf("unknown arithmetic operator %q", a.Op)
}

// truthy: nil, false, "" and zero are false; everything else is true.
func truthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	}
	if f, ok := ToFloat64(v); ok {
		return f != 0
	}
	return true
}
