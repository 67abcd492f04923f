package condition

import (
	"cmp"
	"fmt"
	"math"
	"regexp"
	"slices"
	"strings"
)

// Operator is a comparison operator.
type Operator string

const (
	OpEq       Operator = "=="
	OpNeq      Operator = "!="
	OpGt       Operator = ">"
	OpGte      Operator = ">="
	OpLt       Operator = "<"
	OpLte      Operator = "<="
	OpContains Operator = "contains"
	OpMatches  Operator = "matches"
)

type comparator func(left, right interface{}) (bool, error)

var comparators = map[Operator]comparator{
	OpEq:       func(l, r interface{}) (bool, error) { return equal(l, r), nil },
	OpNeq:      func(l, r interface{}) (bool, error) { return !equal(l, r), nil },
	OpGt:       ordered(OpGt, func(c int) bool { return c > 0 }),
	OpGte:      ordered(OpGte, func(c int) bool { return c >= 0 }),
	OpLt:       ordered(OpLt, func(c int) bool { return c < 0 }),
	OpLte:      ordered(OpLte, func(c int) bool { return c <= 0 }),
	OpContains: containsOp,
	OpMatches:  matchesOp,
}

// ToFloat64 converts any Go numeric value to float64.
func ToFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint32:
		return float64(n), true
	}
	return 0, false
}

func compare(op Operator, left, right interface{}) (bool, error) {
	fn, ok := comparators[op]
	if !ok {
		return false, fmt.Errorf("unknown operator: %s", op)
	}
	return fn(left, right)
}

// equal compares numbers by value, bools strictly and everything else by its
// printed form.
func equal(left, right interface{}) bool {
	if lf, ok := ToFloat64(left); ok {
		if rf, ok := ToFloat64(right); ok {
			return math.Abs(lf-rf) < 1e-9
		}
	}
	if lb, ok := left.(bool); ok {
		rb, ok := right.(bool)
		return ok && lb == rb
	}
	return fmt.Sprint(left) == fmt.Sprint(right)
}

// ordered builds a comparator over two numbers or two strings.
func ordered(op Operator, accept func(int) bool) comparator {
	return func(left, right interface{}) (bool, error) {
		if ls, ok := left.(string); ok {
			if rs, ok := right.(string); ok {
				return accept(strings.Compare(ls, rs)), nil
			}
		}
		lf, lok := ToFloat64(left)
		rf, rok := ToFloat64(right)
		if !lok || !rok {
			return false, fmt.Errorf("operator %s requires numeric operands, got %T and %T", op, left, right)
		}
		return accept(cmp.Compare(lf, rf)), nil
	}
}

// containsOp checks substrings for strings and membership for lists.
func containsOp(left, right interface{}) (bool, error) {
	switch l := left.(type) {
	case string:
		return strings.Contains(l, fmt.Sprint(right)), nil
	case []interface{}:
		return slices.ContainsFunc(l, func(item interface{}) bool { return equal(item, right) }), nil
	case []string:
		return slices.ContainsFunc(l, func(item string) bool { return equal(item, right) }), nil
	}
	return false, fmt.Errorf("contains: left operand must be a string or list, got %T", left)
}

// matchesOp handles patterns that are only known at evaluation time.
func matchesOp(left, right interface{}) (bool, error) {
	ls, ok := left.(string)
	if !ok {
		return false, fmt.Errorf("matches: left operand must be a string, got %T", left)
	}
	pattern, ok := right.(string)
	if !ok {
		return false, fmt.Errorf("matches: right operand must be a string pattern, got %T", right)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, fmt.Errorf("matches: invalid regex %q: %w", pattern, err)
	}
	return re.MatchString(ls), nil
}
