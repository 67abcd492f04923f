// Package condition implements the small expression language used by guard
// and set nodes: boolean logic over comparisons of fields and literals, with
// arithmetic on operands.
package condition

import "regexp"

// Expr is a boolean expression.
type Expr interface {
	exprNode()
}

// LogicOp joins two boolean expressions.
type LogicOp int

const (
	And LogicOp = iota
	Or
)

func (op LogicOp) String() string {
	if op == Or {
		return "OR"
	}
	return "AND"
}

// LogicalExpr is <expr> AND|OR <expr>, evaluated with short-circuit.
type LogicalExpr struct {
	Op          LogicOp
	Left, Right Expr
}

// NotExpr negates an expression.
type NotExpr struct {
	Expr Expr
}

// CompareExpr is <operand> <operator> <operand>.
type CompareExpr struct {
	Left, Right Operand
	Op          Operator

	re *regexp.Regexp // set when `matches` has a literal pattern
}

// TruthExpr is a bare operand tested for truthiness.
type TruthExpr struct {
	Operand Operand
}

func (*LogicalExpr) exprNode() {}
func (*NotExpr) exprNode()     {}
func (*CompareExpr) exprNode() {}
func (*TruthExpr) exprNode()   {}

// Operand produces a value.
type Operand interface {
	operandNode()
}

// Literal is a constant parsed from the source.
type Literal struct {
	Value interface{}
}

// Field is a dotted path such as payload.amount.
type Field struct {
	Path []string
}

// Arith combines two numeric operands with + - * or /.
type Arith struct {
	Op          byte
	Left, Right Operand
}

func (*Literal) operandNode() {}
func (*Field) operandNode()   {}
func (*Arith) operandNode()   {}

// EvalContext resolves field paths during evaluation.
type EvalContext interface {
	Resolve(path []string) (interface{}, bool)
}
