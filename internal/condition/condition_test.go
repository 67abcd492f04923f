package condition

import (
	"testing"
)

// mapCtx implements EvalContext over nested maps.
type mapCtx map[string]interface{}

func (m mapCtx) Resolve(path []string) (interface{}, bool) {
	if len(path) == 0 {
		return nil, false
	}
	v, ok := m[path[0]]
	if !ok || len(path) == 1 {
		return v, ok
	}
	sub, ok := v.(map[string]interface{})
	if !ok {
		return nil, false
	}
	return mapCtx(sub).Resolve(path[1:])
}

func kv(pairs ...interface{}) mapCtx {
	m := make(mapCtx)
	for i := 0; i < len(pairs)-1; i += 2 {
		m[pairs[i].(string)] = pairs[i+1]
	}
	return m
}

func TestEvaluate(t *testing.T) {
	cases := []struct {
		name    string
		expr    string
		ctx     EvalContext
		want    bool
		wantErr bool
	}{
		{name: "gt true", expr: "amount > 1000", ctx: kv("amount", float64(1500)), want: true},
		{name: "gt false", expr: "amount > 1000", ctx: kv("amount", 500), want: false},
		{name: "gte equal", expr: "amount >= 1000", ctx: kv("amount", float64(1000)), want: true},
		{name: "lte negative literal", expr: "delta <= -5", ctx: kv("delta", -7), want: true},
		{name: "eq string", expr: `category == "food"`, ctx: kv("category", "food"), want: true},
		{name: "neq string", expr: `category != 'food'`, ctx: kv("category", "toys"), want: true},
		{name: "bool literal", expr: "vip == TRUE", ctx: kv("vip", true), want: true},
		{name: "bool mismatch", expr: "vip == 1", ctx: kv("vip", true), want: false},
		{name: "AND short-circuit", expr: `a == 1 AND missing > 0`, ctx: kv("a", 2), want: false},
		{name: "OR short-circuit", expr: `a == 1 or missing > 0`, ctx: kv("a", 1), want: true},
		{name: "NOT", expr: "NOT amount > 1000", ctx: kv("amount", 10), want: true},
		{name: "parens", expr: "(a == 1 OR b == 1) AND c == 1", ctx: kv("a", 0, "b", 1, "c", 1), want: true},
		{name: "nested path", expr: "payload.user.age >= 18", ctx: kv("payload", map[string]interface{}{"user": map[string]interface{}{"age": 21}}), want: true},
		{name: "contains substring", expr: `tags contains "vip"`, ctx: kv("tags", "vip-member"), want: true},
		{name: "contains list", expr: `tags contains "vip"`, ctx: kv("tags", []interface{}{"new", "vip"}), want: true},
		{name: "contains list miss", expr: `tags contains 3`, ctx: kv("tags", []interface{}{1, 2}), want: false},
		{name: "matches", expr: `email matches ".*@example\\.com"`, ctx: kv("email", "user@example.com"), want: true},
		{name: "matches miss", expr: `email matches ".*@example\\.com"`, ctx: kv("email", "user@other.com"), want: false},
		{name: "matches field pattern", expr: `email matches pattern`, ctx: kv("email", "abc", "pattern", "^a"), want: true},
		{name: "arithmetic", expr: "price * qty > 100", ctx: kv("price", 30, "qty", 4), want: true},
		{name: "precedence", expr: "1 + 2 * 3 == 7", ctx: kv(), want: true},
		{name: "subtraction", expr: "total - 5 == 10", ctx: kv("total", 15), want: true},
		{name: "truthy bool", expr: "vip", ctx: kv("vip", true), want: true},
		{name: "truthy empty string", expr: "name", ctx: kv("name", ""), want: false},
		{name: "truthy zero", expr: "NOT count", ctx: kv("count", 0), want: true},
		{name: "unknown field", expr: "missing > 10", ctx: kv("amount", 100), wantErr: true},
		{name: "string ordering", expr: `name > "alice"`, ctx: kv("name", "bob"), want: true},
		{name: "non-numeric compare", expr: `name > 3`, ctx: kv("name", "bob"), wantErr: true},
		{name: "division by zero", expr: "a / 0 > 1", ctx: kv("a", 1), wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ast, err := Parse(tc.expr)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tc.expr, err)
			}
			got, err := Evaluate(ast, tc.ctx)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got nil (result=%v)", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Evaluate error: %v", err)
			}
			if got != tc.want {
				t.Errorf("Evaluate(%q) = %v, want %v", tc.expr, got, tc.want)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	cases := []string{
		`"unterminated`,
		`amount 1000`,
		``,
		`a == `,
		`(a == 1`,
		`a = 1`,
		`email matches "("`,
		`a == 1 AND`,
		`x $ 1`,
	}
	for _, expr := range cases {
		t.Run(expr, func(t *testing.T) {
			if _, err := Parse(expr); err == nil {
				t.Errorf("expected parse error for %q, got nil", expr)
			}
		})
	}
}

func TestFormula(t *testing.T) {
	cases := []struct {
		expr string
		ctx  EvalContext
		want float64
	}{
		{"payload.amount * 0.05", kv("payload", map[string]interface{}{"amount": 2000}), 100},
		{"10 - -2", kv(), 12},
		{"a / b + 1", kv("a", 9, "b", 3), 4},
		{"42", kv(), 42},
	}
	for _, tc := range cases {
		t.Run(tc.expr, func(t *testing.T) {
			op, err := ParseFormula(tc.expr)
			if err != nil {
				t.Fatalf("ParseFormula(%q) error: %v", tc.expr, err)
			}
			got, err := Number(op, tc.ctx)
			if err != nil {
				t.Fatalf("Number error: %v", err)
			}
			if got != tc.want {
				t.Errorf("Number(%q) = %v, want %v", tc.expr, got, tc.want)
			}
		})
	}

	if _, err := ParseFormula("a > 1"); err == nil {
		t.Error("expected error for comparison in formula")
	}
	op, _ := ParseFormula(`"text"`)
	if _, err := Number(op, kv()); err == nil {
		t.Error("expected error for non-numeric formula")
	}
}
