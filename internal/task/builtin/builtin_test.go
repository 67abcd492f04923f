package builtin_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/kahnflow/internal/dag"
	"github.com/gyaneshwarpardhi/kahnflow/internal/run"
	"github.com/gyaneshwarpardhi/kahnflow/internal/task"
	"github.com/gyaneshwarpardhi/kahnflow/internal/task/builtin"
)

func registry(t *testing.T) *task.Registry {
	t.Helper()
	reg := task.NewRegistry()
	builtin.Register(reg)
	return reg
}

func build(t *testing.T, typ string, params map[string]interface{}) dag.Node {
	t.Helper()
	n, err := registry(t).Build("n", typ, params)
	require.NoError(t, err)
	return n
}

func newRequest(payload map[string]interface{}) *run.Request {
	return &run.Request{ID: "run-1", Pipeline: "p", Payload: payload}
}

func TestRegister(t *testing.T) {
	assert.Equal(t, []string{"fail", "guard", "log", "set", "sleep"}, registry(t).Types())
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		typ    string
		params map[string]interface{}
		errMsg string
	}{
		{"guard missing expression", "guard", nil, `param "expression" is required`},
		{"guard bad expression", "guard", map[string]interface{}{"expression": "a =="}, "parse"},
		{"guard wrong type", "guard", map[string]interface{}{"expression": 3}, "must be a string"},
		{"set missing key", "set", map[string]interface{}{"value": 1}, `param "key" is required`},
		{"set neither", "set", map[string]interface{}{"key": "k"}, "one of 'value' or 'formula' is required"},
		{"set both", "set", map[string]interface{}{"key": "k", "value": 1, "formula": "1"}, "only one of"},
		{"set bad formula", "set", map[string]interface{}{"key": "k", "formula": "a >"}, "formula"},
		{"set bad round", "set", map[string]interface{}{"key": "k", "value": 1, "round": "two"}, "round"},
		{"log missing message", "log", nil, `param "message" is required`},
		{"log bad level", "log", map[string]interface{}{"message": "hi", "level": "loud"}, "unknown level"},
		{"sleep missing", "sleep", nil, `param "duration" is required`},
		{"sleep bad", "sleep", map[string]interface{}{"duration": "soon"}, "sleep"},
		{"sleep negative", "sleep", map[string]interface{}{"duration": "-1s"}, "negative"},
		{"fail bad message", "fail", map[string]interface{}{"message": 1}, "must be a string"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := registry(t).Build("n", tc.typ, tc.params)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}

func TestGuard(t *testing.T) {
	n := build(t, "guard", map[string]interface{}{"expression": `payload.amount > 100 AND outputs.tier == "gold"`})

	res := run.NewResponse()
	res.Set("tier", "gold")
	assert.True(t, n.Execute(newRequest(map[string]interface{}{"amount": 150}), res))
	assert.False(t, n.Execute(newRequest(map[string]interface{}{"amount": 50}), res))
	// Missing field is an evaluation error, reported as a failure.
	assert.False(t, n.Execute(newRequest(nil), res))
	// Foreign req/res types are rejected.
	assert.False(t, n.Execute("req", "res"))
}

func TestSet(t *testing.T) {
	t.Run("value", func(t *testing.T) {
		n := build(t, "set", map[string]interface{}{"key": "status", "value": "approved"})
		res := run.NewResponse()
		require.True(t, n.Execute(newRequest(nil), res))
		v, _ := res.Get("status")
		assert.Equal(t, "approved", v)
	})

	t.Run("formula rounded", func(t *testing.T) {
		n := build(t, "set", map[string]interface{}{"key": "fee", "formula": "payload.amount * 0.0333", "round": 2})
		res := run.NewResponse()
		require.True(t, n.Execute(newRequest(map[string]interface{}{"amount": 100}), res))
		v, _ := res.Get("fee")
		assert.Equal(t, 3.33, v)
	})

	t.Run("formula error", func(t *testing.T) {
		n := build(t, "set", map[string]interface{}{"key": "fee", "formula": "payload.amount / 0"})
		res := run.NewResponse()
		assert.False(t, n.Execute(newRequest(map[string]interface{}{"amount": 1}), res))
		_, ok := res.Get("fee")
		assert.False(t, ok)
	})
}

func TestLogAndFail(t *testing.T) {
	logNode := build(t, "log", map[string]interface{}{"message": "hello", "level": "debug"})
	assert.True(t, logNode.Execute(newRequest(nil), run.NewResponse()))

	failNode := build(t, "fail", map[string]interface{}{"message": "nope"})
	assert.False(t, failNode.Execute(newRequest(nil), run.NewResponse()))
}

func TestSleep(t *testing.T) {
	n := build(t, "sleep", map[string]interface{}{"duration": "5ms"})
	assert.True(t, n.Execute(newRequest(nil), run.NewResponse()))

	long := build(t, "sleep", map[string]interface{}{"duration": "1h"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	assert.False(t, long.Execute(newRequest(nil).WithContext(ctx), run.NewResponse()))
	assert.Less(t, time.Since(start), time.Second)
}
