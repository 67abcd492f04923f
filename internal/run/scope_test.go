package run

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScope_Resolve(t *testing.T) {
	req := &Request{
		ID:       "run-1",
		Pipeline: "checkout",
		Payload: map[string]interface{}{
			"amount": 12.5,
			"user":   map[string]interface{}{"tier": "gold"},
		},
		Meta: map[string]string{"region": "eu"},
	}
	res := NewResponse()
	res.Set("charge", map[string]interface{}{"status": "ok"})
	s := Scope{Req: req, Res: res}

	cases := []struct {
		path []string
		want interface{}
		ok   bool
	}{
		{[]string{"payload", "amount"}, 12.5, true},
		{[]string{"payload", "user", "tier"}, "gold", true},
		{[]string{"payload", "amount", "x"}, nil, false},
		{[]string{"payload"}, nil, false},
		{[]string{"meta", "region"}, "eu", true},
		{[]string{"meta", "zone"}, "", false},
		{[]string{"run", "id"}, "run-1", true},
		{[]string{"run", "pipeline"}, "checkout", true},
		{[]string{"run", "other"}, nil, false},
		{[]string{"outputs", "charge", "status"}, "ok", true},
		{[]string{"unknown"}, nil, false},
		{nil, nil, false},
	}
	for _, tc := range cases {
		got, ok := s.Resolve(tc.path)
		assert.Equal(t, tc.ok, ok, "%v", tc.path)
		assert.Equal(t, tc.want, got, "%v", tc.path)
	}
}

func TestRequest_Context(t *testing.T) {
	req := &Request{ID: "a"}
	assert.NotNil(t, req.Context())

	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, 1)
	bound := req.WithContext(ctx)
	assert.Equal(t, 1, bound.Context().Value(key{}))
	assert.Equal(t, "a", bound.ID)
	assert.NotSame(t, req, bound)
}

func TestResponse_Snapshot(t *testing.T) {
	res := NewResponse()
	res.Set("a", 1)
	snap := res.Snapshot()
	snap["b"] = 2

	_, ok := res.Get("b")
	assert.False(t, ok)
	v, ok := res.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
}
