// Package builtin provides the node types available to every pipeline.
package builtin

import (
	"fmt"

	"github.com/gyaneshwarpardhi/kahnflow/internal/run"
	"github.com/gyaneshwarpardhi/kahnflow/internal/task"
)

// Register installs every builtin factory into reg.
func Register(reg *task.Registry) {
	reg.Register(Guard{})
	reg.Register(Set{})
	reg.Register(Log{})
	reg.Register(Sleep{})
	reg.Register(Fail{})
}

// args unwraps the opaque run values handed to a node.
func args(req, res any) (*run.Request, *run.Response, bool) {
	rq, ok := req.(*run.Request)
	if !ok || rq == nil {
		return nil, nil, false
	}
	rs, ok := res.(*run.Response)
	if !ok || rs == nil {
		return nil, nil, false
	}
	return rq, rs, true
}

func stringParam(params map[string]interface{}, key string, required bool) (string, error) {
	v, ok := params[key]
	if !ok || v == nil {
		if required {
			return "", fmt.Errorf("param %q is required", key)
		}
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("param %q must be a string, got %T", key, v)
	}
	if required && s == "" {
		return "", fmt.Errorf("param %q must not be empty", key)
	}
	return s, nil
}
