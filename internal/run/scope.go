package run

// Scope exposes a request and its response to the expression evaluator.
//
// Paths resolve as:
//
//	payload.<path>  request payload
//	meta.<key>      request metadata
//	run.id          request ID
//	run.pipeline    pipeline ID
//	outputs.<path>  values written by earlier nodes
type Scope struct {
	Req *Request
	Res *Response
}

// Resolve implements condition.EvalContext.
func (s Scope) Resolve(path []string) (interface{}, bool) {
	if len(path) == 0 {
		return nil, false
	}
	switch path[0] {
	case "payload":
		if s.Req == nil || s.Req.Payload == nil {
			return nil, false
		}
		return resolveMap(s.Req.Payload, path[1:])
	case "meta":
		if s.Req == nil || len(path) != 2 {
			return nil, false
		}
		v, ok := s.Req.Meta[path[1]]
		return v, ok
	case "run":
		if s.Req == nil || len(path) != 2 {
			return nil, false
		}
		switch path[1] {
		case "id":
			return s.Req.ID, true
		case "pipeline":
			return s.Req.Pipeline, true
		}
	case "outputs":
		if s.Res == nil {
			return nil, false
		}
		return resolveMap(s.Res.Snapshot(), path[1:])
	}
	return nil, false
}

func resolveMap(m map[string]interface{}, path []string) (interface{}, bool) {
	if len(path) == 0 {
		return nil, false
	}
	val, ok := m[path[0]]
	if !ok {
		return nil, false
	}
	if len(path) == 1 {
		return val, true
	}
	sub, ok := val.(map[string]interface{})
	if !ok {
		return nil, false
	}
	return resolveMap(sub, path[1:])
}
