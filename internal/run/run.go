// Package run holds the values shared by every node of one scheduling run.
package run

import (
	"context"
	"sync"
	"time"
)

// Request is the input of a run. Every node receives the same *Request.
type Request struct {
	ID         string                 `json:"id"`
	Pipeline   string                 `json:"pipeline"`
	Payload    map[string]interface{} `json:"payload"`
	Meta       map[string]string      `json:"meta"`
	ReceivedAt time.Time              `json:"-"`

	ctx context.Context
}

// WithContext returns a shallow copy of r bound to ctx.
func (r *Request) WithContext(ctx context.Context) *Request {
	r2 := *r
	r2.ctx = ctx
	return &r2
}

// Context returns the run context, never nil.
func (r *Request) Context() context.Context {
	if r.ctx == nil {
		return context.Background()
	}
	return r.ctx
}

// Response collects node outputs. It is safe for concurrent use.
type Response struct {
	mu     sync.RWMutex
	values map[string]interface{}
}

// NewResponse allocates an empty Response.
func NewResponse() *Response {
	return &Response{values: make(map[string]interface{})}
}

// Set stores an output value under key.
func (r *Response) Set(key string, v interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[key] = v
}

// Get returns the output stored under key.
func (r *Response) Get(key string) (interface{}, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.values[key]
	return v, ok
}

// Snapshot returns a copy of all outputs.
func (r *Response) Snapshot() map[string]interface{} {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]interface{}, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}
