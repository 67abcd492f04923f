package config

import (
	"fmt"
	"math/big"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// hclRoot mirrors Config in HCL block syntax:
//
//	version = "v1"
//	engine { strategy = "parallel" }
//	pipeline "checkout" {
//	  node "validate" {
//	    type   = "guard"
//	    params = { expression = "payload.amount > 0" }
//	  }
//	  edge {
//	    from = "validate"
//	    to   = "charge"
//	  }
//	}
type hclRoot struct {
	Version   string         `hcl:"version"`
	Engine    *hclEngine     `hcl:"engine,block"`
	Log       *hclLog        `hcl:"log,block"`
	Pipelines []*hclPipeline `hcl:"pipeline,block"`
}

type hclEngine struct {
	Strategy     *string `hcl:"strategy,optional"`
	NodeWorkers  *int    `hcl:"node_workers,optional"`
	RunWorkers   *int    `hcl:"run_workers,optional"`
	QueueDepth   *int    `hcl:"queue_depth,optional"`
	RunTimeoutMs *int    `hcl:"run_timeout_ms,optional"`
}

type hclLog struct {
	Level  *string `hcl:"level,optional"`
	Format *string `hcl:"format,optional"`
}

type hclPipeline struct {
	ID          string     `hcl:"id,label"`
	Description *string    `hcl:"description,optional"`
	Enabled     *bool      `hcl:"enabled,optional"`
	Nodes       []*hclNode `hcl:"node,block"`
	Edges       []*hclEdge `hcl:"edge,block"`
}

type hclNode struct {
	ID     string    `hcl:"id,label"`
	Type   string    `hcl:"type"`
	Params cty.Value `hcl:"params,optional"`
}

type hclEdge struct {
	From string  `hcl:"from"`
	To   string  `hcl:"to"`
	Type *string `hcl:"type,optional"`
}

// decodeHCL parses an HCL pipeline file into a Config.
func decodeHCL(filename string, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse config %s: %w", filename, diags)
	}
	var root hclRoot
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("decode config %s: %w", filename, diags)
	}

	cfg := &Config{Version: root.Version}
	if e := root.Engine; e != nil {
		cfg.Engine = EngineConf{
			Strategy:     deref(e.Strategy),
			NodeWorkers:  deref(e.NodeWorkers),
			RunWorkers:   deref(e.RunWorkers),
			QueueDepth:   deref(e.QueueDepth),
			RunTimeoutMs: deref(e.RunTimeoutMs),
		}
	}
	if l := root.Log; l != nil {
		cfg.Log = LogConf{Level: deref(l.Level), Format: deref(l.Format)}
	}
	for _, p := range root.Pipelines {
		pl := Pipeline{ID: p.ID, Description: deref(p.Description), Enabled: p.Enabled}
		for _, n := range p.Nodes {
			params, err := ctyToMap(n.Params)
			if err != nil {
				return nil, fmt.Errorf("decode config %s: pipeline %s node %s params: %w", filename, p.ID, n.ID, err)
			}
			pl.Nodes = append(pl.Nodes, NodeDef{ID: n.ID, Type: n.Type, Params: params})
		}
		for _, e := range p.Edges {
			pl.Edges = append(pl.Edges, EdgeDef{From: e.From, To: e.To, Type: deref(e.Type)})
		}
		cfg.Pipelines = append(cfg.Pipelines, pl)
	}
	return cfg, nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// ctyToMap converts an object or map value into plain Go values.
func ctyToMap(v cty.Value) (map[string]interface{}, error) {
	if v.IsNull() {
		return nil, nil
	}
	if !v.Type().IsObjectType() && !v.Type().IsMapType() {
		return nil, fmt.Errorf("expected an object, got %s", v.Type().FriendlyName())
	}
	out, err := ctyToGo(v)
	if err != nil {
		return nil, err
	}
	return out.(map[string]interface{}), nil
}

func ctyToGo(v cty.Value) (interface{}, error) {
	if v.IsNull() {
		return nil, nil
	}
	if !v.IsWhollyKnown() {
		return nil, fmt.Errorf("value is not known")
	}
	t := v.Type()
	switch {
	case t == cty.String:
		return v.AsString(), nil
	case t == cty.Bool:
		return v.True(), nil
	case t == cty.Number:
		f, _ := v.AsBigFloat().Float64()
		if v.AsBigFloat().IsInt() {
			if i, acc := v.AsBigFloat().Int64(); acc == big.Exact {
				return int(i), nil
			}
		}
		return f, nil
	case t.IsObjectType() || t.IsMapType():
		vm := v.AsValueMap()
		m := make(map[string]interface{}, len(vm))
		for k, ev := range vm {
			gv, err := ctyToGo(ev)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			m[k] = gv
		}
		return m, nil
	case t.IsListType() || t.IsTupleType() || t.IsSetType():
		vs := v.AsValueSlice()
		list := make([]interface{}, 0, len(vs))
		for _, ev := range vs {
			gv, err := ctyToGo(ev)
			if err != nil {
				return nil, err
			}
			list = append(list, gv)
		}
		return list, nil
	}
	return nil, fmt.Errorf("unsupported value type %s", t.FriendlyName())
}
