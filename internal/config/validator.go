package config

import (
	"fmt"
	"strings"

	"github.com/gyaneshwarpardhi/kahnflow/internal/dag"
)

// Validate checks the config for:
//   - Required fields
//   - Duplicate pipeline IDs and duplicate node IDs within a pipeline
//   - Edges referencing undeclared nodes and unknown edge types
//   - Unknown executor strategies and non-positive engine limits
//
// Cycles are detected when the pipeline graphs are built.
func Validate(cfg *Config) error {
	var errs []string
	if cfg.Version == "" {
		errs = append(errs, "version is required")
	}
	if _, err := dag.NewExecutor(cfg.Engine.Strategy, cfg.Engine.NodeWorkers); err != nil {
		errs = append(errs, fmt.Sprintf("engine: strategy %q is not supported", cfg.Engine.Strategy))
	}
	limits := []struct {
		name string
		v    int
	}{
		{"node_workers", cfg.Engine.NodeWorkers},
		{"run_workers", cfg.Engine.RunWorkers},
		{"queue_depth", cfg.Engine.QueueDepth},
		{"run_timeout_ms", cfg.Engine.RunTimeoutMs},
	}
	for _, l := range limits {
		if l.v < 0 {
			errs = append(errs, fmt.Sprintf("engine: %s must not be negative", l.name))
		}
	}

	pipelines := make(map[string]int)
	for i, p := range cfg.Pipelines {
		if p.ID == "" {
			errs = append(errs, fmt.Sprintf("pipelines[%d]: id is required", i))
			continue
		}
		if prev, ok := pipelines[p.ID]; ok {
			errs = append(errs, fmt.Sprintf("duplicate pipeline id %q (pipelines[%d] and pipelines[%d])", p.ID, prev, i))
			continue
		}
		pipelines[p.ID] = i
		validatePipeline(p, &errs)
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func validatePipeline(p Pipeline, errs *[]string) {
	loc := fmt.Sprintf("pipeline %s", p.ID)
	if len(p.Nodes) == 0 {
		*errs = append(*errs, fmt.Sprintf("%s: nodes must not be empty", loc))
	}
	nodes := make(map[string]int)
	for j, n := range p.Nodes {
		if n.ID == "" {
			*errs = append(*errs, fmt.Sprintf("%s.nodes[%d]: id is required", loc, j))
			continue
		}
		if prev, ok := nodes[n.ID]; ok {
			*errs = append(*errs, fmt.Sprintf("%s: duplicate node id %q (nodes[%d] and nodes[%d])", loc, n.ID, prev, j))
			continue
		}
		nodes[n.ID] = j
		if n.Type == "" {
			*errs = append(*errs, fmt.Sprintf("%s node %s: type is required", loc, n.ID))
		}
	}
	for j, e := range p.Edges {
		if e.From == "" || e.To == "" {
			*errs = append(*errs, fmt.Sprintf("%s.edges[%d]: from and to are required", loc, j))
			continue
		}
		if _, ok := nodes[e.From]; !ok {
			*errs = append(*errs, fmt.Sprintf("%s.edges[%d]: unknown source node %q", loc, j, e.From))
		}
		if _, ok := nodes[e.To]; !ok {
			*errs = append(*errs, fmt.Sprintf("%s.edges[%d]: unknown target node %q", loc, j, e.To))
		}
		if _, err := dag.ParseEdgeType(e.Type); err != nil {
			*errs = append(*errs, fmt.Sprintf("%s.edges[%d]: %v", loc, j, err))
		}
	}
}
