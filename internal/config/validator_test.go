package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/kahnflow/internal/config"
)

func validConfig() *config.Config {
	return &config.Config{
		Version: "v1",
		Engine:  config.EngineConf{Strategy: "kahn"},
		Pipelines: []config.Pipeline{{
			ID: "p",
			Nodes: []config.NodeDef{
				{ID: "a", Type: "log"},
				{ID: "b", Type: "log"},
			},
			Edges: []config.EdgeDef{{From: "a", To: "b", Type: "optional"}},
		}},
	}
}

func TestValidate_OK(t *testing.T) {
	require.NoError(t, config.Validate(validConfig()))
}

func TestValidate_Errors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(c *config.Config)
		want   string
	}{
		{"missing version", func(c *config.Config) { c.Version = "" }, "version is required"},
		{"unknown strategy", func(c *config.Config) { c.Engine.Strategy = "priority" }, `strategy "priority" is not supported`},
		{"negative limit", func(c *config.Config) { c.Engine.QueueDepth = -1 }, "queue_depth must not be negative"},
		{"missing pipeline id", func(c *config.Config) { c.Pipelines[0].ID = "" }, "pipelines[0]: id is required"},
		{"duplicate pipeline", func(c *config.Config) { c.Pipelines = append(c.Pipelines, c.Pipelines[0]) }, `duplicate pipeline id "p"`},
		{"no nodes", func(c *config.Config) { c.Pipelines[0].Nodes = nil; c.Pipelines[0].Edges = nil }, "nodes must not be empty"},
		{"missing node id", func(c *config.Config) { c.Pipelines[0].Nodes[1].ID = "" }, "nodes[1]: id is required"},
		{"duplicate node", func(c *config.Config) { c.Pipelines[0].Nodes[1].ID = "a" }, `duplicate node id "a"`},
		{"missing type", func(c *config.Config) { c.Pipelines[0].Nodes[0].Type = "" }, "node a: type is required"},
		{"dangling target", func(c *config.Config) { c.Pipelines[0].Edges[0].To = "ghost" }, `unknown target node "ghost"`},
		{"dangling source", func(c *config.Config) { c.Pipelines[0].Edges[0].From = "ghost" }, `unknown source node "ghost"`},
		{"empty edge", func(c *config.Config) { c.Pipelines[0].Edges[0].From = "" }, "from and to are required"},
		{"bad edge type", func(c *config.Config) { c.Pipelines[0].Edges[0].Type = "soft" }, `invalid edge type "soft"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := config.Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg := validConfig()
	cfg.Version = ""
	cfg.Pipelines[0].Edges[0].To = "ghost"
	err := config.Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "version is required")
	assert.Contains(t, err.Error(), "ghost")
}
