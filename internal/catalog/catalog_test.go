package catalog_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/kahnflow/internal/catalog"
	"github.com/gyaneshwarpardhi/kahnflow/internal/config"
	"github.com/gyaneshwarpardhi/kahnflow/internal/dag"
	"github.com/gyaneshwarpardhi/kahnflow/internal/run"
	"github.com/gyaneshwarpardhi/kahnflow/internal/task"
	"github.com/gyaneshwarpardhi/kahnflow/internal/task/builtin"
)

func registry() *task.Registry {
	reg := task.NewRegistry()
	builtin.Register(reg)
	return reg
}

func disabled() *bool {
	b := false
	return &b
}

// fanInConfig is the failing fan-in scenario: a fails, b succeeds, both feed c.
func fanInConfig(edgeType string) *config.Config {
	return &config.Config{
		Version: "v1",
		Pipelines: []config.Pipeline{
			{
				ID:          "fanin",
				Description: "fan-in",
				Nodes: []config.NodeDef{
					{ID: "a", Type: "fail"},
					{ID: "b", Type: "set", Params: map[string]interface{}{"key": "b", "value": true}},
					{ID: "c", Type: "set", Params: map[string]interface{}{"key": "c", "value": true}},
				},
				Edges: []config.EdgeDef{
					{From: "a", To: "c", Type: edgeType},
					{From: "b", To: "c"},
				},
			},
			{
				ID:      "off",
				Enabled: disabled(),
				Nodes:   []config.NodeDef{{ID: "x", Type: "fail"}},
			},
		},
	}
}

func TestBuild(t *testing.T) {
	c, err := catalog.Build(fanInConfig("required"), registry(), dag.KahnExecutor{})
	require.NoError(t, err)
	assert.Equal(t, []string{"fanin"}, c.IDs())
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, "v1", c.Version())

	_, ok := c.Get("off")
	assert.False(t, ok, "disabled pipelines are not compiled")

	p, ok := c.Get("fanin")
	require.True(t, ok)
	assert.Equal(t, 3, p.Graph().NodeCount())
}

func TestBuild_RunsPropagationRules(t *testing.T) {
	cases := []struct {
		edge      string
		completed int
		cRan      bool
	}{
		{"required", 1, false},
		{"optional", 2, true},
	}
	for _, tc := range cases {
		t.Run(tc.edge, func(t *testing.T) {
			c, err := catalog.Build(fanInConfig(tc.edge), registry(), &dag.ParallelExecutor{Workers: 2})
			require.NoError(t, err)
			p, _ := c.Get("fanin")

			res := run.NewResponse()
			n := p.Schedule(context.Background(), &run.Request{ID: "r"}, res)
			assert.Equal(t, tc.completed, n)
			_, ok := res.Get("c")
			assert.Equal(t, tc.cRan, ok)
		})
	}
}

func TestBuild_Errors(t *testing.T) {
	t.Run("unknown node type", func(t *testing.T) {
		cfg := fanInConfig("")
		cfg.Pipelines[0].Nodes[0].Type = "teleport"
		_, err := catalog.Build(cfg, registry(), dag.KahnExecutor{})
		assert.ErrorContains(t, err, `pipeline fanin: no factory registered for node type "teleport"`)
	})

	t.Run("invalid params", func(t *testing.T) {
		cfg := fanInConfig("")
		cfg.Pipelines[0].Nodes[1].Params = nil
		_, err := catalog.Build(cfg, registry(), dag.KahnExecutor{})
		assert.ErrorContains(t, err, `param "key" is required`)
	})

	t.Run("dangling edge", func(t *testing.T) {
		cfg := fanInConfig("")
		cfg.Pipelines[0].Edges[0].To = "ghost"
		_, err := catalog.Build(cfg, registry(), dag.KahnExecutor{})
		assert.ErrorIs(t, err, dag.ErrDanglingEdge)
	})

	t.Run("duplicate node", func(t *testing.T) {
		cfg := fanInConfig("")
		cfg.Pipelines[0].Nodes[1].ID = "a"
		_, err := catalog.Build(cfg, registry(), dag.KahnExecutor{})
		assert.ErrorIs(t, err, dag.ErrDuplicateNode)
	})

	t.Run("cycle", func(t *testing.T) {
		cfg := fanInConfig("")
		cfg.Pipelines[0].Edges = append(cfg.Pipelines[0].Edges, config.EdgeDef{From: "c", To: "b"})
		_, err := catalog.Build(cfg, registry(), dag.KahnExecutor{})
		assert.ErrorIs(t, err, dag.ErrCyclicGraph)
	})
}

func TestDescribe(t *testing.T) {
	c, err := catalog.Build(fanInConfig("optional"), registry(), dag.KahnExecutor{})
	require.NoError(t, err)

	d, ok := c.Describe("fanin")
	require.True(t, ok)
	assert.Equal(t, "fan-in", d.Description)
	assert.Equal(t, []catalog.NodeView{{ID: "a", Type: "fail"}, {ID: "b", Type: "set"}, {ID: "c", Type: "set"}}, d.Nodes)
	assert.Equal(t, []catalog.EdgeView{
		{From: "a", To: "c", Type: dag.Optional},
		{From: "b", To: "c", Type: dag.Required},
	}, d.Edges)
	assert.Equal(t, []string{"a", "b"}, d.Roots)
	assert.Equal(t, []string{"a", "b", "c"}, d.Order)

	_, ok = c.Describe("missing")
	assert.False(t, ok)
}

func TestCompile(t *testing.T) {
	cfg := fanInConfig("optional")
	cfg.Engine.Strategy = "parallel"
	cfg.Engine.NodeWorkers = 2
	c, err := catalog.Compile(cfg, registry())
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())

	cfg.Engine.Strategy = "bogus"
	_, err = catalog.Compile(cfg, registry())
	assert.ErrorContains(t, err, "config validation errors")
}

func TestCompile_SampleConfigs(t *testing.T) {
	for _, name := range []string{"pipelines.yaml", "pipelines.hcl"} {
		t.Run(name, func(t *testing.T) {
			cfg, err := config.Load(filepath.Join("..", "..", "configs", name))
			require.NoError(t, err)
			c, err := catalog.Compile(cfg, registry())
			require.NoError(t, err)
			assert.Equal(t, 1, c.Len())
		})
	}
}

func TestCompile_ShippingSample(t *testing.T) {
	cfg, err := config.Load(filepath.Join("..", "..", "configs", "pipelines.hcl"))
	require.NoError(t, err)
	c, err := catalog.Compile(cfg, registry())
	require.NoError(t, err)
	p, ok := c.Get("shipping")
	require.True(t, ok)

	res := run.NewResponse()
	req := &run.Request{ID: "r", Payload: map[string]interface{}{"weight": 10.0, "destination": "Pune"}}
	report := p.Run(context.Background(), req, res)

	assert.Equal(t, []string{"oversize"}, report.Failed)
	require.Len(t, report.Starved, 1)
	assert.Equal(t, "surcharge", report.Starved[0].ID)
	assert.Equal(t, map[string]interface{}{"base_rate": 12.5, "quoted": true}, res.Snapshot())
}
