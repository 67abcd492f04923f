package config

// Config is the top-level pipeline definition file.
type Config struct {
	Version   string     `yaml:"version" json:"version"`
	Engine    EngineConf `yaml:"engine" json:"engine"`
	Log       LogConf    `yaml:"log" json:"log"`
	Pipelines []Pipeline `yaml:"pipelines" json:"pipelines"`
}

// EngineConf holds tunable concurrency settings.
type EngineConf struct {
	Strategy     string `yaml:"strategy" json:"strategy"`         // "kahn" | "parallel"
	NodeWorkers  int    `yaml:"node_workers" json:"node_workers"` // parallel strategy only
	RunWorkers   int    `yaml:"run_workers" json:"run_workers"`
	QueueDepth   int    `yaml:"queue_depth" json:"queue_depth"`
	RunTimeoutMs int    `yaml:"run_timeout_ms" json:"run_timeout_ms"`
}

// LogConf selects the slog handler.
type LogConf struct {
	Level  string `yaml:"level" json:"level"`   // debug | info | warn | error
	Format string `yaml:"format" json:"format"` // text | json
}

// Pipeline is one dependency graph.
type Pipeline struct {
	ID          string    `yaml:"id" json:"id"`
	Description string    `yaml:"description" json:"description,omitempty"`
	Enabled     *bool     `yaml:"enabled" json:"enabled,omitempty"` // nil = enabled
	Nodes       []NodeDef `yaml:"nodes" json:"nodes"`
	Edges       []EdgeDef `yaml:"edges" json:"edges"`
}

// IsEnabled reports whether the pipeline should be compiled.
func (p Pipeline) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// NodeDef declares a node and the params handed to its factory.
type NodeDef struct {
	ID     string                 `yaml:"id" json:"id"`
	Type   string                 `yaml:"type" json:"type"`
	Params map[string]interface{} `yaml:"params" json:"params,omitempty"`
}

// EdgeDef declares a dependency From → To.
type EdgeDef struct {
	From string `yaml:"from" json:"from"`
	To   string `yaml:"to" json:"to"`
	Type string `yaml:"type" json:"type,omitempty"` // required (default) | optional
}

func applyDefaults(cfg *Config) {
	if cfg.Engine.Strategy == "" {
		cfg.Engine.Strategy = "kahn"
	}
	if cfg.Engine.NodeWorkers == 0 {
		cfg.Engine.NodeWorkers = 4
	}
	if cfg.Engine.RunWorkers == 0 {
		cfg.Engine.RunWorkers = 8
	}
	if cfg.Engine.QueueDepth == 0 {
		cfg.Engine.QueueDepth = 1000
	}
	if cfg.Engine.RunTimeoutMs == 0 {
		cfg.Engine.RunTimeoutMs = 5000
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
