package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RunsEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kahnflow_runs_enqueued_total",
		Help: "Total number of pipeline runs placed on the run queue.",
	})

	RunsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kahnflow_runs_processed_total",
		Help: "Total number of pipeline runs finished, labelled by pipeline.",
	}, []string{"pipeline"})

	RunsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kahnflow_runs_dropped_total",
		Help: "Total number of runs rejected due to a full queue.",
	})

	NodesExecuted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kahnflow_nodes_executed_total",
		Help: "Total number of node executions, labelled by pipeline and status.",
	}, []string{"pipeline", "status"})

	NodesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kahnflow_nodes_skipped_total",
		Help: "Total number of nodes that never ran, labelled by pipeline and reason.",
	}, []string{"pipeline", "reason"})

	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "kahnflow_run_duration_ms",
		Help:    "End-to-end pipeline run latency in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	})

	QueueUtilization = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "kahnflow_queue_utilization_ratio",
		Help: "Current run queue utilization (0-1).",
	})

	CatalogReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kahnflow_catalog_reloads_total",
		Help: "Total number of catalog reload attempts, labelled by outcome.",
	}, []string{"status"})
)
