package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TriggersEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wfgraph_triggers_enqueued_total",
		Help: "Total number of trigger events placed on the processing queue.",
	})

	TriggersProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wfgraph_triggers_processed_total",
		Help: "Total number of trigger events resolved by the engine.",
	})

	TriggersDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wfgraph_triggers_dropped_total",
		Help: "Total number of trigger events rejected due to a full queue.",
	})

	JobsTriggered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wfgraph_jobs_triggered_total",
		Help: "Total number of next jobs resolved, labelled by trigger kind.",
	}, []string{"kind"})

	TriggerResolutionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "wfgraph_trigger_resolution_duration_ms",
		Help:    "End-to-end trigger resolution latency in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	})

	QueueUtilization = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wfgraph_queue_utilization_ratio",
		Help: "Current trigger queue utilization (0–1).",
	})

	GraphBuilds = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wfgraph_graph_builds_total",
		Help: "Total number of workflow graph builds, labelled by mode and status.",
	}, []string{"mode", "status"})

	GraphNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wfgraph_graph_nodes",
		Help: "Number of nodes in the live workflow graph.",
	})

	GraphEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wfgraph_graph_edges",
		Help: "Number of edges in the live workflow graph.",
	})

	CyclesDetected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wfgraph_cycles_detected_total",
		Help: "Total number of graphs rejected because they contain a cycle.",
	})
)
