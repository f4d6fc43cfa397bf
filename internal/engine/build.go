package engine

import (
	"fmt"

	"github.com/gyaneshwarpardhi/wfgraph/internal/config"
	"github.com/gyaneshwarpardhi/wfgraph/internal/dag"
	"github.com/gyaneshwarpardhi/wfgraph/internal/metrics"
)

// BuildGraph validates cfg and builds its workflow graph, recording the
// outcome in the build metrics.
func BuildGraph(cfg *config.PipelineConfig, opts dag.BuildOptions) (*dag.Graph, error) {
	mode := string(dag.ModeFor(cfg, opts))
	if err := config.Validate(cfg); err != nil {
		metrics.GraphBuilds.WithLabelValues(mode, "invalid").Inc()
		return nil, err
	}
	g, err := dag.Build(cfg, opts)
	if err != nil {
		metrics.GraphBuilds.WithLabelValues(mode, "error").Inc()
		return nil, fmt.Errorf("build %s graph: %w", mode, err)
	}
	metrics.GraphBuilds.WithLabelValues(mode, "ok").Inc()
	return g, nil
}

// Reloader returns a config.Loader OnChange callback that builds the graph
// of a reloaded config and swaps it into e. Invalid or cyclic configs are
// returned as errors, leaving the live graph untouched.
func (e *Engine) Reloader(opts dag.BuildOptions) func(*config.PipelineConfig) error {
	return func(cfg *config.PipelineConfig) error {
		g, err := BuildGraph(cfg, opts)
		if err != nil {
			return err
		}
		return e.SwapGraph(g)
	}
}
