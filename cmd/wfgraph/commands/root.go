package commands

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/gyaneshwarpardhi/wfgraph/internal/config"
	"github.com/gyaneshwarpardhi/wfgraph/internal/dag"
	"github.com/gyaneshwarpardhi/wfgraph/internal/engine"
)

// NewRootCommand returns the top-level CLI command.
func NewRootCommand() *cli.Command {
	return &cli.Command{
		Name:  "wfgraph",
		Usage: "Inspect the job graph of a pipeline config",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "legacy",
				Usage: "Build a linear workflow when no job declares requires",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			level := slog.LevelInfo
			if cmd.Bool("debug") {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
			return ctx, nil
		},
		Commands: []*cli.Command{
			NewGraphCommand(),
			NewNextCommand(),
			NewCycleCommand(),
			NewJoinsCommand(),
		},
	}
}

// loadGraph reads a pipeline file and builds its graph using the root flags.
func loadGraph(cmd *cli.Command, path string) (*dag.Graph, error) {
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}
	opts := dag.BuildOptions{UseLegacy: cmd.Bool("legacy")}
	g, err := engine.BuildGraph(cfg, opts)
	if err != nil {
		return nil, err
	}
	slog.Debug("graph built", "path", path, "mode", dag.ModeFor(cfg, opts), "nodes", g.NodeCount(), "edges", g.EdgeCount())
	return g, nil
}
