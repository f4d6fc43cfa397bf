package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/gyaneshwarpardhi/wfgraph/internal/dag"
)

// NewJoinsCommand returns the joins subcommand.
func NewJoinsCommand() *cli.Command {
	return &cli.Command{
		Name:      "joins",
		Usage:     "Report joins, or the jobs a join waits for",
		ArgsUsage: "<pipeline file> [job]",
		Action:    runJoins,
	}
}

func runJoins(_ context.Context, cmd *cli.Command) error {
	if cmd.NArg() < 1 || cmd.NArg() > 2 {
		return fmt.Errorf("usage: wfgraph joins <pipeline file> [job]")
	}
	g, err := loadGraph(cmd, cmd.Args().Get(0))
	if err != nil {
		return err
	}
	out := cmd.Root().Writer

	if cmd.NArg() == 1 {
		fmt.Fprintf(out, "has join: %t\n", dag.HasJoin(g))
		return nil
	}
	sources, err := dag.JoinSources(g, cmd.Args().Get(1))
	if err != nil {
		return err
	}
	for _, n := range sources {
		fmt.Fprintln(out, n.Name)
	}
	return nil
}
