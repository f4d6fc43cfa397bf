package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/gyaneshwarpardhi/wfgraph/internal/dag"
)

// NewNextCommand returns the next subcommand.
func NewNextCommand() *cli.Command {
	return &cli.Command{
		Name:      "next",
		Usage:     "List the jobs fired next by a trigger",
		ArgsUsage: "<pipeline file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "trigger",
				Aliases:  []string{"t"},
				Usage:    "Trigger: ~commit, ~pr, ~commit:<branch>, a job name, or PR-<num>:<job>",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "pr",
				Usage: "Pull request number",
			},
			&cli.BoolFlag{
				Name:  "pr-chain",
				Usage: "Treat a job trigger as running inside the --pr namespace",
			},
		},
		Action: runNext,
	}
}

func runNext(_ context.Context, cmd *cli.Command) error {
	if cmd.NArg() != 1 {
		return fmt.Errorf("usage: wfgraph next --trigger <trigger> <pipeline file>")
	}
	g, err := loadGraph(cmd, cmd.Args().First())
	if err != nil {
		return err
	}
	jobs, err := dag.NextJobs(g, dag.Descriptor{
		Trigger: cmd.String("trigger"),
		PRNum:   cmd.String("pr"),
		PRChain: cmd.Bool("pr-chain"),
	})
	if err != nil {
		return err
	}
	out := cmd.Root().Writer
	for _, j := range jobs {
		fmt.Fprintln(out, j)
	}
	return nil
}
