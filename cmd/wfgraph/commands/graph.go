package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// NewGraphCommand returns the graph subcommand.
func NewGraphCommand() *cli.Command {
	return &cli.Command{
		Name:      "graph",
		Usage:     "Print the nodes and edges of a pipeline",
		ArgsUsage: "<pipeline file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: json or yaml",
				Value:   "json",
			},
		},
		Action: runGraph,
	}
}

func runGraph(_ context.Context, cmd *cli.Command) error {
	if cmd.NArg() != 1 {
		return fmt.Errorf("usage: wfgraph graph <pipeline file>")
	}
	g, err := loadGraph(cmd, cmd.Args().First())
	if err != nil {
		return err
	}

	out := cmd.Root().Writer
	switch cmd.String("format") {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(g)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(g); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q", cmd.String("format"))
	}
}
