package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/urfave/cli/v3"

	"github.com/gyaneshwarpardhi/wfgraph/internal/dag"
)

// NewCycleCommand returns the cycle subcommand.
func NewCycleCommand() *cli.Command {
	return &cli.Command{
		Name:      "cycle",
		Usage:     "Check pipelines for circular job dependencies",
		ArgsUsage: "<file or glob>...",
		Action:    runCycle,
	}
}

func runCycle(_ context.Context, cmd *cli.Command) error {
	if cmd.NArg() == 0 {
		return fmt.Errorf("usage: wfgraph cycle <file or glob>...")
	}
	files, err := expandPatterns(cmd.Args().Slice())
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no pipeline files matched")
	}

	out := cmd.Root().Writer
	cyclic := 0
	for _, f := range files {
		g, err := loadGraph(cmd, f)
		if err != nil {
			return fmt.Errorf("%s: %w", f, err)
		}
		if path := dag.FindCycle(g); path != nil {
			cyclic++
			fmt.Fprintf(out, "cycle\t%s\t%s\n", f, strings.Join(path, " -> "))
			continue
		}
		fmt.Fprintf(out, "ok\t%s\n", f)
	}
	if cyclic > 0 {
		return fmt.Errorf("%d of %d pipelines have a cycle", cyclic, len(files))
	}
	return nil
}

// expandPatterns resolves ** globs; plain paths are passed through as-is.
func expandPatterns(patterns []string) ([]string, error) {
	var files []string
	seen := make(map[string]struct{})
	for _, p := range patterns {
		matches := []string{p}
		if strings.ContainsAny(p, "*?[{") {
			m, err := doublestar.FilepathGlob(p)
			if err != nil {
				return nil, fmt.Errorf("glob %q: %w", p, err)
			}
			matches = m
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	return files, nil
}
