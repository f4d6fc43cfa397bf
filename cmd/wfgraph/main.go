package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/gyaneshwarpardhi/wfgraph/cmd/wfgraph/commands"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cmd := commands.NewRootCommand()
	if err := cmd.Run(ctx, os.Args); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}
