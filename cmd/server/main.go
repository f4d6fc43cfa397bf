package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gyaneshwarpardhi/wfgraph/internal/api"
	"github.com/gyaneshwarpardhi/wfgraph/internal/config"
	"github.com/gyaneshwarpardhi/wfgraph/internal/dag"
	"github.com/gyaneshwarpardhi/wfgraph/internal/engine"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	cfgPath := flag.String("config", "screwdriver.yaml", "Path to pipeline config (YAML or JSONC)")
	legacy := flag.Bool("legacy", false, "Build a linear workflow when no job declares requires")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	opts := dag.BuildOptions{UseLegacy: *legacy}

	// ── Load config ──────────────────────────────────────────────────────────
	loader, err := config.NewLoader(*cfgPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	cfg := loader.Config()

	// ── Build initial graph ──────────────────────────────────────────────────
	g, err := engine.BuildGraph(cfg, opts)
	if err != nil {
		slog.Error("failed to build workflow graph", "err", err)
		os.Exit(1)
	}
	if path := dag.FindCycle(g); path != nil {
		slog.Error("workflow graph has a cycle", "path", strings.Join(path, " -> "))
		os.Exit(1)
	}
	slog.Info("workflow graph built",
		"mode", dag.ModeFor(cfg, opts),
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"join", dag.HasJoin(g),
	)

	// ── Engine ────────────────────────────────────────────────────────────────
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng := engine.New(ctx, g, cfg.Engine)

	// ── Hot-reload watcher ────────────────────────────────────────────────────
	reload := eng.Reloader(opts)
	loader.OnChange(func(newCfg *config.PipelineConfig) error {
		if err := reload(newCfg); err != nil {
			slog.Warn("hot-reload skipped", "err", err)
			return err
		}
		g := eng.Graph()
		slog.Info("workflow graph hot-reloaded", "nodes", g.NodeCount(), "edges", g.EdgeCount())
		return nil
	})

	// ── Resolved triggers ─────────────────────────────────────────────────────
	eng.OnResult(func(res *engine.Result) {
		if res.Error != "" {
			slog.Warn("trigger rejected", "event_id", res.EventID, "trigger", res.Trigger, "err", res.Error)
			return
		}
		slog.Info("trigger resolved",
			"event_id", res.EventID,
			"trigger", res.Trigger,
			"kind", res.Kind,
			"next_jobs", res.NextJobs,
			"duration_ms", res.DurationMs,
		)
	})

	stopWatch, err := loader.Watch()
	if err != nil {
		slog.Warn("config watcher unavailable (hot-reload disabled)", "err", err)
	} else {
		defer stopWatch()
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	handler := api.New(eng, loader, opts)
	srv := &http.Server{
		Addr:         *addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down…")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	cancel() // stop worker pool
	eng.Shutdown()
	slog.Info("goodbye")
}
