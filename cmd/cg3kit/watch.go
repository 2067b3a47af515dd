package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"vislcg/cg3kit/pkg/cli"
	"vislcg/cg3kit/pkg/store"
	"vislcg/cg3kit/pkg/telemetry/metrics"
	"vislcg/cg3kit/pkg/workspace"
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Watch a directory and keep grammar analyses fresh",
	Long: `Watch a directory tree for grammar file changes and re-analyze
changed files, logging findings as they appear.

With store.path configured, symbol definitions are persisted to SQLite and
pruned on the retention schedule. With metrics.listen_address configured,
a Prometheus /metrics endpoint is served.

Examples:
  cg3kit watch rules/
  cg3kit watch rules/ --config cg3kit.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: watchGrammars,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func watchGrammars(cmd *cobra.Command, args []string) error {
	root := args[0]
	logger := slog.Default()

	ctx, stop := cli.SignalContext()
	defer stop()

	opts := []workspace.Option{workspace.WithLogger(logger)}

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector(&cfg.Metrics, nil)
		opts = append(opts, workspace.WithMetrics(collector))
	}

	if cfg.Store.Path != "" {
		st, err := store.OpenWithConfig(store.Config{
			DBPath:      cfg.Store.Path,
			BusyTimeout: cfg.Store.BusyTimeout,
		})
		if err != nil {
			return fmt.Errorf("failed to open symbol store: %w", err)
		}
		defer st.Close()
		opts = append(opts, workspace.WithStore(st))

		scheduler := store.NewScheduler(st, &cfg.Retention)
		if err := scheduler.Start(ctx); err != nil {
			return fmt.Errorf("failed to start retention scheduler: %w", err)
		}
		defer scheduler.Stop()
	}

	if collector != nil && cfg.Metrics.ListenAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.Handler())
		srv := &http.Server{
			Addr:              cfg.Metrics.ListenAddress,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("metrics endpoint listening", "address", cfg.Metrics.ListenAddress)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics endpoint failed", "error", err)
			}
		}()
		defer srv.Close()
	}

	ws := workspace.New(cfg, opts...)

	// Analyze what is already there before watching for changes.
	if err := openExisting(ctx, ws, root); err != nil {
		return err
	}

	logger.Info("watching for grammar changes",
		"path", root,
		"open_documents", ws.Len(),
	)

	return ws.Watch(ctx, root)
}

// openExisting walks root and opens every grammar file found.
func openExisting(ctx context.Context, ws *workspace.Workspace, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if cfg.Watcher.SkipHidden && strings.HasPrefix(filepath.Base(path), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if !ws.Accepts(path) {
			return nil
		}
		if _, err := ws.Open(ctx, path); err != nil {
			slog.Default().Warn("failed to analyze grammar", "path", path, "error", err)
		}
		return nil
	})
}
