package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"vislcg/cg3kit/pkg/config"
)

var (
	// Global flags
	cfgFile string
	verbose bool

	// cfg is loaded before any subcommand runs.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "cg3kit",
	Short: "Toolkit for Constraint Grammar (CG3/VISL) source analysis",
	Long: `Cg3kit analyzes Constraint Grammar rule files without applying them to
linguistic corpora. It provides:
  - Syntax and semantic validation with precise locations and suggestions
  - Symbol indexing and definition lookup for lists, sets, templates and anchors
  - Syntax highlighting spans and indentation hints for editors
  - A watch mode with incremental re-analysis, metrics and symbol persistence`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}

		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})))
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
