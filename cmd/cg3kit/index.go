package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"vislcg/cg3kit/pkg/cg"
	"vislcg/cg3kit/pkg/cli"
	"vislcg/cg3kit/pkg/store"
)

var indexFlags struct {
	db     string
	query  string
	format string
}

var indexCmd = &cobra.Command{
	Use:   "index <dir>",
	Short: "Build or query a cross-file symbol database",
	Long: `Analyze every grammar under a directory and persist the symbol
definitions to a SQLite database, or query a previously built database
for a symbol name across files.

Examples:
  # Index all grammars under rules/
  cg3kit index rules/ --db symbols.db

  # Find where NounPhrase is defined, in any indexed grammar
  cg3kit index rules/ --db symbols.db --query NounPhrase`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)

	indexCmd.Flags().StringVar(&indexFlags.db, "db", "", "symbol database path (default: store.path from config)")
	indexCmd.Flags().StringVarP(&indexFlags.query, "query", "q", "", "look up a symbol name instead of indexing")
	indexCmd.Flags().StringVar(&indexFlags.format, "format", "text", "output format: text, json")
}

func runIndex(cmd *cobra.Command, args []string) error {
	dbPath := indexFlags.db
	if dbPath == "" {
		dbPath = cfg.Store.Path
	}
	if dbPath == "" {
		return fmt.Errorf("no database path; pass --db or set store.path in the config")
	}

	st, err := store.OpenWithConfig(store.Config{
		DBPath:      dbPath,
		BusyTimeout: cfg.Store.BusyTimeout,
	})
	if err != nil {
		return cli.NewCommandError("index", err)
	}
	defer st.Close()

	if indexFlags.query != "" {
		return querySymbols(cmd, st)
	}
	return indexDirectory(cmd, st, args[0])
}

func indexDirectory(cmd *cobra.Command, st *store.SQLiteStore, root string) error {
	ctx := cmd.Context()
	indexed := 0
	symbols := 0

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if strings.HasPrefix(filepath.Base(path), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if !hasGrammarExtension(path) {
			return nil
		}

		doc, err := cg.Analyze(ctx, path)
		if err != nil {
			return err
		}
		if _, err := st.Save(ctx, path, doc.Index()); err != nil {
			return err
		}
		indexed++
		symbols += doc.Index().Len()
		return nil
	})
	if err != nil {
		return cli.NewCommandError("index", err)
	}

	fmt.Printf("Indexed %d grammar(s), %d symbol(s)\n", indexed, symbols)
	return nil
}

func querySymbols(cmd *cobra.Command, st *store.SQLiteStore) error {
	syms, err := st.QueryByName(cmd.Context(), indexFlags.query)
	if err != nil {
		return cli.NewCommandError("index", err)
	}

	if indexFlags.format == "json" {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, syms)
	}

	for _, sym := range syms {
		fmt.Printf("%-10s %-30s %s:%d:%d\n", sym.Kind, sym.Name, sym.File, sym.Line, sym.Column)
	}
	fmt.Printf("%d symbol(s)\n", len(syms))
	return nil
}

func hasGrammarExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range cfg.Watcher.Extensions {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}
