package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"vislcg/cg3kit/pkg/cg"
	"vislcg/cg3kit/pkg/cg/highlight"
	"vislcg/cg3kit/pkg/cli"
)

var highlightFlags struct {
	format string
}

var highlightCmd = &cobra.Command{
	Use:   "highlight <file>",
	Short: "Emit syntax highlighting spans",
	Long: `Emit the classified spans of a grammar file for editor highlighting.

Each span carries a byte range and a kind (keyword, rule_type, identifier,
tag, string, number, operator, bracket, comment, error).

Examples:
  cg3kit highlight grammar.cg3 --format json`,
	Args: cobra.ExactArgs(1),
	RunE: emitHighlights,
}

func init() {
	rootCmd.AddCommand(highlightCmd)

	highlightCmd.Flags().StringVar(&highlightFlags.format, "format", "json", "output format: text, json")
}

func emitHighlights(cmd *cobra.Command, args []string) error {
	doc, err := cg.Analyze(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	spans := highlight.Spans(doc)

	if highlightFlags.format == "text" {
		text := doc.Text()
		for _, s := range spans {
			fmt.Printf("%6d-%-6d %-10s %q\n", s.Start, s.End, s.Kind, text[s.Start:s.End])
		}
		return nil
	}
	return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, spans)
}
