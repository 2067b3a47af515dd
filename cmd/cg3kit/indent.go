package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vislcg/cg3kit/pkg/cg"
	"vislcg/cg3kit/pkg/cg/indent"
)

var indentFlags struct {
	line int
}

var indentCmd = &cobra.Command{
	Use:   "indent <file>",
	Short: "Compute indentation hints",
	Long: `Compute the suggested indentation column for a line, or for every
line when --line is not given.

Examples:
  cg3kit indent grammar.cg3 --line 42`,
	Args: cobra.ExactArgs(1),
	RunE: indentHints,
}

func init() {
	rootCmd.AddCommand(indentCmd)

	indentCmd.Flags().IntVar(&indentFlags.line, "line", 0, "1-based line number; 0 means all lines")
}

func indentHints(cmd *cobra.Command, args []string) error {
	doc, err := cg.Analyze(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	width := cfg.Engine.IndentWidth

	if indentFlags.line > 0 {
		if indentFlags.line > doc.LineCount() {
			return fmt.Errorf("line %d is out of range", indentFlags.line)
		}
		fmt.Println(indent.Hint(doc, indentFlags.line, width))
		return nil
	}

	for line := 1; line <= doc.LineCount(); line++ {
		fmt.Printf("%4d: %d\n", line, indent.Hint(doc, line, width))
	}
	return nil
}
