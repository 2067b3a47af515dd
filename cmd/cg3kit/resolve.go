package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"vislcg/cg3kit/pkg/cg"
	"vislcg/cg3kit/pkg/cli"
)

var resolveFlags struct {
	offset int
	line   int
	column int
	format string
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <file>",
	Short: "Resolve the symbol at a source position",
	Long: `Resolve the symbol reference at a position to its definition site.

The position is given either as a byte offset or as a 1-based line and
column pair.

Examples:
  cg3kit resolve grammar.cg3 --offset 1042
  cg3kit resolve grammar.cg3 --line 12 --column 8`,
	Args: cobra.ExactArgs(1),
	RunE: resolveSymbol,
}

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().IntVar(&resolveFlags.offset, "offset", -1, "byte offset in the file")
	resolveCmd.Flags().IntVar(&resolveFlags.line, "line", 0, "1-based line number")
	resolveCmd.Flags().IntVar(&resolveFlags.column, "column", 1, "1-based column number")
	resolveCmd.Flags().StringVar(&resolveFlags.format, "format", "text", "output format: text, json")
}

func resolveSymbol(cmd *cobra.Command, args []string) error {
	doc, err := cg.Analyze(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	offset := resolveFlags.offset
	if offset < 0 {
		if resolveFlags.line < 1 {
			return fmt.Errorf("pass --offset or --line")
		}
		start, ok := doc.LineStart(resolveFlags.line)
		if !ok {
			return fmt.Errorf("line %d is out of range", resolveFlags.line)
		}
		offset = start + resolveFlags.column - 1
	}

	def, ok := doc.Resolve(offset)
	if !ok {
		return cli.NewCommandError("resolve",
			fmt.Errorf("no symbol reference at offset %d", offset))
	}

	info := SymbolInfo{
		Name:  def.Name,
		Kind:  string(def.Kind),
		Start: def.Start(),
		End:   def.End(),
	}
	if tok := def.NameToken(); tok != nil {
		info.Line, info.Column = tok.Line, tok.Column
	}

	if resolveFlags.format == "json" {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, info)
	}

	fmt.Printf("%s %s defined at %s:%d:%d\n",
		info.Kind, info.Name, doc.File(), info.Line, info.Column)
	return nil
}
