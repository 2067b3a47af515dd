package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"vislcg/cg3kit/pkg/cg"
	"vislcg/cg3kit/pkg/cg/diag"
	"vislcg/cg3kit/pkg/cli"
)

var checkFlags struct {
	dir    string
	strict bool
	format string
}

var checkCmd = &cobra.Command{
	Use:   "check [files...]",
	Short: "Validate grammar files",
	Long: `Parse and validate CG grammar files.

The check command reports lexical, syntax and semantic findings:
  - Unrecognized characters and unterminated strings
  - Unbalanced brackets and malformed definitions
  - Undefined and shadowed symbol references, with suggestions

Examples:
  # Check single file
  cg3kit check grammar.cg3

  # Check all grammars in a directory
  cg3kit check --dir rules/

  # Strict mode (warnings as errors)
  cg3kit check grammar.cg3 --strict

  # JSON output for CI/CD
  cg3kit check grammar.cg3 --format json`,
	RunE: checkGrammars,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVarP(&checkFlags.dir, "dir", "d", "", "directory of grammar files")
	checkCmd.Flags().BoolVar(&checkFlags.strict, "strict", false, "treat warnings as errors")
	checkCmd.Flags().StringVar(&checkFlags.format, "format", "text", "output format: text, json")
}

// CheckResult is the validation result for a single grammar file.
type CheckResult struct {
	File     string    `json:"file"`
	Valid    bool      `json:"valid"`
	Findings []Finding `json:"findings,omitempty"`
}

// Finding is one diagnostic in CLI output form.
type Finding struct {
	Line       int    `json:"line,omitempty"`
	Column     int    `json:"column,omitempty"`
	Message    string `json:"message"`
	Severity   string `json:"severity"`
	Type       string `json:"type,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func checkGrammars(cmd *cobra.Command, args []string) error {
	files := append([]string(nil), args...)

	if checkFlags.dir != "" {
		for _, ext := range cfg.Watcher.Extensions {
			matches, err := filepath.Glob(filepath.Join(checkFlags.dir, "*"+ext))
			if err != nil {
				return fmt.Errorf("failed to list grammar files: %w", err)
			}
			files = append(files, matches...)
		}
	}

	if len(files) == 0 {
		return fmt.Errorf("no grammar files specified; pass files or --dir")
	}

	strict := checkFlags.strict || cfg.Engine.Strict

	results := make([]CheckResult, 0, len(files))
	for _, file := range files {
		result, err := checkGrammarFile(cmd.Context(), file, strict)
		if err != nil {
			return err
		}
		results = append(results, result)
	}

	if checkFlags.format == "json" {
		f := cli.NewFormatter(cli.FormatJSON)
		if err := f.FormatTo(os.Stdout, results); err != nil {
			return err
		}
		return checkExitStatus(results, strict)
	}

	printCheckText(results)
	return checkExitStatus(results, strict)
}

func checkGrammarFile(ctx context.Context, path string, strict bool) (CheckResult, error) {
	_, diags, err := cg.Check(ctx, path, strict)
	if err != nil {
		return CheckResult{}, err
	}

	result := CheckResult{File: path, Valid: !diags.HasErrors()}
	for _, d := range diags.Items {
		result.Findings = append(result.Findings, Finding{
			Line:       d.Location.Line,
			Column:     d.Location.Column,
			Message:    d.Message,
			Severity:   string(d.Severity),
			Type:       string(d.Type),
			Suggestion: d.Suggestion,
		})
	}
	return result, nil
}

func printCheckText(results []CheckResult) {
	totalErrors := 0
	totalWarnings := 0

	for _, result := range results {
		fmt.Printf("Checking %s...\n", result.File)

		if len(result.Findings) == 0 {
			fmt.Println("✓ No findings")
		}

		for _, f := range result.Findings {
			marker := "⚠  Warning"
			if f.Severity == string(diag.SeverityError) {
				marker = "✗ Error"
				totalErrors++
			} else {
				totalWarnings++
			}

			fmt.Printf("%s: %s", marker, f.Message)
			if f.Line > 0 {
				fmt.Printf(" (line %d", f.Line)
				if f.Column > 0 {
					fmt.Printf(", col %d", f.Column)
				}
				fmt.Print(")")
			}
			if f.Type != "" {
				fmt.Printf(" [%s]", f.Type)
			}
			fmt.Println()
			if f.Suggestion != "" {
				fmt.Printf("   suggestion: %s\n", f.Suggestion)
			}
		}

		fmt.Println()
	}

	fmt.Println("Summary:")
	fmt.Printf("  %d error(s), %d warning(s)\n", totalErrors, totalWarnings)
}

func checkExitStatus(results []CheckResult, strict bool) error {
	var failed []string
	for _, r := range results {
		if !r.Valid {
			failed = append(failed, r.File)
		}
	}
	if len(failed) > 0 {
		return cli.NewCommandError("check",
			fmt.Errorf("validation failed for %s", strings.Join(failed, ", ")))
	}
	return nil
}
