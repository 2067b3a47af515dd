// Cg3kit is a toolkit for analyzing Constraint Grammar (CG3/VISL) source
// files.
//
// It parses grammar files into a syntax tree with error recovery, indexes
// symbol definitions, and serves editor-oriented queries:
//   - Syntax and semantic validation with rich diagnostics
//   - Symbol listing and definition lookup
//   - Syntax highlighting spans and indentation hints
//   - A watch mode that re-analyzes grammars as they change on disk
//
// Usage:
//
//	# Validate grammar files
//	cg3kit check grammar.cg3
//
//	# List symbol definitions
//	cg3kit symbols grammar.cg3
//
//	# Resolve the symbol at a source position
//	cg3kit resolve grammar.cg3 --line 12 --column 8
//
//	# Build a cross-file symbol database
//	cg3kit index rules/ --db symbols.db
//
//	# Watch a directory and keep analyses fresh
//	cg3kit watch rules/
//
//	# Show version information
//	cg3kit version
package main

func main() {
	Execute()
}
