// Package cg is the high-level entry point to the Constraint Grammar
// (CG3/VISL) source-analysis engine.
//
// The engine parses CG rule files into a concrete syntax tree, resolves
// symbol definitions (lists, sets, templates, anchors) to their declaration
// sites, and re-analyzes incrementally on edits. It indexes rule source; it
// never applies the rules to linguistic corpora.
//
// # Layout
//
// Subpackages, leaves first:
//
//   - token: lexical token kinds and the CG keyword tables
//   - lexer: the scanner; never fails, always terminates with EOF
//   - ast: the syntax tree, a tagged variant over a closed set of kinds
//   - parser: recursive descent with error recovery and diagnostics
//   - diag: diagnostic taxonomy, locations, suggestions
//   - index: the symbol index, a projection of the tree
//   - document: text buffer + tree + index, incremental reparse, resolve
//   - highlight, indent: read-only projections for editor integration
//   - validator: semantic checks over an analyzed document
//
// # Basic usage
//
//	doc, err := cg.Analyze(ctx, "grammar.cg3")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if def, ok := doc.Resolve(offset); ok {
//	    line, col := doc.Position(def.NameToken().Start)
//	    fmt.Printf("defined at %d:%d\n", line, col)
//	}
//
// Apply an edit without re-analyzing the whole file:
//
//	err = doc.Reparse(ctx, document.Edit{Offset: 10, RemovedLen: 3, Inserted: []byte("N")})
//
// # Error model
//
// Nothing in the engine is fatal: malformed or mid-edit input always
// produces a best-effort tree and a consistent index, with findings
// reported through diag.List. A failed resolution is a normal miss, not an
// error.
package cg
