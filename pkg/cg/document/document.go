// Package document ties a text buffer to its syntax tree and symbol index
// and keeps all three consistent across edits.
//
// A Document is the unit of ownership: it exclusively owns its tree and
// index, and it assumes a single writer: one edit stream per open file,
// matching an interactive editing session. Concurrent readers of a snapshot
// must hold their own Document or serialize externally; the engine imposes
// no internal locking.
package document

import (
	"bytes"
	"context"
	"sort"
	"unicode/utf8"

	"vislcg/cg3kit/pkg/cg/ast"
	"vislcg/cg3kit/pkg/cg/diag"
	"vislcg/cg3kit/pkg/cg/index"
	"vislcg/cg3kit/pkg/cg/parser"
)

// Document is an analyzed CG grammar buffer.
type Document struct {
	file string
	text []byte

	root *ast.Node
	ix   *index.Index

	// itemDiags holds the diagnostics attributed to each top-level item,
	// so an incremental reparse can drop exactly the findings of replaced
	// items.
	itemDiags map[*ast.Node][]*diag.Diagnostic

	// itemLook holds each top-level item's lookahead extent: the furthest
	// byte offset its parse examined. Items probe past their own end
	// (comment skipping, missing-';' checks), so an edit before this
	// offset invalidates the item even when it is past the item's span.
	itemLook map[*ast.Node]int

	generation uint64
	lineStarts []int
}

// New parses text into a fresh Document. Parsing is best effort: malformed
// input still yields a tree and an index, with findings available through
// Diagnostics. The context is checked between top-level items.
func New(ctx context.Context, file string, text []byte) (*Document, error) {
	d := &Document{file: file, text: text}
	if err := d.parseAll(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Document) parseAll(ctx context.Context) error {
	s := parser.NewStream(d.text, d.file, 0)
	root := &ast.Node{Kind: ast.Grammar, Start: 0, End: 0}
	d.itemDiags = make(map[*ast.Node][]*diag.Diagnostic)
	d.itemLook = make(map[*ast.Node]int)
	seen := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		item, ok := s.Next()
		if !ok {
			break
		}
		root.Append(item)
		d.itemDiags[item] = append([]*diag.Diagnostic(nil), s.Diagnostics().Items[seen:]...)
		d.itemLook[item] = max(item.End, s.Lookahead())
		seen = s.Diagnostics().Count()
	}
	if trailing := s.Trailing(); trailing != nil {
		root.Append(trailing)
	}
	if root.End < len(d.text) {
		root.End = len(d.text)
	}
	d.root = root
	d.ix = index.Build(root)
	d.computeLineStarts()
	return nil
}

// File returns the path the document was opened with.
func (d *Document) File() string { return d.file }

// Text returns the current text buffer. Callers must not modify it.
func (d *Document) Text() []byte { return d.text }

// Root returns the current syntax tree root.
func (d *Document) Root() *ast.Node { return d.root }

// Index returns the current symbol index, always consistent with Root.
func (d *Document) Index() *index.Index { return d.ix }

// Generation returns the edit generation, starting at 0 and incremented by
// every Reparse.
func (d *Document) Generation() uint64 { return d.generation }

// Diagnostics returns the current findings in document order.
func (d *Document) Diagnostics() *diag.List {
	l := diag.NewList()
	for _, item := range d.root.Children {
		l.Items = append(l.Items, d.itemDiags[item]...)
	}
	return l
}

func (d *Document) computeLineStarts() {
	n := bytes.Count(d.text, []byte("\n")) + 1
	starts := make([]int, 1, n)
	starts[0] = 0
	for i, c := range d.text {
		if c == '\n' {
			starts = append(starts, i+1)
		}
	}
	d.lineStarts = starts
}

// Position maps a byte offset to a 1-based (line, column) pair. Columns
// count runes, so multi-byte characters occupy a single column.
func (d *Document) Position(offset int) (line, col int) {
	if offset < 0 {
		offset = 0
	}
	if offset > len(d.text) {
		offset = len(d.text)
	}
	i := sort.Search(len(d.lineStarts), func(i int) bool {
		return d.lineStarts[i] > offset
	}) - 1
	start := d.lineStarts[i]
	return i + 1, utf8.RuneCount(d.text[start:offset]) + 1
}

// LineStart returns the byte offset of the 1-based line, and whether the
// line exists.
func (d *Document) LineStart(line int) (int, bool) {
	if line < 1 || line > len(d.lineStarts) {
		return 0, false
	}
	return d.lineStarts[line-1], true
}

// LineCount returns the number of lines in the document.
func (d *Document) LineCount() int { return len(d.lineStarts) }

// Location maps a byte offset to a diagnostic location in this document.
func (d *Document) Location(offset int) diag.Location {
	line, col := d.Position(offset)
	return diag.Location{File: d.file, Line: line, Column: col}
}
