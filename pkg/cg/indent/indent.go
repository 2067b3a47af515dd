// Package indent computes indentation hints for lines of a CG grammar,
// derived from the enclosing node kind and nesting depth: each enclosing
// WITH block indents one step, lines continuing a definition or rule indent
// one step, lines inside a contextual test indent two steps, and the
// closing brace of a WITH block steps back out to the block's own level.
package indent

import (
	"vislcg/cg3kit/pkg/cg/ast"
	"vislcg/cg3kit/pkg/cg/document"
	"vislcg/cg3kit/pkg/cg/token"
)

// DefaultWidth is the column width of one indent step.
const DefaultWidth = 4

// Hint returns the suggested indent column (0-based, in spaces) for the
// 1-based line. width is the size of one step; pass 0 for DefaultWidth.
// Lines outside any item, and first lines of items, indent to column 0.
func Hint(doc *document.Document, line, width int) int {
	if width <= 0 {
		width = DefaultWidth
	}
	start, ok := doc.LineStart(line)
	if !ok {
		return 0
	}
	offset, first := firstContent(doc.Text(), start)

	path := ast.PathTo(doc.Root(), offset)
	if len(path) == 0 {
		return 0
	}

	withDepth := 0
	inContext := false
	var owner *ast.Node // innermost definition or rule holding the offset
	for _, n := range path {
		switch n.Kind {
		case ast.ContextTest:
			inContext = true
		case ast.Rule:
			if isWithBlock(n) && offset > openBrace(n) {
				withDepth++
			} else {
				owner = n
			}
		case ast.List, ast.Set, ast.Template:
			owner = n
		}
	}

	// The closing brace of a WITH block sits one step left of its body.
	if first == '}' && withDepth > 0 {
		return (withDepth - 1) * width
	}

	steps := withDepth
	switch {
	case inContext:
		steps += 2
	case owner != nil && continuesItem(doc, owner, line):
		steps++
	}
	return steps * width
}

// firstContent returns the offset and byte of the first non-blank character
// on the line starting at start, or the line start itself for blank lines.
func firstContent(text []byte, start int) (int, byte) {
	i := start
	for i < len(text) && (text[i] == ' ' || text[i] == '\t') {
		i++
	}
	if i >= len(text) || text[i] == '\n' {
		return start, 0
	}
	return i, text[i]
}

// continuesItem reports whether the line is a continuation of the item,
// i.e. not the line the item itself starts on.
func continuesItem(doc *document.Document, item *ast.Node, line int) bool {
	startLine, _ := doc.Position(item.Start + leadingTrivia(item))
	return line > startLine
}

// leadingTrivia returns the width of the whitespace the item's first leaf
// absorbed, so positions refer to the first real token.
func leadingTrivia(item *ast.Node) int {
	n := item
	for !n.IsLeaf() {
		n = n.Children[0]
	}
	if n.Tok == nil {
		return 0
	}
	return n.Tok.Start - item.Start
}

// isWithBlock reports whether the rule is a WITH block.
func isWithBlock(n *ast.Node) bool {
	if n.Kind != ast.Rule || len(n.Children) == 0 {
		return false
	}
	first := n.Children[0]
	return first.Tok != nil && first.Tok.Is("with")
}

// openBrace returns the end offset of the block's '{', or the node end if
// the brace is missing.
func openBrace(n *ast.Node) int {
	for _, c := range n.Children {
		if c.Tok != nil && c.Tok.Kind == token.Bracket && c.Tok.Text == "{" {
			return c.Tok.End
		}
	}
	return n.End
}
