// Package highlight projects an analyzed document onto (span, kind) pairs
// suitable for driving syntax coloring. The projection is read-only: it
// reports the token stream and node kinds, it does not define a format of
// its own.
package highlight

import (
	"vislcg/cg3kit/pkg/cg/ast"
	"vislcg/cg3kit/pkg/cg/document"
	"vislcg/cg3kit/pkg/cg/token"
)

// Span is one highlighted region. Start and End are byte offsets into the
// document text; whitespace between tokens is never part of a span.
type Span struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Kind  string `json:"kind"`
}

// Spans returns the highlight spans of the document in source order.
func Spans(doc *document.Document) []Span {
	var out []Span
	text := doc.Text()
	for _, leaf := range ast.Leaves(doc.Root(), nil) {
		if s, ok := leafSpan(leaf, text); ok {
			out = append(out, s)
		}
	}
	return out
}

// leafSpan classifies a single leaf. Leaves without a token cover trivia
// regions (trailing text, the remainder after END, malformed regions) and
// highlight as comments or errors, trimmed to their non-blank content.
func leafSpan(leaf *ast.Node, text []byte) (Span, bool) {
	if leaf.Tok == nil {
		start, end := trimSpan(text, leaf.Start, leaf.End)
		if start >= end {
			return Span{}, false
		}
		kind := ast.Comment.String()
		if leaf.Kind == ast.Error {
			kind = ast.Error.String()
		}
		return Span{Start: start, End: end, Kind: kind}, true
	}
	t := leaf.Tok
	if t.Start >= t.End {
		return Span{}, false
	}
	kind := t.Kind.String()
	switch leaf.Kind {
	case ast.RuleType:
		kind = ast.RuleType.String()
	case ast.Error:
		kind = ast.Error.String()
	default:
		if t.Kind == token.Keyword && token.IsRuleType(t.Text) {
			kind = ast.RuleType.String()
		}
	}
	return Span{Start: t.Start, End: t.End, Kind: kind}, true
}

// trimSpan narrows [start,end) to exclude leading and trailing whitespace.
func trimSpan(text []byte, start, end int) (int, int) {
	for start < end && isSpace(text[start]) {
		start++
	}
	for end > start && isSpace(text[end-1]) {
		end--
	}
	return start, end
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
