package ast

import (
	"fmt"

	"vislcg/cg3kit/pkg/cg/token"
)

// Kind tags a syntax tree node. The set of kinds is closed: operations over
// the tree (highlighting, indentation, name extraction) switch over the tag
// rather than using virtual dispatch.
type Kind uint8

const (
	// Grammar is the root node of a parsed document. Its children are the
	// top-level items in document order.
	Grammar Kind = iota

	// Rule is a rule definition (SELECT, REMOVE, MAP, ...), including
	// WITH-wrapped rule blocks.
	Rule

	// RuleType is the leaf holding a rule's operation keyword.
	RuleType

	// List is a LIST or DELIMITERS definition.
	List

	// Set is a SET definition.
	Set

	// Template is a TEMPLATE definition.
	Template

	// InlineSet is a parenthesized set expression or tag group appearing
	// inside a rule or set expression.
	InlineSet

	// TagList is a flat sequence of tags (the right-hand side of a LIST).
	TagList

	// ContextTest is a parenthesized contextual test, including LINKed
	// continuations.
	ContextTest

	// Anchor is an ANCHOR declaration or a standalone section marker.
	Anchor

	// Comment is a comment leaf. The text ignored after END is also kept
	// as a single Comment leaf so the tree always reproduces its source.
	Comment

	// Error is a leaf covering source the parser could not attribute to
	// any production. Error nodes never have children.
	Error

	// Token is a plain leaf wrapping a single lexical token that has no
	// more specific node kind.
	Token
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Grammar:
		return "grammar"
	case Rule:
		return "rule"
	case RuleType:
		return "rule_type"
	case List:
		return "list"
	case Set:
		return "set"
	case Template:
		return "template"
	case InlineSet:
		return "inline_set"
	case TagList:
		return "tag_list"
	case ContextTest:
		return "context_test"
	case Anchor:
		return "anchor"
	case Comment:
		return "comment"
	case Error:
		return "error"
	case Token:
		return "token"
	default:
		return "unknown"
	}
}

// Node is a concrete syntax tree node. A parent exclusively owns its
// children; children store no back-pointers. Where an enclosing node is
// needed, walk down from the root by span containment (see NodeAt and
// PathTo).
//
// Leaf nodes carry their originating token in Tok. A leaf's span is widened
// to include the whitespace separating it from the previous leaf, so
// concatenating all leaf spans in document order reproduces the source text
// exactly; Tok keeps the token's exact span.
type Node struct {
	Kind Kind

	// Start and End delimit the node's bytes in the source, half-open.
	// A node's span is the union of its children's spans.
	Start int
	End   int

	// Name is the declared name for List, Set, Template, Anchor, and named
	// Rule nodes, as written in the source (not case-folded).
	Name string

	// Tok is the originating token for leaf nodes, nil for interior nodes.
	Tok *token.Token

	// Children are the ordered child nodes. Leaves have none.
	Children []*Node
}

// IsLeaf reports whether the node is a leaf.
func (n *Node) IsLeaf() bool { return len(n.Children) == 0 }

// Len returns the node's span length in bytes.
func (n *Node) Len() int { return n.End - n.Start }

// Contains reports whether the byte offset lies inside the node's span.
func (n *Node) Contains(offset int) bool {
	return offset >= n.Start && offset < n.End
}

// String returns a short debug description of the node.
func (n *Node) String() string {
	if n.Name != "" {
		return fmt.Sprintf("%s(%s)[%d:%d]", n.Kind, n.Name, n.Start, n.End)
	}
	return fmt.Sprintf("%s[%d:%d]", n.Kind, n.Start, n.End)
}

// NewLeaf wraps a token in a leaf node of the given kind. The leaf's span
// starts at trivStart, which callers set to the end of the previous leaf so
// inter-token whitespace is owned by exactly one leaf.
func NewLeaf(kind Kind, tok token.Token, trivStart int) *Node {
	t := tok
	return &Node{Kind: kind, Start: trivStart, End: tok.End, Tok: &t}
}

// Append adds child to the node and grows the node's span to cover it.
func (n *Node) Append(child *Node) {
	if child == nil {
		return
	}
	if len(n.Children) == 0 {
		n.Start = child.Start
	}
	if child.End > n.End {
		n.End = child.End
	}
	n.Children = append(n.Children, child)
}

// Shift moves the node's span (and all descendant spans) by delta bytes and
// token line numbers by deltaLines. Used when splicing reused subtrees after
// an incremental edit. Token columns are not adjusted; authoritative
// positions after an edit come from the document's line map.
func (n *Node) Shift(delta, deltaLines int) {
	if delta == 0 && deltaLines == 0 {
		return
	}
	n.Start += delta
	n.End += delta
	if n.Tok != nil {
		t := *n.Tok
		t.Start += delta
		t.End += delta
		t.Line += deltaLines
		n.Tok = &t
	}
	for _, c := range n.Children {
		c.Shift(delta, deltaLines)
	}
}
