// Package parser builds concrete syntax trees from CG3/VISL grammar source.
//
// The parser is recursive descent with error recovery: an unexpected token
// becomes an Error leaf spanning up to the next synchronization point (a
// semicolon, the next top-level keyword, or a matching close bracket), so a
// malformed item never corrupts the items that follow it. Parsing never
// discards input; concatenating the spans of all leaves in document order
// reproduces the source text exactly.
package parser

import (
	"context"

	"vislcg/cg3kit/pkg/cg/ast"
	"vislcg/cg3kit/pkg/cg/diag"
	"vislcg/cg3kit/pkg/cg/lexer"
	"vislcg/cg3kit/pkg/cg/token"
)

// Parse parses src into a Grammar root node and a list of diagnostics.
// Diagnostics never abort tree construction; the tree is always a complete,
// best-effort cover of the input. The context is checked between top-level
// items so parsing very large documents can be cancelled; on cancellation
// the partial tree built so far is returned along with ctx.Err().
func Parse(ctx context.Context, src []byte, file string) (*ast.Node, *diag.List, error) {
	s := NewStream(src, file, 0)
	root := &ast.Node{Kind: ast.Grammar, Start: 0, End: 0}
	for {
		if err := ctx.Err(); err != nil {
			return root, s.Diagnostics(), err
		}
		item, ok := s.Next()
		if !ok {
			break
		}
		root.Append(item)
	}
	if trailing := s.Trailing(); trailing != nil {
		root.Append(trailing)
	}
	if root.End < len(src) {
		root.End = len(src)
	}
	return root, s.Diagnostics(), nil
}

// Stream parses top-level items one at a time. The incremental reparser
// drives a Stream directly so it can stop as soon as parsing realigns with
// the previous tree.
type Stream struct {
	p *parser
}

// NewStream returns a stream positioned at the given byte offset of src.
// The offset must be a top-level item boundary (0, or the End of a
// previously parsed item): the lexer restarts there in its default state.
func NewStream(src []byte, file string, offset int) *Stream {
	p := &parser{
		src:     src,
		file:    file,
		prevEnd: offset,
		diags:   diag.NewList(),
	}
	p.toks = scanFrom(src, offset)
	return &Stream{p: p}
}

// Next parses and returns the next top-level item. ok is false once only
// trailing trivia (or nothing) remains.
func (s *Stream) Next() (*ast.Node, bool) {
	s.p.look = s.p.prevEnd
	return s.p.parseItem()
}

// Lookahead returns the furthest byte offset examined while parsing the
// item last returned by Next. The parse of an item can probe past its own
// end: comment skipping and the checks for a missing name, '=' or ';' all
// read the next meaningful token, so the item's shape depends on text
// beyond its span. Reusing a previously parsed item is only sound while
// the text up to this offset is unchanged.
func (s *Stream) Lookahead() int { return s.p.look }

// Offset returns the current item boundary: the End of the last item
// returned by Next (or the stream's starting offset before the first call).
func (s *Stream) Offset() int { return s.p.prevEnd }

// Trailing returns a Comment leaf covering any source after the last item
// (trailing whitespace, or everything if the document holds no items), or
// nil when the items already cover the input.
func (s *Stream) Trailing() *ast.Node {
	if s.p.prevEnd >= len(s.p.src) {
		return nil
	}
	n := &ast.Node{Kind: ast.Comment, Start: s.p.prevEnd, End: len(s.p.src)}
	s.p.prevEnd = len(s.p.src)
	return n
}

// Diagnostics returns the diagnostics accumulated so far.
func (s *Stream) Diagnostics() *diag.List { return s.p.diags }

// scanFrom tokenizes src starting at offset.
func scanFrom(src []byte, offset int) []token.Token {
	l := lexer.At(src, offset)
	var toks []token.Token
	for {
		t := l.Next()
		toks = append(toks, t)
		if t.IsEOF() {
			return toks
		}
	}
}

type parser struct {
	src  []byte
	file string
	toks []token.Token
	i    int

	// prevEnd is the trivia watermark: every new leaf starts here so the
	// whitespace between tokens is owned by exactly one leaf.
	prevEnd int

	// look is the furthest token end examined for the current item,
	// including peeks past the item's own end. See Stream.Lookahead.
	look int

	diags *diag.List
}

// note records that a token was examined and returns it. EOF tokens count
// as examining the end of input.
func (p *parser) note(t token.Token) token.Token {
	if t.End > p.look {
		p.look = t.End
	}
	return t
}

// cur returns the current token, which may be a comment.
func (p *parser) cur() token.Token { return p.note(p.toks[p.i]) }

// peek returns the first non-comment token at or after the cursor.
func (p *parser) peek() token.Token {
	for j := p.i; ; j++ {
		if p.toks[j].Kind != token.Comment {
			return p.note(p.toks[j])
		}
	}
}

// peekAfter returns the first non-comment token after the one peek returns.
func (p *parser) peekAfter() token.Token {
	seen := false
	for j := p.i; ; j++ {
		if p.toks[j].Kind == token.Comment {
			continue
		}
		if seen {
			return p.note(p.toks[j])
		}
		if p.toks[j].IsEOF() {
			return p.note(p.toks[j])
		}
		seen = true
	}
}

// bump appends the current non-comment token to n as a leaf of the given
// kind, attaching any comments that precede it as Comment leaves.
func (p *parser) bump(n *ast.Node, kind ast.Kind) token.Token {
	p.comments(n)
	t := p.cur()
	if t.IsEOF() {
		return t
	}
	n.Append(p.leaf(kind, t))
	p.i++
	return t
}

// comments appends any comment tokens at the cursor to n.
func (p *parser) comments(n *ast.Node) {
	for p.cur().Kind == token.Comment {
		n.Append(p.leaf(ast.Comment, p.cur()))
		p.i++
	}
}

func (p *parser) leaf(kind ast.Kind, t token.Token) *ast.Node {
	l := ast.NewLeaf(kind, t, p.prevEnd)
	p.prevEnd = t.End
	return l
}

func (p *parser) locOf(t token.Token) diag.Location {
	return diag.Location{File: p.file, Line: t.Line, Column: t.Column}
}

// parseItem parses one top-level item. Standalone comments between items
// are returned as their own Comment items so an edit near them stays cheap.
func (p *parser) parseItem() (*ast.Node, bool) {
	if p.cur().Kind == token.Comment {
		t := p.cur()
		p.i++
		return p.leaf(ast.Comment, t), true
	}
	t := p.cur()
	if t.IsEOF() {
		return nil, false
	}

	switch {
	case t.Is("list") || t.Is("delimiters") || t.Is("soft-delimiters") ||
		t.Is("options") || t.Is("strict-tags") || t.Is("subreadings") ||
		t.Is("mapping-prefix") || t.Is("undef-sets"):
		return p.parseList(), true

	case t.Is("set"):
		return p.parseSet(), true

	case t.Is("template"):
		return p.parseTemplate(), true

	case t.Is("anchor"):
		return p.parseAnchor(), true

	case t.Kind == token.Keyword && token.IsSectionMarker(t.Text):
		return p.parseSection(), true

	case t.Is("end"):
		return p.parseEnd(), true

	case t.Is("with"):
		return p.parseWith(), true

	case t.Kind == token.Keyword && token.IsRuleType(t.Text):
		return p.parseRule(), true

	case t.Kind == token.String && token.IsRuleType(p.peekAfter().Text):
		// Wordform-targeted rule: "<word>" SELECT ... ;
		return p.parseRule(), true

	default:
		return p.parseErrorItem(), true
	}
}

// parseErrorItem consumes source the parser cannot attribute to any
// production, up to the next synchronization point, and returns a single
// Error leaf covering it. Consecutive stray semicolons are absorbed into
// the same leaf so one malformed region yields one Error-bearing subtree.
func (p *parser) parseErrorItem() *ast.Node {
	first := p.cur()
	start := p.prevEnd
	end := start
	p.diags.Addf(diag.TypeSyntax, p.locOf(first), "unexpected %s %q", first.Kind, first.Text)
	if first.Kind == token.Error {
		p.diags.Items[len(p.diags.Items)-1].Type = diag.TypeLexical
	}

	for {
		t := p.cur()
		if t.IsEOF() {
			break
		}
		if t.Kind != token.Comment && t.Kind != token.Error && p.i > 0 && end > start && p.atItemStart(t) {
			break
		}
		p.i++
		end = t.End
		p.prevEnd = t.End
		if t.Kind == token.Operator && t.Text == ";" {
			// Absorb any immediately following semicolons, then stop.
			for p.cur().Kind == token.Operator && p.cur().Text == ";" {
				end = p.cur().End
				p.prevEnd = end
				p.i++
			}
			break
		}
	}
	if end == start {
		// Defensive: always make progress.
		end = first.End
		p.prevEnd = end
		p.i++
	}
	return &ast.Node{Kind: ast.Error, Start: start, End: end}
}

// atItemStart reports whether the token could begin a new top-level item.
func (p *parser) atItemStart(t token.Token) bool {
	if t.Kind != token.Keyword {
		return false
	}
	switch {
	case t.Is("list"), t.Is("set"), t.Is("template"), t.Is("anchor"),
		t.Is("delimiters"), t.Is("soft-delimiters"), t.Is("with"), t.Is("end"):
		return true
	}
	return token.IsRuleType(t.Text) || token.IsSectionMarker(t.Text)
}

// parseList parses LIST name = tag... ; and the list-shaped directives
// (DELIMITERS, OPTIONS, ...) that share its surface.
func (p *parser) parseList() *ast.Node {
	n := &ast.Node{Kind: ast.List}
	kw := p.bump(n, ast.Token)

	if p.peek().Kind == token.Identifier || p.peek().Kind == token.Tag {
		name := p.bump(n, ast.Token)
		n.Name = name.Text
	} else {
		// DELIMITERS and friends have no separate name.
		n.Name = kw.Text
	}

	if p.peek().Kind == token.Operator && (p.peek().Text == "=" || p.peek().Text == "+") {
		// OPTIONS += ... ; arrives as '+' '=' tokens.
		p.bump(n, ast.Token)
		if p.peek().Kind == token.Operator && p.peek().Text == "=" {
			p.bump(n, ast.Token)
		}
	} else {
		p.diags.Addf(diag.TypeSyntax, p.locOf(p.peek()), "expected '=' after %q", n.Name)
	}

	members := &ast.Node{Kind: ast.TagList, Start: p.prevEnd, End: p.prevEnd}
	p.parseTags(members)
	if len(members.Children) > 0 {
		n.Append(members)
	} else {
		p.diags.Warnf(diag.TypeSyntax, p.locOf(kw), "%q has no members", n.Name)
	}

	p.expectSemicolon(n, kw)
	return n
}

// parseTags fills a TagList with tag leaves and composite-tag groups until
// a semicolon, a new item, or end of input.
func (p *parser) parseTags(n *ast.Node) {
	for {
		t := p.peek()
		switch {
		case t.IsEOF():
			return
		case t.Kind == token.Operator && t.Text == ";":
			return
		case t.Kind == token.Bracket && t.Text == "(":
			group := p.parseGroup(ast.InlineSet)
			n.Append(group)
		case t.Kind == token.Identifier || t.Kind == token.Tag ||
			t.Kind == token.String || t.Kind == token.Number:
			p.bump(n, ast.Token)
		case t.Kind == token.Error:
			p.diags.Addf(diag.TypeLexical, p.locOf(t), "unrecognized text %q", t.Text)
			p.bump(n, ast.Error)
		case t.Kind == token.Operator && t.Text == ",":
			p.bump(n, ast.Token)
		default:
			// Keyword or operator that belongs to the next item.
			return
		}
	}
}

// parseSet parses SET name = setexpr ;.
func (p *parser) parseSet() *ast.Node {
	n := &ast.Node{Kind: ast.Set}
	kw := p.bump(n, ast.Token)

	if p.peek().Kind == token.Identifier || p.peek().Kind == token.Tag {
		name := p.bump(n, ast.Token)
		n.Name = name.Text
	} else {
		p.diags.Addf(diag.TypeSyntax, p.locOf(p.peek()), "expected set name after SET")
	}

	if p.peek().Kind == token.Operator && p.peek().Text == "=" {
		p.bump(n, ast.Token)
	} else {
		p.diags.Addf(diag.TypeSyntax, p.locOf(p.peek()), "expected '=' in SET definition")
	}

	p.parseSetExpr(n)
	p.expectSemicolon(n, kw)
	return n
}

// parseSetExpr parses operand (op operand)* directly into n. Set operators
// associate left to right; mixing distinct operators at one level without
// parentheses is reported, not silently reassociated.
func (p *parser) parseSetExpr(n *ast.Node) {
	ops := map[string]bool{}
	var firstOpTok token.Token
	wantOperand := true
	for {
		t := p.peek()
		switch {
		case t.IsEOF():
			return
		case t.Kind == token.Operator && t.Text == ";":
			return
		case t.Kind == token.Bracket && t.Text == "(":
			n.Append(p.parseGroup(ast.InlineSet))
			wantOperand = false
		case t.Kind == token.Identifier || t.Kind == token.Tag ||
			t.Kind == token.String || t.Kind == token.Number:
			p.bump(n, ast.Token)
			wantOperand = false
		case isSetOp(t):
			op := normalizeSetOp(t.Text)
			if len(ops) == 0 {
				firstOpTok = t
			}
			ops[op] = true
			if len(ops) == 2 {
				p.diags.Addf(diag.TypeSyntax, p.locOf(t),
					"mixed set operators %q and %q without parentheses; CG set operators do not associate across operators, parenthesize explicitly",
					firstOpTok.Text, t.Text)
			}
			p.bump(n, ast.Token)
			wantOperand = true
		case t.Kind == token.Error:
			p.diags.Addf(diag.TypeLexical, p.locOf(t), "unrecognized text %q", t.Text)
			p.bump(n, ast.Error)
		default:
			if wantOperand && len(n.Children) > 0 {
				p.diags.Addf(diag.TypeSyntax, p.locOf(t), "expected set operand, found %q", t.Text)
			}
			return
		}
	}
}

func isSetOp(t token.Token) bool {
	if t.Kind == token.Keyword && t.Is("or") {
		return true
	}
	if t.Kind != token.Operator {
		return false
	}
	switch t.Text {
	case "|", "+", "-", "^", `\`:
		return true
	}
	return false
}

func normalizeSetOp(text string) string {
	if text == "|" || token.Fold(text) == "or" {
		return "|"
	}
	return text
}

// parseGroup parses a balanced ( ... ) group as a node of the given kind.
// If the closing bracket is missing, the whole group collapses into a
// single Error leaf extending to end of document, so later content is
// never mis-attributed to the open group.
func (p *parser) parseGroup(kind ast.Kind) *ast.Node {
	n := &ast.Node{Kind: kind}
	groupStart := p.prevEnd
	open := p.peek()
	p.bump(n, ast.Token) // '('

	for {
		t := p.peek()
		switch {
		case t.IsEOF():
			p.diags.Addf(diag.TypeSyntax, p.locOf(open), "unmatched %q", open.Text)
			p.prevEnd = len(p.src)
			p.i = len(p.toks) - 1 // park on EOF
			return &ast.Node{Kind: ast.Error, Start: groupStart, End: len(p.src)}
		case t.Kind == token.Bracket && t.Text == ")":
			p.bump(n, ast.Token)
			return n
		case t.Kind == token.Bracket && t.Text == "(":
			child := p.parseGroup(kind)
			n.Append(child)
			if child.Kind == ast.Error && child.End >= len(p.src) {
				// Nested group already swallowed the rest of the document.
				return &ast.Node{Kind: ast.Error, Start: groupStart, End: len(p.src)}
			}
		case t.Kind == token.Error:
			p.diags.Addf(diag.TypeLexical, p.locOf(t), "unrecognized text %q", t.Text)
			p.bump(n, ast.Error)
		case t.Kind == token.Operator && t.Text == ";":
			// A semicolon inside a group is almost always a missing ')'.
			p.diags.Addf(diag.TypeSyntax, p.locOf(open), "unmatched %q before ';'", open.Text)
			return n
		default:
			p.bump(n, ast.Token)
		}
	}
}

// parseTemplate parses TEMPLATE name = contexttest (OR contexttest)* ;.
func (p *parser) parseTemplate() *ast.Node {
	n := &ast.Node{Kind: ast.Template}
	kw := p.bump(n, ast.Token)

	if p.peek().Kind == token.Identifier {
		name := p.bump(n, ast.Token)
		n.Name = name.Text
	} else {
		p.diags.Addf(diag.TypeSyntax, p.locOf(p.peek()), "expected template name after TEMPLATE")
	}

	if p.peek().Kind == token.Operator && p.peek().Text == "=" {
		p.bump(n, ast.Token)
	} else {
		p.diags.Addf(diag.TypeSyntax, p.locOf(p.peek()), "expected '=' in TEMPLATE definition")
	}

	for {
		t := p.peek()
		switch {
		case t.IsEOF():
			p.expectSemicolon(n, kw)
			return n
		case t.Kind == token.Operator && t.Text == ";":
			p.expectSemicolon(n, kw)
			return n
		case t.Kind == token.Bracket && t.Text == "(":
			n.Append(p.parseGroup(ast.ContextTest))
		case isSetOp(t):
			p.bump(n, ast.Token)
		case t.Kind == token.Identifier:
			// Reference to another template.
			p.bump(n, ast.Token)
		case t.Kind == token.Error:
			p.diags.Addf(diag.TypeLexical, p.locOf(t), "unrecognized text %q", t.Text)
			p.bump(n, ast.Error)
		default:
			p.expectSemicolon(n, kw)
			return n
		}
	}
}

// parseAnchor parses ANCHOR name ; (the name may be quoted).
func (p *parser) parseAnchor() *ast.Node {
	n := &ast.Node{Kind: ast.Anchor}
	kw := p.bump(n, ast.Token)
	pt := p.peek()
	if pt.Kind == token.Identifier || pt.Kind == token.String {
		name := p.bump(n, ast.Token)
		n.Name = trimQuotes(name.Text)
	} else {
		p.diags.Addf(diag.TypeSyntax, p.locOf(pt), "expected anchor name after ANCHOR")
	}
	p.expectSemicolon(n, kw)
	return n
}

// parseSection parses a standalone section marker (SECTION, MAPPINGS, ...).
// Sections are jump targets like anchors, so they share the Anchor kind.
func (p *parser) parseSection() *ast.Node {
	n := &ast.Node{Kind: ast.Anchor}
	kw := p.bump(n, ast.Token)
	n.Name = kw.Text
	// A section label must sit on the marker's own line; a string on the
	// next line is the wordform of the first rule in the section.
	pt := p.peek()
	if (pt.Kind == token.Identifier || pt.Kind == token.String) && pt.Line == kw.Line {
		name := p.bump(n, ast.Token)
		n.Name = trimQuotes(name.Text)
	}
	if p.peek().Kind == token.Operator && p.peek().Text == ";" {
		p.bump(n, ast.Token)
	}
	return n
}

// parseEnd parses the END keyword. Everything after END is outside the
// grammar; it is preserved as a single Comment leaf so the tree still
// reproduces the source.
func (p *parser) parseEnd() *ast.Node {
	n := &ast.Node{Kind: ast.Anchor}
	kw := p.bump(n, ast.Token)
	n.Name = kw.Text
	if p.prevEnd < len(p.src) {
		n.Append(&ast.Node{Kind: ast.Comment, Start: p.prevEnd, End: len(p.src)})
		p.prevEnd = len(p.src)
		p.i = len(p.toks) - 1 // park on EOF
	}
	return n
}

// ruleClauseKeywords are the clause keywords after which a parenthesized
// group is a contextual test rather than a target.
func isContextClause(word string) bool {
	switch token.Fold(word) {
	case "if", "before", "after", "to", "from", "except", "withchild", "nochild", "barrier", "cbarrier", "link", "not", "negate":
		return true
	}
	return false
}

// parseRule parses a rule definition: an optional wordform, the rule-type
// keyword, an optional :name, then targets and contextual tests up to the
// terminating semicolon.
func (p *parser) parseRule() *ast.Node {
	n := &ast.Node{Kind: ast.Rule}

	if p.peek().Kind == token.String {
		p.bump(n, ast.Token) // wordform target
	}

	kw := p.bump(n, ast.RuleType)

	// Optional rule name: SELECT:name.
	if p.peek().Kind == token.Operator && p.peek().Text == ":" {
		p.bump(n, ast.Token)
		if p.peek().Kind == token.Identifier || p.peek().Kind == token.Number {
			name := p.bump(n, ast.Token)
			n.Name = name.Text
		}
	}

	groups := 0
	contextual := false
	for {
		t := p.peek()
		switch {
		case t.IsEOF():
			p.diags.Addf(diag.TypeSyntax, p.locOf(kw), "rule is missing its terminating ';'")
			p.comments(n)
			return n
		case t.Kind == token.Operator && t.Text == ";":
			p.bump(n, ast.Token)
			return n
		case t.Kind == token.Keyword && p.atItemStart(t) && !t.Is("with"):
			p.diags.Addf(diag.TypeSyntax, p.locOf(t), "expected ';' before %q", t.Text)
			return n
		case t.Kind == token.Bracket && t.Text == "}":
			// Leave the brace for the enclosing WITH block.
			p.diags.Addf(diag.TypeSyntax, p.locOf(t), "expected ';' before '}'")
			return n
		case t.Kind == token.Keyword:
			if isContextClause(t.Text) {
				contextual = true
			}
			p.bump(n, ast.Token)
		case t.Kind == token.Bracket && t.Text == "(":
			kind := ast.InlineSet
			if contextual || groups > 0 {
				kind = ast.ContextTest
			}
			n.Append(p.parseGroup(kind))
			groups++
		case t.Kind == token.Error:
			p.diags.Addf(diag.TypeLexical, p.locOf(t), "unrecognized text %q", t.Text)
			p.bump(n, ast.Error)
		default:
			p.bump(n, ast.Token)
		}
	}
}

// parseWith parses WITH (target) [IF (...)...] { rules } [;]. The wrapped
// rules are children of the same Rule node.
func (p *parser) parseWith() *ast.Node {
	n := &ast.Node{Kind: ast.Rule}
	kw := p.bump(n, ast.RuleType) // WITH

	for {
		t := p.peek()
		if t.Kind == token.Bracket && t.Text == "(" {
			n.Append(p.parseGroup(ast.ContextTest))
			continue
		}
		if t.Kind == token.Keyword && isContextClause(t.Text) {
			p.bump(n, ast.Token)
			continue
		}
		break
	}

	if p.peek().Kind == token.Bracket && p.peek().Text == "{" {
		p.bump(n, ast.Token)
	} else {
		p.diags.Addf(diag.TypeSyntax, p.locOf(kw), "expected '{' after WITH clause")
	}

	for {
		t := p.peek()
		switch {
		case t.IsEOF():
			p.diags.Addf(diag.TypeSyntax, p.locOf(kw), "unterminated WITH block")
			p.comments(n)
			return n
		case t.Kind == token.Bracket && t.Text == "}":
			p.bump(n, ast.Token)
			if p.peek().Kind == token.Operator && p.peek().Text == ";" {
				p.bump(n, ast.Token)
			}
			return n
		case t.Is("with"):
			n.Append(p.parseWith())
		case t.Kind == token.Keyword && token.IsRuleType(t.Text),
			t.Kind == token.String && token.IsRuleType(p.peekAfter().Text):
			n.Append(p.parseRule())
		case t.Kind == token.Comment:
			p.comments(n)
		default:
			n.Append(p.parseErrorItem())
		}
	}
}

// expectSemicolon consumes the terminating ';' of an item or reports it
// missing.
func (p *parser) expectSemicolon(n *ast.Node, at token.Token) {
	if p.peek().Kind == token.Operator && p.peek().Text == ";" {
		p.bump(n, ast.Token)
		return
	}
	p.diags.Addf(diag.TypeSyntax, p.locOf(at), "missing ';' to terminate definition")
}

func trimQuotes(s string) string {
	if len(s) >= 2 && s[0] == '"' {
		if end := lastQuote(s); end > 0 {
			return s[1:end]
		}
	}
	return s
}

func lastQuote(s string) int {
	for i := len(s) - 1; i > 0; i-- {
		if s[i] == '"' {
			return i
		}
	}
	return -1
}
