// Package validator performs semantic checks over an analyzed grammar
// document: references that resolve to nothing, and duplicate definitions
// that shadow one another. Findings are advisory; they never block
// analysis.
package validator

import (
	"vislcg/cg3kit/pkg/cg/ast"
	"vislcg/cg3kit/pkg/cg/diag"
	"vislcg/cg3kit/pkg/cg/document"
	"vislcg/cg3kit/pkg/cg/index"
	"vislcg/cg3kit/pkg/cg/token"
)

// Validator checks a document for semantic findings.
type Validator struct {
	// Strict upgrades warnings to errors.
	Strict bool
}

// New returns a validator with default settings.
func New() *Validator { return &Validator{} }

// Validate inspects the document and returns the findings.
func (v *Validator) Validate(doc *document.Document) *diag.List {
	l := diag.NewList()
	v.checkDuplicates(doc, l)
	v.checkReferences(doc, l)
	diag.AttachContext(l, doc.Text())
	if v.Strict {
		for _, d := range l.Items {
			d.Severity = diag.SeverityError
		}
	}
	return l
}

// checkDuplicates reports definitions shadowed by a later declaration of
// the same name and kind.
func (v *Validator) checkDuplicates(doc *document.Document, l *diag.List) {
	ix := doc.Index()
	for _, kind := range []index.SymbolKind{index.KindList, index.KindSet, index.KindTemplate} {
		for _, name := range ix.Names(kind) {
			decls := ix.Declarations(name, kind)
			if len(decls) < 2 {
				continue
			}
			last := decls[len(decls)-1]
			loc := doc.Location(defNameOffset(last))
			l.Warnf(diag.TypeSemantic, loc,
				"%s %q is defined %d times; this definition shadows the earlier ones",
				kind, last.Name, len(decls))
		}
	}
}

// checkReferences reports identifier references that resolve to no
// definition, with a spelling suggestion when a close name exists.
func (v *Validator) checkReferences(doc *document.Document, l *diag.List) {
	ix := doc.Index()
	walkRefs(doc.Root(), func(leaf *ast.Node, parent *ast.Node, order []index.SymbolKind) {
		name := leaf.Tok.Text
		for _, kind := range order {
			if _, ok := ix.Lookup(name, kind); ok {
				return
			}
		}

		var known []string
		for _, kind := range order {
			known = append(known, ix.Names(kind)...)
		}
		d := &diag.Diagnostic{
			Type:       diag.TypeSemantic,
			Severity:   severityFor(parent.Kind),
			Message:    "reference to undefined name " + name,
			Location:   doc.Location(leaf.Tok.Start),
			Suggestion: diag.SuggestName(name, known),
		}
		l.Add(d)
	})
}

// severityFor grades a miss by where it occurs. An operand of a set
// expression must name something; a bare identifier in a rule may be a
// plain tag, so it only warns.
func severityFor(parent ast.Kind) diag.Severity {
	switch parent {
	case ast.Set, ast.InlineSet, ast.Template:
		return diag.SeverityError
	default:
		return diag.SeverityWarning
	}
}

// walkRefs visits every identifier leaf that reads as a reference, passing
// the lookup order its context implies. Definition name leaves and LIST
// members (tag literals) are skipped.
func walkRefs(root *ast.Node, visit func(leaf, parent *ast.Node, order []index.SymbolKind)) {
	var walk func(n *ast.Node)
	walk = func(n *ast.Node) {
		var prev *ast.Node
		for i, c := range n.Children {
			if !c.IsLeaf() {
				walk(c)
				prev = c
				continue
			}
			if c.Tok != nil && c.Tok.Kind == token.Identifier &&
				!isDefinitionName(n, c) && !isTemplateMarker(n, i) {
				if order := orderFor(n, prev, c); order != nil {
					visit(c, n, order)
				}
			}
			prev = c
		}
	}
	walk(root)
}

// isTemplateMarker reports whether child i is the "T" of a T:name template
// reference.
func isTemplateMarker(parent *ast.Node, i int) bool {
	if i+1 >= len(parent.Children) {
		return false
	}
	next := parent.Children[i+1]
	return next.Tok != nil && next.Tok.Kind == token.Operator && next.Tok.Text == ":"
}

// defNameOffset returns the offset of a definition's name token, falling
// back to the definition start.
func defNameOffset(d index.Definition) int {
	if t := d.NameToken(); t != nil {
		return t.Start
	}
	return d.Start()
}

func orderFor(parent, prev, leaf *ast.Node) []index.SymbolKind {
	if prev != nil && prev.Tok != nil {
		switch {
		case prev.Tok.Kind == token.Operator && prev.Tok.Text == "%":
			return []index.SymbolKind{index.KindTag}
		case prev.Tok.Is("jump"):
			return []index.SymbolKind{index.KindAnchor}
		case prev.Tok.Kind == token.Operator && prev.Tok.Text == ":":
			// T:name template reference.
			return []index.SymbolKind{index.KindTemplate}
		}
	}
	switch parent.Kind {
	case ast.Set, ast.InlineSet:
		return []index.SymbolKind{index.KindSet, index.KindList, index.KindTag}
	case ast.Template:
		return []index.SymbolKind{index.KindTemplate, index.KindSet, index.KindList}
	case ast.ContextTest:
		return []index.SymbolKind{index.KindTemplate, index.KindSet, index.KindList, index.KindTag}
	default:
		return nil
	}
}

// isDefinitionName reports whether the leaf is the declared name of its
// defining parent rather than a reference.
func isDefinitionName(parent, leaf *ast.Node) bool {
	switch parent.Kind {
	case ast.List, ast.Set, ast.Template, ast.Anchor:
	default:
		return false
	}
	if parent.Name == "" || leaf.Tok == nil {
		return false
	}
	// The name is the first identifier-like leaf of the definition.
	for _, c := range parent.Children {
		if c.Tok == nil {
			continue
		}
		switch c.Tok.Kind {
		case token.Identifier, token.Tag, token.String:
			return c == leaf
		}
	}
	return false
}
