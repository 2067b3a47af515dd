package document

import (
	"vislcg/cg3kit/pkg/cg/ast"
	"vislcg/cg3kit/pkg/cg/index"
	"vislcg/cg3kit/pkg/cg/token"
)

// Resolve finds the definition governing the symbol reference at the byte
// offset, if any. CG grammars permit forward references, so resolution is
// independent of declaration order: the index answers with the last lexical
// declaration of the referenced (name, kind) pair wherever it sits in the
// file. A miss, whether the offset is not on a resolvable reference or the
// name is undefined, is a normal result, not an error.
func (d *Document) Resolve(offset int) (index.Definition, bool) {
	path := ast.PathTo(d.root, offset)
	if len(path) == 0 {
		return index.Definition{}, false
	}
	leaf := path[len(path)-1]
	if leaf.Tok == nil || !leaf.IsLeaf() {
		return index.Definition{}, false
	}
	switch leaf.Tok.Kind {
	case token.Identifier, token.Tag:
	default:
		return index.Definition{}, false
	}

	name := leaf.Tok.Text
	for _, kind := range d.lookupOrder(path, leaf) {
		if def, ok := d.ix.Lookup(name, kind); ok {
			return def, true
		}
	}
	return index.Definition{}, false
}

// lookupOrder derives the reference kind from the leaf's syntactic context.
// A name after '%' is a tag category reference; an operand in a set
// expression prefers sets over lists; a name in a contextual test prefers
// templates; a name after JUMP is an anchor.
func (d *Document) lookupOrder(path []*ast.Node, leaf *ast.Node) []index.SymbolKind {
	parent := leaf
	if len(path) >= 2 {
		parent = path[len(path)-2]
	}

	if prev := previousLeaf(parent, leaf); prev != nil && prev.Tok != nil {
		switch {
		case prev.Tok.Kind == token.Operator && prev.Tok.Text == "%":
			return []index.SymbolKind{index.KindTag}
		case prev.Tok.Is("jump"):
			return []index.SymbolKind{index.KindAnchor}
		}
	}

	switch parent.Kind {
	case ast.Set, ast.InlineSet:
		return []index.SymbolKind{index.KindSet, index.KindList, index.KindTag}
	case ast.Template, ast.ContextTest:
		return []index.SymbolKind{index.KindTemplate, index.KindSet, index.KindList}
	case ast.Rule:
		return []index.SymbolKind{index.KindSet, index.KindList, index.KindAnchor}
	case ast.TagList:
		// LIST members are tag literals, not references.
		return nil
	default:
		return nil
	}
}

// previousLeaf returns the child of parent immediately before target, or
// nil when target is the first child.
func previousLeaf(parent, target *ast.Node) *ast.Node {
	var prev *ast.Node
	for _, c := range parent.Children {
		if c == target {
			return prev
		}
		prev = c
	}
	return nil
}
