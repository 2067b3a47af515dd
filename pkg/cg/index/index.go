// Package index maintains the symbol index of a parsed CG grammar: the
// mapping from declared names (lists, sets, templates, anchors, tag
// categories) to their definition sites.
//
// The index is a projection of the syntax tree, never the source of truth:
// the tree retains every declaration, while lookups deterministically prefer
// the last lexical declaration of a (name, kind) pair. All declarations per
// key are kept so that removing one during an incremental reparse falls
// back to an earlier one.
package index

import (
	"sort"

	"vislcg/cg3kit/pkg/cg/ast"
	"vislcg/cg3kit/pkg/cg/token"
)

// SymbolKind classifies a definition.
type SymbolKind string

const (
	KindList     SymbolKind = "list"
	KindSet      SymbolKind = "set"
	KindTemplate SymbolKind = "template"
	KindTag      SymbolKind = "tag"
	KindAnchor   SymbolKind = "anchor"
)

// Definition is a declaring occurrence of a named symbol. Its position is
// read through the declaring node, so definitions stay correct when
// retained subtrees are shifted after an incremental edit.
type Definition struct {
	Name string     // name as declared, not case-folded
	Kind SymbolKind // symbol kind

	// Node is the declaring definition node (List, Set, Template, Anchor).
	Node *ast.Node

	// NameLeaf is the leaf holding the declared name, when present.
	NameLeaf *ast.Node
}

// Start returns the current start offset of the declaring node.
func (d Definition) Start() int { return d.Node.Start }

// End returns the current end offset of the declaring node.
func (d Definition) End() int { return d.Node.End }

// NameToken returns the token of the declared name, or nil.
func (d Definition) NameToken() *token.Token {
	if d.NameLeaf == nil {
		return nil
	}
	return d.NameLeaf.Tok
}

// key is the case-folded lookup key.
type key struct {
	name string
	kind SymbolKind
}

// Index maps (case-folded name, kind) to the declarations of that pair in
// document order.
type Index struct {
	defs map[key][]Definition
}

// New returns an empty index.
func New() *Index {
	return &Index{defs: make(map[key][]Definition)}
}

// Build walks the tree once, depth first, and indexes every definition.
func Build(root *ast.Node) *Index {
	ix := New()
	ast.Walk(root, func(n *ast.Node) bool {
		ix.addNode(n)
		return true
	})
	return ix
}

// Add indexes the definitions found in the subtree rooted at item.
func (ix *Index) Add(item *ast.Node) {
	ast.Walk(item, func(n *ast.Node) bool {
		ix.addNode(n)
		return true
	})
	// Keep per-key declaration order by document position.
	for k := range ix.defs {
		sort.SliceStable(ix.defs[k], func(i, j int) bool {
			return ix.defs[k][i].Start() < ix.defs[k][j].Start()
		})
	}
}

func (ix *Index) addNode(n *ast.Node) {
	switch n.Kind {
	case ast.List:
		if n.Name == "" {
			return
		}
		d := Definition{Name: n.Name, Kind: KindList, Node: n, NameLeaf: nameLeaf(n)}
		ix.insert(d)
		// A LIST also names a tag category referenced as %name.
		ix.insert(Definition{Name: n.Name, Kind: KindTag, Node: n, NameLeaf: d.NameLeaf})
	case ast.Set:
		if n.Name == "" {
			return
		}
		ix.insert(Definition{Name: n.Name, Kind: KindSet, Node: n, NameLeaf: nameLeaf(n)})
	case ast.Template:
		if n.Name == "" {
			return
		}
		ix.insert(Definition{Name: n.Name, Kind: KindTemplate, Node: n, NameLeaf: nameLeaf(n)})
	case ast.Anchor:
		if n.Name == "" {
			return
		}
		ix.insert(Definition{Name: n.Name, Kind: KindAnchor, Node: n, NameLeaf: nameLeaf(n)})
	}
}

// nameLeaf finds the leaf that carries the declared name: the first
// identifier, tag, or string leaf after the introducing keyword.
func nameLeaf(n *ast.Node) *ast.Node {
	for _, c := range n.Children {
		if c.Tok == nil {
			continue
		}
		switch c.Tok.Kind {
		case token.Identifier, token.Tag, token.String:
			return c
		}
	}
	return nil
}

func (ix *Index) insert(d Definition) {
	k := key{name: token.Fold(d.Name), kind: d.Kind}
	ix.defs[k] = append(ix.defs[k], d)
}

// Lookup resolves a name of the given kind to its governing definition:
// the last lexical declaration. Name matching is case-insensitive.
// Declaration order does not matter to callers; forward references resolve
// the same as backward ones.
func (ix *Index) Lookup(name string, kind SymbolKind) (Definition, bool) {
	ds := ix.defs[key{name: token.Fold(name), kind: kind}]
	if len(ds) == 0 {
		return Definition{}, false
	}
	return ds[len(ds)-1], true
}

// Declarations returns every indexed declaration of (name, kind) in
// document order, including shadowed ones.
func (ix *Index) Declarations(name string, kind SymbolKind) []Definition {
	ds := ix.defs[key{name: token.Fold(name), kind: kind}]
	return append([]Definition(nil), ds...)
}

// Names returns the case-folded names defined for a kind, sorted.
func (ix *Index) Names(kind SymbolKind) []string {
	var out []string
	for k := range ix.defs {
		if k.kind == kind {
			out = append(out, k.name)
		}
	}
	sort.Strings(out)
	return out
}

// All returns every governing definition (one per key), sorted by position.
func (ix *Index) All() []Definition {
	var out []Definition
	for _, ds := range ix.defs {
		out = append(out, ds[len(ds)-1])
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Start() != out[j].Start() {
			return out[i].Start() < out[j].Start()
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

// Len returns the number of distinct (name, kind) keys.
func (ix *Index) Len() int { return len(ix.defs) }

// RemoveItems drops every definition whose declaring node lies inside one
// of the given top-level items. Identity is by node pointer, so this is
// safe to call after retained subtrees have been shifted.
func (ix *Index) RemoveItems(items map[*ast.Node]bool) {
	match := func(n *ast.Node) bool {
		for item := range items {
			if n == item || contains(item, n) {
				return true
			}
		}
		return false
	}
	for k, ds := range ix.defs {
		kept := ds[:0]
		for _, d := range ds {
			if !match(d.Node) {
				kept = append(kept, d)
			}
		}
		if len(kept) == 0 {
			delete(ix.defs, k)
		} else {
			ix.defs[k] = kept
		}
	}
}

func contains(root, target *ast.Node) bool {
	found := false
	ast.Walk(root, func(n *ast.Node) bool {
		if found {
			return false
		}
		if n == target {
			found = true
			return false
		}
		return true
	})
	return found
}

// Pair is a flattened (key, span) view of a governing definition, used to
// compare two indexes for equality.
type Pair struct {
	Name  string
	Kind  SymbolKind
	Start int
	End   int
}

// Pairs returns the governing definitions as sorted flat pairs.
func (ix *Index) Pairs() []Pair {
	var out []Pair
	for k, ds := range ix.defs {
		d := ds[len(ds)-1]
		out = append(out, Pair{Name: k.name, Kind: k.kind, Start: d.Start(), End: d.End()})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}
