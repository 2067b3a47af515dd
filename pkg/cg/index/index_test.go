package index

import (
	"context"
	"testing"

	"vislcg/cg3kit/pkg/cg/ast"
	"vislcg/cg3kit/pkg/cg/parser"
)

func buildFrom(t *testing.T, src string) (*ast.Node, *Index) {
	t.Helper()
	root, _, err := parser.Parse(context.Background(), []byte(src), "test.cg3")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return root, Build(root)
}

func TestForwardReference(t *testing.T) {
	_, ix := buildFrom(t, "SET A = B ;\nLIST B = \"x\" \"y\" ;\n")

	def, ok := ix.Lookup("B", KindList)
	if !ok {
		t.Fatal("LIST B not found despite being declared after its reference")
	}
	if def.Name != "B" {
		t.Errorf("definition name = %q, want B", def.Name)
	}
	if def.NameToken() == nil {
		t.Error("definition has no name token")
	}
}

func TestLookupCaseInsensitive(t *testing.T) {
	_, ix := buildFrom(t, "LIST NounPhrase = np ;\n")

	for _, name := range []string{"NounPhrase", "nounphrase", "NOUNPHRASE"} {
		if _, ok := ix.Lookup(name, KindList); !ok {
			t.Errorf("Lookup(%q) failed", name)
		}
	}
}

func TestRedefinitionLastWins(t *testing.T) {
	_, ix := buildFrom(t, "SET X = A ;\nSET X = B ;\n")

	def, ok := ix.Lookup("X", KindSet)
	if !ok {
		t.Fatal("SET X not found")
	}
	decls := ix.Declarations("X", KindSet)
	if len(decls) != 2 {
		t.Fatalf("got %d declarations, want 2", len(decls))
	}
	if def.Start() != decls[1].Start() {
		t.Error("Lookup did not return the last declaration")
	}
	if decls[0].Start() >= decls[1].Start() {
		t.Error("declarations not in document order")
	}
}

func TestListAlsoNamesTagCategory(t *testing.T) {
	_, ix := buildFrom(t, "LIST Noun = n np ;\n")

	if _, ok := ix.Lookup("Noun", KindList); !ok {
		t.Error("list definition missing")
	}
	if _, ok := ix.Lookup("Noun", KindTag); !ok {
		t.Error("tag category mirror missing; %Noun references would not resolve")
	}
	if _, ok := ix.Lookup("Noun", KindSet); ok {
		t.Error("list must not be found under the set kind")
	}
}

func TestAnchorsAndSections(t *testing.T) {
	_, ix := buildFrom(t, "ANCHOR start ;\nSECTION verbs\n")

	if _, ok := ix.Lookup("start", KindAnchor); !ok {
		t.Error("anchor not indexed")
	}
	if _, ok := ix.Lookup("verbs", KindAnchor); !ok {
		t.Error("labeled section not indexed as anchor")
	}
}

func TestNames(t *testing.T) {
	_, ix := buildFrom(t, "LIST B = x ;\nLIST A = y ;\nSET C = A ;\n")

	names := ix.Names(KindList)
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("Names(list) = %v, want [a b] (folded, sorted)", names)
	}
}

func TestBuildIdempotent(t *testing.T) {
	root, ix := buildFrom(t, "LIST A = x ;\nSET B = A ;\nTEMPLATE T1 = (1 A) ;\n")
	again := Build(root)

	p1, p2 := ix.Pairs(), again.Pairs()
	if len(p1) != len(p2) {
		t.Fatalf("rebuilt index has %d pairs, want %d", len(p2), len(p1))
	}
	for i := range p1 {
		if p1[i] != p2[i] {
			t.Errorf("pair %d differs: %+v vs %+v", i, p1[i], p2[i])
		}
	}
}

func TestRemoveItems(t *testing.T) {
	root, ix := buildFrom(t, "LIST A = x ;\nSET B = A ;\n")

	list := root.Children[0]
	ix.RemoveItems(map[*ast.Node]bool{list: true})

	if _, ok := ix.Lookup("A", KindList); ok {
		t.Error("removed list still resolvable")
	}
	if _, ok := ix.Lookup("A", KindTag); ok {
		t.Error("removed list's tag mirror still resolvable")
	}
	if _, ok := ix.Lookup("B", KindSet); !ok {
		t.Error("unrelated definition was removed")
	}
}

func TestRemoveFallsBackToEarlierDeclaration(t *testing.T) {
	root, ix := buildFrom(t, "SET X = A ;\nSET X = B ;\n")

	var second *ast.Node
	for _, item := range root.Children {
		if item.Kind == ast.Set {
			second = item
		}
	}
	ix.RemoveItems(map[*ast.Node]bool{second: true})

	def, ok := ix.Lookup("X", KindSet)
	if !ok {
		t.Fatal("X unresolvable after removing its later declaration")
	}
	if def.Node != root.Children[0] {
		t.Error("lookup did not fall back to the earlier declaration")
	}
}

func TestPositionsReadThroughNode(t *testing.T) {
	root, ix := buildFrom(t, "LIST A = x ;\n")

	def, _ := ix.Lookup("A", KindList)
	before := def.Start()

	root.Children[0].Shift(10, 1)

	after, _ := ix.Lookup("A", KindList)
	if after.Start() != before+10 {
		t.Errorf("definition start = %d after shift, want %d", after.Start(), before+10)
	}
}
