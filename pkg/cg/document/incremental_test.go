package document

import (
	"context"
	"math/rand"
	"strings"
	"testing"

	"vislcg/cg3kit/pkg/cg/ast"
)

// checkEquivalent verifies that the incrementally maintained document is
// indistinguishable from a document parsed from scratch over the same text.
func checkEquivalent(t *testing.T, d *Document) {
	t.Helper()

	fresh, err := New(context.Background(), d.File(), append([]byte(nil), d.Text()...))
	if err != nil {
		t.Fatalf("fresh parse failed: %v", err)
	}

	// The tree still tiles the text exactly.
	var sb strings.Builder
	prev := 0
	for _, leaf := range ast.Leaves(d.Root(), nil) {
		if leaf.Start != prev {
			t.Fatalf("leaf %v starts at %d, previous ended at %d", leaf, leaf.Start, prev)
		}
		sb.Write(d.Text()[leaf.Start:leaf.End])
		prev = leaf.End
	}
	if sb.String() != string(d.Text()) {
		t.Fatal("leaf concatenation does not reproduce the buffer")
	}

	// The index matches a from-scratch build.
	got, want := d.Index().Pairs(), fresh.Index().Pairs()
	if len(got) != len(want) {
		t.Fatalf("index has %d keys after edit, fresh parse has %d:\n got %+v\nwant %+v",
			len(got), len(want), got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index pair %d: got %+v, want %+v", i, got[i], want[i])
		}
	}

	// Same number of findings.
	if d.Diagnostics().Count() != fresh.Diagnostics().Count() {
		t.Errorf("diagnostics count = %d after edit, fresh parse has %d",
			d.Diagnostics().Count(), fresh.Diagnostics().Count())
	}
}

func applyEdit(t *testing.T, d *Document, e Edit) {
	t.Helper()
	if err := d.Reparse(context.Background(), e); err != nil {
		t.Fatalf("Reparse failed: %v", err)
	}
}

const sample = `LIST Noun = n np prop ;
LIST Verb = v vblex ;
SET NP = Noun | Det ;
SELECT Noun IF (-1C Det) ;
SELECT Verb IF (1 Noun) ;
`

func TestEditInsideOneItem(t *testing.T) {
	d := newDoc(t, sample)
	off := strings.Index(sample, "prop")
	applyEdit(t, d, Edit{Offset: off, RemovedLen: 4, Inserted: []byte("pr")})

	if !strings.Contains(string(d.Text()), "n np pr ;") {
		t.Fatalf("edit not applied: %q", d.Text())
	}
	checkEquivalent(t, d)
}

func TestEditRenamesSymbol(t *testing.T) {
	d := newDoc(t, sample)
	off := strings.Index(sample, "Verb")
	applyEdit(t, d, Edit{Offset: off, RemovedLen: 4, Inserted: []byte("Verbs")})

	if _, ok := d.Index().Lookup("Verb", "list"); ok {
		t.Error("old name still resolvable after rename")
	}
	if _, ok := d.Index().Lookup("Verbs", "list"); !ok {
		t.Error("new name not resolvable after rename")
	}
	checkEquivalent(t, d)
}

func TestEditCrossesItemBoundary(t *testing.T) {
	d := newDoc(t, sample)
	start := strings.Index(sample, "LIST Verb")
	end := strings.Index(sample, "SET NP")
	applyEdit(t, d, Edit{Offset: start, RemovedLen: end - start, Inserted: []byte("LIST Adj = adj ;\n")})

	if _, ok := d.Index().Lookup("Adj", "list"); !ok {
		t.Error("inserted definition not indexed")
	}
	if _, ok := d.Index().Lookup("Verb", "list"); ok {
		t.Error("deleted definition still indexed")
	}
	checkEquivalent(t, d)
}

func TestEditAddsNewItem(t *testing.T) {
	d := newDoc(t, sample)
	applyEdit(t, d, Edit{Offset: len(sample), Inserted: []byte("LIST Adv = adv ;\n")})

	if _, ok := d.Index().Lookup("Adv", "list"); !ok {
		t.Error("appended definition not indexed")
	}
	checkEquivalent(t, d)
}

func TestEditDeletesWholeItem(t *testing.T) {
	d := newDoc(t, sample)
	start := strings.Index(sample, "SET NP")
	end := strings.Index(sample, "SELECT Noun")
	applyEdit(t, d, Edit{Offset: start, RemovedLen: end - start})

	if _, ok := d.Index().Lookup("NP", "set"); ok {
		t.Error("deleted set still indexed")
	}
	checkEquivalent(t, d)
}

func TestEditChangesLineCount(t *testing.T) {
	d := newDoc(t, sample)
	off := strings.Index(sample, "SET NP")
	applyEdit(t, d, Edit{Offset: off, Inserted: []byte("# explain the noun phrase\n# in two lines\n")})

	// The definitions after the insertion report shifted lines.
	def, ok := d.Index().Lookup("NP", "set")
	if !ok {
		t.Fatal("SET NP lost")
	}
	line, _ := d.Position(def.NameToken().Start)
	if line != 5 {
		t.Errorf("SET NP now at line %d, want 5", line)
	}
	if def.NameToken().Line != 5 {
		t.Errorf("name token line = %d, want 5", def.NameToken().Line)
	}
	checkEquivalent(t, d)
}

func TestEditWithMultiByteRunes(t *testing.T) {
	src := "LIST Præp = på ;\nSET X = Præp ;\n"
	d := newDoc(t, src)
	off := strings.Index(src, "på")
	applyEdit(t, d, Edit{Offset: off, RemovedLen: len("på"), Inserted: []byte("über unter")})

	if !strings.Contains(string(d.Text()), "über unter") {
		t.Fatalf("edit not applied: %q", d.Text())
	}
	checkEquivalent(t, d)
}

func TestEditOpensComment(t *testing.T) {
	d := newDoc(t, sample)
	// Turning a definition line into a comment changes how everything after
	// the '#' lexes; the reparse must still converge.
	off := strings.Index(sample, "SET NP")
	applyEdit(t, d, Edit{Offset: off, Inserted: []byte("# ")})

	if _, ok := d.Index().Lookup("NP", "set"); ok {
		t.Error("commented-out set still indexed")
	}
	checkEquivalent(t, d)
}

func TestEditUnbalancesBracket(t *testing.T) {
	d := newDoc(t, sample)
	off := strings.Index(sample, "(-1C")
	// Delete the closing paren of the first context test.
	close := strings.Index(sample[off:], ")") + off
	applyEdit(t, d, Edit{Offset: close, RemovedLen: 1})

	if !d.Diagnostics().HasErrors() {
		t.Error("expected unmatched-bracket error")
	}
	checkEquivalent(t, d)

	// Putting it back heals the document.
	applyEdit(t, d, Edit{Offset: close, Inserted: []byte(")")})
	if d.Diagnostics().HasErrors() {
		t.Errorf("errors remain after repair: %v", d.Diagnostics().Error())
	}
	checkEquivalent(t, d)
}

func TestEditEmptyDocument(t *testing.T) {
	d := newDoc(t, "")
	applyEdit(t, d, Edit{Offset: 0, Inserted: []byte("LIST A = x ;\n")})

	if _, ok := d.Index().Lookup("A", "list"); !ok {
		t.Error("definition not indexed after insert into empty document")
	}
	checkEquivalent(t, d)
}

func TestEditDeleteEverything(t *testing.T) {
	d := newDoc(t, sample)
	applyEdit(t, d, Edit{Offset: 0, RemovedLen: len(sample)})

	if d.Index().Len() != 0 {
		t.Errorf("index still has %d keys after deleting all text", d.Index().Len())
	}
	checkEquivalent(t, d)
}

func TestGenerationIncrements(t *testing.T) {
	d := newDoc(t, sample)
	for i := 1; i <= 3; i++ {
		applyEdit(t, d, Edit{Offset: 0, Inserted: []byte("# x\n")})
		if d.Generation() != uint64(i) {
			t.Errorf("generation = %d after %d edits", d.Generation(), i)
		}
	}
}

func TestEditOutOfRange(t *testing.T) {
	d := newDoc(t, sample)
	if err := d.Reparse(context.Background(), Edit{Offset: len(sample) + 1}); err == nil {
		t.Error("expected error for offset past end")
	}
	if err := d.Reparse(context.Background(), Edit{Offset: 0, RemovedLen: len(sample) + 1}); err == nil {
		t.Error("expected error for removal past end")
	}
	if err := d.Reparse(context.Background(), Edit{Offset: -1}); err == nil {
		t.Error("expected error for negative offset")
	}
}

func TestReparseCancelledLeavesDocumentUnchanged(t *testing.T) {
	d := newDoc(t, sample)
	textBefore := string(d.Text())
	genBefore := d.Generation()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := d.Reparse(ctx, Edit{Offset: 0, Inserted: []byte("x")}); err == nil {
		t.Fatal("expected context error")
	}
	if string(d.Text()) != textBefore || d.Generation() != genBefore {
		t.Error("cancelled reparse mutated the document")
	}
}

func TestManySequentialEdits(t *testing.T) {
	d := newDoc(t, sample)
	insert := "LIST Extra0 = e ;\n"
	for i := 0; i < 10; i++ {
		applyEdit(t, d, Edit{Offset: 0, Inserted: []byte(insert)})
	}
	checkEquivalent(t, d)
}

func TestEditAfterCommentOnlySetLine(t *testing.T) {
	// "SET" followed by a comment has no name yet; its parse skips the
	// comment looking for one and reaches end of input. Typing the name on
	// the next line must reparse the SET, not reuse the incomplete item.
	d := newDoc(t, "SET# c\n")
	applyEdit(t, d, Edit{Offset: 7, Inserted: []byte("NP = Noun ;\n")})

	if _, ok := d.Index().Lookup("NP", "set"); !ok {
		t.Error("definition completed across the comment not indexed")
	}
	checkEquivalent(t, d)
}

func TestEditInTokenSeenByMissingSemicolonCheck(t *testing.T) {
	// The first list has no ';', so its parse examined the start of the
	// next item to report that. Editing the examined token must invalidate
	// the list as well: where its member run ends depends on that token.
	src := "LIST A = x\nSET B = A ;\n"
	d := newDoc(t, src)
	off := strings.Index(src, "SET")
	applyEdit(t, d, Edit{Offset: off, RemovedLen: len("SET "), Inserted: []byte("y ")})

	checkEquivalent(t, d)
}

func TestRandomEditsMatchFullParse(t *testing.T) {
	pieces := []string{
		";", "#", "(", ")", "\"str\"", "\n", " ", "=", "|", "OR",
		"LIST Q = q ;\n", "SET", "x", "<w>", "END\n",
	}
	rng := rand.New(rand.NewSource(42))
	d := newDoc(t, sample)
	for i := 0; i < 200; i++ {
		text := d.Text()
		off := rng.Intn(len(text) + 1)
		maxRemove := len(text) - off
		if maxRemove > 8 {
			maxRemove = 8
		}
		e := Edit{Offset: off, RemovedLen: rng.Intn(maxRemove + 1)}
		if rng.Intn(4) > 0 {
			e.Inserted = []byte(pieces[rng.Intn(len(pieces))])
		}
		applyEdit(t, d, e)
		checkEquivalent(t, d)
	}
}

func BenchmarkReparseSmallEdit(b *testing.B) {
	var sb strings.Builder
	for i := 0; i < 500; i++ {
		sb.WriteString(sample)
	}
	src := sb.String()
	d, err := New(context.Background(), "bench.cg3", []byte(src))
	if err != nil {
		b.Fatal(err)
	}
	off := strings.Index(src, "prop")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := d.Reparse(context.Background(), Edit{Offset: off, RemovedLen: 4, Inserted: []byte("prop")}); err != nil {
			b.Fatal(err)
		}
	}
}
