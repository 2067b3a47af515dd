package validator

import (
	"context"
	"strings"
	"testing"

	"vislcg/cg3kit/pkg/cg/diag"
	"vislcg/cg3kit/pkg/cg/document"
)

func validate(t *testing.T, src string, strict bool) *diag.List {
	t.Helper()
	doc, err := document.New(context.Background(), "test.cg3", []byte(src))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	v := New()
	v.Strict = strict
	return v.Validate(doc)
}

func TestCleanGrammar(t *testing.T) {
	l := validate(t, "LIST Noun = n np ;\nSET NP = Noun ;\nSELECT NP IF (-1 NP) ;\n", false)
	if l.Count() != 0 {
		t.Errorf("clean grammar produced findings: %v", l.Error())
	}
}

func TestUndefinedSetOperandIsError(t *testing.T) {
	l := validate(t, "SET NP = Missing ;\n", false)
	if !l.HasErrors() {
		t.Fatalf("undefined set operand should be an error, got: %v", l.Items)
	}
	d := l.Items[0]
	if d.Type != diag.TypeSemantic {
		t.Errorf("type = %v, want semantic", d.Type)
	}
	if !strings.Contains(d.Message, "Missing") {
		t.Errorf("message %q does not name the reference", d.Message)
	}
}

func TestUndefinedInContextTestIsWarning(t *testing.T) {
	l := validate(t, "LIST Noun = n ;\nSELECT Noun IF (-1 Missing) ;\n", false)
	if l.Count() == 0 {
		t.Fatal("expected a finding for the undefined context reference")
	}
	if l.HasErrors() {
		t.Errorf("context reference miss should be a warning, got error: %v", l.Items)
	}
}

func TestStrictUpgradesWarnings(t *testing.T) {
	src := "LIST Noun = n ;\nSELECT Noun IF (-1 Missing) ;\n"
	if validate(t, src, false).HasErrors() {
		t.Fatal("non-strict run should only warn")
	}
	if !validate(t, src, true).HasErrors() {
		t.Error("strict run should report errors")
	}
}

func TestSpellingSuggestion(t *testing.T) {
	l := validate(t, "LIST Noun = n np ;\nSET X = Nuon ;\n", false)
	if l.Count() == 0 {
		t.Fatal("expected a finding for the misspelled reference")
	}
	found := false
	for _, d := range l.Items {
		if strings.Contains(d.Suggestion, "noun") || strings.Contains(d.Suggestion, "Noun") {
			found = true
		}
	}
	if !found {
		t.Errorf("no spelling suggestion offered: %v", l.Items)
	}
}

func TestDuplicateDefinitionWarns(t *testing.T) {
	l := validate(t, "SET X = \"a\" ;\nSET X = \"b\" ;\n", false)
	found := false
	for _, d := range l.Items {
		if strings.Contains(d.Message, "defined 2 times") {
			found = true
			if d.Severity != diag.SeverityWarning {
				t.Errorf("shadowing severity = %v, want warning", d.Severity)
			}
			if d.Location.Line != 2 {
				t.Errorf("shadowing reported at line %d, want the later declaration on line 2", d.Location.Line)
			}
		}
	}
	if !found {
		t.Errorf("no shadowing finding: %v", l.Items)
	}
}

func TestListTagMirrorNotReportedAsDuplicate(t *testing.T) {
	l := validate(t, "LIST Noun = n ;\n", false)
	if l.Count() != 0 {
		t.Errorf("single list produced findings: %v", l.Error())
	}
}

func TestTemplateReference(t *testing.T) {
	l := validate(t, "TEMPLATE ctx = (1 (n)) ;\nSELECT (v) IF (T:ctx) ;\n", false)
	for _, d := range l.Items {
		if strings.Contains(d.Message, "ctx") {
			t.Errorf("defined template reported undefined: %v", d.Message)
		}
	}

	l = validate(t, "SELECT (v) IF (T:nothere) ;\n", false)
	found := false
	for _, d := range l.Items {
		if strings.Contains(d.Message, "nothere") {
			found = true
		}
	}
	if !found {
		t.Errorf("undefined template reference not reported: %v", l.Items)
	}
}

func TestForwardReferenceIsClean(t *testing.T) {
	l := validate(t, "SET A = B ;\nLIST B = x ;\n", false)
	if l.Count() != 0 {
		t.Errorf("forward reference produced findings: %v", l.Error())
	}
}

func TestFindingsCarryContext(t *testing.T) {
	l := validate(t, "SET NP = Missing ;\n", false)
	if l.Count() == 0 {
		t.Fatal("expected a finding")
	}
	if l.Items[0].Context == "" {
		t.Error("finding has no source context attached")
	}
}
