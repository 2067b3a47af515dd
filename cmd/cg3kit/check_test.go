package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeGrammar(t *testing.T, name, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCheckGrammarFileClean(t *testing.T) {
	path := writeGrammar(t, "clean.cg3", "LIST Noun = n ;\nSELECT Noun ;\n")

	result, err := checkGrammarFile(context.Background(), path, false)
	if err != nil {
		t.Fatalf("checkGrammarFile failed: %v", err)
	}
	if !result.Valid {
		t.Errorf("clean grammar reported invalid: %+v", result.Findings)
	}
	if len(result.Findings) != 0 {
		t.Errorf("clean grammar has findings: %+v", result.Findings)
	}
}

func TestCheckGrammarFileWithErrors(t *testing.T) {
	path := writeGrammar(t, "broken.cg3", "LIST A = (x ;\nSET B = Missing ;\n")

	result, err := checkGrammarFile(context.Background(), path, false)
	if err != nil {
		t.Fatalf("checkGrammarFile failed: %v", err)
	}
	if result.Valid {
		t.Error("broken grammar reported valid")
	}
	if len(result.Findings) == 0 {
		t.Fatal("broken grammar has no findings")
	}
	for _, f := range result.Findings {
		if f.Severity == "" || f.Message == "" {
			t.Errorf("finding missing severity or message: %+v", f)
		}
	}
}

func TestCheckGrammarFileStrict(t *testing.T) {
	// Undefined context reference: warning normally, error in strict mode.
	src := "LIST Noun = n ;\nSELECT Noun IF (-1 Missing) ;\n"
	path := writeGrammar(t, "warn.cg3", src)

	result, err := checkGrammarFile(context.Background(), path, false)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Valid {
		t.Error("warnings alone should not invalidate a grammar")
	}

	result, err = checkGrammarFile(context.Background(), path, true)
	if err != nil {
		t.Fatal(err)
	}
	if result.Valid {
		t.Error("strict mode should invalidate a grammar with warnings")
	}
}

func TestCheckGrammarFileMissing(t *testing.T) {
	_, err := checkGrammarFile(context.Background(), filepath.Join(t.TempDir(), "absent.cg3"), false)
	if err == nil {
		t.Fatal("missing file did not error")
	}
}

func TestCheckExitStatus(t *testing.T) {
	ok := []CheckResult{{File: "a.cg3", Valid: true}}
	if err := checkExitStatus(ok, false); err != nil {
		t.Errorf("all-valid results returned error: %v", err)
	}

	bad := []CheckResult{{File: "a.cg3", Valid: true}, {File: "b.cg3", Valid: false}}
	err := checkExitStatus(bad, false)
	if err == nil {
		t.Fatal("invalid result did not produce an error")
	}
}
