package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"vislcg/cg3kit/pkg/cg/document"
	"vislcg/cg3kit/pkg/cg/index"
	"vislcg/cg3kit/pkg/config"
)

func openStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "symbols.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func indexOf(t *testing.T, src string) *index.Index {
	t.Helper()
	doc, err := document.New(context.Background(), "test.cg3", []byte(src))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return doc.Index()
}

const grammar = "LIST Noun = n np ;\nSET NP = Noun ;\nANCHOR start ;\n"

func TestSaveLoadRoundTrip(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	ix := indexOf(t, grammar)

	snapshot, err := s.Save(ctx, "a.cg3", ix)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if snapshot == "" {
		t.Fatal("Save returned an empty snapshot ID")
	}

	syms, err := s.Load(ctx, "a.cg3")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(syms) != ix.Len() {
		t.Fatalf("loaded %d symbols, index holds %d", len(syms), ix.Len())
	}
	for i, sym := range syms {
		if sym.File != "a.cg3" {
			t.Errorf("symbol %d file = %q", i, sym.File)
		}
		if sym.Snapshot != snapshot {
			t.Errorf("symbol %d snapshot = %q, want %q", i, sym.Snapshot, snapshot)
		}
		if i > 0 && sym.Start < syms[i-1].Start {
			t.Errorf("symbols not in source order at %d", i)
		}
	}

	names := map[string]bool{}
	for _, sym := range syms {
		names[sym.Name+"/"+sym.Kind] = true
	}
	for _, want := range []string{"Noun/list", "Noun/tag", "NP/set", "start/anchor"} {
		if !names[want] {
			t.Errorf("missing persisted symbol %s, got %v", want, names)
		}
	}
}

func TestSaveReplacesPreviousRows(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	first, err := s.Save(ctx, "a.cg3", indexOf(t, grammar))
	if err != nil {
		t.Fatalf("first Save failed: %v", err)
	}
	second, err := s.Save(ctx, "a.cg3", indexOf(t, "LIST Verb = v ;\n"))
	if err != nil {
		t.Fatalf("second Save failed: %v", err)
	}
	if first == second {
		t.Error("snapshot IDs should differ between saves")
	}

	syms, err := s.Load(ctx, "a.cg3")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	for _, sym := range syms {
		if sym.Snapshot != second {
			t.Errorf("row %s still carries the old snapshot", sym.Name)
		}
		if sym.Name == "NP" || sym.Name == "start" {
			t.Errorf("row %s from the first save survived", sym.Name)
		}
	}
}

func TestLoadUnknownFile(t *testing.T) {
	s := openStore(t)
	syms, err := s.Load(context.Background(), "absent.cg3")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(syms) != 0 {
		t.Errorf("unknown file returned %d symbols", len(syms))
	}
}

func TestDeleteAndFiles(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	if _, err := s.Save(ctx, "a.cg3", indexOf(t, grammar)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Save(ctx, "b.cg3", indexOf(t, "LIST Verb = v ;\n")); err != nil {
		t.Fatal(err)
	}

	files, err := s.Files(ctx)
	if err != nil {
		t.Fatalf("Files failed: %v", err)
	}
	if len(files) != 2 || files[0] != "a.cg3" || files[1] != "b.cg3" {
		t.Fatalf("Files = %v, want [a.cg3 b.cg3]", files)
	}

	if err := s.Delete(ctx, "a.cg3"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	files, err = s.Files(ctx)
	if err != nil {
		t.Fatalf("Files failed: %v", err)
	}
	if len(files) != 1 || files[0] != "b.cg3" {
		t.Errorf("Files after delete = %v, want [b.cg3]", files)
	}
}

func TestQueryByName(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	if _, err := s.Save(ctx, "a.cg3", indexOf(t, grammar)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Save(ctx, "b.cg3", indexOf(t, "LIST Noun = n ;\n")); err != nil {
		t.Fatal(err)
	}

	syms, err := s.QueryByName(ctx, "noun")
	if err != nil {
		t.Fatalf("QueryByName failed: %v", err)
	}
	files := map[string]bool{}
	for _, sym := range syms {
		if sym.Name != "Noun" {
			t.Errorf("unexpected symbol %s", sym.Name)
		}
		files[sym.File] = true
	}
	if !files["a.cg3"] || !files["b.cg3"] {
		t.Errorf("query did not span files: %v", files)
	}

	syms, err = s.QueryByName(ctx, "absent")
	if err != nil {
		t.Fatalf("QueryByName failed: %v", err)
	}
	if len(syms) != 0 {
		t.Errorf("unknown name returned %d symbols", len(syms))
	}

	if _, err := s.QueryByName(ctx, ""); err == nil {
		t.Error("QueryByName with empty name succeeded")
	}
}

func TestCleanup(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	if _, err := s.Save(ctx, "a.cg3", indexOf(t, grammar)); err != nil {
		t.Fatal(err)
	}

	deleted, err := s.Cleanup(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	if deleted != 0 {
		t.Errorf("Cleanup with old cutoff deleted %d fresh rows", deleted)
	}

	deleted, err = s.Cleanup(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	if deleted == 0 {
		t.Error("Cleanup with future cutoff deleted nothing")
	}

	syms, err := s.Load(ctx, "a.cg3")
	if err != nil {
		t.Fatal(err)
	}
	if len(syms) != 0 {
		t.Errorf("%d rows survived cleanup", len(syms))
	}
}

func TestInputValidation(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	if _, err := s.Save(ctx, "", indexOf(t, grammar)); err == nil {
		t.Error("Save with empty file succeeded")
	}
	if _, err := s.Save(ctx, "a.cg3", nil); err == nil {
		t.Error("Save with nil index succeeded")
	}
	if _, err := s.Load(ctx, ""); err == nil {
		t.Error("Load with empty file succeeded")
	}
	if err := s.Delete(ctx, ""); err == nil {
		t.Error("Delete with empty file succeeded")
	}
	if _, err := Open(""); err == nil {
		t.Error("Open with empty path succeeded")
	}
}

func TestCloseIdempotent(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "symbols.db"))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("first Close failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}

func TestSchedulerEmptySchedule(t *testing.T) {
	s := openStore(t)
	sched := NewScheduler(s, &config.RetentionConfig{})

	if err := sched.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if sched.IsRunning() {
		t.Error("scheduler running without a schedule")
	}
	if sched.NextRun() != nil {
		t.Error("NextRun set without a schedule")
	}
}

func TestSchedulerInvalidSchedule(t *testing.T) {
	s := openStore(t)
	sched := NewScheduler(s, &config.RetentionConfig{PruneSchedule: "not a schedule"})

	if err := sched.Start(context.Background()); err == nil {
		t.Fatal("Start accepted an invalid cron expression")
	}
}

func TestSchedulerStartStop(t *testing.T) {
	s := openStore(t)
	cfg := &config.RetentionConfig{PruneSchedule: "0 3 * * *", MaxAge: time.Hour}
	sched := NewScheduler(s, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := sched.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !sched.IsRunning() {
		t.Error("scheduler not running after Start")
	}
	if sched.NextRun() == nil {
		t.Error("NextRun is nil for a scheduled job")
	}

	sched.Stop()
	if sched.IsRunning() {
		t.Error("scheduler still running after Stop")
	}
}
