package log

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestJournalAppendAndRecent(t *testing.T) {
	dir := t.TempDir()
	j, err := NewJournal(filepath.Join(dir, "data"))
	if err != nil {
		t.Fatalf("NewJournal: %v", err)
	}

	base := time.Date(2026, 2, 2, 8, 0, 0, 0, time.UTC)
	for i, msg := range []string{"a", "b", "c"} {
		if err := j.Append(entryAt(base.Add(time.Duration(i)*time.Minute), msg)); err != nil {
			t.Fatalf("Append(%s): %v", msg, err)
		}
	}

	all, err := j.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(all) != 3 || all[0].Message != "a" {
		t.Fatalf("ReadAll = %+v", all)
	}

	recent, err := j.Recent(2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 || recent[0].Message != "c" || recent[1].Message != "b" {
		t.Fatalf("Recent(2) = %+v", recent)
	}
}

func TestJournalMissingFileIsEmpty(t *testing.T) {
	j := &Journal{path: filepath.Join(t.TempDir(), JournalFile)}
	entries, err := j.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(entries))
	}
}

func TestJournalReportsCorruptLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, JournalFile)
	if err := os.WriteFile(path, []byte("{\"id\":\"x\"}\nnot-json\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	j := &Journal{path: path}
	if _, err := j.ReadAll(); err == nil {
		t.Fatal("expected parse error for corrupt line")
	}
}

func TestActivityMirrorsIntoJournal(t *testing.T) {
	j, err := NewJournal(t.TempDir())
	if err != nil {
		t.Fatalf("NewJournal: %v", err)
	}
	a := NewActivity(j)
	a.Append(Info("mirrored"))

	entries, err := j.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(entries) != 1 || entries[0].Message != "mirrored" {
		t.Fatalf("journal = %+v", entries)
	}
}

func TestJournalRewriteReplacesContents(t *testing.T) {
	j, err := NewJournal(t.TempDir())
	if err != nil {
		t.Fatalf("NewJournal: %v", err)
	}
	for _, msg := range []string{"a", "b", "c"} {
		if err := j.Append(Info(msg)); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	all, _ := j.ReadAll()

	if err := j.Rewrite(all[2:]); err != nil {
		t.Fatalf("Rewrite: %v", err)
	}
	got, err := j.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(got) != 1 || got[0].Message != "c" || got[0].ID != all[2].ID {
		t.Fatalf("journal after rewrite = %+v", got)
	}

	// Appends keep working on the replaced file.
	if err := j.Append(Info("d")); err != nil {
		t.Fatalf("Append after rewrite: %v", err)
	}
	if got, _ := j.ReadAll(); len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
}
