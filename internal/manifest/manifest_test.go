package manifest

import (
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/herbario-cl/herbario/internal/errors"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestDefaultEntriesOrdered(t *testing.T) {
	m := Default()
	entries := m.Entries()
	if len(entries) != 5 {
		t.Fatalf("expected 5 default entries, got %d", len(entries))
	}
	if entries[0] != "config.yaml" {
		t.Errorf("first entry = %s, want config.yaml", entries[0])
	}
	if entries[len(entries)-1] != "report/report.html" {
		t.Errorf("last entry = %s, want report/report.html", entries[len(entries)-1])
	}
}

func TestNewCopiesEntries(t *testing.T) {
	src := []string{"a.txt", "b.csv"}
	m := New(src)
	src[0] = "mutated"
	if m.Entries()[0] != "a.txt" {
		t.Error("manifest must not alias the caller's slice")
	}
}

func TestNewEmptyFallsBackToDefault(t *testing.T) {
	if got, want := New(nil).Len(), Default().Len(); got != want {
		t.Errorf("New(nil).Len() = %d, want %d", got, want)
	}
}

func TestValidate(t *testing.T) {
	chdir(t, t.TempDir())
	writeFile(t, "a.txt", "hello")
	writeFile(t, "b.csv", "x,y\n1,2\n")

	if err := New([]string{"a.txt", "b.csv"}).Validate(); err != nil {
		t.Fatalf("expected valid manifest, got %v", err)
	}

	err := New([]string{"a.txt", "missing.csv"}).Validate()
	if err == nil {
		t.Fatal("expected error for missing entry")
	}
	if !apperrors.IsCategory(err, apperrors.CategoryInput) {
		t.Errorf("expected input category, got %s", apperrors.GetCategory(err))
	}
}

func TestValidateRejectsDirectory(t *testing.T) {
	chdir(t, t.TempDir())
	if err := os.Mkdir("adir", 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := New([]string{"adir"}).Validate(); err == nil {
		t.Fatal("expected error for directory entry")
	}
}

func TestHashSeparatesPathFromContent(t *testing.T) {
	chdir(t, t.TempDir())
	// Both concatenate to "abcd"; the hash must still tell them apart.
	writeFile(t, "ab", "cd")
	writeFile(t, "abc", "d")

	first, err := New([]string{"ab"}).Hash()
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	second, err := New([]string{"abc"}).Hash()
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if first == second {
		t.Error("entries with shifted path/content boundaries must hash differently")
	}
}

func TestHashChangesWithContent(t *testing.T) {
	chdir(t, t.TempDir())
	writeFile(t, "a.txt", "one")

	m := New([]string{"a.txt"})
	before, err := m.Hash()
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	same, err := m.Hash()
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if before != same {
		t.Error("hash must be deterministic for unchanged content")
	}

	writeFile(t, "a.txt", "two")
	after, err := m.Hash()
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if before == after {
		t.Error("hash must change when file content changes")
	}
}
