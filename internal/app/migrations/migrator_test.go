package migrations

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPendingFiles_SortsAndFiltersSQL(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"002_stats.sql", "001_init.sql", "README.md", "010_more.sql"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("-- noop"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "003_dir.sql"), 0o700); err != nil {
		t.Fatal(err)
	}

	files, err := PendingFiles(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"001_init.sql", "002_stats.sql", "010_more.sql"}
	if len(files) != len(want) {
		t.Fatalf("expected %d files, got %v", len(want), files)
	}
	for i, f := range files {
		if filepath.Base(f) != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], filepath.Base(f))
		}
	}
}

func TestPendingFiles_MissingDir_ReturnsError(t *testing.T) {
	if _, err := PendingFiles(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestVersionOf(t *testing.T) {
	if got := versionOf("/x/migrations/001_init.sql"); got != "001" {
		t.Errorf("expected 001, got %s", got)
	}
	if got := versionOf("002.sql"); got != "002.sql" {
		t.Errorf("expected whole name without underscore, got %s", got)
	}
}
