package fsutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestCreateAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")

	if err := CreateAtomic(path, []byte("first"), 0o644); err != nil {
		t.Fatalf("CreateAtomic: %v", err)
	}
	err := CreateAtomic(path, []byte("second"), 0o644)
	if !errors.Is(err, ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}

	got, _ := os.ReadFile(path)
	if string(got) != "first" {
		t.Errorf("existing file was replaced: %q", got)
	}
	assertNoTemps(t, dir)
}

func TestCreateAtomic_BadDir(t *testing.T) {
	if err := CreateAtomic("/nonexistent/dir/file.txt", []byte("x"), 0o644); err == nil {
		t.Error("expected error for nonexistent directory")
	}
}

func TestEnsureDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "c")
	for i := 0; i < 2; i++ {
		if err := EnsureDir(path); err != nil {
			t.Fatalf("EnsureDir pass %d: %v", i, err)
		}
	}
	if info, err := os.Stat(path); err != nil || !info.IsDir() {
		t.Fatalf("expected directory at %s: %v", path, err)
	}
}

func assertNoTemps(t *testing.T, dir string) {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, ".*.tmp"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("tmp files left behind: %v", matches)
	}
}

func TestCreateExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.csv")
	if err := createExclusive(path, []byte("a"), 0o644); err != nil {
		t.Fatalf("createExclusive: %v", err)
	}
	if err := createExclusive(path, []byte("b"), 0o644); !errors.Is(err, ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "a" {
		t.Errorf("content = %q, want a", got)
	}
}
