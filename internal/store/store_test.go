package store

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestRequiredDirsOrder(t *testing.T) {
	root := "/drive/CI2"
	got := RequiredDirs(root, []string{"qwass2", "scum2"})
	want := []string{
		root,
		filepath.Join(root, "db"),
		filepath.Join(root, "outputs"),
		filepath.Join(root, "db", "qwass2"),
		filepath.Join(root, "outputs", "qwass2"),
		filepath.Join(root, "db", "scum2"),
		filepath.Join(root, "outputs", "scum2"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("RequiredDirs = %v, want %v", got, want)
	}
}

func TestEnsureLayoutCreatesExpectedDirectories(t *testing.T) {
	root := t.TempDir()
	created, err := EnsureLayout(root, DefaultProjects)
	if err != nil {
		t.Fatalf("ensure layout failed: %v", err)
	}
	if len(created) != 2+2*len(DefaultProjects) {
		t.Fatalf("expected every dir below the root to be created, got %v", created)
	}
	for _, dir := range RequiredDirs(root, DefaultProjects) {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected %s to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %s to be a directory", dir)
		}
	}
	if missing := MissingDirs(root, DefaultProjects); len(missing) != 0 {
		t.Fatalf("expected no missing dirs, got %v", missing)
	}

	again, err := EnsureLayout(root, DefaultProjects)
	if err != nil || len(again) != 0 {
		t.Fatalf("second ensure should be a no-op, got %v, %v", again, err)
	}
}

func TestMissingDirsTreatsFilesAsMissing(t *testing.T) {
	root := t.TempDir()
	if _, err := EnsureLayout(root, nil); err != nil {
		t.Fatalf("ensure layout failed: %v", err)
	}
	blocker := ProjectOutputsDir(root, "qwass2")
	if err := os.MkdirAll(ProjectDBDir(root, "qwass2"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	got := MissingDirs(root, []string{"qwass2"})
	if !reflect.DeepEqual(got, []string{blocker}) {
		t.Fatalf("MissingDirs = %v, want [%s]", got, blocker)
	}
}

func TestEnsureLayoutErrorsWhenRootIsAFile(t *testing.T) {
	root := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(root, []byte("x"), 0o644); err != nil {
		t.Fatalf("write root file failed: %v", err)
	}
	if _, err := EnsureLayout(root, nil); !errors.Is(err, ErrRootMissing) {
		t.Fatalf("expected ErrRootMissing when root is a file, got %v", err)
	}
}

func TestEnsureLayoutNeverCreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "drive", "CI2")
	created, err := EnsureLayout(root, DefaultProjects)
	if !errors.Is(err, ErrRootMissing) {
		t.Fatalf("expected ErrRootMissing, got %v", err)
	}
	if len(created) != 0 {
		t.Fatalf("nothing should be created, got %v", created)
	}
	if _, err := os.Stat(filepath.Dir(root)); !os.IsNotExist(err) {
		t.Fatalf("root parent should not exist, stat err = %v", err)
	}
}
