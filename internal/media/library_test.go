package media

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/richstokes/ZeroConfigDLNA/internal/pathsafe"
)

func TestNewLibraryRejectsNonDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "not-a-dir")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewLibrary(file, "", ModeFileDirect, 4096, 4); err == nil {
		t.Fatal("expected error for non-directory root")
	}
}

func TestOpenResourceRejectsEscape(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	lib, err := NewLibrary(root, "", ModeFileDirect, 4096, 4)
	if err != nil {
		t.Fatalf("NewLibrary: %v", err)
	}

	if _, err := lib.OpenResource("../escape.txt"); !errors.Is(err, pathsafe.ErrOutsideRoot) {
		t.Errorf("OpenResource(escape) error = %v, want wrapping pathsafe.ErrOutsideRoot", err)
	}
}

func TestOpenResourceBuffered(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.mp4"), []byte("hello world"), 0o644); err != nil {
		t.Fatal(err)
	}

	lib, err := NewLibrary(root, "", ModeFileBuffered, 4096, 4)
	if err != nil {
		t.Fatalf("NewLibrary: %v", err)
	}

	res, err := lib.OpenResource("a.mp4")
	if err != nil {
		t.Fatalf("OpenResource: %v", err)
	}
	defer res.Close()

	if res.Size() != 11 {
		t.Errorf("Size() = %d, want 11", res.Size())
	}
	if _, ok := res.(*BufferedFileResource); !ok {
		t.Errorf("expected *BufferedFileResource, got %T", res)
	}
}
