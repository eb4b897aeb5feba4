package objectmap

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBuildAssignsStableBijection(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	mustMkdir(t, filepath.Join(root, "sub"))
	mustWrite(t, filepath.Join(root, "a.mp4"))
	mustWrite(t, filepath.Join(root, "sub", "b.mkv"))

	m, err := Build(root)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	for _, rel := range []string{"a.mp4", "sub", filepath.ToSlash(filepath.Join("sub", "b.mkv"))} {
		id, ok := m.IDOf(rel)
		if !ok {
			t.Fatalf("no ID assigned for %q", rel)
		}
		gotPath, ok := m.PathOf(id)
		if !ok || gotPath != rel {
			t.Errorf("PathOf(%q) = (%q, %v), want (%q, true)", id, gotPath, ok, rel)
		}
	}
}

func TestReservedIDs(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	m, err := Build(root)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if m.ParentOf(VirtualRoot) != ParentOfVirtualRoot {
		t.Errorf("ParentOf(0) = %q, want %q", m.ParentOf(VirtualRoot), ParentOfVirtualRoot)
	}
	if m.ParentOf(MediaRoot) != VirtualRoot {
		t.Errorf("ParentOf(1) = %q, want %q", m.ParentOf(MediaRoot), VirtualRoot)
	}
}

func TestParentOfNestedChild(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	mustMkdir(t, filepath.Join(root, "sub"))
	mustWrite(t, filepath.Join(root, "sub", "b.mkv"))

	m, err := Build(root)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	subID, _ := m.IDOf("sub")
	childID, _ := m.IDOf("sub/b.mkv")

	if m.ParentOf(childID) != subID {
		t.Errorf("ParentOf(child) = %q, want %q (sub)", m.ParentOf(childID), subID)
	}
	if m.ParentOf(subID) != MediaRoot {
		t.Errorf("ParentOf(sub) = %q, want %q", m.ParentOf(subID), MediaRoot)
	}
}

func TestChildIDsAndIsDir(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	mustMkdir(t, filepath.Join(root, "sub"))
	mustWrite(t, filepath.Join(root, "a.mp4"))
	mustWrite(t, filepath.Join(root, "sub", "b.mkv"))

	m, err := Build(root)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	rootChildren, ok := m.ChildIDs(VirtualRoot)
	if !ok || len(rootChildren) != 1 || rootChildren[0] != MediaRoot {
		t.Fatalf("ChildIDs(0) = %v, %v; want [1], true", rootChildren, ok)
	}

	libChildren, ok := m.ChildIDs(MediaRoot)
	if !ok || len(libChildren) != 2 {
		t.Fatalf("ChildIDs(1) = %v, %v; want 2 entries", libChildren, ok)
	}

	subID, _ := m.IDOf("sub")
	if !m.IsDir(subID) {
		t.Errorf("IsDir(sub) = false, want true")
	}
	fileID, _ := m.IDOf("a.mp4")
	if m.IsDir(fileID) {
		t.Errorf("IsDir(a.mp4) = true, want false")
	}

	subChildren, ok := m.ChildIDs(subID)
	if !ok || len(subChildren) != 1 {
		t.Fatalf("ChildIDs(sub) = %v, %v; want 1 entry", subChildren, ok)
	}
}

func mustMkdir(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("mkdir %q: %v", path, err)
	}
}

func mustWrite(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %q: %v", path, err)
	}
}
