package api

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestHandleBrowsePageListsSupportedEntries(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "song.mp3"), []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "Albums"), 0o755); err != nil {
		t.Fatal(err)
	}

	h := newTestHandler(t, dir)
	req := httptest.NewRequest(http.MethodGet, "/browse", nil)
	rec := httptest.NewRecorder()
	h.HandleBrowsePage(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "song.mp3") {
		t.Error("expected listing to include song.mp3")
	}
	if strings.Contains(body, "readme.txt") {
		t.Error("expected listing to exclude unsupported readme.txt")
	}
	if !strings.Contains(body, "Albums") {
		t.Error("expected listing to include the Albums subdirectory")
	}
}

func TestHandleBrowsePageRejectsTraversal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	h := newTestHandler(t, dir)

	req := httptest.NewRequest(http.MethodGet, "/browse?path=../../etc", nil)
	rec := httptest.NewRecorder()
	h.HandleBrowsePage(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestHandleBrowsePageNotFound(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	h := newTestHandler(t, dir)

	req := httptest.NewRequest(http.MethodGet, "/browse?path=missing", nil)
	rec := httptest.NewRecorder()
	h.HandleBrowsePage(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandleBrowsePageHasParentLinkForSubdir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "Sub"), 0o755); err != nil {
		t.Fatal(err)
	}

	h := newTestHandler(t, dir)
	req := httptest.NewRequest(http.MethodGet, "/browse?path=Sub", nil)
	rec := httptest.NewRecorder()
	h.HandleBrowsePage(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `href="/browse?path="`) {
		t.Error("expected a parent link back to the root")
	}
}
