package mimetype

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGuessCaseInsensitive(t *testing.T) {
	t.Parallel()

	r := New()

	tests := []struct {
		name string
		want string
	}{
		{"foo.mp4", "video/mp4"},
		{"foo.MP4", "video/mp4"},
		{"FOO.Mp4", "video/mp4"},
		{"clip.mkv", "video/x-matroska"},
		{"track.MP3", "audio/mpeg"},
		{"photo.PNG", "image/png"},
		{"unknown.xyz", "application/octet-stream"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, _ := r.Guess(tc.name)
			if got != tc.want {
				t.Errorf("Guess(%q) = %q, want %q", tc.name, got, tc.want)
			}
		})
	}
}

func TestIsSupported(t *testing.T) {
	t.Parallel()

	r := New()

	if !r.IsSupported("movie.mp4") {
		t.Error("expected movie.mp4 to be supported")
	}
	if r.IsSupported("archive.zip") {
		t.Error("expected archive.zip to be unsupported")
	}
}

func TestNewFromFileOverlay(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	typesPath := filepath.Join(dir, "mime.types")
	contents := "# comment\n\napplication/x-custom cst cst2\nvideo/mp4 mp4\n"
	if err := os.WriteFile(typesPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write types file: %v", err)
	}

	r := NewFromFile(typesPath)

	if got, _ := r.Guess("thing.cst"); got != "application/x-custom" {
		t.Errorf("Guess(thing.cst) = %q, want application/x-custom", got)
	}
	if got, _ := r.Guess("thing.cst2"); got != "application/x-custom" {
		t.Errorf("Guess(thing.cst2) = %q, want application/x-custom", got)
	}
	// Built-in fallback still present for extensions the file doesn't mention.
	if got, _ := r.Guess("movie.mkv"); got != "video/x-matroska" {
		t.Errorf("Guess(movie.mkv) = %q, want video/x-matroska", got)
	}
}

func TestNewFromFileMissingFallsBackToBuiltin(t *testing.T) {
	t.Parallel()

	r := NewFromFile(filepath.Join(t.TempDir(), "does-not-exist.types"))
	if got, _ := r.Guess("movie.mp4"); got != "video/mp4" {
		t.Errorf("Guess(movie.mp4) = %q, want video/mp4", got)
	}
}
