// Package mimetype resolves file extensions to MIME types for DLNA content
// delivery. It owns its own lookup table rather than delegating to the Go
// standard library's mime package, since the DLNA profile table (internal/didl)
// keys directly off the exact strings this resolver returns.
package mimetype

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// builtin covers the minimum set required by the spec: common video, audio
// and image containers. Extensions are stored without the leading dot.
var builtin = map[string]string{
	"mp4":  "video/mp4",
	"m4v":  "video/mp4",
	"mkv":  "video/x-matroska",
	"avi":  "video/x-msvideo",
	"mov":  "video/quicktime",
	"wmv":  "video/x-ms-wmv",
	"flv":  "video/x-flv",
	"webm": "video/webm",
	"mpg":  "video/mpeg",
	"mpeg": "video/mpeg",

	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"ogg":  "audio/ogg",
	"aac":  "audio/aac",
	"flac": "audio/flac",
	"m4a":  "audio/x-m4a",

	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"webp": "image/webp",
}

// Resolver maps file extensions to MIME types. The zero value is not usable;
// construct with New or NewFromFile.
type Resolver struct {
	mu    sync.RWMutex
	byExt map[string]string
}

// New returns a resolver seeded only with the built-in fallback table.
func New() *Resolver {
	r := &Resolver{byExt: make(map[string]string, len(builtin))}
	for ext, mime := range builtin {
		r.byExt[ext] = mime
	}
	return r
}

// NewFromFile returns a resolver seeded with the built-in table and then
// overlaid with entries parsed from a "mime.types"-style text file at path.
// A missing or unreadable file is not an error: the resolver simply falls
// back to the built-in table, matching the spec's "if the file cannot be
// read, initialize from a built-in table" contract.
func NewFromFile(path string) *Resolver {
	r := New()
	f, err := os.Open(path)
	if err != nil {
		return r
	}
	defer f.Close()
	r.loadTypesFile(f)
	return r
}

// loadTypesFile parses lines of the form "mime ext [ext ...]". Blank lines
// and lines beginning with '#' are ignored.
func (r *Resolver) loadTypesFile(rd io.Reader) {
	r.mu.Lock()
	defer r.mu.Unlock()

	scanner := bufio.NewScanner(rd)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		mime := fields[0]
		for _, ext := range fields[1:] {
			ext = strings.ToLower(strings.TrimPrefix(ext, "."))
			if ext == "" {
				continue
			}
			r.byExt[ext] = mime
		}
	}
}

// Guess returns the MIME type for filename based on its lowercased final
// extension, and whether an entry was found at all (as opposed to the
// application/octet-stream fallback).
func (r *Resolver) Guess(filename string) (mime string, ok bool) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "" {
		return "application/octet-stream", false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	mime, ok = r.byExt[ext]
	if !ok {
		return "application/octet-stream", false
	}
	return mime, true
}

// IsSupported reports whether filename resolves to a video, audio or image
// MIME type — the only classes of file the content directory exposes.
func (r *Resolver) IsSupported(filename string) bool {
	mime, ok := r.Guess(filename)
	if !ok {
		return false
	}
	return strings.HasPrefix(mime, "video/") ||
		strings.HasPrefix(mime, "audio/") ||
		strings.HasPrefix(mime, "image/")
}
