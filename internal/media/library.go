package media

import (
	"fmt"
	"os"

	"github.com/richstokes/ZeroConfigDLNA/internal/mimetype"
	"github.com/richstokes/ZeroConfigDLNA/internal/pathsafe"
)

// ResourceMode determines how resources are opened
type ResourceMode int

const (
	ModeUnknown ResourceMode = iota
	ModeFileDirect
	ModeFileBuffered
)

// Library is the server's single media root: a directory tree addressed by
// root-relative path rather than by an opaque UUID, since the ContentDirectory
// object-ID map (internal/objectmap) already gives every file and directory a
// stable-per-response identifier. This supersedes the teacher's
// Manager/Registry pair, which existed to resolve a client-facing UUID to a
// flat-scanned Entry; DLNA clients address objects by the map's small
// integer IDs instead, so there is nothing left for a background-scanned
// UUID registry to do.
type Library struct {
	Root       string
	BufferSize int
	Mode       ResourceMode
	Mime       *mimetype.Resolver
	Limiter    *IOLimiter
}

// NewLibrary resolves root to an absolute path and builds a Library around
// it. mimeTypesPath may be empty, in which case only the built-in MIME table
// is used.
func NewLibrary(root, mimeTypesPath string, mode ResourceMode, bufferSize, maxConcurrentIO int) (*Library, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("media root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("media root %q is not a directory", root)
	}

	var mime *mimetype.Resolver
	if mimeTypesPath != "" {
		mime = mimetype.NewFromFile(mimeTypesPath)
	} else {
		mime = mimetype.New()
	}

	return &Library{
		Root:       root,
		BufferSize: bufferSize,
		Mode:       mode,
		Mime:       mime,
		Limiter:    NewIOLimiter(maxConcurrentIO),
	}, nil
}

// OpenFile opens relPath under the library root, rejecting any path that
// escapes it (including through symlinks).
func (l *Library) OpenFile(relPath string) (*os.File, error) {
	f, err := pathsafe.Open(l.Root, relPath)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// OpenResource opens relPath as a streamable Resource, honoring the
// configured ResourceMode.
func (l *Library) OpenResource(relPath string) (Resource, error) {
	file, err := l.OpenFile(relPath)
	if err != nil {
		return nil, fmt.Errorf("open resource: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat file: %w", err)
	}

	switch l.Mode {
	case ModeFileDirect:
		return newFileResource(file, info), nil
	case ModeFileBuffered:
		return newBufferedFileResource(file, info, l.BufferSize), nil
	default:
		file.Close()
		return nil, fmt.Errorf("open resource: %w (mode: %d)", ErrUnsupportedMode, l.Mode)
	}
}

// Stat stats relPath under the library root, applying the same path-safety
// check as OpenFile.
func (l *Library) Stat(relPath string) (os.FileInfo, error) {
	f, err := l.OpenFile(relPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.Stat()
}
