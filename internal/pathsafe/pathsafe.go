// Package pathsafe rejects client-supplied paths that escape a media root,
// even after symlink resolution. Every filesystem access in this server that
// is driven by a client-supplied name goes through here first.
package pathsafe

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// ErrOutsideRoot is returned (wrapped) when a requested path, once resolved,
// does not fall under the media root.
var ErrOutsideRoot = errors.New("path outside root directory")

// IsSafe reports whether requested, once joined to base and resolved through
// any symlinks, still falls under base. Both paths are normalized to
// absolute, symlink-resolved, separator- and case-normalized form before the
// containment check, so a lexically-safe path (e.g. "../root/x") that
// resolves through a symlink to somewhere outside base is still rejected.
func IsSafe(base, requested string) bool {
	absBase, err := filepath.Abs(base)
	if err != nil {
		return false
	}
	resolvedBase, err := filepath.EvalSymlinks(absBase)
	if err != nil {
		return false
	}

	joined := filepath.Join(absBase, requested)
	resolvedRequested, err := filepath.EvalSymlinks(joined)
	if err != nil {
		// The target may not exist yet (it never will, in practice, since
		// this server never writes) — fall back to the lexical join so a
		// missing-but-otherwise-safe path isn't rejected outright.
		resolvedRequested = filepath.Clean(joined)
	}

	return withinRoot(resolvedBase, resolvedRequested)
}

func withinRoot(base, target string) bool {
	base = normalize(base)
	target = normalize(target)

	if target == base {
		return true
	}
	return strings.HasPrefix(target, base+string(filepath.Separator))
}

// normalize applies the case-folding the underlying OS filesystem uses, so
// that on case-insensitive filesystems a differently-cased escape attempt
// doesn't slip past the prefix check.
func normalize(p string) string {
	if runtime.GOOS == "windows" {
		return strings.ToLower(p)
	}
	return p
}

// Open opens relPath under root using os.OpenInRoot, which rejects escapes
// (including through symlinks) at the kernel/runtime level. This is the
// preferred way to actually obtain a file handle; IsSafe is for call sites
// that need a yes/no answer before doing something other than opening a
// file (e.g. deciding whether to even attempt a directory listing).
func Open(root, relPath string) (*os.File, error) {
	f, err := os.OpenInRoot(root, relPath)
	if err != nil {
		if errors.Is(err, fs.ErrInvalid) {
			return nil, fmt.Errorf("%w (%w)", ErrOutsideRoot, err)
		}
		return nil, err
	}
	return f, nil
}
