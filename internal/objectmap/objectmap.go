// Package objectmap builds the bidirectional ObjectID <-> relative-path
// mapping a ContentDirectory Browse request needs. A fresh Map is built for
// every Browse request; IDs are stable only for the lifetime of that one
// response, per the data model.
package objectmap

import (
	"io/fs"
	gopath "path"
	"path/filepath"
	"strconv"
)

const (
	// VirtualRoot is the synthetic container above the media root itself.
	VirtualRoot = "0"
	// MediaRoot is the media root directory.
	MediaRoot = "1"
	// ParentOfVirtualRoot is only ever used as a parentID in BrowseMetadata
	// output for the virtual root.
	ParentOfVirtualRoot = "-1"
)

// Map is a snapshot of the ID <-> path assignment for one Browse cycle.
type Map struct {
	idToPath map[string]string
	pathToID map[string]string
	isDir    map[string]bool     // relpath -> is it a directory ("" is always true)
	children map[string][]string // relpath -> direct children relpaths, listing order
}

// Build walks root depth-first, pre-order, assigning decimal string IDs
// starting at 2 to every directory and file encountered (root itself is
// reserved as MediaRoot, "1"). Unreadable entries are skipped, matching the
// server's general "unreadable entries don't abort the operation" posture.
func Build(root string) (*Map, error) {
	m := &Map{
		idToPath: map[string]string{VirtualRoot: "", MediaRoot: ""},
		pathToID: map[string]string{"": MediaRoot},
		isDir:    map[string]bool{"": true},
		children: map[string][]string{},
	}

	next := 2
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if p == root {
			return nil
		}
		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		id := strconv.Itoa(next)
		next++
		m.idToPath[id] = rel
		m.pathToID[rel] = id
		m.isDir[rel] = d.IsDir()

		parentRel := gopath.Dir(rel)
		if parentRel == "." {
			parentRel = ""
		}
		m.children[parentRel] = append(m.children[parentRel], rel)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return m, nil
}

// PathOf returns the relative path for an ObjectID, and whether it exists in
// this map.
func (m *Map) PathOf(id string) (string, bool) {
	p, ok := m.idToPath[id]
	return p, ok
}

// IDOf returns the ObjectID for a relative path ("" for the media root
// itself), and whether it exists in this map.
func (m *Map) IDOf(relPath string) (string, bool) {
	id, ok := m.pathToID[relPath]
	return id, ok
}

// ParentOf returns the parent ObjectID of id: "0" for "1", "-1" for "0", and
// otherwise the ID of the path's directory (falling back to "1" when that
// directory is the media root itself).
func (m *Map) ParentOf(id string) string {
	switch id {
	case VirtualRoot:
		return ParentOfVirtualRoot
	case MediaRoot:
		return VirtualRoot
	}

	p, ok := m.idToPath[id]
	if !ok {
		return ""
	}
	parent := gopath.Dir(p)
	if parent == "." {
		return MediaRoot
	}
	if parentID, ok := m.pathToID[parent]; ok {
		return parentID
	}
	return ""
}

// IsDir reports whether id refers to a directory (the virtual root and media
// root always are). Unknown IDs report false.
func (m *Map) IsDir(id string) bool {
	if id == VirtualRoot || id == MediaRoot {
		return true
	}
	p, ok := m.idToPath[id]
	if !ok {
		return false
	}
	return m.isDir[p]
}

// ChildIDs returns the ObjectIDs of id's direct children, in listing order,
// and whether id is a known, browsable container. The virtual root's only
// child is the media root.
func (m *Map) ChildIDs(id string) ([]string, bool) {
	if id == VirtualRoot {
		return []string{MediaRoot}, true
	}

	p, ok := m.idToPath[id]
	if !ok || !m.isDir[p] {
		return nil, false
	}

	rels := m.children[p]
	ids := make([]string, 0, len(rels))
	for _, rel := range rels {
		if childID, ok := m.pathToID[rel]; ok {
			ids = append(ids, childID)
		}
	}
	return ids, true
}
