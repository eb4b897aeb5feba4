package api

import (
	"encoding/xml"
	"net/http"
	"os"
	"path"
	"strconv"

	"github.com/richstokes/ZeroConfigDLNA/internal/didl"
	"github.com/richstokes/ZeroConfigDLNA/internal/duration"
	"github.com/richstokes/ZeroConfigDLNA/internal/objectmap"
)

// browseEnvelope unmarshals just enough of the SOAP request body to read
// the Browse action's input arguments; every other action is handled
// without ever touching the body's XML structure.
type browseEnvelope struct {
	Body struct {
		Browse struct {
			ObjectID       string `xml:"ObjectID"`
			BrowseFlag     string `xml:"BrowseFlag"`
			StartingIndex  int    `xml:"StartingIndex"`
			RequestedCount int    `xml:"RequestedCount"`
		} `xml:"Browse"`
	} `xml:"Body"`
}

const (
	flagMetadata       = "BrowseMetadata"
	flagDirectChildren = "BrowseDirectChildren"
)

// handleBrowse implements the ContentDirectory Browse action exactly as
// specified: object-ID resolution via a freshly built objectmap.Map,
// SystemUpdateID/device-UUID maintenance via identity.Tracker.OnRootAccess
// for root-level requests, and BrowseMetadata/BrowseDirectChildren case
// handling over both the virtual root and the real filesystem tree.
func (h *Handler) handleBrowse(w http.ResponseWriter, r *http.Request, body string) {
	var env browseEnvelope
	if err := xml.Unmarshal([]byte(body), &env); err != nil {
		h.logger.Warn("browse: malformed SOAP body", "err", err, "remote", r.RemoteAddr)
		h.writeEmptyBrowseResult(w)
		return
	}
	req := env.Body.Browse

	objectID := req.ObjectID
	if objectID == "" {
		objectID = objectmap.VirtualRoot
	}

	var updateID uint32
	if objectID == objectmap.VirtualRoot || objectID == objectmap.MediaRoot {
		updateID = h.Identity.OnRootAccess()
	} else {
		updateID = h.Identity.SystemUpdateID()
	}

	m, err := objectmap.Build(h.Library.Root)
	if err != nil {
		h.logger.Error("browse: building object map", "err", err, "remote", r.RemoteAddr)
		h.writeEmptyBrowseResult(w)
		return
	}

	var containers []didl.Container
	var items []didl.Item
	var totalMatches int

	switch req.BrowseFlag {
	case flagMetadata:
		c, it, ok := h.browseMetadata(m, objectID)
		if !ok {
			h.writeEmptyBrowseResult(w)
			return
		}
		if c != nil {
			containers = []didl.Container{*c}
		}
		if it != nil {
			items = []didl.Item{*it}
		}
		totalMatches = 1
	default: // flagDirectChildren and anything unrecognized default to it
		containers, items, err = h.browseDirectChildren(m, objectID)
		if err != nil {
			h.logger.Debug("browse: listing children", "objectID", objectID, "err", err, "remote", r.RemoteAddr)
			h.writeEmptyBrowseResult(w)
			return
		}
		totalMatches = len(containers) + len(items)
		containers, items = paginate(containers, items, req.StartingIndex, req.RequestedCount)
	}

	numberReturned := len(containers) + len(items)
	result := didl.BuildDIDL(containers, items)

	writeSOAPResponse(w, didl.ResponseEnvelope(serviceContentDirectory, "Browse", []didl.Arg{
		{Name: "Result", Value: didl.EscapeXML(result)},
		{Name: "NumberReturned", Value: strconv.Itoa(numberReturned)},
		{Name: "TotalMatches", Value: strconv.Itoa(totalMatches)},
		{Name: "UpdateID", Value: strconv.FormatUint(uint64(updateID), 10)},
	}))
}

// writeEmptyBrowseResult is the error path §4.7 mandates: an unknown
// ObjectID or a filesystem error never produces a SOAP fault, only an empty
// result set.
func (h *Handler) writeEmptyBrowseResult(w http.ResponseWriter) {
	writeSOAPResponse(w, didl.ResponseEnvelope(serviceContentDirectory, "Browse", []didl.Arg{
		{Name: "Result", Value: didl.EscapeXML(didl.BuildDIDL(nil, nil))},
		{Name: "NumberReturned", Value: "0"},
		{Name: "TotalMatches", Value: "0"},
		{Name: "UpdateID", Value: strconv.FormatUint(uint64(h.Identity.SystemUpdateID()), 10)},
	}))
}

func (h *Handler) browseMetadata(m *objectmap.Map, objectID string) (*didl.Container, *didl.Item, bool) {
	if objectID == objectmap.VirtualRoot {
		return &didl.Container{ID: objectmap.VirtualRoot, ParentID: objectmap.ParentOfVirtualRoot, Title: "Media Library", ChildCount: 1}, nil, true
	}
	if objectID == objectmap.MediaRoot {
		count, _ := h.directChildCount(m, objectmap.MediaRoot)
		return &didl.Container{ID: objectmap.MediaRoot, ParentID: objectmap.VirtualRoot, Title: "Media Library", ChildCount: count}, nil, true
	}

	rel, ok := m.PathOf(objectID)
	if !ok {
		return nil, nil, false
	}
	parent := m.ParentOf(objectID)

	if m.IsDir(objectID) {
		count, _ := h.directChildCount(m, objectID)
		return &didl.Container{ID: objectID, ParentID: parent, Title: path.Base(rel), ChildCount: count}, nil, true
	}

	item, ok := h.itemFor(objectID, parent, rel)
	if !ok {
		return nil, nil, false
	}
	return nil, &item, true
}

func (h *Handler) browseDirectChildren(m *objectmap.Map, objectID string) ([]didl.Container, []didl.Item, error) {
	if objectID == objectmap.VirtualRoot {
		count, _ := h.directChildCount(m, objectmap.MediaRoot)
		return []didl.Container{{ID: objectmap.MediaRoot, ParentID: objectmap.VirtualRoot, Title: "Media Library", ChildCount: count}}, nil, nil
	}

	childIDs, ok := m.ChildIDs(objectID)
	if !ok {
		return nil, nil, os.ErrNotExist
	}

	var containers []didl.Container
	var items []didl.Item
	for _, childID := range childIDs {
		rel, ok := m.PathOf(childID)
		if !ok {
			continue
		}
		if m.IsDir(childID) {
			count, _ := h.directChildCount(m, childID)
			containers = append(containers, didl.Container{
				ID: childID, ParentID: objectID, Title: path.Base(rel), ChildCount: count,
			})
			continue
		}
		if item, ok := h.itemFor(childID, objectID, rel); ok {
			items = append(items, item)
		}
	}
	return containers, items, nil
}

// directChildCount counts only the supported-media descendants of a
// container's direct children, per §4.7's "childCount = count of
// direct-children-with-media" rule — subdirectories always count
// (they may hold media further down), files count only when supported.
func (h *Handler) directChildCount(m *objectmap.Map, id string) (int, bool) {
	childIDs, ok := m.ChildIDs(id)
	if !ok {
		return 0, false
	}
	n := 0
	for _, childID := range childIDs {
		if m.IsDir(childID) {
			n++
			continue
		}
		if rel, ok := m.PathOf(childID); ok && h.Library.Mime.IsSupported(rel) {
			n++
		}
	}
	return n, true
}

func (h *Handler) itemFor(id, parentID, rel string) (didl.Item, bool) {
	if !h.Library.Mime.IsSupported(rel) {
		return didl.Item{}, false
	}
	mime, _ := h.Library.Mime.Guess(rel)
	class, ok := didl.ClassFor(mime)
	if !ok {
		return didl.Item{}, false
	}

	info, err := h.Library.Stat(rel)
	if err != nil {
		return didl.Item{}, false
	}

	resolution, bitrate := didl.ResourceAttrs(mime)
	var durStr string
	if d, ok := duration.Probe(fullPath(h.Library.Root, rel), mime); ok {
		durStr = duration.Format(d)
	}

	return didl.Item{
		ID:         id,
		ParentID:   parentID,
		Title:      path.Base(rel),
		Class:      class,
		MimeType:   mime,
		Size:       info.Size(),
		Duration:   durStr,
		Resolution: resolution,
		Bitrate:    bitrate,
		URL:        mediaURL(rel),
	}, true
}

func fullPath(root, rel string) string {
	return path.Join(root, rel)
}

// paginate slices the concatenated containers-then-items list per §4.7:
// containers are listed before items, in the underlying listing order, and
// StartingIndex/RequestedCount apply to that single concatenated sequence.
func paginate(containers []didl.Container, items []didl.Item, start, count int) ([]didl.Container, []didl.Item) {
	total := len(containers) + len(items)
	if start < 0 {
		start = 0
	}
	if start >= total {
		return nil, nil
	}
	end := total
	if count > 0 && start+count < total {
		end = start + count
	}

	if end <= len(containers) {
		return containers[start:end], nil
	}
	if start >= len(containers) {
		return nil, items[start-len(containers) : end-len(containers)]
	}
	return containers[start:], items[:end-len(containers)]
}
