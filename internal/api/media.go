package api

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/richstokes/ZeroConfigDLNA/internal/didl"
	"github.com/richstokes/ZeroConfigDLNA/internal/observability"
	"github.com/richstokes/ZeroConfigDLNA/internal/pathsafe"
)

const (
	smallChunk = 16 * 1024
	largeChunk = 512 * 1024
	// below this many remaining bytes, switch from the small streaming
	// chunk size to the large one — small chunks keep early playback
	// latency down, large chunks reduce syscall overhead for bulk transfer.
	largeChunkThreshold = 2 * 1024 * 1024
)

// mediaURL builds the /media/<url-encoded-relative-path> URL DIDL-Lite <res>
// elements and m3u-less browse links point at, escaping each path segment
// independently so literal "/" separators survive.
func mediaURL(rel string) string {
	segments := strings.Split(rel, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return "/media/" + strings.Join(segments, "/")
}

// HandleMedia serves GET and HEAD /media/<path>. It always answers 206
// Partial Content, even for a request with no Range header or a malformed
// one, to satisfy Xbox/Windows Media Player clients that refuse to play a
// plain 200 response (§4.8).
func (h *Handler) HandleMedia(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	encodedRel := strings.TrimPrefix(r.URL.Path, "/media/")
	relPath, err := url.PathUnescape(encodedRel)
	if err != nil {
		http.Error(w, "bad path", http.StatusBadRequest)
		return
	}

	info, err := h.Library.Stat(relPath)
	if err != nil {
		switch {
		case errors.Is(err, pathsafe.ErrOutsideRoot):
			h.logger.Warn("security alert: attempted path traversal", "path", relPath, "remote", r.RemoteAddr)
			http.Error(w, "forbidden", http.StatusForbidden)
		case errors.Is(err, os.ErrNotExist):
			http.Error(w, "not found", http.StatusNotFound)
		default:
			h.logger.Error("media: stat failed", "path", relPath, "err", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}
		return
	}
	if info.IsDir() {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	if err := h.Library.Limiter.TryAcquire(r.Context()); err != nil {
		http.Error(w, "server too busy", http.StatusServiceUnavailable)
		return
	}
	defer h.Library.Limiter.Release()

	resource, err := h.Library.OpenResource(relPath)
	if err != nil {
		h.logger.Error("media: opening resource", "path", relPath, "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	defer resource.Close()

	mime, _ := h.Library.Mime.Guess(relPath)
	size := resource.Size()
	start, end := parseRange(r.Header.Get("Range"), size)

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Length", strconv.FormatInt(end-start+1, 10))
	w.Header().Set("Content-Range", "bytes "+strconv.FormatInt(start, 10)+"-"+strconv.FormatInt(end, 10)+"/"+strconv.FormatInt(size, 10))
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("contentFeatures.dlna.org", didl.ContentFeatures(mime, true))
	w.Header().Set("TransferMode.DLNA.ORG", "Streaming")
	w.Header().Set("Server", "ZeroConfigDLNA/1.0 UPnP/1.0 DLNADOC/1.50")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Cache-Control", "max-age=3600")
	w.WriteHeader(http.StatusPartialContent)

	if r.Method == http.MethodHead {
		return
	}

	observability.ActiveStreams.Inc()
	defer observability.ActiveStreams.Dec()

	if _, err := resource.Seek(start, io.SeekStart); err != nil {
		h.logger.Debug("media: seek failed", "path", relPath, "err", err)
		return
	}

	remaining := end - start + 1
	flusher, _ := w.(http.Flusher)
	buf := make([]byte, smallChunk)

	for remaining > 0 {
		chunkSize := int64(smallChunk)
		if remaining > largeChunkThreshold {
			chunkSize = largeChunk
		}
		if chunkSize > remaining {
			chunkSize = remaining
		}
		if int64(len(buf)) < chunkSize {
			buf = make([]byte, chunkSize)
		}

		n, readErr := resource.Read(buf[:chunkSize])
		if n > 0 {
			if _, writeErr := w.Write(buf[:n]); writeErr != nil {
				// Peer disconnected mid-stream; abandon silently.
				return
			}
			remaining -= int64(n)
			if flusher != nil {
				flusher.Flush()
			}
		}
		if readErr != nil {
			return
		}
	}
}

// parseRange applies the Range-header rules from §4.8: absent or malformed
// ranges serve the whole file, "bytes=A-" serves from A to the end, and
// "bytes=A-B" serves exactly that window when valid.
func parseRange(header string, size int64) (start, end int64) {
	if size <= 0 {
		return 0, 0
	}
	if header == "" || !strings.HasPrefix(header, "bytes=") {
		return 0, size - 1
	}

	spec := strings.TrimPrefix(header, "bytes=")
	parts := strings.SplitN(spec, "-", 2)
	if len(parts) != 2 {
		return 0, size - 1
	}

	a, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || a < 0 || a >= size {
		return 0, size - 1
	}

	if parts[1] == "" {
		return a, size - 1
	}

	b, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || b < a || b >= size {
		return 0, size - 1
	}
	return a, b
}
