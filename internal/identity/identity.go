// Package identity tracks the two values that must stay coherent across a
// server's lifetime so that caching DLNA clients behave correctly: the
// device UUID (content-sensitive, re-derived at most once per 30s) and the
// monotonic SystemUpdateID.
package identity

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
)

// familyPrefix identifies this implementation family in every device UUID it
// mints, matching the fixed prefix required by the data model.
const familyPrefix = "65da942e-1984-3309"

const rehashWindow = 30 * time.Second

// Tracker owns the device UUID, the SystemUpdateID counter and the last
// content-hash check timestamp. All three are protected by a single mutex
// per the concurrency model: they change together (hash check may rotate
// the UUID) and must not be observed torn.
type Tracker struct {
	root string

	mu          sync.Mutex
	contentHash string // 12 hex chars
	pathHash    string // 8 hex chars, stable for the process lifetime
	uuidStr     string
	updateID    uint32
	lastCheck   time.Time
}

// New builds a Tracker for the given media root, computing the initial
// content hash and UUID synchronously and seeding SystemUpdateID from the
// current time as required by the data model.
func New(root string) (*Tracker, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve media root: %w", err)
	}

	t := &Tracker{
		root:     absRoot,
		pathHash: hashPath(absRoot),
		updateID: uint32(time.Now().Unix() % 1_000_000),
	}

	hash, err := hashDirectory(absRoot)
	if err != nil {
		// Total failure falls back to md5(unix_time)[:12].
		hash = fallbackHash()
	}
	t.contentHash = hash
	t.lastCheck = time.Now()
	t.uuidStr = composeUUID(t.pathHash, t.contentHash)

	return t, nil
}

// UUID returns the current device UUID string (without the "uuid:" prefix).
func (t *Tracker) UUID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.uuidStr
}

// SystemUpdateID returns the current counter value without mutating it.
func (t *Tracker) SystemUpdateID() uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.updateID
}

// OnRootAccess must be called whenever the Browse engine is asked about
// ObjectID "0" or "1". It increments SystemUpdateID unconditionally, and —
// throttled to once per 30s — re-hashes the directory, rotating the device
// UUID if the content actually changed. It returns the post-increment
// SystemUpdateID for the caller to echo in its response.
func (t *Tracker) OnRootAccess() uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.updateID++

	if time.Since(t.lastCheck) < rehashWindow {
		return t.updateID
	}
	t.lastCheck = time.Now()

	newHash, err := hashDirectory(t.root)
	if err != nil {
		newHash = fallbackHash()
	}
	if newHash != t.contentHash {
		t.contentHash = newHash
		t.uuidStr = composeUUID(t.pathHash, t.contentHash)
	}

	return t.updateID
}

// composeUUID builds the family UUID string from the path and content
// hashes per the data model's field layout, then round-trips it through
// gofrs/uuid/v5 to guarantee the result is a structurally valid UUID before
// handing it back as a plain string (the rest of the server treats device
// UUIDs as opaque strings, matching USN/UDN construction elsewhere).
func composeUUID(pathHash8, contentHash12 string) string {
	aaaa := contentHash12[0:4]
	bbbbbbbb := contentHash12[4:12]
	cccc := pathHash8[0:4]

	raw := fmt.Sprintf("%s-%s-%s%s", familyPrefix, aaaa, bbbbbbbb, cccc)

	if parsed, err := uuid.FromString(raw); err == nil {
		return parsed.String()
	}
	return raw
}

func hashPath(absPath string) string {
	sum := md5.Sum([]byte(absPath))
	return hex.EncodeToString(sum[:])[:8]
}

// hashDirectory computes the 12-hex content hash described in the data
// model: MD5 over the newline-joined "rel:size:mtime" records for every
// file under root, directories and files each ordered lexicographically.
// Unreadable entries are skipped silently.
func hashDirectory(root string) (string, error) {
	var records []string

	err := filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			// Skip unreadable entries silently, continue the walk.
			return nil
		}
		if info.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		records = append(records, fmt.Sprintf("%s:%d:%d", rel, info.Size(), info.ModTime().Unix()))
		return nil
	})
	if err != nil {
		return "", err
	}

	sort.Strings(records)
	joined := strings.Join(records, "\n")
	sum := md5.Sum([]byte(joined))
	return hex.EncodeToString(sum[:])[:12], nil
}

func fallbackHash() string {
	sum := md5.Sum([]byte(strconv.FormatInt(time.Now().Unix(), 10)))
	return hex.EncodeToString(sum[:])[:12]
}
