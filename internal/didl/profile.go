package didl

import "strings"

// FlagsStreaming and FlagsImage are the two DLNA.ORG_FLAGS bit strings this
// server ever emits. Both are the correct 32-hex-digit form — one source
// revision this implementation was distilled from produced a 33-digit
// variant at one call site; that was a bug, not intent (see design notes),
// and is never reproduced here. Keeping both as named constants (instead of
// inlining the literal at each call site) is what prevents the bug from
// recurring at a second call site.
const (
	FlagsStreaming = "01700000000000000000000000000000"
	FlagsImage     = "00D00000000000000000000000000000"
)

// profileEntry describes one row of the DLNA profile table.
type profileEntry struct {
	pn         string
	resolution string
	bitrate    string
}

var profileTable = map[string]profileEntry{
	"video/mp4":        {pn: "AVC_MP4_MP_SD_AAC_MULT5", resolution: "1280x720", bitrate: "4000000"},
	"video/x-msvideo":  {pn: "AVI", resolution: "720x576", bitrate: "1500000"},
	"video/x-matroska": {pn: "MATROSKA", resolution: "1920x1080", bitrate: "8000000"},
	"audio/mpeg":       {pn: "MP3", bitrate: "320000"},
	"audio/wav":        {pn: "LPCM", bitrate: "1411200"},
	"audio/mp4":        {pn: "AAC_ISO_320", bitrate: "320000"},
	"audio/x-m4a":      {pn: "AAC_ISO_320", bitrate: "320000"},
	"image/jpeg":       {pn: "JPEG_LRG", resolution: "1920x1080"},
	"image/png":        {pn: "PNG_LRG", resolution: "1920x1080"},
}

// isImage reports whether mime should receive the image DLNA flags rather
// than the streaming flags.
func isImage(mime string) bool {
	return strings.HasPrefix(mime, "image/")
}

func flagsFor(mime string) string {
	if isImage(mime) {
		return FlagsImage
	}
	return FlagsStreaming
}

// ProtocolInfo builds the "http-get:*:<mime>:<profile>" protocolInfo string
// used both in DIDL-Lite <res> elements and in GetProtocolInfo's Source
// list. When includeCI is true, DLNA.ORG_CI=0 is inserted — required on
// media delivery responses (§4.8) but not in the DIDL-Lite resource
// description or the ConnectionManager Source list.
func ProtocolInfo(mime string, includeCI bool) string {
	var b strings.Builder
	b.WriteString("http-get:*:")
	b.WriteString(mime)
	b.WriteString(":")

	if entry, ok := profileTable[mime]; ok {
		b.WriteString("DLNA.ORG_PN=")
		b.WriteString(entry.pn)
		b.WriteString(";")
	}
	b.WriteString("DLNA.ORG_OP=01;")
	if includeCI {
		b.WriteString("DLNA.ORG_CI=0;")
	}
	b.WriteString("DLNA.ORG_FLAGS=")
	b.WriteString(flagsFor(mime))

	return b.String()
}

// ContentFeatures builds the bare DLNA feature string used in the
// contentFeatures.dlna.org response header on media delivery (§4.8): just
// "DLNA.ORG_PN=...;DLNA.ORG_OP=01;DLNA.ORG_CI=0;DLNA.ORG_FLAGS=...", with no
// "http-get:*:<mime>:" prefix — that prefix belongs only in protocolInfo
// (the DIDL-Lite <res> attribute and GetProtocolInfo's Source list), not
// this header.
func ContentFeatures(mime string, includeCI bool) string {
	var b strings.Builder

	if entry, ok := profileTable[mime]; ok {
		b.WriteString("DLNA.ORG_PN=")
		b.WriteString(entry.pn)
		b.WriteString(";")
	}
	b.WriteString("DLNA.ORG_OP=01;")
	if includeCI {
		b.WriteString("DLNA.ORG_CI=0;")
	}
	b.WriteString("DLNA.ORG_FLAGS=")
	b.WriteString(flagsFor(mime))

	return b.String()
}

// ResourceAttrs returns the optional resolution= and bitrate= attribute
// values for mime, and whether each is present.
func ResourceAttrs(mime string) (resolution, bitrate string) {
	entry, ok := profileTable[mime]
	if !ok {
		return "", ""
	}
	return entry.resolution, entry.bitrate
}

// ClassFor returns the upnp:class for a supported MIME type, and whether the
// MIME type is one of the three classes the content directory exposes.
func ClassFor(mime string) (class string, ok bool) {
	switch {
	case strings.HasPrefix(mime, "video/"):
		return "object.item.videoItem", true
	case strings.HasPrefix(mime, "audio/"):
		return "object.item.audioItem.musicTrack", true
	case strings.HasPrefix(mime, "image/"):
		return "object.item.imageItem.photo", true
	default:
		return "", false
	}
}
