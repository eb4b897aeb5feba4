// Package duration estimates a media file's playback length from its own
// bytes, without shelling out to ffprobe or mediainfo: it reads at most the
// first 64 KiB of the file and looks for the one container-specific field
// that carries duration directly.
package duration

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"time"
)

const probeWindow = 64 * 1024

// Probe reads at most the first 64 KiB of the file at path and attempts to
// extract its duration, using a parser chosen by mime. It returns ok=false
// (never an error) for unsupported MIME types or any parse failure — the
// caller treats that as "omit the duration attribute", not a fault.
func Probe(path, mime string) (time.Duration, bool) {
	f, err := os.Open(path)
	if err != nil {
		return 0, false
	}
	defer f.Close()

	buf := make([]byte, probeWindow)
	n, err := f.Read(buf)
	if err != nil && n == 0 {
		return 0, false
	}
	buf = buf[:n]

	switch mime {
	case "video/mp4", "audio/mp4", "audio/x-m4a":
		return parseMP4(buf)
	case "video/x-msvideo":
		return parseAVI(buf)
	default:
		return 0, false
	}
}

// parseMP4 locates the moov/mvhd box and reads its timescale/duration
// fields, handling both the 32-bit (version 0) and 64-bit (version 1)
// creation/modification-time layouts. Grounded in original_source's
// _parse_mp4_duration, but computing the mvhd field offsets from the actual
// ISO-BMFF box layout rather than reproducing that function's off-by-one
// field skip (it lands on modification_time/timescale instead of
// timescale/duration).
func parseMP4(data []byte) (time.Duration, bool) {
	pos := indexOf(data, "mvhd")
	if pos == -1 {
		return 0, false
	}

	// pos is the offset of the 4-byte "mvhd" tag itself; version+flags
	// follow immediately.
	verPos := pos + 4
	if verPos >= len(data) {
		return 0, false
	}
	version := data[verPos]

	var timescalePos, durationPos int
	switch version {
	case 0:
		// version(1) + flags(3) + creation_time(4) + modification_time(4)
		timescalePos = verPos + 4 + 4 + 4
		durationPos = timescalePos + 4
		if durationPos+4 > len(data) {
			return 0, false
		}
		timescale := binary.BigEndian.Uint32(data[timescalePos : timescalePos+4])
		dur := binary.BigEndian.Uint32(data[durationPos : durationPos+4])
		if timescale == 0 {
			return 0, false
		}
		return time.Duration(float64(dur) / float64(timescale) * float64(time.Second)), true
	case 1:
		// version(1) + flags(3) + creation_time(8) + modification_time(8)
		timescalePos = verPos + 4 + 8 + 8
		durationPos = timescalePos + 4
		if durationPos+8 > len(data) {
			return 0, false
		}
		timescale := binary.BigEndian.Uint32(data[timescalePos : timescalePos+4])
		dur := binary.BigEndian.Uint64(data[durationPos : durationPos+8])
		if timescale == 0 {
			return 0, false
		}
		return time.Duration(float64(dur) / float64(timescale) * float64(time.Second)), true
	default:
		return 0, false
	}
}

// parseAVI locates the RIFF avih chunk and reads dwMicroSecPerFrame and
// dwTotalFrames, whose product is the duration in microseconds. Grounded in
// original_source's _parse_avi_duration, correcting its field offset for
// dwTotalFrames (it reads dwMaxBytesPerSec instead, 12 bytes too early).
func parseAVI(data []byte) (time.Duration, bool) {
	pos := indexOf(data, "avih")
	if pos == -1 {
		return 0, false
	}

	// avih(4) + chunk size(4) = start of chunk payload.
	payload := pos + 8
	microsecPos := payload
	// dwMicroSecPerFrame, dwMaxBytesPerSec, dwPaddingGranularity, dwFlags
	// each 4 bytes, then dwTotalFrames.
	totalFramesPos := payload + 16
	if totalFramesPos+4 > len(data) || microsecPos+4 > len(data) {
		return 0, false
	}

	microsecPerFrame := binary.LittleEndian.Uint32(data[microsecPos : microsecPos+4])
	totalFrames := binary.LittleEndian.Uint32(data[totalFramesPos : totalFramesPos+4])
	if microsecPerFrame == 0 || totalFrames == 0 {
		return 0, false
	}

	return time.Duration(uint64(microsecPerFrame)*uint64(totalFrames)) * time.Microsecond, true
}

func indexOf(data []byte, tag string) int {
	return bytes.Index(data, []byte(tag))
}

// Format renders d as the res/@duration attribute value, HH:MM:SS, matching
// original_source's _seconds_to_hms.
func Format(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	totalSeconds := int64(d / time.Second)
	secs := totalSeconds % 60
	mins := (totalSeconds / 60) % 60
	hours := totalSeconds / 3600
	return fmt.Sprintf("%02d:%02d:%02d", hours, mins, secs)
}
