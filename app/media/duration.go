// Package media works with produced audio files: measures mp3 duration and writes id3 tags.
package media

import (
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/tcolgate/mp3"
)

// Meter measures audio length by walking mp3 frames. Other formats are not decoded.
type Meter struct{}

// Supported reports whether the file's format can be measured
func (m *Meter) Supported(fname string) bool {
	return strings.EqualFold(filepath.Ext(fname), ".mp3")
}

// Duration returns length of the file in seconds with millisecond precision.
// Unsupported, missing or undecodable files report 0.
func (m *Meter) Duration(fname string) float64 {
	if !m.Supported(fname) {
		log.Printf("[DEBUG] duration of %s not measured, only mp3 supported", fname)
		return 0
	}
	fh, err := os.Open(fname) //nolint:gosec // file produced by the extractor
	if err != nil {
		log.Printf("[WARN] can't measure duration of %s: %v", fname, err)
		return 0
	}
	defer fh.Close() // nolint

	d, frames, err := m.scan(fh)
	if err != nil {
		log.Printf("[WARN] can't measure duration of %s: %v", fname, err)
		return 0
	}
	log.Printf("[DEBUG] measured %s, %d frames, %v", fname, frames, d)
	return math.Round(d.Seconds()*1000) / 1000
}

// scan sums durations of all frames. A stream cut in the middle of a frame keeps
// the length of the frames decoded so far.
func (m *Meter) scan(r io.Reader) (total time.Duration, frames int, err error) {
	dec := mp3.NewDecoder(r)
	var frame mp3.Frame
	var skipped int
	for {
		err = dec.Decode(&frame, &skipped)
		switch {
		case err == nil:
			total += frame.Duration()
			frames++
		case errors.Is(err, io.EOF):
			return total, frames, nil
		case errors.Is(err, io.ErrUnexpectedEOF) && frames > 0:
			return total, frames, nil
		default:
			return 0, frames, err
		}
	}
}
