package disc

import (
	"github.com/pkg/errors"
)

// TrackMode is the sector layout of every sector in a track.
type TrackMode int

// Track modes found on PlayStation discs.
const (
	ModeAudio TrackMode = iota
	Mode1
	Mode2
)

func (m TrackMode) String() string {
	switch m {
	case ModeAudio:
		return "AUDIO"
	case Mode1:
		return "MODE1"
	case Mode2:
		return "MODE2"
	}
	return "UNKNOWN"
}

// IsData reports whether sectors in this mode carry a sync/header.
func (m TrackMode) IsData() bool {
	return m != ModeAudio
}

// Track describes one entry of the table of contents. Start and End are
// absolute disc positions; End is exclusive and includes the postgap.
// Pregap and Postgap are lengths of regions that the backing container
// does not hold.
type Track struct {
	Number  int
	Mode    TrackMode
	Start   Time
	End     Time
	Pregap  Time
	Postgap Time
}

// EffectiveStart is the position of INDEX 01, where the track's real data
// begins.
func (t Track) EffectiveStart() Time {
	return t.Start.Add(t.Pregap)
}

// Length is the total length of the track, gaps included.
func (t Track) Length() Time {
	return t.End.Sub(t.Start)
}

// DataSectors is the number of sectors the container actually stores.
func (t Track) DataSectors() int {
	return t.End.Sectors() - t.Postgap.Sectors() - t.EffectiveStart().Sectors()
}

// Contains reports whether the absolute position abs lies in the track.
func (t Track) Contains(abs Time) bool {
	return !abs.Before(t.Start) && abs.Before(t.End)
}

// TOC is the immutable, ordered list of tracks of a disc.
type TOC struct {
	tracks []Track
}

// NewTOC validates that the tracks are numbered 1..n, time-ordered and
// non-overlapping.
func NewTOC(tracks []Track) (*TOC, error) {
	if len(tracks) == 0 {
		return nil, errors.Wrap(ErrMalformedImage, "no tracks")
	}
	for i, t := range tracks {
		if t.Number != i+1 {
			return nil, errors.Wrapf(ErrMalformedImage, "expecting track %d, found track %d", i+1, t.Number)
		}
		if !t.Start.Before(t.End) {
			return nil, errors.Wrapf(ErrMalformedImage, "track %d is empty (%s..%s)", t.Number, t.Start, t.End)
		}
		if t.DataSectors() <= 0 {
			return nil, errors.Wrapf(ErrMalformedImage, "track %d has no data sectors", t.Number)
		}
		if i > 0 && t.Start.Before(tracks[i-1].End) {
			return nil, errors.Wrapf(ErrMalformedImage, "track %d starts at %s before track %d ends at %s",
				t.Number, t.Start, tracks[i-1].Number, tracks[i-1].End)
		}
	}
	own := make([]Track, len(tracks))
	copy(own, tracks)
	return &TOC{tracks: own}, nil
}

// Tracks returns a copy of the track list.
func (toc *TOC) Tracks() []Track {
	ret := make([]Track, len(toc.tracks))
	copy(ret, toc.tracks)
	return ret
}

// TrackCount is the number of the last track.
func (toc *TOC) TrackCount() int {
	return len(toc.tracks)
}

// Track returns track n (1-based).
func (toc *TOC) Track(n int) (Track, bool) {
	if n < 1 || n > len(toc.tracks) {
		return Track{}, false
	}
	return toc.tracks[n-1], true
}

// TrackAt returns the track containing the absolute position abs.
func (toc *TOC) TrackAt(abs Time) (Track, bool) {
	for _, t := range toc.tracks {
		if t.Contains(abs) {
			return t, true
		}
	}
	return Track{}, false
}

// LeadOut is the absolute position right after the last track.
func (toc *TOC) LeadOut() Time {
	return toc.tracks[len(toc.tracks)-1].End
}
