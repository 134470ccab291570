package chd

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/hansbonini/psxcdrom/pkg/common"
)

// Metadata tags
const (
	TagCDTrack  uint32 = 0x43485452 // CHTR
	TagCDTrack2 uint32 = 0x43485432 // CHT2
	TagGDTrack  uint32 = 0x43484744 // CHGD
)

// TrackPadding is the frame multiple each CD track is padded to.
const TrackPadding = 4

const metaEntryHeader = 16

// Metadata is one entry of the metadata chain.
type Metadata struct {
	Tag   uint32
	Flags uint8
	Data  []byte
}

// TrackInfo is a parsed CD track record.
type TrackInfo struct {
	Number     int
	Type       string
	Subtype    string
	Frames     int
	Pregap     int
	PregapType string
	PregapSub  string
	Postgap    int
}

// PregapInFile reports whether the pregap frames are stored in the
// container ahead of the track data.
func (t TrackInfo) PregapInFile() bool {
	return strings.HasPrefix(t.PregapType, "V")
}

func readMetadata(r io.ReaderAt, offset uint64) ([]Metadata, error) {
	var entries []Metadata
	seen := map[uint64]bool{}
	for offset != 0 {
		if seen[offset] {
			return nil, errors.Wrapf(ErrInvalidMetadata, "loop at offset %d", offset)
		}
		seen[offset] = true

		var hdr [metaEntryHeader]byte
		if _, err := r.ReadAt(hdr[:], int64(offset)); err != nil {
			return nil, errors.Wrapf(ErrInvalidMetadata, "entry at %d: %v", offset, err)
		}
		m := Metadata{
			Tag:   binary.BigEndian.Uint32(hdr[0:4]),
			Flags: hdr[4],
			Data:  make([]byte, common.Uint24BE(hdr[5:8])),
		}
		if _, err := r.ReadAt(m.Data, int64(offset)+metaEntryHeader); err != nil {
			return nil, errors.Wrapf(ErrInvalidMetadata, "entry data at %d: %v", offset, err)
		}
		common.LogDebug(common.DebugMetadataEntry, CodecName(m.Tag), len(m.Data))
		entries = append(entries, m)
		offset = binary.BigEndian.Uint64(hdr[8:16])
	}
	return entries, nil
}

// parseTrackInfo parses CHT2 and CHTR text records. CHTR records carry no
// gap information.
func parseTrackInfo(m Metadata) (TrackInfo, error) {
	text := strings.TrimRight(string(m.Data), "\x00")
	var t TrackInfo
	switch m.Tag {
	case TagCDTrack2:
		if _, err := fmt.Sscanf(text, "TRACK:%d TYPE:%s SUBTYPE:%s FRAMES:%d PREGAP:%d PGTYPE:%s PGSUB:%s POSTGAP:%d",
			&t.Number, &t.Type, &t.Subtype, &t.Frames, &t.Pregap, &t.PregapType, &t.PregapSub, &t.Postgap); err != nil {
			return t, errors.Wrapf(ErrInvalidMetadata, "%q: %v", text, err)
		}
	case TagCDTrack:
		if _, err := fmt.Sscanf(text, "TRACK:%d TYPE:%s SUBTYPE:%s FRAMES:%d",
			&t.Number, &t.Type, &t.Subtype, &t.Frames); err != nil {
			return t, errors.Wrapf(ErrInvalidMetadata, "%q: %v", text, err)
		}
	default:
		return t, errors.Wrapf(ErrInvalidMetadata, "tag %s is not a CD track", CodecName(m.Tag))
	}
	if t.Frames <= 0 || t.Pregap < 0 || t.Postgap < 0 {
		return t, errors.Wrapf(ErrInvalidMetadata, "%q", text)
	}
	return t, nil
}

// Tracks returns the CD track records, ordered as stored.
func (f *File) Tracks() ([]TrackInfo, error) {
	var tracks []TrackInfo
	for _, m := range f.meta {
		if m.Tag == TagGDTrack {
			return nil, errors.Wrap(ErrInvalidMetadata, "GD-ROM images are not CD images")
		}
		if m.Tag != TagCDTrack && m.Tag != TagCDTrack2 {
			continue
		}
		t, err := parseTrackInfo(m)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, t)
	}
	if len(tracks) == 0 {
		return nil, errors.Wrap(ErrInvalidMetadata, "no CD track metadata")
	}
	return tracks, nil
}
