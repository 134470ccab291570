package disc

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/hansbonini/psxcdrom/pkg/common"
	"github.com/hansbonini/psxcdrom/pkg/psx"
)

// Format selects the container parser used by Open.
type Format int

// Container formats.
const (
	FormatAuto Format = iota
	FormatCUE
	FormatCHD
)

// ParseFormat maps "auto", "cue" and "chd".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return FormatAuto, nil
	case "cue", "bin":
		return FormatCUE, nil
	case "chd":
		return FormatCHD, nil
	}
	return FormatAuto, common.FormatErrorString(common.ErrUnsupportedImageFormat, "%q", s)
}

// Kind is the active backend of an open Image.
type Kind int

// Backends.
const (
	KindCUE Kind = iota
	KindCHDFile
	KindCHDMemory
)

func (k Kind) String() string {
	switch k {
	case KindCUE:
		return "CUE/BIN"
	case KindCHDFile:
		return "CHD"
	case KindCHDMemory:
		return "CHD (memory)"
	}
	return "unknown"
}

// Options tune how an Image is opened.
type Options struct {
	Checksum   ChecksumPolicy
	CacheHunks int
}

// backend reads the data region of a track. index 0 is the sector at the
// track's INDEX 01.
type backend interface {
	readSector(track Track, index int, buf []byte) error
	close() error
}

// Image is an open disc: a table of contents and the container that holds
// the track data.
type Image struct {
	kind   Kind
	path   string
	toc    *TOC
	be     backend
	policy ChecksumPolicy
}

// Open opens a CUE sheet or a CHD container. FormatAuto picks by file
// extension, falling back to the CHD signature.
func Open(path string, format Format, opts Options) (*Image, error) {
	if format == FormatAuto {
		format = detectFormat(path)
	}
	var (
		img *Image
		err error
	)
	switch format {
	case FormatCUE:
		img, err = openCUE(path)
	case FormatCHD:
		img, err = openCHDFile(path, opts.CacheHunks)
	default:
		return nil, common.FormatErrorString(common.ErrUnsupportedImageFormat, "%s", path)
	}
	if err != nil {
		return nil, err
	}
	img.path = path
	img.policy = opts.Checksum
	common.LogInfo(common.InfoImageOpened, img.kind, path, img.toc.TrackCount(), img.toc.LeadOut())
	return img, nil
}

// OpenMemory opens a CHD container held in memory.
func OpenMemory(data []byte, opts Options) (*Image, error) {
	img, err := openCHD(bytes.NewReader(data), opts.CacheHunks)
	if err != nil {
		return nil, err
	}
	img.kind = KindCHDMemory
	img.path = "<memory>"
	img.policy = opts.Checksum
	return img, nil
}

func detectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return FormatCUE
	case ".chd":
		return FormatCHD
	}
	f, err := os.Open(path)
	if err != nil {
		return FormatCUE
	}
	defer f.Close()
	magic := make([]byte, 8)
	if _, err := io.ReadFull(f, magic); err == nil && string(magic) == "MComprHD" {
		return FormatCHD
	}
	return FormatCUE
}

// Kind returns the active backend.
func (img *Image) Kind() Kind {
	return img.kind
}

// Path returns the path the image was opened from.
func (img *Image) Path() string {
	return img.path
}

// TOC returns the table of contents.
func (img *Image) TOC() *TOC {
	return img.toc
}

// ChecksumPolicy returns what ReadSector does on EDC mismatch.
func (img *Image) ChecksumPolicy() ChecksumPolicy {
	return img.policy
}

// SetChecksumPolicy changes what ReadSector does on EDC mismatch.
func (img *Image) SetChecksumPolicy(p ChecksumPolicy) {
	img.policy = p
}

// Close releases file handles and caches.
func (img *Image) Close() error {
	return img.be.close()
}

// ReadSector fills buf (at least 2352 bytes) with the sector at the
// track-relative position rel of track number. Positions inside the
// pregap or postgap are synthesized; everything else comes from the
// container and passes the integrity check.
func (img *Image) ReadSector(number int, rel Time, buf []byte) error {
	track, ok := img.toc.Track(number)
	if !ok {
		return errors.Wrapf(ErrNoSuchTrack, "track %d of %d", number, img.toc.TrackCount())
	}
	if len(buf) < psx.SectorSize {
		return errors.Errorf("sector buffer of %d bytes", len(buf))
	}
	buf = buf[:psx.SectorSize]

	r := rel.Sectors()
	if r >= track.Length().Sectors() {
		return errors.Wrapf(ErrNoSuchTrack, "position %s past the end of track %d", rel, number)
	}
	if r < track.Pregap.Sectors() || r >= track.End.Sectors()-track.Postgap.Sectors()-track.Start.Sectors() {
		common.LogDebug(common.DebugSynthesizedGap, number, rel)
		synthesize(track, track.Start.Add(rel), buf)
		return nil
	}

	index := r - track.Pregap.Sectors()
	if err := img.be.readSector(track, index, buf); err != nil {
		return &ReadError{Track: number, Sector: index, Err: err}
	}
	if err := CheckSector(track.Mode, number, index, buf); err != nil {
		if img.policy == ChecksumLenient {
			common.LogWarn(common.WarnChecksumIgnored, err)
			return nil
		}
		return err
	}
	return nil
}

// ReadAt reads the sector at the absolute disc position abs.
func (img *Image) ReadAt(abs Time, buf []byte) error {
	track, ok := img.toc.TrackAt(abs)
	if !ok {
		return errors.Wrapf(ErrNoSuchTrack, "no track at %s", abs)
	}
	return img.ReadSector(track.Number, abs.Sub(track.Start), buf)
}

// ReadLBA reads by logical block address (absolute position minus the
// 2 second lead-in).
func (img *Image) ReadLBA(lba int, buf []byte) error {
	return img.ReadAt(TimeFromSectors(lba+common.LeadInFrames), buf)
}

// LBACount is the number of addressable logical blocks.
func (img *Image) LBACount() int {
	return img.toc.LeadOut().Sectors() - common.LeadInFrames
}

// synthesize fills a gap sector: a data header with mode 1 and no payload
// for data tracks, silence for audio.
func synthesize(track Track, abs Time, buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
	if !track.Mode.IsData() {
		return
	}
	copy(buf, psx.Sync[:])
	buf[psx.HeaderOffset], buf[psx.HeaderOffset+1], buf[psx.HeaderOffset+2] = abs.BCD()
	buf[psx.ModeOffset] = 0x01
}

// buildTracks lays out tracks back to back from 00:00:00. Track 1 always
// gets the 2 second lead-in as extra pregap.
func buildTracks(specs []trackSpec) ([]Track, error) {
	tracks := make([]Track, 0, len(specs))
	start := Time{}
	for i, s := range specs {
		pregap := s.pregap
		if i == 0 {
			pregap += common.LeadInFrames
		}
		end := start.Sectors() + pregap + s.sectors + s.postgap
		if end >= MaxSectors {
			return nil, errors.Wrapf(ErrMalformedImage, "track %d ends past 99:59:74", s.number)
		}
		t := Track{
			Number:  s.number,
			Mode:    s.mode,
			Start:   start,
			End:     TimeFromSectors(end),
			Pregap:  TimeFromSectors(pregap),
			Postgap: TimeFromSectors(s.postgap),
		}
		common.LogDebug(common.DebugTrackParsed, t.Number, t.Mode, t.Start, pregap, s.sectors, s.postgap)
		tracks = append(tracks, t)
		start = t.End
	}
	return tracks, nil
}

// trackSpec is what a backend learns about a track before layout.
type trackSpec struct {
	number  int
	mode    TrackMode
	pregap  int
	sectors int
	postgap int
}
