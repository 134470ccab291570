package disc

import (
	"io"

	"github.com/pkg/errors"

	"github.com/hansbonini/psxcdrom/pkg/chd"
	"github.com/hansbonini/psxcdrom/pkg/common"
	"github.com/hansbonini/psxcdrom/pkg/psx"
)

// chdBackend reads CD frames out of a CHD container. Every frame occupies
// one unit (2352 bytes of sector data followed by 96 of subcode).
type chdBackend struct {
	file   *chd.File
	unit   int64
	frames map[int]int64 // first data frame of each track
}

func chdMode(t chd.TrackInfo) (TrackMode, bool) {
	switch t.Type {
	case "MODE1_RAW":
		return Mode1, true
	case "MODE2_RAW":
		return Mode2, true
	case "AUDIO":
		return ModeAudio, true
	}
	return ModeAudio, false
}

func openCHDFile(path string, cacheHunks int) (*Image, error) {
	f, err := chd.Open(path, cacheHunks)
	if err != nil {
		return nil, common.FormatError(common.ErrFailedToOpenCHD, err)
	}
	img, err := newCHDImage(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	img.kind = KindCHDFile
	return img, nil
}

func openCHD(r io.ReaderAt, cacheHunks int) (*Image, error) {
	f, err := chd.New(r, cacheHunks)
	if err != nil {
		return nil, common.FormatError(common.ErrFailedToOpenCHD, err)
	}
	img, err := newCHDImage(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return img, nil
}

func newCHDImage(f *chd.File) (*Image, error) {
	infos, err := f.Tracks()
	if err != nil {
		return nil, errors.Wrap(ErrMalformedImage, err.Error())
	}
	h := f.Header()
	be := &chdBackend{file: f, unit: int64(h.UnitBytes), frames: map[int]int64{}}
	if be.unit < psx.SectorSize {
		return nil, errors.Wrapf(ErrMalformedImage, "unit size %d is not a CD frame", h.UnitBytes)
	}

	var specs []trackSpec
	var frame int64
	for _, t := range infos {
		mode, ok := chdMode(t)
		if !ok {
			return nil, errors.Wrapf(ErrMalformedImage, "track %d type %s is not supported", t.Number, t.Type)
		}
		sectors := t.Frames
		first := frame
		if t.PregapInFile() {
			first += int64(t.Pregap)
			sectors -= t.Pregap
		}
		be.frames[t.Number] = first
		specs = append(specs, trackSpec{
			number:  t.Number,
			mode:    mode,
			pregap:  t.Pregap,
			sectors: sectors,
			postgap: t.Postgap,
		})
		frame += int64(t.Frames)
		frame += int64((chd.TrackPadding - t.Frames%chd.TrackPadding) % chd.TrackPadding)
	}
	if uint64(frame)*uint64(be.unit) > h.LogicalBytes+uint64(chd.TrackPadding)*uint64(be.unit) {
		return nil, errors.Wrapf(ErrMalformedImage, "tracks need %d frames, container holds %d",
			frame, h.LogicalBytes/uint64(be.unit))
	}

	tracks, err := buildTracks(specs)
	if err != nil {
		return nil, err
	}
	toc, err := NewTOC(tracks)
	if err != nil {
		return nil, err
	}
	return &Image{toc: toc, be: be}, nil
}

func (b *chdBackend) readSector(track Track, index int, buf []byte) error {
	first, ok := b.frames[track.Number]
	if !ok {
		return errors.Wrapf(ErrNoSuchTrack, "track %d not in container", track.Number)
	}
	if _, err := b.file.ReadAt(buf[:psx.SectorSize], (first+int64(index))*b.unit); err != nil {
		return err
	}
	// audio is stored big-endian
	if !track.Mode.IsData() {
		for i := 0; i+1 < psx.SectorSize; i += 2 {
			buf[i], buf[i+1] = buf[i+1], buf[i]
		}
	}
	return nil
}

func (b *chdBackend) close() error {
	return b.file.Close()
}
