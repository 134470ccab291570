package disc

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/vchimishuk/chub/cue"

	"github.com/hansbonini/psxcdrom/pkg/common"
	"github.com/hansbonini/psxcdrom/pkg/psx"
)

// cueBackend serves tracks out of the BIN files named by a CUE sheet.
type cueBackend struct {
	files   []*os.File
	handles map[int]*os.File // by track number
	offsets map[int]int64    // byte offset of INDEX 01 in its file
}

func cueTime(t *cue.Time) int {
	if t == nil {
		return 0
	}
	return (t.Min*60+t.Sec)*common.FramesPerSecond + t.Frames
}

func cueMode(t cue.TrackDataType) (TrackMode, bool) {
	switch t {
	case cue.DataTypeAudio:
		return ModeAudio, true
	case cue.DataTypeMode1_2352:
		return Mode1, true
	case cue.DataTypeMode2_2352:
		return Mode2, true
	}
	return ModeAudio, false
}

func cueIndex(t *cue.Track, number int) (int, bool) {
	for _, idx := range t.Indexes {
		if idx.Number == number {
			return cueTime(idx.Time), true
		}
	}
	return 0, false
}

func openCUE(path string) (img *Image, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, common.FormatError(common.ErrFailedToOpenCue, err)
	}
	sheet, err := cue.Parse(f)
	f.Close()
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedImage, "%s: %v", common.ErrFailedToParseCue, err)
	}

	be := &cueBackend{handles: map[int]*os.File{}, offsets: map[int]int64{}}
	defer func() {
		if err != nil {
			be.close()
		}
	}()

	var specs []trackSpec
	dir := filepath.Dir(path)
	for _, file := range sheet.Files {
		bin, err := os.Open(filepath.Join(dir, file.Name))
		if err != nil {
			return nil, common.FormatError(common.ErrFailedToOpenBin, err)
		}
		be.files = append(be.files, bin)
		info, err := bin.Stat()
		if err != nil {
			return nil, common.FormatError(common.ErrFailedToOpenBin, err)
		}
		fileSectors := int(info.Size() / psx.SectorSize)

		for i, t := range file.Tracks {
			mode, ok := cueMode(t.DataType)
			if !ok {
				return nil, errors.Wrapf(ErrMalformedImage, "track %d: only 2352 byte raw sectors are supported", t.Number)
			}
			index1, ok := cueIndex(t, 1)
			if !ok {
				return nil, errors.Wrapf(ErrMalformedImage, "track %d has no INDEX 01", t.Number)
			}
			pregap := cueTime(t.Pregap)
			if index0, ok := cueIndex(t, 0); ok {
				if index0 > index1 {
					return nil, errors.Wrapf(ErrMalformedImage, "track %d INDEX 00 after INDEX 01", t.Number)
				}
				pregap += index1 - index0
			}

			// the data runs up to the next track's first index in the same file
			end := fileSectors
			if i+1 < len(file.Tracks) {
				next := file.Tracks[i+1]
				if n, ok := cueIndex(next, 0); ok {
					end = n
				} else if n, ok := cueIndex(next, 1); ok {
					end = n
				}
			}
			if end > fileSectors || end <= index1 {
				return nil, errors.Wrapf(ErrMalformedImage, "track %d runs past the end of %s", t.Number, file.Name)
			}

			be.handles[t.Number] = bin
			be.offsets[t.Number] = int64(index1) * psx.SectorSize
			specs = append(specs, trackSpec{
				number:  t.Number,
				mode:    mode,
				pregap:  pregap,
				sectors: end - index1,
				postgap: cueTime(t.Postgap),
			})
		}
	}

	tracks, err := buildTracks(specs)
	if err != nil {
		return nil, err
	}
	toc, err := NewTOC(tracks)
	if err != nil {
		return nil, err
	}
	return &Image{kind: KindCUE, toc: toc, be: be}, nil
}

func (b *cueBackend) readSector(track Track, index int, buf []byte) error {
	f, ok := b.handles[track.Number]
	if !ok {
		return errors.Wrapf(ErrNoSuchTrack, "track %d has no file", track.Number)
	}
	_, err := f.ReadAt(buf[:psx.SectorSize], b.offsets[track.Number]+int64(index)*psx.SectorSize)
	return err
}

func (b *cueBackend) close() error {
	var first error
	for _, f := range b.files {
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
	}
	b.files = nil
	return first
}
