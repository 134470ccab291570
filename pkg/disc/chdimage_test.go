package disc

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/hansbonini/psxcdrom/pkg/psx"
)

const (
	testFrameBytes = psx.SectorSize + psx.SubcodeSize
	testHunkFrames = 4
)

// buildCHD stores frames uncompressed, four per hunk, followed by a CHT2
// metadata chain.
func buildCHD(frames [][]byte, tracks []string) []byte {
	hunkBytes := testHunkFrames * testFrameBytes
	hunks := (len(frames) + testHunkFrames - 1) / testHunkFrames

	header := make([]byte, 124)
	copy(header, "MComprHD")
	binary.BigEndian.PutUint32(header[8:], 124)
	binary.BigEndian.PutUint32(header[12:], 5)
	binary.BigEndian.PutUint64(header[32:], uint64(hunks*hunkBytes))
	binary.BigEndian.PutUint64(header[40:], 124)
	binary.BigEndian.PutUint32(header[56:], uint32(hunkBytes))
	binary.BigEndian.PutUint32(header[60:], testFrameBytes)

	// hunk data starts at hunk 1, after the header and map
	rawMap := make([]byte, hunks*4)
	for i := 0; i < hunks; i++ {
		binary.BigEndian.PutUint32(rawMap[i*4:], uint32(i+1))
	}
	out := append(header, rawMap...)
	out = append(out, make([]byte, hunkBytes-len(out))...)
	for i := 0; i < hunks*testHunkFrames; i++ {
		frame := make([]byte, testFrameBytes)
		if i < len(frames) && frames[i] != nil {
			copy(frame, frames[i])
		}
		out = append(out, frame...)
	}

	metaOffset := uint64(len(out))
	binary.BigEndian.PutUint64(out[48:], metaOffset)
	for i, text := range tracks {
		data := append([]byte(text), 0)
		entry := make([]byte, 16)
		copy(entry, "CHT2")
		entry[7] = byte(len(data))
		if i < len(tracks)-1 {
			binary.BigEndian.PutUint64(entry[8:], uint64(len(out)+16+len(data)))
		}
		out = append(out, entry...)
		out = append(out, data...)
	}
	return out
}

func TestOpenMemoryCHD(t *testing.T) {
	audio := make([]byte, psx.SectorSize)
	for i := range audio {
		audio[i] = byte(i)
	}
	frames := [][]byte{
		mode1Sector(TimeFromSectors(150)),
		mode1Sector(TimeFromSectors(151)),
		mode1Sector(TimeFromSectors(152)),
		nil,      // padding
		nil, nil, // stored pregap
		audio, audio,
	}
	image := buildCHD(frames, []string{
		"TRACK:1 TYPE:MODE1_RAW SUBTYPE:NONE FRAMES:3 PREGAP:0 PGTYPE:MODE1 PGSUB:RW POSTGAP:0",
		"TRACK:2 TYPE:AUDIO SUBTYPE:NONE FRAMES:4 PREGAP:2 PGTYPE:VAUDIO PGSUB:RW POSTGAP:0",
	})

	img, err := OpenMemory(image, Options{CacheHunks: 1})
	if err != nil {
		t.Fatalf("OpenMemory() error = %v", err)
	}
	defer img.Close()

	if img.Kind() != KindCHDMemory {
		t.Errorf("Kind() = %s", img.Kind())
	}
	tracks := img.TOC().Tracks()
	if len(tracks) != 2 {
		t.Fatalf("got %d tracks", len(tracks))
	}
	if tracks[0].End != TimeFromSectors(153) || tracks[1].Start != TimeFromSectors(153) ||
		tracks[1].Pregap != TimeFromSectors(2) || tracks[1].End != TimeFromSectors(157) {
		t.Errorf("tracks = %+v", tracks)
	}

	buf := make([]byte, psx.SectorSize)
	if err := img.ReadSector(1, TimeFromSectors(151), buf); err != nil {
		t.Fatalf("ReadSector(1) error = %v", err)
	}
	if !bytes.Equal(buf, frames[1]) {
		t.Error("data sector mismatch")
	}

	if err := img.ReadSector(2, TimeFromSectors(3), buf); err != nil {
		t.Fatalf("ReadSector(2) error = %v", err)
	}
	for i := 0; i < psx.SectorSize; i += 2 {
		if buf[i] != audio[i+1] || buf[i+1] != audio[i] {
			t.Fatalf("audio bytes %d not swapped: % X", i, buf[i:i+2])
		}
	}
}
