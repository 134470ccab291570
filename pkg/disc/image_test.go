package disc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hansbonini/psxcdrom/pkg/psx"
)

const licenceText = "          Licensed  by          Sony Computer Entertainment Amer  ica           "

// form1Sector builds a Mode 2 Form 1 sector at abs with a valid EDC.
func form1Sector(abs Time, fill byte) []byte {
	s := make([]byte, psx.SectorSize)
	copy(s, psx.Sync[:])
	s[12], s[13], s[14] = abs.BCD()
	s[15] = 2
	s[18], s[22] = psx.SubmodeData, psx.SubmodeData
	for i := psx.DataOffset; i < psx.DataOffset+psx.DataSize; i++ {
		s[i] = fill + byte(i)
	}
	binary.LittleEndian.PutUint32(s[psx.Form1EDCOffset:], ComputeEDC(s[16:psx.Form1EDCOffset]))
	return s
}

func form2Sector(abs Time, withEDC bool) []byte {
	s := make([]byte, psx.SectorSize)
	copy(s, psx.Sync[:])
	s[12], s[13], s[14] = abs.BCD()
	s[15] = 2
	s[18], s[22] = psx.SubmodeForm2|psx.SubmodeAudio|psx.SubmodeRealTime, psx.SubmodeForm2|psx.SubmodeAudio|psx.SubmodeRealTime
	for i := psx.DataOffset; i < psx.Form2EDCOffset; i++ {
		s[i] = byte(i * 5)
	}
	if withEDC {
		binary.LittleEndian.PutUint32(s[psx.Form2EDCOffset:], ComputeEDC(s[16:psx.Form2EDCOffset]))
	}
	return s
}

func mode1Sector(abs Time) []byte {
	s := make([]byte, psx.SectorSize)
	copy(s, psx.Sync[:])
	s[12], s[13], s[14] = abs.BCD()
	s[15] = 1
	for i := 16; i < 16+psx.DataSize; i++ {
		s[i] = byte(i)
	}
	binary.LittleEndian.PutUint32(s[psx.Mode1EDCOffset:], ComputeEDC(s[:psx.Mode1EDCOffset]))
	return s
}

// writeTestDisc lays out a 20 sector Mode 2 data track followed by an
// audio track with a 2 sector INDEX 00 gap and 8 sectors of audio, all in
// one BIN file.
func writeTestDisc(t *testing.T) (string, []byte) {
	t.Helper()
	dir := t.TempDir()

	var bin []byte
	for i := 0; i < 20; i++ {
		s := form1Sector(TimeFromSectors(150+i), byte(i))
		if i == 4 {
			copy(s[psx.DataOffset:], licenceText)
			binary.LittleEndian.PutUint32(s[psx.Form1EDCOffset:], ComputeEDC(s[16:psx.Form1EDCOffset]))
		}
		if i == 7 {
			s = form2Sector(TimeFromSectors(150+i), true)
		}
		if i == 8 {
			s = form2Sector(TimeFromSectors(150+i), false)
		}
		bin = append(bin, s...)
	}
	for i := 0; i < 10; i++ {
		audio := make([]byte, psx.SectorSize)
		for j := range audio {
			audio[j] = byte(i + j)
		}
		bin = append(bin, audio...)
	}

	sheet := `FILE "test.bin" BINARY
  TRACK 01 MODE2/2352
    INDEX 01 00:00:00
  TRACK 02 AUDIO
    INDEX 00 00:00:20
    INDEX 01 00:00:22
`
	if err := os.WriteFile(filepath.Join(dir, "test.bin"), bin, 0644); err != nil {
		t.Fatal(err)
	}
	cuePath := filepath.Join(dir, "test.cue")
	if err := os.WriteFile(cuePath, []byte(sheet), 0644); err != nil {
		t.Fatal(err)
	}
	return cuePath, bin
}

func openTestDisc(t *testing.T) (*Image, []byte) {
	t.Helper()
	path, bin := writeTestDisc(t)
	img, err := Open(path, FormatAuto, Options{})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { img.Close() })
	return img, bin
}

func TestOpenCUELayout(t *testing.T) {
	img, _ := openTestDisc(t)
	if img.Kind() != KindCUE {
		t.Errorf("Kind() = %s, want CUE/BIN", img.Kind())
	}

	want := []Track{
		{Number: 1, Mode: Mode2, Start: Time{}, End: TimeFromSectors(170), Pregap: TimeFromSectors(150)},
		{Number: 2, Mode: ModeAudio, Start: TimeFromSectors(170), End: TimeFromSectors(180), Pregap: TimeFromSectors(2)},
	}
	got := img.TOC().Tracks()
	if len(got) != len(want) {
		t.Fatalf("got %d tracks, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("track %d = %+v, want %+v", i+1, got[i], want[i])
		}
	}
	if lo := img.TOC().LeadOut(); lo != TimeFromSectors(180) {
		t.Errorf("LeadOut() = %s, want %s", lo, TimeFromSectors(180))
	}
	if tr, ok := img.TOC().TrackAt(TimeFromSectors(171)); !ok || tr.Number != 2 {
		t.Errorf("TrackAt(171) = %d, %v", tr.Number, ok)
	}
	if img.LBACount() != 30 {
		t.Errorf("LBACount() = %d, want 30", img.LBACount())
	}
}

func TestReadSectorReturnsDiskBytes(t *testing.T) {
	img, bin := openTestDisc(t)
	buf := make([]byte, psx.SectorSize)

	tests := []struct {
		name  string
		track int
		rel   int
		file  int
	}{
		{"first data sector", 1, 150, 0},
		{"licence sector", 1, 154, 4},
		{"form2 with EDC", 1, 157, 7},
		{"form2 without EDC", 1, 158, 8},
		{"last data sector", 1, 169, 19},
		{"audio INDEX 01", 2, 2, 22},
		{"last audio", 2, 9, 29},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := img.ReadSector(tt.track, TimeFromSectors(tt.rel), buf); err != nil {
				t.Fatalf("ReadSector() error = %v", err)
			}
			want := bin[tt.file*psx.SectorSize : (tt.file+1)*psx.SectorSize]
			if !bytes.Equal(buf, want) {
				t.Errorf("ReadSector(%d, %d) does not match file sector %d", tt.track, tt.rel, tt.file)
			}
		})
	}
}

func TestReadSectorSynthesizesGaps(t *testing.T) {
	img, _ := openTestDisc(t)
	buf := make([]byte, psx.SectorSize)
	for i := range buf {
		buf[i] = 0xAA
	}

	if err := img.ReadSector(1, TimeFromSectors(10), buf); err != nil {
		t.Fatalf("ReadSector() error = %v", err)
	}
	if !bytes.Equal(buf[:12], psx.Sync[:]) {
		t.Errorf("sync = % X", buf[:12])
	}
	if buf[12] != 0x00 || buf[13] != 0x00 || buf[14] != 0x10 {
		t.Errorf("address = % X, want 00 00 10", buf[12:15])
	}
	if buf[15] != 0x01 {
		t.Errorf("mode = %d, want 1", buf[15])
	}
	for i, b := range buf[16:] {
		if b != 0 {
			t.Fatalf("byte %d = 0x%02X, want 0", 16+i, b)
		}
	}

	for i := range buf {
		buf[i] = 0xAA
	}
	if err := img.ReadSector(2, TimeFromSectors(1), buf); err != nil {
		t.Fatalf("ReadSector() error = %v", err)
	}
	for i, b := range buf {
		if b != 0 {
			t.Fatalf("audio pregap byte %d = 0x%02X, want 0", i, b)
		}
	}
}

func TestReadSectorChecksum(t *testing.T) {
	path, bin := writeTestDisc(t)
	const sector = 3
	base := sector * psx.SectorSize
	stored := binary.LittleEndian.Uint32(bin[base+psx.Form1EDCOffset:])

	tests := []struct {
		name    string
		offset  int
		wantErr bool
	}{
		{"subheader", 18, true},
		{"user data", 1000, true},
		{"last digest byte", psx.Form1EDCOffset - 1, true},
		{"sync", 5, false},
		{"address", 13, false},
		{"ecc", 2200, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := append([]byte{}, bin...)
			data[base+tt.offset] ^= 0x55
			if err := os.WriteFile(filepath.Join(filepath.Dir(path), "test.bin"), data, 0644); err != nil {
				t.Fatal(err)
			}
			img, err := Open(path, FormatCUE, Options{})
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer img.Close()

			buf := make([]byte, psx.SectorSize)
			err = img.ReadSector(1, TimeFromSectors(150+sector), buf)
			if !tt.wantErr {
				if err != nil {
					t.Errorf("ReadSector() error = %v, want nil", err)
				}
				return
			}
			var ce *ChecksumError
			if !errors.As(err, &ce) {
				t.Fatalf("ReadSector() error = %v, want *ChecksumError", err)
			}
			if ce.Track != 1 || ce.Sector != sector {
				t.Errorf("error position = track %d sector %d", ce.Track, ce.Sector)
			}
			if ce.Expected != stored {
				t.Errorf("Expected = 0x%08X, want 0x%08X", ce.Expected, stored)
			}
			if actual := ComputeEDC(data[base+16 : base+psx.Form1EDCOffset]); ce.Actual != actual {
				t.Errorf("Actual = 0x%08X, want 0x%08X", ce.Actual, actual)
			}
		})
	}
}

func TestLenientChecksumPolicy(t *testing.T) {
	path, bin := writeTestDisc(t)
	bin[2*psx.SectorSize+100] ^= 0xFF
	if err := os.WriteFile(filepath.Join(filepath.Dir(path), "test.bin"), bin, 0644); err != nil {
		t.Fatal(err)
	}
	img, err := Open(path, FormatCUE, Options{Checksum: ChecksumLenient})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer img.Close()

	var logs bytes.Buffer
	log.SetOutput(&logs)
	defer log.SetOutput(os.Stderr)

	buf := make([]byte, psx.SectorSize)
	if err := img.ReadSector(1, TimeFromSectors(152), buf); err != nil {
		t.Fatalf("ReadSector() error = %v, want nil", err)
	}
	if !strings.Contains(logs.String(), "lenient") {
		t.Errorf("expected a lenient checksum warning, got %q", logs.String())
	}

	img.SetChecksumPolicy(ChecksumStrict)
	var ce *ChecksumError
	if err := img.ReadSector(1, TimeFromSectors(152), buf); !errors.As(err, &ce) {
		t.Errorf("strict ReadSector() error = %v, want *ChecksumError", err)
	}
}

func TestCheckSectorModes(t *testing.T) {
	m1 := mode1Sector(TimeFromSectors(200))
	if err := CheckSector(Mode1, 1, 0, m1); err != nil {
		t.Errorf("Mode1 CheckSector() error = %v", err)
	}
	m1[psx.HeaderOffset] ^= 1 // the Mode 1 digest covers the header
	if err := CheckSector(Mode1, 1, 0, m1); err == nil {
		t.Error("Mode1 CheckSector() passed with a corrupted header")
	}

	f2 := form2Sector(TimeFromSectors(200), true)
	f2[psx.Form2EDCOffset-1] ^= 1
	if err := CheckSector(Mode2, 1, 0, f2); err == nil {
		t.Error("Form2 CheckSector() passed with corrupted data")
	}

	noEDC := form2Sector(TimeFromSectors(200), false)
	noEDC[100] ^= 1
	if err := CheckSector(Mode2, 1, 0, noEDC); err != nil {
		t.Errorf("Form2 without EDC CheckSector() error = %v", err)
	}

	if err := CheckSector(ModeAudio, 2, 0, make([]byte, psx.SectorSize)); err != nil {
		t.Errorf("audio CheckSector() error = %v", err)
	}
}

func TestReadSectorErrors(t *testing.T) {
	img, _ := openTestDisc(t)
	buf := make([]byte, psx.SectorSize)

	if err := img.ReadSector(3, Time{}, buf); !errors.Is(err, ErrNoSuchTrack) {
		t.Errorf("ReadSector(3) error = %v, want ErrNoSuchTrack", err)
	}
	if err := img.ReadSector(2, TimeFromSectors(10), buf); !errors.Is(err, ErrNoSuchTrack) {
		t.Errorf("ReadSector past the track error = %v, want ErrNoSuchTrack", err)
	}
	if err := img.ReadAt(TimeFromSectors(180), buf); !errors.Is(err, ErrNoSuchTrack) {
		t.Errorf("ReadAt(lead-out) error = %v, want ErrNoSuchTrack", err)
	}
}

func TestOpenMalformedCUE(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.bin"), make([]byte, 4*psx.SectorSize), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		sheet string
	}{
		{"no index 01", "FILE \"a.bin\" BINARY\n  TRACK 01 MODE2/2352\n    INDEX 00 00:00:00\n"},
		{"cooked sectors", "FILE \"a.bin\" BINARY\n  TRACK 01 MODE1/2048\n    INDEX 01 00:00:00\n"},
		{"past end of file", "FILE \"a.bin\" BINARY\n  TRACK 01 MODE2/2352\n    INDEX 01 00:00:10\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "a.cue")
			if err := os.WriteFile(path, []byte(tt.sheet), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Open(path, FormatCUE, Options{}); !errors.Is(err, ErrMalformedImage) {
				t.Errorf("Open() error = %v, want ErrMalformedImage", err)
			}
		})
	}
}

func TestDetectRegion(t *testing.T) {
	img, _ := openTestDisc(t)
	region, err := DetectRegion(img)
	if err != nil {
		t.Fatalf("DetectRegion() error = %v", err)
	}
	if region != RegionAmerica || region.Letter() != 'A' {
		t.Errorf("DetectRegion() = %s, want america", region)
	}
}

func TestParseRegionAndFormat(t *testing.T) {
	if r, ok := ParseRegion("PAL"); !ok || r != RegionEurope {
		t.Errorf("ParseRegion(PAL) = %s, %v", r, ok)
	}
	if _, ok := ParseRegion("mars"); ok {
		t.Error("ParseRegion(mars) succeeded")
	}
	if f, err := ParseFormat("CHD"); err != nil || f != FormatCHD {
		t.Errorf("ParseFormat(CHD) = %d, %v", f, err)
	}
	if _, err := ParseFormat("iso"); err == nil {
		t.Error("ParseFormat(iso) succeeded")
	}
	if p, ok := ParseChecksumPolicy("lenient"); !ok || p != ChecksumLenient {
		t.Errorf("ParseChecksumPolicy(lenient) = %d, %v", p, ok)
	}
}
