package disc

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/hansbonini/psxcdrom/pkg/psx"
)

// edcPolynomial is the reversed CD-ROM EDC polynomial
// (x^32 + x^31 + x^16 + x^15 + x^4 + x^3 + x + 1).
const edcPolynomial = 0xD8018001

var edcTable = crc32.MakeTable(edcPolynomial)

// ComputeEDC returns the EDC of data. The CD variant starts from zero and
// has no final inversion, so the standard library's pre/post inversion is
// undone on both ends.
func ComputeEDC(data []byte) uint32 {
	return ^crc32.Update(0xFFFFFFFF, edcTable, data)
}

// edcWindow returns the digest window and the checksum offset for a raw
// sector of the given track mode. ok is false when the sector carries no
// checksum to verify.
func edcWindow(mode TrackMode, sector []byte) (start, end int, ok bool) {
	switch mode {
	case Mode1:
		return 0, psx.Mode1EDCOffset, true
	case Mode2:
		if psx.ReadSubheader(sector).IsForm2() {
			return psx.SubheaderOffset, psx.Form2EDCOffset, true
		}
		return psx.SubheaderOffset, psx.Form1EDCOffset, true
	}
	return 0, 0, false
}

// CheckSector validates the EDC of a raw 2352-byte sector. Audio sectors
// and Form 2 sectors with a zero checksum field always pass.
func CheckSector(mode TrackMode, track, sector int, data []byte) error {
	if len(data) < psx.SectorSize {
		return &ChecksumError{Track: track, Sector: sector}
	}
	start, end, ok := edcWindow(mode, data)
	if !ok {
		return nil
	}
	expected := binary.LittleEndian.Uint32(data[end : end+4])
	if end == psx.Form2EDCOffset && expected == 0 {
		return nil
	}
	actual := ComputeEDC(data[start:end])
	if actual != expected {
		return &ChecksumError{Track: track, Sector: sector, Expected: expected, Actual: actual}
	}
	return nil
}

// ChecksumPolicy selects what ReadSector does with a ChecksumError.
type ChecksumPolicy int

const (
	// ChecksumStrict returns the error to the caller.
	ChecksumStrict ChecksumPolicy = iota
	// ChecksumLenient logs the mismatch and delivers the sector anyway.
	ChecksumLenient
)

// ParseChecksumPolicy maps the configuration strings "strict" and
// "lenient" (or empty, meaning strict).
func ParseChecksumPolicy(s string) (ChecksumPolicy, bool) {
	switch s {
	case "", "strict":
		return ChecksumStrict, true
	case "lenient":
		return ChecksumLenient, true
	}
	return ChecksumStrict, false
}
