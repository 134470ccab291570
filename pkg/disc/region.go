package disc

import (
	"strings"

	"github.com/hansbonini/psxcdrom/pkg/psx"
)

// Region is the licence region of a PlayStation disc.
type Region int

// Regions, in the order GetID reports them.
const (
	RegionUnknown Region = iota
	RegionJapan
	RegionAmerica
	RegionEurope
)

func (r Region) String() string {
	switch r {
	case RegionJapan:
		return "japan"
	case RegionAmerica:
		return "america"
	case RegionEurope:
		return "europe"
	}
	return "unknown"
}

// Letter is the last byte of the "SCEx" licence string returned by GetID.
func (r Region) Letter() byte {
	switch r {
	case RegionJapan:
		return 'I'
	case RegionAmerica:
		return 'A'
	case RegionEurope:
		return 'E'
	}
	return 0
}

// ParseRegion maps configuration strings. "auto" and "" yield
// RegionUnknown, meaning detect from the disc.
func ParseRegion(s string) (Region, bool) {
	switch strings.ToLower(s) {
	case "", "auto":
		return RegionUnknown, true
	case "japan", "jp", "ntsc-j":
		return RegionJapan, true
	case "america", "us", "usa", "ntsc-u":
		return RegionAmerica, true
	case "europe", "eu", "pal":
		return RegionEurope, true
	}
	return RegionUnknown, false
}

// licenceSector is 00:02:04, where the licence text is recorded.
var licenceSector = Time{Minutes: 0, Seconds: 2, Frames: 4}

// DetectRegion reads the licence string of the first data track.
// RegionUnknown with a nil error means the disc is readable but unlicensed.
func DetectRegion(img *Image) (Region, error) {
	track, ok := img.TOC().Track(1)
	if !ok || !track.Mode.IsData() {
		return RegionUnknown, nil
	}
	buf := make([]byte, psx.SectorSize)
	if err := img.ReadAt(licenceSector, buf); err != nil {
		return RegionUnknown, err
	}

	// keep letters only, the text is padded with spaces and line breaks
	var b strings.Builder
	for _, c := range buf[psx.DataOffset : psx.DataOffset+76] {
		if c >= 'A' && c <= 'z' {
			b.WriteByte(c)
		}
	}
	switch b.String() {
	case "LicensedbySonyComputerEntertainmentInc":
		return RegionJapan, nil
	case "LicensedbySonyComputerEntertainmentAmerica":
		return RegionAmerica, nil
	case "LicensedbySonyComputerEntertainmentEurope":
		return RegionEurope, nil
	}
	return RegionUnknown, nil
}
