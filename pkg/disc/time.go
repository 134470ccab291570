// Package disc turns CUE/BIN sheets and CHD containers into addressable
// 2352-byte CD sectors. It owns the disc geometry (Time, Track, TOC), the
// sector integrity checker and the Image type that ties a table of
// contents to one of the backends.
package disc

import (
	"fmt"

	"github.com/hansbonini/psxcdrom/pkg/common"
)

// MaxSectors is the number of addressable positions between 00:00:00 and
// 99:59:74 inclusive.
const MaxSectors = 100 * common.FramesPerMinute

// Time is a disc position or a duration in minutes, seconds and frames
// (75 frames per second). The zero value is 00:00:00.
type Time struct {
	Minutes uint8
	Seconds uint8
	Frames  uint8
}

// NewTime validates and builds a Time from binary (not BCD) components.
func NewTime(minutes, seconds, frames uint8) (Time, error) {
	if minutes > 99 || seconds >= 60 || frames >= common.FramesPerSecond {
		return Time{}, common.FormatErrorString(common.ErrInvalidPosition, "%02d:%02d:%02d", minutes, seconds, frames)
	}
	return Time{Minutes: minutes, Seconds: seconds, Frames: frames}, nil
}

// TimeFromBCD decodes the three BCD bytes used throughout the controller
// protocol.
func TimeFromBCD(minutes, seconds, frames uint8) (Time, error) {
	if !common.IsValidBCD(minutes) || !common.IsValidBCD(seconds) || !common.IsValidBCD(frames) {
		return Time{}, common.FormatErrorString(common.ErrInvalidPosition, "BCD %02X:%02X:%02X", minutes, seconds, frames)
	}
	return NewTime(common.FromBCD(minutes), common.FromBCD(seconds), common.FromBCD(frames))
}

// ParseTime reads the "mm:ss:ff" form printed by String.
func ParseTime(s string) (Time, error) {
	var m, sec, f uint8
	if n, err := fmt.Sscanf(s, "%d:%d:%d", &m, &sec, &f); err != nil || n != 3 {
		return Time{}, common.FormatErrorString(common.ErrInvalidPosition, "%q", s)
	}
	return NewTime(m, sec, f)
}

// TimeFromSectors converts a flat sector index. Values outside
// [0, MaxSectors) saturate.
func TimeFromSectors(sectors int) Time {
	if sectors < 0 {
		return Time{}
	}
	if sectors >= MaxSectors {
		sectors = MaxSectors - 1
	}
	return Time{
		Minutes: uint8(sectors / common.FramesPerMinute),
		Seconds: uint8(sectors % common.FramesPerMinute / common.FramesPerSecond),
		Frames:  uint8(sectors % common.FramesPerSecond),
	}
}

// Sectors returns the flat sector index of t.
func (t Time) Sectors() int {
	return int(t.Minutes)*common.FramesPerMinute + int(t.Seconds)*common.FramesPerSecond + int(t.Frames)
}

// Add returns t+o, saturating at 99:59:74.
func (t Time) Add(o Time) Time {
	return TimeFromSectors(t.Sectors() + o.Sectors())
}

// Sub returns t-o, saturating at 00:00:00.
func (t Time) Sub(o Time) Time {
	return TimeFromSectors(t.Sectors() - o.Sectors())
}

// AddSectors moves t by n sectors (n may be negative), saturating at both
// ends.
func (t Time) AddSectors(n int) Time {
	return TimeFromSectors(t.Sectors() + n)
}

// Next returns the position of the following sector.
func (t Time) Next() Time {
	return t.AddSectors(1)
}

// Compare returns -1, 0 or +1.
func (t Time) Compare(o Time) int {
	a, b := t.Sectors(), o.Sectors()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Before reports whether t is strictly earlier than o.
func (t Time) Before(o Time) bool {
	return t.Sectors() < o.Sectors()
}

// Distance is the absolute number of sectors between t and o.
func (t Time) Distance(o Time) int {
	d := t.Sectors() - o.Sectors()
	if d < 0 {
		return -d
	}
	return d
}

// BCD returns the minute, second and frame bytes in BCD.
func (t Time) BCD() (uint8, uint8, uint8) {
	return common.ToBCD(t.Minutes), common.ToBCD(t.Seconds), common.ToBCD(t.Frames)
}

func (t Time) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Minutes, t.Seconds, t.Frames)
}
