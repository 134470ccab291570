package disc

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrMalformedImage is returned at open time when the container or its
// sheet describes an impossible disc.
var ErrMalformedImage = errors.New("malformed disc image")

// ErrNoSuchTrack is returned by ReadSector for track numbers outside the
// table of contents.
var ErrNoSuchTrack = errors.New("no such track")

// ReadError wraps an I/O failure of the backend with the position that was
// being read.
type ReadError struct {
	Track  int
	Sector int
	Err    error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("track %d sector %d: %v", e.Track, e.Sector, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// ChecksumError reports a sector whose stored EDC does not match the one
// computed over its digest window.
type ChecksumError struct {
	Track    int
	Sector   int
	Expected uint32
	Actual   uint32
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("track %d sector %d: EDC mismatch, expected 0x%08X, got 0x%08X",
		e.Track, e.Sector, e.Expected, e.Actual)
}
