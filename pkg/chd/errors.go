package chd

import "github.com/pkg/errors"

// Error kinds returned while opening or reading a container.
var (
	ErrInvalidFile        = errors.New("chd: not a valid CHD file")
	ErrUnsupportedVersion = errors.New("chd: unsupported version")
	ErrUnsupportedCodec   = errors.New("chd: unsupported compression codec")
	ErrRequiresParent     = errors.New("chd: parent CHD required")
	ErrDecompression      = errors.New("chd: decompression error")
	ErrInvalidMetadata    = errors.New("chd: invalid metadata")
	ErrHunkOutOfRange     = errors.New("chd: hunk out of range")
)
