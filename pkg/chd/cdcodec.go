package chd

import (
	"github.com/pkg/errors"

	"github.com/hansbonini/psxcdrom/pkg/psx"
)

const (
	cdSectorSize = psx.SectorSize
	cdSubSize    = psx.SubcodeSize
	cdFrameSize  = cdSectorSize + cdSubSize
)

// cdCodec handles the CD frame codecs: sector data compressed with the
// base codec, subcode with deflate, and a bitmap of frames whose sync and
// ECC were stripped by the encoder.
type cdCodec struct {
	frames int
	base   codec
	sub    codec
	buf    []byte
}

func newCDCodec(hunkBytes uint32, base codec) *cdCodec {
	frames := int(hunkBytes / cdFrameSize)
	return &cdCodec{
		frames: frames,
		base:   base,
		sub:    zlibCodec{},
		buf:    make([]byte, frames*cdFrameSize),
	}
}

func (c *cdCodec) decompress(src, dst []byte) error {
	eccBytes := (c.frames + 7) / 8
	lenBytes := 2
	if len(dst) >= 65536 {
		lenBytes = 3
	}
	headerBytes := eccBytes + lenBytes
	if len(src) < headerBytes {
		return errors.Wrap(ErrDecompression, "cd hunk header truncated")
	}
	baseLen := int(src[eccBytes])<<8 | int(src[eccBytes+1])
	if lenBytes > 2 {
		baseLen = baseLen<<8 | int(src[eccBytes+2])
	}
	if headerBytes+baseLen > len(src) {
		return errors.Wrapf(ErrDecompression, "cd base data length %d over %d", baseLen, len(src)-headerBytes)
	}

	sectors := c.buf[:c.frames*cdSectorSize]
	subcode := c.buf[c.frames*cdSectorSize:]
	if err := c.base.decompress(src[headerBytes:headerBytes+baseLen], sectors); err != nil {
		return err
	}
	if err := c.sub.decompress(src[headerBytes+baseLen:], subcode); err != nil {
		return err
	}

	for f := 0; f < c.frames; f++ {
		frame := dst[f*cdFrameSize : (f+1)*cdFrameSize]
		copy(frame, sectors[f*cdSectorSize:(f+1)*cdSectorSize])
		copy(frame[cdSectorSize:], subcode[f*cdSubSize:(f+1)*cdSubSize])
		if src[f/8]&(1<<uint(f%8)) != 0 {
			copy(frame, psx.Sync[:])
			generateECC(frame[:cdSectorSize])
		}
	}
	return nil
}

// cdflCodec is FLAC coded CD audio with no subcode recovery: the subcode
// area of every frame is left zeroed. Samples come out big-endian like the
// rest of the container's audio.
type cdflCodec struct{}

func (cdflCodec) decompress(src, dst []byte) error {
	frames := len(dst) / cdFrameSize
	audio := make([]byte, frames*cdSectorSize)
	if err := decodeFLAC(src, audio, true); err != nil {
		return err
	}
	for f := 0; f < frames; f++ {
		frame := dst[f*cdFrameSize : (f+1)*cdFrameSize]
		copy(frame, audio[f*cdSectorSize:(f+1)*cdSectorSize])
		for i := cdSectorSize; i < cdFrameSize; i++ {
			frame[i] = 0
		}
	}
	return nil
}
