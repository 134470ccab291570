package chd

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"io"

	"github.com/mewkiz/flac"
	"github.com/pkg/errors"
	"github.com/ulikunitz/xz/lzma"
)

// codec decompresses one hunk. dst has exactly the hunk length.
type codec interface {
	decompress(src, dst []byte) error
}

func newCodec(tag uint32, hunkBytes uint32) (codec, error) {
	switch tag {
	case CodecZlib:
		return zlibCodec{}, nil
	case CodecLZMA:
		return newLZMACodec(hunkBytes), nil
	case CodecFLAC:
		return flacCodec{}, nil
	case CodecCDZL:
		return newCDCodec(hunkBytes, zlibCodec{}), nil
	case CodecCDLZ:
		frames := hunkBytes / cdFrameSize
		return newCDCodec(hunkBytes, newLZMACodec(frames*cdSectorSize)), nil
	case CodecCDFL:
		return cdflCodec{}, nil
	}
	return nil, errors.Wrapf(ErrUnsupportedCodec, "%q", CodecName(tag))
}

// zlibCodec inflates raw deflate data.
type zlibCodec struct{}

func (zlibCodec) decompress(src, dst []byte) error {
	zr := flate.NewReader(bytes.NewReader(src))
	defer zr.Close()
	if _, err := io.ReadFull(zr, dst); err != nil {
		return errors.Wrapf(ErrDecompression, "deflate: %v", err)
	}
	return nil
}

// lzmaCodec decodes headerless LZMA streams. The encoder used level 8
// with lc=3 lp=0 pb=2, so the header can be rebuilt from the hunk size.
type lzmaCodec struct {
	dictSize uint32
}

const lzmaProperties = (2*5+0)*9 + 3

func newLZMACodec(hunkBytes uint32) lzmaCodec {
	dict := uint32(1 << 26)
	if dict > hunkBytes {
		for i := uint(11); i <= 30; i++ {
			if hunkBytes <= 2<<i {
				dict = 2 << i
				break
			}
			if hunkBytes <= 3<<i {
				dict = 3 << i
				break
			}
		}
	}
	return lzmaCodec{dictSize: dict}
}

func (c lzmaCodec) decompress(src, dst []byte) error {
	var hdr [13]byte
	hdr[0] = lzmaProperties
	binary.LittleEndian.PutUint32(hdr[1:5], c.dictSize)
	binary.LittleEndian.PutUint64(hdr[5:13], uint64(len(dst)))

	lr, err := lzma.NewReader(io.MultiReader(bytes.NewReader(hdr[:]), bytes.NewReader(src)))
	if err != nil {
		return errors.Wrapf(ErrDecompression, "lzma: %v", err)
	}
	if _, err := io.ReadFull(lr, dst); err != nil {
		return errors.Wrapf(ErrDecompression, "lzma: %v", err)
	}
	return nil
}

// flacBlockSize mirrors the encoder's choice: a quarter of the input in
// stereo samples, halved until it is at most 2048.
func flacBlockSize(bytes int) int {
	n := bytes / 4
	for n > 2048 {
		n /= 2
	}
	return n
}

// flacHeader builds the fLaC marker and a STREAMINFO block for a 44.1kHz
// 16-bit stereo stream, which the container omits.
func flacHeader(blockSize int) []byte {
	h := make([]byte, 42)
	copy(h, "fLaC")
	h[4] = 0x80 // last metadata block, STREAMINFO
	h[7] = 0x22
	binary.BigEndian.PutUint16(h[8:10], uint16(blockSize))
	binary.BigEndian.PutUint16(h[10:12], uint16(blockSize))
	binary.BigEndian.PutUint32(h[18:22], 44100<<12|(2-1)<<9|(16-1)<<4)
	return h
}

// decodeFLAC decodes interleaved 16-bit stereo samples into dst.
func decodeFLAC(src, dst []byte, bigEndian bool) error {
	stream, err := flac.New(io.MultiReader(bytes.NewReader(flacHeader(flacBlockSize(len(dst)))), bytes.NewReader(src)))
	if err != nil {
		return errors.Wrapf(ErrDecompression, "flac: %v", err)
	}
	defer stream.Close()

	pos := 0
	for pos < len(dst) {
		frame, err := stream.ParseNext()
		if err != nil {
			return errors.Wrapf(ErrDecompression, "flac at byte %d of %d: %v", pos, len(dst), err)
		}
		if len(frame.Subframes) != 2 {
			return errors.Wrapf(ErrDecompression, "flac: %d channels", len(frame.Subframes))
		}
		left, right := frame.Subframes[0].Samples, frame.Subframes[1].Samples
		for i := 0; i < len(left) && pos+4 <= len(dst); i++ {
			l, r := uint16(int16(left[i])), uint16(int16(right[i]))
			if bigEndian {
				binary.BigEndian.PutUint16(dst[pos:], l)
				binary.BigEndian.PutUint16(dst[pos+2:], r)
			} else {
				binary.LittleEndian.PutUint16(dst[pos:], l)
				binary.LittleEndian.PutUint16(dst[pos+2:], r)
			}
			pos += 4
		}
	}
	return nil
}

// flacCodec is the generic FLAC codec. The first byte selects the sample
// byte order of the output.
type flacCodec struct{}

func (flacCodec) decompress(src, dst []byte) error {
	if len(src) == 0 {
		return errors.Wrap(ErrDecompression, "flac: empty hunk")
	}
	switch src[0] {
	case 'L':
		return decodeFLAC(src[1:], dst, false)
	case 'B':
		return decodeFLAC(src[1:], dst, true)
	}
	return errors.Wrapf(ErrDecompression, "flac: endian marker 0x%02X", src[0])
}
