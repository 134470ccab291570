package chd

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

const (
	headerMagic = "MComprHD"
	v5HeaderLen = 124
)

// Codec tags as stored in the header.
const (
	CodecNone uint32 = 0
	CodecZlib uint32 = 0x7A6C6962 // zlib
	CodecLZMA uint32 = 0x6C7A6D61 // lzma
	CodecHuff uint32 = 0x68756666 // huff
	CodecFLAC uint32 = 0x666C6163 // flac
	CodecCDZL uint32 = 0x63647A6C // cdzl
	CodecCDLZ uint32 = 0x63646C7A // cdlz
	CodecCDFL uint32 = 0x6364666C // cdfl
)

// CodecName renders a four character codec tag.
func CodecName(tag uint32) string {
	if tag == CodecNone {
		return "none"
	}
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], tag)
	return string(b[:])
}

// Header is the v5 container header.
type Header struct {
	Length       uint32
	Version      uint32
	Compressors  [4]uint32
	LogicalBytes uint64
	MapOffset    uint64
	MetaOffset   uint64
	HunkBytes    uint32
	UnitBytes    uint32
	RawSHA1      [20]byte
	SHA1         [20]byte
	ParentSHA1   [20]byte
}

// HunkCount is the number of hunks covering LogicalBytes.
func (h *Header) HunkCount() uint32 {
	return uint32((h.LogicalBytes + uint64(h.HunkBytes) - 1) / uint64(h.HunkBytes))
}

// Compressed reports whether the hunk map is Huffman coded.
func (h *Header) Compressed() bool {
	return h.Compressors[0] != CodecNone
}

// HasParent reports whether the container is a delta against a parent.
func (h *Header) HasParent() bool {
	for _, b := range h.ParentSHA1 {
		if b != 0 {
			return true
		}
	}
	return false
}

func readHeader(r io.ReaderAt) (*Header, error) {
	var raw [v5HeaderLen]byte
	if _, err := r.ReadAt(raw[:16], 0); err != nil {
		return nil, errors.Wrap(ErrInvalidFile, err.Error())
	}
	if string(raw[:8]) != headerMagic {
		return nil, errors.Wrapf(ErrInvalidFile, "bad magic %q", raw[:8])
	}
	h := &Header{
		Length:  binary.BigEndian.Uint32(raw[8:12]),
		Version: binary.BigEndian.Uint32(raw[12:16]),
	}
	if h.Version != 5 {
		return nil, errors.Wrapf(ErrUnsupportedVersion, "version %d", h.Version)
	}
	if h.Length != v5HeaderLen {
		return nil, errors.Wrapf(ErrInvalidFile, "header length %d", h.Length)
	}
	if _, err := r.ReadAt(raw[16:], 16); err != nil {
		return nil, errors.Wrap(ErrInvalidFile, err.Error())
	}
	for i := range h.Compressors {
		h.Compressors[i] = binary.BigEndian.Uint32(raw[16+4*i:])
	}
	h.LogicalBytes = binary.BigEndian.Uint64(raw[32:40])
	h.MapOffset = binary.BigEndian.Uint64(raw[40:48])
	h.MetaOffset = binary.BigEndian.Uint64(raw[48:56])
	h.HunkBytes = binary.BigEndian.Uint32(raw[56:60])
	h.UnitBytes = binary.BigEndian.Uint32(raw[60:64])
	copy(h.RawSHA1[:], raw[64:84])
	copy(h.SHA1[:], raw[84:104])
	copy(h.ParentSHA1[:], raw[104:124])

	if h.HunkBytes == 0 || h.UnitBytes == 0 || h.HunkBytes%h.UnitBytes != 0 {
		return nil, errors.Wrapf(ErrInvalidFile, "hunk size %d, unit size %d", h.HunkBytes, h.UnitBytes)
	}
	if h.HasParent() {
		return nil, ErrRequiresParent
	}
	return h, nil
}

func (h *Header) String() string {
	return fmt.Sprintf("CHD v%d, %d bytes in %d hunks of %d, codecs %s/%s/%s/%s",
		h.Version, h.LogicalBytes, h.HunkCount(), h.HunkBytes,
		CodecName(h.Compressors[0]), CodecName(h.Compressors[1]),
		CodecName(h.Compressors[2]), CodecName(h.Compressors[3]))
}
