// Package chd reads version 5 CHD ("compressed hunks of data") containers
// as produced by chdman for CD images: header, Huffman coded hunk map,
// metadata chain and the hunk codecs used for CD frames.
package chd

import (
	"io"
	"os"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"github.com/sigurn/crc16"

	"github.com/hansbonini/psxcdrom/pkg/common"
)

// DefaultCacheHunks is the number of decompressed hunks kept when no
// cache size is configured.
const DefaultCacheHunks = 16

// File is an open container. It is not safe for concurrent use.
type File struct {
	r       io.ReaderAt
	closer  io.Closer
	header  *Header
	hunks   []mapEntry
	codecs  [4]codec
	meta    []Metadata
	cache   *lru.Cache[uint32, []byte]
	scratch []byte
}

// Open opens a container on disk.
func Open(path string, cacheHunks int) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	f, err := New(fh, cacheHunks)
	if err != nil {
		fh.Close()
		return nil, err
	}
	f.closer = fh
	return f, nil
}

// New reads a container from r, which may be a file or an in-memory
// bytes.Reader.
func New(r io.ReaderAt, cacheHunks int) (*File, error) {
	h, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	f := &File{r: r, header: h}

	for i, tag := range h.Compressors {
		if tag == CodecNone {
			continue
		}
		if f.codecs[i], err = newCodec(tag, h.HunkBytes); err != nil {
			return nil, err
		}
	}
	if f.hunks, err = readMap(r, h); err != nil {
		return nil, err
	}
	if f.meta, err = readMetadata(r, h.MetaOffset); err != nil {
		return nil, err
	}
	if cacheHunks <= 0 {
		cacheHunks = DefaultCacheHunks
	}
	if f.cache, err = lru.New[uint32, []byte](cacheHunks); err != nil {
		return nil, err
	}
	return f, nil
}

// Header returns a copy of the container header.
func (f *File) Header() Header {
	return *f.header
}

// Metadata returns the metadata chain in file order.
func (f *File) Metadata() []Metadata {
	return f.meta
}

// Close releases the underlying file, if any.
func (f *File) Close() error {
	f.cache.Purge()
	if f.closer != nil {
		return f.closer.Close()
	}
	return nil
}

// ReadHunk returns the decompressed contents of hunk n. The returned slice
// is shared with the cache and must not be modified.
func (f *File) ReadHunk(n uint32) ([]byte, error) {
	return f.readHunk(n, 0)
}

func (f *File) readHunk(n uint32, depth int) ([]byte, error) {
	if n >= uint32(len(f.hunks)) {
		return nil, errors.Wrapf(ErrHunkOutOfRange, "hunk %d of %d", n, len(f.hunks))
	}
	if data, ok := f.cache.Get(n); ok {
		return data, nil
	}

	e := f.hunks[n]
	dst := make([]byte, f.header.HunkBytes)
	switch e.compression {
	case compressionType0, compressionType1, compressionType2, compressionType3:
		c := f.codecs[e.compression]
		if c == nil {
			return nil, errors.Wrapf(ErrUnsupportedCodec, "hunk %d uses empty codec slot %d", n, e.compression)
		}
		src, err := f.readRaw(e.offset, e.length)
		if err != nil {
			return nil, err
		}
		if err := c.decompress(src, dst); err != nil {
			return nil, errors.Wrapf(err, "hunk %d", n)
		}
	case compressionNone:
		if _, err := f.r.ReadAt(dst, int64(e.offset)); err != nil {
			return nil, errors.Wrapf(err, "hunk %d", n)
		}
	case compressionZero:
	case compressionSelf:
		// self references always point backwards
		if e.offset >= uint64(n) || depth > len(f.hunks) {
			return nil, errors.Wrapf(ErrDecompression, "hunk %d refers to hunk %d", n, e.offset)
		}
		src, err := f.readHunk(uint32(e.offset), depth+1)
		if err != nil {
			return nil, err
		}
		copy(dst, src)
	case compressionParent:
		return nil, ErrRequiresParent
	default:
		return nil, errors.Wrapf(ErrDecompression, "hunk %d has type %d", n, e.compression)
	}

	if e.checkCRC && e.compression != compressionSelf {
		if got := crc16.Checksum(dst, crcTable); got != e.crc {
			return nil, errors.Wrapf(ErrDecompression, "hunk %d CRC 0x%04X, expected 0x%04X", n, got, e.crc)
		}
	}
	common.LogDebug(common.DebugHunkDecompressed, n, f.compressionName(e.compression), e.length)
	f.cache.Add(n, dst)
	return dst, nil
}

func (f *File) readRaw(offset uint64, length uint32) ([]byte, error) {
	if cap(f.scratch) < int(length) {
		f.scratch = make([]byte, length)
	}
	buf := f.scratch[:length]
	if _, err := f.r.ReadAt(buf, int64(offset)); err != nil {
		return nil, errors.Wrapf(err, "reading %d bytes at %d", length, offset)
	}
	return buf, nil
}

// ReadAt reads logical (decompressed) bytes, crossing hunk boundaries as
// needed.
func (f *File) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.New("chd: negative offset")
	}
	hunkBytes := int64(f.header.HunkBytes)
	total := 0
	for total < len(p) {
		pos := off + int64(total)
		if uint64(pos) >= f.header.LogicalBytes {
			return total, io.EOF
		}
		hunk, err := f.ReadHunk(uint32(pos / hunkBytes))
		if err != nil {
			return total, err
		}
		total += copy(p[total:], hunk[pos%hunkBytes:])
	}
	return total, nil
}

func (f *File) compressionName(c uint8) string {
	switch c {
	case compressionType0, compressionType1, compressionType2, compressionType3:
		return CodecName(f.header.Compressors[c])
	case compressionNone:
		return "none"
	case compressionSelf:
		return "self"
	case compressionZero:
		return "zero"
	}
	return "parent"
}
