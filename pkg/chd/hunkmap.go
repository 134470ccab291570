package chd

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
	"github.com/sigurn/crc16"

	"github.com/hansbonini/psxcdrom/pkg/common"
)

// Map entry compression types
const (
	compressionType0 = iota
	compressionType1
	compressionType2
	compressionType3
	compressionNone
	compressionSelf
	compressionParent

	// pseudo-types only seen in the Huffman coded stream
	compressionRLESmall
	compressionRLELarge
	compressionSelf0
	compressionSelf1
	compressionParentSelf
	compressionParent0
	compressionParent1

	// uncompressed maps mark absent hunks with a zero offset
	compressionZero = 0xFF
)

const (
	mapEntryBytes     = 12
	mapHeaderBytes    = 16
	rawMapEntryBytes  = 4
	mapHuffmanCodes   = 16
	mapHuffmanMaxBits = 8
	rleSmallBase      = 2
	rleLargeBase      = 2 + 16
)

var crcTable = crc16.MakeTable(crc16.CRC16_CCITT_FALSE)

type mapEntry struct {
	compression uint8
	length      uint32
	offset      uint64
	crc         uint16
	checkCRC    bool
}

func readMap(r io.ReaderAt, h *Header) ([]mapEntry, error) {
	if !h.Compressed() {
		return readRawMap(r, h)
	}
	return readCompressedMap(r, h)
}

func readRawMap(r io.ReaderAt, h *Header) ([]mapEntry, error) {
	count := h.HunkCount()
	raw := make([]byte, int(count)*rawMapEntryBytes)
	if _, err := r.ReadAt(raw, int64(h.MapOffset)); err != nil {
		return nil, errors.Wrap(ErrInvalidFile, "reading hunk map: "+err.Error())
	}
	entries := make([]mapEntry, count)
	for i := range entries {
		block := uint64(binary.BigEndian.Uint32(raw[i*rawMapEntryBytes:]))
		if block == 0 {
			entries[i] = mapEntry{compression: compressionZero}
			continue
		}
		entries[i] = mapEntry{
			compression: compressionNone,
			length:      h.HunkBytes,
			offset:      block * uint64(h.HunkBytes),
		}
	}
	return entries, nil
}

type mapHeader struct {
	length      uint32
	firstOffset uint64
	crc         uint16
	lengthBits  int
	selfBits    int
	parentBits  int
}

func readMapHeader(r io.Reader) (mapHeader, error) {
	var mh mapHeader
	var err error
	if mh.length, err = common.ReadUint32BE(r); err != nil {
		return mh, err
	}
	offset, err := common.ReadBytes(r, 6)
	if err != nil {
		return mh, err
	}
	mh.firstOffset = common.Uint48BE(offset)
	if mh.crc, err = common.ReadUint16BE(r); err != nil {
		return mh, err
	}
	bits, err := common.ReadBytes(r, 3)
	if err != nil {
		return mh, err
	}
	mh.lengthBits, mh.selfBits, mh.parentBits = int(bits[0]), int(bits[1]), int(bits[2])
	// one reserved byte
	return mh, common.SkipBytes(r, 1)
}

func readCompressedMap(r io.ReaderAt, h *Header) ([]mapEntry, error) {
	mh, err := readMapHeader(io.NewSectionReader(r, int64(h.MapOffset), mapHeaderBytes))
	if err != nil {
		return nil, errors.Wrap(ErrInvalidFile, "reading map header: "+err.Error())
	}
	mapBytes, firstOffset, mapCRC := mh.length, mh.firstOffset, mh.crc
	lengthBits, selfBits, parentBits := mh.lengthBits, mh.selfBits, mh.parentBits

	compressed := make([]byte, mapBytes)
	if _, err := r.ReadAt(compressed, int64(h.MapOffset)+mapHeaderBytes); err != nil {
		return nil, errors.Wrap(ErrInvalidFile, "reading map: "+err.Error())
	}

	br := newBitReader(compressed)
	decoder := newHuffmanDecoder(mapHuffmanCodes, mapHuffmanMaxBits)
	if err := decoder.importTreeRLE(br); err != nil {
		return nil, err
	}

	count := int(h.HunkCount())
	types := make([]uint8, count)
	var last uint8
	repeat := 0
	for i := 0; i < count; i++ {
		if repeat > 0 {
			types[i] = last
			repeat--
			continue
		}
		switch v := decoder.decodeOne(br); v {
		case compressionRLESmall:
			types[i] = last
			repeat = rleSmallBase + decoder.decodeOne(br)
		case compressionRLELarge:
			types[i] = last
			repeat = rleLargeBase + decoder.decodeOne(br)<<4
			repeat += decoder.decodeOne(br)
		default:
			types[i] = uint8(v)
			last = uint8(v)
		}
	}

	raw := make([]byte, count*mapEntryBytes)
	entries := make([]mapEntry, count)
	cur := firstOffset
	var lastSelf, lastParent uint64
	for i := 0; i < count; i++ {
		comp := types[i]
		offset := cur
		var length uint32
		var crc uint16

		switch comp {
		case compressionType0, compressionType1, compressionType2, compressionType3:
			length = br.read(lengthBits)
			crc = uint16(br.read(16))
			cur += uint64(length)
		case compressionNone:
			length = h.HunkBytes
			crc = uint16(br.read(16))
			cur += uint64(length)
		case compressionSelf:
			offset = uint64(br.read(selfBits))
			lastSelf = offset
		case compressionParent:
			offset = uint64(br.read(parentBits))
			lastParent = offset
		case compressionSelf1:
			lastSelf++
			comp = compressionSelf
			offset = lastSelf
		case compressionSelf0:
			comp = compressionSelf
			offset = lastSelf
		case compressionParentSelf:
			comp = compressionParent
			offset = uint64(i) * uint64(h.HunkBytes) / uint64(h.UnitBytes)
			lastParent = offset
		case compressionParent1:
			lastParent += uint64(h.HunkBytes / h.UnitBytes)
			comp = compressionParent
			offset = lastParent
		case compressionParent0:
			comp = compressionParent
			offset = lastParent
		default:
			return nil, errors.Wrapf(ErrDecompression, "hunk %d has map type %d", i, comp)
		}

		e := raw[i*mapEntryBytes:]
		e[0] = comp
		e[1], e[2], e[3] = byte(length>>16), byte(length>>8), byte(length)
		for b := 0; b < 6; b++ {
			e[4+b] = byte(offset >> uint(40-8*b))
		}
		binary.BigEndian.PutUint16(e[10:12], crc)

		entries[i] = mapEntry{compression: comp, length: length, offset: offset, crc: crc, checkCRC: true}
	}

	if br.overflow() {
		return nil, errors.Wrap(ErrDecompression, "hunk map truncated")
	}
	if got := crc16.Checksum(raw, crcTable); got != mapCRC {
		return nil, errors.Wrapf(ErrDecompression, "hunk map CRC 0x%04X, expected 0x%04X", got, mapCRC)
	}
	return entries, nil
}
