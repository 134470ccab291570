package chd

import "github.com/pkg/errors"

// huffmanDecoder is the canonical Huffman decoder used for the v5 hunk map.
type huffmanDecoder struct {
	maxBits int
	bits    []uint8  // code length per symbol
	codes   []uint32 // canonical code per symbol
	lookup  []uint16 // symbol<<5 | length, indexed by maxBits peeked bits
}

func newHuffmanDecoder(numCodes, maxBits int) *huffmanDecoder {
	return &huffmanDecoder{
		maxBits: maxBits,
		bits:    make([]uint8, numCodes),
		codes:   make([]uint32, numCodes),
		lookup:  make([]uint16, 1<<uint(maxBits)),
	}
}

// importTreeRLE reads the RLE coded code lengths that precede the map.
func (h *huffmanDecoder) importTreeRLE(br *bitReader) error {
	numBits := 3
	switch {
	case h.maxBits >= 16:
		numBits = 5
	case h.maxBits >= 8:
		numBits = 4
	}

	for cur := 0; cur < len(h.bits); {
		nodeBits := br.read(numBits)
		if nodeBits != 1 {
			h.bits[cur] = uint8(nodeBits)
			cur++
			continue
		}
		nodeBits = br.read(numBits)
		if nodeBits == 1 {
			h.bits[cur] = 1
			cur++
			continue
		}
		rep := int(br.read(numBits)) + 3
		if cur+rep > len(h.bits) {
			return errors.Wrap(ErrDecompression, "huffman tree overrun")
		}
		for ; rep > 0; rep-- {
			h.bits[cur] = uint8(nodeBits)
			cur++
		}
	}

	if err := h.assignCanonicalCodes(); err != nil {
		return err
	}
	h.buildLookup()
	if br.overflow() {
		return errors.Wrap(ErrDecompression, "huffman tree truncated")
	}
	return nil
}

func (h *huffmanDecoder) assignCanonicalCodes() error {
	var histo [33]uint32
	for _, n := range h.bits {
		if int(n) > h.maxBits {
			return errors.Wrapf(ErrDecompression, "huffman code length %d over %d", n, h.maxBits)
		}
		histo[n]++
	}

	var start uint32
	for length := 32; length > 0; length-- {
		next := (start + histo[length]) >> 1
		if length != 1 && next*2 != start+histo[length] {
			return errors.Wrap(ErrDecompression, "huffman tree inconsistent")
		}
		histo[length] = start
		start = next
	}

	for i, n := range h.bits {
		if n > 0 {
			h.codes[i] = histo[n]
			histo[n]++
		}
	}
	return nil
}

func (h *huffmanDecoder) buildLookup() {
	for sym, n := range h.bits {
		if n == 0 {
			continue
		}
		value := uint16(sym<<5) | uint16(n)
		shift := uint(h.maxBits - int(n))
		first := h.codes[sym] << shift
		last := ((h.codes[sym] + 1) << shift) - 1
		for i := first; i <= last && int(i) < len(h.lookup); i++ {
			h.lookup[i] = value
		}
	}
}

func (h *huffmanDecoder) decodeOne(br *bitReader) int {
	entry := h.lookup[br.peek(h.maxBits)]
	br.remove(int(entry & 0x1F))
	return int(entry >> 5)
}
