package chd

// bitReader reads MSB-first bit fields. Reads past the end of the buffer
// return zero bits and set overflow.
type bitReader struct {
	data []byte
	pos  int // in bits
}

func newBitReader(data []byte) *bitReader {
	return &bitReader{data: data}
}

func (b *bitReader) peek(n int) uint32 {
	var v uint32
	for i := 0; i < n; i++ {
		p := b.pos + i
		bit := uint32(0)
		if p>>3 < len(b.data) {
			bit = uint32(b.data[p>>3]>>(7-uint(p&7))) & 1
		}
		v = v<<1 | bit
	}
	return v
}

func (b *bitReader) remove(n int) {
	b.pos += n
}

func (b *bitReader) read(n int) uint32 {
	v := b.peek(n)
	b.remove(n)
	return v
}

func (b *bitReader) overflow() bool {
	return b.pos > len(b.data)*8
}
