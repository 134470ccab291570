package cdrom

import (
	"github.com/hansbonini/psxcdrom/pkg/common"
	"github.com/hansbonini/psxcdrom/pkg/psx"
)

// FIFOCapacity is the depth of the parameter and response FIFOs.
const FIFOCapacity = 16

// ParamFIFO holds the arguments of the next command. Bytes pushed into a
// full FIFO are dropped and logged.
type ParamFIFO struct {
	Buf [FIFOCapacity]byte
	Len int
	Pos int
}

// Push appends b. It returns false, dropping b, when the FIFO is full.
func (f *ParamFIFO) Push(b byte) bool {
	if f.Len == FIFOCapacity {
		common.LogWarn(common.WarnParamFIFOFull, b)
		return false
	}
	f.Buf[f.Len] = b
	f.Len++
	return true
}

// Pop returns the next unread byte, or 0 once every byte was consumed.
func (f *ParamFIFO) Pop() byte {
	if f.Pos >= f.Len {
		common.LogDebug(common.WarnParamFIFOEmpty)
		return 0
	}
	b := f.Buf[f.Pos]
	f.Pos++
	return b
}

// Consumed reports whether the read cursor reached the write length.
func (f *ParamFIFO) Consumed() bool {
	return f.Pos >= f.Len
}

// Empty reports whether nothing was pushed since the last reset.
func (f *ParamFIFO) Empty() bool {
	return f.Len == 0
}

// Full reports whether the next push will be dropped.
func (f *ParamFIFO) Full() bool {
	return f.Len == FIFOCapacity
}

// Bytes returns the pushed bytes.
func (f *ParamFIFO) Bytes() []byte {
	return f.Buf[:f.Len]
}

// Reset zeroes the contents and both cursors.
func (f *ParamFIFO) Reset() {
	*f = ParamFIFO{}
}

// ResponseFIFO holds one response. Reading past its length keeps
// returning buffer contents, wrapping at the capacity.
type ResponseFIFO struct {
	Buf [FIFOCapacity]byte
	Len int
	Pos int
}

// Set clears the FIFO and loads a new response.
func (f *ResponseFIFO) Set(data ...byte) {
	f.Reset()
	f.Len = copy(f.Buf[:], data)
}

// Pop returns the next byte.
func (f *ResponseFIFO) Pop() byte {
	b := f.Buf[f.Pos&(FIFOCapacity-1)]
	f.Pos++
	return b
}

// Empty reports whether every byte of the response was read.
func (f *ResponseFIFO) Empty() bool {
	return f.Pos >= f.Len
}

// Bytes returns the whole response.
func (f *ResponseFIFO) Bytes() []byte {
	return f.Buf[:f.Len]
}

// Reset zeroes the contents and cursors.
func (f *ResponseFIFO) Reset() {
	*f = ResponseFIFO{}
}

// DataFIFO is a snapshot of the user data window of the last read sector.
// Popping past its end repeats the final byte.
type DataFIFO struct {
	Buf [psx.SectorSize]byte
	Len int
	Pos int
}

// Load copies a window of a sector.
func (f *DataFIFO) Load(window []byte) {
	f.Len = copy(f.Buf[:], window)
	f.Pos = 0
}

// Pop returns the next byte, repeating the final byte once drained.
func (f *DataFIFO) Pop() byte {
	if f.Len == 0 {
		return 0
	}
	if f.Pos >= f.Len {
		return f.Buf[f.Len-1]
	}
	b := f.Buf[f.Pos]
	f.Pos++
	return b
}

// PopWord reads four bytes little-endian, as a 32-bit DMA access does.
func (f *DataFIFO) PopWord() uint32 {
	var w uint32
	for i := uint(0); i < 4; i++ {
		w |= uint32(f.Pop()) << (8 * i)
	}
	return w
}

// Empty reports whether every loaded byte was read.
func (f *DataFIFO) Empty() bool {
	return f.Pos >= f.Len
}

// Reset drops the snapshot.
func (f *DataFIFO) Reset() {
	f.Len = 0
	f.Pos = 0
}
