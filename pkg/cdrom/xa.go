package cdrom

import (
	"github.com/hansbonini/psxcdrom/pkg/common"
	"github.com/hansbonini/psxcdrom/pkg/psx"
)

const (
	xaGroups         = 18
	xaGroupSize      = 128
	xaBlocks         = 8
	xaSamplesPerUnit = 28
	xaRingSize       = 32
	xaTaps           = 29

	// XAQueueCapacity bounds each output channel. Older samples are
	// overwritten when the host does not drain them.
	XAQueueCapacity = 0x2000
)

// XACoding is the decoded coding-information byte of an XA audio sector.
type XACoding struct {
	Stereo   bool
	HalfRate bool // 18900 Hz instead of 37800 Hz
	EightBit bool
}

// ParseXACoding decodes subheader byte 19.
func ParseXACoding(b byte) XACoding {
	return XACoding{
		Stereo:   b&0x03 == 0x01,
		HalfRate: b&0x0C == 0x04,
		EightBit: b&0x30 == 0x10,
	}
}

// Rate is the sample rate before resampling.
func (c XACoding) Rate() int {
	if c.HalfRate {
		return 18900
	}
	return 37800
}

func (c XACoding) String() string {
	if c.Stereo {
		return "stereo"
	}
	return "mono"
}

// xaResampler is one channel's zig-zag interpolator.
type xaResampler struct {
	Ring     [xaRingSize]int16
	Pos      int
	SixStep  int
	Produced []int16
}

func (r *xaResampler) push(s int16) {
	r.Ring[r.Pos&(xaRingSize-1)] = s
	r.Pos++
	r.SixStep--
	if r.SixStep > 0 {
		return
	}
	r.SixStep = 6
	for phase := 0; phase < 7; phase++ {
		r.Produced = append(r.Produced, r.interpolate(phase))
	}
}

func (r *xaResampler) interpolate(phase int) int16 {
	var sum int32
	for k := 1; k <= xaTaps; k++ {
		sum += int32(r.Ring[(r.Pos-k)&(xaRingSize-1)]) * zigZagTable[phase][xaTaps-k]
	}
	return clamp16(sum >> 15)
}

// sampleQueue is a bounded ring that overwrites its oldest sample.
type sampleQueue struct {
	Buf   []int16
	Head  int
	Count int
}

func (q *sampleQueue) push(s int16) {
	if q.Buf == nil {
		q.Buf = make([]int16, XAQueueCapacity)
	}
	q.Buf[(q.Head+q.Count)%len(q.Buf)] = s
	if q.Count == len(q.Buf) {
		q.Head = (q.Head + 1) % len(q.Buf)
		return
	}
	q.Count++
}

func (q *sampleQueue) pop() (int16, bool) {
	if q.Count == 0 {
		return 0, false
	}
	s := q.Buf[q.Head]
	q.Head = (q.Head + 1) % len(q.Buf)
	q.Count--
	return s, true
}

// XADecoder turns real-time audio sectors into 44100 Hz stereo samples.
// Filter history and resampling rings carry over from one sector to the
// next and are only cleared by Reset.
type XADecoder struct {
	History [2][2]int32 // per channel: last, before last
	Resamp  [2]xaResampler
	Out     [2]sampleQueue
	Coding  XACoding
}

// NewXADecoder returns a decoder with cleared history.
func NewXADecoder() *XADecoder {
	d := &XADecoder{}
	d.Reset()
	return d
}

// Reset clears history, rings and queued output.
func (d *XADecoder) Reset() {
	*d = XADecoder{}
	d.Resamp[0].SixStep = 6
	d.Resamp[1].SixStep = 6
}

// Pending returns the number of stereo pairs waiting to be played.
func (d *XADecoder) Pending() int {
	return d.Out[0].Count
}

// PopSample returns the next output pair.
func (d *XADecoder) PopSample() (int16, int16, bool) {
	l, ok := d.Out[0].pop()
	if !ok {
		return 0, 0, false
	}
	r, _ := d.Out[1].pop()
	return l, r, true
}

// DecodeSector decodes the 2304 byte payload of a raw sector. It returns
// false when the coding is not supported.
func (d *XADecoder) DecodeSector(sector []byte) bool {
	coding := ParseXACoding(sector[psx.CodingOffset])
	if coding.EightBit {
		common.LogWarn(common.WarnUnsupportedXACoding, sector[psx.CodingOffset])
		return false
	}
	d.Coding = coding

	payload := sector[psx.DataOffset : psx.DataOffset+psx.XAPayload]
	for g := 0; g < xaGroups; g++ {
		group := payload[g*xaGroupSize : (g+1)*xaGroupSize]
		for blk := 0; blk < xaBlocks; blk++ {
			ch := 0
			if coding.Stereo {
				ch = blk & 1
			}
			d.decodeBlock(group, blk, ch, coding)
		}
	}
	return true
}

func (d *XADecoder) decodeBlock(group []byte, blk, ch int, coding XACoding) {
	param := group[4+blk]
	shift := uint(param & 0x0F)
	if shift > 12 {
		shift = 9
	}
	filter := (param >> 4) & 0x03
	f0, f1 := xaFilterPos[filter], xaFilterNeg[filter]
	h := &d.History[ch]

	for j := 0; j < xaSamplesPerUnit; j++ {
		nibble := (group[16+j*4+blk/2] >> (uint(blk&1) * 4)) & 0x0F
		s := int32(int8(nibble<<4)>>4) << (12 - shift)
		s += (f0*h[0] + f1*h[1] + 32) / 64
		out := clamp16(s)
		h[1] = h[0]
		h[0] = int32(out)

		d.resample(ch, out, coding)
	}
}

func (d *XADecoder) resample(ch int, s int16, coding XACoding) {
	pushes := 1
	if coding.HalfRate {
		pushes = 2
	}
	r := &d.Resamp[ch]
	for i := 0; i < pushes; i++ {
		r.push(s)
	}
	for _, o := range r.Produced {
		if coding.Stereo {
			d.Out[ch].push(o)
		} else {
			d.Out[0].push(o)
			d.Out[1].push(o)
		}
	}
	r.Produced = r.Produced[:0]
}

func clamp16(v int32) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}
