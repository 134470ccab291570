package cdrom

import (
	"bytes"
	"encoding/binary"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hansbonini/psxcdrom/pkg/disc"
	"github.com/hansbonini/psxcdrom/pkg/psx"
)

const maxWaitSteps = 200000

var licenceText = []byte("          Licensed  by          Sony Computer Entertainment Amer  ica           ")

// writeDisc lays out 20 Mode 2 Form 1 sectors followed by a 10 sector
// audio track whose INDEX 01 is two sectors after its INDEX 00.
func writeDisc(t *testing.T) string {
	t.Helper()
	var bin []byte
	for i := 0; i < 20; i++ {
		s := make([]byte, psx.SectorSize)
		copy(s, psx.Sync[:])
		s[12], s[13], s[14] = disc.TimeFromSectors(150 + i).BCD()
		s[15] = 2
		s[18], s[22] = psx.SubmodeData, psx.SubmodeData
		for j := psx.DataOffset; j < psx.DataOffset+psx.DataSize; j++ {
			s[j] = byte(i) + byte(j)
		}
		if i == 4 {
			copy(s[psx.DataOffset:], licenceText)
		}
		binary.LittleEndian.PutUint32(s[psx.Form1EDCOffset:], disc.ComputeEDC(s[16:psx.Form1EDCOffset]))
		bin = append(bin, s...)
	}
	for i := 0; i < 10; i++ {
		audio := make([]byte, psx.SectorSize)
		for j := range audio {
			audio[j] = byte(i + j + 1)
		}
		bin = append(bin, audio...)
	}

	dir := t.TempDir()
	sheet := `FILE "disc.bin" BINARY
  TRACK 01 MODE2/2352
    INDEX 01 00:00:00
  TRACK 02 AUDIO
    INDEX 00 00:00:20
    INDEX 01 00:00:22
`
	if err := os.WriteFile(filepath.Join(dir, "disc.bin"), bin, 0644); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "disc.cue")
	if err := os.WriteFile(path, []byte(sheet), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func xaSector(fill func(i int) byte) []byte {
	s := make([]byte, psx.SectorSize)
	copy(s, psx.Sync[:])
	s[15] = 2
	s[psx.SubmodeOffset] = psx.SubmodeRealTime | psx.SubmodeAudio | psx.SubmodeForm2
	for i := 0; i < psx.XAPayload; i++ {
		s[psx.DataOffset+i] = fill(i)
	}
	return s
}

// host drives the controller through its registers, as the BIOS does.
type host struct {
	t       *testing.T
	c       *Controller
	irqs    int
	samples int
	nonZero int
}

func newHost(t *testing.T, withDisc bool) *host {
	t.Helper()
	h := &host{t: t}
	h.c = New(Config{}, InterruptFunc(func() { h.irqs++ }), AudioFunc(func(l, r int16) {
		h.samples++
		if l != 0 || r != 0 {
			h.nonZero++
		}
	}))
	if withDisc {
		img, err := disc.Open(writeDisc(t), disc.FormatAuto, disc.Options{})
		if err != nil {
			t.Fatal(err)
		}
		if err := h.c.LoadDisc(img); err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { h.c.Eject() })
	}
	h.c.Write8(PortStatus, 1)
	h.c.Write8(PortParam, 0x1F)
	h.c.Write8(PortStatus, 0)
	return h
}

func (h *host) send(cmd byte, params ...byte) {
	h.c.Write8(PortStatus, 0)
	for _, p := range params {
		h.c.Write8(PortParam, p)
	}
	h.c.Write8(PortCommand, cmd)
}

// wait ticks until an interrupt is flagged, reads the response and
// acknowledges it.
func (h *host) wait() (byte, []byte) {
	h.t.Helper()
	for i := 0; i < maxWaitSteps && h.c.irqFlags&0x07 == 0; i++ {
		if err := h.c.Tick(CyclesPerStep); err != nil {
			h.t.Fatalf("Tick: %v", err)
		}
	}
	level := h.c.irqFlags & 0x07
	if level == 0 {
		h.t.Fatal("no interrupt raised")
	}
	var resp []byte
	for h.c.HostStatus()&HostRSLRrdy != 0 {
		resp = append(resp, h.c.Read8(PortCommand))
	}
	h.c.Write8(PortStatus, 1)
	h.c.Write8(PortRequest, 0x1F)
	h.c.Write8(PortStatus, 0)
	return level, resp
}

func (h *host) expect(level byte, want ...byte) []byte {
	h.t.Helper()
	got, resp := h.wait()
	if got != level {
		h.t.Fatalf("INT%d % X, want INT%d", got, resp, level)
	}
	if want != nil && !bytes.Equal(resp, want) {
		h.t.Fatalf("INT%d response % X, want % X", got, resp, want)
	}
	return resp
}

// spinUp runs GetStat and Init so the shell is closed and the motor on.
func (h *host) spinUp() {
	h.t.Helper()
	h.send(CmdGetStat)
	h.expect(IntFirstResponse)
	h.send(CmdInit)
	h.expect(IntFirstResponse)
	h.expect(IntSecondResponse)
}

func TestEstimateSeekCycles(t *testing.T) {
	if got := EstimateSeekCycles(0); got != 1 {
		t.Errorf("EstimateSeekCycles(0) = %d, want 1", got)
	}
	prev := 0
	for _, d := range []int{1, 10, 100, 1000, 10000, 100000, 300000} {
		got := EstimateSeekCycles(d)
		if got < MinSeekCycles {
			t.Errorf("EstimateSeekCycles(%d) = %d, below minimum", d, got)
		}
		if got < prev {
			t.Errorf("EstimateSeekCycles(%d) = %d, less than %d", d, got, prev)
		}
		if back := EstimateSeekCycles(-d); back != got {
			t.Errorf("EstimateSeekCycles(-%d) = %d, want %d", d, back, got)
		}
		prev = got
	}
}

func TestParamFIFOOverflow(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	var f ParamFIFO
	for i := 0; i < 20; i++ {
		f.Push(byte(i))
	}
	if f.Len != FIFOCapacity || !f.Full() {
		t.Fatalf("Len = %d, want %d", f.Len, FIFOCapacity)
	}
	for i := 0; i < FIFOCapacity; i++ {
		if b := f.Pop(); b != byte(i) {
			t.Fatalf("Pop %d = %d", i, b)
		}
	}
	if !f.Consumed() {
		t.Error("FIFO not consumed after reading every byte")
	}
	if n := strings.Count(buf.String(), "parameter FIFO full"); n != 4 {
		t.Errorf("logged %d drops, want 4", n)
	}
}

func TestResponseFIFOWraps(t *testing.T) {
	var f ResponseFIFO
	f.Set(1, 2)
	for i, want := range []byte{1, 2, 0} {
		if b := f.Pop(); b != want {
			t.Errorf("Pop %d = %d, want %d", i, b, want)
		}
	}
	if !f.Empty() {
		t.Error("response not empty after reading past its end")
	}
}

func TestDataFIFORepeatsLastByte(t *testing.T) {
	var f DataFIFO
	f.Load([]byte{1, 2, 3, 4, 5})
	if w := f.PopWord(); w != 0x04030201 {
		t.Errorf("PopWord = %08X", w)
	}
	for i := 0; i < 3; i++ {
		if b := f.Pop(); b != 5 {
			t.Errorf("Pop past end = %d, want 5", b)
		}
	}
}

func drain(d *XADecoder) []int16 {
	var out []int16
	for {
		l, r, ok := d.PopSample()
		if !ok {
			return out
		}
		out = append(out, l, r)
	}
}

func TestXADecoderCarriesHistory(t *testing.T) {
	a := xaSector(func(i int) byte { return byte(i * 37) })
	b := xaSector(func(i int) byte { return byte(i*91 + 3) })

	chained := NewXADecoder()
	if !chained.DecodeSector(a) {
		t.Fatal("sector A rejected")
	}
	drain(chained)
	chained.DecodeSector(b)
	afterA := drain(chained)

	fresh := NewXADecoder()
	fresh.DecodeSector(b)
	alone := drain(fresh)

	if len(alone) == 0 {
		t.Fatal("no samples decoded")
	}
	if equalSamples(afterA, alone) {
		t.Error("decoding B after A matches decoding B alone")
	}

	again := NewXADecoder()
	again.DecodeSector(b)
	if !equalSamples(drain(again), alone) {
		t.Error("decoding is not deterministic")
	}
}

func TestXADecoderRejectsEightBit(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	s := xaSector(func(i int) byte { return byte(i) })
	s[psx.CodingOffset] = 0x10
	d := NewXADecoder()
	if d.DecodeSector(s) {
		t.Error("8-bit sector accepted")
	}
	if d.Pending() != 0 {
		t.Errorf("Pending = %d after rejected sector", d.Pending())
	}
	if !strings.Contains(buf.String(), "unsupported XA coding") {
		t.Error("rejection not logged")
	}
}

func TestXAQueueOverwritesOldest(t *testing.T) {
	var q sampleQueue
	for i := 0; i < XAQueueCapacity+3; i++ {
		q.push(int16(i))
	}
	if q.Count != XAQueueCapacity {
		t.Fatalf("Count = %d", q.Count)
	}
	if s, _ := q.pop(); s != 3 {
		t.Errorf("oldest sample = %d, want 3", s)
	}
}

func equalSamples(a, b []int16) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestGetStatClearsShell(t *testing.T) {
	h := newHost(t, true)
	h.send(CmdGetStat)
	resp := h.expect(IntFirstResponse)
	if resp[0]&StatMotor != 0 {
		t.Errorf("motor bit set on a stopped drive: %02X", resp[0])
	}
	if resp[0]&StatShellOpen == 0 {
		t.Errorf("shell bit clear after loading a disc: %02X", resp[0])
	}
	h.send(CmdGetStat)
	h.expect(IntFirstResponse, 0x00)
}

func TestNoDisc(t *testing.T) {
	h := newHost(t, false)
	h.send(CmdGetID)
	h.expect(IntError, StatShellOpen|StatError, ErrCodeNotReady)
}

func TestInitSpinsUp(t *testing.T) {
	h := newHost(t, true)
	h.send(CmdInit)
	h.expect(IntFirstResponse)
	if _, ok := h.c.Drive().(*SpinningUp); !ok {
		t.Fatalf("drive %s after Init, want SpinningUp", h.c.Drive())
	}
	h.expect(IntSecondResponse)
	if _, ok := h.c.Drive().(Paused); !ok {
		t.Errorf("drive %s after Init completed, want Paused", h.c.Drive())
	}
	if h.c.mode != ModeSectorSize {
		t.Errorf("mode = %02X after Init", h.c.mode)
	}
}

func TestCommandErrors(t *testing.T) {
	h := newHost(t, true)
	h.spinUp()
	tests := []struct {
		name   string
		cmd    byte
		params []byte
		code   byte
	}{
		{"motor already on", CmdMotorOn, nil, ErrCodeParamCount},
		{"setloc bad bcd", CmdSetLoc, []byte{0x00, 0x1A, 0x00}, ErrCodeInvalidParam},
		{"setloc missing params", CmdSetLoc, []byte{0x00}, ErrCodeParamCount},
		{"unknown command", 0x30, nil, ErrCodeInvalidCmd},
		{"gettd past last track", CmdGetTD, []byte{0x03}, ErrCodeInvalidParam},
		{"unknown test", CmdTest, []byte{0x04}, ErrCodeInvalidParam},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h.t = t
			h.send(tt.cmd, tt.params...)
			h.expect(IntError, StatMotor|StatError, tt.code)
		})
	}
}

func TestTableOfContents(t *testing.T) {
	h := newHost(t, true)
	h.send(CmdGetStat)
	h.expect(IntFirstResponse)

	tests := []struct {
		name   string
		cmd    byte
		params []byte
		want   []byte
	}{
		{"track count", CmdGetTN, nil, []byte{0x00, 0x01, 0x02}},
		{"lead-out", CmdGetTD, []byte{0x00}, []byte{0x00, 0x00, 0x02}},
		{"track 1", CmdGetTD, []byte{0x01}, []byte{0x00, 0x00, 0x02}},
		{"bios version", CmdTest, []byte{TestGetVersion}, DefaultBIOSVersion[:]},
		{"parameters", CmdGetParam, nil, []byte{0x00, 0x00, 0x00, 0x00, 0x00}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h.t = t
			h.send(tt.cmd, tt.params...)
			h.expect(IntFirstResponse, tt.want...)
		})
	}
}

func TestGetID(t *testing.T) {
	h := newHost(t, true)
	h.send(CmdGetStat)
	h.expect(IntFirstResponse)
	h.send(CmdGetID)
	h.expect(IntFirstResponse, 0x00)
	h.expect(IntSecondResponse, 0x00, 0x00, 0x20, 0x00, 'S', 'C', 'E', 'A')
}

func TestReadSectorIntoDataFIFO(t *testing.T) {
	h := newHost(t, true)
	h.spinUp()
	h.send(CmdSetMode, 0x00)
	h.expect(IntFirstResponse)
	h.send(CmdSetLoc, 0x00, 0x02, 0x05)
	h.expect(IntFirstResponse)
	h.send(CmdReadN)
	h.expect(IntFirstResponse)
	h.expect(IntSectorReady, StatMotor|StatRead)

	h.c.Write8(PortRequest, RequestBFRD)
	if h.c.HostStatus()&HostDRQSts == 0 {
		t.Fatal("data FIFO empty after request")
	}
	for i := 0; i < psx.DataSize; i++ {
		want := byte(5) + byte(psx.DataOffset+i)
		if b := h.c.Read8(PortParam); b != want {
			t.Fatalf("data byte %d = %02X, want %02X", i, b, want)
		}
	}
	lastOff := psx.DataOffset + psx.DataSize - 1
	last := byte(5) + byte(lastOff)
	if b := h.c.Read8(PortParam); b != last {
		t.Errorf("read past end = %02X, want %02X", b, last)
	}
	if h.c.HostStatus()&HostDRQSts != 0 {
		t.Error("data FIFO still reports data")
	}

	h.send(CmdGetLocL)
	h.expect(IntFirstResponse, 0x00, 0x02, 0x05, 0x02, 0x00, 0x00, psx.SubmodeData, 0x00)

	h.send(CmdPause)
	h.expect(IntFirstResponse)
	h.expect(IntSecondResponse, StatMotor)
}

func TestReadAudioWithoutCDDA(t *testing.T) {
	h := newHost(t, true)
	h.spinUp()
	h.send(CmdSetMode, 0x00)
	h.expect(IntFirstResponse)
	h.send(CmdSetLoc, 0x00, 0x02, 0x22)
	h.expect(IntFirstResponse)
	h.send(CmdReadN)
	h.expect(IntFirstResponse)
	h.expect(IntError, StatMotor|StatError|StatSeekError, ErrCodeSeekFailed)
	if _, ok := h.c.Drive().(Paused); !ok {
		t.Errorf("drive %s, want Paused", h.c.Drive())
	}
}

func TestPlayToLeadOut(t *testing.T) {
	h := newHost(t, true)
	h.spinUp()
	h.send(CmdPlay, 0x02)
	h.expect(IntFirstResponse)
	h.expect(IntDataEnd, 0x00)
	if _, ok := h.c.Drive().(Stopped); !ok {
		t.Errorf("drive %s at lead-out, want Stopped", h.c.Drive())
	}
	if h.nonZero == 0 {
		t.Error("no audio reached the sink")
	}

	// track numbers past the last one wrap around
	h.send(CmdPlay, 0x03)
	h.expect(IntFirstResponse)
	want := disc.Time{Seconds: 2}
	if got := headPosition(h.c.Drive()); got != want {
		t.Errorf("Play(3) heads to %s, want %s", got, want)
	}
}

func TestInterruptEdge(t *testing.T) {
	h := newHost(t, true)
	h.c.Write8(PortStatus, 1)
	h.c.Write8(PortParam, 0x00)
	h.c.Write8(PortStatus, 0)

	h.send(CmdGetStat)
	for i := 0; i < CommandReceiveCycles+1; i++ {
		h.c.Tick(CyclesPerStep)
	}
	if h.irqs != 0 {
		t.Fatalf("%d interrupts with a zero mask", h.irqs)
	}
	h.c.Write8(PortStatus, 1)
	h.c.Write8(PortParam, 0x1F)
	if h.irqs != 1 {
		t.Fatalf("%d interrupts after unmasking, want 1", h.irqs)
	}
	if got := h.c.Read8(PortRequest); got != 0xE0|IntFirstResponse {
		t.Errorf("flags register = %02X", got)
	}
	h.c.Write8(PortRequest, 0x1F)
	h.c.Write8(PortStatus, 0)
	h.send(CmdGetStat)
	h.expect(IntFirstResponse)
	if h.irqs != 2 {
		t.Errorf("%d interrupts, want 2", h.irqs)
	}
}

func TestVolumeMatrix(t *testing.T) {
	var gotL, gotR int16
	c := New(Config{}, nil, AudioFunc(func(l, r int16) { gotL, gotR = l, r }))
	c.Write8(PortStatus, 2)
	c.Write8(PortParam, 0x40)
	c.Write8(PortRequest, 0x40)
	c.Write8(PortStatus, 3)
	c.Write8(PortCommand, 0x00)
	c.Write8(PortParam, 0x00)

	c.cddaL = 1000
	c.stepAudio()
	if gotL != 1000 || gotR != 0 {
		t.Fatalf("before apply got %d/%d", gotL, gotR)
	}
	c.Write8(PortRequest, VolumeApply)
	c.cddaL = 1000
	c.stepAudio()
	if gotL != 500 || gotR != 500 {
		t.Errorf("after apply got %d/%d, want 500/500", gotL, gotR)
	}
}

func TestSaveState(t *testing.T) {
	a := newHost(t, true)
	a.send(CmdInit)
	a.expect(IntFirstResponse)
	for i := 0; i < 100; i++ {
		a.c.Tick(CyclesPerStep)
	}

	var buf bytes.Buffer
	if err := a.c.SaveState(&buf); err != nil {
		t.Fatal(err)
	}
	b := newHost(t, true)
	if err := b.c.LoadState(&buf); err != nil {
		t.Fatal(err)
	}
	if a.c.Drive().String() != b.c.Drive().String() {
		t.Fatalf("drive %s restored as %s", a.c.Drive(), b.c.Drive())
	}
	la, ra := a.wait()
	lb, rb := b.wait()
	if la != lb || !bytes.Equal(ra, rb) {
		t.Errorf("restored controller answered INT%d % X, want INT%d % X", lb, rb, la, ra)
	}
}
