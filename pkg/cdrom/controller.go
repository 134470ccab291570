// Package cdrom emulates the PlayStation CD-ROM controller: the register
// window seen by the host CPU, the command/response protocol, the drive
// mechanics and the XA-ADPCM audio path. It is single threaded and only
// moves forward when the scheduler calls Tick.
package cdrom

import (
	"encoding/binary"

	"github.com/hansbonini/psxcdrom/pkg/common"
	"github.com/hansbonini/psxcdrom/pkg/disc"
	"github.com/hansbonini/psxcdrom/pkg/psx"
)

// InterruptSink receives the controller's interrupt line. It fires on
// each 0 to 1 transition of (mask & flags).
type InterruptSink interface {
	RaiseInterrupt()
}

// InterruptFunc adapts a function to InterruptSink.
type InterruptFunc func()

// RaiseInterrupt calls f.
func (f InterruptFunc) RaiseInterrupt() { f() }

// AudioSink receives one 44100 Hz stereo pair per controller step.
type AudioSink interface {
	PushSample(left, right int16)
}

// AudioFunc adapts a function to AudioSink.
type AudioFunc func(left, right int16)

// PushSample calls f.
func (f AudioFunc) PushSample(left, right int16) { f(left, right) }

// DefaultBIOSVersion is the date/version answered by Test 20h
// (97/01/10, version C2).
var DefaultBIOSVersion = [4]byte{0x97, 0x01, 0x10, 0xC2}

// Config holds the parts of the controller fixed at construction.
type Config struct {
	BIOSVersion [4]byte
	// Region overrides the licence string read from the disc when not
	// RegionUnknown.
	Region disc.Region
}

// asyncResponse is an interrupt produced by the drive that waits for the
// host to acknowledge the current one.
type asyncResponse struct {
	Level byte
	Data  []byte
}

// Controller is the CD-ROM controller.
type Controller struct {
	cfg    Config
	disc   *disc.Image
	region disc.Region
	irq    InterruptSink
	audio  AudioSink

	index    byte
	irqMask  byte
	irqFlags byte
	irqLine  bool
	request  byte

	params   ParamFIFO
	response ResponseFIFO
	data     DataFIFO

	mode          byte
	filterFile    byte
	filterChannel byte
	loc           disc.Time
	locPending    bool
	shellOpen     bool
	muted         bool
	adpcmMuted    bool
	volume        [4]byte // L->L, L->R, R->R, R->L
	pendingVolume [4]byte

	drive DriveState
	cmd   CommandState
	async *asyncResponse

	xa          *XADecoder
	sector      []byte
	sectorValid bool
	cddaL       int16
	cddaR       int16

	cycles int
	err    error
}

// New returns a controller with an empty drive.
func New(cfg Config, irq InterruptSink, audio AudioSink) *Controller {
	if cfg.BIOSVersion == ([4]byte{}) {
		cfg.BIOSVersion = DefaultBIOSVersion
	}
	c := &Controller{
		cfg:    cfg,
		irq:    irq,
		audio:  audio,
		xa:     NewXADecoder(),
		sector: make([]byte, psx.SectorSize),
	}
	c.Reset()
	return c
}

// Reset puts the controller in its power-on state. The disc stays loaded.
func (c *Controller) Reset() {
	c.index = 0
	c.irqMask = 0
	c.irqFlags = 0
	c.irqLine = false
	c.request = 0
	c.params.Reset()
	c.response.Reset()
	c.data.Reset()
	c.mode = 0
	c.filterFile, c.filterChannel = 0, 0
	c.loc, c.locPending = disc.Time{}, false
	c.shellOpen = c.disc == nil
	c.muted, c.adpcmMuted = false, false
	c.volume = [4]byte{0x80, 0x00, 0x80, 0x00}
	c.pendingVolume = c.volume
	c.drive = Stopped{}
	c.cmd = CommandState{}
	c.async = nil
	c.xa.Reset()
	c.sectorValid = false
	c.cycles = 0
	c.err = nil
}

// LoadDisc inserts a disc, closing the previous one. The shell is reported
// open until the next GetStat.
func (c *Controller) LoadDisc(img *disc.Image) error {
	if img == nil {
		c.Eject()
		return nil
	}
	if c.disc != nil && c.disc != img {
		c.disc.Close()
	}
	c.disc = img
	c.region = c.cfg.Region
	if c.region == disc.RegionUnknown {
		region, err := disc.DetectRegion(img)
		if err != nil {
			return err
		}
		c.region = region
	}
	common.LogInfo(common.InfoRegionDetected, c.region)
	c.shellOpen = true
	c.drive = Stopped{}
	c.sectorValid = false
	return nil
}

// Eject removes the disc.
func (c *Controller) Eject() {
	if c.disc != nil {
		c.disc.Close()
	}
	c.disc = nil
	c.shellOpen = true
	c.transition(Stopped{Time: headPosition(c.drive)})
	c.sectorValid = false
}

// Disc returns the loaded image, or nil.
func (c *Controller) Disc() *disc.Image {
	return c.disc
}

// Drive returns the current mechanical state.
func (c *Controller) Drive() DriveState {
	return c.drive
}

// Command returns the command processor state.
func (c *Controller) Command() CommandState {
	return c.cmd
}

// Tick advances the controller by cpuCycles CPU cycles. A disc read error
// is returned once; the drive has already paused and raised INT5.
func (c *Controller) Tick(cpuCycles int) error {
	c.cycles += cpuCycles
	for c.cycles >= CyclesPerStep {
		c.cycles -= CyclesPerStep
		c.step()
	}
	err := c.err
	c.err = nil
	return err
}

func (c *Controller) step() {
	c.stepCommand()
	c.stepDrive()
	c.deliverPending()
	c.stepAudio()
}

func (c *Controller) stat() byte {
	s := c.drive.status()
	if c.shellOpen {
		s |= StatShellOpen
	}
	return s
}

func (c *Controller) respond(level byte, data ...byte) {
	c.response.Set(data...)
	c.irqFlags = c.irqFlags&^0x07 | level&0x07
	common.LogDebug(common.InfoControllerReport, level, data)
	c.updateIRQLine()
}

func (c *Controller) respondError(code byte) {
	c.respond(IntError, c.stat()|StatError, code)
}

func (c *Controller) updateIRQLine() {
	active := c.irqFlags&c.irqMask&0x1F != 0
	if active && !c.irqLine && c.irq != nil {
		c.irq.RaiseInterrupt()
	}
	c.irqLine = active
}

func (c *Controller) transition(next DriveState) {
	common.LogDebug(common.DebugDriveTransition, c.drive, next)
	c.drive = next
}

func (c *Controller) sectorPeriod() int {
	if c.mode&ModeSpeed != 0 {
		return DoubleSpeedSectorPeriod
	}
	return SectorPeriod
}

func (c *Controller) stepCommand() {
	if c.cmd.Phase == CommandIdle {
		return
	}
	if c.cmd.Cycles > 0 {
		c.cmd.Cycles--
	}
	// a pending interrupt stalls the command until acknowledged
	if c.cmd.Cycles > 0 || c.irqFlags != 0 {
		return
	}
	cmd := c.cmd
	c.cmd = CommandState{}
	if cmd.Phase == CommandReceiving {
		c.execute(cmd.Cmd)
	} else {
		c.secondResponse(cmd.Cmd)
	}
}

func (c *Controller) deliverPending() {
	if c.irqFlags != 0 {
		return
	}
	if r, ok := c.drive.(*Reading); ok && r.IRQPending {
		r.IRQPending = false
		c.respond(IntSectorReady, c.stat())
		return
	}
	if c.async != nil {
		a := c.async
		c.async = nil
		c.respond(a.Level, a.Data...)
	}
}

func (c *Controller) queueAsync(level byte, data ...byte) {
	c.async = &asyncResponse{Level: level, Data: data}
}

func (c *Controller) stepDrive() {
	switch s := c.drive.(type) {
	case *SpinningUp:
		s.Remaining--
		if s.Remaining <= 0 {
			c.transition(s.Next)
		}
	case *Seeking:
		s.Remaining--
		if s.Remaining > 0 {
			return
		}
		switch s.Then {
		case SeekThenRead:
			c.transition(&Reading{Time: s.Dest, Countdown: c.sectorPeriod()})
		case SeekThenPlay:
			c.transition(&Playing{Time: s.Dest, ReportCountdown: ReportInterval})
		default:
			c.transition(Paused{Time: s.Dest})
			c.queueAsync(IntSecondResponse, c.stat())
		}
	case *Reading:
		s.Countdown--
		if s.Countdown <= 0 {
			s.Countdown = c.sectorPeriod()
			c.readNextSector(s)
		}
	case *Playing:
		c.stepPlay(s)
	}
}

func (c *Controller) failRead(at disc.Time, err error) {
	common.LogWarn(common.WarnDiscReadFailed, at, err)
	c.transition(Paused{Time: at})
	c.queueAsync(IntError, c.stat()|StatError|StatSeekError, ErrCodeSeekFailed)
	c.err = err
}

func (c *Controller) readNextSector(s *Reading) {
	at := s.Time
	if c.disc == nil || !at.Before(c.disc.TOC().LeadOut()) {
		c.transition(Paused{Time: at})
		c.queueAsync(IntDataEnd, c.stat())
		return
	}
	if err := c.disc.ReadAt(at, c.sector); err != nil {
		c.failRead(at, err)
		return
	}
	track, _ := c.disc.TOC().TrackAt(at)
	if !track.Mode.IsData() && c.mode&ModeCDDA == 0 {
		c.transition(Paused{Time: at})
		c.queueAsync(IntError, c.stat()|StatError|StatSeekError, ErrCodeSeekFailed)
		return
	}
	c.sectorValid = true
	s.Time = at.Next()

	if track.Mode.IsData() && !psx.HasSync(c.sector) {
		common.LogDebug(common.DebugSectorNoSync, at)
	}
	if track.Mode == disc.Mode2 {
		sh := psx.ReadSubheader(c.sector)
		if c.mode&ModeXAADPCM != 0 && sh.IsRealTimeAudio() {
			if c.mode&ModeXAFilter == 0 || (sh.File == c.filterFile && sh.Channel == c.filterChannel) {
				if c.xa.DecodeSector(c.sector) {
					common.LogDebug(common.DebugXASectorDecoded, at, c.xa.Coding, c.xa.Coding.Rate(), c.xa.Pending())
				}
			}
			// streamed audio never reaches the data FIFO
			return
		}
		common.LogDebug(common.DebugSectorDelivered, at, sh.Submode)
	} else {
		common.LogDebug(common.DebugSectorDelivered, at, byte(0))
	}
	s.IRQPending = true
}

func (c *Controller) stepPlay(s *Playing) {
	if s.Sample == 0 {
		if err := c.disc.ReadAt(s.Time, c.sector); err != nil {
			c.failRead(s.Time, err)
			return
		}
		c.sectorValid = true
		s.Peak = 0
	}

	if track, ok := c.disc.TOC().TrackAt(s.Time); ok && !track.Mode.IsData() {
		c.cddaL = int16(binary.LittleEndian.Uint16(c.sector[s.Sample*4:]))
		c.cddaR = int16(binary.LittleEndian.Uint16(c.sector[s.Sample*4+2:]))
		if p := abs16(c.cddaL); p > s.Peak {
			s.Peak = p
		}
	}
	s.Sample++
	if s.Sample < SamplesPerSector {
		return
	}
	s.Sample = 0

	if c.mode&ModeReport != 0 {
		s.ReportCountdown--
		if s.ReportCountdown <= 0 {
			s.ReportCountdown = ReportInterval
			c.queueAsync(IntSectorReady, c.positionReport(s)...)
			s.ReportRelative = !s.ReportRelative
		}
	}

	next := s.Time.Next()
	if !next.Before(c.disc.TOC().LeadOut()) {
		c.transition(Stopped{Time: headPosition(c.drive)})
		c.queueAsync(IntDataEnd, c.stat())
		return
	}
	if track, ok := c.disc.TOC().TrackAt(s.Time); ok && !next.Before(track.End) && c.mode&ModeAutoPause != 0 {
		c.transition(Paused{Time: next})
		c.queueAsync(IntDataEnd, c.stat())
		return
	}
	s.Time = next
}

// positionReport alternates between absolute and track-relative time.
func (c *Controller) positionReport(s *Playing) []byte {
	track, _ := c.disc.TOC().TrackAt(s.Time)
	index := byte(1)
	rel := s.Time.Sub(track.EffectiveStart())
	if s.Time.Before(track.EffectiveStart()) {
		index = 0
		rel = track.EffectiveStart().Sub(s.Time)
	}
	var m, sec, f byte
	if s.ReportRelative {
		m, sec, f = rel.BCD()
		sec |= 0x80
	} else {
		m, sec, f = s.Time.BCD()
	}
	peak := uint16(s.Peak)
	return []byte{c.stat(), common.ToBCD(uint8(track.Number)), index, m, sec, f, byte(peak), byte(peak >> 8)}
}

func (c *Controller) stepAudio() {
	var l, r int32
	if !c.muted {
		l, r = int32(c.cddaL), int32(c.cddaR)
	}
	c.cddaL, c.cddaR = 0, 0
	if xl, xr, ok := c.xa.PopSample(); ok && !c.muted && !c.adpcmMuted {
		l += int32(xl)
		r += int32(xr)
	}
	if c.audio == nil {
		return
	}
	v := c.volume
	outL := (l*int32(v[0]) + r*int32(v[3])) >> 7
	outR := (l*int32(v[1]) + r*int32(v[2])) >> 7
	c.audio.PushSample(clamp16(outL), clamp16(outR))
}

func abs16(v int16) int16 {
	if v < 0 {
		if v == -32768 {
			return 32767
		}
		return -v
	}
	return v
}
