package cdrom

import (
	"fmt"

	"github.com/hansbonini/psxcdrom/pkg/common"
	"github.com/hansbonini/psxcdrom/pkg/disc"
)

// Command opcodes.
const (
	CmdSync      = 0x00
	CmdGetStat   = 0x01
	CmdSetLoc    = 0x02
	CmdPlay      = 0x03
	CmdForward   = 0x04
	CmdBackward  = 0x05
	CmdReadN     = 0x06
	CmdMotorOn   = 0x07
	CmdStop      = 0x08
	CmdPause     = 0x09
	CmdInit      = 0x0A
	CmdMute      = 0x0B
	CmdDemute    = 0x0C
	CmdSetFilter = 0x0D
	CmdSetMode   = 0x0E
	CmdGetParam  = 0x0F
	CmdGetLocL   = 0x10
	CmdGetLocP   = 0x11
	CmdGetTN     = 0x13
	CmdGetTD     = 0x14
	CmdSeekL     = 0x15
	CmdSeekP     = 0x16
	CmdTest      = 0x19
	CmdGetID     = 0x1A
	CmdReadS     = 0x1B
	CmdReset     = 0x1C
	CmdReadTOC   = 0x1E
)

// TestGetVersion is the Test sub-function returning the controller BIOS
// date and version.
const TestGetVersion = 0x20

type command struct {
	name      string
	minParams int
	maxParams int
	needsDisc bool
	run       func(*Controller)
	second    func(*Controller)
}

var commands map[byte]command

func init() {
	commands = map[byte]command{
		CmdGetStat:   {name: "GetStat", run: (*Controller).cmdGetStat},
		CmdSetLoc:    {name: "SetLoc", minParams: 3, maxParams: 3, run: (*Controller).cmdSetLoc},
		CmdPlay:      {name: "Play", maxParams: 1, needsDisc: true, run: (*Controller).cmdPlay},
		CmdReadN:     {name: "ReadN", needsDisc: true, run: (*Controller).cmdRead},
		CmdMotorOn:   {name: "MotorOn", needsDisc: true, run: (*Controller).cmdMotorOn, second: (*Controller).secondStat},
		CmdStop:      {name: "Stop", run: (*Controller).cmdStop, second: (*Controller).secondStop},
		CmdPause:     {name: "Pause", run: (*Controller).cmdPause, second: (*Controller).secondPause},
		CmdInit:      {name: "Init", run: (*Controller).cmdInit, second: (*Controller).secondStat},
		CmdMute:      {name: "Mute", run: (*Controller).cmdMute},
		CmdDemute:    {name: "Demute", run: (*Controller).cmdDemute},
		CmdSetFilter: {name: "SetFilter", minParams: 2, maxParams: 2, run: (*Controller).cmdSetFilter},
		CmdSetMode:   {name: "SetMode", minParams: 1, maxParams: 1, run: (*Controller).cmdSetMode},
		CmdGetParam:  {name: "GetParam", run: (*Controller).cmdGetParam},
		CmdGetLocL:   {name: "GetLocL", needsDisc: true, run: (*Controller).cmdGetLocL},
		CmdGetLocP:   {name: "GetLocP", needsDisc: true, run: (*Controller).cmdGetLocP},
		CmdGetTN:     {name: "GetTN", needsDisc: true, run: (*Controller).cmdGetTN},
		CmdGetTD:     {name: "GetTD", minParams: 1, maxParams: 1, needsDisc: true, run: (*Controller).cmdGetTD},
		CmdSeekL:     {name: "SeekL", needsDisc: true, run: (*Controller).cmdSeek},
		CmdSeekP:     {name: "SeekP", needsDisc: true, run: (*Controller).cmdSeek},
		CmdTest:      {name: "Test", minParams: 1, maxParams: FIFOCapacity, run: (*Controller).cmdTest},
		CmdGetID:     {name: "GetID", needsDisc: true, run: (*Controller).cmdGetID, second: (*Controller).secondGetID},
		CmdReadS:     {name: "ReadS", needsDisc: true, run: (*Controller).cmdRead},
		CmdReadTOC:   {name: "ReadTOC", needsDisc: true, run: (*Controller).cmdReadTOC, second: (*Controller).secondStat},
	}
}

// CommandName returns the mnemonic of a command opcode.
func CommandName(cmd byte) string {
	if c, ok := commands[cmd]; ok {
		return c.name
	}
	return fmt.Sprintf("Cmd%02X", cmd)
}

func (c *Controller) writeCommand(cmd byte) {
	if c.cmd.Phase != CommandIdle {
		common.LogWarn(common.WarnCommandOverwritten, CommandName(cmd), CommandName(c.cmd.Cmd))
	}
	c.cmd = CommandState{
		Phase:  CommandReceiving,
		Cmd:    cmd,
		Cycles: CommandReceiveCycles + c.params.Len*ParamTransferCycles,
	}
}

func (c *Controller) execute(op byte) {
	defer c.params.Reset()
	common.LogDebug(common.DebugCommandReceived, CommandName(op), op, c.params.Bytes())

	cmd, ok := commands[op]
	switch {
	case !ok:
		common.LogWarn(common.WarnUnknownCommand, op)
		c.respondError(ErrCodeInvalidCmd)
	case c.params.Len < cmd.minParams || c.params.Len > cmd.maxParams:
		c.respondError(ErrCodeParamCount)
	case cmd.needsDisc && c.disc == nil:
		c.respondError(ErrCodeNotReady)
	default:
		cmd.run(c)
	}
}

func (c *Controller) scheduleSecond(op byte, cycles int) {
	if cycles < 1 {
		cycles = 1
	}
	c.cmd = CommandState{Phase: CommandSecondResponse, Cmd: op, Cycles: cycles}
}

func (c *Controller) secondResponse(op byte) {
	common.LogDebug(common.DebugSecondResponse, CommandName(op))
	if cmd, ok := commands[op]; ok && cmd.second != nil {
		cmd.second(c)
	}
}

// target consumes a pending SetLoc, falling back to the head position.
func (c *Controller) target() disc.Time {
	if c.locPending {
		c.locPending = false
		return c.loc
	}
	return headPosition(c.drive)
}

func (c *Controller) startMotion(dest disc.Time, then SeekTarget) {
	if !motorOn(c.drive) {
		c.transition(&SpinningUp{
			Remaining: SpinUpCycles,
			Next:      &Seeking{Dest: dest, Remaining: EstimateSeekCycles(dest.Sectors()), Then: then},
		})
		return
	}
	from := headPosition(c.drive)
	distance := from.Distance(dest)
	cycles := EstimateSeekCycles(distance)
	common.LogDebug(common.DebugSeekEstimate, from, dest, distance, cycles)
	c.transition(&Seeking{Dest: dest, Remaining: cycles, Then: then})
}

func (c *Controller) cmdGetStat() {
	c.respond(IntFirstResponse, c.stat())
	if c.disc != nil {
		c.shellOpen = false
	}
}

func (c *Controller) cmdSetLoc() {
	m, s, f := c.params.Pop(), c.params.Pop(), c.params.Pop()
	t, err := disc.TimeFromBCD(m, s, f)
	if err != nil {
		c.respondError(ErrCodeInvalidParam)
		return
	}
	c.loc = t
	c.locPending = true
	c.respond(IntFirstResponse, c.stat())
}

func (c *Controller) cmdPlay() {
	dest := c.target()
	if c.params.Len == 1 {
		p := c.params.Pop()
		if p != 0 {
			if !common.IsValidBCD(p) {
				c.respondError(ErrCodeInvalidParam)
				return
			}
			toc := c.disc.TOC()
			n := (int(common.FromBCD(p))-1)%toc.TrackCount() + 1
			track, _ := toc.Track(n)
			dest = track.EffectiveStart()
		}
	}
	c.startMotion(dest, SeekThenPlay)
	c.respond(IntFirstResponse, c.stat())
}

func (c *Controller) cmdRead() {
	if _, reading := c.drive.(*Reading); reading && !c.locPending {
		c.respond(IntFirstResponse, c.stat())
		return
	}
	c.startMotion(c.target(), SeekThenRead)
	c.respond(IntFirstResponse, c.stat())
}

func (c *Controller) cmdMotorOn() {
	if motorOn(c.drive) {
		c.respondError(ErrCodeParamCount)
		return
	}
	c.transition(&SpinningUp{Remaining: SpinUpCycles, Next: Paused{Time: headPosition(c.drive)}})
	c.respond(IntFirstResponse, c.stat())
	c.scheduleSecond(CmdMotorOn, SpinUpCycles+1)
}

func (c *Controller) cmdStop() {
	st := c.stat()
	delay := PauseIdleCycles
	if motorOn(c.drive) {
		delay = StopSpinDownCycle
		c.transition(Paused{Time: headPosition(c.drive)})
	}
	c.respond(IntFirstResponse, st)
	c.scheduleSecond(CmdStop, delay)
}

func (c *Controller) secondStop() {
	c.transition(Stopped{Time: headPosition(c.drive)})
	c.xa.Reset()
	c.respond(IntSecondResponse, c.stat())
}

func (c *Controller) cmdPause() {
	st := c.stat()
	delay := PauseSectors * c.sectorPeriod()
	switch c.drive.(type) {
	case Paused, Stopped:
		delay = PauseIdleCycles
	default:
		c.transition(Paused{Time: headPosition(c.drive)})
	}
	c.respond(IntFirstResponse, st)
	c.scheduleSecond(CmdPause, delay)
}

func (c *Controller) secondPause() {
	c.respond(IntSecondResponse, c.stat())
}

func (c *Controller) secondStat() {
	c.respond(IntSecondResponse, c.stat())
}

func (c *Controller) cmdInit() {
	c.mode = ModeSectorSize
	c.locPending = false
	c.muted = false
	c.xa.Reset()
	c.data.Reset()
	delay := InitCycles
	if motorOn(c.drive) {
		c.transition(Paused{Time: headPosition(c.drive)})
	} else {
		c.transition(&SpinningUp{Remaining: SpinUpCycles, Next: Paused{}})
		delay += SpinUpCycles
	}
	c.respond(IntFirstResponse, c.stat())
	c.scheduleSecond(CmdInit, delay)
}

func (c *Controller) cmdMute() {
	c.muted = true
	c.respond(IntFirstResponse, c.stat())
}

func (c *Controller) cmdDemute() {
	c.muted = false
	c.respond(IntFirstResponse, c.stat())
}

func (c *Controller) cmdSetFilter() {
	c.filterFile = c.params.Pop()
	c.filterChannel = c.params.Pop()
	c.respond(IntFirstResponse, c.stat())
}

func (c *Controller) cmdSetMode() {
	m := c.params.Pop()
	if m&ModeIgnore != 0 {
		common.LogDebug(common.DebugIgnoreBitSet, m)
	}
	c.mode = m
	c.respond(IntFirstResponse, c.stat())
}

func (c *Controller) cmdGetParam() {
	c.respond(IntFirstResponse, c.stat(), c.mode, 0, c.filterFile, c.filterChannel)
}

func (c *Controller) cmdGetLocL() {
	if !c.sectorValid {
		c.respondError(ErrCodeNotReady)
		return
	}
	c.respond(IntFirstResponse, c.sector[12:20]...)
}

func (c *Controller) cmdGetLocP() {
	pos := headPosition(c.drive)
	toc := c.disc.TOC()
	track, ok := toc.TrackAt(pos)
	if !ok {
		track, _ = toc.Track(toc.TrackCount())
	}
	index := byte(1)
	var rel disc.Time
	if pos.Before(track.EffectiveStart()) {
		index = 0
		rel = track.EffectiveStart().Sub(pos)
	} else {
		rel = pos.Sub(track.EffectiveStart())
	}
	m, s, f := rel.BCD()
	am, as, af := pos.BCD()
	c.respond(IntFirstResponse, common.ToBCD(uint8(track.Number)), index, m, s, f, am, as, af)
}

func (c *Controller) cmdGetTN() {
	last := c.disc.TOC().TrackCount()
	c.respond(IntFirstResponse, c.stat(), 0x01, common.ToBCD(uint8(last)))
}

func (c *Controller) cmdGetTD() {
	p := c.params.Pop()
	if !common.IsValidBCD(p) {
		c.respondError(ErrCodeInvalidParam)
		return
	}
	toc := c.disc.TOC()
	n := int(common.FromBCD(p))
	var t disc.Time
	if n == 0 {
		t = toc.LeadOut()
	} else {
		track, ok := toc.Track(n)
		if !ok {
			c.respondError(ErrCodeInvalidParam)
			return
		}
		t = track.EffectiveStart()
	}
	m, s, _ := t.BCD()
	c.respond(IntFirstResponse, c.stat(), m, s)
}

func (c *Controller) cmdSeek() {
	c.startMotion(c.target(), SeekThenPause)
	c.respond(IntFirstResponse, c.stat())
}

func (c *Controller) cmdTest() {
	sub := c.params.Pop()
	if sub != TestGetVersion {
		common.LogWarn(common.WarnUnknownTestCommand, sub)
		c.respondError(ErrCodeInvalidParam)
		return
	}
	v := c.cfg.BIOSVersion
	c.respond(IntFirstResponse, v[:]...)
}

func (c *Controller) cmdGetID() {
	c.respond(IntFirstResponse, c.stat())
	c.scheduleSecond(CmdGetID, GetIDCycles)
}

func (c *Controller) secondGetID() {
	if c.disc == nil {
		c.respondError(ErrCodeNotReady)
		return
	}
	first, _ := c.disc.TOC().Track(1)
	switch {
	case !first.Mode.IsData():
		c.respond(IntError, c.stat()|StatIDError, 0x90, 0, 0, 0, 0, 0, 0)
	case c.region == disc.RegionUnknown:
		c.respond(IntError, c.stat()|StatIDError, 0x80, 0, 0, 0, 0, 0, 0)
	default:
		c.respond(IntSecondResponse, c.stat(), 0x00, 0x20, 0x00, 'S', 'C', 'E', c.region.Letter())
	}
}

func (c *Controller) cmdReadTOC() {
	c.respond(IntFirstResponse, c.stat())
	c.scheduleSecond(CmdReadTOC, ReadTOCCycles)
}
