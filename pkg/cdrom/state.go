package cdrom

import (
	"encoding/gob"
	"io"

	"github.com/pkg/errors"

	"github.com/hansbonini/psxcdrom/pkg/disc"
)

// snapshot is everything a save state carries. The disc itself is not
// part of it; the caller reloads the same image before LoadState.
type snapshot struct {
	Index         byte
	IRQMask       byte
	IRQFlags      byte
	IRQLine       bool
	Request       byte
	Params        ParamFIFO
	Response      ResponseFIFO
	Data          DataFIFO
	Mode          byte
	FilterFile    byte
	FilterChannel byte
	Loc           disc.Time
	LocPending    bool
	ShellOpen     bool
	Muted         bool
	ADPCMMuted    bool
	Volume        [4]byte
	PendingVolume [4]byte
	Drive         DriveState
	Cmd           CommandState
	AsyncLevel    byte
	AsyncData     []byte
	HasAsync      bool
	XA            XADecoder
	Sector        []byte
	SectorValid   bool
	Cycles        int
}

// SaveState writes the controller state to w.
func (c *Controller) SaveState(w io.Writer) error {
	s := snapshot{
		Index: c.index, IRQMask: c.irqMask, IRQFlags: c.irqFlags, IRQLine: c.irqLine,
		Request: c.request, Params: c.params, Response: c.response, Data: c.data,
		Mode: c.mode, FilterFile: c.filterFile, FilterChannel: c.filterChannel,
		Loc: c.loc, LocPending: c.locPending, ShellOpen: c.shellOpen,
		Muted: c.muted, ADPCMMuted: c.adpcmMuted,
		Volume: c.volume, PendingVolume: c.pendingVolume,
		Drive: c.drive, Cmd: c.cmd,
		XA: *c.xa, Sector: c.sector, SectorValid: c.sectorValid, Cycles: c.cycles,
	}
	if c.async != nil {
		s.HasAsync = true
		s.AsyncLevel = c.async.Level
		s.AsyncData = c.async.Data
	}
	return errors.Wrap(gob.NewEncoder(w).Encode(&s), "encode controller state")
}

// LoadState restores a state written by SaveState.
func (c *Controller) LoadState(r io.Reader) error {
	var s snapshot
	if err := gob.NewDecoder(r).Decode(&s); err != nil {
		return errors.Wrap(err, "decode controller state")
	}
	if len(s.Sector) != len(c.sector) {
		return errors.Errorf("controller state has a %d byte sector buffer", len(s.Sector))
	}
	c.index, c.irqMask, c.irqFlags, c.irqLine = s.Index, s.IRQMask, s.IRQFlags, s.IRQLine
	c.request, c.params, c.response, c.data = s.Request, s.Params, s.Response, s.Data
	c.mode, c.filterFile, c.filterChannel = s.Mode, s.FilterFile, s.FilterChannel
	c.loc, c.locPending, c.shellOpen = s.Loc, s.LocPending, s.ShellOpen
	c.muted, c.adpcmMuted = s.Muted, s.ADPCMMuted
	c.volume, c.pendingVolume = s.Volume, s.PendingVolume
	c.drive, c.cmd = s.Drive, s.Cmd
	if c.drive == nil {
		c.drive = Stopped{}
	}
	c.async = nil
	if s.HasAsync {
		c.async = &asyncResponse{Level: s.AsyncLevel, Data: s.AsyncData}
	}
	*c.xa = s.XA
	copy(c.sector, s.Sector)
	c.sectorValid, c.cycles = s.SectorValid, s.Cycles
	return nil
}
