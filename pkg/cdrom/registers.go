package cdrom

// Register ports, relative to 0x1F801800.
const (
	PortStatus   = 0
	PortCommand  = 1
	PortParam    = 2
	PortRequest  = 3
	registerMask = 3
)

// HostStatus returns the port 0 status byte.
func (c *Controller) HostStatus() byte {
	s := c.index
	if c.xa.Pending() > 0 {
		s |= HostADPBusy
	}
	if c.params.Empty() {
		s |= HostPRMEmpt
	}
	if !c.params.Full() {
		s |= HostPRMWrdy
	}
	if !c.response.Empty() {
		s |= HostRSLRrdy
	}
	if !c.data.Empty() {
		s |= HostDRQSts
	}
	if c.cmd.Phase == CommandReceiving {
		s |= HostBusySts
	}
	return s
}

// Read8 reads one of the four byte-wide registers. The meaning of ports 1
// to 3 depends on the index selected through port 0.
func (c *Controller) Read8(port int) byte {
	switch port & registerMask {
	case PortStatus:
		return c.HostStatus()
	case PortCommand:
		return c.response.Pop()
	case PortParam:
		return c.data.Pop()
	default:
		if c.index&1 == 0 {
			return c.irqMask | 0xE0
		}
		return c.irqFlags | 0xE0
	}
}

// ReadDataWord pops four bytes of the data FIFO, as DMA channel 3 does.
func (c *Controller) ReadDataWord() uint32 {
	return c.data.PopWord()
}

// Write8 writes one of the four byte-wide registers.
func (c *Controller) Write8(port int, v byte) {
	switch port & registerMask {
	case PortStatus:
		c.index = v & 3
	case PortCommand:
		switch c.index {
		case 0:
			c.writeCommand(v)
		case 3:
			c.pendingVolume[2] = v
		}
	case PortParam:
		switch c.index {
		case 0:
			c.params.Push(v)
		case 1:
			c.irqMask = v & 0x1F
			c.updateIRQLine()
		case 2:
			c.pendingVolume[0] = v
		case 3:
			c.pendingVolume[3] = v
		}
	default:
		switch c.index {
		case 0:
			c.writeRequest(v)
		case 1:
			c.irqFlags &^= v & 0x1F
			if v&0x40 != 0 {
				c.params.Reset()
			}
			c.updateIRQLine()
		case 2:
			c.pendingVolume[1] = v
		case 3:
			c.adpcmMuted = v&VolumeADPCMMute != 0
			if v&VolumeApply != 0 {
				c.volume = c.pendingVolume
			}
		}
	}
}

func (c *Controller) writeRequest(v byte) {
	c.request = v
	if v&RequestBFRD == 0 {
		c.data.Reset()
		return
	}
	if !c.sectorValid {
		return
	}
	if c.mode&ModeSectorSize != 0 {
		c.data.Load(c.sector[12 : 12+0x924])
	} else {
		c.data.Load(c.sector[24 : 24+0x800])
	}
}
