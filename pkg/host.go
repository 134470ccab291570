package pkg

import (
	"fmt"

	"github.com/hansbonini/psxcdrom/pkg/cdrom"
	"github.com/hansbonini/psxcdrom/pkg/common"
	"github.com/hansbonini/psxcdrom/pkg/disc"
)

// DefaultWaitSteps bounds how long the host waits for one interrupt: five
// seconds of controller time, enough for ReadTOC.
const DefaultWaitSteps = cdrom.AudioRate * 5

// Response is one interrupt read back from the controller.
type Response struct {
	Level byte
	Data  []byte
}

// ControllerError is an INT5 answer to a command.
type ControllerError struct {
	Command string
	Status  byte
	Code    byte
}

func (e *ControllerError) Error() string {
	return fmt.Sprintf("%s: %s: stat %02X code %02X", common.ErrControllerErrorReply, e.Command, e.Status, e.Code)
}

// Host plays the part of the CPU: it writes commands through the register
// window, waits for interrupts and acknowledges them.
type Host struct {
	ctrl    *cdrom.Controller
	raised  bool
	sink    cdrom.AudioSink
	elapsed int
}

// NewHost builds a controller around img. Samples produced while the host
// runs go to sink, which may be nil.
func NewHost(cfg cdrom.Config, img *disc.Image, sink cdrom.AudioSink) (*Host, error) {
	h := &Host{sink: sink}
	h.ctrl = cdrom.New(cfg, cdrom.InterruptFunc(func() { h.raised = true }), cdrom.AudioFunc(h.pushSample))
	if err := h.ctrl.LoadDisc(img); err != nil {
		return nil, err
	}
	h.ctrl.Write8(cdrom.PortStatus, 1)
	h.ctrl.Write8(cdrom.PortParam, 0x1F)
	h.ctrl.Write8(cdrom.PortRequest, 0x1F)
	h.ctrl.Write8(cdrom.PortStatus, 0)
	return h, nil
}

func (h *Host) pushSample(l, r int16) {
	if h.sink != nil {
		h.sink.PushSample(l, r)
	}
}

// Controller returns the emulated controller.
func (h *Host) Controller() *cdrom.Controller {
	return h.ctrl
}

// Elapsed is the number of controller steps run so far.
func (h *Host) Elapsed() int {
	return h.elapsed
}

// Send writes params and a command opcode without waiting.
func (h *Host) Send(cmd byte, params ...byte) {
	h.ctrl.Write8(cdrom.PortStatus, 0)
	for _, p := range params {
		h.ctrl.Write8(cdrom.PortParam, p)
	}
	h.ctrl.Write8(cdrom.PortCommand, cmd)
}

// Step runs the controller for one step and returns the interrupt it
// raised, if any.
func (h *Host) Step() (*Response, error) {
	if err := h.ctrl.Tick(cdrom.CyclesPerStep); err != nil {
		return nil, err
	}
	h.elapsed++
	if !h.raised {
		return nil, nil
	}
	h.raised = false
	return h.acknowledge(), nil
}

func (h *Host) acknowledge() *Response {
	h.ctrl.Write8(cdrom.PortStatus, 1)
	r := &Response{Level: h.ctrl.Read8(cdrom.PortRequest) & 0x07}
	h.ctrl.Write8(cdrom.PortStatus, 0)
	for h.ctrl.HostStatus()&cdrom.HostRSLRrdy != 0 {
		r.Data = append(r.Data, h.ctrl.Read8(cdrom.PortCommand))
	}
	h.ctrl.Write8(cdrom.PortStatus, 1)
	h.ctrl.Write8(cdrom.PortRequest, 0x1F)
	h.ctrl.Write8(cdrom.PortStatus, 0)
	return r
}

// Wait runs until the next interrupt.
func (h *Host) Wait(maxSteps int) (*Response, error) {
	for i := 0; i < maxSteps; i++ {
		r, err := h.Step()
		if err != nil {
			return nil, err
		}
		if r != nil {
			return r, nil
		}
	}
	return nil, fmt.Errorf("%s after %d steps", common.ErrControllerNoResponse, maxSteps)
}

// Command sends cmd and returns its first response. INT5 answers are
// returned as *ControllerError. Sector interrupts that arrive meanwhile
// are skipped.
func (h *Host) Command(cmd byte, params ...byte) (*Response, error) {
	h.Send(cmd, params...)
	for {
		r, err := h.Wait(DefaultWaitSteps)
		if err != nil {
			return nil, err
		}
		switch r.Level {
		case cdrom.IntFirstResponse:
			return r, nil
		case cdrom.IntError:
			return nil, responseError(cmd, r)
		}
	}
}

// Complete sends a command with two responses and returns the second.
func (h *Host) Complete(cmd byte, params ...byte) (*Response, error) {
	if _, err := h.Command(cmd, params...); err != nil {
		return nil, err
	}
	r, err := h.Wait(cdrom.ReadTOCCycles + DefaultWaitSteps)
	if err != nil {
		return nil, err
	}
	if r.Level == cdrom.IntError {
		return nil, responseError(cmd, r)
	}
	return r, nil
}

func responseError(cmd byte, r *Response) error {
	e := &ControllerError{Command: cdrom.CommandName(cmd)}
	if len(r.Data) > 0 {
		e.Status = r.Data[0]
	}
	if len(r.Data) > 1 {
		e.Code = r.Data[1]
	}
	return e
}
