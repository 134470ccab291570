package pkg

import (
	"errors"
	"fmt"

	"github.com/hansbonini/psxcdrom/pkg/cdrom"
	"github.com/hansbonini/psxcdrom/pkg/common"
	"github.com/hansbonini/psxcdrom/pkg/disc"
)

// IdentifyProcessor asks the emulated controller what it makes of a disc,
// the way the BIOS does at boot: Init, GetTN, GetTD for every track, then
// GetID.
type IdentifyProcessor struct {
	cfg cdrom.Config
}

// NewIdentifyProcessor creates a new identify processor instance
func NewIdentifyProcessor(cfg cdrom.Config) *IdentifyProcessor {
	return &IdentifyProcessor{cfg: cfg}
}

// Identify runs the boot sequence against img.
func (p *IdentifyProcessor) Identify(img *disc.Image) (*DiscIdentity, error) {
	h, err := NewHost(p.cfg, img, nil)
	if err != nil {
		return nil, err
	}
	if _, err := h.Command(cdrom.CmdGetStat); err != nil {
		return nil, err
	}
	if _, err := h.Complete(cdrom.CmdInit); err != nil {
		return nil, err
	}

	tn, err := h.Command(cdrom.CmdGetTN)
	if err != nil {
		return nil, err
	}
	if len(tn.Data) < 3 {
		return nil, fmt.Errorf("%s: GetTN answered % X", common.ErrControllerErrorReply, tn.Data)
	}
	id := &DiscIdentity{
		FirstTrack: int(common.FromBCD(tn.Data[1])),
		LastTrack:  int(common.FromBCD(tn.Data[2])),
	}

	leadOut, err := p.trackStart(h, 0)
	if err != nil {
		return nil, err
	}
	id.LeadOut = leadOut
	for n := id.FirstTrack; n <= id.LastTrack; n++ {
		start, err := p.trackStart(h, n)
		if err != nil {
			return nil, err
		}
		id.TrackStarts = append(id.TrackStarts, start)
	}

	r, err := h.Complete(cdrom.CmdGetID)
	var ce *ControllerError
	switch {
	case errors.As(err, &ce):
		id.Licensed = false
		id.Audio = ce.Code == 0x90
		id.ID = fmt.Sprintf("%02X %02X", ce.Status, ce.Code)
	case err != nil:
		return nil, err
	default:
		id.Licensed = true
		id.ID = fmt.Sprintf("% X", r.Data)
		if len(r.Data) == 8 {
			id.Region = regionName(r.Data[7])
		}
	}
	return id, nil
}

// trackStart issues GetTD and formats the mm:ss answer.
func (p *IdentifyProcessor) trackStart(h *Host, track int) (string, error) {
	n, err := common.SafeIntToUint8(track)
	if err != nil {
		return "", err
	}
	r, err := h.Command(cdrom.CmdGetTD, common.ToBCD(n))
	if err != nil {
		return "", err
	}
	if len(r.Data) < 3 {
		return "", fmt.Errorf("%s: GetTD answered % X", common.ErrControllerErrorReply, r.Data)
	}
	return fmt.Sprintf("%02d:%02d", common.FromBCD(r.Data[1]), common.FromBCD(r.Data[2])), nil
}

func regionName(letter byte) string {
	for _, r := range []disc.Region{disc.RegionJapan, disc.RegionAmerica, disc.RegionEurope} {
		if r.Letter() == letter {
			return r.String()
		}
	}
	return disc.RegionUnknown.String()
}
