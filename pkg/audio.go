package pkg

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/hansbonini/psxcdrom/pkg/cdrom"
	"github.com/hansbonini/psxcdrom/pkg/common"
	"github.com/hansbonini/psxcdrom/pkg/disc"
)

// XARipOptions selects the interleaved XA stream to rip.
type XARipOptions struct {
	Start       disc.Time
	File        byte
	Channel     byte
	Filter      bool
	Sectors     int
	DoubleSpeed bool
}

// AudioProcessor records the controller's audio output to WAV files. The
// disc is driven through the emulated controller, so what ends up in the
// file is what the SPU would have received.
type AudioProcessor struct {
	cfg cdrom.Config
}

// NewAudioProcessor creates a new audio processor instance
func NewAudioProcessor(cfg cdrom.Config) *AudioProcessor {
	return &AudioProcessor{cfg: cfg}
}

// recorder is an AudioSink that buffers interleaved stereo samples.
type recorder struct {
	on      bool
	samples []int
}

func (r *recorder) PushSample(l, rr int16) {
	if r.on {
		r.samples = append(r.samples, int(l), int(rr))
	}
}

func (p *AudioProcessor) start(img *disc.Image, rec *recorder) (*Host, error) {
	h, err := NewHost(p.cfg, img, rec)
	if err != nil {
		return nil, err
	}
	if _, err := h.Command(cdrom.CmdGetStat); err != nil {
		return nil, err
	}
	if _, err := h.Complete(cdrom.CmdInit); err != nil {
		return nil, err
	}
	return h, nil
}

// RipCDDA plays an audio track from INDEX 01 to its end and writes the
// output to outputFile.
func (p *AudioProcessor) RipCDDA(img *disc.Image, track int, outputFile string) (int, error) {
	t, ok := img.TOC().Track(track)
	if !ok {
		return 0, fmt.Errorf("%s: %d", common.ErrTrackOutOfRange, track)
	}
	if t.Mode.IsData() {
		return 0, fmt.Errorf("%s: track %d is %s", common.ErrTrackOutOfRange, track, t.Mode)
	}
	n, err := common.SafeIntToUint8(track)
	if err != nil {
		return 0, err
	}

	rec := &recorder{}
	h, err := p.start(img, rec)
	if err != nil {
		return 0, err
	}
	if _, err := h.Command(cdrom.CmdSetMode, cdrom.ModeCDDA|cdrom.ModeAutoPause); err != nil {
		return 0, err
	}
	if _, err := h.Command(cdrom.CmdPlay, common.ToBCD(n)); err != nil {
		return 0, err
	}

	// one sample per step, plus the seek
	limit := (t.Length().Sectors()+1)*cdrom.SamplesPerSector + DefaultWaitSteps
	for i := 0; i < limit; i++ {
		r, err := h.Step()
		if err != nil {
			return 0, err
		}
		if !rec.on {
			_, rec.on = h.Controller().Drive().(*cdrom.Playing)
		}
		if r == nil {
			continue
		}
		switch r.Level {
		case cdrom.IntDataEnd:
			return len(rec.samples) / 2, writeWAV(outputFile, rec.samples)
		case cdrom.IntError:
			return 0, responseError(cdrom.CmdPlay, r)
		}
	}
	return 0, fmt.Errorf("%s: track %d never ended", common.ErrControllerNoResponse, track)
}

// RipXA reads opts.Sectors sectors from opts.Start with ADPCM playback on
// and writes the decoded stream to outputFile.
func (p *AudioProcessor) RipXA(img *disc.Image, opts XARipOptions, outputFile string) (int, error) {
	rec := &recorder{}
	h, err := p.start(img, rec)
	if err != nil {
		return 0, err
	}
	mode := byte(cdrom.ModeXAADPCM)
	period := cdrom.SectorPeriod
	if opts.Filter {
		mode |= cdrom.ModeXAFilter
		if _, err := h.Command(cdrom.CmdSetFilter, opts.File, opts.Channel); err != nil {
			return 0, err
		}
	}
	if opts.DoubleSpeed {
		mode |= cdrom.ModeSpeed
		period = cdrom.DoubleSpeedSectorPeriod
	}
	if _, err := h.Command(cdrom.CmdSetMode, mode); err != nil {
		return 0, err
	}
	m, s, f := opts.Start.BCD()
	if _, err := h.Command(cdrom.CmdSetLoc, m, s, f); err != nil {
		return 0, err
	}
	if _, err := h.Command(cdrom.CmdReadS); err != nil {
		return 0, err
	}
	rec.on = true

	// count steps spent reading, the seek comes first
	remaining := opts.Sectors * period
	for i := 0; remaining > 0 && i < opts.Sectors*period+DefaultWaitSteps; i++ {
		if _, reading := h.Controller().Drive().(*cdrom.Reading); reading {
			remaining--
		}
		r, err := h.Step()
		if err != nil {
			return 0, err
		}
		if r == nil {
			continue
		}
		if r.Level == cdrom.IntDataEnd {
			break
		}
		if r.Level == cdrom.IntError {
			return 0, responseError(cdrom.CmdReadS, r)
		}
	}

	if _, err := h.Command(cdrom.CmdPause); err != nil {
		return 0, err
	}
	for h.Controller().HostStatus()&cdrom.HostADPBusy != 0 {
		if _, err := h.Step(); err != nil {
			return 0, err
		}
	}

	samples := trimSilence(rec.samples)
	return len(samples) / 2, writeWAV(outputFile, samples)
}

// trimSilence drops the leading silent pairs played while seeking.
func trimSilence(samples []int) []int {
	for i := 0; i+1 < len(samples); i += 2 {
		if samples[i] != 0 || samples[i+1] != 0 {
			return samples[i:]
		}
	}
	return nil
}

func writeWAV(outputFile string, samples []int) (err error) {
	f, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("%s: %w", common.ErrFailedToCreateOutput, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	enc := wav.NewEncoder(f, cdrom.AudioRate, 16, 2, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: cdrom.AudioRate},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("%s: %w", common.ErrFailedToWriteAudio, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("%s: %w", common.ErrFailedToWriteAudio, err)
	}
	common.LogInfo(common.InfoAudioWritten, len(samples)/2, cdrom.AudioRate, outputFile)
	return nil
}
