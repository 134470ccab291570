package pkg

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/hansbonini/psxcdrom/pkg/common"
	"github.com/hansbonini/psxcdrom/pkg/disc"
	"github.com/hansbonini/psxcdrom/pkg/psx"
)

// progressEvery is how many sectors pass between two progress redraws.
const progressEvery = 256

// VerifyProcessor checks the EDC of every stored sector of a disc image.
type VerifyProcessor struct {
	out      io.Writer
	progress bool
	width    int
}

// NewVerifyProcessor reports progress on out when out is a terminal.
func NewVerifyProcessor(out *os.File) *VerifyProcessor {
	p := &VerifyProcessor{out: out, width: 40}
	if out == nil {
		return p
	}
	fd := int(out.Fd())
	if term.IsTerminal(fd) {
		p.progress = true
		if w, _, err := term.GetSize(fd); err == nil && w > 30 {
			p.width = w - 30
		}
	}
	return p
}

// Verify reads every sector the container stores. Checksum mismatches are
// collected in the report; I/O errors stop the walk.
func (p *VerifyProcessor) Verify(img *disc.Image) (*VerifyReport, error) {
	policy := img.ChecksumPolicy()
	img.SetChecksumPolicy(disc.ChecksumStrict)
	defer img.SetChecksumPolicy(policy)

	toc := img.TOC()
	report := &VerifyReport{Tracks: toc.TrackCount()}
	total := 0
	for _, t := range toc.Tracks() {
		total += t.DataSectors()
	}

	buf := make([]byte, psx.SectorSize)
	for _, t := range toc.Tracks() {
		first := t.Pregap.Sectors()
		for i := 0; i < t.DataSectors(); i++ {
			err := img.ReadSector(t.Number, disc.TimeFromSectors(first+i), buf)
			var ce *disc.ChecksumError
			switch {
			case errors.As(err, &ce):
				report.Faults = append(report.Faults, SectorFault{
					Track: ce.Track, Sector: ce.Sector, Expected: ce.Expected, Actual: ce.Actual,
				})
				common.LogDebug("%v", ce)
			case err != nil:
				return report, err
			}
			report.Sectors++
			if report.Sectors%progressEvery == 0 {
				p.draw(report.Sectors, total)
			}
		}
	}
	p.draw(report.Sectors, total)
	if p.progress {
		fmt.Fprintln(p.out)
	}
	common.LogInfo(common.InfoVerifyDone, report.Sectors, report.Tracks, len(report.Faults))
	return report, nil
}

func (p *VerifyProcessor) draw(done, total int) {
	if !p.progress || total == 0 {
		return
	}
	filled := done * p.width / total
	fmt.Fprintf(p.out, "\r[%s%s] %d/%d", strings.Repeat("#", filled), strings.Repeat(".", p.width-filled), done, total)
}
