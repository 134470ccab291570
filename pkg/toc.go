package pkg

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hansbonini/psxcdrom/pkg/common"
	"github.com/hansbonini/psxcdrom/pkg/disc"
)

// TOCProcessor renders the table of contents of a disc image.
type TOCProcessor struct{}

// NewTOCProcessor creates a new TOC processor instance
func NewTOCProcessor() *TOCProcessor {
	return &TOCProcessor{}
}

// Document builds the exported form of img's table of contents.
func (p *TOCProcessor) Document(img *disc.Image) TOCDocument {
	toc := img.TOC()
	doc := TOCDocument{
		Image:   img.Path(),
		Kind:    img.Kind().String(),
		LeadOut: toc.LeadOut().String(),
		Sectors: toc.LeadOut().Sectors(),
	}
	for _, t := range toc.Tracks() {
		doc.Tracks = append(doc.Tracks, TrackEntry{
			Number:  t.Number,
			Mode:    t.Mode.String(),
			Start:   t.Start.String(),
			Index01: t.EffectiveStart().String(),
			End:     t.End.String(),
			Pregap:  t.Pregap.Sectors(),
			Postgap: t.Postgap.Sectors(),
			Sectors: t.DataSectors(),
		})
	}
	return doc
}

// WriteYAML encodes img's table of contents to w.
func (p *TOCProcessor) WriteYAML(img *disc.Image, w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(p.Document(img)); err != nil {
		return common.FormatError(common.ErrFailedToEncodeTOC, err)
	}
	return encoder.Close()
}

// Export writes the YAML table of contents to outputFile.
func (p *TOCProcessor) Export(img *disc.Image, outputFile string) error {
	f, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("%s: %w", common.ErrFailedToCreateOutput, err)
	}
	defer f.Close()
	if err := p.WriteYAML(img, f); err != nil {
		return err
	}
	common.LogInfo(common.InfoTOCExported, outputFile)
	return nil
}

// WriteTable prints a one line per track summary.
func (p *TOCProcessor) WriteTable(img *disc.Image, w io.Writer) {
	doc := p.Document(img)
	fmt.Fprintf(w, "%s (%s), lead-out %s\n", doc.Image, doc.Kind, doc.LeadOut)
	for _, t := range doc.Tracks {
		fmt.Fprintf(w, "  %02d  %-5s  start %s  index01 %s  end %s  pregap %3d  sectors %d\n",
			t.Number, t.Mode, t.Start, t.Index01, t.End, t.Pregap, t.Sectors)
	}
}
