package pkg

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hansbonini/psxcdrom/pkg/common"
	"github.com/hansbonini/psxcdrom/pkg/disc"
	"github.com/hansbonini/psxcdrom/pkg/psx"
)

// CDProcessor extracts the ISO9660 file system of a disc's data track.
type CDProcessor struct{}

// NewCDProcessor creates a new CD processor instance
func NewCDProcessor() *CDProcessor {
	return &CDProcessor{}
}

// Dump extracts every file of img under outputDir, keeping the directory
// structure. It returns the number of files written.
func (p *CDProcessor) Dump(img *disc.Image, outputDir string) (int, error) {
	if first, ok := img.TOC().Track(1); !ok || !first.Mode.IsData() {
		return 0, fmt.Errorf("%s: track 1 holds no file system", common.ErrUnsupportedImageFormat)
	}
	if err := os.MkdirAll(outputDir, 0o750); err != nil {
		return 0, fmt.Errorf("failed to create output directory: %w", err)
	}

	reader := psx.NewCDReader(img)
	files := 0
	err := reader.Walk(func(entry psx.CDFileEntry) error {
		target := filepath.Join(outputDir, filepath.FromSlash(entry.Path))
		if entry.IsDir {
			return os.MkdirAll(target, 0o750)
		}
		common.LogDebug("%04X  %s  LBA %6d  %9d  %s", files, entry.MSF, entry.LBA, entry.Size, entry.Path)
		if err := reader.ExtractFile(entry.LBA, entry.Size, target); err != nil {
			return err
		}
		files++
		return nil
	})
	if err != nil {
		return files, err
	}
	common.LogInfo(common.InfoISODumpDone, files, outputDir)
	return files, nil
}
