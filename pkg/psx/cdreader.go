// Package psx provides PlayStation-specific CD-ROM reading functionality.
// The ISO9660 walk follows mkpsxiso's dumpsxiso, reading user data through a
// SectorSource so the same code serves every disc image container.
package psx

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hansbonini/psxcdrom/pkg/common"
)

// SectorSource yields raw 2352-byte sectors addressed by LBA, where LBA 0 is
// the first sector after the 2 second lead-in.
type SectorSource interface {
	ReadLBA(lba int, buf []byte) error
	LBACount() int
}

// CDReader walks the ISO9660 file system of a data track
type CDReader struct {
	src           SectorSource
	totalSectors  int64
	currentSector int64
	currentOffset int
	sectorBuffer  []byte
}

// NewCDReader creates a reader over a sector source
func NewCDReader(src SectorSource) *CDReader {
	return &CDReader{
		src:           src,
		totalSectors:  int64(src.LBACount()),
		currentSector: -1,
		sectorBuffer:  make([]byte, SectorSize),
	}
}

// SeekToSector loads a sector into the buffer - based on mkpsxiso SeekToSector
func (r *CDReader) SeekToSector(lba int64) error {
	if lba >= r.totalSectors || lba < 0 {
		return fmt.Errorf("LBA %d out of bounds (total: %d)", lba, r.totalSectors)
	}
	if err := r.src.ReadLBA(int(lba), r.sectorBuffer); err != nil {
		return err
	}
	r.currentSector = lba
	r.currentOffset = 0
	return nil
}

// Read implements io.Reader over the Form 1 user data of consecutive
// sectors, starting at the current position.
func (r *CDReader) Read(buffer []byte) (int, error) {
	if r.currentSector < 0 {
		return 0, fmt.Errorf("no sector loaded")
	}
	bytesRead := 0
	for bytesRead < len(buffer) {
		if r.currentOffset >= DataSize {
			if r.currentSector+1 >= r.totalSectors {
				if bytesRead == 0 {
					return 0, io.EOF
				}
				return bytesRead, nil
			}
			if err := r.SeekToSector(r.currentSector + 1); err != nil {
				return bytesRead, err
			}
		}
		n := copy(buffer[bytesRead:], r.sectorBuffer[DataOffset+r.currentOffset:DataOffset+DataSize])
		bytesRead += n
		r.currentOffset += n
	}
	return bytesRead, nil
}

// ReadISODescriptor reads the primary volume descriptor from sector 16
func (r *CDReader) ReadISODescriptor() (*ISODescriptor, error) {
	if err := r.SeekToSector(16); err != nil {
		return nil, err
	}
	data := make([]byte, DataSize)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}

	// 0x01 + "CD001" + 0x01
	if data[0] != 0x01 || string(data[1:6]) != "CD001" || data[6] != 0x01 {
		return nil, fmt.Errorf("invalid ISO9660 signature")
	}

	descriptor := &ISODescriptor{}
	descriptor.Type = data[0]
	copy(descriptor.ID[:], data[1:6])
	descriptor.Version = data[6]
	copy(descriptor.SystemID[:], data[8:40])
	copy(descriptor.VolumeID[:], data[40:72])
	descriptor.VolumeSpaceSizeLSB = binary.LittleEndian.Uint32(data[80:84])
	descriptor.VolumeSpaceSizeMSB = binary.BigEndian.Uint32(data[84:88])
	descriptor.LogicalBlockSizeLSB = binary.LittleEndian.Uint16(data[128:130])
	descriptor.LogicalBlockSizeMSB = binary.BigEndian.Uint16(data[130:132])
	descriptor.PathTableSizeLSB = binary.LittleEndian.Uint32(data[132:136])
	descriptor.PathTableSizeMSB = binary.BigEndian.Uint32(data[136:140])
	descriptor.PathTable1Offs = binary.LittleEndian.Uint32(data[140:144])
	descriptor.PathTable2Offs = binary.LittleEndian.Uint32(data[144:148])
	descriptor.PathTable1MSBOffs = binary.BigEndian.Uint32(data[148:152])
	descriptor.PathTable2MSBOffs = binary.BigEndian.Uint32(data[152:156])
	copy(descriptor.RootDirRecord[:], data[156:190])
	copy(descriptor.ApplicationIdentifier[:], data[574:702])

	return descriptor, nil
}

// ParseDirectoryEntries parses the records of a directory extent, skipping
// the "." and ".." entries as mkpsxiso's ReadDirEntries does
func (r *CDReader) ParseDirectoryEntries(lba int64, sizeInBytes uint32) ([]CDFileEntry, error) {
	var entries []CDFileEntry
	sizeInSectors := common.GetSizeInSectors(sizeInBytes)

	for sector := uint32(0); sector < sizeInSectors; sector++ {
		if err := r.SeekToSector(lba + int64(sector)); err != nil {
			return nil, fmt.Errorf("failed to seek to sector %d: %w", lba+int64(sector), err)
		}

		for r.currentOffset < DataSize {
			entry, entrySize, err := r.readDirectoryEntry()
			if err != nil {
				break
			}
			r.currentOffset += entrySize

			if entry.Name == "." || entry.Name == ".." {
				continue
			}
			if !r.isValidEntry(entry) {
				common.LogDebug("Skipping invalid entry: %s (LBA: %d, Size: %d)", entry.Name, entry.LBA, entry.Size)
				continue
			}
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func (r *CDReader) readDirectoryEntry() (CDFileEntry, int, error) {
	entryLength := int(r.sectorBuffer[DataOffset+r.currentOffset])
	if entryLength == 0 {
		return CDFileEntry{}, 0, fmt.Errorf("end of directory entries")
	}
	if entryLength < 33 {
		return CDFileEntry{}, 0, fmt.Errorf("entry too short")
	}
	if r.currentOffset+entryLength > DataSize {
		return CDFileEntry{}, 0, fmt.Errorf("entry exceeds sector bounds")
	}
	data := r.sectorBuffer[DataOffset+r.currentOffset : DataOffset+r.currentOffset+entryLength]
	entry, err := parseEntryData(data)
	return entry, entryLength, err
}

func parseEntryData(data []byte) (CDFileEntry, error) {
	length := data[0]
	lba := binary.LittleEndian.Uint32(data[2:6])
	size := binary.LittleEndian.Uint32(data[10:14])
	flags := data[25]
	nameLength := data[32]

	if 33+int(nameLength) > int(length) {
		return CDFileEntry{}, fmt.Errorf("filename exceeds entry bounds")
	}

	name := string(data[33 : 33+nameLength])
	switch {
	case common.IsSpecialDirEntry(name) && name == "\x00":
		name = "."
	case common.IsSpecialDirEntry(name):
		name = ".."
	default:
		name = common.CleanFileName(name)
	}

	return CDFileEntry{
		Name:       name,
		LBA:        lba,
		Size:       size,
		IsDir:      flags&0x02 != 0,
		ExtentSize: common.GetSizeInSectors(size),
		MSF:        common.LBAToMSF(lba),
	}, nil
}

func (r *CDReader) isValidEntry(entry CDFileEntry) bool {
	if entry.LBA == 0 || int64(entry.LBA) >= r.totalSectors {
		return false
	}
	// Nothing on a 74 minute disc is bigger than this
	if entry.Size > 700*1024*1024 {
		return false
	}
	return isValidFilename(entry.Name)
}

func isValidFilename(name string) bool {
	if len(name) == 0 || strings.Contains(name, "\x00") || !utf8.ValidString(name) {
		return false
	}
	nonPrintable := 0
	for _, c := range name {
		if !unicode.IsPrint(c) && c != '\t' {
			nonPrintable++
		}
	}
	return nonPrintable <= len(name)/2
}

// Walk visits every file reachable from the root directory, depth first,
// with Path set relative to the root.
func (r *CDReader) Walk(fn func(CDFileEntry) error) error {
	descriptor, err := r.ReadISODescriptor()
	if err != nil {
		return err
	}
	root, err := parseEntryData(descriptor.RootDirRecord[:])
	if err != nil {
		return err
	}
	return r.walkDir(int64(root.LBA), root.Size, "", fn, 0)
}

func (r *CDReader) walkDir(lba int64, size uint32, prefix string, fn func(CDFileEntry) error, depth int) error {
	// ISO9660 limits the hierarchy to 8 levels
	if depth > 8 {
		return nil
	}
	entries, err := r.ParseDirectoryEntries(lba, size)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		entry.Path = entry.Name
		if prefix != "" {
			entry.Path = prefix + "/" + entry.Name
		}
		if err := fn(entry); err != nil {
			return err
		}
		if entry.IsDir {
			if err := r.walkDir(int64(entry.LBA), entry.Size, entry.Path, fn, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

// ExtractFile copies a file's user data to outputPath
func (r *CDReader) ExtractFile(lba uint32, fileSize uint32, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", filepath.Dir(outputPath), err)
	}
	outFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", outputPath, err)
	}
	defer outFile.Close()

	if fileSize == 0 {
		return nil
	}
	if err := r.SeekToSector(int64(lba)); err != nil {
		return fmt.Errorf("failed to seek to LBA %d: %w", lba, err)
	}
	if _, err := io.CopyN(outFile, r, int64(fileSize)); err != nil {
		return fmt.Errorf("failed to copy %d bytes from LBA %d: %w", fileSize, lba, err)
	}
	return nil
}

// CDFileEntry represents a file found in the ISO9660 tree
type CDFileEntry struct {
	Name       string // File name
	Path       string // Full path within CD
	LBA        uint32 // Logical Block Address
	MSF        string // Minutes:Seconds:Frames format
	Size       uint32 // File size in bytes
	IsDir      bool   // Whether this is a directory
	ExtentSize uint32 // Size in sectors
}
