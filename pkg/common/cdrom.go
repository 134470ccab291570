// Package common provides common utilities for CD-ROM operations.
// This file contains BCD and MSF helpers shared by the disc image, the
// controller responses and the ISO9660 reader.
package common

import "fmt"

// Frames per second and the two second lead-in before LBA 0
const (
	FramesPerSecond = 75
	FramesPerMinute = 60 * FramesPerSecond
	LeadInFrames    = 2 * FramesPerSecond
)

// ToBCD encodes a value in the range 0..99 as binary-coded decimal
func ToBCD(value uint8) uint8 {
	return (value/10)<<4 | value%10
}

// FromBCD decodes a binary-coded decimal byte. The result is meaningless
// when IsValidBCD(b) is false.
func FromBCD(b uint8) uint8 {
	return (b>>4)*10 + b&0x0F
}

// IsValidBCD reports whether both nibbles of b are decimal digits
func IsValidBCD(b uint8) bool {
	return b&0x0F <= 9 && b>>4 <= 9
}

// LBAToMSF converts LBA (Logical Block Address) to MSF (Minutes:Seconds:Frames) format
// LBA to MSF conversion: LBA + 150 (pregap)
func LBAToMSF(lba uint32) string {
	totalFrames := lba + LeadInFrames

	minutes := totalFrames / FramesPerMinute
	seconds := (totalFrames % FramesPerMinute) / FramesPerSecond
	frames := totalFrames % FramesPerSecond

	return fmt.Sprintf("%02d:%02d:%02d", minutes, seconds, frames)
}

// GetSizeInSectors calculates the number of sectors needed for a given size in bytes
func GetSizeInSectors(sizeBytes uint32) uint32 {
	const sectorSize = 2048
	return (sizeBytes + sectorSize - 1) / sectorSize
}

// CleanFileName removes version numbers from ISO9660 file names
func CleanFileName(fileName string) string {
	// Remove version numbers (e.g., "FILE.EXT;1" -> "FILE.EXT")
	if len(fileName) > 0 && fileName[len(fileName)-1] >= '0' && fileName[len(fileName)-1] <= '9' {
		if len(fileName) > 2 && fileName[len(fileName)-2] == ';' {
			return fileName[:len(fileName)-2]
		}
	}
	return fileName
}

// IsSpecialDirEntry checks if a directory entry is "." or ".."
func IsSpecialDirEntry(fileName string) bool {
	return fileName == "\x00" || fileName == "\x01"
}
