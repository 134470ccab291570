// Package common provides shared logging helpers, message constants and
// small conversion utilities used across psxcdrom.
package common

import (
	"fmt"
	"log"
)

// Global variable to control debug output
var VerboseMode bool = false

// SetVerboseMode enables or disables verbose/debug output
func SetVerboseMode(verbose bool) {
	VerboseMode = verbose
}

// Error messages
const (
	ErrFailedToOpenImage      = "failed to open disc image"
	ErrFailedToOpenCue        = "failed to open CUE sheet"
	ErrFailedToParseCue       = "failed to parse CUE sheet"
	ErrFailedToOpenBin        = "failed to open BIN file"
	ErrFailedToOpenCHD        = "failed to open CHD container"
	ErrFailedToReadSector     = "failed to read sector"
	ErrFailedToReadHunk       = "failed to read hunk"
	ErrFailedToLoadConfig     = "failed to load configuration"
	ErrFailedToParseConfig    = "failed to parse configuration"
	ErrFailedToCreateOutput   = "failed to create output file"
	ErrFailedToWriteAudio     = "failed to write audio data"
	ErrFailedToEncodeTOC      = "failed to encode table of contents"
	ErrControllerNoResponse   = "controller did not answer"
	ErrControllerErrorReply   = "controller answered with an error"
	ErrInvalidPosition        = "invalid disc position"
	ErrTrackOutOfRange        = "track number out of range"
	ErrUnsupportedImageFormat = "unsupported disc image format"
)

// Info messages
const (
	InfoImageOpened      = "Opened %s image %s (%d tracks, lead-out %s)"
	InfoRegionDetected   = "Disc region: %s"
	InfoVerifyDone       = "Verified %d sectors in %d tracks, %d checksum errors"
	InfoAudioWritten     = "Wrote %d stereo samples at %d Hz to %s"
	InfoISODumpDone      = "Extracted %d files to %s"
	InfoConfigLoaded     = "Loaded configuration from %s"
	InfoTOCExported      = "Table of contents written to %s"
	InfoControllerReport = "Controller response INT%d: % X"
)

// Debug messages
const (
	DebugCommandReceived  = "cdrom: command %s (0x%02X) with params % X"
	DebugSecondResponse   = "cdrom: second response for %s"
	DebugDriveTransition  = "cdrom: drive %s -> %s"
	DebugSeekEstimate     = "cdrom: seek %s -> %s, %d sectors, %d cycles"
	DebugSectorDelivered  = "cdrom: sector %s delivered (submode 0x%02X)"
	DebugSectorNoSync     = "cdrom: sector %s has no sync pattern"
	DebugXASectorDecoded  = "cdrom: XA sector %s decoded (%s, %d Hz), %d samples queued"
	DebugIgnoreBitSet     = "cdrom: SetMode ignore bit set (mode 0x%02X), treated as no-op"
	DebugHunkDecompressed = "chd: hunk %d decompressed with %s (%d bytes)"
	DebugTrackParsed      = "disc: track %d %s start %s pregap %d length %d postgap %d"
	DebugSynthesizedGap   = "disc: track %d position %s lies in a gap, sector synthesized"
	DebugMetadataEntry    = "chd: metadata %s (%d bytes)"
)

// Warning messages
const (
	WarnParamFIFOFull       = "cdrom: parameter FIFO full, dropping byte 0x%02X"
	WarnParamFIFOEmpty      = "cdrom: parameter FIFO read past end"
	WarnCommandOverwritten  = "cdrom: command %s overwrites pending %s"
	WarnUnknownCommand      = "cdrom: unknown command 0x%02X"
	WarnUnsupportedXACoding = "cdrom: unsupported XA coding info 0x%02X, sector skipped"
	WarnChecksumIgnored     = "disc: %v (ignored, lenient checksum policy)"
	WarnDiscReadFailed      = "cdrom: disc read failed at %s: %v"
	WarnUnknownTestCommand  = "cdrom: unknown Test sub-function 0x%02X"
)

// LogInfo logs an informational message
func LogInfo(message string, args ...interface{}) {
	if len(args) > 0 {
		log.Printf("[INFO] "+message, args...)
	} else {
		log.Printf("[INFO] %s", message)
	}
}

// LogWarn logs a warning message
func LogWarn(message string, args ...interface{}) {
	if len(args) > 0 {
		log.Printf("[WARN] "+message, args...)
	} else {
		log.Printf("[WARN] %s", message)
	}
}

// LogError logs an error message
func LogError(message string, args ...interface{}) {
	if len(args) > 0 {
		log.Printf("[ERROR] "+message, args...)
	} else {
		log.Printf("[ERROR] %s", message)
	}
}

// LogDebug logs a debug message (only if VerboseMode is enabled)
func LogDebug(message string, args ...interface{}) {
	if !VerboseMode {
		return
	}
	if len(args) > 0 {
		log.Printf("[DEBUG] "+message, args...)
	} else {
		log.Printf("[DEBUG] %s", message)
	}
}

// FormatError creates a formatted error with additional context
func FormatError(baseMessage string, details interface{}) error {
	if err, ok := details.(error); ok {
		return fmt.Errorf("%s: %w", baseMessage, err)
	}
	return fmt.Errorf("%s: %v", baseMessage, details)
}

// FormatErrorString creates a formatted error with string details
func FormatErrorString(baseMessage, details string, args ...interface{}) error {
	if len(args) > 0 {
		return fmt.Errorf("%s: "+details, append([]interface{}{baseMessage}, args...)...)
	}
	return fmt.Errorf("%s: %s", baseMessage, details)
}
