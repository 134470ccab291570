// Package psx provides PlayStation-specific structures and functionality.
// This file contains the raw CD sector layout and the ISO9660 structures
// found on PlayStation discs.
package psx

// Sector size constants for PlayStation CD-ROM
const (
	SectorSize   = 2352 // Full CD sector size
	DataSize     = 2048 // Data portion of a Form 1 sector
	XADataSize   = 2324 // Data portion of a Form 2 sector
	XAPayload    = 2304 // ADPCM payload of a real-time audio sector (18 groups of 128 bytes)
	SyncSize     = 12   // Sync pattern size
	HeaderSize   = 4    // Header size (3 address bytes + 1 mode byte)
	SubheaderLen = 8    // XA subheader, two copies of four bytes
	SubcodeSize  = 96   // Subchannel data stored after each frame in compressed containers
)

// Offsets inside a raw 2352-byte sector
const (
	HeaderOffset    = 12   // Minute, second, frame (BCD) and mode
	ModeOffset      = 15   // Mode byte
	SubheaderOffset = 16   // XA subheader (Mode 2) / start of the Mode 2 EDC window
	FileOffset      = 16   // XA file number
	ChannelOffset   = 17   // XA channel number
	SubmodeOffset   = 18   // XA submode
	CodingOffset    = 19   // XA coding information
	DataOffset      = 24   // User data of a Form 1 / Form 2 sector
	Mode1EDCOffset  = 2064 // EDC of a Mode 1 sector
	Form1EDCOffset  = 2072 // EDC of a Mode 2 Form 1 sector
	Form2EDCOffset  = 2348 // EDC of a Mode 2 Form 2 sector
	ECCPOffset      = 0x81C
	ECCQOffset      = 0x8C8
)

// XA submode flags
const (
	SubmodeEOR      = 0x01 // End of record
	SubmodeVideo    = 0x02
	SubmodeAudio    = 0x04
	SubmodeData     = 0x08
	SubmodeTrigger  = 0x10
	SubmodeForm2    = 0x20
	SubmodeRealTime = 0x40
	SubmodeEOF      = 0x80
)

// Sync is the 12-byte pattern that starts every data sector.
var Sync = [SyncSize]byte{0x00, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x00}

// HasSync reports whether a raw sector starts with the data sync pattern.
func HasSync(sector []byte) bool {
	if len(sector) < SyncSize {
		return false
	}
	for i, b := range Sync {
		if sector[i] != b {
			return false
		}
	}
	return true
}

// Subheader is the decoded XA subheader of a Mode 2 sector.
type Subheader struct {
	File    byte
	Channel byte
	Submode byte
	Coding  byte
}

// ReadSubheader decodes the first copy of the XA subheader.
func ReadSubheader(sector []byte) Subheader {
	return Subheader{
		File:    sector[FileOffset],
		Channel: sector[ChannelOffset],
		Submode: sector[SubmodeOffset],
		Coding:  sector[CodingOffset],
	}
}

// IsForm2 reports whether the submode selects the Form 2 layout.
func (s Subheader) IsForm2() bool {
	return s.Submode&SubmodeForm2 != 0
}

// IsRealTimeAudio reports whether the sector is streamed XA-ADPCM.
func (s Subheader) IsRealTimeAudio() bool {
	return s.Submode&(SubmodeRealTime|SubmodeAudio) == SubmodeRealTime|SubmodeAudio
}

// ISO9660 directory entry structure
type ISODirEntry struct {
	EntryLength          byte    // Length of directory record
	ExtendedAttrLength   byte    // Extended attribute record length
	ExtentLocationLSB    uint32  // Location of extent (LBA) - little endian
	ExtentLocationMSB    uint32  // Location of extent (LBA) - big endian
	DataLengthLSB        uint32  // Data length - little endian
	DataLengthMSB        uint32  // Data length - big endian
	RecordingDateTime    [7]byte // Recording date and time
	FileFlags            byte    // File flags
	FileUnitSize         byte    // File unit size
	InterleaveGapSize    byte    // Interleave gap size
	VolumeSequenceNumLSB uint16  // Volume sequence number - little endian
	VolumeSequenceNumMSB uint16  // Volume sequence number - big endian
	FileIdentifierLength byte    // Length of file identifier
	// File identifier and padding follow
}

// ISO9660 descriptor structure
type ISODescriptor struct {
	Type                   byte      // Volume descriptor type
	ID                     [5]byte   // Standard identifier "CD001"
	Version                byte      // Volume descriptor version
	SystemID               [32]byte  // System identifier
	VolumeID               [32]byte  // Volume identifier
	Reserved1              [8]byte   // Reserved
	VolumeSpaceSizeLSB     uint32    // Volume space size - little endian
	VolumeSpaceSizeMSB     uint32    // Volume space size - big endian
	Reserved2              [32]byte  // Reserved
	VolumeSetSizeLSB       uint16    // Volume set size - little endian
	VolumeSetSizeMSB       uint16    // Volume set size - big endian
	VolumeSequenceNumLSB   uint16    // Volume sequence number - little endian
	VolumeSequenceNumMSB   uint16    // Volume sequence number - big endian
	LogicalBlockSizeLSB    uint16    // Logical block size - little endian
	LogicalBlockSizeMSB    uint16    // Logical block size - big endian
	PathTableSizeLSB       uint32    // Path table size - little endian
	PathTableSizeMSB       uint32    // Path table size - big endian
	PathTable1Offs         uint32    // LBA to Type-L path table
	PathTable2Offs         uint32    // LBA to optional Type-L path table
	PathTable1MSBOffs      uint32    // LBA to Type-M path table
	PathTable2MSBOffs      uint32    // LBA to optional Type-M path table
	RootDirRecord          [34]byte  // Directory entry for root directory
	VolumeSetIdentifier    [128]byte // Volume set identifier
	PublisherIdentifier    [128]byte // Publisher identifier
	DataPreparerIdentifier [128]byte // Data preparer identifier
	ApplicationIdentifier  [128]byte // Application identifier
	CopyrightFileID        [37]byte  // Copyright file identifier
	AbstractFileID         [37]byte  // Abstract file identifier
	BibliographicFileID    [37]byte  // Bibliographic file identifier
	VolumeCreateDate       [17]byte  // Volume creation date
	VolumeModifyDate       [17]byte  // Volume modification date
	VolumeExpiryDate       [17]byte  // Volume expiry date
	VolumeEffectiveDate    [17]byte  // Volume effective date
	FileStructureVersion   byte      // File structure version
	Reserved3              byte      // Reserved
	ApplicationUse         [512]byte // Application use
	Reserved4              [653]byte // Reserved
}
