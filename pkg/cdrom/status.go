package cdrom

// Status byte bits, shared by every response.
const (
	StatError     = 0x01
	StatMotor     = 0x02
	StatSeekError = 0x04
	StatIDError   = 0x08
	StatShellOpen = 0x10
	StatRead      = 0x20
	StatSeek      = 0x40
	StatPlay      = 0x80
)

// Error codes, the second byte of an INT5 response.
const (
	ErrCodeSeekFailed   = 0x04
	ErrCodeInvalidParam = 0x10
	ErrCodeParamCount   = 0x20
	ErrCodeInvalidCmd   = 0x40
	ErrCodeNotReady     = 0x80
)

// Interrupt levels.
const (
	IntSectorReady    = 1
	IntSecondResponse = 2
	IntFirstResponse  = 3
	IntDataEnd        = 4
	IntError          = 5
)

// Mode register bits (SetMode).
const (
	ModeCDDA       = 0x01
	ModeAutoPause  = 0x02
	ModeReport     = 0x04
	ModeXAFilter   = 0x08
	ModeIgnore     = 0x10
	ModeSectorSize = 0x20
	ModeXAADPCM    = 0x40
	ModeSpeed      = 0x80
)

// Host status register bits (port 0 read).
const (
	HostADPBusy = 0x04
	HostPRMEmpt = 0x08
	HostPRMWrdy = 0x10
	HostRSLRrdy = 0x20
	HostDRQSts  = 0x40
	HostBusySts = 0x80
)

// Request register (index 0, port 3) bits.
const (
	RequestSMEN = 0x20
	RequestBFWR = 0x40
	RequestBFRD = 0x80
)

// Audio volume apply register bits.
const (
	VolumeADPCMMute = 0x01
	VolumeApply     = 0x20
)
