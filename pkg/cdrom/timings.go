package cdrom

// The controller runs one step per 768 CPU cycles (33.8688 MHz / 44100).
// Every duration below is in steps.
const (
	CPUClock      = 33868800
	AudioRate     = 44100
	CyclesPerStep = CPUClock / AudioRate

	SectorsPerSecond = 75
	SamplesPerSector = AudioRate / SectorsPerSecond
)

const (
	// SectorPeriod and DoubleSpeedSectorPeriod are the steps between two
	// sectors while reading.
	SectorPeriod            = SamplesPerSector
	DoubleSpeedSectorPeriod = SamplesPerSector / 2

	MinSeekCycles = 24
	SpinUpCycles  = AudioRate

	// command start to first response: pending, execution, FIFO flush,
	// busy and IRQ delays of 9400+2000+3500+3300+2000 CPU cycles
	CommandReceiveCycles = (9400 + 2000 + 3500 + 3300 + 2000) / CyclesPerStep
	// each parameter byte takes 1800 CPU cycles to transfer
	ParamTransferCycles = (1800 + CyclesPerStep - 1) / CyclesPerStep

	GetIDCycles       = (15000 + 3100) / CyclesPerStep
	ReadTOCCycles     = 16000000 / CyclesPerStep
	InitCycles        = 900000 / CyclesPerStep
	PauseIdleCycles   = (1700 + 5300) / CyclesPerStep
	PauseSectors      = 5
	StopSpinDownCycle = AudioRate * 2 / 5

	// ReportInterval is the number of sectors between two play reports.
	ReportInterval = 10
)

// seekSectorsPerSecond is the head travel rate used by the estimate.
const seekSectorsPerSecond = 270000

// EstimateSeekCycles returns the steps needed to move the head by
// distance sectors.
func EstimateSeekCycles(distance int) int {
	if distance == 0 {
		return 1
	}
	if distance < 0 {
		distance = -distance
	}
	cycles := (distance*AudioRate + seekSectorsPerSecond - 1) / seekSectorsPerSecond
	if cycles < MinSeekCycles {
		return MinSeekCycles
	}
	return cycles
}
