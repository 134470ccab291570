package cdrom

import (
	"encoding/gob"
	"fmt"

	"github.com/hansbonini/psxcdrom/pkg/disc"
)

// DriveState is the mechanical state of the drive. Exactly one variant is
// active; the controller replaces it on every transition.
type DriveState interface {
	fmt.Stringer
	status() byte
}

// SeekTarget is what a seek turns into once the head arrives.
type SeekTarget int

// Seek targets.
const (
	SeekThenPause SeekTarget = iota
	SeekThenRead
	SeekThenPlay
)

func (t SeekTarget) String() string {
	switch t {
	case SeekThenRead:
		return "read"
	case SeekThenPlay:
		return "play"
	}
	return "pause"
}

// Stopped has the spindle motor off with the head resting at Time.
type Stopped struct {
	Time disc.Time
}

// SpinningUp waits for the motor to reach speed, then becomes Next.
type SpinningUp struct {
	Remaining int
	Next      DriveState
}

// Paused holds the head at Time with the motor running.
type Paused struct {
	Time disc.Time
}

// Seeking moves the head to Dest.
type Seeking struct {
	Dest      disc.Time
	Remaining int
	Then      SeekTarget
}

// Reading delivers one sector every sector period. IRQPending is set while
// a read sector still waits for its INT1 because another interrupt is
// being serviced.
type Reading struct {
	Time       disc.Time
	Countdown  int
	IRQPending bool
}

// Playing streams CD-DA samples, one per step.
type Playing struct {
	Time            disc.Time
	Sample          int
	ReportCountdown int
	ReportRelative  bool
	Peak            int16
}

func (Stopped) String() string { return "Stopped" }
func (s SpinningUp) String() string {
	return fmt.Sprintf("SpinningUp(%d, then %s)", s.Remaining, s.Next)
}
func (s Paused) String() string { return fmt.Sprintf("Paused(%s)", s.Time) }
func (s Seeking) String() string {
	return fmt.Sprintf("Seeking(%s, %d, then %s)", s.Dest, s.Remaining, s.Then)
}
func (s Reading) String() string { return fmt.Sprintf("Reading(%s)", s.Time) }
func (s Playing) String() string { return fmt.Sprintf("Playing(%s)", s.Time) }

func (Stopped) status() byte    { return 0 }
func (SpinningUp) status() byte { return StatMotor }
func (Paused) status() byte     { return StatMotor }
func (Seeking) status() byte    { return StatMotor | StatSeek }
func (Reading) status() byte    { return StatMotor | StatRead }
func (Playing) status() byte    { return StatMotor | StatPlay }

// headPosition is where the head is (or is heading).
func headPosition(s DriveState) disc.Time {
	switch s := s.(type) {
	case Stopped:
		return s.Time
	case Paused:
		return s.Time
	case *Seeking:
		return s.Dest
	case *Reading:
		return s.Time
	case *Playing:
		return s.Time
	case *SpinningUp:
		return headPosition(s.Next)
	}
	return disc.Time{}
}

func motorOn(s DriveState) bool {
	_, stopped := s.(Stopped)
	return !stopped
}

func init() {
	gob.Register(Stopped{})
	gob.Register(&SpinningUp{})
	gob.Register(Paused{})
	gob.Register(&Seeking{})
	gob.Register(&Reading{})
	gob.Register(&Playing{})
}

// CommandPhase is the command processor state.
type CommandPhase int

// Command phases.
const (
	CommandIdle CommandPhase = iota
	CommandReceiving
	CommandSecondResponse
)

// CommandState tracks the command in flight. Cycles counts down to the
// point where the phase's handler may run.
type CommandState struct {
	Phase  CommandPhase
	Cmd    byte
	Cycles int
}
