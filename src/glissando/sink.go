package glissando

// ----- Command ----- //

// CommandKind ...
type CommandKind int

const (
	// CommandSet jumps to Value at End.
	CommandSet CommandKind = iota
	// CommandRamp moves linearly from the value held at Start to Value at End.
	CommandRamp
	// CommandCancel drops everything scheduled after Start and holds the value reached there.
	CommandCancel
)

func (k CommandKind) String() string {
	switch k {
	case CommandSet:
		return "set"
	case CommandRamp:
		return "ramp"
	case CommandCancel:
		return "cancel"
	}
	return "unknown"
}

// Command is one timed automation step for a parameter. Times are in seconds
// on the sink's clock.
type Command struct {
	Kind  CommandKind
	Value float64
	Start float64
	End   float64
}

// SetAt ...
func SetAt(value float64, at float64) Command {
	return Command{Kind: CommandSet, Value: value, Start: at, End: at}
}

// RampTo ...
func RampTo(value float64, start float64, end float64) Command {
	return Command{Kind: CommandRamp, Value: value, Start: start, End: end}
}

// CancelAt ...
func CancelAt(at float64) Command {
	return Command{Kind: CommandCancel, Start: at, End: at}
}

// ----- Sink ----- //

// Param is an automatable parameter of the output stage.
type Param interface {
	Schedule(c Command) error
}

// Oscillator is a running tone generator owned by exactly one voice.
type Oscillator interface {
	Frequency() Param
	Start(at float64) error
	Dispose() error
}

// Gain is an amplifier owned by exactly one voice.
type Gain interface {
	Gain() Param
	Dispose() error
}

// Sink is the audio stage the controller writes to.
type Sink interface {
	// Ready reports whether parameters can be scheduled right now.
	Ready() bool
	NumChannels() int
	CreateOscillator(wave Waveform) (Oscillator, error)
	CreateGain() (Gain, error)
	// Connect routes osc through gain into the given output channel.
	Connect(osc Oscillator, gain Gain, channel int) error
	// Master is the gain shared by all channels.
	Master() Param
}

// Clock returns monotonic time in seconds.
type Clock interface {
	Now() float64
}
