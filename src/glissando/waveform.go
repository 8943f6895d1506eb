package glissando

import "fmt"

// ----- Waveform ----- //

// Waveform ...
type Waveform int

const (
	WaveSine Waveform = iota
	WaveSquare
	WaveSawtooth
	WaveTriangle
)

func (w Waveform) String() string {
	switch w {
	case WaveSine:
		return "sine"
	case WaveSquare:
		return "square"
	case WaveSawtooth:
		return "sawtooth"
	case WaveTriangle:
		return "triangle"
	}
	return fmt.Sprintf("waveform(%d)", int(w))
}

// ParseWaveform ...
func ParseWaveform(s string) (Waveform, error) {
	switch s {
	case "sine":
		return WaveSine, nil
	case "square":
		return WaveSquare, nil
	case "sawtooth", "saw":
		return WaveSawtooth, nil
	case "triangle":
		return WaveTriangle, nil
	}
	return WaveSine, fmt.Errorf("unknown waveform %q", s)
}
