package glissando

import "math"

// CentsToRatio converts an interval in cents to a frequency ratio.
func CentsToRatio(cents float64) float64 {
	return math.Pow(2, cents/1200)
}

// DecibelsToRatio converts a level in dB to a linear amplitude ratio.
func DecibelsToRatio(db float64) float64 {
	return math.Pow(10, db/20)
}

// VolumeToGain maps the 0-100 volume scale to a linear gain.
// 0.5 dB per unit starting from -50 dB, so 100 is 0 dB.
func VolumeToGain(volume float64) float64 {
	if volume > 0 {
		return DecibelsToRatio(0.5*volume - 50)
	}
	return 0
}
