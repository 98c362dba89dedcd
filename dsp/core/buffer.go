package core

import "math"

// Zero sets all values in buf to 0.
func Zero(buf []float64) {
	for i := range buf {
		buf[i] = 0
	}
}

// Peak returns max(|buf[i]|), or 0 for an empty slice.
func Peak(buf []float64) float64 {
	peak := 0.0
	for _, x := range buf {
		peak = math.Max(peak, math.Abs(x))
	}
	return peak
}
