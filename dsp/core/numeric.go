package core

import "math"

const defaultEpsilon = 1e-12

// Clamp limits value to the inclusive range [min, max].
func Clamp(value, min, max float64) float64 {
	if min > max {
		min, max = max, min
	}

	if value < min {
		return min
	}

	if value > max {
		return max
	}

	return value
}

// NearlyEqual reports whether a and b are equal within eps.
func NearlyEqual(a, b, eps float64) bool {
	if eps <= 0 {
		eps = defaultEpsilon
	}

	diff := math.Abs(a - b)
	if diff <= eps {
		return true
	}

	largest := math.Max(math.Abs(a), math.Abs(b))
	if largest == 0 {
		return diff <= eps
	}

	return diff/largest <= eps
}

// IsFinite reports whether v is neither NaN nor an infinity.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Sanitize maps NaN and infinities to zero and passes finite values through.
func Sanitize(x float64) float64 {
	if IsFinite(x) {
		return x
	}

	return 0
}

// FlushDenormals converts tiny denormal-like values to exact zero.
func FlushDenormals(x float64) float64 {
	const epsilon = 1e-30
	if x > -epsilon && x < epsilon {
		return 0
	}

	return x
}

// HardClip limits x to the normalized sample range [-1, 1].
func HardClip(x float64) float64 {
	if x > 1 {
		return 1
	}

	if x < -1 {
		return -1
	}

	return x
}

// SoftClip saturates x smoothly into (-1, 1) using tanh.
func SoftClip(x float64) float64 {
	return math.Tanh(x)
}

// DBToLinear converts dB to linear amplitude (20*log10 convention).
func DBToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}

// LinearToDB converts linear amplitude to dB (20*log10 convention).
// Returns -Inf for zero and NaN for negative values.
func LinearToDB(linear float64) float64 {
	if linear < 0 {
		return math.NaN()
	}

	if linear == 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(linear)
}

// LinearToDBFloor converts an amplitude to dB after flooring its magnitude
// at floor. The result is always finite for a positive floor.
func LinearToDBFloor(linear, floor float64) float64 {
	return 20 * math.Log10(math.Max(math.Abs(linear), floor))
}

// PowerToDBFloor converts a power value to dB as 10*log10(power+floor).
func PowerToDBFloor(power, floor float64) float64 {
	return 10 * math.Log10(math.Max(power, 0)+floor)
}

// OnePoleCoeff returns the smoothing coefficient exp(-1/(fs*tau)) of a
// one-pole follower with time constant ms at sampleRate. Non-positive times
// yield 0 (instant response).
func OnePoleCoeff(ms, sampleRate float64) float64 {
	if ms <= 0 || sampleRate <= 0 {
		return 0
	}

	return math.Exp(-1 / (sampleRate * ms * 0.001))
}
