package window

import "math"

// Analysis holds numerically computed spectral properties of a window.
type Analysis struct {
	// CoherentGain is sum(w[n]) / N, the DC response of the window.
	CoherentGain float64
	// ENBW is the equivalent noise bandwidth in bins.
	ENBW float64
	// HighestSidelobedB is the highest sidelobe level relative to DC in dB.
	HighestSidelobedB float64
	// FirstMinimumBins is the first null position in bins.
	FirstMinimumBins float64
	// ScallopLossdB is the worst-case amplitude error for an off-bin tone.
	ScallopLossdB float64
}

// Analyze evaluates the window's DFT numerically and reports the
// properties that decide how much a strong tone leaks into neighbouring
// analysis bands.
func Analyze(coeffs []float64) Analysis {
	n := len(coeffs)
	if n == 0 {
		return Analysis{}
	}

	dcRef := dftMagSq(coeffs, 0)
	if dcRef == 0 {
		return Analysis{}
	}

	sum := 0.0
	sumSq := 0.0

	for _, c := range coeffs {
		sum += c
		sumSq += c * c
	}

	scallop := 0.0
	if half := dftMagSq(coeffs, 0.5/float64(n)); half > 0 {
		scallop = 10 * math.Log10(half/dcRef)
	}

	firstMin := searchFirstMinimum(coeffs, n)

	return Analysis{
		CoherentGain:      sum / float64(n),
		ENBW:              float64(n) * sumSq / (sum * sum),
		HighestSidelobedB: searchHighestSidelobe(coeffs, dcRef, firstMin, n),
		FirstMinimumBins:  firstMin,
		ScallopLossdB:     scallop,
	}
}

// dftMagSq evaluates |DFT(freq)|^2 at a normalised frequency in [0,1).
func dftMagSq(coeffs []float64, freq float64) float64 {
	re, im := 0.0, 0.0
	w := 2 * math.Pi * freq

	for k, c := range coeffs {
		phase := w * float64(k)
		re += c * math.Cos(phase)
		im -= c * math.Sin(phase)
	}

	return re*re + im*im
}

func searchFirstMinimum(coeffs []float64, n int) float64 {
	nf := float64(n)
	step := 1.0 / (nf * 8)

	prev := dftMagSq(coeffs, 0)
	// Ignore turn-arounds on the main lobe shoulder.
	threshold := prev * 0.1
	coarse := step

	for freq := step; freq < 0.5; freq += step {
		val := dftMagSq(coeffs, freq)
		if prev < threshold && val > prev {
			coarse = freq - step
			break
		}

		prev = val
	}

	a := math.Max(coarse-2*step, 0)
	b := math.Min(coarse+2*step, 0.5)

	const phi = 0.6180339887498949

	c := b - phi*(b-a)
	d := a + phi*(b-a)

	for range 80 {
		if dftMagSq(coeffs, c) < dftMagSq(coeffs, d) {
			b = d
		} else {
			a = c
		}

		c = b - phi*(b-a)
		d = a + phi*(b-a)
	}

	return (a + b) / 2 * nf
}

func searchHighestSidelobe(coeffs []float64, dcRef, firstMinBins float64, n int) float64 {
	nf := float64(n)
	start := firstMinBins / nf
	step := 1.0 / (nf * 8)

	peakVal := 0.0
	peakFreq := start

	for freq := start; freq < 0.5; freq += step {
		if val := dftMagSq(coeffs, freq); val > peakVal {
			peakVal = val
			peakFreq = freq
		}
	}

	fine := step / 32
	for freq := max(peakFreq-step, 0); freq <= peakFreq+step; freq += fine {
		if val := dftMagSq(coeffs, freq); val > peakVal {
			peakVal = val
		}
	}

	if peakVal <= 0 {
		return math.Inf(-1)
	}

	return 10 * math.Log10(peakVal/dcRef)
}
