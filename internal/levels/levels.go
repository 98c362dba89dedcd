// Package levels summarizes the level of a rendered signal: peak, RMS,
// crest factor and how many samples sit at full scale.
package levels

import (
	"math"

	"github.com/cwbudde/algo-micstrip/dsp/core"
)

// FloorDB is reported for silent signals instead of -Inf.
const FloorDB = -120.0

var floorLinear = core.DBToLinear(FloorDB)

// Summary holds level statistics of a signal. dB values are relative to
// full scale and never below FloorDB.
type Summary struct {
	Samples       int     `json:"samples"`
	DC            float64 `json:"dc"`
	PeakDBFS      float64 `json:"peakDBFS"`
	RMSDBFS       float64 `json:"rmsDBFS"`
	CrestFactorDB float64 `json:"crestFactorDB"`
	ZeroCrossings int     `json:"zeroCrossings"`
	FullScale     int     `json:"fullScale"`
}

// Accumulator collects a Summary block by block.
type Accumulator struct {
	n         int
	sum       float64
	sumSq     float64
	peak      float64
	crossings int
	fullScale int
	last      float64
}

// Update adds a block of samples.
func (a *Accumulator) Update(samples []float64) {
	for _, x := range samples {
		if a.n > 0 && a.last*x < 0 {
			a.crossings++
		}

		ax := math.Abs(x)
		if ax > a.peak {
			a.peak = ax
		}

		if ax >= 1 {
			a.fullScale++
		}

		a.n++
		a.sum += x
		a.sumSq += x * x
		a.last = x
	}
}

// Result returns the statistics of everything added so far.
func (a *Accumulator) Result() Summary {
	if a.n == 0 {
		return Summary{PeakDBFS: FloorDB, RMSDBFS: FloorDB}
	}

	nf := float64(a.n)
	rms := math.Sqrt(a.sumSq / nf)

	crest := 0.0
	if rms > floorLinear {
		crest = core.LinearToDB(a.peak / rms)
	}

	return Summary{
		Samples:       a.n,
		DC:            a.sum / nf,
		PeakDBFS:      core.LinearToDBFloor(a.peak, floorLinear),
		RMSDBFS:       core.LinearToDBFloor(rms, floorLinear),
		CrestFactorDB: crest,
		ZeroCrossings: a.crossings,
		FullScale:     a.fullScale,
	}
}

// Reset clears the accumulator.
func (a *Accumulator) Reset() {
	*a = Accumulator{}
}

// Measure summarizes a whole signal.
func Measure(signal []float64) Summary {
	var a Accumulator

	a.Update(signal)

	return a.Result()
}
