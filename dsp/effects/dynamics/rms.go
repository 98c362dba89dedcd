package dynamics

import (
	"math"

	"github.com/cwbudde/algo-micstrip/dsp/core"
)

const (
	defaultRMSTimeMs = 50.0
	minRMSAlpha      = 1e-6
	maxRMSAlpha      = 0.999

	// rmsFloor bounds LevelDBFS from below (-240 dBFS).
	rmsFloor = 1e-12
)

// RMSDetector estimates signal level with a single-pole mean-square filter:
//
//	ms = (1-alpha)*ms + alpha*x^2,  alpha = 1 - exp(-1/(fs*tau))
//
// Update belongs to the audio goroutine. LevelDBFS and Level may be read
// from any goroutine.
type RMSDetector struct {
	sampleRate float64
	alpha      core.Float64
	timeMs     core.Float64

	meanSquare float64      // audio-owned
	published  core.Float64 // copy of meanSquare for readers
}

// NewRMSDetector returns a detector with time constant tauMs. A
// non-positive time constant selects 50 ms.
func NewRMSDetector(sampleRate, tauMs float64) (*RMSDetector, error) {
	if err := validateSampleRate(sampleRate); err != nil {
		return nil, err
	}

	r := &RMSDetector{sampleRate: sampleRate}
	if _, err := r.SetTimeConstant(tauMs); err != nil {
		return nil, err
	}

	return r, nil
}

// SetTimeConstant changes the averaging time and returns the value used.
func (r *RMSDetector) SetTimeConstant(tauMs float64) (float64, error) {
	if !core.IsFinite(tauMs) {
		return 0, ErrNonFinite
	}
	if tauMs <= 0 {
		tauMs = defaultRMSTimeMs
	}

	a := 1 - math.Exp(-1/(r.sampleRate*tauMs*0.001))
	r.alpha.Store(core.Clamp(a, minRMSAlpha, maxRMSAlpha))
	r.timeMs.Store(tauMs)

	return tauMs, nil
}

// TimeConstant returns the averaging time in milliseconds.
func (r *RMSDetector) TimeConstant() float64 { return r.timeMs.Load() }

// Alpha returns the smoothing coefficient.
func (r *RMSDetector) Alpha() float64 { return r.alpha.Load() }

// Update feeds one sample and returns the linear RMS level.
func (r *RMSDetector) Update(x float64) float64 {
	a := r.alpha.Load()
	r.meanSquare = core.FlushDenormals((1-a)*r.meanSquare + a*x*x)
	r.published.Store(r.meanSquare)

	return mathSqrt(r.meanSquare)
}

// Level returns the most recent linear RMS level.
func (r *RMSDetector) Level() float64 {
	ms := r.published.Load()
	if ms <= 0 {
		return 0
	}

	return math.Sqrt(ms)
}

// LevelDBFS returns the most recent level in dB relative to full scale,
// never below -240 dB.
func (r *RMSDetector) LevelDBFS() float64 {
	return core.LinearToDBFloor(r.Level(), rmsFloor)
}

// Reset clears the averaged energy. Audio goroutine only.
func (r *RMSDetector) Reset() {
	r.meanSquare = 0
	r.published.Store(0)
}
