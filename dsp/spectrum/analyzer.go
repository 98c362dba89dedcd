package spectrum

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
	"runtime"
	"sync/atomic"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-micstrip/dsp/core"
	"github.com/cwbudde/algo-micstrip/dsp/window"
)

// NumBands is the number of reported analysis bands.
const NumBands = 8

// BandEdgesHz holds the band boundaries. Band i covers
// [BandEdgesHz[i], BandEdgesHz[i+1]).
var BandEdgesHz = [NumBands + 1]float64{60, 120, 250, 500, 1000, 2000, 4000, 8000, 16000}

const (
	// MinSize is the smallest accepted analysis length.
	MinSize = 16
	// SilenceDB is the band level reported before the first analysis.
	SilenceDB = -100.0

	powerFloor = 1e-12
)

var (
	ErrInvalidSize       = errors.New("spectrum: analysis size must be a power of two >= 16")
	ErrInvalidSampleRate = errors.New("spectrum: sample rate must be > 0")
	ErrBlockLength       = errors.New("spectrum: block length does not match analysis size")
)

// Analyzer accumulates samples and computes band energies once per full
// block. Push and Analyze must be called from a single goroutine; Bands
// and Analyses may be called from any goroutine.
type Analyzer struct {
	sampleRate float64
	size       int
	windowType window.Type

	win  []float64
	gain float64
	bins [NumBands][2]int
	plan *algofft.Plan[complex128]

	acc      []float64
	accPos   int
	windowed []float64

	in, out []complex128
	re, im  []float64
	power   []float64

	seq      atomic.Uint64
	bands    [NumBands]core.Float64
	analyses atomic.Uint64
}

// NewAnalyzer prepares an analyzer for blocks of size samples at
// sampleRate. The window and FFT plan are built once here so that Push
// never allocates.
func NewAnalyzer(sampleRate float64, size int, windowType window.Type) (*Analyzer, error) {
	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSampleRate, sampleRate)
	}

	if size < MinSize || bits.OnesCount(uint(size)) != 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}

	win := window.Generate(windowType, size, window.WithPeriodic())

	gain, err := window.CoherentGain(win)
	if err != nil {
		return nil, fmt.Errorf("spectrum: %s window: %w", windowType, err)
	}

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("spectrum init fft plan: %w", err)
	}

	half := size/2 + 1
	a := &Analyzer{
		sampleRate: sampleRate,
		size:       size,
		windowType: windowType,
		win:        win,
		gain:       gain,
		plan:       plan,
		acc:        make([]float64, size),
		windowed:   make([]float64, size),
		in:         make([]complex128, size),
		out:        make([]complex128, size),
		re:         make([]float64, half),
		im:         make([]float64, half),
		power:      make([]float64, half),
	}

	for b := range NumBands {
		a.bins[b] = bandBins(BandEdgesHz[b], BandEdgesHz[b+1], size, sampleRate)
	}

	a.publish(silentBands())

	return a, nil
}

// bandBins maps a frequency range to the half-open bin range [start, end),
// clamped to [1, size/2] and at least one bin wide.
func bandBins(lowHz, highHz float64, size int, sampleRate float64) [2]int {
	nyquistBin := size / 2

	start := min(max(int(lowHz*float64(size)/sampleRate), 1), nyquistBin)
	end := min(int(highHz*float64(size)/sampleRate), nyquistBin)

	if end <= start {
		end = start + 1
	}

	return [2]int{start, end}
}

func silentBands() [NumBands]float64 {
	var out [NumBands]float64
	for i := range out {
		out[i] = SilenceDB
	}

	return out
}

// SampleRate returns the rate the band mapping was computed for.
func (a *Analyzer) SampleRate() float64 { return a.sampleRate }

// Size returns the analysis block length.
func (a *Analyzer) Size() int { return a.size }

// Window returns the analysis window type.
func (a *Analyzer) Window() window.Type { return a.windowType }

// BinRange returns the half-open FFT bin range averaged for band.
func (a *Analyzer) BinRange(band int) (start, end int) {
	if band < 0 || band >= NumBands {
		return 0, 0
	}

	return a.bins[band][0], a.bins[band][1]
}

// Push adds one sample. When the block is full it is analyzed, the
// accumulation index restarts at zero and Push reports true.
func (a *Analyzer) Push(x float64) bool {
	a.acc[a.accPos] = x
	a.accPos++

	if a.accPos < a.size {
		return false
	}

	a.accPos = 0
	a.analyze(a.acc)

	return true
}

// Analyze runs one analysis pass over block, which must hold exactly
// Size samples, and publishes the result.
func (a *Analyzer) Analyze(block []float64) error {
	if len(block) != a.size {
		return fmt.Errorf("%w: got %d, want %d", ErrBlockLength, len(block), a.size)
	}

	a.analyze(block)

	return nil
}

func (a *Analyzer) analyze(block []float64) {
	if err := window.ApplyCoefficientsTo(a.windowed, block, a.win); err != nil {
		return
	}

	for i, x := range a.windowed {
		a.in[i] = complex(x, 0)
	}

	if err := a.plan.Forward(a.out, a.in); err != nil {
		return
	}

	inv := 1 / a.gain
	for k := range a.re {
		a.re[k] = real(a.out[k]) * inv
		a.im[k] = imag(a.out[k]) * inv
	}

	PowerFromParts(a.power, a.re, a.im)

	var result [NumBands]float64

	for b, r := range a.bins {
		sum := 0.0
		for _, p := range a.power[r[0]:r[1]] {
			sum += p
		}

		result[b] = core.PowerToDBFloor(sum/float64(r[1]-r[0]), powerFloor)
	}

	a.publish(result)
	a.analyses.Add(1)
}

// publish writes a complete band set. The sequence counter is odd while
// the write is in progress.
func (a *Analyzer) publish(values [NumBands]float64) {
	a.seq.Add(1)

	for i, v := range values {
		a.bands[i].Store(v)
	}

	a.seq.Add(1)
}

// Bands returns the band energies in dB from the last completed analysis.
// The returned set always comes from a single analysis pass.
func (a *Analyzer) Bands() [NumBands]float64 {
	for {
		s := a.seq.Load()
		if s&1 == 1 {
			runtime.Gosched()
			continue
		}

		var out [NumBands]float64
		for i := range out {
			out[i] = a.bands[i].Load()
		}

		if a.seq.Load() == s {
			return out
		}
	}
}

// Analyses returns the number of completed analysis passes.
func (a *Analyzer) Analyses() uint64 {
	return a.analyses.Load()
}

// Reset drops any partially accumulated block and restores the silent
// band readings.
func (a *Analyzer) Reset() {
	a.accPos = 0
	core.Zero(a.acc)
	a.publish(silentBands())
}
