package pipeline

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/cwbudde/algo-micstrip/dsp/core"
	"github.com/cwbudde/algo-micstrip/dsp/effects/dynamics"
	"github.com/cwbudde/algo-micstrip/dsp/filter/design"
	"github.com/cwbudde/algo-micstrip/dsp/filter/eq"
	"github.com/cwbudde/algo-micstrip/dsp/spectrum"
	"github.com/cwbudde/algo-micstrip/dsp/window"
)

// ErrOutOfRange reports a NaN or infinite parameter value. Finite values
// outside a parameter's range are clamped instead.
var ErrOutOfRange = errors.New("pipeline: value out of range")

// meterFloor is the amplitude reported as silence by PeakDBFS.
const meterFloor = 1e-12

// Pipeline is the complete channel strip.
type Pipeline struct {
	cfg Config

	eq         *eq.Equalizer
	rms        *dynamics.RMSDetector
	expander   *dynamics.Expander
	compressor *dynamics.Compressor
	limiter    *dynamics.Limiter
	analyzer   *spectrum.Analyzer

	inputGain core.Float64
	bypass    atomic.Bool
	peak      core.Float64
	blocks    atomic.Uint64
}

// New builds a pipeline from the default config modified by opts.
func New(opts ...Option) (*Pipeline, error) {
	return NewWithConfig(ApplyOptions(opts...))
}

// NewWithConfig builds a pipeline from cfg. Every stage is allocated here;
// processing never allocates afterwards.
func NewWithConfig(cfg Config) (*Pipeline, error) {
	fs := cfg.SampleRate

	equalizer, err := eq.New(fs, cfg.EQ[eq.Low], cfg.EQ[eq.Mid], cfg.EQ[eq.High])
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	rms, err := dynamics.NewRMSDetector(fs, cfg.RMSTimeMs)
	if err != nil {
		return nil, fmt.Errorf("pipeline: rms: %w", err)
	}

	expander, err := dynamics.NewExpander(fs, cfg.Expander)
	if err != nil {
		return nil, fmt.Errorf("pipeline: expander: %w", err)
	}

	compressor, err := dynamics.NewCompressor(fs, cfg.Compressor)
	if err != nil {
		return nil, fmt.Errorf("pipeline: compressor: %w", err)
	}

	limiter, err := dynamics.NewLimiter(fs, cfg.Limiter)
	if err != nil {
		return nil, fmt.Errorf("pipeline: limiter: %w", err)
	}

	analyzer, err := spectrum.NewAnalyzer(fs, cfg.AnalysisSize, cfg.AnalysisWindow)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	if !core.IsFinite(cfg.InputGain) {
		return nil, fmt.Errorf("%w: input gain %v", ErrOutOfRange, cfg.InputGain)
	}

	cfg.InputGain = core.Clamp(cfg.InputGain, MinInputGain, MaxInputGain)
	cfg.EQ = equalizer.AllParams()
	cfg.Expander = expander.Snapshot()
	cfg.Compressor = compressor.Snapshot()
	cfg.Limiter = limiter.Snapshot()
	cfg.RMSTimeMs = rms.TimeConstant()

	p := &Pipeline{
		cfg:        cfg,
		eq:         equalizer,
		rms:        rms,
		expander:   expander,
		compressor: compressor,
		limiter:    limiter,
		analyzer:   analyzer,
	}
	p.inputGain.Store(cfg.InputGain)

	return p, nil
}

// Config returns the configuration the pipeline was built with, after
// clamping. Later parameter changes are not reflected; use Status.
func (p *Pipeline) Config() Config { return p.cfg }

// SampleRate returns the processing rate.
func (p *Pipeline) SampleRate() float64 { return p.cfg.SampleRate }

// ProcessBlock processes min(len(dst), len(src)) samples from src into dst
// and returns that count. dst and src may be the same slice.
func (p *Pipeline) ProcessBlock(dst, src []float64) int {
	n := min(len(dst), len(src))
	bypass := p.bypass.Load()
	gain := p.inputGain.Load()

	for i := range n {
		dst[i] = p.process(src[i], gain, bypass)
	}

	p.peak.Store(core.Peak(dst[:n]))
	p.blocks.Add(1)

	return n
}

// ProcessSample runs one sample through the strip.
func (p *Pipeline) ProcessSample(x float64) float64 {
	return p.process(x, p.inputGain.Load(), p.bypass.Load())
}

func (p *Pipeline) process(x, gain float64, bypass bool) float64 {
	x = core.Sanitize(x) * gain

	if bypass {
		return core.HardClip(x)
	}

	y := p.eq.ProcessSample(x)
	if !core.IsFinite(y) {
		p.eq.Reset()
		y = 0
	}

	level := p.rms.Update(y)

	y = p.expander.Process(y, level)
	y = p.compressor.Process(y, level)
	y = p.limiter.Process(y, level)
	y = core.Sanitize(core.SoftClip(y))

	p.analyzer.Push(y)

	return y
}

// Reset clears all filter, detector and gain state. Audio context only.
func (p *Pipeline) Reset() {
	p.eq.Reset()
	p.rms.Reset()
	p.expander.Reset()
	p.compressor.Reset()
	p.limiter.Reset()
	p.analyzer.Reset()
	p.peak.Store(0)
}

// SetBypass switches between the full strip and the clipped dry signal.
func (p *Pipeline) SetBypass(on bool) { p.bypass.Store(on) }

// Bypassed reports whether the strip is bypassed.
func (p *Pipeline) Bypassed() bool { return p.bypass.Load() }

// LevelDBFS returns the detector level in dBFS.
func (p *Pipeline) LevelDBFS() float64 { return p.rms.LevelDBFS() }

// Bands returns the band energies of the last completed analysis.
func (p *Pipeline) Bands() [spectrum.NumBands]float64 { return p.analyzer.Bands() }

// PeakDBFS returns the output peak of the last processed block.
func (p *Pipeline) PeakDBFS() float64 {
	return core.LinearToDBFloor(p.peak.Load(), meterFloor)
}

// Blocks returns the number of blocks processed.
func (p *Pipeline) Blocks() uint64 { return p.blocks.Load() }

// EQResponseDB returns the magnitude of the whole EQ cascade at freqHz.
func (p *Pipeline) EQResponseDB(freqHz float64) float64 { return p.eq.MagnitudeDB(freqHz) }

// EQParams returns the applied settings of all bands.
func (p *Pipeline) EQParams() [eq.NumBands]design.Params { return p.eq.AllParams() }

// AnalysisWindow returns the spectrum window type.
func (p *Pipeline) AnalysisWindow() window.Type { return p.analyzer.Window() }

// Status is a point-in-time view of settings and meters.
type Status struct {
	Bypassed   bool                       `json:"bypassed"`
	InputGain  float64                    `json:"inputGain"`
	RMSTimeMs  float64                    `json:"rmsTimeMs"`
	LevelDBFS  float64                    `json:"levelDBFS"`
	PeakDBFS   float64                    `json:"peakDBFS"`
	Bands      [spectrum.NumBands]float64 `json:"bands"`
	Analyses   uint64                     `json:"analyses"`
	Blocks     uint64                     `json:"blocks"`
	EQ         [eq.NumBands]design.Params `json:"eq"`
	Expander   dynamics.ExpanderParams    `json:"expander"`
	Compressor dynamics.CompressorParams  `json:"compressor"`
	Limiter    dynamics.LimiterParams     `json:"limiter"`
}

// Status collects the current settings and meter readings. Each field is
// read independently, so settings changed concurrently may be mixed.
func (p *Pipeline) Status() Status {
	return Status{
		Bypassed:   p.Bypassed(),
		InputGain:  p.inputGain.Load(),
		RMSTimeMs:  p.rms.TimeConstant(),
		LevelDBFS:  p.LevelDBFS(),
		PeakDBFS:   p.PeakDBFS(),
		Bands:      p.Bands(),
		Analyses:   p.analyzer.Analyses(),
		Blocks:     p.Blocks(),
		EQ:         p.eq.AllParams(),
		Expander:   p.expander.Snapshot(),
		Compressor: p.compressor.Snapshot(),
		Limiter:    p.limiter.Snapshot(),
	}
}
