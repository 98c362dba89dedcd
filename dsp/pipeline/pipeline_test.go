package pipeline

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/cwbudde/algo-micstrip/dsp/effects/dynamics"
	"github.com/cwbudde/algo-micstrip/dsp/filter/design"
	"github.com/cwbudde/algo-micstrip/dsp/filter/eq"
	"github.com/cwbudde/algo-micstrip/dsp/spectrum"
	"github.com/cwbudde/algo-micstrip/dsp/window"
	"github.com/cwbudde/algo-micstrip/internal/testutil"
)

const blockSize = 512

func newTestPipeline(t *testing.T, opts ...Option) *Pipeline {
	t.Helper()

	p, err := New(opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	return p
}

// run feeds src through p in blockSize chunks and returns the output.
func run(p *Pipeline, src []float64) []float64 {
	out := make([]float64, len(src))
	for i := 0; i < len(src); i += blockSize {
		end := min(i+blockSize, len(src))
		p.ProcessBlock(out[i:end], src[i:end])
	}

	return out
}

func disabledExpander() Option {
	p := dynamics.DefaultExpanderParams()
	p.Threshold = 0

	return WithExpander(p)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.SampleRate != 48000 || cfg.AnalysisSize != 512 || cfg.RMSTimeMs != 20 {
		t.Fatalf("unexpected base config: %+v", cfg)
	}

	if cfg.AnalysisWindow != window.TypeHamming || cfg.InputGain != 1 {
		t.Fatalf("window=%v inputGain=%v", cfg.AnalysisWindow, cfg.InputGain)
	}

	if cfg.Compressor != dynamics.DefaultCompressorParams() {
		t.Fatalf("compressor=%+v", cfg.Compressor)
	}

	if cfg.EQ != eq.DefaultParams() {
		t.Fatalf("eq=%+v", cfg.EQ)
	}
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		want error
	}{
		{"analysis size", []Option{WithAnalysisSize(500)}, spectrum.ErrInvalidSize},
		{"input gain", []Option{WithInputGain(math.NaN())}, ErrOutOfRange},
		{"rms time", []Option{WithRMSTime(math.Inf(1))}, dynamics.ErrNonFinite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts...)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err=%v, want %v", err, tt.want)
			}
		})
	}

	// Sample-rate options ignore non-positive values, so build the config directly.
	cfg := DefaultConfig()
	cfg.SampleRate = 0

	if _, err := NewWithConfig(cfg); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
}

func TestConfigReportsClampedValues(t *testing.T) {
	p := newTestPipeline(t,
		WithInputGain(100),
		WithEQ(
			design.Params{Shape: design.LowShelf, FreqHz: 5, Q: 0.707},
			design.Params{Shape: design.Peaking, FreqHz: 1200, Q: 1, GainDB: 20},
			design.Params{Shape: design.HighShelf, FreqHz: 8000, Q: 0.707},
		),
	)

	cfg := p.Config()
	if cfg.InputGain != MaxInputGain {
		t.Fatalf("input gain=%v, want %v", cfg.InputGain, MaxInputGain)
	}

	if cfg.EQ[eq.Low].FreqHz != design.MinFreqHz || cfg.EQ[eq.Mid].GainDB != design.MaxAbsGainDB {
		t.Fatalf("eq not clamped: %+v", cfg.EQ)
	}
}

func TestSteadyStateCompression(t *testing.T) {
	p := newTestPipeline(t, disabledExpander())

	out := run(p, testutil.DC(0.5, 48000))

	// Level 0.5 sits above the knee: -0.75 * (20log10(0.5) - 20log10(0.3)) dB,
	// plus 4 dB makeup, then the soft clip.
	gr := math.Pow(10, -0.75*20*math.Log10(0.5/0.3)/20)
	want := math.Tanh(0.5 * gr * math.Pow(10, 4.0/20))

	testutil.RequireNearlyEqual(t, "steady-state output", out[len(out)-1], want, 1e-3)
	testutil.RequireNearlyEqual(t, "level", p.LevelDBFS(), 20*math.Log10(0.5), 1e-2)
}

func TestSteadyStateSineSitsInKnee(t *testing.T) {
	p := newTestPipeline(t, disabledExpander())

	out := run(p, testutil.DeterministicSine(1000, 48000, 0.5, 48000))

	// The detector reads the sine's RMS, 0.5/sqrt(2) = -9.03 dBFS, which is
	// inside the 6 dB knee around -10.46 dBFS.
	levelDB := 20 * math.Log10(0.5/math.Sqrt2)
	delta := levelDB - (20*math.Log10(0.3) - 3)
	gr := math.Pow(10, -0.75*delta*delta/(2*6)/20)
	want := math.Tanh(0.5 * gr * math.Pow(10, 4.0/20))

	peak := 0.0
	for _, v := range out[len(out)-4800:] {
		peak = max(peak, math.Abs(v))
	}

	testutil.RequireNearlyEqual(t, "steady-state peak", peak, want, 2e-3)
	testutil.RequireNearlyEqual(t, "level", p.LevelDBFS(), levelDB, 5e-2)

	if peak <= math.Tanh(0.5*math.Pow(10, (-0.75*20*math.Log10(0.5/0.3)+4)/20)) {
		t.Fatalf("peak %v should exceed the above-knee figure for the same amplitude", peak)
	}
}

func TestBypassReturnsClippedInput(t *testing.T) {
	p := newTestPipeline(t, WithInputGain(2))
	p.SetBypass(true)

	if !p.Bypassed() {
		t.Fatal("expected bypassed")
	}

	src := []float64{0.3, 0.7, -0.9, 0}
	dst := make([]float64, len(src))

	if n := p.ProcessBlock(dst, src); n != len(src) {
		t.Fatalf("n=%d", n)
	}

	testutil.RequireSliceNearlyEqual(t, dst, []float64{0.6, 1, -1, 0}, 1e-15)

	if p.compressor.Gain() != 1 || p.analyzer.Analyses() != 0 || p.rms.Level() != 0 {
		t.Fatal("bypass must leave the stages untouched")
	}

	testutil.RequireNearlyEqual(t, "peak", p.PeakDBFS(), 0, 1e-12)
}

func TestNonFiniteInputNeverReachesOutput(t *testing.T) {
	p := newTestPipeline(t)

	src := testutil.DeterministicSine(440, 48000, 0.5, 4*blockSize)
	src[100] = math.NaN()
	src[200] = math.Inf(1)
	src[300] = math.Inf(-1)

	out := run(p, src)

	testutil.RequireFinite(t, out)
	testutil.RequireBounded(t, out, 1)
}

func TestProcessBlockLengths(t *testing.T) {
	p := newTestPipeline(t)

	src := testutil.DC(0.1, 10)
	dst := make([]float64, 6)

	if n := p.ProcessBlock(dst, src); n != 6 {
		t.Fatalf("n=%d, want 6", n)
	}

	// In place.
	buf := testutil.DC(0.1, 8)
	if n := p.ProcessBlock(buf, buf); n != 8 {
		t.Fatalf("n=%d, want 8", n)
	}

	if p.Blocks() != 2 {
		t.Fatalf("blocks=%d", p.Blocks())
	}
}

func TestProcessSampleMatchesBlock(t *testing.T) {
	a := newTestPipeline(t)
	b := newTestPipeline(t)

	src := testutil.DeterministicNoise(11, 0.8, 3*blockSize)
	want := run(a, src)

	got := make([]float64, len(src))
	for i, x := range src {
		got[i] = b.ProcessSample(x)
	}

	testutil.RequireSliceNearlyEqual(t, got, want, 0)
}

func TestSpectrumFollowsOutput(t *testing.T) {
	p := newTestPipeline(t)

	for _, v := range p.Bands() {
		if v != spectrum.SilenceDB {
			t.Fatalf("initial band=%v", v)
		}
	}

	run(p, testutil.DeterministicSine(1000, 48000, 0.5, 4*blockSize))

	bands := p.Bands()
	loudest := 0

	for i, v := range bands {
		if v > bands[loudest] {
			loudest = i
		}
	}

	if loudest != 4 {
		t.Fatalf("loudest band=%d (%v), want 4", loudest, bands)
	}
}

func TestSettersClampAndReport(t *testing.T) {
	p := newTestPipeline(t)

	tests := []struct {
		name string
		set  func() (float64, error)
		want float64
	}{
		{"eq gain", func() (float64, error) { return p.SetEQ(eq.Mid, eq.Gain, 12) }, 8},
		{"eq freq", func() (float64, error) { return p.SetEQ(eq.Low, eq.Freq, 120) }, 120},
		{"expander ratio", func() (float64, error) { return p.SetExpander(ExpanderRatio, 0.5) }, 1},
		{"expander hold", func() (float64, error) { return p.SetExpander(ExpanderHold, 50) }, 50},
		{"compressor ratio", func() (float64, error) { return p.SetCompressor(CompressorRatio, 500) }, 100},
		{"compressor knee", func() (float64, error) { return p.SetCompressor(CompressorKnee, -3) }, 0},
		{"limiter threshold", func() (float64, error) { return p.SetLimiter(LimiterThreshold, 2) }, 1},
		{"limiter release", func() (float64, error) { return p.SetLimiter(LimiterRelease, 80) }, 80},
		{"input gain", func() (float64, error) { return p.SetInputGain(-1) }, 0},
		{"rms time", func() (float64, error) { return p.SetRMSTime(0) }, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.set()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got != tt.want {
				t.Fatalf("applied=%v, want %v", got, tt.want)
			}
		})
	}

	s := p.Status()
	if s.EQ[eq.Mid].GainDB != 8 || s.Compressor.Ratio != 100 || s.Limiter.Threshold != 1 {
		t.Fatalf("status does not reflect setters: %+v", s)
	}

	if s.Expander.HoldMs != 50 || s.InputGain != 0 || s.RMSTimeMs != 50 {
		t.Fatalf("status does not reflect setters: %+v", s)
	}
}

func TestSetterErrors(t *testing.T) {
	p := newTestPipeline(t)
	before := p.Status()

	_, err := p.SetEQ(eq.Band(7), eq.Gain, 1)
	if !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("bad band: %v", err)
	}

	_, err = p.SetCompressor(CompressorParam(42), 1)
	if !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("bad compressor param: %v", err)
	}

	_, err = p.SetLimiter(LimiterThreshold, math.NaN())
	if !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("NaN: %v", err)
	}

	_, err = p.SetEQ(eq.High, eq.Q, math.Inf(1))
	if !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("Inf: %v", err)
	}

	if err := p.SetEQShape(eq.Band(-1), design.Peaking); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("bad shape band: %v", err)
	}

	if err := p.SetEQShape(eq.Mid, design.Shape(42)); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("unknown shape: %v", err)
	}

	after := p.Status()
	if after.EQ != before.EQ || after.Compressor != before.Compressor || after.Limiter != before.Limiter {
		t.Fatal("rejected updates must not change settings")
	}
}

func TestParseParams(t *testing.T) {
	for i, name := range expanderParamNames {
		got, err := ParseExpanderParam(name)
		if err != nil || got != ExpanderParam(i) {
			t.Fatalf("expander %q: %v, %v", name, got, err)
		}
	}

	if got, err := ParseCompressorParam("makeup"); err != nil || got != CompressorMakeup {
		t.Fatalf("compressor makeup: %v, %v", got, err)
	}

	if got, err := ParseLimiterParam(" Release "); err != nil || got != LimiterRelease {
		t.Fatalf("limiter release: %v, %v", got, err)
	}

	if _, err := ParseLimiterParam("KNEE"); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("err=%v", err)
	}

	if CompressorParam(9).String() != "PARAM(9)" {
		t.Fatalf("String()=%q", CompressorParam(9).String())
	}
}

func TestReset(t *testing.T) {
	p := newTestPipeline(t)
	run(p, testutil.DeterministicSine(300, 48000, 0.9, 2*blockSize))

	p.Reset()

	if p.rms.Level() != 0 || p.compressor.Gain() != 1 || p.Bands()[0] != spectrum.SilenceDB {
		t.Fatal("Reset should clear detector, gains and bands")
	}
}

func TestConcurrentControlAndAudio(t *testing.T) {
	p := newTestPipeline(t)
	src := testutil.DeterministicNoise(5, 0.9, blockSize)
	dst := make([]float64, blockSize)

	var wg sync.WaitGroup

	stop := make(chan struct{})

	wg.Add(1)

	go func() {
		defer wg.Done()

		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}

			v := float64(i%17) - 8
			_, _ = p.SetEQ(eq.Band(i%eq.NumBands), eq.Gain, v)
			_, _ = p.SetCompressor(CompressorThreshold, 0.1+float64(i%9)/10)
			_, _ = p.SetLimiter(LimiterAttack, float64(1+i%20))
			_, _ = p.SetExpander(ExpanderThreshold, float64(i%5)/100)
			p.SetBypass(i%13 == 0)
			_ = p.Status()
		}
	}()

	for range 200 {
		p.ProcessBlock(dst, src)
		testutil.RequireFinite(t, dst)
		testutil.RequireBounded(t, dst, 1)
	}

	close(stop)
	wg.Wait()
}

func BenchmarkProcessBlock(b *testing.B) {
	p, err := New()
	if err != nil {
		b.Fatal(err)
	}

	src := testutil.DeterministicNoise(1, 0.5, 128)
	dst := make([]float64, len(src))

	b.ReportAllocs()
	b.SetBytes(int64(len(src) * 8))

	for range b.N {
		p.ProcessBlock(dst, src)
	}
}
