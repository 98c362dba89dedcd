package design

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cwbudde/algo-micstrip/dsp/core"
)

// Parameter limits applied by Params.Clamp.
const (
	MinFreqHz       = 20.0
	MaxFreqFraction = 0.45 // of the sample rate
	MinQ            = 0.3
	MaxQ            = 10.0
	MaxAbsGainDB    = 8.0
)

// ErrUnknownShape is returned for shape names or values outside Shape.
var ErrUnknownShape = errors.New("design: unknown filter shape")

// Shape selects one of the RBJ second-order responses.
type Shape int

const (
	LowPass Shape = iota
	HighPass
	BandPass
	Peaking
	LowShelf
	HighShelf
)

var shapeNames = [...]string{
	LowPass:   "lowpass",
	HighPass:  "highpass",
	BandPass:  "bandpass",
	Peaking:   "peaking",
	LowShelf:  "lowshelf",
	HighShelf: "highshelf",
}

// Valid reports whether s is one of the defined shapes.
func (s Shape) Valid() bool {
	return s >= 0 && int(s) < len(shapeNames)
}

func (s Shape) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Shape(%d)", int(s))
	}
	return shapeNames[s]
}

// ParseShape accepts the names returned by String, case-insensitively,
// with optional '-' or '_' separators ("low-shelf", "PEAKING", "band_pass").
func ParseShape(name string) (Shape, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.NewReplacer("-", "", "_", "", " ", "").Replace(n)
	switch n {
	case "peak":
		return Peaking, nil
	case "lp":
		return LowPass, nil
	case "hp":
		return HighPass, nil
	case "bp":
		return BandPass, nil
	}
	for i, s := range shapeNames {
		if s == n {
			return Shape(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownShape, name)
}

// MarshalText encodes the shape by name.
func (s Shape) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownShape, int(s))
	}
	return []byte(shapeNames[s]), nil
}

// UnmarshalText accepts any name ParseShape understands.
func (s *Shape) UnmarshalText(text []byte) error {
	v, err := ParseShape(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Params describes one EQ band.
type Params struct {
	Shape  Shape
	FreqHz float64
	Q      float64
	GainDB float64 // ignored by the pass shapes
}

// Clamp returns p limited to the accepted parameter ranges for sampleRate:
// frequency in [20, 0.45*fs], Q in [0.3, 10] and gain in [-8, +8] dB.
// clamped reports whether any field changed.
func (p Params) Clamp(sampleRate float64) (out Params, clamped bool) {
	out = p
	out.FreqHz = core.Clamp(p.FreqHz, MinFreqHz, MaxFreqFraction*sampleRate)
	out.Q = core.Clamp(p.Q, MinQ, MaxQ)
	out.GainDB = core.Clamp(p.GainDB, -MaxAbsGainDB, MaxAbsGainDB)

	return out, out != p
}
