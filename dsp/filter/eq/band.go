package eq

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidParameter is returned for unknown band or parameter identifiers.
var ErrInvalidParameter = errors.New("eq: invalid parameter")

// ErrNonFinite is returned when a NaN or infinite value is supplied.
var ErrNonFinite = errors.New("eq: non-finite value")

// Band identifies one of the three equalizer bands.
type Band int

const (
	Low Band = iota
	Mid
	High

	// NumBands is the number of bands in the cascade.
	NumBands = 3
)

var bandNames = [NumBands]string{"LOW", "MID", "HIGH"}

func (b Band) String() string {
	if !b.valid() {
		return fmt.Sprintf("Band(%d)", int(b))
	}
	return bandNames[b]
}

func (b Band) valid() bool { return b >= 0 && b < NumBands }

// ParseBand parses "low", "mid" or "high" in any case.
func ParseBand(s string) (Band, error) {
	for i, name := range bandNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return Band(i), nil
		}
	}
	return 0, fmt.Errorf("%w: band %q", ErrInvalidParameter, s)
}

// Param identifies a numeric field of a band.
type Param int

const (
	Freq Param = iota
	Q
	Gain
)

func (p Param) String() string {
	switch p {
	case Freq:
		return "FC"
	case Q:
		return "Q"
	case Gain:
		return "GAIN"
	default:
		return fmt.Sprintf("Param(%d)", int(p))
	}
}

// ParseParam accepts FC (or FREQ), Q and GAIN in any case.
func ParseParam(s string) (Param, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "FC", "FREQ":
		return Freq, nil
	case "Q":
		return Q, nil
	case "GAIN":
		return Gain, nil
	}
	return 0, fmt.Errorf("%w: param %q", ErrInvalidParameter, s)
}
