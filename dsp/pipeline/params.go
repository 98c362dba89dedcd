package pipeline

import (
	"fmt"
	"strings"

	"github.com/cwbudde/algo-micstrip/dsp/filter/eq"
)

// ErrInvalidParameter reports an unknown band or parameter name. Nothing
// is changed when it is returned.
var ErrInvalidParameter = eq.ErrInvalidParameter

// ExpanderParam names one expander setting.
type ExpanderParam int

const (
	ExpanderThreshold ExpanderParam = iota
	ExpanderRatio
	ExpanderAttack
	ExpanderRelease
	ExpanderHold
)

var expanderParamNames = []string{"THRESHOLD", "RATIO", "ATTACK", "RELEASE", "HOLD"}

func (p ExpanderParam) String() string { return paramName(expanderParamNames, int(p)) }

// ParseExpanderParam maps a case-insensitive name to an ExpanderParam.
func ParseExpanderParam(s string) (ExpanderParam, error) {
	i, err := parseParam("expander", expanderParamNames, s)
	return ExpanderParam(i), err
}

// CompressorParam names one compressor setting.
type CompressorParam int

const (
	CompressorThreshold CompressorParam = iota
	CompressorRatio
	CompressorMakeup
	CompressorAttack
	CompressorRelease
	CompressorKnee
)

var compressorParamNames = []string{"THRESHOLD", "RATIO", "MAKEUP", "ATTACK", "RELEASE", "KNEE"}

func (p CompressorParam) String() string { return paramName(compressorParamNames, int(p)) }

// ParseCompressorParam maps a case-insensitive name to a CompressorParam.
func ParseCompressorParam(s string) (CompressorParam, error) {
	i, err := parseParam("compressor", compressorParamNames, s)
	return CompressorParam(i), err
}

// LimiterParam names one limiter setting.
type LimiterParam int

const (
	LimiterThreshold LimiterParam = iota
	LimiterAttack
	LimiterRelease
)

var limiterParamNames = []string{"THRESHOLD", "ATTACK", "RELEASE"}

func (p LimiterParam) String() string { return paramName(limiterParamNames, int(p)) }

// ParseLimiterParam maps a case-insensitive name to a LimiterParam.
func ParseLimiterParam(s string) (LimiterParam, error) {
	i, err := parseParam("limiter", limiterParamNames, s)
	return LimiterParam(i), err
}

func paramName(names []string, i int) string {
	if i < 0 || i >= len(names) {
		return fmt.Sprintf("PARAM(%d)", i)
	}

	return names[i]
}

func parseParam(stage string, names []string, s string) (int, error) {
	key := strings.ToUpper(strings.TrimSpace(s))
	for i, name := range names {
		if key == name {
			return i, nil
		}
	}

	return 0, fmt.Errorf("%w: %s parameter %q", ErrInvalidParameter, stage, s)
}
