// Package biquad provides second-order IIR filter runtime primitives.
//
// A [Section] implements Direct Form II Transposed processing for a single
// section defined by [Coefficients]. A [SharedSection] is the variant used
// on a live audio path: its coefficients can be replaced from a control
// goroutine without locks, and unstable sets are refused.
//
// Coefficient design lives in dsp/filter/design.
package biquad
