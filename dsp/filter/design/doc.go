// Package design computes biquad coefficients from musical parameters.
//
// The designers follow the RBJ audio EQ cookbook (lowpass, highpass,
// 0 dB-peak bandpass, peaking, low and high shelf). [Design] is the checked
// entry point: it clamps [Params] to the supported ranges, designs the
// section and rejects results that fail the biquad stability test.
package design
