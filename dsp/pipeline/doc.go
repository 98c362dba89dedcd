// Package pipeline wires the microphone strip together.
//
// A Pipeline owns one instance of every stage and runs each sample through
// them in a fixed order:
//
//	input gain -> 3-band EQ -> RMS detector -> expander -> compressor
//	-> limiter -> tanh soft clip -> spectrum analyzer
//
// The detector level computed after the EQ drives all three gain stages.
//
// Exactly one goroutine (the audio context) may call ProcessBlock,
// ProcessSample and Reset. Setters and readers are safe from any other
// goroutine and never block the audio context: scalar parameters are
// atomic cells and filter coefficients are swapped as whole sets.
package pipeline
