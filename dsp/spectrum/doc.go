// Package spectrum turns blocks of processed audio into per-band energy
// readings.
//
// An [Analyzer] collects a fixed number of samples, windows them, runs a
// forward FFT and averages the bin power over eight logarithmic bands
// between 60 Hz and 16 kHz. The most recent result is published as a
// complete snapshot so a telemetry reader on another goroutine never sees
// a mix of two analyses.
package spectrum
