// Package dynamics provides the level-driven stages of a microphone strip.
//
// Included processors:
//   - RMSDetector: single-pole mean-square level estimator shared by the
//     gain stages.
//   - Expander: downward expander with hold.
//   - Compressor: soft-knee compressor with makeup gain and a hard ceiling.
//   - Limiter: fast gain reduction towards a threshold.
//
// The gain stages do not measure their input themselves: Process takes the
// sample and an externally computed linear level, so one detector can drive
// the whole chain.
//
// Parameters may be changed from a control goroutine while a single audio
// goroutine processes samples. Each parameter is stored as an independent
// atomic value; gain and detector state belong to the audio goroutine.
package dynamics
