// Package eq implements a three-band parametric equalizer built from
// cascaded biquad sections (low, mid, high).
//
// Bands are retuned from a control goroutine while an audio goroutine keeps
// filtering. A retune that would produce an unstable section is refused and
// the band keeps running its previous coefficients.
package eq
