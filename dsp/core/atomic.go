package core

import (
	"math"
	"sync/atomic"
)

// Float64 is a float64 that can be written by one goroutine and read by
// another without locks. Each Load observes a whole value from some Store.
type Float64 struct {
	bits atomic.Uint64
}

// Load returns the current value.
func (f *Float64) Load() float64 {
	return math.Float64frombits(f.bits.Load())
}

// Store replaces the current value.
func (f *Float64) Store(v float64) {
	f.bits.Store(math.Float64bits(v))
}
