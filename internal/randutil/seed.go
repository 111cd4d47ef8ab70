// Package randutil derives independent deterministic random streams from a single seed
// so results do not depend on how work is scheduled across goroutines.
package randutil

import (
	"golang.org/x/exp/rand"
)

// Mix returns the seed of stream idx using the splitmix64 finalizer
func Mix(seed uint64, idx int) uint64 {
	z := seed + (uint64(idx)+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// Source returns the random source of stream idx
func Source(seed uint64, idx int) rand.Source {
	return rand.NewSource(Mix(seed, idx))
}
