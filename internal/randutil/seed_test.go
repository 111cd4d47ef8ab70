package randutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/exp/rand"
)

func TestMix(t *testing.T) {
	seen := make(map[uint64]struct{})
	for i := 0; i < 1000; i++ {
		s := Mix(42, i)
		_, dup := seen[s]
		assert.False(t, dup)
		seen[s] = struct{}{}
	}
	assert.Equal(t, Mix(1, 3), Mix(1, 3))
	assert.NotEqual(t, Mix(1, 3), Mix(2, 3))
}

func TestSource(t *testing.T) {
	a := rand.New(Source(7, 2))
	b := rand.New(Source(7, 2))
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Uint64(), b.Uint64())
	}
}
