package floatutils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r1"
)

func TestClip(t *testing.T) {
	assert.Equal(t, 1.0, Clip(3, -1, 1))
	assert.Equal(t, -1.0, Clip(-3, -1, 1))
	assert.Equal(t, 0.5, Clip(0.5, -1, 1))
	assert.Equal(t, 2.0, ClipInterval(5, r1.Interval{Min: 0, Max: 2}))
	assert.Equal(t, 4.0, Clip(4, 0, math.Inf(1)))
}

func TestMin(t *testing.T) {
	assert.Equal(t, -2.0, Min(3, -2, 7))
	assert.Equal(t, 3.0, Min(3))
}

func TestFinite(t *testing.T) {
	assert.Equal(t, 2.0, Finite(2, 5))
	assert.Equal(t, 5.0, Finite(math.Inf(1), 5))
	assert.Equal(t, 5.0, Finite(math.NaN(), 5))
}
