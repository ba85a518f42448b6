package leverage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRingBufferMeanAndStdDev(t *testing.T) {
	r := NewRingBuffer(5)
	for _, v := range []float64{1, 2, 3, 4, 5} {
		r.Push(v)
	}
	assert.Equal(t, 5, r.Len())
	assert.InDelta(t, 3, r.Mean(), 1e-9)
	assert.Greater(t, r.StdDev(), 0.0)
	assert.Equal(t, 5.0, r.Max())
	assert.Equal(t, 3.0, r.Median())
}

func TestRingBufferEvictsOldestAtCapacity(t *testing.T) {
	r := NewRingBuffer(3)
	r.Push(1)
	r.Push(2)
	r.Push(3)
	r.Push(4) // evicts 1
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, 4.0, r.Max())
	assert.InDelta(t, 3, r.Mean(), 1e-9) // (2+3+4)/3
}

func TestRingBufferEmptyStatsAreZero(t *testing.T) {
	r := NewRingBuffer(4)
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 0.0, r.Mean())
	assert.Equal(t, 0.0, r.StdDev())
	assert.Equal(t, 0.0, r.Max())
	assert.Equal(t, 0.0, r.Median())
}
