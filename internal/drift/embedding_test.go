package drift

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeterFirstObservationSeedsBaseline(t *testing.T) {
	m := NewMeter()

	assert.Nil(t, m.Baseline())

	d := m.Observe([]float64{1, 2, 3, 4})
	assert.InDelta(t, 0.0, d, 1e-9)
	assert.Equal(t, []float64{1, 2, 3, 4}, m.Baseline())
}

func TestMeterDistance(t *testing.T) {
	tests := []struct {
		name      string
		baseline  []float64
		embedding []float64
		want      float64
	}{
		{
			name:      "identical vectors",
			baseline:  []float64{0.5, 0.5, 0.5, 0.5},
			embedding: []float64{0.5, 0.5, 0.5, 0.5},
			want:      0.0,
		},
		{
			name:      "scaled vector is still parallel",
			baseline:  []float64{1, 2, 3, 4},
			embedding: []float64{2, 4, 6, 8},
			want:      0.0,
		},
		{
			name:      "orthogonal vectors",
			baseline:  []float64{1, 0},
			embedding: []float64{0, 1},
			want:      1.0,
		},
		{
			name:      "opposite vectors",
			baseline:  []float64{1, 0},
			embedding: []float64{-1, 0},
			want:      2.0,
		},
		{
			name:      "zero vector yields max distance",
			baseline:  []float64{1, 1},
			embedding: []float64{0, 0},
			want:      1.0,
		},
		{
			name:      "length mismatch yields max distance",
			baseline:  []float64{1, 1},
			embedding: []float64{1, 1, 1},
			want:      1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMeter()
			m.Observe(tt.baseline)
			assert.InDelta(t, tt.want, m.Observe(tt.embedding), 1e-9)
		})
	}
}

func TestMeterReset(t *testing.T) {
	m := NewMeter()
	m.Observe([]float64{1, 0})

	d := m.Observe([]float64{0, 1})
	require.InDelta(t, 1.0, d, 1e-9)

	m.Reset()
	assert.Nil(t, m.Baseline())

	// the next observation re-seeds, so distance drops back to zero
	d = m.Observe([]float64{0, 1})
	assert.InDelta(t, 0.0, d, 1e-9)
	assert.Equal(t, []float64{0, 1}, m.Baseline())
}

func TestMeterBaselineIsCopied(t *testing.T) {
	m := NewMeter()
	src := []float64{1, 2}
	m.Observe(src)

	src[0] = 99
	assert.Equal(t, []float64{1, 2}, m.Baseline())

	b := m.Baseline()
	b[0] = 42
	assert.Equal(t, []float64{1, 2}, m.Baseline())
}
