package distance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltins(t *testing.T) {
	a := []float64{0, 0}
	b := []float64{3, 4}
	tests := []struct {
		name     string
		metric   *Metric
		expected float64
		triangle bool
	}{
		{"Euclidean", Euclidean, 5, true},
		{"SquaredEuclidean", SquaredEuclidean, 25, false},
		{"Manhattan", Manhattan, 7, true},
		{"Chebyshev", Chebyshev, 4, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, tt.metric.Distance(a, b), 1e-12)
			assert.InDelta(t, tt.expected, tt.metric.Distance(b, a), 1e-12)
			assert.Equal(t, tt.triangle, tt.metric.Triangle())
		})
	}
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 0, Cosine.Distance([]float64{1, 0}, []float64{2, 0}), 1e-12)
	assert.InDelta(t, 1, Cosine.Distance([]float64{1, 0}, []float64{0, 1}), 1e-12)
	assert.InDelta(t, 1, Cosine.Distance([]float64{0, 0}, []float64{0, 1}), 1e-12)
}

func TestIsDefaultComparesIdentity(t *testing.T) {
	assert.True(t, IsDefault(nil))
	assert.True(t, IsDefault(Euclidean))
	assert.True(t, IsDefault(Default()))

	// Same numbers, different metric.
	clone := New("euclidean", Euclidean.Distance)
	assert.Equal(t, Euclidean.Distance([]float64{1, 2}, []float64{4, 6}), clone.Distance([]float64{1, 2}, []float64{4, 6}))
	assert.False(t, IsDefault(clone))
	assert.False(t, IsDefault(Manhattan))
}

func TestByName(t *testing.T) {
	m, ok := ByName("l2")
	require.True(t, ok)
	assert.Same(t, Euclidean, m)

	m, ok = ByName("cos")
	require.True(t, ok)
	assert.Same(t, Cosine, m)

	_, ok = ByName("hamming")
	assert.False(t, ok)
}

func TestRegister(t *testing.T) {
	custom := New("test-weighted", func(a, b []float64) float64 { return 2 * Euclidean.Distance(a, b) })
	require.NoError(t, Register(custom))

	m, ok := ByName("test-weighted")
	require.True(t, ok)
	assert.Same(t, custom, m)

	assert.Error(t, Register(custom))
	assert.Error(t, Register(&Metric{}))
}
