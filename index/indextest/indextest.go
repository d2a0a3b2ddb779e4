// Package indextest checks index implementations against the brute-force
// reference.
package indextest

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/knn/distance"
	"github.com/viant/knn/index"
	"github.com/viant/knn/index/bruteforce"
)

// GridPoints returns n points with integer coordinates in [0, span). The
// coarse grid produces duplicates and equal distances, which exercises tie
// ordering.
func GridPoints(seed int64, n, dim, span int) []index.Point[int] {
	rng := rand.New(rand.NewSource(seed))
	points := make([]index.Point[int], n)
	for i := range points {
		vec := make([]float64, dim)
		for j := range vec {
			vec[j] = float64(rng.Intn(span))
		}
		points[i] = index.Point[int]{Vector: vec, Label: i}
	}
	return points
}

// Conformance builds factory indexes over grid data and requires every
// query to match the brute-force result exactly.
func Conformance(t *testing.T, factory index.Factory[int]) {
	t.Helper()
	metrics := []*distance.Metric{
		distance.Euclidean,
		distance.Manhattan,
		distance.Chebyshev,
		distance.SquaredEuclidean,
		distance.Cosine,
	}
	points := GridPoints(42, 300, 3, 6)
	queries := GridPoints(7, 40, 3, 7)
	for _, metric := range metrics {
		t.Run(metric.Name(), func(t *testing.T) {
			ref := bruteforce.New[int]()
			require.NoError(t, ref.Build(points, metric))
			idx := factory()
			require.NoError(t, idx.Build(points, metric))
			require.Equal(t, len(points), idx.Len())
			for _, q := range queries {
				for _, k := range []int{1, 4, 17, 0} {
					want, err := ref.Nearest(q.Vector, k)
					require.NoError(t, err)
					got, err := idx.Nearest(q.Vector, k)
					require.NoError(t, err)
					assert.Equal(t, want, got, "query=%v k=%d", q.Vector, k)
				}
			}
		})
	}
}

// RoundTrip requires a restored index to answer like the original one.
func RoundTrip(t *testing.T, factory index.Factory[int]) {
	t.Helper()
	points := GridPoints(3, 120, 2, 10)
	idx := factory()
	require.NoError(t, idx.Build(points, distance.Euclidean))
	data, err := idx.MarshalBinary()
	require.NoError(t, err)

	restored := factory()
	require.NoError(t, restored.Restore(data, distance.Euclidean))
	require.Equal(t, idx.Len(), restored.Len())
	for _, q := range GridPoints(4, 20, 2, 10) {
		want, err := idx.Nearest(q.Vector, 5)
		require.NoError(t, err)
		got, err := restored.Nearest(q.Vector, 5)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Error(t, restored.Restore(nil, distance.Euclidean))
}

// Errors checks the failure modes shared by all implementations.
func Errors(t *testing.T, factory index.Factory[int]) {
	t.Helper()
	idx := factory()
	got, err := idx.Nearest([]float64{1, 2}, 3)
	require.NoError(t, err)
	assert.Empty(t, got)

	assert.Error(t, idx.Build(GridPoints(1, 4, 2, 3), nil))
	assert.Error(t, idx.Build([]index.Point[int]{{Vector: []float64{1, 2}}, {Vector: []float64{1}}}, distance.Euclidean))

	require.NoError(t, idx.Build(GridPoints(1, 4, 2, 3), distance.Euclidean))
	_, err = idx.Nearest([]float64{1}, 1)
	assert.Error(t, err)
}
