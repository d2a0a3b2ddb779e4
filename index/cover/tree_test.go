package cover

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/knn/distance"
	"github.com/viant/knn/index"
	"github.com/viant/knn/index/indextest"
)

func TestConformance(t *testing.T) {
	t.Run("DepthFirst", func(t *testing.T) { indextest.Conformance(t, Factory[int]()) })
	t.Run("BestFirst", func(t *testing.T) { indextest.Conformance(t, Factory[int](WithBestFirst(true))) })
	t.Run("Base2", func(t *testing.T) { indextest.Conformance(t, Factory[int](WithBase(2))) })
}

func TestRoundTrip(t *testing.T) { indextest.RoundTrip(t, Factory[int]()) }

func TestErrors(t *testing.T) { indextest.Errors(t, Factory[int]()) }

func TestOptions(t *testing.T) {
	assert.Equal(t, defaultBase, New[int]().opts.base)
	assert.Equal(t, defaultBase, New[int](WithBase(0.5)).opts.base)
	assert.Equal(t, 2.0, New[int](WithBase(2)).opts.base)
	assert.True(t, New[int](WithBestFirst(true)).opts.bestFirst)
}

func TestRadiusBoundsDescendants(t *testing.T) {
	idx := New[int]()
	points := indextest.GridPoints(11, 200, 2, 20)
	require.NoError(t, idx.Build(points, distance.Euclidean))

	var check func(n *node) []int
	check = func(n *node) []int {
		desc := []int{n.pos}
		for i := range n.children {
			desc = append(desc, check(&n.children[i])...)
		}
		for _, pos := range desc {
			assert.LessOrEqual(t, idx.dist(n.pos, pos), n.radius+1e-9)
		}
		return desc
	}
	all := check(idx.root)
	assert.Len(t, all, len(points))
}

func TestDuplicates(t *testing.T) {
	points := make([]index.Point[int], 50)
	for i := range points {
		points[i] = index.Point[int]{Vector: []float64{1, 1}, Label: i}
	}
	idx := New[int]()
	require.NoError(t, idx.Build(points, distance.Euclidean))
	got, err := idx.Nearest([]float64{1, 1}, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []int{0, 1, 2}, []int{got[0].Label, got[1].Label, got[2].Label})
}
