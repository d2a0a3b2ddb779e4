package vptree

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/viant/knn/distance"
	"github.com/viant/knn/index"
)

// Index implements a kNN index using a VP-tree to prune search.
type Index[L comparable] struct {
	mu     sync.RWMutex
	points []index.Point[L]
	dim    int
	metric *distance.Metric
	root   *node
}

type node struct {
	pos   int // index into points
	thr   float64
	left  *node
	right *node
}

// New creates an empty index.
func New[L comparable]() *Index[L] { return &Index[L]{} }

// Factory returns an index.Factory producing VP-tree indexes.
func Factory[L comparable]() index.Factory[L] {
	return func() index.Index[L] { return New[L]() }
}

// Build constructs the VP-tree over points.
func (i *Index[L]) Build(points []index.Point[L], metric *distance.Metric) error {
	if metric == nil {
		return errors.New("vptree: metric is nil")
	}
	dim, err := index.Dim(points)
	if err != nil {
		return fmt.Errorf("vptree: %w", err)
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	i.points = points
	i.dim = dim
	i.metric = metric
	positions := make([]int, len(points))
	for k := range positions {
		positions[k] = k
	}
	i.root = i.build(positions)
	return nil
}

func (i *Index[L]) build(positions []int) *node {
	if len(positions) == 0 {
		return nil
	}
	// pick last as vantage point to avoid extra randomness
	vp := positions[len(positions)-1]
	rest := positions[:len(positions)-1]
	if len(rest) == 0 {
		return &node{pos: vp}
	}
	dists := make([]float64, len(rest))
	for k, p := range rest {
		dists[k] = i.metric.Distance(i.points[vp].Vector, i.points[p].Vector)
	}
	order := make([]int, len(rest))
	for k := range order {
		order[k] = k
	}
	sort.SliceStable(order, func(a, b int) bool { return dists[order[a]] < dists[order[b]] })
	mid := len(rest) / 2
	thr := dists[order[mid]]
	left := make([]int, 0, mid+1)
	right := make([]int, 0, len(rest)-(mid+1))
	for rank, k := range order {
		if rank <= mid {
			left = append(left, rest[k])
		} else {
			right = append(right, rest[k])
		}
	}
	// children keep insertion order so rebuilds are deterministic
	sort.Ints(left)
	sort.Ints(right)
	return &node{
		pos:   vp,
		thr:   thr,
		left:  i.build(left),
		right: i.build(right),
	}
}

// Nearest returns the k nearest points to query.
func (i *Index[L]) Nearest(query []float64, k int) ([]index.Neighbor[L], error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if len(i.points) == 0 {
		return nil, nil
	}
	if len(query) != i.dim {
		return nil, fmt.Errorf("vptree: query dim %d != index dim %d", len(query), i.dim)
	}
	c := index.NewCollector(k)
	prune := i.metric.Triangle()
	var search func(n *node)
	search = func(n *node) {
		if n == nil {
			return
		}
		d := i.metric.Distance(query, i.points[n.pos].Vector)
		c.Offer(n.pos, d)
		if !prune {
			search(n.left)
			search(n.right)
			return
		}
		// left holds points within thr of the vantage point, right the rest
		if d < n.thr {
			if d-c.Radius() <= n.thr {
				search(n.left)
			}
			if d+c.Radius() >= n.thr {
				search(n.right)
			}
		} else {
			if d+c.Radius() >= n.thr {
				search(n.right)
			}
			if d-c.Radius() <= n.thr {
				search(n.left)
			}
		}
	}
	search(i.root)
	return index.Resolve(i.points, c.Sorted()), nil
}

// Len returns the number of indexed points.
func (i *Index[L]) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.points)
}

// MarshalBinary encodes the points with index.EncodePoints.
func (i *Index[L]) MarshalBinary() ([]byte, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return index.EncodePoints(i.points)
}

// Restore decodes points and rebuilds the VP-tree.
func (i *Index[L]) Restore(data []byte, metric *distance.Metric) error {
	points, err := index.DecodePoints[L](data)
	if err != nil {
		return err
	}
	return i.Build(points, metric)
}

var _ index.Index[string] = (*Index[string])(nil)
