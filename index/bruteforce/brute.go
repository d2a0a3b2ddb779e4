package bruteforce

import (
	"errors"
	"fmt"
	"sync"

	"github.com/viant/knn/distance"
	"github.com/viant/knn/index"
)

// Index is a brute-force kNN index.
type Index[L comparable] struct {
	mu     sync.RWMutex
	points []index.Point[L]
	dim    int
	metric *distance.Metric
}

// New creates an empty index.
func New[L comparable]() *Index[L] { return &Index[L]{} }

// Factory returns an index.Factory producing brute-force indexes.
func Factory[L comparable]() index.Factory[L] {
	return func() index.Index[L] { return New[L]() }
}

// Build loads points and validates their dimensions.
func (i *Index[L]) Build(points []index.Point[L], metric *distance.Metric) error {
	if metric == nil {
		return errors.New("bruteforce: metric is nil")
	}
	dim, err := index.Dim(points)
	if err != nil {
		return fmt.Errorf("bruteforce: %w", err)
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	i.points = points
	i.dim = dim
	i.metric = metric
	return nil
}

// Nearest returns the k nearest points to query.
func (i *Index[L]) Nearest(query []float64, k int) ([]index.Neighbor[L], error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if len(i.points) == 0 {
		return nil, nil
	}
	if len(query) != i.dim {
		return nil, fmt.Errorf("bruteforce: query dim %d != index dim %d", len(query), i.dim)
	}
	c := index.NewCollector(k)
	for pos := range i.points {
		c.Offer(pos, i.metric.Distance(query, i.points[pos].Vector))
	}
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

// Restore decodes points and rebuilds the index.
func (i *Index[L]) Restore(data []byte, metric *distance.Metric) error {
	points, err := index.DecodePoints[L](data)
	if err != nil {
		return err
	}
	return i.Build(points, metric)
}

var _ index.Index[string] = (*Index[string])(nil)
