package index

import "github.com/viant/knn/distance"

// Point is a training vector paired with its label. Labels are persisted
// as JSON and must decode back to an equal value, so struct labels need
// exported fields and interface labels lose their concrete numeric types.
type Point[L comparable] struct {
	Vector []float64
	Label  L
}

// Neighbor is a point returned by a kNN query with its distance to the query.
type Neighbor[L comparable] struct {
	Point[L]
	Distance float64
}

// Index defines a labeled vector index with basic lifecycle methods.
type Index[L comparable] interface {
	// Build constructs the index from points using metric. The index keeps
	// the point slice it receives; callers should not mutate it afterwards.
	Build(points []Point[L], metric *distance.Metric) error

	// Nearest returns up to k neighbors of query ordered by non-decreasing
	// distance, ties in insertion order. When k <= 0 or k exceeds Len, all
	// points are returned.
	Nearest(query []float64, k int) ([]Neighbor[L], error)

	// Len returns the number of indexed points.
	Len() int

	// MarshalBinary serializes the indexed points.
	MarshalBinary() ([]byte, error)

	// Restore rebuilds the index from MarshalBinary output using metric.
	Restore(data []byte, metric *distance.Metric) error
}

// Factory creates empty indexes.
type Factory[L comparable] func() Index[L]
