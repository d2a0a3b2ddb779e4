package distance

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/floats"
)

// Func computes the distance between two vectors of equal length.
type Func func(a, b []float64) float64

// Metric is a named distance function.
type Metric struct {
	name     string
	fn       Func
	triangle bool
}

// New creates a metric that satisfies the triangle inequality. Tree indexes
// prune their search with it.
func New(name string, fn Func) *Metric {
	return &Metric{name: name, fn: fn, triangle: true}
}

// NewDissimilarity creates a measure that does not satisfy the triangle
// inequality. Tree indexes fall back to an exhaustive traversal for it.
func NewDissimilarity(name string, fn Func) *Metric {
	return &Metric{name: name, fn: fn}
}

// Name returns the metric name.
func (m *Metric) Name() string { return m.name }

// Distance returns the distance between a and b.
func (m *Metric) Distance(a, b []float64) float64 { return m.fn(a, b) }

// Triangle reports whether the metric satisfies the triangle inequality.
func (m *Metric) Triangle() bool { return m.triangle }

func (m *Metric) String() string { return m.name }

var (
	// Euclidean is the canonical default metric.
	Euclidean = New("euclidean", euclidean)
	// SquaredEuclidean ranks like Euclidean without the square root.
	SquaredEuclidean = NewDissimilarity("sqeuclidean", squaredEuclidean)
	// Manhattan is the L1 distance.
	Manhattan = New("manhattan", manhattan)
	// Chebyshev is the L-infinity distance.
	Chebyshev = New("chebyshev", chebyshev)
	// Cosine is 1 - cosine similarity.
	Cosine = NewDissimilarity("cosine", cosine)
)

// Default returns the canonical metric.
func Default() *Metric { return Euclidean }

// IsDefault reports whether m is the canonical metric. A nil metric means
// "use the default".
func IsDefault(m *Metric) bool { return m == nil || m == Default() }

var registry = struct {
	mu     sync.RWMutex
	byName map[string]*Metric
}{byName: map[string]*Metric{
	"euclidean":   Euclidean,
	"l2":          Euclidean,
	"sqeuclidean": SquaredEuclidean,
	"manhattan":   Manhattan,
	"l1":          Manhattan,
	"chebyshev":   Chebyshev,
	"linf":        Chebyshev,
	"cosine":      Cosine,
	"cos":         Cosine,
}}

// ByName resolves a registered metric. Built-in names resolve to the
// package-level singletons so identity survives configuration round trips.
func ByName(name string) (*Metric, bool) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	m, ok := registry.byName[name]
	return m, ok
}

// Register makes a custom metric resolvable by its name.
func Register(m *Metric) error {
	if m == nil || m.name == "" || m.fn == nil {
		return fmt.Errorf("distance: metric must have a name and a function")
	}
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if _, ok := registry.byName[m.name]; ok {
		return fmt.Errorf("distance: metric %q already registered", m.name)
	}
	registry.byName[m.name] = m
	return nil
}

func euclidean(a, b []float64) float64 { return floats.Distance(a, b, 2) }

func manhattan(a, b []float64) float64 { return floats.Distance(a, b, 1) }

func chebyshev(a, b []float64) float64 { return floats.Distance(a, b, math.Inf(1)) }

func squaredEuclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

func cosine(a, b []float64) float64 {
	na, nb := floats.Norm(a, 2), floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - floats.Dot(a, b)/(na*nb)
}
