package classifier

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/viant/knn/distance"
	"github.com/viant/knn/index"
	"github.com/viant/knn/index/bruteforce"
	"github.com/viant/knn/index/cover"
	"github.com/viant/knn/index/vptree"
)

// Classifier is a k-nearest-neighbors classifier over labels of type L.
type Classifier[L comparable] struct {
	opts       options
	factory    index.Factory[L]
	factoryErr error
	state      *state[L]
}

// state is the trained model. It is never mutated, only replaced.
type state[L comparable] struct {
	index             index.Index[L]
	k                 int
	classes           []L
	metric            *distance.Metric
	usesDefaultMetric bool
}

// New creates an untrained classifier using the index selected by WithIndex.
func New[L comparable](opts ...Option) *Classifier[L] {
	o := newOptions(opts)
	factory, err := resolveFactory[L](o)
	return &Classifier[L]{opts: o, factory: factory, factoryErr: err}
}

// NewWithFactory creates an untrained classifier building its indexes with
// factory.
func NewWithFactory[L comparable](factory index.Factory[L], opts ...Option) *Classifier[L] {
	c := &Classifier[L]{opts: newOptions(opts), factory: factory}
	if factory == nil {
		c.factoryErr = fmt.Errorf("knn: index factory is nil")
	}
	return c
}

func resolveFactory[L comparable](o options) (index.Factory[L], error) {
	switch o.indexKind {
	case IndexCover, "":
		return cover.Factory[L](o.cover...), nil
	case IndexVPTree:
		return vptree.Factory[L](), nil
	case IndexBruteForce:
		return bruteforce.Factory[L](), nil
	default:
		return nil, fmt.Errorf("knn: unknown index kind %q", o.indexKind)
	}
}

func (c *Classifier[L]) newIndex() (index.Index[L], error) {
	if c.factoryErr != nil {
		return nil, c.factoryErr
	}
	return c.factory(), nil
}

// Fit trains the classifier on the rows of X labeled by y, replacing any
// previous model. Index construction errors are returned as is.
func (c *Classifier[L]) Fit(X [][]float64, y []L) error {
	if len(X) != len(y) {
		return fmt.Errorf("%w: %d feature rows, %d labels", ErrLengthMismatch, len(X), len(y))
	}
	if len(X) == 0 {
		return ErrEmptyTrainingSet
	}
	if c.opts.k < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidK, c.opts.k)
	}
	idx, err := c.newIndex()
	if err != nil {
		return err
	}
	classes := uniqueLabels(y)
	k := c.opts.k
	if k == 0 {
		k = len(classes) + 1
	}
	metric := c.opts.metric
	if metric == nil {
		metric = distance.Default()
	}
	points := make([]index.Point[L], len(X))
	for i := range X {
		points[i] = index.Point[L]{Vector: slices.Clone(X[i]), Label: y[i]}
	}
	if err := idx.Build(points, metric); err != nil {
		return err
	}
	c.state = &state[L]{
		index:             idx,
		k:                 k,
		classes:           classes,
		metric:            metric,
		usesDefaultMetric: distance.IsDefault(metric),
	}
	return nil
}

// FitMatrix trains the classifier on the rows of X.
func (c *Classifier[L]) FitMatrix(X mat.Matrix, y []L) error {
	return c.Fit(matrixRows(X), y)
}

func matrixRows(X mat.Matrix) [][]float64 {
	if X == nil {
		return nil
	}
	r, _ := X.Dims()
	rows := make([][]float64, r)
	for i := range rows {
		rows[i] = mat.Row(nil, i, X)
	}
	return rows
}

// uniqueLabels returns the distinct labels in first-seen order.
func uniqueLabels[L comparable](y []L) []L {
	seen := make(map[L]struct{}, len(y))
	var out []L
	for _, label := range y {
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	return out
}

// Fitted reports whether the classifier holds a trained model.
func (c *Classifier[L]) Fitted() bool { return c.state != nil }

// K returns the number of neighbors polled per query, or 0 before training.
func (c *Classifier[L]) K() int {
	if c.state == nil {
		return 0
	}
	return c.state.k
}

// Classes returns a copy of the distinct training labels.
func (c *Classifier[L]) Classes() []L {
	if c.state == nil {
		return nil
	}
	return slices.Clone(c.state.classes)
}

// Metric returns the metric the model was built with. Before training it
// returns the configured metric.
func (c *Classifier[L]) Metric() *distance.Metric {
	if c.state != nil {
		return c.state.metric
	}
	if c.opts.metric != nil {
		return c.opts.metric
	}
	return distance.Default()
}

// UsesDefaultMetric reports whether the model was built with distance.Default().
func (c *Classifier[L]) UsesDefaultMetric() bool {
	return c.state != nil && c.state.usesDefaultMetric
}
