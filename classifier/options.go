package classifier

import (
	"github.com/viant/knn/distance"
	"github.com/viant/knn/index/cover"
)

// Index kinds accepted by WithIndex.
const (
	IndexCover      = "cover"
	IndexVPTree     = "vptree"
	IndexBruteForce = "brute"
)

type options struct {
	k           int
	metric      *distance.Metric
	indexKind   string
	cover       []cover.Option
	parallelism int
}

// Option configures a Classifier.
type Option func(*options)

// WithK sets the number of neighbors polled per query. Zero keeps the
// default of one more than the number of classes.
func WithK(k int) Option {
	return func(o *options) { o.k = k }
}

// WithDistance sets the metric. Nil selects distance.Default().
func WithDistance(m *distance.Metric) Option {
	return func(o *options) { o.metric = m }
}

// WithIndex selects the index implementation: IndexCover (default),
// IndexVPTree or IndexBruteForce. Ignored by NewWithFactory.
func WithIndex(kind string) Option {
	return func(o *options) { o.indexKind = kind }
}

// WithCover passes options to the cover tree index.
func WithCover(opts ...cover.Option) Option {
	return func(o *options) { o.cover = append(o.cover, opts...) }
}

// WithParallelism bounds the goroutines PredictBatch fans rows out to.
// Values <= 1 predict rows sequentially.
func WithParallelism(n int) Option {
	return func(o *options) { o.parallelism = n }
}

func newOptions(opts []Option) options {
	o := options{indexKind: IndexCover, parallelism: 1}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
