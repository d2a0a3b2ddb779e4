package cover

const defaultBase = 1.3

type options struct {
	base      float64
	bestFirst bool
}

// Option configures a cover tree index.
type Option func(*options)

// WithBase sets the expansion base of the tree levels. Values <= 1 fall back
// to the default of 1.3.
func WithBase(base float64) Option {
	return func(o *options) {
		if base > 1 {
			o.base = base
		}
	}
}

// WithBestFirst switches queries from depth-first traversal to a best-first
// search driven by a node priority queue.
func WithBestFirst(enabled bool) Option {
	return func(o *options) { o.bestFirst = enabled }
}

func newOptions(opts []Option) options {
	o := options{base: defaultBase}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
