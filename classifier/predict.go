package classifier

import (
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// Predict returns the majority label among the k nearest neighbors of x.
func (c *Classifier[L]) Predict(x []float64) (L, error) {
	s := c.state
	if s == nil {
		var zero L
		return zero, ErrNotFitted
	}
	return s.vote(x)
}

// PredictBatch predicts every row of X, preserving order. The first error
// aborts the batch.
func (c *Classifier[L]) PredictBatch(X [][]float64) ([]L, error) {
	s := c.state
	if s == nil {
		return nil, ErrNotFitted
	}
	out := make([]L, len(X))
	if c.opts.parallelism <= 1 || len(X) < 2 {
		for i, x := range X {
			label, err := s.vote(x)
			if err != nil {
				return nil, err
			}
			out[i] = label
		}
		return out, nil
	}
	var g errgroup.Group
	g.SetLimit(c.opts.parallelism)
	for i := range X {
		g.Go(func() error {
			label, err := s.vote(X[i])
			if err != nil {
				return err
			}
			out[i] = label
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// PredictMatrix predicts every row of X.
func (c *Classifier[L]) PredictMatrix(X mat.Matrix) ([]L, error) {
	return c.PredictBatch(matrixRows(X))
}

// vote tallies the labels of the k nearest neighbors of x. The leader only
// changes on a strictly higher count, so among tied classes the one that
// reached the count first in distance order wins.
func (s *state[L]) vote(x []float64) (L, error) {
	var leader L
	neighbors, err := s.index.Nearest(x, s.k)
	if err != nil {
		return leader, err
	}
	if len(neighbors) == 0 {
		return leader, ErrNoNeighbors
	}
	votes := make(map[L]int, len(s.classes))
	for _, class := range s.classes {
		votes[class] = 0
	}
	best := 0
	for _, n := range neighbors {
		votes[n.Label]++
		if votes[n.Label] > best {
			best = votes[n.Label]
			leader = n.Label
		}
	}
	return leader, nil
}
