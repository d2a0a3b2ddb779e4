package index

import (
	"container/heap"
	"math"
	"sort"
)

// Candidate is the position of an indexed point and its distance to a query.
type Candidate struct {
	Pos      int
	Distance float64
}

// Before orders candidates by distance, then by insertion position.
func (c Candidate) Before(o Candidate) bool {
	if c.Distance != o.Distance {
		return c.Distance < o.Distance
	}
	return c.Pos < o.Pos
}

// candidates implements heap.Interface with the worst candidate on top.
type candidates []Candidate

func (h candidates) Len() int           { return len(h) }
func (h candidates) Less(i, j int) bool { return h[j].Before(h[i]) }
func (h candidates) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *candidates) Push(x interface{}) {
	*h = append(*h, x.(Candidate))
}

func (h *candidates) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// Collector keeps the k best candidates seen so far. A non-positive k keeps
// every candidate.
type Collector struct {
	k int
	h candidates
}

// NewCollector creates a collector for k candidates.
func NewCollector(k int) *Collector {
	c := &Collector{k: k}
	if k > 0 {
		c.h = make(candidates, 0, k+1)
	}
	return c
}

// Offer adds a candidate if it beats the current worst one.
func (c *Collector) Offer(pos int, d float64) {
	cand := Candidate{Pos: pos, Distance: d}
	if c.k <= 0 || c.h.Len() < c.k {
		heap.Push(&c.h, cand)
		return
	}
	if cand.Before(c.h[0]) {
		c.h[0] = cand
		heap.Fix(&c.h, 0)
	}
}

// Full reports whether the collector holds k candidates.
func (c *Collector) Full() bool { return c.k > 0 && c.h.Len() >= c.k }

// Worst returns the distance a point must not exceed to enter the
// collector, or +Inf while it is not full.
func (c *Collector) Worst() float64 {
	if !c.Full() {
		return math.Inf(1)
	}
	return c.h[0].Distance
}

// Radius returns the pruning radius for tree searches: Worst widened by a
// small relative slack so rounding in triangle-inequality bounds never
// discards a point that ties the current worst.
func (c *Collector) Radius() float64 {
	w := c.Worst()
	return w + 1e-9*(1+math.Abs(w))
}

// Sorted returns the collected candidates nearest first.
func (c *Collector) Sorted() []Candidate {
	out := append([]Candidate(nil), c.h...)
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Resolve maps candidates to neighbors over the indexed points.
func Resolve[L comparable](points []Point[L], cands []Candidate) []Neighbor[L] {
	out := make([]Neighbor[L], len(cands))
	for i, c := range cands {
		out[i] = Neighbor[L]{Point: points[c.Pos], Distance: c.Distance}
	}
	return out
}
