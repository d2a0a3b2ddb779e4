package cover

import (
	"container/heap"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/viant/knn/distance"
	"github.com/viant/knn/index"
)

// Index is a cover tree over labeled points.
type Index[L comparable] struct {
	mu     sync.RWMutex
	opts   options
	points []index.Point[L]
	dim    int
	metric *distance.Metric
	root   *node
}

// New creates an empty cover tree index.
func New[L comparable](opts ...Option) *Index[L] {
	return &Index[L]{opts: newOptions(opts)}
}

// Factory returns an index.Factory producing cover tree indexes.
func Factory[L comparable](opts ...Option) index.Factory[L] {
	return func() index.Index[L] { return New[L](opts...) }
}

// Build inserts points in order and caches subtree radii.
func (t *Index[L]) Build(points []index.Point[L], metric *distance.Metric) error {
	if metric == nil {
		return errors.New("cover: metric is nil")
	}
	dim, err := index.Dim(points)
	if err != nil {
		return fmt.Errorf("cover: %w", err)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.points = points
	t.dim = dim
	t.metric = metric
	t.root = nil
	for pos := range points {
		t.insert(pos)
	}
	if t.root != nil {
		t.computeRadius(t.root)
	}
	return nil
}

func (t *Index[L]) dist(a, b int) float64 {
	return t.metric.Distance(t.points[a].Vector, t.points[b].Vector)
}

func (t *Index[L]) insert(pos int) {
	if t.root == nil {
		root := newNode(pos, 0, t.opts.base)
		t.root = &root
		return
	}
	n := t.root
	level := int32(0)
	for {
		baseLevel := math.Pow(t.opts.base, float64(level))
		d := t.dist(pos, n.pos)
		if d < baseLevel {
			descended := false
			for i := range n.children {
				child := &n.children[i]
				if t.dist(pos, child.pos) < baseLevel {
					n = child
					level--
					descended = true
					break
				}
			}
			if !descended {
				n.children = append(n.children, newNode(pos, level-1, t.opts.base))
				return
			}
		} else {
			level++
			if level > n.level {
				newRoot := newNode(pos, level, t.opts.base)
				newRoot.children = append(newRoot.children, *t.root)
				t.root = &newRoot
				return
			}
		}
	}
}

// computeRadius stores, for every node, an upper bound of the distance to
// any of its descendants.
func (t *Index[L]) computeRadius(n *node) float64 {
	maxR := 0.0
	for i := range n.children {
		child := &n.children[i]
		r := t.dist(n.pos, child.pos) + t.computeRadius(child)
		if r > maxR {
			maxR = r
		}
	}
	n.radius = maxR
	return maxR
}

// Nearest returns the k nearest points to query.
func (t *Index[L]) Nearest(query []float64, k int) ([]index.Neighbor[L], error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.root == nil {
		return nil, nil
	}
	if len(query) != t.dim {
		return nil, fmt.Errorf("cover: query dim %d != index dim %d", len(query), t.dim)
	}
	c := index.NewCollector(k)
	if t.opts.bestFirst {
		t.bestFirst(query, c)
	} else {
		t.depthFirst(t.root, t.metric.Distance(query, t.points[t.root.pos].Vector), query, c)
	}
	return index.Resolve(t.points, c.Sorted()), nil
}

func (t *Index[L]) depthFirst(n *node, dc float64, query []float64, c *index.Collector) {
	c.Offer(n.pos, dc)
	if len(n.children) == 0 {
		return
	}
	type childDist struct {
		child *node
		dist  float64
	}
	cds := make([]childDist, 0, len(n.children))
	for i := range n.children {
		child := &n.children[i]
		cds = append(cds, childDist{child: child, dist: t.metric.Distance(query, t.points[child.pos].Vector)})
	}
	sort.Slice(cds, func(i, j int) bool { return cds[i].dist < cds[j].dist })
	prune := t.metric.Triangle()
	for _, cd := range cds {
		if prune && cd.dist-cd.child.radius > c.Radius() {
			continue
		}
		t.depthFirst(cd.child, cd.dist, query, c)
	}
}

func (t *Index[L]) bestFirst(query []float64, c *index.Collector) {
	prune := t.metric.Triangle()
	lowerBound := func(n *node, d float64) float64 {
		if !prune {
			return d
		}
		return d - n.radius
	}
	pq := &nodeQueue{}
	heap.Init(pq)
	rootDist := t.metric.Distance(query, t.points[t.root.pos].Vector)
	heap.Push(pq, nodeItem{node: t.root, lb: lowerBound(t.root, rootDist), centerDist: rootDist})
	for pq.Len() > 0 {
		top := heap.Pop(pq).(nodeItem)
		if prune && top.lb > c.Radius() {
			break
		}
		c.Offer(top.node.pos, top.centerDist)
		for i := range top.node.children {
			child := &top.node.children[i]
			cd := t.metric.Distance(query, t.points[child.pos].Vector)
			lb := lowerBound(child, cd)
			if prune && lb > c.Radius() {
				continue
			}
			heap.Push(pq, nodeItem{node: child, lb: lb, centerDist: cd})
		}
	}
}

// Len returns the number of indexed points.
func (t *Index[L]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.points)
}

// MarshalBinary encodes the points in insertion order; Restore replays the
// inserts, which rebuilds the same tree.
func (t *Index[L]) MarshalBinary() ([]byte, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return index.EncodePoints(t.points)
}

// Restore decodes points and rebuilds the tree.
func (t *Index[L]) Restore(data []byte, metric *distance.Metric) error {
	points, err := index.DecodePoints[L](data)
	if err != nil {
		return err
	}
	return t.Build(points, metric)
}

var _ index.Index[string] = (*Index[string])(nil)
