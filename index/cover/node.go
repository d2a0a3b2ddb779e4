package cover

import "math"

// node represents a cover-tree node.
type node struct {
	level     int32
	baseLevel float64
	pos       int // index into the indexed points
	children  []node
	radius    float64
}

func newNode(pos int, level int32, base float64) node {
	return node{
		level:     level,
		baseLevel: math.Pow(base, float64(level)),
		pos:       pos,
	}
}

type nodeItem struct {
	node       *node
	lb         float64
	centerDist float64
}

type nodeQueue []nodeItem

func (q nodeQueue) Len() int            { return len(q) }
func (q nodeQueue) Less(i, j int) bool  { return q[i].lb < q[j].lb }
func (q nodeQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *nodeQueue) Push(x interface{}) { *q = append(*q, x.(nodeItem)) }
func (q *nodeQueue) Pop() interface{} {
	old := *q
	n := len(old)
	x := old[n-1]
	*q = old[:n-1]
	return x
}
