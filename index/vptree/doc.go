// Package vptree provides a labeled kNN index backed by a vantage-point
// tree. Search prunes subtrees with the triangle inequality when the metric
// supports it and visits every node otherwise.
package vptree
