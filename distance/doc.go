// Package distance defines the metrics used to build and query spatial
// indexes. Metrics are compared by identity: the pointer returned by
// Default is the canonical metric, and a different *Metric is never equal
// to it, even when it computes the same numbers.
package distance
