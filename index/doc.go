// Package index defines the spatial index contract consumed by the
// classifier: build over labeled points with a distance metric, answer kNN
// queries ordered by distance, and serialize for persistence.
// Implementations live in the bruteforce, vptree and cover subpackages and
// share one binary encoding, so any of them can restore data written by
// another.
package index
