// Package classifier implements a k-nearest-neighbors classifier on top of
// the index package.
//
// A query is labeled by majority vote among its k nearest training points.
// Neighbors are scanned nearest first and the leading class changes only
// when its count strictly exceeds the current maximum, so ties go to the
// class that reached the winning count while closer to the query.
//
// Trained models serialize to a Model value and restore with Load, which
// refuses to pair a model with a metric other than the one it was built
// with. Metrics are compared by identity, see distance.IsDefault.
//
// Predict, PredictBatch and Model only read the trained state and may be
// called concurrently. Fit and Load replace the state and must not run
// concurrently with readers.
package classifier
