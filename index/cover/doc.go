// Package cover provides a labeled kNN index backed by a cover tree. It is
// the default index of the classifier. Subtree radii are computed once per
// build so queries only take a read lock.
package cover
