// Package bruteforce provides a labeled vector index that answers kNN
// queries by scanning all points. It is the reference implementation the
// tree indexes are tested against.
package bruteforce
