// Package sqlknn exposes stored KNN models to SQL through the knn virtual
// table:
//
//	CREATE VIRTUAL TABLE iris USING knn(model=iris, distance=euclidean);
//	SELECT label FROM iris WHERE label MATCH ?;
//
// The MATCH argument is a float32 embedding BLOB, or TEXT holding a JSON
// vector, a JSON matrix, a base64 embedding or a comma separated list. A
// matrix yields one row per query row. Models load lazily from knn_models
// and stay cached per database file until their revision changes or
// knn_invalidate(model) is called.
package sqlknn
