// Package modelstore persists serialized KNN models in the knn_models
// SQLite table. Each save bumps the model revision, which readers such as
// the knn virtual table use to notice stale cached models.
package modelstore
