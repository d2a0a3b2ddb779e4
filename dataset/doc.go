// Package dataset stores labeled training samples in SQLite.
//
// Each sample keeps its features twice: losslessly as a float64 BLOB, which
// Load returns for training, and as a float32 embedding BLOB, which the
// vec_* SQL functions read. Rows are grouped by a dataset name, and every
// change bumps a per-dataset revision maintained by triggers.
package dataset
