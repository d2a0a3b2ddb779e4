// Package vector holds the BLOB encodings shared by the SQLite layers:
//   - embeddings: little-endian float32, the format the SQL vec_* functions read
//   - features: little-endian float64, lossless for training data
//
// Neither encoding carries a length prefix; the length is derived from the
// BLOB size on decode.
package vector
