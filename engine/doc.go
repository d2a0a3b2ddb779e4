// Package engine opens modernc.org/sqlite connections and registers the
// vec_* SQL scalar functions over float32 embedding BLOBs. Every SQLite
// layer of this module goes through it so they share one driver instance.
package engine
