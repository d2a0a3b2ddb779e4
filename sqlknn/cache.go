package sqlknn

import (
	"database/sql/driver"
	"sync"

	sqlite "modernc.org/sqlite"

	"github.com/viant/knn/classifier"
)

// Models shared across connections, keyed by database path, table and table
// options.
var sharedCache = struct {
	mu    sync.Mutex
	byKey map[string]*cacheEntry
}{byKey: make(map[string]*cacheEntry)}

type cacheEntry struct {
	name     string
	mu       sync.Mutex
	model    *classifier.Classifier[string]
	revision int64
}

// load returns the cached model if it is at revision, otherwise replaces it
// with fn's result. Concurrent loads of one entry run once.
func (e *cacheEntry) load(revision int64, fn func() (*classifier.Classifier[string], error)) (*classifier.Classifier[string], error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.model != nil && e.revision == revision {
		return e.model, nil
	}
	model, err := fn()
	if err != nil {
		return nil, err
	}
	e.model, e.revision = model, revision
	return model, nil
}

func (e *cacheEntry) reset() {
	e.mu.Lock()
	e.model, e.revision = nil, 0
	e.mu.Unlock()
}

func cacheKey(dbPath, table string, opts tableOptions) string {
	return dbPath + "|" + table + "|" + opts.String()
}

// getCacheEntry returns the entry for key, creating one that caches model.
func getCacheEntry(key, model string) *cacheEntry {
	sharedCache.mu.Lock()
	defer sharedCache.mu.Unlock()
	entry := sharedCache.byKey[key]
	if entry == nil {
		entry = &cacheEntry{name: model}
		sharedCache.byKey[key] = entry
	}
	return entry
}

// InvalidateCache drops cached copies of model across databases and tables
// and returns how many were dropped.
func InvalidateCache(model string) int {
	sharedCache.mu.Lock()
	defer sharedCache.mu.Unlock()
	count := 0
	for _, entry := range sharedCache.byKey {
		if entry.name == model {
			entry.reset()
			count++
		}
	}
	return count
}

// invalidateFunc implements SQL scalar knn_invalidate(model TEXT) → INT.
func invalidateFunc(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 1 {
		return int64(0), nil
	}
	var name string
	switch v := args[0].(type) {
	case string:
		name = v
	case []byte:
		name = string(v)
	default:
		return int64(0), nil
	}
	return int64(InvalidateCache(name)), nil
}
