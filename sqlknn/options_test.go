package sqlknn

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/knn/classifier"
	"github.com/viant/knn/distance"
	"github.com/viant/knn/vector"
)

func TestParseOptions(t *testing.T) {
	opts, err := parseOptions("iris", nil)
	require.NoError(t, err)
	assert.Equal(t, "iris", opts.model)
	assert.Nil(t, opts.metric)
	assert.Equal(t, classifier.IndexCover, opts.indexKind)

	opts, err = parseOptions("t", []string{" model = 'flowers' ", "distance=L1", "index=vptree", "cover_base=2", "cover_best_first=true", "parallel=4", ""})
	require.NoError(t, err)
	assert.Equal(t, "flowers", opts.model)
	assert.Same(t, distance.Manhattan, opts.metric)
	assert.Equal(t, classifier.IndexVPTree, opts.indexKind)
	assert.Equal(t, 2.0, opts.coverBase)
	assert.True(t, opts.bestFirst)
	assert.Equal(t, 4, opts.parallelism)
	assert.Len(t, opts.classifierOptions(), 3)

	for _, bad := range [][]string{{"distance=hamming"}, {"index=kd"}, {"flag"}, {"color=red"}, {"model="}} {
		_, err := parseOptions("t", bad)
		assert.Error(t, err, "%v", bad)
	}
}

func TestDecodeQuery(t *testing.T) {
	blob, err := vector.EncodeEmbedding([]float32{1.5, -2})
	require.NoError(t, err)

	got, err := decodeQuery(blob)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, -2}, got)

	got, err = decodeQuery("[1, 2.5]")
	require.NoError(t, err)
	assert.Equal(t, []any{1.0, 2.5}, got)

	got, err = decodeQuery("[[1,2],[3,4]]")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = decodeQuery(" 3, 4 ,5")
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 4, 5}, got)

	got, err = decodeQuery(base64.StdEncoding.EncodeToString(blob))
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, -2}, got)

	for _, bad := range []any{"", "[1,", "hello world", int64(3), []byte{1, 2, 3}} {
		_, err := decodeQuery(bad)
		assert.Error(t, err, "%#v", bad)
	}
}

func TestCacheEntry(t *testing.T) {
	opts := tableOptions{model: "cache-model", indexKind: classifier.IndexCover}
	entry := getCacheEntry(cacheKey("test.db", "t1", opts), opts.model)
	assert.Same(t, entry, getCacheEntry(cacheKey("test.db", "t1", opts), opts.model))

	loads := 0
	load := func() (*classifier.Classifier[string], error) {
		loads++
		c := classifier.New[string]()
		return c, c.Fit([][]float64{{0}}, []string{"a"})
	}
	first, err := entry.load(1, load)
	require.NoError(t, err)
	again, err := entry.load(1, load)
	require.NoError(t, err)
	assert.Same(t, first, again)
	assert.Equal(t, 1, loads)

	_, err = entry.load(2, load)
	require.NoError(t, err)
	assert.Equal(t, 2, loads)

	assert.Equal(t, 1, InvalidateCache("cache-model"))
	_, err = entry.load(2, load)
	require.NoError(t, err)
	assert.Equal(t, 3, loads)

	assert.Zero(t, InvalidateCache("no-such-model"))
}

func TestCacheKeySeparatesTables(t *testing.T) {
	base := tableOptions{model: "shared", indexKind: classifier.IndexCover}
	manhattan := base
	manhattan.metric = distance.Manhattan
	brute := base
	brute.indexKind = classifier.IndexBruteForce

	keys := map[string]bool{
		cacheKey("test.db", "a", base):      true,
		cacheKey("test.db", "b", base):      true,
		cacheKey("test.db", "a", manhattan): true,
		cacheKey("test.db", "a", brute):     true,
		cacheKey("other.db", "a", base):     true,
	}
	assert.Len(t, keys, 5)

	assert.Zero(t, InvalidateCache("shared"))
	for key := range keys {
		getCacheEntry(key, base.model)
	}
	assert.Equal(t, 5, InvalidateCache("shared"))
}
