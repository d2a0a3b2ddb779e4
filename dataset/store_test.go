package dataset

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/knn/engine"
)

func openStore(t *testing.T) (*Store, *sql.DB) {
	t.Helper()
	db, err := engine.Open(filepath.Join(t.TempDir(), "dataset.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	store, err := New(context.Background(), db)
	require.NoError(t, err)
	return store, db
}

func TestStore_AddLoadCount(t *testing.T) {
	ctx := context.Background()
	store, _ := openStore(t)

	ids, err := store.AddSamples(ctx, "iris", []Sample{
		{ID: "s1", Label: "setosa", Features: []float64{5.1, 3.5, 1.4, 0.2}},
		{Label: "virginica", Features: []float64{6.3, 3.3, 6.0, 2.5}},
		{Label: "setosa", Features: []float64{4.9, 3.0, 1.4, 0.2}},
	})
	require.NoError(t, err)
	require.Len(t, ids, 3)
	assert.Equal(t, "s1", ids[0])
	assert.Len(t, ids[1], 36)
	assert.NotEqual(t, ids[1], ids[2])

	X, y, err := store.Load(ctx, "iris")
	require.NoError(t, err)
	assert.Equal(t, []string{"setosa", "virginica", "setosa"}, y)
	assert.Equal(t, []float64{6.3, 3.3, 6.0, 2.5}, X[1])

	n, err := store.Count(ctx, "iris")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = store.Count(ctx, "other")
	require.NoError(t, err)
	assert.Zero(t, n)

	names, err := store.Datasets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"iris"}, names)
}

func TestStore_AddErrors(t *testing.T) {
	ctx := context.Background()
	store, _ := openStore(t)

	_, err := store.AddSamples(ctx, "", []Sample{{Label: "a", Features: []float64{1}}})
	assert.Error(t, err)

	_, err = store.AddSamples(ctx, "d", []Sample{{Label: "a"}})
	assert.Error(t, err)

	_, err = store.AddSamples(ctx, "d", []Sample{
		{Label: "a", Features: []float64{1, 2}},
		{Label: "b", Features: []float64{1}},
	})
	assert.ErrorIs(t, err, ErrDimMismatch)

	// the failed batch is rolled back
	n, err := store.Count(ctx, "d")
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = store.AddSamples(ctx, "d", []Sample{{Label: "a", Features: []float64{1, 2}}})
	require.NoError(t, err)
	_, err = store.AddSamples(ctx, "d", []Sample{{Label: "a", Features: []float64{1, 2, 3}}})
	assert.ErrorIs(t, err, ErrDimMismatch)

	_, err = store.AddSamples(ctx, "d", []Sample{{ID: "dup", Label: "a", Features: []float64{1, 2}}})
	require.NoError(t, err)
	_, err = store.AddSamples(ctx, "d", []Sample{{ID: "dup", Label: "a", Features: []float64{1, 2}}})
	assert.Error(t, err)
}

func TestStore_RemoveAndRevision(t *testing.T) {
	ctx := context.Background()
	store, _ := openStore(t)

	rev, err := store.Revision(ctx, "d")
	require.NoError(t, err)
	assert.Zero(t, rev)

	_, err = store.AddSamples(ctx, "d", []Sample{
		{ID: "a", Label: "x", Features: []float64{0}},
		{ID: "b", Label: "y", Features: []float64{1}},
	})
	require.NoError(t, err)
	afterAdd, err := store.Revision(ctx, "d")
	require.NoError(t, err)
	assert.Equal(t, int64(2), afterAdd)

	require.NoError(t, store.Remove(ctx, "d", "a"))
	afterRemove, err := store.Revision(ctx, "d")
	require.NoError(t, err)
	assert.Greater(t, afterRemove, afterAdd)

	_, y, err := store.Load(ctx, "d")
	require.NoError(t, err)
	assert.Equal(t, []string{"y"}, y)

	assert.Error(t, store.Remove(ctx, "d", ""))
}

func TestStore_Nearest(t *testing.T) {
	ctx := context.Background()
	store, _ := openStore(t)

	_, err := store.AddSamples(ctx, "pts", []Sample{
		{ID: "far", Label: "B", Features: []float64{10, 10}},
		{ID: "near", Label: "A", Features: []float64{1, 0}},
		{ID: "tie", Label: "A", Features: []float64{0, 1}},
		{ID: "mid", Label: "B", Features: []float64{3, 4}},
	})
	require.NoError(t, err)

	got, err := store.Nearest(ctx, "pts", []float64{0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "near", got[0].ID)
	assert.Equal(t, "tie", got[1].ID)
	assert.Equal(t, "mid", got[2].ID)
	assert.InDelta(t, 5.0, got[2].Distance, 1e-6)
	assert.Equal(t, []float64{3, 4}, got[2].Features)

	got, err = store.Nearest(ctx, "pts", []float64{0, 0}, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}
