package sqlknn

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/knn/classifier"
	"github.com/viant/knn/distance"
	"github.com/viant/knn/engine"
	"github.com/viant/knn/modelstore"
	"github.com/viant/knn/vector"
)

// The driver installs the knn module on the first connection opened after
// Register, so every scenario shares one database and runs knn statements
// on that pinned connection.
var (
	testDB   *sql.DB
	testConn *sql.Conn
)

func TestMain(m *testing.M) {
	os.Exit(runWithDB(m))
}

func runWithDB(m *testing.M) int {
	dir, err := os.MkdirTemp("", "sqlknn")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer os.RemoveAll(dir)
	db, err := engine.Open(filepath.Join(dir, "knn.sqlite"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer db.Close()
	if err := Register(db); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	ctx := context.Background()
	conn, err := db.Conn(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer conn.Close()
	if _, err := conn.ExecContext(ctx, `PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;`); err != nil {
		fmt.Fprintln(os.Stderr, "PRAGMA setup failed:", err)
		return 1
	}
	testDB, testConn = db, conn
	return m.Run()
}

func saveModel(t *testing.T, name string, metric *distance.Metric, X [][]float64, y []string) {
	t.Helper()
	c := classifier.New[string](classifier.WithK(3), classifier.WithDistance(metric))
	require.NoError(t, c.Fit(X, y))
	m, err := c.Model()
	require.NoError(t, err)
	store, err := modelstore.New(context.Background(), testDB)
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), name, m))
}

func queryLabels(t *testing.T, query string, arg any) ([]string, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	rows, err := testConn.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var labels []string
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, err
		}
		labels = append(labels, label)
	}
	return labels, rows.Err()
}

func mustQueryLabels(t *testing.T, query string, arg any) []string {
	t.Helper()
	labels, err := queryLabels(t, query, arg)
	require.NoError(t, err, query)
	return labels
}

func createTable(t *testing.T, stmt string) {
	t.Helper()
	_, err := testConn.ExecContext(context.Background(), stmt)
	require.NoError(t, err, stmt)
}

var (
	trainX = [][]float64{{0, 0}, {0, 1}, {1, 0}, {10, 10}, {10, 11}, {11, 10}}
	trainY = []string{"small", "small", "small", "large", "large", "large"}
)

func TestKNNVirtualTable(t *testing.T) {
	t.Run("match forms", func(t *testing.T) {
		saveModel(t, "sizes", nil, trainX, trainY)
		createTable(t, `CREATE VIRTUAL TABLE sizes USING knn(model=sizes, distance=euclidean)`)

		assert.Equal(t, []string{"small"}, mustQueryLabels(t, `SELECT label FROM sizes WHERE label MATCH ?`, "[0.5, 0.5]"))
		assert.Equal(t, []string{"large"}, mustQueryLabels(t, `SELECT label FROM sizes WHERE label MATCH ?`, "9.5,10"))

		blob, err := vector.EncodeEmbedding([]float32{11, 11})
		require.NoError(t, err)
		assert.Equal(t, []string{"large"}, mustQueryLabels(t, `SELECT label FROM sizes WHERE label MATCH ?`, blob))

		assert.Equal(t, []string{"large", "small"}, mustQueryLabels(t, `SELECT label FROM sizes WHERE label MATCH ?`, "[[10,10],[0,0]]"))
	})

	t.Run("reloads on save", func(t *testing.T) {
		saveModel(t, "flip", nil, trainX, trainY)
		createTable(t, `CREATE VIRTUAL TABLE flip USING knn(index=brute)`)

		assert.Equal(t, []string{"small"}, mustQueryLabels(t, `SELECT label FROM flip WHERE label MATCH ?`, "[0,0]"))

		flipped := []string{"large", "large", "large", "small", "small", "small"}
		saveModel(t, "flip", nil, trainX, flipped)
		assert.Equal(t, []string{"large"}, mustQueryLabels(t, `SELECT label FROM flip WHERE label MATCH ?`, "[0,0]"))

		var dropped int64
		require.NoError(t, testConn.QueryRowContext(context.Background(), `SELECT knn_invalidate('flip')`).Scan(&dropped))
		assert.Equal(t, int64(1), dropped)
		assert.Equal(t, []string{"large"}, mustQueryLabels(t, `SELECT label FROM flip WHERE label MATCH ?`, "[0,0]"))
	})

	t.Run("metric mismatch", func(t *testing.T) {
		saveModel(t, "l1", distance.Manhattan, trainX, trainY)
		createTable(t, `CREATE VIRTUAL TABLE l1_ok USING knn(model=l1, distance=manhattan)`)
		createTable(t, `CREATE VIRTUAL TABLE l1_default USING knn(model=l1)`)

		assert.Equal(t, []string{"small"}, mustQueryLabels(t, `SELECT label FROM l1_ok WHERE label MATCH ?`, "[1,1]"))
		_, err := queryLabels(t, `SELECT label FROM l1_default WHERE label MATCH ?`, "[1,1]")
		assert.Error(t, err)
		assert.Equal(t, []string{"small"}, mustQueryLabels(t, `SELECT label FROM l1_ok WHERE label MATCH ?`, "[1,1]"))
	})

	t.Run("tables over one model keep their options", func(t *testing.T) {
		saveModel(t, "shared_sizes", nil, trainX, trainY)
		createTable(t, `CREATE VIRTUAL TABLE shared_brute USING knn(model=shared_sizes, index=brute)`)
		createTable(t, `CREATE VIRTUAL TABLE shared_vp USING knn(model=shared_sizes, index=vptree, parallel=2)`)

		assert.Equal(t, []string{"small", "large"}, mustQueryLabels(t, `SELECT label FROM shared_brute WHERE label MATCH ?`, "[[0,0],[10,10]]"))
		assert.Equal(t, []string{"small", "large"}, mustQueryLabels(t, `SELECT label FROM shared_vp WHERE label MATCH ?`, "[[0,0],[10,10]]"))

		var dropped int64
		require.NoError(t, testConn.QueryRowContext(context.Background(), `SELECT knn_invalidate('shared_sizes')`).Scan(&dropped))
		assert.Equal(t, int64(2), dropped)
	})

	t.Run("missing match", func(t *testing.T) {
		saveModel(t, "scan", nil, trainX, trainY)
		createTable(t, `CREATE VIRTUAL TABLE scan USING knn`)
		_, err := testConn.ExecContext(context.Background(), `SELECT label FROM scan`)
		assert.Error(t, err)
	})
}
