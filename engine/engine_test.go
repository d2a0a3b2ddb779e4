package engine

import (
	"path/filepath"
	"testing"
)

// TestOpenRegistersVectorFunctions relies on Open alone to make the vec_*
// functions visible on pooled connections.
func TestOpenRegistersVectorFunctions(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "engine.sqlite"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(2)

	if _, err := db.Exec("CREATE TABLE t(id INTEGER PRIMARY KEY, embedding BLOB)"); err != nil {
		t.Fatalf("CREATE TABLE failed: %v", err)
	}
	for i, v := range [][]float32{{1, 0}, {0, 1}, {3, 4}} {
		if _, err := db.Exec("INSERT INTO t(id, embedding) VALUES (?, ?)", i+1, blob(t, v...)); err != nil {
			t.Fatalf("INSERT failed: %v", err)
		}
	}

	for _, fn := range []string{"vec_cosine", "vec_l2", "vec_dot"} {
		var n int
		if err := db.QueryRow("SELECT COUNT(*) FROM t WHERE "+fn+"(embedding, ?) IS NOT NULL", blob(t, 1, 1)).Scan(&n); err != nil {
			t.Fatalf("%s failed: %v", fn, err)
		}
		if n != 3 {
			t.Fatalf("%s matched %d rows, want 3", fn, n)
		}
	}

	var id int
	if err := db.QueryRow("SELECT id FROM t ORDER BY vec_l2(embedding, ?) LIMIT 1", blob(t, 3, 3)).Scan(&id); err != nil {
		t.Fatalf("ORDER BY vec_l2 failed: %v", err)
	}
	if id != 3 {
		t.Fatalf("nearest id = %d, want 3", id)
	}
}
