package dataset

import (
	"context"
	"database/sql"
	"fmt"
)

const samplesSchema = `
CREATE TABLE IF NOT EXISTS samples (
    id        TEXT PRIMARY KEY,
    dataset   TEXT NOT NULL,
    label     TEXT NOT NULL,
    features  BLOB NOT NULL,
    embedding BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS samples_dataset ON samples(dataset);
CREATE TABLE IF NOT EXISTS sample_revisions (
    dataset  TEXT PRIMARY KEY,
    revision INTEGER NOT NULL
);
`

// EnsureSchema creates the samples and sample_revisions tables and the
// revision triggers if they do not already exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, samplesSchema); err != nil {
		return err
	}
	for _, stmt := range revisionTriggers("samples") {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// revisionTriggers returns AFTER INSERT/UPDATE/DELETE triggers advancing
// sample_revisions for every dataset a row change touches.
func revisionTriggers(table string) []string {
	advance := func(alias string) string {
		return fmt.Sprintf(`INSERT INTO sample_revisions(dataset, revision)
    VALUES (%s.dataset, 1)
    ON CONFLICT(dataset) DO UPDATE SET revision = revision + 1;`, alias)
	}
	insertTrig := fmt.Sprintf(`CREATE TRIGGER IF NOT EXISTS %[1]s_ai AFTER INSERT ON %[1]s
BEGIN
    %[2]s
END;`, table, advance("NEW"))
	updateTrig := fmt.Sprintf(`CREATE TRIGGER IF NOT EXISTS %[1]s_au AFTER UPDATE ON %[1]s
BEGIN
    %[2]s
    %[3]s
END;`, table, advance("NEW"), advance("OLD"))
	deleteTrig := fmt.Sprintf(`CREATE TRIGGER IF NOT EXISTS %[1]s_ad AFTER DELETE ON %[1]s
BEGIN
    %[2]s
END;`, table, advance("OLD"))
	return []string{insertTrig, updateTrig, deleteTrig}
}
