package modelstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/viant/knn/classifier"
	"github.com/viant/knn/codec"
	"github.com/viant/knn/internal/logging"
)

// ErrNotFound is returned for a model name with no stored row.
var ErrNotFound = errors.New("modelstore: model not found")

const modelsSchema = `
CREATE TABLE IF NOT EXISTS knn_models (
    name       TEXT PRIMARY KEY,
    body       BLOB NOT NULL,
    k          INTEGER NOT NULL,
    classes    INTEGER NOT NULL,
    revision   INTEGER NOT NULL DEFAULT 1,
    updated_at INTEGER NOT NULL,
    dataset    TEXT NOT NULL DEFAULT '',
    dataset_revision INTEGER NOT NULL DEFAULT 0
);
`

// Info summarizes a stored model without decoding it. Dataset and
// DatasetRevision name the training data when the model was saved with
// FromDataset.
type Info struct {
	Name            string
	K               int
	Classes         int
	Revision        int64
	UpdatedAt       time.Time
	Dataset         string `json:",omitempty"`
	DatasetRevision int64  `json:",omitempty"`
}

// SaveOption annotates a saved model.
type SaveOption func(*saveOptions)

type saveOptions struct {
	dataset  string
	revision int64
}

// FromDataset records that the model was trained on dataset at revision.
func FromDataset(dataset string, revision int64) SaveOption {
	return func(o *saveOptions) { o.dataset, o.revision = dataset, revision }
}

// Store reads and writes models.
type Store struct {
	db     *sql.DB
	codec  codec.Codec
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger; the default discards records.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithCodec sets the codec used for model bodies.
func WithCodec(c codec.Codec) Option {
	return func(s *Store) { s.codec = c }
}

// New creates a Store and ensures the knn_models table.
func New(ctx context.Context, db *sql.DB, opts ...Option) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("modelstore: db is nil")
	}
	s := &Store{db: db, codec: codec.Default}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.OrDiscard(s.logger)
	if _, err := db.ExecContext(ctx, modelsSchema); err != nil {
		return nil, fmt.Errorf("modelstore: ensure schema: %w", err)
	}
	return s, nil
}

// Save stores m under name, replacing any previous model of that name.
func (s *Store) Save(ctx context.Context, name string, m *classifier.Model[string], opts ...SaveOption) error {
	if name == "" {
		return fmt.Errorf("modelstore: name is empty")
	}
	if m == nil {
		return fmt.Errorf("modelstore: model is nil")
	}
	var so saveOptions
	for _, opt := range opts {
		opt(&so)
	}
	body, err := s.codec.Marshal(m)
	if err != nil {
		return fmt.Errorf("modelstore: encode %q: %w", name, err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO knn_models(name, body, k, classes, revision, updated_at, dataset, dataset_revision)
VALUES(?, ?, ?, ?, 1, ?, ?, ?)
ON CONFLICT(name) DO UPDATE SET
    body = excluded.body,
    k = excluded.k,
    classes = excluded.classes,
    revision = knn_models.revision + 1,
    updated_at = excluded.updated_at,
    dataset = excluded.dataset,
    dataset_revision = excluded.dataset_revision`, name, body, m.K, len(m.Classes), time.Now().Unix(), so.dataset, so.revision)
	if err != nil {
		return fmt.Errorf("modelstore: save %q: %w", name, err)
	}
	s.logger.InfoContext(ctx, "model saved", "model", name, "k", m.K, "classes", len(m.Classes), "bytes", len(body), "dataset", so.dataset, "datasetRevision", so.revision)
	return nil
}

// Load returns the model stored under name.
func (s *Store) Load(ctx context.Context, name string) (*classifier.Model[string], error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, `SELECT body FROM knn_models WHERE name = ?`, name).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	m := &classifier.Model[string]{}
	if err := s.codec.Unmarshal(body, m); err != nil {
		return nil, fmt.Errorf("modelstore: decode %q: %w", name, err)
	}
	s.logger.DebugContext(ctx, "model loaded", "model", name, "bytes", len(body))
	return m, nil
}

// Revision returns the save counter of name.
func (s *Store) Revision(ctx context.Context, name string) (int64, error) {
	var rev int64
	err := s.db.QueryRowContext(ctx, `SELECT revision FROM knn_models WHERE name = ?`, name).Scan(&rev)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return rev, err
}

// Info describes the model stored under name.
func (s *Store) Info(ctx context.Context, name string) (Info, error) {
	row := s.db.QueryRowContext(ctx, `SELECT name, k, classes, revision, updated_at, dataset, dataset_revision FROM knn_models WHERE name = ?`, name)
	info, err := scanInfo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Info{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return info, err
}

// List describes every stored model ordered by name.
func (s *Store) List(ctx context.Context) ([]Info, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, k, classes, revision, updated_at, dataset, dataset_revision FROM knn_models ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Info
	for rows.Next() {
		info, err := scanInfo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// Delete removes the model stored under name.
func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM knn_models WHERE name = ?`, name)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	s.logger.InfoContext(ctx, "model deleted", "model", name)
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInfo(row scanner) (Info, error) {
	var (
		info    Info
		updated int64
	)
	if err := row.Scan(&info.Name, &info.K, &info.Classes, &info.Revision, &updated, &info.Dataset, &info.DatasetRevision); err != nil {
		return Info{}, err
	}
	info.UpdatedAt = time.Unix(updated, 0)
	return info, nil
}
