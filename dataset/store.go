package dataset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/viant/knn/internal/logging"
	"github.com/viant/knn/vector"
)

// ErrDimMismatch is returned when a sample's feature count differs from the
// rest of its dataset.
var ErrDimMismatch = errors.New("dataset: feature dimension mismatch")

// Sample is one labeled feature vector.
type Sample struct {
	ID       string
	Label    string
	Features []float64
}

// Neighbor is a sample and its embedding distance to a query.
type Neighbor struct {
	Sample
	Distance float64
}

// Store persists samples in the samples table.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger; the default discards records.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New creates a Store and ensures its schema. db should come from
// engine.Open so Nearest can use vec_l2.
func New(ctx context.Context, db *sql.DB, opts ...Option) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("dataset: db is nil")
	}
	s := &Store{db: db}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.OrDiscard(s.logger)
	if err := EnsureSchema(ctx, db); err != nil {
		return nil, fmt.Errorf("dataset: ensure schema: %w", err)
	}
	return s, nil
}

// AddSamples inserts samples into dataset in one transaction and returns
// their ids. Samples without an ID get a random UUID.
func (s *Store) AddSamples(ctx context.Context, dataset string, samples []Sample) ([]string, error) {
	if dataset == "" {
		return nil, fmt.Errorf("dataset: name is empty")
	}
	if len(samples) == 0 {
		return nil, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	dim, err := datasetDim(ctx, tx, dataset)
	if err != nil {
		return nil, err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO samples(id, dataset, label, features, embedding) VALUES(?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	ids := make([]string, 0, len(samples))
	for i, sample := range samples {
		if len(sample.Features) == 0 {
			return nil, fmt.Errorf("dataset: sample %d has no features", i)
		}
		if dim == 0 {
			dim = len(sample.Features)
		}
		if len(sample.Features) != dim {
			return nil, fmt.Errorf("%w: sample %d has %d features, dataset %q has %d", ErrDimMismatch, i, len(sample.Features), dataset, dim)
		}
		id := sample.ID
		if id == "" {
			id = uuid.NewString()
		}
		features, err := vector.EncodeFeatures(sample.Features)
		if err != nil {
			return nil, err
		}
		embedding, err := vector.EncodeEmbedding(vector.Float32s(sample.Features))
		if err != nil {
			return nil, err
		}
		if _, err := stmt.ExecContext(ctx, id, dataset, sample.Label, features, embedding); err != nil {
			return nil, fmt.Errorf("dataset: insert sample %q: %w", id, err)
		}
		ids = append(ids, id)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	s.logger.DebugContext(ctx, "samples added", "dataset", dataset, "count", len(ids), "dimension", dim)
	return ids, nil
}

func datasetDim(ctx context.Context, tx *sql.Tx, dataset string) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx, `SELECT length(features) / 8 FROM samples WHERE dataset = ? LIMIT 1`, dataset).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return n, err
}

// Samples returns every sample of dataset in insertion order.
func (s *Store) Samples(ctx context.Context, dataset string) ([]Sample, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, label, features FROM samples WHERE dataset = ? ORDER BY rowid`, dataset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Sample
	for rows.Next() {
		var (
			sample Sample
			blob   []byte
		)
		if err := rows.Scan(&sample.ID, &sample.Label, &blob); err != nil {
			return nil, err
		}
		if sample.Features, err = vector.DecodeFeatures(blob); err != nil {
			return nil, fmt.Errorf("dataset: sample %q: %w", sample.ID, err)
		}
		out = append(out, sample)
	}
	return out, rows.Err()
}

// Load returns the features and labels of dataset in insertion order, ready
// for classifier.Fit.
func (s *Store) Load(ctx context.Context, dataset string) ([][]float64, []string, error) {
	samples, err := s.Samples(ctx, dataset)
	if err != nil {
		return nil, nil, err
	}
	X := make([][]float64, len(samples))
	y := make([]string, len(samples))
	for i, sample := range samples {
		X[i], y[i] = sample.Features, sample.Label
	}
	s.logger.DebugContext(ctx, "dataset loaded", "dataset", dataset, "count", len(samples))
	return X, y, nil
}

// Count returns the number of samples in dataset.
func (s *Store) Count(ctx context.Context, dataset string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM samples WHERE dataset = ?`, dataset).Scan(&n)
	return n, err
}

// Datasets lists the dataset names holding samples.
func (s *Store) Datasets(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT dataset FROM samples ORDER BY dataset`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// Revision returns the change counter of dataset, 0 if it was never written.
func (s *Store) Revision(ctx context.Context, dataset string) (int64, error) {
	var rev int64
	err := s.db.QueryRowContext(ctx, `SELECT revision FROM sample_revisions WHERE dataset = ?`, dataset).Scan(&rev)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return rev, err
}

// Remove deletes a sample by id from dataset.
func (s *Store) Remove(ctx context.Context, dataset, id string) error {
	if id == "" {
		return fmt.Errorf("dataset: Remove called with empty id")
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM samples WHERE dataset = ? AND id = ?`, dataset, id)
	return err
}

// Nearest returns up to k samples of dataset closest to query by vec_l2 over
// the float32 embeddings, ties broken by insertion order.
func (s *Store) Nearest(ctx context.Context, dataset string, query []float64, k int) ([]Neighbor, error) {
	if k <= 0 {
		return nil, nil
	}
	q, err := vector.EncodeEmbedding(vector.Float32s(query))
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, label, features, vec_l2(embedding, ?) AS d
FROM samples WHERE dataset = ? ORDER BY d, rowid LIMIT ?`, q, dataset, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Neighbor
	for rows.Next() {
		var (
			n    Neighbor
			blob []byte
		)
		if err := rows.Scan(&n.ID, &n.Label, &blob, &n.Distance); err != nil {
			return nil, err
		}
		if n.Features, err = vector.DecodeFeatures(blob); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	s.logger.DebugContext(ctx, "nearest samples", "dataset", dataset, "k", k, "results", len(out))
	return out, nil
}
