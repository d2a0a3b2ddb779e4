package sqlknn

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	sqlite "modernc.org/sqlite"
	"modernc.org/sqlite/vtab"

	"github.com/viant/knn/classifier"
	"github.com/viant/knn/internal/logging"
	"github.com/viant/knn/modelstore"
)

// Module implements vtab.Module for the knn virtual table.
type Module struct {
	mu     sync.Mutex
	db     *sql.DB
	logger *slog.Logger
	store  *modelstore.Store
}

// Table is one knn virtual table bound to a stored model.
type Table struct {
	module *Module
	dbName string
	name   string
	opts   tableOptions

	dbPathOnce sync.Once
	dbPath     string
}

// Cursor iterates the predicted labels of one MATCH.
type Cursor struct {
	table *Table
	rows  []string
	pos   int
}

// Option configures the module.
type Option func(*Module)

// WithLogger sets the logger; the default discards records.
func WithLogger(l *slog.Logger) Option {
	return func(m *Module) { m.logger = l }
}

// The driver keeps one module per name for the whole process.
var registered = struct {
	sync.Mutex
	module *Module
}{}

// Register registers the knn virtual table module and the knn_invalidate
// function. Call it before the first statement on db.
//
// The module is process wide: a later call rebinds it to that db and its
// options, and every knn table then loads models from the latest db. The
// driver creates the module only on the first connection it opens after
// registration, so pin that connection with db.Conn when knn statements
// share a pool with other work.
func Register(db *sql.DB, opts ...Option) error {
	if db == nil {
		return fmt.Errorf("knn: db is nil")
	}
	registered.Lock()
	defer registered.Unlock()
	if registered.module == nil {
		mod := &Module{}
		if err := vtab.RegisterModule(db, "knn", mod); err != nil && !strings.Contains(err.Error(), "already registered") {
			return err
		}
		registered.module = mod
		_ = sqlite.RegisterScalarFunction("knn_invalidate", 1, invalidateFunc)
	}
	registered.module.bind(db, opts)
	return nil
}

func (m *Module) bind(db *sql.DB, opts []Option) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logger = nil
	for _, opt := range opts {
		opt(m)
	}
	m.logger = logging.OrDiscard(m.logger)
	if m.db != db {
		m.db, m.store = db, nil
	}
}

// models opens the model store on first use, keeping DDL out of xCreate.
func (m *Module) models(ctx context.Context) (*modelstore.Store, *slog.Logger, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.store == nil {
		store, err := modelstore.New(ctx, m.db, modelstore.WithLogger(m.logger))
		if err != nil {
			return nil, nil, err
		}
		m.store = store
	}
	return m.store, m.logger, nil
}

func (m *Module) database() *sql.DB {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.db
}

// Create declares a knn table.
func (m *Module) Create(ctx vtab.Context, args []string) (vtab.Table, error) {
	return m.connect(ctx, args)
}

// Connect attaches to an existing knn table.
func (m *Module) Connect(ctx vtab.Context, args []string) (vtab.Table, error) {
	return m.connect(ctx, args)
}

func (m *Module) connect(ctx vtab.Context, args []string) (vtab.Table, error) {
	if len(args) < 3 {
		return nil, fmt.Errorf("knn: expects at least 3 args, got %d", len(args))
	}
	if err := ctx.EnableConstraintSupport(); err != nil {
		return nil, fmt.Errorf("knn: EnableConstraintSupport failed: %w", err)
	}
	opts, err := parseOptions(args[2], args[3:])
	if err != nil {
		return nil, err
	}
	if err := ctx.Declare(fmt.Sprintf("CREATE TABLE %s(label TEXT)", args[2])); err != nil {
		return nil, err
	}
	return &Table{module: m, dbName: args[1], name: args[2], opts: opts}, nil
}

// BestIndex pushes down MATCH on the label column.
func (t *Table) BestIndex(info *vtab.IndexInfo) error {
	for i := range info.Constraints {
		c := &info.Constraints[i]
		if !c.Usable {
			continue
		}
		if c.Column == 0 && c.Op == vtab.OpMATCH {
			c.ArgIndex = 0
			c.Omit = true
			info.IdxNum = 1
			return nil
		}
	}
	return fmt.Errorf("knn: %s requires a MATCH constraint on label", t.name)
}

// Open allocates a new cursor.
func (t *Table) Open() (vtab.Cursor, error) { return &Cursor{table: t}, nil }

// Disconnect cleans up per-connection resources.
func (t *Table) Disconnect() error { return nil }

// Destroy leaves the stored model in place.
func (t *Table) Destroy() error { return nil }

// Filter predicts the MATCH argument with the table's model.
func (c *Cursor) Filter(idxNum int, _ string, vals []vtab.Value) error {
	c.rows = nil
	c.pos = 0
	if idxNum != 1 || len(vals) == 0 || vals[0] == nil {
		return fmt.Errorf("knn: MATCH argument is required")
	}
	query, err := decodeQuery(vals[0])
	if err != nil {
		return err
	}
	ctx := context.Background()
	model, err := c.table.ensureModel(ctx)
	if err != nil {
		return err
	}
	out, err := model.PredictAny(query)
	if err != nil {
		return err
	}
	switch v := out.(type) {
	case string:
		c.rows = []string{v}
	case []string:
		c.rows = v
	}
	return nil
}

// ensureModel returns the cached classifier, reloading it when the stored
// revision moved.
func (t *Table) ensureModel(ctx context.Context) (*classifier.Classifier[string], error) {
	store, logger, err := t.module.models(ctx)
	if err != nil {
		return nil, err
	}
	rev, err := store.Revision(ctx, t.opts.model)
	if err != nil {
		return nil, err
	}
	entry := getCacheEntry(cacheKey(t.cachedDbPath(ctx), t.name, t.opts), t.opts.model)
	return entry.load(rev, func() (*classifier.Classifier[string], error) {
		m, err := store.Load(ctx, t.opts.model)
		if err != nil {
			return nil, err
		}
		model, err := classifier.Load(m, t.opts.metric, t.opts.classifierOptions()...)
		if err != nil {
			return nil, fmt.Errorf("knn: load model %q: %w", t.opts.model, err)
		}
		logger.InfoContext(ctx, "model cached", "table", t.name, "model", t.opts.model, "revision", rev, "k", model.K())
		return model, nil
	})
}

func (t *Table) cachedDbPath(ctx context.Context) string {
	t.dbPathOnce.Do(func() {
		path, err := resolveDbPath(ctx, t.module.database(), t.dbName)
		if err != nil {
			path = t.dbName
		}
		t.dbPath = path
	})
	return t.dbPath
}

func resolveDbPath(ctx context.Context, db *sql.DB, dbName string) (string, error) {
	if dbName == "" {
		dbName = "main"
	}
	rows, err := db.QueryContext(ctx, `SELECT name, file FROM pragma_database_list`)
	if err != nil {
		return "", err
	}
	defer rows.Close()
	for rows.Next() {
		var name, file string
		if err := rows.Scan(&name, &file); err != nil {
			return "", err
		}
		if name == dbName {
			if file == "" {
				return name, nil
			}
			return file, nil
		}
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	return dbName, nil
}

// Next advances the cursor.
func (c *Cursor) Next() error {
	if c.pos < len(c.rows) {
		c.pos++
	}
	return nil
}

// Eof reports end-of-rows.
func (c *Cursor) Eof() bool { return c.pos >= len(c.rows) }

// Column returns the label of the current row.
func (c *Cursor) Column(col int) (vtab.Value, error) {
	if c.pos < 0 || c.pos >= len(c.rows) {
		return nil, fmt.Errorf("knn: Column out of range (pos=%d,len=%d)", c.pos, len(c.rows))
	}
	if col == 0 {
		return c.rows[c.pos], nil
	}
	return nil, fmt.Errorf("knn: unsupported column %d", col)
}

// Rowid numbers the predictions from 1 in query order.
func (c *Cursor) Rowid() (int64, error) { return int64(c.pos + 1), nil }

// Close releases resources.
func (c *Cursor) Close() error { c.rows = nil; c.pos = 0; return nil }
