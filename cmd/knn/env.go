package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/viant/knn/config"
	"github.com/viant/knn/engine"
	"github.com/viant/knn/internal/logging"
	"github.com/viant/knn/sqlknn"
)

// env is the per-invocation state shared by the commands.
type env struct {
	cmd     *cobra.Command
	cfg     *config.Config
	logger  *slog.Logger
	jsonOut bool
}

func newEnv(cmd *cobra.Command) (*env, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		cfg.Storage.DSN = db
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger, err := logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	jsonOut, _ := cmd.Flags().GetBool("json")
	return &env{cmd: cmd, cfg: cfg, logger: logger, jsonOut: jsonOut}, nil
}

// openDB opens storage.dsn with the knn virtual table registered.
func (e *env) openDB() (*sql.DB, error) {
	db, err := engine.Open(e.cfg.Storage.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", e.cfg.Storage.DSN, err)
	}
	if err := sqlknn.Register(db, sqlknn.WithLogger(e.logger)); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// print writes v as JSON with --json, otherwise the text from format.
func (e *env) print(v any, format string, args ...any) error {
	if e.jsonOut {
		enc := json.NewEncoder(e.cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprintf(e.cmd.OutOrStdout(), format, args...)
	return err
}

// datasetName returns --dataset or storage.dataset.
func (e *env) datasetName() string {
	if name, _ := e.cmd.Flags().GetString("dataset"); name != "" {
		return name
	}
	return e.cfg.Storage.Dataset
}
