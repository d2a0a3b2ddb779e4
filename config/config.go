// Package config loads the YAML configuration shared by the knn command.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/viant/knn/classifier"
	"github.com/viant/knn/distance"
	"github.com/viant/knn/index/cover"
	"github.com/viant/knn/internal/logging"
)

// Config is the knn configuration file.
type Config struct {
	Classifier ClassifierConfig `yaml:"classifier"`
	Cover      CoverConfig      `yaml:"cover"`
	Storage    StorageConfig    `yaml:"storage"`
	Log        LogConfig        `yaml:"log"`
}

// ClassifierConfig selects k, the distance, the index and batch parallelism.
// K of zero keeps the classifier default.
type ClassifierConfig struct {
	K           int    `yaml:"k"`
	Distance    string `yaml:"distance"`
	Index       string `yaml:"index"`
	Parallelism int    `yaml:"parallelism"`
}

// CoverConfig tunes the cover tree index.
type CoverConfig struct {
	Base      float64 `yaml:"base"`
	BestFirst bool    `yaml:"best_first"`
}

// StorageConfig names the SQLite database and the default dataset.
type StorageConfig struct {
	DSN     string `yaml:"dsn"`
	Dataset string `yaml:"dataset"`
}

// LogConfig sets the slog level and the text or json handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Classifier: ClassifierConfig{
			Distance:    distance.Default().Name(),
			Index:       classifier.IndexCover,
			Parallelism: 1,
		},
		Cover: CoverConfig{
			Base: 1.3,
		},
		Storage: StorageConfig{
			DSN:     "knn.sqlite",
			Dataset: "default",
		},
		Log: LogConfig{
			Level:  "info",
			Format: logging.FormatText,
		},
	}
}

// Load reads path over DefaultConfig and applies KNN_* environment
// overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	applyEnvironment(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvironment(cfg *Config) {
	if v := os.Getenv("KNN_K"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Classifier.K = n
		}
	}
	if v := os.Getenv("KNN_DISTANCE"); v != "" {
		cfg.Classifier.Distance = v
	}
	if v := os.Getenv("KNN_INDEX"); v != "" {
		cfg.Classifier.Index = v
	}
	if v := os.Getenv("KNN_DB"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("KNN_DATASET"); v != "" {
		cfg.Storage.Dataset = v
	}
	if v := os.Getenv("KNN_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("KNN_LOG_FORMAT"); v != "" {
		cfg.Log.Format = strings.ToLower(v)
	}
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Classifier.K < 0 {
		errs = append(errs, fmt.Errorf("classifier.k must not be negative, got %d", c.Classifier.K))
	}
	if _, err := c.Metric(); err != nil {
		errs = append(errs, err)
	}
	switch c.Classifier.Index {
	case classifier.IndexCover, classifier.IndexVPTree, classifier.IndexBruteForce:
	default:
		errs = append(errs, fmt.Errorf("classifier.index %q is not one of cover, vptree, brute", c.Classifier.Index))
	}
	if c.Classifier.Parallelism < 0 {
		errs = append(errs, fmt.Errorf("classifier.parallelism must not be negative, got %d", c.Classifier.Parallelism))
	}
	if c.Cover.Base != 0 && c.Cover.Base <= 1 {
		errs = append(errs, fmt.Errorf("cover.base must be greater than 1, got %v", c.Cover.Base))
	}
	if c.Storage.DSN == "" {
		errs = append(errs, errors.New("storage.dsn is empty"))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case logging.FormatText, logging.FormatJSON, "":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not one of text, json", c.Log.Format))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// Metric resolves classifier.distance.
func (c *Config) Metric() (*distance.Metric, error) {
	name := strings.ToLower(c.Classifier.Distance)
	if name == "" {
		return distance.Default(), nil
	}
	m, ok := distance.ByName(name)
	if !ok {
		return nil, fmt.Errorf("classifier.distance %q is not registered", c.Classifier.Distance)
	}
	return m, nil
}

// ClassifierOptions converts the classifier and cover sections.
func (c *Config) ClassifierOptions() []classifier.Option {
	opts := []classifier.Option{
		classifier.WithK(c.Classifier.K),
		classifier.WithIndex(c.Classifier.Index),
		classifier.WithParallelism(c.Classifier.Parallelism),
	}
	if m, err := c.Metric(); err == nil {
		opts = append(opts, classifier.WithDistance(m))
	}
	var coverOpts []cover.Option
	if c.Cover.Base > 1 {
		coverOpts = append(coverOpts, cover.WithBase(c.Cover.Base))
	}
	if c.Cover.BestFirst {
		coverOpts = append(coverOpts, cover.WithBestFirst(true))
	}
	if len(coverOpts) > 0 {
		opts = append(opts, classifier.WithCover(coverOpts...))
	}
	return opts
}

// Logger builds the logger described by the log section.
func (c *Config) Logger() (*slog.Logger, error) {
	return logging.New(os.Stderr, c.Log.Level, c.Log.Format)
}
