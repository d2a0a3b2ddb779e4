package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/viant/knn/classifier"
	"github.com/viant/knn/codec"
	"github.com/viant/knn/dataset"
	"github.com/viant/knn/distance"
	"github.com/viant/knn/modelstore"
)

func newTrainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a model from a dataset or a CSV file",
		Long: `train fits a KNN classifier with the classifier section of the
configuration. Samples come from --csv when given, otherwise from the
dataset. The model is stored under --model (default: the dataset name)
and, with --out, also written as JSON.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			db, err := e.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := cmd.Context()
			name := e.datasetName()
			X, y, source, saveOpts, err := trainingData(ctx, e, db, name)
			if err != nil {
				return err
			}

			started := time.Now()
			c := classifier.New[string](e.cfg.ClassifierOptions()...)
			if err := c.Fit(X, y); err != nil {
				return err
			}
			m, err := c.Model()
			if err != nil {
				return err
			}
			e.logger.Info("model trained", "source", source, "samples", len(X), "k", c.K(), "classes", len(c.Classes()), "index", e.cfg.Classifier.Index, "elapsed", time.Since(started))

			modelName, _ := cmd.Flags().GetString("model")
			if modelName == "" {
				modelName = name
			}
			models, err := modelstore.New(ctx, db, modelstore.WithLogger(e.logger))
			if err != nil {
				return err
			}
			if err := models.Save(ctx, modelName, m, saveOpts...); err != nil {
				return err
			}
			if out, _ := cmd.Flags().GetString("out"); out != "" {
				data, err := codec.Default.Marshal(m)
				if err != nil {
					return err
				}
				if err := os.WriteFile(out, data, 0o644); err != nil {
					return fmt.Errorf("failed to write %s: %w", out, err)
				}
			}
			return e.print(map[string]any{
				"model":   modelName,
				"samples": len(X),
				"k":       c.K(),
				"classes": c.Classes(),
			}, "Trained %q on %d samples (k=%d, %d classes)\n", modelName, len(X), c.K(), len(c.Classes()))
		},
	}
	cmd.Flags().String("dataset", "", "Dataset name (default storage.dataset)")
	cmd.Flags().String("csv", "", "Train from a CSV file instead of the dataset")
	cmd.Flags().String("model", "", "Model name in the store (default: dataset name)")
	cmd.Flags().String("out", "", "Also write the model JSON to this file")
	return cmd
}

// trainingData reads --csv or the dataset. Dataset-sourced models are saved
// with the dataset revision read before the samples, so a concurrent write
// marks the model stale rather than hiding.
func trainingData(ctx context.Context, e *env, db *sql.DB, name string) ([][]float64, []string, string, []modelstore.SaveOption, error) {
	if path, _ := e.cmd.Flags().GetString("csv"); path != "" {
		samples, err := readCSVFile(path)
		if err != nil {
			return nil, nil, "", nil, err
		}
		X := make([][]float64, len(samples))
		y := make([]string, len(samples))
		for i, s := range samples {
			X[i], y[i] = s.Features, s.Label
		}
		return X, y, path, nil, nil
	}
	store, err := dataset.New(ctx, db, dataset.WithLogger(e.logger))
	if err != nil {
		return nil, nil, "", nil, err
	}
	rev, err := store.Revision(ctx, name)
	if err != nil {
		return nil, nil, "", nil, err
	}
	X, y, err := store.Load(ctx, name)
	if err != nil {
		return nil, nil, "", nil, err
	}
	if len(X) == 0 {
		return nil, nil, "", nil, fmt.Errorf("dataset %q is empty", name)
	}
	return X, y, "dataset:" + name, []modelstore.SaveOption{modelstore.FromDataset(name, rev)}, nil
}

// loadModel reads --file when given, otherwise the stored model --model.
func loadModel(ctx context.Context, e *env) (*classifier.Model[string], string, error) {
	if path, _ := e.cmd.Flags().GetString("file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, "", err
		}
		m := &classifier.Model[string]{}
		if err := codec.Default.Unmarshal(data, m); err != nil {
			return nil, "", fmt.Errorf("%s: %w", path, err)
		}
		return m, path, nil
	}
	name, _ := e.cmd.Flags().GetString("model")
	if name == "" {
		name = e.cfg.Storage.Dataset
	}
	db, err := e.openDB()
	if err != nil {
		return nil, "", err
	}
	defer db.Close()
	models, err := modelstore.New(ctx, db, modelstore.WithLogger(e.logger))
	if err != nil {
		return nil, "", err
	}
	m, err := models.Load(ctx, name)
	if err != nil {
		return nil, "", err
	}
	return m, name, nil
}

func newPredictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict <json>",
		Short: "Predict the label of a JSON vector or each row of a JSON matrix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			var input any
			if err := codec.Default.Unmarshal([]byte(args[0]), &input); err != nil {
				return fmt.Errorf("%w: %v", classifier.ErrInvalidInput, err)
			}
			metric, err := e.cfg.Metric()
			if err != nil {
				return err
			}
			if name, _ := cmd.Flags().GetString("distance"); name != "" {
				var ok bool
				if metric, ok = distance.ByName(name); !ok {
					return fmt.Errorf("unknown distance %q", name)
				}
			}
			m, source, err := loadModel(cmd.Context(), e)
			if err != nil {
				return err
			}
			c, err := classifier.Load(m, metric, e.cfg.ClassifierOptions()...)
			if err != nil {
				var verr *classifier.ValidationError
				if errors.As(err, &verr) && verr.Field == "usesDefaultMetric" {
					return fmt.Errorf("%s: %w (pass --distance with the training metric)", source, err)
				}
				return fmt.Errorf("%s: %w", source, err)
			}
			out, err := c.PredictAny(input)
			if err != nil {
				return err
			}
			return e.print(map[string]any{"prediction": out}, "%v\n", out)
		},
	}
	cmd.Flags().String("model", "", "Stored model name (default storage.dataset)")
	cmd.Flags().String("file", "", "Model JSON file instead of the store")
	cmd.Flags().String("distance", "", "Metric the model was trained with (default classifier.distance)")
	return cmd
}

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [model]",
		Short: "Describe stored models, or one model",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if path, _ := cmd.Flags().GetString("file"); path != "" {
				m, _, err := loadModel(ctx, e)
				if err != nil {
					return err
				}
				return e.print(map[string]any{
					"name":              m.Name,
					"k":                 m.K,
					"classes":           m.Classes,
					"usesDefaultMetric": m.UsesDefaultMetric,
					"indexBytes":        len(m.Index),
				}, "%s: k=%d classes=%v default-metric=%t index=%dB\n", path, m.K, m.Classes, m.UsesDefaultMetric, len(m.Index))
			}

			db, err := e.openDB()
			if err != nil {
				return err
			}
			defer db.Close()
			models, err := modelstore.New(ctx, db, modelstore.WithLogger(e.logger))
			if err != nil {
				return err
			}
			var infos []modelstore.Info
			if len(args) == 1 {
				info, err := models.Info(ctx, args[0])
				if err != nil {
					return err
				}
				infos = append(infos, info)
			} else if infos, err = models.List(ctx); err != nil {
				return err
			}
			views, err := modelViews(ctx, e, db, infos)
			if err != nil {
				return err
			}
			if e.jsonOut {
				return e.print(views, "")
			}
			if len(views) == 0 {
				return e.print(nil, "No models stored in %s\n", e.cfg.Storage.DSN)
			}
			for _, v := range views {
				line := fmt.Sprintf("%s\tk=%d\tclasses=%d\trevision=%d\tupdated=%s",
					v.Name, v.K, v.Classes, v.Revision, v.UpdatedAt.Format(time.RFC3339))
				if v.Dataset != "" {
					line += fmt.Sprintf("\tdataset=%s@%d", v.Dataset, v.DatasetRevision)
				}
				if v.Stale {
					line += fmt.Sprintf("\tstale (dataset at %d)", v.CurrentRevision)
				}
				if err := e.print(nil, "%s\n", line); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().String("file", "", "Inspect a model JSON file instead of the store")
	return cmd
}

// modelView is a stored model with the current state of its training data.
type modelView struct {
	modelstore.Info
	CurrentRevision int64 `json:",omitempty"`
	Stale           bool
}

func modelViews(ctx context.Context, e *env, db *sql.DB, infos []modelstore.Info) ([]modelView, error) {
	views := make([]modelView, len(infos))
	var samples *dataset.Store
	for i, info := range infos {
		views[i].Info = info
		if info.Dataset == "" {
			continue
		}
		if samples == nil {
			var err error
			if samples, err = dataset.New(ctx, db, dataset.WithLogger(e.logger)); err != nil {
				return nil, err
			}
		}
		rev, err := samples.Revision(ctx, info.Dataset)
		if err != nil {
			return nil, err
		}
		views[i].CurrentRevision = rev
		views[i].Stale = rev != info.DatasetRevision
	}
	return views, nil
}
