package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/viant/knn/codec"
	"github.com/viant/knn/dataset"
)

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import labeled samples from CSV (label in the last column)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			samples, err := readCSVFile(args[0])
			if err != nil {
				return err
			}
			db, err := e.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := cmd.Context()
			store, err := dataset.New(ctx, db, dataset.WithLogger(e.logger))
			if err != nil {
				return err
			}
			name := e.datasetName()
			ids, err := store.AddSamples(ctx, name, samples)
			if err != nil {
				return err
			}
			total, err := store.Count(ctx, name)
			if err != nil {
				return err
			}
			e.logger.Info("samples imported", "dataset", name, "file", args[0], "count", len(ids))
			return e.print(map[string]any{"dataset": name, "imported": len(ids), "total": total},
				"Imported %d samples into %q (%d total)\n", len(ids), name, total)
		},
	}
	cmd.Flags().String("dataset", "", "Dataset name (default storage.dataset)")
	return cmd
}

func readCSVFile(path string) ([]dataset.Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	samples, err := dataset.ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("%s: no samples", path)
	}
	return samples, nil
}

func newNeighborsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "neighbors <json-vector>",
		Short: "List the samples nearest to a vector",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			var query []float64
			if err := codec.Default.Unmarshal([]byte(args[0]), &query); err != nil {
				return fmt.Errorf("invalid vector %q: %w", args[0], err)
			}
			k, _ := cmd.Flags().GetInt("k")

			db, err := e.openDB()
			if err != nil {
				return err
			}
			defer db.Close()
			ctx := cmd.Context()
			store, err := dataset.New(ctx, db, dataset.WithLogger(e.logger))
			if err != nil {
				return err
			}
			neighbors, err := store.Nearest(ctx, e.datasetName(), query, k)
			if err != nil {
				return err
			}
			if e.jsonOut {
				return e.print(neighbors, "")
			}
			for _, n := range neighbors {
				if err := e.print(nil, "%s\t%s\t%.6g\t%v\n", n.ID, n.Label, n.Distance, n.Features); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().String("dataset", "", "Dataset name (default storage.dataset)")
	cmd.Flags().Int("k", 5, "Number of neighbors")
	return cmd
}
