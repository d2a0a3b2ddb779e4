package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ReadCSV parses samples from CSV rows of numeric features followed by the
// label in the last column. A first row whose feature columns are not all
// numeric is taken as a header and skipped. Lines starting with # are
// ignored.
func ReadCSV(r io.Reader) ([]Sample, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.TrimLeadingSpace = true

	var out []Sample
	for line := 1; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("dataset: csv: %w", err)
		}
		if len(rec) < 2 {
			return nil, fmt.Errorf("dataset: csv line %d: want features and a label, got %d columns", line, len(rec))
		}
		features, err := parseFeatures(rec[:len(rec)-1])
		if err != nil {
			if line == 1 {
				continue
			}
			return nil, fmt.Errorf("dataset: csv line %d: %w", line, err)
		}
		out = append(out, Sample{Label: strings.TrimSpace(rec[len(rec)-1]), Features: features})
	}
}

func parseFeatures(cols []string) ([]float64, error) {
	out := make([]float64, len(cols))
	for i, col := range cols {
		v, err := strconv.ParseFloat(strings.TrimSpace(col), 64)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", i+1, err)
		}
		out[i] = v
	}
	return out, nil
}
