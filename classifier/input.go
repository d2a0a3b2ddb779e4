package classifier

import (
	"encoding/json"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// PredictAny dispatches on the shape of input. A sequence whose first
// element is a number is one query and yields an L; a sequence whose first
// element is a sequence of numbers is a batch and yields a []L. Anything
// else fails with ErrInvalidInput before the index is queried. JSON-decoded
// values ([]any of float64, []any of []any) are accepted.
func (c *Classifier[L]) PredictAny(input any) (any, error) {
	vec, batch, err := parseInput(input)
	if err != nil {
		return nil, err
	}
	if batch != nil {
		labels, err := c.PredictBatch(batch)
		if err != nil {
			return nil, err
		}
		return labels, nil
	}
	label, err := c.Predict(vec)
	if err != nil {
		return nil, err
	}
	return label, nil
}

func invalidInput(input any) error {
	return fmt.Errorf("%w: got %T", ErrInvalidInput, input)
}

// parseInput returns either a single vector or a batch.
func parseInput(input any) ([]float64, [][]float64, error) {
	switch v := input.(type) {
	case []float64:
		if len(v) == 0 {
			return nil, nil, invalidInput(input)
		}
		return v, nil, nil
	case []float32:
		if len(v) == 0 {
			return nil, nil, invalidInput(input)
		}
		return float32s(v), nil, nil
	case []int:
		if len(v) == 0 {
			return nil, nil, invalidInput(input)
		}
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out, nil, nil
	case [][]float64:
		if len(v) == 0 || len(v[0]) == 0 {
			return nil, nil, invalidInput(input)
		}
		return nil, v, nil
	case [][]float32:
		if len(v) == 0 || len(v[0]) == 0 {
			return nil, nil, invalidInput(input)
		}
		out := make([][]float64, len(v))
		for i, row := range v {
			out[i] = float32s(row)
		}
		return nil, out, nil
	case mat.Matrix:
		if r, c := v.Dims(); r == 0 || c == 0 {
			return nil, nil, invalidInput(input)
		}
		return nil, matrixRows(v), nil
	case []any:
		return parseAny(v)
	default:
		return nil, nil, invalidInput(input)
	}
}

func parseAny(v []any) ([]float64, [][]float64, error) {
	if len(v) == 0 {
		return nil, nil, invalidInput(v)
	}
	if _, ok := number(v[0]); ok {
		vec, ok := numbers(v)
		if !ok {
			return nil, nil, invalidInput(v)
		}
		return vec, nil, nil
	}
	batch := make([][]float64, len(v))
	for i, row := range v {
		var (
			vec []float64
			ok  bool
		)
		switch r := row.(type) {
		case []any:
			vec, ok = numbers(r)
		case []float64:
			vec, ok = r, len(r) > 0
		}
		if !ok {
			return nil, nil, invalidInput(v)
		}
		batch[i] = vec
	}
	return nil, batch, nil
}

func numbers(v []any) ([]float64, bool) {
	if len(v) == 0 {
		return nil, false
	}
	out := make([]float64, len(v))
	for i, x := range v {
		f, ok := number(x)
		if !ok {
			return nil, false
		}
		out[i] = f
	}
	return out, true
}

func number(x any) (float64, bool) {
	switch n := x.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func float32s(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
