package classifier

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/viant/knn/index"
)

func fitted(t *testing.T) *Classifier[string] {
	t.Helper()
	c := New[string](WithK(1))
	require.NoError(t, c.Fit([][]float64{{1, 2, 3}, {4, 5, 6}}, []string{"low", "high"}))
	return c
}

func TestPredictAnyDispatch(t *testing.T) {
	c := fitted(t)

	single, err := c.PredictAny([]float64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, "low", single)

	batch, err := c.PredictAny([][]float64{{1, 2, 3}, {4, 5, 6}})
	require.NoError(t, err)
	assert.Equal(t, []string{"low", "high"}, batch)

	tests := []struct {
		name  string
		input any
		want  any
	}{
		{"float32 vector", []float32{4, 5, 6}, "high"},
		{"int vector", []int{1, 2, 3}, "low"},
		{"float32 matrix", [][]float32{{4, 5, 6}}, []string{"high"}},
		{"dense", mat.NewDense(2, 3, []float64{4, 5, 6, 1, 2, 3}), []string{"high", "low"}},
		{"any vector", []any{1.0, 2, float32(3)}, "low"},
		{"any matrix", []any{[]any{4.0, 5.0, 6.0}, []float64{1, 2, 3}}, []string{"high", "low"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.PredictAny(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPredictAnyJSONInput(t *testing.T) {
	c := fitted(t)
	var input any
	require.NoError(t, json.Unmarshal([]byte(`[[4,5,6],[1,2,3],[4,5,5]]`), &input))
	got, err := c.PredictAny(input)
	require.NoError(t, err)
	assert.Equal(t, []string{"high", "low", "high"}, got)

	require.NoError(t, json.Unmarshal([]byte(`[1,2,3]`), &input))
	got, err = c.PredictAny(input)
	require.NoError(t, err)
	assert.Equal(t, "low", got)
}

func TestPredictAnyInvalidInput(t *testing.T) {
	c := New[string]()
	inputs := []any{
		"not an array",
		[]float64{},
		[]any{},
		[][]float64{},
		[][]float64{{}},
		[]any{"x", "y"},
		[]any{1.0, "y"},
		[]any{[]any{1.0}, "y"},
		[]any{[]any{}},
		[]string{"a"},
		nil,
		42,
	}
	for _, in := range inputs {
		_, err := c.PredictAny(in)
		assert.ErrorIs(t, err, ErrInvalidInput, "%#v", in)
	}
}

func TestPredictAnyInvalidInputBeforeQuery(t *testing.T) {
	idx := scripted("A")
	c := NewWithFactory[string](func() index.Index[string] { return idx })
	require.NoError(t, c.Fit([][]float64{{0}}, []string{"A"}))
	_, err := c.PredictAny("not an array")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Zero(t, idx.queries)
}
