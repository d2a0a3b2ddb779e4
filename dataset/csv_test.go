package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []Sample
		wantErr bool
	}{
		{
			name:  "header",
			input: "sepal_length,sepal_width,species\n5.1,3.5,setosa\n6.3, 3.3 ,virginica\n",
			want: []Sample{
				{Label: "setosa", Features: []float64{5.1, 3.5}},
				{Label: "virginica", Features: []float64{6.3, 3.3}},
			},
		},
		{
			name:  "no header with comment",
			input: "# generated\n1,2,a\n3,4,b\n",
			want: []Sample{
				{Label: "a", Features: []float64{1, 2}},
				{Label: "b", Features: []float64{3, 4}},
			},
		},
		{name: "empty", input: ""},
		{name: "bad value", input: "1,2,a\n1,x,b\n", wantErr: true},
		{name: "one column", input: "a\n", wantErr: true},
		{name: "ragged", input: "1,2,a\n1,b\n", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadCSV(strings.NewReader(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRevisionTriggers(t *testing.T) {
	trigs := revisionTriggers("samples")
	require.Len(t, trigs, 3)
	assert.Contains(t, trigs[0], "CREATE TRIGGER IF NOT EXISTS samples_ai AFTER INSERT ON samples")
	assert.Contains(t, trigs[1], "OLD.dataset")
	assert.Contains(t, trigs[1], "NEW.dataset")
	assert.Contains(t, trigs[2], "AFTER DELETE")
	assert.Contains(t, trigs[0], "ON CONFLICT(dataset) DO UPDATE")
}
