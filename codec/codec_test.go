package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name    string    `json:"name"`
	Labels  []string  `json:"labels"`
	Weights []float64 `json:"weights"`
}

func TestByName(t *testing.T) {
	for _, name := range []string{"json", "go-json"} {
		c, ok := ByName(name)
		require.True(t, ok, name)
		assert.Equal(t, name, c.Name())
	}
	_, ok := ByName("msgpack")
	assert.False(t, ok)
}

func TestCodecsAreInterchangeable(t *testing.T) {
	in := payload{Name: "KNN", Labels: []string{"a", "b"}, Weights: []float64{0.1, 2.5}}

	data, err := GoJSON{}.Marshal(in)
	require.NoError(t, err)

	var out payload
	require.NoError(t, JSON{}.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}
