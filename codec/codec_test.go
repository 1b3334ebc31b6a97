package codec

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Floats []float64 `json:"floats"`
	Labels []int32   `json:"labels"`
}

func TestByName(t *testing.T) {
	c, ok := ByName("json")
	require.True(t, ok)
	assert.Equal(t, "json", c.Name())

	c, ok = ByName("go-json")
	require.True(t, ok)
	assert.Equal(t, "go-json", c.Name())

	_, ok = ByName("msgpack")
	assert.False(t, ok)
}

func TestFloatsDecodeExactly(t *testing.T) {
	in := sample{
		Floats: []float64{1.0 / 3.0, math.Pi, 5e-324, -0.1, 1e300},
		Labels: []int32{0, 2, 1},
	}

	for _, c := range []Codec{JSON{}, GoJSON{}} {
		t.Run(c.Name(), func(t *testing.T) {
			var out sample
			require.NoError(t, c.Unmarshal(MustMarshal(c, in), &out))
			assert.Equal(t, in, out)
		})
	}
}

func TestCodecsInteroperate(t *testing.T) {
	in := sample{Floats: []float64{2.5}, Labels: []int32{7}}

	var out sample
	require.NoError(t, GoJSON{}.Unmarshal(MustMarshal(JSON{}, in), &out))
	assert.Equal(t, in, out)
}

func TestMustMarshal_Panics(t *testing.T) {
	assert.Panics(t, func() { MustMarshal(JSON{}, math.NaN()) })
}

// MustMarshal encodes v with c, or Default when c is nil, and panics on error.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s marshal failed: %w", c.Name(), err))
	}
	return b
}
