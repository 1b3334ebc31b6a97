package exactsum

import (
	"math"
	"math/big"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sumOf(vs ...float64) Sum {
	s := New()
	for _, v := range vs {
		s.Add(v)
	}
	return s
}

// reference rounds the exact total of vs once, via a wide big.Float.
func reference(vs []float64) float64 {
	acc := new(big.Float).SetPrec(4096)
	for _, v := range vs {
		acc.Add(acc, new(big.Float).SetPrec(4096).SetFloat64(v))
	}
	f, _ := acc.Float64()
	return f
}

func TestSum_Exact(t *testing.T) {
	tests := []struct {
		name string
		vs   []float64
		want float64
	}{
		{"empty", nil, 0},
		{"zeros", []float64{0, math.Copysign(0, -1)}, 0},
		{"tenths", []float64{0.1, 0.2, 0.3}, reference([]float64{0.1, 0.2, 0.3})},
		{"cancellation", []float64{1e308, 1, -1e308}, 1},
		{"max", []float64{math.MaxFloat64, -math.MaxFloat64, math.MaxFloat64}, math.MaxFloat64},
		{"subnormal", []float64{math.SmallestNonzeroFloat64, math.SmallestNonzeroFloat64}, 2 * math.SmallestNonzeroFloat64},
		{"negative", []float64{-2.5, -0.25, 1}, -1.75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sumOf(tt.vs...).Float64())
		})
	}
}

func TestSum_IndependentOfGrouping(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	vs := make([]float64, 1000)
	for i := range vs {
		vs[i] = (rng.Float64() - 0.5) * math.Pow(10, float64(rng.Intn(20)-10))
	}
	whole := sumOf(vs...)
	want := reference(vs)
	require.Equal(t, want, whole.Float64())

	for _, parts := range []int{2, 3, 7} {
		merged := New()
		size := (len(vs) + parts - 1) / parts
		for p := 0; p < len(vs); p += size {
			part := sumOf(vs[p:min(p+size, len(vs))]...)
			part.Normalize()
			for i := range merged {
				merged[i] += part[i]
			}
		}
		assert.Equal(t, want, merged.Float64(), "parts=%d", parts)
		assert.Zero(t, merged.Int().Cmp(whole.Int()), "parts=%d", parts)
	}
}

func TestSum_Normalize(t *testing.T) {
	s := sumOf(-3.5, 1e-300, 2e200)
	before := s.Int()
	s.Normalize()

	assert.Zero(t, before.Cmp(s.Int()))
	for i := 0; i < len(s)-1; i++ {
		assert.GreaterOrEqual(t, s[i], int64(0))
		assert.Less(t, s[i], int64(1)<<limbBits)
	}
}

func TestSum_Quo(t *testing.T) {
	assert.Equal(t, 1.5, sumOf(1, 2).Quo(2))
	assert.Equal(t, -2.0, sumOf(-4, -2).Quo(3))

	vs := []float64{0, 1, 5}
	want, _ := new(big.Rat).SetFrac64(6, 3).Float64()
	assert.Equal(t, want, sumOf(vs...).Quo(3))

	// (0.1+0.2+0.4)/3 rounded once differs from naive float arithmetic
	// only in the last place at most.
	got := sumOf(0.1, 0.2, 0.4).Quo(3)
	assert.InDelta(t, (0.1+0.2+0.4)/3, got, 1e-16)
}

func TestSum_AddNonFinitePanics(t *testing.T) {
	assert.Panics(t, func() { New().Add(math.Inf(1)) })
	assert.Panics(t, func() { New().Add(math.NaN()) })
}
