package exactsum

import (
	"math"
	"math/big"
)

const (
	limbBits = 32
	limbMask = 1<<limbBits - 1

	// fracBits is the position of 2^0 within a Sum.
	fracBits = 1074

	// Limbs is the number of digits in a Sum. 2^1024 times 2^32 addends
	// needs 2130 bits above the unit; the top digit only carries the sign.
	Limbs = 68

	// MaxAdds is how many Adds a normalized Sum absorbs before digits may
	// leave the int64 range. Normalize resets the budget.
	MaxAdds = 1 << 30
)

// Sum is an exact running total. Create it with New.
type Sum []int64

// New returns a zero Sum.
func New() Sum {
	return make(Sum, Limbs)
}

// Add adds v to s. v must be finite.
func (s Sum) Add(v float64) {
	b := math.Float64bits(v)
	exp := int(b>>52) & 0x7ff
	mant := b & (1<<52 - 1)

	switch exp {
	case 0x7ff:
		panic("exactsum: non-finite value")
	case 0:
		if mant == 0 {
			return
		}
		// Subnormals share the exponent of the smallest normal.
		exp = 1
	default:
		mant |= 1 << 52
	}

	shift := exp - 1
	i, off := shift/limbBits, uint(shift%limbBits)
	lo := mant << off
	hi := mant >> (64 - off)

	d0 := int64(lo & limbMask)
	d1 := int64(lo >> limbBits)
	d2 := int64(hi)
	if b>>63 == 1 {
		d0, d1, d2 = -d0, -d1, -d2
	}
	s[i] += d0
	s[i+1] += d1
	s[i+2] += d2
}

// Normalize propagates carries so every digit but the top one is in
// [0, 2^32). The value is unchanged.
func (s Sum) Normalize() {
	for i := 0; i < len(s)-1; i++ {
		carry := s[i] >> limbBits
		s[i] -= carry << limbBits
		s[i+1] += carry
	}
}

// Int returns the total in units of 2^-1074.
func (s Sum) Int() *big.Int {
	z := new(big.Int)
	d := new(big.Int)
	for i := len(s) - 1; i >= 0; i-- {
		z.Lsh(z, limbBits)
		z.Add(z, d.SetInt64(s[i]))
	}
	return z
}

// Float64 returns the total rounded to the nearest float64.
func (s Sum) Float64() float64 {
	return s.Quo(1)
}

// Quo returns the total divided by n, rounded once to the nearest float64.
// n must be positive.
func (s Sum) Quo(n int64) float64 {
	den := new(big.Int).Lsh(big.NewInt(n), fracBits)
	f, _ := new(big.Rat).SetFrac(s.Int(), den).Float64()
	return f
}
