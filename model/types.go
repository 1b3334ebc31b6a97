package model

import (
	"fmt"
	"math"

	"github.com/hupe1980/distkmeans/internal/exactsum"
)

// Point is a 2D coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance between p and q.
func (p Point) Distance(q Point) float64 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// String formats the point as (x,y).
func (p Point) String() string {
	return fmt.Sprintf("(%g,%g)", p.X, p.Y)
}

// IsFinite reports whether both coordinates are finite.
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// Range is a half-open interval [Begin, End) of global point indices.
type Range struct {
	Begin int
	End   int
}

// Len returns the number of indices covered by the range.
func (r Range) Len() int {
	return r.End - r.Begin
}

// Contains reports whether i lies within the range.
func (r Range) Contains(i int) bool {
	return i >= r.Begin && i < r.End
}

// String returns a string representation of the Range.
func (r Range) String() string {
	return fmt.Sprintf("[%d,%d)", r.Begin, r.End)
}

// Accumulator holds exact per-cluster coordinate sums and counts.
// It is created fresh for every update step and discarded after reduction.
//
// Sums and Counts are plain integer buffers: adding two accumulators
// element-wise yields the accumulator of the combined points, whatever
// the split.
type Accumulator struct {
	// Sums holds 2k exact sums laid out as [x0, y0, x1, y1, ...], each
	// exactsum.Limbs long.
	Sums   []int64
	Counts []int64

	adds int
}

// NewAccumulator creates a zeroed Accumulator for k clusters.
func NewAccumulator(k int) *Accumulator {
	return &Accumulator{
		Sums:   make([]int64, 2*k*exactsum.Limbs),
		Counts: make([]int64, k),
	}
}

func (a *Accumulator) sum(i int) exactsum.Sum {
	return exactsum.Sum(a.Sums[i*exactsum.Limbs : (i+1)*exactsum.Limbs])
}

// Add adds p to cluster c. p must be finite.
func (a *Accumulator) Add(c int, p Point) {
	a.sum(2 * c).Add(p.X)
	a.sum(2*c + 1).Add(p.Y)
	a.Counts[c]++

	a.adds++
	if a.adds == exactsum.MaxAdds {
		a.Normalize()
	}
}

// Normalize propagates carries in every sum. Accumulators must be normalized
// before they are added together.
func (a *Accumulator) Normalize() {
	for i := range 2 * len(a.Counts) {
		a.sum(i).Normalize()
	}
	a.adds = 0
}

// Mean returns the mean of cluster c, rounded once per coordinate.
// ok is false for an empty cluster.
func (a *Accumulator) Mean(c int) (p Point, ok bool) {
	n := a.Counts[c]
	if n == 0 {
		return Point{}, false
	}
	return Point{X: a.sum(2 * c).Quo(n), Y: a.sum(2*c + 1).Quo(n)}, true
}

// Flatten lays points out as [x0, y0, x1, y1, ...].
func Flatten(points []Point) []float64 {
	out := make([]float64, 2*len(points))
	for i, p := range points {
		out[2*i] = p.X
		out[2*i+1] = p.Y
	}
	return out
}

// Unflatten is the inverse of Flatten. dst must hold len(src)/2 points.
func Unflatten(dst []Point, src []float64) {
	for i := range dst {
		dst[i] = Point{X: src[2*i], Y: src[2*i+1]}
	}
}
