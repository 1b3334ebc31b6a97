package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPointDistance(t *testing.T) {
	p := Point{X: 0, Y: 0}
	assert.Equal(t, 5.0, p.Distance(Point{X: 3, Y: 4}))
	assert.Equal(t, math.Sqrt(50), p.Distance(Point{X: 5, Y: 5}))
	assert.Equal(t, "(1.5,-2)", Point{X: 1.5, Y: -2}.String())
	assert.True(t, Point{X: 1, Y: -1}.IsFinite())
	assert.False(t, Point{X: math.NaN()}.IsFinite())
	assert.False(t, Point{Y: math.Inf(-1)}.IsFinite())
}

func TestRange(t *testing.T) {
	r := Range{Begin: 2, End: 5}
	assert.Equal(t, 3, r.Len())
	assert.True(t, r.Contains(2))
	assert.True(t, r.Contains(4))
	assert.False(t, r.Contains(5))
	assert.Equal(t, "[2,5)", r.String())
}

func TestAccumulator(t *testing.T) {
	a := NewAccumulator(2)
	a.Add(0, Point{X: 1, Y: 2})
	a.Add(0, Point{X: 3, Y: 4})
	a.Add(1, Point{X: 10, Y: 20})

	assert.Equal(t, []int64{2, 1}, a.Counts)

	m, ok := a.Mean(0)
	assert.True(t, ok)
	assert.Equal(t, Point{X: 2, Y: 3}, m)
	m, ok = a.Mean(1)
	assert.True(t, ok)
	assert.Equal(t, Point{X: 10, Y: 20}, m)
}

func TestAccumulator_EmptyCluster(t *testing.T) {
	a := NewAccumulator(2)
	a.Add(1, Point{X: 1, Y: 1})

	_, ok := a.Mean(0)
	assert.False(t, ok)
}

func TestAccumulator_MergeMatchesSingle(t *testing.T) {
	pts := []Point{{X: 0.1, Y: -7.3}, {X: 0.2, Y: 1e-9}, {X: 0.3, Y: 4.4}, {X: -12.75, Y: 0.7}, {X: 3.3, Y: 3.3}}

	whole := NewAccumulator(1)
	for _, p := range pts {
		whole.Add(0, p)
	}
	whole.Normalize()

	left, right := NewAccumulator(1), NewAccumulator(1)
	for i, p := range pts {
		if i < 2 {
			left.Add(0, p)
		} else {
			right.Add(0, p)
		}
	}
	left.Normalize()
	right.Normalize()
	for i := range left.Sums {
		left.Sums[i] += right.Sums[i]
	}
	left.Counts[0] += right.Counts[0]

	want, _ := whole.Mean(0)
	got, _ := left.Mean(0)
	assert.Equal(t, want, got)
}

func TestFlattenRoundTrip(t *testing.T) {
	pts := []Point{{X: 1, Y: 2}, {X: -3, Y: 0.5}}
	flat := Flatten(pts)
	assert.Equal(t, []float64{1, 2, -3, 0.5}, flat)

	out := make([]Point, 2)
	Unflatten(out, flat)
	assert.Equal(t, pts, out)
}
