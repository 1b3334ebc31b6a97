package kmeans

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/hupe1980/distkmeans/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenario() []model.Point {
	return []model.Point{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 10, Y: 10}, {X: 10, Y: 11}, {X: 5, Y: 5}}
}

func TestNearest_TieGoesToLowestID(t *testing.T) {
	centers := []model.Point{{X: 0, Y: 0}, {X: 10, Y: 10}}
	assert.Equal(t, 0, Nearest(model.Point{X: 5, Y: 5}, centers))

	// Duplicate centers: the first one wins.
	centers = []model.Point{{X: 3, Y: 3}, {X: 1, Y: 1}, {X: 1, Y: 1}}
	assert.Equal(t, 1, Nearest(model.Point{X: 0, Y: 0}, centers))
}

func TestNearest_MatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	centers := make([]model.Point, 6)
	for i := range centers {
		centers[i] = model.Point{X: rng.Float64() * 100, Y: rng.Float64() * 100}
	}

	for range 500 {
		p := model.Point{X: rng.Float64() * 100, Y: rng.Float64() * 100}
		got := Nearest(p, centers)
		for j, c := range centers {
			assert.LessOrEqual(t, p.Distance(centers[got]), p.Distance(c))
			if p.Distance(c) == p.Distance(centers[got]) {
				assert.LessOrEqual(t, got, j)
			}
		}
	}
}

func TestScenario_OneRound(t *testing.T) {
	points := scenario()
	centers := InitialCenters(points, []int{0, 2})
	assignments := make([]int32, len(points))
	all := model.Range{Begin: 0, End: len(points)}

	AssignRange(points, centers, all, assignments)
	assert.Equal(t, []int32{0, 0, 1, 1, 0}, assignments)

	acc := AccumulateRange(points, assignments, 2, all)
	empty := ApplyMeans(centers, acc)
	assert.Empty(t, empty)
	assert.Equal(t, model.Point{X: 5.0 / 3.0, Y: 2}, centers[0])
	assert.Equal(t, model.Point{X: 10, Y: 10.5}, centers[1])
}

func TestAssignRange_OnlyTouchesRange(t *testing.T) {
	points := scenario()
	centers := InitialCenters(points, []int{0, 2})
	assignments := []int32{-1, -1, -1, -1, -1}

	AssignRange(points, centers, model.Range{Begin: 2, End: 4}, assignments)
	assert.Equal(t, []int32{-1, -1, 1, 1, -1}, assignments)
}

func TestAccumulateRange_CountsMatchAssignments(t *testing.T) {
	points := scenario()
	assignments := []int32{0, 1, 1, 0, 1}

	var total [2]int64
	for _, r := range []model.Range{{Begin: 0, End: 2}, {Begin: 2, End: 4}, {Begin: 4, End: 5}} {
		acc := AccumulateRange(points, assignments, 2, r)
		total[0] += acc.Counts[0]
		total[1] += acc.Counts[1]
	}
	assert.Equal(t, [2]int64{2, 3}, total)
}

func TestApplyMeans_EmptyClusterKeepsCenter(t *testing.T) {
	centers := []model.Point{{X: 1.25, Y: -3.5}, {X: 7, Y: 7}}
	prev := centers[0]

	acc := model.NewAccumulator(2)
	acc.Add(1, model.Point{X: 4, Y: 10})
	acc.Add(1, model.Point{X: 10, Y: 18})

	empty := ApplyMeans(centers, acc)
	assert.Equal(t, []int{0}, empty)
	assert.Equal(t, prev, centers[0])
	assert.Equal(t, model.Point{X: 7, Y: 14}, centers[1])
}

func TestAccumulateRange_SplitMatchesWhole(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	points := make([]model.Point, 301)
	assignments := make([]int32, len(points))
	for i := range points {
		points[i] = model.Point{X: (rng.Float64() - 0.5) * 200, Y: rng.Float64() * 1e-3}
		assignments[i] = int32(rng.Intn(3))
	}
	n := len(points)

	want := make([]model.Point, 3)
	ApplyMeans(want, AccumulateRange(points, assignments, 3, model.Range{Begin: 0, End: n}))

	for _, cuts := range [][]int{{0, 150, n}, {0, 1, 100, 299, n}, {0, 43, 86, 129, 172, 215, 258, n}} {
		merged := model.NewAccumulator(3)
		for i := 0; i+1 < len(cuts); i++ {
			part := AccumulateRange(points, assignments, 3, model.Range{Begin: cuts[i], End: cuts[i+1]})
			for j, v := range part.Sums {
				merged.Sums[j] += v
			}
			for j, v := range part.Counts {
				merged.Counts[j] += v
			}
		}
		got := make([]model.Point, 3)
		ApplyMeans(got, merged)
		assert.Equal(t, want, got, "cuts=%v", cuts)
	}
}

func TestCheckFinite(t *testing.T) {
	require.NoError(t, CheckFinite(scenario()))

	err := CheckFinite([]model.Point{{X: 1, Y: 1}, {X: math.Inf(1), Y: 0}})
	require.ErrorIs(t, err, ErrNonFinite)
	assert.Contains(t, err.Error(), "point 1")

	_, err = Train(context.Background(), []model.Point{{X: math.NaN()}, {X: 1}}, 1, 1, 1)
	assert.ErrorIs(t, err, ErrNonFinite)
}

func TestSampleIndices(t *testing.T) {
	idx, err := SampleIndices(10, 10, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, idx)

	a, err := SampleIndices(1000, 5, rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	b, err := SampleIndices(1000, 5, rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSampleIndices_InsufficientData(t *testing.T) {
	_, err := SampleIndices(2, 3, rand.New(rand.NewSource(1)))
	require.ErrorIs(t, err, ErrInsufficientData)

	var ide *InsufficientDataError
	require.ErrorAs(t, err, &ide)
	assert.Equal(t, 2, ide.Points)
	assert.Equal(t, 3, ide.K)

	_, err = SampleIndices(2, 0, rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, ErrInvalidK)
}

func TestTrain(t *testing.T) {
	ctx := context.Background()
	points := []model.Point{
		{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 0},
		{X: 10, Y: 10}, {X: 10, Y: 11}, {X: 11, Y: 10},
	}

	res, err := Train(ctx, points, 2, 10, 3)
	require.NoError(t, err)
	require.Len(t, res.Centers, 2)
	require.Len(t, res.Assignments, len(points))

	assert.Equal(t, res.Assignments[0], res.Assignments[1])
	assert.Equal(t, res.Assignments[0], res.Assignments[2])
	assert.Equal(t, res.Assignments[3], res.Assignments[4])
	assert.NotEqual(t, res.Assignments[0], res.Assignments[3])
}

func TestTrain_InvalidRounds(t *testing.T) {
	points := []model.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}

	for _, rounds := range []int{0, -1} {
		_, err := Train(context.Background(), points, 1, rounds, 1)
		assert.ErrorIs(t, err, ErrInvalidRounds, "rounds %d", rounds)
	}
}

func TestTrain_Idempotent(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(11))
	points := make([]model.Point, 300)
	for i := range points {
		points[i] = model.Point{X: float64(rng.Intn(50)), Y: float64(rng.Intn(50))}
	}

	a, err := Train(ctx, points, 4, 100, 9)
	require.NoError(t, err)
	b, err := Train(ctx, points, 4, 150, 9)
	require.NoError(t, err)

	assert.Equal(t, a.Centers, b.Centers)
	assert.Equal(t, a.Assignments, b.Assignments)
}

func TestTrain_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Train(ctx, scenario(), 2, 10, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
