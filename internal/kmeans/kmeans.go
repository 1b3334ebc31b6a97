package kmeans

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/distkmeans/model"
)

var (
	// ErrInsufficientData is returned when there are fewer points than clusters.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("k must be positive")

	// ErrInvalidRounds is returned when fewer than one round is requested.
	ErrInvalidRounds = errors.New("max rounds must be at least 1")

	// ErrNonFinite is returned for points with a NaN or infinite coordinate.
	ErrNonFinite = errors.New("non-finite coordinate")
)

// InsufficientDataError reports a dataset too small for the requested k.
type InsufficientDataError struct {
	Points int
	K      int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: %d points for %d clusters", e.Points, e.K)
}

func (e *InsufficientDataError) Is(target error) bool { return target == ErrInsufficientData }

// Validate checks that n points can be split into k clusters.
func Validate(n, k int) error {
	if k < 1 {
		return ErrInvalidK
	}
	if n < k {
		return &InsufficientDataError{Points: n, K: k}
	}
	if n > math.MaxUint32 {
		return fmt.Errorf("kmeans: %d points exceeds index space", n)
	}
	return nil
}

// CheckFinite rejects datasets holding a NaN or infinite coordinate.
func CheckFinite(points []model.Point) error {
	for i, p := range points {
		if !p.IsFinite() {
			return fmt.Errorf("point %d %v: %w", i, p, ErrNonFinite)
		}
	}
	return nil
}

// SampleIndices draws k distinct indices from [0, n) in sampling order.
// The order defines cluster ids for the whole run.
func SampleIndices(n, k int, rng *rand.Rand) ([]int, error) {
	if err := Validate(n, k); err != nil {
		return nil, err
	}

	seen := roaring.New()
	out := make([]int, 0, k)
	for len(out) < k {
		idx := rng.Intn(n)
		if seen.CheckedAdd(uint32(idx)) {
			out = append(out, idx)
		}
	}
	return out, nil
}

// InitialCenters returns the points at the given indices, in order.
func InitialCenters(points []model.Point, indices []int) []model.Point {
	centers := make([]model.Point, len(indices))
	for i, idx := range indices {
		centers[i] = points[idx]
	}
	return centers
}

// Nearest returns the id of the center closest to p.
// Ties resolve to the lowest id.
func Nearest(p model.Point, centers []model.Point) int {
	best := 0
	minDist := math.Inf(1)
	for j, c := range centers {
		d := p.Distance(c)
		if d < minDist {
			minDist = d
			best = j
		}
	}
	return best
}

// AssignRange writes the nearest center id of every point in r into dst.
// dst is indexed by global point index; entries outside r are left untouched.
func AssignRange(points, centers []model.Point, r model.Range, dst []int32) {
	for i := r.Begin; i < r.End; i++ {
		dst[i] = int32(Nearest(points[i], centers))
	}
}

// AccumulateRange sums coordinates and counts per cluster over r.
// The sums are exact and the result is normalized, ready for reduction.
func AccumulateRange(points []model.Point, assignments []int32, k int, r model.Range) *model.Accumulator {
	acc := model.NewAccumulator(k)
	for i := r.Begin; i < r.End; i++ {
		acc.Add(int(assignments[i]), points[i])
	}
	acc.Normalize()
	return acc
}

// ApplyMeans replaces every center with its cluster mean, taken from the
// reduced accumulator. Clusters with a zero count keep their previous center;
// their ids are returned.
func ApplyMeans(centers []model.Point, acc *model.Accumulator) []int {
	var empty []int
	for c := range centers {
		m, ok := acc.Mean(c)
		if !ok {
			empty = append(empty, c)
			continue
		}
		centers[c] = m
	}
	return empty
}

// Result is the outcome of a clustering run.
type Result struct {
	Centers     []model.Point
	Assignments []int32
	Rounds      int
}

// Train clusters points into k groups with Lloyd's algorithm in a single
// process. Initial centers are sampled with the given seed exactly as the
// distributed coordinator does, so both produce the same clustering.
func Train(ctx context.Context, points []model.Point, k, rounds int, seed int64) (*Result, error) {
	if rounds < 1 {
		return nil, ErrInvalidRounds
	}
	if err := CheckFinite(points); err != nil {
		return nil, err
	}
	n := len(points)
	indices, err := SampleIndices(n, k, rand.New(rand.NewSource(seed)))
	if err != nil {
		return nil, err
	}

	centers := InitialCenters(points, indices)
	assignments := make([]int32, n)
	all := model.Range{Begin: 0, End: n}

	for round := 0; round < rounds; round++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		AssignRange(points, centers, all, assignments)
		acc := AccumulateRange(points, assignments, k, all)
		ApplyMeans(centers, acc)
	}

	return &Result{
		Centers:     centers,
		Assignments: assignments,
		Rounds:      rounds,
	}, nil
}
