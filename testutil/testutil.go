package testutil

import (
	"math/rand"
	"strconv"
	"strings"
	"sync"

	"github.com/hupe1980/distkmeans/model"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// UniformPoints returns n points with coordinates uniform in [lo, hi).
func (r *RNG) UniformPoints(n int, lo, hi float64) []model.Point {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]model.Point, n)
	for i := range out {
		out[i] = model.Point{
			X: lo + r.rand.Float64()*(hi-lo),
			Y: lo + r.rand.Float64()*(hi-lo),
		}
	}
	return out
}

// GridPoints returns n points with integer coordinates in [0, span).
func (r *RNG) GridPoints(n, span int) []model.Point {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]model.Point, n)
	for i := range out {
		out[i] = model.Point{
			X: float64(r.rand.Intn(span)),
			Y: float64(r.rand.Intn(span)),
		}
	}
	return out
}

// Blobs returns perCluster points around every center, offset by integers in
// [-spread, spread]. Points of different blobs are interleaved so no
// partition holds a single blob.
func (r *RNG) Blobs(centers []model.Point, perCluster, spread int) []model.Point {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]model.Point, 0, len(centers)*perCluster)
	for i := 0; i < perCluster; i++ {
		for _, c := range centers {
			out = append(out, model.Point{
				X: c.X + float64(r.rand.Intn(2*spread+1)-spread),
				Y: c.Y + float64(r.rand.Intn(2*spread+1)-spread),
			})
		}
	}
	return out
}

// CSV renders points in the x,y input format.
func CSV(points []model.Point) string {
	var sb strings.Builder
	for _, p := range points {
		sb.WriteString(strconv.FormatFloat(p.X, 'g', -1, 64))
		sb.WriteByte(',')
		sb.WriteString(strconv.FormatFloat(p.Y, 'g', -1, 64))
		sb.WriteByte('\n')
	}
	return sb.String()
}
