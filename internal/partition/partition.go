package partition

import "github.com/hupe1980/distkmeans/model"

// Plan returns the half-open range of global indices owned by rank when n
// items are split across world workers. The first n%world ranks receive one
// extra item.
//
// Plan panics if world < 1 or rank is outside [0, world).
func Plan(n, world, rank int) model.Range {
	if world < 1 {
		panic("partition: world must be positive")
	}
	if rank < 0 || rank >= world {
		panic("partition: rank out of range")
	}
	if n < 0 {
		n = 0
	}

	size := n / world
	rem := n % world

	begin := rank*size + min(rank, rem)
	end := begin + size
	if rank < rem {
		end++
	}
	return model.Range{Begin: begin, End: end}
}

// Ranges returns the plan of every rank, in rank order.
func Ranges(n, world int) []model.Range {
	out := make([]model.Range, world)
	for r := range world {
		out[r] = Plan(n, world, r)
	}
	return out
}

// Counts returns the length of every rank's range, in rank order.
func Counts(n, world int) []int {
	out := make([]int, world)
	for r, rg := range Ranges(n, world) {
		out[r] = rg.Len()
	}
	return out
}
