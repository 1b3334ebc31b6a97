package partition

import (
	"testing"

	"github.com/hupe1980/distkmeans/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlan(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		world int
		want  []model.Range
	}{
		{"even", 8, 4, []model.Range{{Begin: 0, End: 2}, {Begin: 2, End: 4}, {Begin: 4, End: 6}, {Begin: 6, End: 8}}},
		{"remainder on low ranks", 10, 4, []model.Range{{Begin: 0, End: 3}, {Begin: 3, End: 6}, {Begin: 6, End: 8}, {Begin: 8, End: 10}}},
		{"single worker", 5, 1, []model.Range{{Begin: 0, End: 5}}},
		{"more workers than items", 2, 4, []model.Range{{Begin: 0, End: 1}, {Begin: 1, End: 2}, {Begin: 2, End: 2}, {Begin: 2, End: 2}}},
		{"empty", 0, 3, []model.Range{{Begin: 0, End: 0}, {Begin: 0, End: 0}, {Begin: 0, End: 0}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Ranges(tt.n, tt.world))
		})
	}
}

func TestPlanCoverage(t *testing.T) {
	for n := 1; n <= 64; n++ {
		for world := 1; world <= 9; world++ {
			next := 0
			for rank := range world {
				r := Plan(n, world, rank)
				require.Equal(t, next, r.Begin, "n=%d world=%d rank=%d", n, world, rank)
				require.LessOrEqual(t, r.Begin, r.End)
				// Sizes differ by at most one.
				require.LessOrEqual(t, r.Len(), n/world+1)
				require.GreaterOrEqual(t, r.Len(), n/world)
				next = r.End
			}
			require.Equal(t, n, next, "n=%d world=%d", n, world)
		}
	}
}

func TestCounts(t *testing.T) {
	assert.Equal(t, []int{3, 3, 2, 2}, Counts(10, 4))
}

func TestPlanPanics(t *testing.T) {
	assert.Panics(t, func() { Plan(10, 0, 0) })
	assert.Panics(t, func() { Plan(10, 2, 2) })
	assert.Panics(t, func() { Plan(10, 2, -1) })
}
