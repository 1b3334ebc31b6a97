package distkmeans_test

import (
	"context"
	"fmt"
	"log"
	"slices"

	"github.com/hupe1980/distkmeans"
	"github.com/hupe1980/distkmeans/collective"
	"github.com/hupe1980/distkmeans/collective/local"
	"github.com/hupe1980/distkmeans/model"
)

// Example_local clusters two well-separated groups with four in-process workers.
func Example_local() {
	points := []model.Point{
		{X: 0, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 2}, {X: 10, Y: 12},
		{X: 2, Y: 0}, {X: 12, Y: 10}, {X: 2, Y: 2}, {X: 12, Y: 12},
	}

	var centers []model.Point
	err := local.Run(context.Background(), 4, func(ctx context.Context, comm collective.Comm) error {
		w, err := distkmeans.NewWorker(comm, distkmeans.WithK(2), distkmeans.WithMaxRounds(20))
		if err != nil {
			return err
		}
		res, err := w.Run(ctx, distkmeans.Points(points))
		if err != nil {
			return err
		}
		if w.IsCoordinator() {
			centers = res.Centers
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	// Cluster ids depend on the sampled seeds; sort for stable output.
	slices.SortFunc(centers, func(a, b model.Point) int {
		if a.X < b.X {
			return -1
		}
		if a.X > b.X {
			return 1
		}
		return 0
	})
	for _, c := range centers {
		fmt.Println(c)
	}
	// Output:
	// (1,1)
	// (11,11)
}
