// Package distkmeans clusters a two-dimensional point dataset with k-means
// across a fixed-size group of cooperating workers.
//
// Every worker runs the same program over a collective.Comm. The coordinator
// (rank 0 by default) loads the dataset and samples the initial centers; both
// are broadcast so every worker holds an identical private copy. Each round,
// workers assign the points of their own partition to the nearest center,
// merge the assignments with an all-gather, accumulate per-cluster sums over
// their partition and reduce them across the group. Every worker then derives
// the same new centers locally.
//
// # Quick Start
//
// In-process workers:
//
//	err := local.Run(ctx, 4, func(ctx context.Context, comm collective.Comm) error {
//	    w, err := distkmeans.NewWorker(comm, distkmeans.WithK(3))
//	    if err != nil {
//	        return err
//	    }
//	    res, err := w.Run(ctx, distkmeans.Points(points))
//	    if err != nil {
//	        return err
//	    }
//	    if comm.Rank() == 0 {
//	        fmt.Println(res.Centers)
//	    }
//	    return nil
//	})
//
// One process per rank uses collective/tcp instead of collective/local; the
// Worker code is unchanged.
//
// # Failure Model
//
// A fatal error on any worker (unreadable input, malformed rows, too few
// points, a canceled context) aborts the whole group, so no worker stalls in
// a collective waiting for a peer that gave up. Empty clusters are not errors:
// they keep their previous center and are reported to the MetricsCollector.
package distkmeans
