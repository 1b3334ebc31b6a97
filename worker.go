package distkmeans

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/hupe1980/distkmeans/collective"
	"github.com/hupe1980/distkmeans/internal/kmeans"
	"github.com/hupe1980/distkmeans/internal/partition"
	"github.com/hupe1980/distkmeans/model"
	"github.com/hupe1980/distkmeans/report"
	"github.com/hupe1980/distkmeans/resource"
)

// State is a Worker's position in the run lifecycle.
type State int32

const (
	StateUninitialized State = iota
	StateReady
	StateIterating
	StateConverged
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateIterating:
		return "iterating"
	case StateConverged:
		return "converged"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Result is the final clustering, identical on every worker.
type Result struct {
	// Centers holds the k final centers, indexed by cluster id.
	Centers []model.Point
	// Assignments[i] is the cluster id of Points[i].
	Assignments []int32
	// Points is the worker's copy of the global dataset.
	Points []model.Point
	// Rounds is the number of rounds executed.
	Rounds int
	// StoppedEarly is set when the stop predicate ended the loop.
	StoppedEarly bool
	// EmptyClusters counts (round, cluster) pairs that kept their previous center.
	EmptyClusters int
	// Elapsed is the wall-clock duration of Run.
	Elapsed time.Duration
}

// PlotData converts the result for a report.Plotter.
func (r *Result) PlotData() report.PlotData {
	return report.NewPlotData(r.Points, r.Assignments, r.Centers)
}

// Worker is one member of a clustering group.
//
// A Worker runs once; its state moves from Uninitialized through Ready and
// Iterating to Converged and never back.
type Worker struct {
	comm   collective.Comm
	opts   options
	logger *Logger

	started atomic.Bool
	state   atomic.Int32
}

// NewWorker creates a worker bound to comm.
func NewWorker(comm collective.Comm, optFns ...Option) (*Worker, error) {
	if comm == nil {
		return nil, ErrInvalidWorld
	}
	opts := applyOptions(optFns)
	if opts.k < 1 {
		return nil, ErrInvalidK
	}
	if opts.maxRounds < 1 {
		return nil, ErrInvalidRounds
	}
	if opts.coordinator < 0 || opts.coordinator >= comm.Size() {
		return nil, ErrInvalidWorld
	}

	return &Worker{
		comm:   comm,
		opts:   opts,
		logger: opts.logger.WithRank(comm.Rank(), comm.Size()),
	}, nil
}

// State returns the worker's current lifecycle state.
func (w *Worker) State() State {
	return State(w.state.Load())
}

// IsCoordinator reports whether this worker loads input and samples centers.
func (w *Worker) IsCoordinator() bool {
	return w.comm.Rank() == w.opts.coordinator
}

// Run executes the full clustering loop. src is only consulted on the
// coordinator and may be nil elsewhere.
//
// Any failure aborts the whole group before Run returns, so peers blocked in
// a collective return as well.
func (w *Worker) Run(ctx context.Context, src Source) (*Result, error) {
	if !w.started.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRun
	}

	start := time.Now()
	res, err := w.run(ctx, src)
	if err != nil {
		w.logger.LogAbort(ctx, err)
		w.comm.Abort(err)
		return nil, err
	}

	res.Elapsed = time.Since(start)
	w.logger.LogConverged(ctx, res.Rounds, res.StoppedEarly, res.Elapsed)
	return res, nil
}

func (w *Worker) run(ctx context.Context, src Source) (*Result, error) {
	initStart := time.Now()

	var loaded []model.Point
	if w.IsCoordinator() {
		if src == nil {
			return nil, &SourceError{cause: errors.New("coordinator has no source")}
		}
		ps, err := src.Load(ctx)
		if err != nil {
			return nil, &SourceError{cause: err}
		}
		if err := kmeans.CheckFinite(ps); err != nil {
			return nil, &SourceError{cause: err}
		}
		loaded = ps
	}

	n, err := w.agreeOnHeader(ctx, len(loaded))
	if err != nil {
		return nil, err
	}
	if err := kmeans.Validate(n, w.opts.k); err != nil {
		return nil, err
	}

	// Workers sharing a controller hold their reservation while blocked in
	// collectives, so waiting for memory could stall the group.
	if rc := w.opts.resource; rc != nil {
		bytes := datasetBytes(n)
		if !rc.TryAcquireMemory(bytes) {
			return nil, fmt.Errorf("reserve %d bytes for dataset (%d in use): %w", bytes, rc.MemoryUsage(), resource.ErrOverBudget)
		}
		defer rc.ReleaseMemory(bytes)
	}

	points, err := w.distributePoints(ctx, n, loaded)
	if err != nil {
		return nil, err
	}

	centers, err := w.initCenters(ctx, points)
	if err != nil {
		return nil, err
	}
	w.state.Store(int32(StateReady))
	w.opts.metricsCollector.RecordInit(n, w.opts.k, time.Since(initStart))
	w.logger.LogInit(ctx, n, w.opts.k, time.Since(initStart))

	return w.iterate(ctx, points, centers)
}

// agreeOnHeader broadcasts [N, k, max rounds] from the coordinator and checks
// the local configuration against it.
func (w *Worker) agreeOnHeader(ctx context.Context, n int) (int, error) {
	header := []int64{int64(n), int64(w.opts.k), int64(w.opts.maxRounds)}
	err := w.collect(collective.OpBroadcastInt, 8*len(header), func() error {
		return w.comm.BroadcastInts(ctx, w.opts.coordinator, header)
	})
	if err != nil {
		return 0, err
	}

	if got := header[1]; got != int64(w.opts.k) {
		return 0, &ConfigMismatchError{Field: "k", Local: int64(w.opts.k), Coordinator: got}
	}
	if got := header[2]; got != int64(w.opts.maxRounds) {
		return 0, &ConfigMismatchError{Field: "max_rounds", Local: int64(w.opts.maxRounds), Coordinator: got}
	}
	return int(header[0]), nil
}

// distributePoints gives every worker a private copy of the coordinator's dataset.
func (w *Worker) distributePoints(ctx context.Context, n int, loaded []model.Point) ([]model.Point, error) {
	flat := make([]float64, 2*n)
	if w.IsCoordinator() {
		copy(flat, model.Flatten(loaded))
	}
	err := w.collect(collective.OpBroadcast, 8*len(flat), func() error {
		return w.comm.Broadcast(ctx, w.opts.coordinator, flat)
	})
	if err != nil {
		return nil, err
	}

	points := make([]model.Point, n)
	model.Unflatten(points, flat)
	return points, nil
}

// initCenters samples k distinct points on the coordinator and broadcasts them.
func (w *Worker) initCenters(ctx context.Context, points []model.Point) ([]model.Point, error) {
	k := w.opts.k
	flat := make([]float64, 2*k)
	if w.IsCoordinator() {
		rng := rand.New(rand.NewSource(w.opts.seed))
		indices, err := kmeans.SampleIndices(len(points), k, rng)
		if err != nil {
			return nil, err
		}
		copy(flat, model.Flatten(kmeans.InitialCenters(points, indices)))
	}
	err := w.collect(collective.OpBroadcast, 8*len(flat), func() error {
		return w.comm.Broadcast(ctx, w.opts.coordinator, flat)
	})
	if err != nil {
		return nil, err
	}

	centers := make([]model.Point, k)
	model.Unflatten(centers, flat)
	return centers, nil
}

func (w *Worker) iterate(ctx context.Context, points, centers []model.Point) (*Result, error) {
	n, k := len(points), w.opts.k
	ranges := partition.Ranges(n, w.comm.Size())
	counts := partition.Counts(n, w.comm.Size())
	mine := ranges[w.comm.Rank()]

	assignments := make([]int32, n)
	var prev []model.Point
	if w.opts.stop != nil {
		prev = make([]model.Point, k)
	}

	res := &Result{Points: points}
	w.state.Store(int32(StateIterating))

	for round := 1; round <= w.opts.maxRounds; round++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		roundStart := time.Now()
		if prev != nil {
			copy(prev, centers)
		}

		if err := w.assign(ctx, points, centers, mine, counts, assignments); err != nil {
			return nil, err
		}
		empty, err := w.update(ctx, points, centers, assignments, mine)
		if err != nil {
			return nil, err
		}

		for _, c := range empty {
			w.opts.metricsCollector.RecordEmptyCluster(round, c)
		}
		res.EmptyClusters += len(empty)
		res.Rounds = round

		d := time.Since(roundStart)
		w.opts.metricsCollector.RecordRound(round, d)
		w.logger.WithRound(round).LogRound(ctx, empty, d)

		if w.opts.stop != nil && w.opts.stop(round, prev, centers) {
			res.StoppedEarly = true
			break
		}
	}

	w.state.Store(int32(StateConverged))
	res.Centers = centers
	res.Assignments = assignments
	return res, nil
}

// assign labels the worker's own range and merges every range into assignments.
func (w *Worker) assign(ctx context.Context, points, centers []model.Point, mine model.Range, counts []int, assignments []int32) error {
	kmeans.AssignRange(points, centers, mine, assignments)
	return w.collect(collective.OpAllGatherV, 4*len(assignments), func() error {
		return w.comm.AllGatherV(ctx, assignments, counts)
	})
}

// update reduces the per-range cluster sums and moves every non-empty center
// to its cluster mean. It returns the ids of empty clusters.
//
// The sums are exact fixed-point integers, so the reduced totals and the
// rounded means do not depend on the group size.
func (w *Worker) update(ctx context.Context, points, centers []model.Point, assignments []int32, mine model.Range) ([]int, error) {
	acc := kmeans.AccumulateRange(points, assignments, len(centers), mine)

	err := w.collect(collective.OpAllReduce, 8*len(acc.Sums), func() error {
		return w.comm.AllReduceSumInts(ctx, acc.Sums)
	})
	if err != nil {
		return nil, err
	}
	err = w.collect(collective.OpAllReduce, 8*len(acc.Counts), func() error {
		return w.comm.AllReduceSumInts(ctx, acc.Counts)
	})
	if err != nil {
		return nil, err
	}

	return kmeans.ApplyMeans(centers, acc), nil
}

func (w *Worker) collect(op collective.Op, bytes int, fn func() error) error {
	start := time.Now()
	err := fn()
	w.opts.metricsCollector.RecordCollective(op, bytes, time.Since(start), err)
	return err
}

// datasetBytes is the memory a worker holds for the replicated dataset: the
// points, their flattened broadcast buffer and the assignment vector.
func datasetBytes(n int) int64 {
	return int64(n) * (16 + 16 + 4)
}
