package local

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/distkmeans/collective"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidSize is returned when a group is created with fewer than one member.
var ErrInvalidSize = errors.New("local: group size must be positive")

// Group is a fixed-size set of in-process members.
type Group struct {
	size int

	mu      sync.Mutex
	pending *rendezvous

	aborted   chan struct{}
	abortOnce sync.Once
	cause     error
}

type rendezvous struct {
	op       collective.Op
	root     int
	length   int
	contribs []any
	arrived  int
	result   any
	done     chan struct{}
}

// NewGroup creates a group of size members.
func NewGroup(size int) (*Group, error) {
	if size < 1 {
		return nil, ErrInvalidSize
	}
	return &Group{
		size:    size,
		aborted: make(chan struct{}),
	}, nil
}

// Size returns the number of members.
func (g *Group) Size() int { return g.size }

// Comm returns the handle for rank. It panics if rank is out of range.
func (g *Group) Comm(rank int) *Comm {
	if rank < 0 || rank >= g.size {
		panic(fmt.Sprintf("local: rank %d out of range [0,%d)", rank, g.size))
	}
	return &Comm{g: g, rank: rank}
}

// Abort terminates the group on behalf of rank. Only the first cause is kept.
func (g *Group) Abort(rank int, cause error) {
	g.abortOnce.Do(func() {
		var ae *collective.AbortError
		if errors.As(cause, &ae) {
			g.cause = ae
		} else {
			g.cause = &collective.AbortError{Rank: rank, Cause: cause}
		}
		close(g.aborted)
	})
}

// Err returns the abort error, or nil if the group was not aborted.
func (g *Group) Err() error {
	select {
	case <-g.aborted:
		return g.cause
	default:
		return nil
	}
}

func (g *Group) exchange(ctx context.Context, rank int, op collective.Op, root, length int, v any, combine func([]any) any) (any, error) {
	if err := g.Err(); err != nil {
		return nil, err
	}

	g.mu.Lock()
	r := g.pending
	if r == nil {
		r = &rendezvous{
			op:       op,
			root:     root,
			length:   length,
			contribs: make([]any, g.size),
			done:     make(chan struct{}),
		}
		g.pending = r
	} else if r.op != op || r.root != root || r.length != length {
		g.mu.Unlock()
		err := &collective.MismatchError{
			Op:     op,
			Rank:   rank,
			Detail: fmt.Sprintf("got %s(root=%d,len=%d), group is in %s(root=%d,len=%d)", op, root, length, r.op, r.root, r.length),
		}
		g.Abort(rank, err)
		return nil, g.Err()
	}

	r.contribs[rank] = v
	r.arrived++
	if r.arrived == g.size {
		r.result = combine(r.contribs)
		g.pending = nil
		close(r.done)
	}
	g.mu.Unlock()

	select {
	case <-r.done:
		return r.result, nil
	case <-g.aborted:
	case <-ctx.Done():
		g.Abort(rank, ctx.Err())
	}

	// A completed exchange wins over a concurrent abort.
	select {
	case <-r.done:
		return r.result, nil
	default:
		return nil, g.Err()
	}
}

// Comm is one member of a Group. It implements collective.Comm.
type Comm struct {
	g      *Group
	rank   int
	closed atomic.Bool
}

var _ collective.Comm = (*Comm)(nil)

func (c *Comm) Rank() int { return c.rank }

func (c *Comm) Size() int { return c.g.size }

func (c *Comm) check(root int) error {
	if c.closed.Load() {
		return collective.ErrClosed
	}
	if root < 0 || root >= c.g.size {
		return fmt.Errorf("local: root %d out of range [0,%d)", root, c.g.size)
	}
	return nil
}

func (c *Comm) Barrier(ctx context.Context) error {
	if err := c.check(0); err != nil {
		return err
	}
	_, err := c.g.exchange(ctx, c.rank, collective.OpBarrier, 0, 0, nil, func([]any) any { return nil })
	return err
}

func (c *Comm) Broadcast(ctx context.Context, root int, buf []float64) error {
	if err := c.check(root); err != nil {
		return err
	}

	var v any
	if c.rank == root {
		v = append([]float64(nil), buf...)
	}
	res, err := c.g.exchange(ctx, c.rank, collective.OpBroadcast, root, len(buf), v, func(parts []any) any {
		return parts[root]
	})
	if err != nil {
		return err
	}
	copy(buf, res.([]float64))
	return nil
}

func (c *Comm) BroadcastInts(ctx context.Context, root int, buf []int64) error {
	if err := c.check(root); err != nil {
		return err
	}

	var v any
	if c.rank == root {
		v = append([]int64(nil), buf...)
	}
	res, err := c.g.exchange(ctx, c.rank, collective.OpBroadcastInt, root, len(buf), v, func(parts []any) any {
		return parts[root]
	})
	if err != nil {
		return err
	}
	copy(buf, res.([]int64))
	return nil
}

func (c *Comm) AllGatherV(ctx context.Context, buf []int32, counts []int) error {
	if err := c.check(0); err != nil {
		return err
	}
	if len(counts) != c.g.size {
		return fmt.Errorf("local: got %d counts for %d members", len(counts), c.g.size)
	}
	if collective.Total(counts) != len(buf) {
		return fmt.Errorf("local: counts sum to %d, buffer holds %d", collective.Total(counts), len(buf))
	}

	off := collective.Offsets(counts)[c.rank]
	seg := append([]int32(nil), buf[off:off+counts[c.rank]]...)

	res, err := c.g.exchange(ctx, c.rank, collective.OpAllGatherV, 0, len(buf), seg, func(parts []any) any {
		segs := make([][]int32, len(parts))
		for i, p := range parts {
			segs[i] = p.([]int32)
		}
		return collective.Concat(segs)
	})
	if err != nil {
		return err
	}
	copy(buf, res.([]int32))
	return nil
}

func (c *Comm) AllReduceSumInts(ctx context.Context, buf []int64) error {
	if err := c.check(0); err != nil {
		return err
	}

	res, err := c.g.exchange(ctx, c.rank, collective.OpAllReduce, 0, len(buf), append([]int64(nil), buf...), func(parts []any) any {
		vs := make([][]int64, len(parts))
		for i, p := range parts {
			vs[i] = p.([]int64)
		}
		return collective.SumInt64s(vs)
	})
	if err != nil {
		return err
	}
	copy(buf, res.([]int64))
	return nil
}

func (c *Comm) Abort(cause error) {
	c.g.Abort(c.rank, cause)
}

func (c *Comm) Close() error {
	c.closed.Store(true)
	return nil
}

// Run executes fn once per rank, each in its own goroutine, and waits for all
// of them. A member whose fn fails aborts the group so no other member stalls
// in a collective. The first abort cause is returned.
func Run(ctx context.Context, size int, fn func(ctx context.Context, comm collective.Comm) error) error {
	g, err := NewGroup(size)
	if err != nil {
		return err
	}

	eg, egCtx := errgroup.WithContext(ctx)
	for rank := range size {
		comm := g.Comm(rank)
		eg.Go(func() error {
			defer comm.Close()
			if err := fn(egCtx, comm); err != nil {
				comm.Abort(err)
				return err
			}
			return nil
		})
	}

	err = eg.Wait()
	if cause := g.Err(); cause != nil {
		return cause
	}
	return err
}
