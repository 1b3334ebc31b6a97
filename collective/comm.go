package collective

import (
	"context"
	"errors"
	"fmt"
)

// Op names a collective operation.
type Op string

const (
	OpBarrier      Op = "barrier"
	OpBroadcast    Op = "broadcast"
	OpBroadcastInt Op = "broadcast_int"
	OpAllGatherV   Op = "allgatherv"
	OpAllReduce    Op = "allreduce"
)

// Comm is one member's handle on a fixed-size group.
type Comm interface {
	// Rank returns this member's rank in [0, Size()).
	Rank() int

	// Size returns the number of members in the group.
	Size() int

	// Barrier blocks until every member has called Barrier.
	Barrier(ctx context.Context) error

	// Broadcast copies root's buf into buf on every member.
	// All members must pass buffers of the same length.
	Broadcast(ctx context.Context, root int, buf []float64) error

	// BroadcastInts copies root's buf into buf on every member.
	BroadcastInts(ctx context.Context, root int, buf []int64) error

	// AllGatherV merges variable-length segments into buf on every member.
	// counts[r] is the length of rank r's segment; segments are laid out in
	// rank order. Each member contributes the segment at its own offset.
	AllGatherV(ctx context.Context, buf []int32, counts []int) error

	// AllReduceSumInts replaces buf with the element-wise sum across members.
	// Integer addition is associative, so the result does not depend on the
	// group size.
	AllReduceSumInts(ctx context.Context, buf []int64) error

	// Abort terminates the group. cause is reported to every member.
	Abort(cause error)

	// Close releases the member's resources.
	Close() error
}

var (
	// ErrAborted is returned by collectives after any member aborted the group.
	ErrAborted = errors.New("collective: group aborted")

	// ErrClosed is returned by collectives on a closed member.
	ErrClosed = errors.New("collective: closed")
)

// AbortError carries the rank and cause of a group abort.
//
// It matches both ErrAborted and the original cause via errors.Is.
type AbortError struct {
	Rank  int
	Cause error
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("collective: group aborted by rank %d: %v", e.Rank, e.Cause)
}

func (e *AbortError) Unwrap() []error { return []error{ErrAborted, e.Cause} }

// MismatchError indicates members disagreeing on the operation or buffer shape.
type MismatchError struct {
	Op     Op
	Rank   int
	Detail string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("collective: %s mismatch at rank %d: %s", e.Op, e.Rank, e.Detail)
}

// Offsets returns the starting offset of every segment described by counts.
func Offsets(counts []int) []int {
	out := make([]int, len(counts))
	off := 0
	for i, c := range counts {
		out[i] = off
		off += c
	}
	return out
}

// Total returns the sum of counts.
func Total(counts []int) int {
	n := 0
	for _, c := range counts {
		n += c
	}
	return n
}
