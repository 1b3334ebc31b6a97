// Package partition splits a global index space into contiguous, rank-ordered
// ranges. Every worker derives the same plan from (n, world, rank); ranges are
// never transmitted.
package partition
