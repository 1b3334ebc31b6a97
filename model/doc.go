// Package model defines the value types shared by every worker.
//
// # Data Types
//
//   - Point: an immutable 2D coordinate
//   - Range: a half-open interval of global point indices owned by one worker
//   - Accumulator: per-cluster coordinate sums and counts for one update step
//
// Points are stored as a single contiguous []Point per worker and addressed
// by global index. Use Flatten/Unflatten to move them through collectives.
package model
