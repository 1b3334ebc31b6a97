// Package kmeans implements the per-worker k-means kernels over 2D points.
//
// The kernels operate on a worker's partition range only. Combining partial
// results across workers is the caller's job; Train runs the same kernels over
// the full index space in a single process and serves as the reference
// implementation.
package kmeans
