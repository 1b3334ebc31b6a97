// Package testutil provides testing utilities for distkmeans.
//
// This package is intended for use in tests and benchmarks only.
// It provides a deterministic RNG and synthetic 2D datasets.
//
// # Synthetic Datasets
//
//	rng := testutil.NewRNG(seed)
//	points := rng.Blobs([]model.Point{{X: 0, Y: 0}, {X: 100, Y: 100}}, 50, 10)
//	csv := testutil.CSV(points)
//
// Blobs and GridPoints produce integer coordinates with well-separated
// clusters; UniformPoints produces real-valued coordinates.
package testutil
