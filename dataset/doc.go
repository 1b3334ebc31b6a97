// Package dataset reads two-dimensional point datasets.
//
// The input format is one point per line, written as two comma-separated
// real numbers with no header row:
//
//	0,0
//	0,1
//	10,10
//
// Blank lines are ignored. Any other line that does not decode to exactly two
// real numbers is a ParseError. Files ending in .lz4, .zst/.zstd or .gz are
// decompressed transparently by Load.
package dataset
