// Package exactsum adds float64 values without rounding.
//
// A Sum is a fixed-point integer of Limbs 32-bit digits whose lowest bit is
// worth 2^-1074, the smallest subnormal. Every finite float64 is an exact
// multiple of that unit, so additions are integer additions: they are
// associative, and two Sums built from the same values in any grouping hold
// the same total. Rounding happens once, in Quo.
//
// Digits are stored in int64 so that Sums can be added element-wise, for
// example by an integer all-reduce, without first propagating carries.
package exactsum
