// Package compress provides the block and stream compression used on the
// wire and for compressed input files.
package compress
