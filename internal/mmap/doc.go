// Package mmap maps input files read-only for a single front-to-back scan.
//
// Unix maps with mmap(2) and hints MADV_SEQUENTIAL; Windows uses
// CreateFileMapping and MapViewOfFile without a hint.
package mmap
