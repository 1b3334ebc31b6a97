// Package report hands final clustering results to output collaborators.
//
// TextPrinter writes the coordinator's console summary. Plotter
// implementations receive PlotData, the per-point coordinates and labels plus
// the center coordinates a scatter-plot renderer needs. BlobPlotter stores
// PlotData as an encoded blob so any external renderer can pick it up.
package report
