package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/hupe1980/distkmeans/blobstore"
	"github.com/hupe1980/distkmeans/codec"
	"github.com/hupe1980/distkmeans/model"
)

// Default scatter-plot styling.
const (
	DefaultPointSize   = 30
	DefaultCenterSize  = 100
	DefaultCenterColor = "red"
)

// PlotData is the input of a scatter-plot renderer.
type PlotData struct {
	PointX  []float64 `json:"point_x"`
	PointY  []float64 `json:"point_y"`
	Labels  []int32   `json:"labels"`
	CenterX []float64 `json:"center_x"`
	CenterY []float64 `json:"center_y"`

	PointSize   int    `json:"point_size"`
	CenterSize  int    `json:"center_size"`
	CenterColor string `json:"center_color"`
}

// NewPlotData builds PlotData with default styling.
// labels[i] is the cluster id of points[i].
func NewPlotData(points []model.Point, labels []int32, centers []model.Point) PlotData {
	d := PlotData{
		PointX:      make([]float64, len(points)),
		PointY:      make([]float64, len(points)),
		Labels:      append([]int32(nil), labels...),
		CenterX:     make([]float64, len(centers)),
		CenterY:     make([]float64, len(centers)),
		PointSize:   DefaultPointSize,
		CenterSize:  DefaultCenterSize,
		CenterColor: DefaultCenterColor,
	}
	for i, p := range points {
		d.PointX[i], d.PointY[i] = p.X, p.Y
	}
	for i, c := range centers {
		d.CenterX[i], d.CenterY[i] = c.X, c.Y
	}
	return d
}

// Plotter renders final results.
type Plotter interface {
	Plot(ctx context.Context, data PlotData) error
}

// PlotterFunc adapts a function to Plotter.
type PlotterFunc func(ctx context.Context, data PlotData) error

// Plot calls f.
func (f PlotterFunc) Plot(ctx context.Context, data PlotData) error { return f(ctx, data) }

// BlobPlotter encodes PlotData with Codec and stores it under Name.
type BlobPlotter struct {
	Store blobstore.BlobStore
	Name  string
	Codec codec.Codec // defaults to codec.Default
}

// Plot implements Plotter.
func (p *BlobPlotter) Plot(ctx context.Context, data PlotData) error {
	c := p.Codec
	if c == nil {
		c = codec.Default
	}
	b, err := c.Marshal(data)
	if err != nil {
		return fmt.Errorf("report: encode plot data: %w", err)
	}
	if err := p.Store.Put(ctx, p.Name, b); err != nil {
		return fmt.Errorf("report: store %q: %w", p.Name, err)
	}
	return nil
}

// TextPrinter writes centers one per line as (x,y) followed by the elapsed time.
type TextPrinter struct {
	W io.Writer
}

// Print writes the summary.
func (p TextPrinter) Print(centers []model.Point, elapsed time.Duration) error {
	for _, c := range centers {
		if _, err := fmt.Fprintln(p.W, c.String()); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(p.W, "Execution time = %g sec\n", elapsed.Seconds())
	return err
}
