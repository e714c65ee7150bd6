package report

import (
	"fmt"
	"os"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"queuesweep/internal/sweep"
)

const (
	plotTitle  = "Speedup vs Queue Internal Capacity"
	plotXLabel = "Queue Internal Capacity"
	plotYLabel = "Speedup (Sequential / Parallel)"
)

type PlotOptions struct {
	// Width and Height in inches.
	Width  float64
	Height float64
	DPI    int
}

// NewPlot builds the speedup chart over the present points, ordered by
// capacity, with a tick and a "%.2fx" label at every measured capacity.
func NewPlot(points []sweep.Point) (*plot.Plot, error) {
	present := make([]sweep.Point, 0, len(points))
	for _, p := range points {
		if p.Present() {
			present = append(present, p)
		}
	}
	if len(present) == 0 {
		return nil, ErrNoData
	}
	sort.SliceStable(present, func(i, j int) bool { return present[i].Capacity < present[j].Capacity })

	xys := make(plotter.XYs, len(present))
	labels := make([]string, len(present))
	ticks := make([]plot.Tick, len(present))
	maxY := 0.0
	for i, p := range present {
		xys[i].X = float64(p.Capacity)
		xys[i].Y = p.Speedup
		labels[i] = fmt.Sprintf("%.2fx", p.Speedup)
		ticks[i] = plot.Tick{Value: float64(p.Capacity), Label: fmt.Sprintf("%d", p.Capacity)}
		if p.Speedup > maxY {
			maxY = p.Speedup
		}
	}

	p := plot.New()
	p.Title.Text = plotTitle
	p.X.Label.Text = plotXLabel
	p.Y.Label.Text = plotYLabel

	grid := plotter.NewGrid()
	dashes := []vg.Length{vg.Points(4), vg.Points(2)}
	grid.Vertical.Dashes = dashes
	grid.Horizontal.Dashes = dashes
	p.Add(grid)

	line, scatter, err := plotter.NewLinePoints(xys)
	if err != nil {
		return nil, err
	}
	line.LineStyle.Width = vg.Points(2)
	scatter.GlyphStyle.Shape = draw.CircleGlyph{}
	scatter.GlyphStyle.Radius = vg.Points(3)
	p.Add(line, scatter)

	ann, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
	if err != nil {
		return nil, err
	}
	ann.Offset = vg.Point{Y: vg.Points(10)}
	for i := range ann.TextStyle {
		ann.TextStyle[i].XAlign = text.XCenter
	}
	p.Add(ann)

	p.X.Tick.Marker = plot.ConstantTicks(ticks)
	// leave headroom for the labels above the highest point
	p.Y.Min = 0
	p.Y.Max = maxY * 1.15
	if len(present) == 1 {
		p.X.Min = xys[0].X - 1
		p.X.Max = xys[0].X + 1
	}

	return p, nil
}

// WritePlot renders the chart as a PNG at the requested size and DPI.
func WritePlot(path string, points []sweep.Point, opts PlotOptions) error {
	p, err := NewPlot(points)
	if err != nil {
		return err
	}
	if opts.Width <= 0 {
		opts.Width = 10
	}
	if opts.Height <= 0 {
		opts.Height = 6
	}
	if opts.DPI <= 0 {
		opts.DPI = 300
	}

	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(opts.Width)*vg.Inch, vg.Length(opts.Height)*vg.Inch),
		vgimg.UseDPI(opts.DPI),
	)
	p.Draw(draw.New(c))

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(f); err != nil {
		return err
	}
	return f.Close()
}
