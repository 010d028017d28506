package charts

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/marker-data/trajectory.report/internal/trajectory"
)

// palette gives each marker a distinguishable line colour.
var palette = []color.RGBA{
	{R: 204, G: 51, B: 51, A: 255},
	{R: 51, G: 102, B: 204, A: 255},
	{R: 51, G: 153, B: 51, A: 255},
	{R: 204, G: 153, B: 0, A: 255},
	{R: 153, G: 51, B: 204, A: 255},
	{R: 0, G: 153, B: 153, A: 255},
}

func markerColor(i int) color.RGBA {
	return palette[i%len(palette)]
}

func finiteXYs(pts []trajectory.DerivedPoint, getX, getY func(*trajectory.DerivedPoint) float64) plotter.XYs {
	xys := make(plotter.XYs, 0, len(pts))
	for i := range pts {
		x := getX(&pts[i])
		y := getY(&pts[i])
		if math.IsNaN(x) || math.IsInf(x, 0) || math.IsNaN(y) || math.IsInf(y, 0) {
			continue
		}
		xys = append(xys, plotter.XY{X: x, Y: y})
	}
	return xys
}

// SavePathPlot writes a PNG of each marker's path projected onto the camera
// X-Z plane (the plane most camera-facing motion happens in).
func SavePathPlot(path string, all []*trajectory.DerivedSeries) error {
	p := plot.New()
	p.Title.Text = "Marker trajectory (X-Z plane)"
	p.X.Label.Text = "X (m)"
	p.Y.Label.Text = "Z (m)"
	p.Add(plotter.NewGrid())

	for i, ds := range all {
		xys := finiteXYs(ds.Points,
			func(pt *trajectory.DerivedPoint) float64 { return pt.X },
			func(pt *trajectory.DerivedPoint) float64 { return pt.Z })
		if len(xys) == 0 {
			continue
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return fmt.Errorf("failed to build path line for marker %d: %w", ds.MarkerID, err)
		}
		line.Color = markerColor(i)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("marker %d", ds.MarkerID), line)
	}

	return p.Save(8*vg.Inch, 8*vg.Inch, path)
}

// SaveSpeedPlot writes a PNG of speed vs time per marker, using the smoothed
// channel when present.
func SaveSpeedPlot(path string, all []*trajectory.DerivedSeries) error {
	p := plot.New()
	p.Title.Text = "Speed vs time"
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Speed (m/s)"
	p.Add(plotter.NewGrid())

	for i, ds := range all {
		get := func(pt *trajectory.DerivedPoint) float64 { return pt.Speed }
		if ds.Smoothed {
			get = func(pt *trajectory.DerivedPoint) float64 { return pt.SpeedSmooth }
		}
		xys := finiteXYs(ds.Points,
			func(pt *trajectory.DerivedPoint) float64 { return pt.Timestamp },
			get)
		if len(xys) == 0 {
			continue
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return fmt.Errorf("failed to build speed line for marker %d: %w", ds.MarkerID, err)
		}
		line.Color = markerColor(i)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("marker %d", ds.MarkerID), line)
	}

	return p.Save(10*vg.Inch, 6*vg.Inch, path)
}
