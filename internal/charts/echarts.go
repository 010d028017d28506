// Package charts renders derived trajectory series as interactive ECharts
// HTML pages and static gonum PNG figures.
package charts

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/marker-data/trajectory.report/internal/trajectory"
	"github.com/marker-data/trajectory.report/internal/units"
)

// lineData builds [t, value] pairs for a value-typed x axis, skipping
// non-finite samples so the chart JSON stays valid.
func lineData(pts []trajectory.DerivedPoint, get func(*trajectory.DerivedPoint) float64) []opts.LineData {
	data := make([]opts.LineData, 0, len(pts))
	for i := range pts {
		v := get(&pts[i])
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		data = append(data, opts.LineData{Value: []interface{}{pts[i].Timestamp, v}})
	}
	return data
}

// newLine creates a line chart with the shared axis/tooltip setup.
func newLine(title, subtitle, yName string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "360px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "Time (s)", NameLocation: "middle", NameGap: 30}),
		charts.WithYAxisOpts(opts.YAxis{Name: yName}),
	)
	return line
}

// addMarkerSeries adds one line per marker to the chart.
func addMarkerSeries(line *charts.Line, all []*trajectory.DerivedSeries, get func(*trajectory.DerivedPoint) float64) {
	for _, ds := range all {
		name := fmt.Sprintf("marker %d", ds.MarkerID)
		line.AddSeries(name, lineData(ds.Points, get))
	}
}

func renderPage(w io.Writer, title string, lines ...*charts.Line) error {
	page := components.NewPage()
	page.PageTitle = title
	for _, l := range lines {
		page.AddCharts(l)
	}
	return page.Render(w)
}

// RenderPosition writes the X/Y/Z position-vs-time page.
func RenderPosition(w io.Writer, all []*trajectory.DerivedSeries) error {
	x := newLine("Position vs Time", "camera frame", "X (m)")
	addMarkerSeries(x, all, func(p *trajectory.DerivedPoint) float64 { return p.X })
	y := newLine("", "", "Y (m)")
	addMarkerSeries(y, all, func(p *trajectory.DerivedPoint) float64 { return p.Y })
	z := newLine("", "", "Z (m)")
	addMarkerSeries(z, all, func(p *trajectory.DerivedPoint) float64 { return p.Z })
	return renderPage(w, "Position", x, y, z)
}

// RenderVelocity writes the velocity components and speed page. When the
// series carries smoothed values, the smoothed speed is plotted alongside
// the raw speed.
func RenderVelocity(w io.Writer, all []*trajectory.DerivedSeries) error {
	vx := newLine("Velocity Components", "", "Vx (m/s)")
	addMarkerSeries(vx, all, func(p *trajectory.DerivedPoint) float64 { return p.VX })
	vy := newLine("", "", "Vy (m/s)")
	addMarkerSeries(vy, all, func(p *trajectory.DerivedPoint) float64 { return p.VY })
	vz := newLine("", "", "Vz (m/s)")
	addMarkerSeries(vz, all, func(p *trajectory.DerivedPoint) float64 { return p.VZ })

	speed := newLine("Speed Magnitude", "", "Speed (m/s)")
	addMarkerSeries(speed, all, func(p *trajectory.DerivedPoint) float64 { return p.Speed })
	for _, ds := range all {
		if !ds.Smoothed {
			continue
		}
		name := fmt.Sprintf("marker %d (smoothed)", ds.MarkerID)
		speed.AddSeries(name, lineData(ds.Points, func(p *trajectory.DerivedPoint) float64 { return p.SpeedSmooth }))
	}

	return renderPage(w, "Velocity", vx, vy, vz, speed)
}

// RenderDistance writes the cumulative and per-step distance page.
func RenderDistance(w io.Writer, all []*trajectory.DerivedSeries) error {
	cum := newLine("Distance Analysis", "", "Cumulative distance (m)")
	addMarkerSeries(cum, all, func(p *trajectory.DerivedPoint) float64 { return p.CumulativeDistance })
	step := newLine("", "", "Step distance (m)")
	addMarkerSeries(step, all, func(p *trajectory.DerivedPoint) float64 { return p.Distance })
	return renderPage(w, "Distance", cum, step)
}

// RenderAngular writes the rotation-angle and angular-speed page. Angles are
// shown in degrees, angular speed in deg/s.
func RenderAngular(w io.Writer, all []*trajectory.DerivedSeries) error {
	rx := newLine("Angular Rotation Over Time", "", "Rotation X (deg)")
	addMarkerSeries(rx, all, func(p *trajectory.DerivedPoint) float64 { return p.RXDeg })
	ry := newLine("", "", "Rotation Y (deg)")
	addMarkerSeries(ry, all, func(p *trajectory.DerivedPoint) float64 { return p.RYDeg })
	rz := newLine("", "", "Rotation Z (deg)")
	addMarkerSeries(rz, all, func(p *trajectory.DerivedPoint) float64 { return p.RZDeg })

	omega := newLine("Angular Speed Magnitude", "", "Angular speed (deg/s)")
	addMarkerSeries(omega, all, func(p *trajectory.DerivedPoint) float64 { return units.Degrees(p.AngularSpeed) })

	return renderPage(w, "Angular", rx, ry, rz, omega)
}

// RenderAcceleration writes the acceleration components and magnitude page.
func RenderAcceleration(w io.Writer, all []*trajectory.DerivedSeries) error {
	ax := newLine("Acceleration Components", "", "Ax (m/s^2)")
	addMarkerSeries(ax, all, func(p *trajectory.DerivedPoint) float64 { return p.AX })
	ay := newLine("", "", "Ay (m/s^2)")
	addMarkerSeries(ay, all, func(p *trajectory.DerivedPoint) float64 { return p.AY })
	az := newLine("", "", "Az (m/s^2)")
	addMarkerSeries(az, all, func(p *trajectory.DerivedPoint) float64 { return p.AZ })

	mag := newLine("Acceleration Magnitude", "", "Acceleration (m/s^2)")
	addMarkerSeries(mag, all, func(p *trajectory.DerivedPoint) float64 { return p.Acceleration })

	return renderPage(w, "Acceleration", ax, ay, az, mag)
}

// WriteReportFiles renders all chart pages into dir, returning the file
// names written.
func WriteReportFiles(dir string, all []*trajectory.DerivedSeries) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	pages := []struct {
		name   string
		render func(io.Writer, []*trajectory.DerivedSeries) error
	}{
		{"position_vs_time.html", RenderPosition},
		{"velocity_analysis.html", RenderVelocity},
		{"distance_analysis.html", RenderDistance},
		{"angular_analysis.html", RenderAngular},
		{"acceleration_analysis.html", RenderAcceleration},
	}

	var written []string
	for _, p := range pages {
		path := filepath.Join(dir, p.name)
		f, err := os.Create(path)
		if err != nil {
			return written, err
		}
		err = p.render(f, all)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return written, fmt.Errorf("failed to render %s: %w", p.name, err)
		}
		written = append(written, p.name)
	}
	return written, nil
}
