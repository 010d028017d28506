package trajectory

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/marker-data/trajectory.report/internal/units"
)

// AxisRange is the min/max/extent of one channel over a series.
type AxisRange struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Range float64 `json:"range"`
}

// MarkerSummary reduces one marker's derived series to scalar statistics.
// Every statistic is computed over finite values only; a channel with no
// finite values reports NaN. SampleRateHz is NaN when the time span is zero.
type MarkerSummary struct {
	MarkerID     int     `json:"marker_id"`
	SampleCount  int     `json:"sample_count"`
	Duration     float64 `json:"duration_secs"`
	SampleRateHz float64 `json:"sample_rate_hz"`

	PosX AxisRange `json:"pos_x"`
	PosY AxisRange `json:"pos_y"`
	PosZ AxisRange `json:"pos_z"`

	TotalDistance    float64 `json:"total_distance_m"`
	MeanStepDistance float64 `json:"mean_step_distance_m"`

	SpeedMean float64 `json:"speed_mean_mps"`
	SpeedMax  float64 `json:"speed_max_mps"`
	SpeedMin  float64 `json:"speed_min_mps"`
	SpeedStd  float64 `json:"speed_std_mps"`

	AccelMean float64 `json:"accel_mean_mps2"`
	AccelMax  float64 `json:"accel_max_mps2"`

	RotXDeg AxisRange `json:"rot_x_deg"`
	RotYDeg AxisRange `json:"rot_y_deg"`
	RotZDeg AxisRange `json:"rot_z_deg"`

	AngularSpeedMeanRad float64 `json:"angular_speed_mean_rads"`
	AngularSpeedMaxRad  float64 `json:"angular_speed_max_rads"`
	AngularSpeedMeanDeg float64 `json:"angular_speed_mean_degs"`
	AngularSpeedMaxDeg  float64 `json:"angular_speed_max_degs"`
}

// Summarize reduces a derived series to per-marker summary statistics.
func Summarize(series *DerivedSeries) MarkerSummary {
	nan := math.NaN()
	s := MarkerSummary{
		MarkerID:     series.MarkerID,
		SampleCount:  len(series.Points),
		Duration:     nan,
		SampleRateHz: nan,

		TotalDistance:    nan,
		MeanStepDistance: nan,
		SpeedMean:        nan, SpeedMax: nan, SpeedMin: nan, SpeedStd: nan,
		AccelMean: nan, AccelMax: nan,
		AngularSpeedMeanRad: nan, AngularSpeedMaxRad: nan,
		AngularSpeedMeanDeg: nan, AngularSpeedMaxDeg: nan,
	}
	nanRange := AxisRange{Min: nan, Max: nan, Range: nan}
	s.PosX, s.PosY, s.PosZ = nanRange, nanRange, nanRange
	s.RotXDeg, s.RotYDeg, s.RotZDeg = nanRange, nanRange, nanRange

	pts := series.Points
	if len(pts) == 0 {
		return s
	}

	timestamps := channel(pts, func(p *DerivedPoint) float64 { return p.Timestamp })
	if len(timestamps) > 0 {
		s.Duration = floats.Max(timestamps) - floats.Min(timestamps)
		if s.Duration > 0 {
			s.SampleRateHz = float64(len(pts)) / s.Duration
		}
	}

	s.PosX = axisRange(channel(pts, func(p *DerivedPoint) float64 { return p.X }))
	s.PosY = axisRange(channel(pts, func(p *DerivedPoint) float64 { return p.Y }))
	s.PosZ = axisRange(channel(pts, func(p *DerivedPoint) float64 { return p.Z }))

	s.TotalDistance = pts[len(pts)-1].CumulativeDistance
	if steps := channel(pts, func(p *DerivedPoint) float64 { return p.Distance }); len(steps) > 0 {
		s.MeanStepDistance = stat.Mean(steps, nil)
	}

	if speeds := channel(pts, func(p *DerivedPoint) float64 { return p.Speed }); len(speeds) > 0 {
		s.SpeedMean = stat.Mean(speeds, nil)
		s.SpeedMax = floats.Max(speeds)
		s.SpeedMin = floats.Min(speeds)
		if len(speeds) > 1 {
			s.SpeedStd = stat.StdDev(speeds, nil)
		}
	}

	if accels := channel(pts, func(p *DerivedPoint) float64 { return p.Acceleration }); len(accels) > 0 {
		s.AccelMean = stat.Mean(accels, nil)
		s.AccelMax = floats.Max(accels)
	}

	s.RotXDeg = axisRange(channel(pts, func(p *DerivedPoint) float64 { return p.RXDeg }))
	s.RotYDeg = axisRange(channel(pts, func(p *DerivedPoint) float64 { return p.RYDeg }))
	s.RotZDeg = axisRange(channel(pts, func(p *DerivedPoint) float64 { return p.RZDeg }))

	if omegas := channel(pts, func(p *DerivedPoint) float64 { return p.AngularSpeed }); len(omegas) > 0 {
		s.AngularSpeedMeanRad = stat.Mean(omegas, nil)
		s.AngularSpeedMaxRad = floats.Max(omegas)
		s.AngularSpeedMeanDeg = units.Degrees(s.AngularSpeedMeanRad)
		s.AngularSpeedMaxDeg = units.Degrees(s.AngularSpeedMaxRad)
	}

	return s
}

// channel extracts one field across the series, keeping finite values only.
func channel(pts []DerivedPoint, get func(*DerivedPoint) float64) []float64 {
	out := make([]float64, 0, len(pts))
	for i := range pts {
		v := get(&pts[i])
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, v)
	}
	return out
}

func axisRange(vals []float64) AxisRange {
	if len(vals) == 0 {
		nan := math.NaN()
		return AxisRange{Min: nan, Max: nan, Range: nan}
	}
	min := floats.Min(vals)
	max := floats.Max(vals)
	return AxisRange{Min: min, Max: max, Range: max - min}
}
