package trajectory

import (
	"fmt"
	"math"

	"github.com/marker-data/trajectory.report/internal/units"
)

// SmoothingConfig controls the Savitzky-Golay smoothing pass applied after
// derivation. Window must be odd and at least 3; PolyOrder must be less than
// Window. Smoothing only runs when the series is longer than the window.
type SmoothingConfig struct {
	Enabled   bool
	Window    int
	PolyOrder int
}

// DefaultSmoothingConfig returns the standard smoothing parameters: a
// 5-sample window with a quadratic fit.
func DefaultSmoothingConfig() SmoothingConfig {
	return SmoothingConfig{
		Enabled:   true,
		Window:    5,
		PolyOrder: 2,
	}
}

// Validate checks the smoothing preconditions. Window/order combinations
// that would produce undefined numerical behaviour are rejected up front.
func (c SmoothingConfig) Validate() error {
	if c.Window < 3 {
		return fmt.Errorf("smoothing window must be >= 3, got %d", c.Window)
	}
	if c.Window%2 == 0 {
		return fmt.Errorf("smoothing window must be odd, got %d", c.Window)
	}
	if c.PolyOrder < 0 {
		return fmt.Errorf("smoothing polynomial order must be >= 0, got %d", c.PolyOrder)
	}
	if c.PolyOrder >= c.Window {
		return fmt.Errorf("smoothing polynomial order %d must be less than window %d", c.PolyOrder, c.Window)
	}
	return nil
}

// DerivedPoint carries the motion metrics for one sample. Derivative fields
// at index 0 are NaN (no predecessor); acceleration is additionally NaN at
// index 1 (no velocity at index 0 to difference against). A zero dt yields
// IEEE non-finite values, never a silent zero.
type DerivedPoint struct {
	Timestamp float64 `json:"timestamp"`
	Frame     int     `json:"frame"`

	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`

	RX float64 `json:"rx"`
	RY float64 `json:"ry"`
	RZ float64 `json:"rz"`

	DT float64 `json:"dt"`

	DX       float64 `json:"dx"`
	DY       float64 `json:"dy"`
	DZ       float64 `json:"dz"`
	Distance float64 `json:"distance"`

	// CumulativeDistance is 0 at index 0 and non-decreasing thereafter.
	CumulativeDistance float64 `json:"cumulative_distance"`

	VX    float64 `json:"vx"`
	VY    float64 `json:"vy"`
	VZ    float64 `json:"vz"`
	Speed float64 `json:"speed"`

	AX           float64 `json:"ax"`
	AY           float64 `json:"ay"`
	AZ           float64 `json:"az"`
	Acceleration float64 `json:"acceleration"`

	DRX float64 `json:"drx"`
	DRY float64 `json:"dry"`
	DRZ float64 `json:"drz"`

	OmegaX       float64 `json:"omega_x"`
	OmegaY       float64 `json:"omega_y"`
	OmegaZ       float64 `json:"omega_z"`
	AngularSpeed float64 `json:"angular_speed"`

	// Rotation reported in degrees for display; derivatives are computed in
	// radians.
	RXDeg float64 `json:"rx_deg"`
	RYDeg float64 `json:"ry_deg"`
	RZDeg float64 `json:"rz_deg"`

	// Smoothed channels. NaN when smoothing was disabled or the series was
	// too short; raw values above are always retained alongside.
	SpeedSmooth        float64 `json:"speed_smooth"`
	AccelerationSmooth float64 `json:"acceleration_smooth"`
	AngularSpeedSmooth float64 `json:"angular_speed_smooth"`
	RXDegSmooth        float64 `json:"rx_deg_smooth"`
	RYDegSmooth        float64 `json:"ry_deg_smooth"`
	RZDegSmooth        float64 `json:"rz_deg_smooth"`
}

// DerivedSeries is the per-marker output of Derive: one DerivedPoint per
// input sample, in input order.
type DerivedSeries struct {
	MarkerID int
	Points   []DerivedPoint
	Smoothed bool
}

// Derive converts an ordered per-marker sample sequence into kinematic
// metrics using single-step finite differences: velocity from position
// deltas over dt, acceleration from the first difference of velocity, and
// angular velocity from raw rotation-vector component deltas.
//
// Rotation-vector deltas are not unwrapped across +/-pi, so angular velocity
// can spike near wrap crossings. Known limitation, not corrected here.
//
// Empty and single-element sequences are legitimate inputs: the result
// carries the index-0 pose with all derivative fields NaN.
func Derive(seq []PoseSample, cfg SmoothingConfig) (*DerivedSeries, error) {
	if cfg.Enabled {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("derive: %w", err)
		}
	}

	series := &DerivedSeries{
		Points: make([]DerivedPoint, len(seq)),
	}
	if len(seq) > 0 {
		series.MarkerID = seq[0].MarkerID
	}

	nan := math.NaN()
	for i, s := range seq {
		p := DerivedPoint{
			Timestamp: s.Timestamp,
			Frame:     s.Frame,
			X:         s.X, Y: s.Y, Z: s.Z,
			RX: s.RX, RY: s.RY, RZ: s.RZ,
			RXDeg: units.Degrees(s.RX),
			RYDeg: units.Degrees(s.RY),
			RZDeg: units.Degrees(s.RZ),

			DT: nan,
			DX: nan, DY: nan, DZ: nan,
			Distance: nan,
			VX:       nan, VY: nan, VZ: nan,
			Speed: nan,
			AX:    nan, AY: nan, AZ: nan,
			Acceleration: nan,
			DRX:          nan, DRY: nan, DRZ: nan,
			OmegaX: nan, OmegaY: nan, OmegaZ: nan,
			AngularSpeed: nan,

			SpeedSmooth:        nan,
			AccelerationSmooth: nan,
			AngularSpeedSmooth: nan,
			RXDegSmooth:        nan,
			RYDegSmooth:        nan,
			RZDegSmooth:        nan,
		}

		if i >= 1 {
			prev := seq[i-1]
			p.DT = s.Timestamp - prev.Timestamp

			p.DX = s.X - prev.X
			p.DY = s.Y - prev.Y
			p.DZ = s.Z - prev.Z
			p.Distance = math.Sqrt(p.DX*p.DX + p.DY*p.DY + p.DZ*p.DZ)
			p.CumulativeDistance = series.Points[i-1].CumulativeDistance + p.Distance

			// IEEE semantics on purpose: dt == 0 produces +/-Inf or NaN,
			// which downstream statistics filter explicitly.
			p.VX = p.DX / p.DT
			p.VY = p.DY / p.DT
			p.VZ = p.DZ / p.DT
			p.Speed = math.Sqrt(p.VX*p.VX + p.VY*p.VY + p.VZ*p.VZ)

			p.DRX = s.RX - prev.RX
			p.DRY = s.RY - prev.RY
			p.DRZ = s.RZ - prev.RZ
			p.OmegaX = p.DRX / p.DT
			p.OmegaY = p.DRY / p.DT
			p.OmegaZ = p.DRZ / p.DT
			p.AngularSpeed = math.Sqrt(p.OmegaX*p.OmegaX + p.OmegaY*p.OmegaY + p.OmegaZ*p.OmegaZ)
		}

		if i >= 2 {
			pv := series.Points[i-1]
			p.AX = (p.VX - pv.VX) / p.DT
			p.AY = (p.VY - pv.VY) / p.DT
			p.AZ = (p.VZ - pv.VZ) / p.DT
			p.Acceleration = math.Sqrt(p.AX*p.AX + p.AY*p.AY + p.AZ*p.AZ)
		}

		series.Points[i] = p
	}

	if cfg.Enabled && len(series.Points) > cfg.Window {
		if err := smoothSeries(series, cfg); err != nil {
			return nil, fmt.Errorf("derive: %w", err)
		}
		series.Smoothed = true
	}

	return series, nil
}

// smoothSeries applies the Savitzky-Golay filter to the display channels:
// speed, acceleration magnitude, angular speed, and the three
// rotation-in-degrees channels. Non-finite entries are zeroed before
// filtering so the least-squares fits stay defined.
func smoothSeries(series *DerivedSeries, cfg SmoothingConfig) error {
	channels := []struct {
		get func(*DerivedPoint) float64
		set func(*DerivedPoint, float64)
	}{
		{func(p *DerivedPoint) float64 { return p.Speed }, func(p *DerivedPoint, v float64) { p.SpeedSmooth = v }},
		{func(p *DerivedPoint) float64 { return p.Acceleration }, func(p *DerivedPoint, v float64) { p.AccelerationSmooth = v }},
		{func(p *DerivedPoint) float64 { return p.AngularSpeed }, func(p *DerivedPoint, v float64) { p.AngularSpeedSmooth = v }},
		{func(p *DerivedPoint) float64 { return p.RXDeg }, func(p *DerivedPoint, v float64) { p.RXDegSmooth = v }},
		{func(p *DerivedPoint) float64 { return p.RYDeg }, func(p *DerivedPoint, v float64) { p.RYDegSmooth = v }},
		{func(p *DerivedPoint) float64 { return p.RZDeg }, func(p *DerivedPoint, v float64) { p.RZDegSmooth = v }},
	}

	raw := make([]float64, len(series.Points))
	for _, ch := range channels {
		for i := range series.Points {
			v := ch.get(&series.Points[i])
			if math.IsNaN(v) || math.IsInf(v, 0) {
				v = 0
			}
			raw[i] = v
		}
		smoothed, err := SavitzkyGolay(raw, cfg.Window, cfg.PolyOrder)
		if err != nil {
			return err
		}
		for i := range series.Points {
			ch.set(&series.Points[i], smoothed[i])
		}
	}
	return nil
}
