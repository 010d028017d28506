package main

import (
	"encoding/json"
	"math"

	"github.com/marker-data/trajectory.report/internal/trajectory"
	"github.com/marker-data/trajectory.report/internal/units"
)

// Float marshals non-finite values as JSON null. Derived kinematics
// legitimately carry NaN/Inf sentinels (undefined derivatives, zero dt) and
// encoding/json refuses them otherwise.
type Float float64

func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

// PoseObservation is one detector result in an ingest request.
type PoseObservation struct {
	MarkerID    int        `json:"marker_id"`
	Translation [3]float64 `json:"translation"`
	Rotation    [3]float64 `json:"rotation"`
}

// ObserveRequest carries all detections from one frame.
type ObserveRequest struct {
	Frame      int               `json:"frame"`
	Detections []PoseObservation `json:"detections"`
}

// ObserveResponse reports how many samples the session accepted.
type ObserveResponse struct {
	Recording bool `json:"recording"`
	Appended  int  `json:"appended"`
}

// ToggleResponse is returned by the session toggle endpoint.
type ToggleResponse struct {
	Recording bool   `json:"recording"`
	SessionID string `json:"session_id,omitempty"`
	Persisted int    `json:"persisted_samples,omitempty"`
}

// SessionStatus describes the recording session.
type SessionStatus struct {
	Recording   bool     `json:"recording"`
	SessionID   string   `json:"session_id,omitempty"`
	ElapsedSecs *float64 `json:"elapsed_secs,omitempty"`
	SampleCount int      `json:"sample_count"`
}

// JSONAxisRange mirrors trajectory.AxisRange with null-safe floats.
type JSONAxisRange struct {
	Min   Float `json:"min"`
	Max   Float `json:"max"`
	Range Float `json:"range"`
}

// JSONMarkerSummary is the wire form of a marker summary. Speed statistics
// are converted to the requested display units; everything else is SI.
type JSONMarkerSummary struct {
	MarkerID     int   `json:"marker_id"`
	SampleCount  int   `json:"sample_count"`
	DurationSecs Float `json:"duration_secs"`
	SampleRateHz Float `json:"sample_rate_hz"`

	PosX JSONAxisRange `json:"pos_x"`
	PosY JSONAxisRange `json:"pos_y"`
	PosZ JSONAxisRange `json:"pos_z"`

	TotalDistanceM    Float `json:"total_distance_m"`
	MeanStepDistanceM Float `json:"mean_step_distance_m"`

	SpeedUnits string `json:"speed_units"`
	SpeedMean  Float  `json:"speed_mean"`
	SpeedMax   Float  `json:"speed_max"`
	SpeedMin   Float  `json:"speed_min"`
	SpeedStd   Float  `json:"speed_std"`

	AccelMean Float `json:"accel_mean_mps2"`
	AccelMax  Float `json:"accel_max_mps2"`

	RotXDeg JSONAxisRange `json:"rot_x_deg"`
	RotYDeg JSONAxisRange `json:"rot_y_deg"`
	RotZDeg JSONAxisRange `json:"rot_z_deg"`

	AngularSpeedMeanRad Float `json:"angular_speed_mean_rads"`
	AngularSpeedMaxRad  Float `json:"angular_speed_max_rads"`
	AngularSpeedMeanDeg Float `json:"angular_speed_mean_degs"`
	AngularSpeedMaxDeg  Float `json:"angular_speed_max_degs"`
}

func toJSONAxisRange(r trajectory.AxisRange) JSONAxisRange {
	return JSONAxisRange{Min: Float(r.Min), Max: Float(r.Max), Range: Float(r.Range)}
}

func toJSONSummary(s trajectory.MarkerSummary, speedUnits string) JSONMarkerSummary {
	return JSONMarkerSummary{
		MarkerID:     s.MarkerID,
		SampleCount:  s.SampleCount,
		DurationSecs: Float(s.Duration),
		SampleRateHz: Float(s.SampleRateHz),

		PosX: toJSONAxisRange(s.PosX),
		PosY: toJSONAxisRange(s.PosY),
		PosZ: toJSONAxisRange(s.PosZ),

		TotalDistanceM:    Float(s.TotalDistance),
		MeanStepDistanceM: Float(s.MeanStepDistance),

		SpeedUnits: speedUnits,
		SpeedMean:  Float(units.ConvertSpeed(s.SpeedMean, speedUnits)),
		SpeedMax:   Float(units.ConvertSpeed(s.SpeedMax, speedUnits)),
		SpeedMin:   Float(units.ConvertSpeed(s.SpeedMin, speedUnits)),
		SpeedStd:   Float(units.ConvertSpeed(s.SpeedStd, speedUnits)),

		AccelMean: Float(s.AccelMean),
		AccelMax:  Float(s.AccelMax),

		RotXDeg: toJSONAxisRange(s.RotXDeg),
		RotYDeg: toJSONAxisRange(s.RotYDeg),
		RotZDeg: toJSONAxisRange(s.RotZDeg),

		AngularSpeedMeanRad: Float(s.AngularSpeedMeanRad),
		AngularSpeedMaxRad:  Float(s.AngularSpeedMaxRad),
		AngularSpeedMeanDeg: Float(s.AngularSpeedMeanDeg),
		AngularSpeedMaxDeg:  Float(s.AngularSpeedMaxDeg),
	}
}
