// Package trajectory implements the marker trajectory kinematics engine:
// pose sample accumulation per marker, recording session state, finite
// difference kinematics derivation, smoothing, and summary statistics.
package trajectory

// PoseSample is one pose observation of a fiducial marker. Timestamps are
// seconds relative to the recording session origin (live path) or the video
// start (offline path). Translation is meters in the camera frame; rotation
// is an axis-angle (Rodrigues) vector in radians.
//
// A PoseSample is immutable once appended to a Store.
type PoseSample struct {
	Timestamp float64
	Frame     int
	MarkerID  int

	// Translation (meters, camera frame)
	X, Y, Z float64

	// Rotation vector (radians)
	RX, RY, RZ float64
}

// Observation is a single detector output for one frame, before the engine
// stamps it with a session timestamp. The detection/pose-estimation step
// that produces these is an external collaborator.
type Observation struct {
	MarkerID    int
	Translation [3]float64 // x, y, z meters
	Rotation    [3]float64 // rx, ry, rz radians
}
