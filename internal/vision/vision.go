// Package vision defines the contract with the upstream marker detection
// and pose estimation capability. The engine never looks inside an image:
// detectors hand it identities and pose vectors, and an absence of
// detections is an empty result, not an error.
package vision

import (
	"context"
	"image"
)

// Detection is one marker pose estimated from a single frame.
type Detection struct {
	MarkerID    int
	Translation [3]float64 // x, y, z meters, camera frame
	Rotation    [3]float64 // Rodrigues rotation vector, radians
}

// PoseEstimator detects fiducial markers in a frame and estimates their 3D
// pose relative to the camera. Implementations live outside this module
// (OpenCV bindings, a sidecar process, a test stub).
type PoseEstimator interface {
	EstimatePoses(ctx context.Context, frame image.Image) ([]Detection, error)
}
