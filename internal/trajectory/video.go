package trajectory

import (
	"context"
	"fmt"
	"image"

	"github.com/marker-data/trajectory.report/internal/vision"
)

// VideoTracker ingests detections from a recorded frame sequence. Unlike the
// live path, timestamps come from the frame counter and the container's
// frame rate: timestamp = frame / fps. A frame-skip stride lets callers
// process every Nth frame.
type VideoTracker struct {
	store     *Store
	fps       float64
	frameSkip int
}

// NewVideoTracker creates a tracker writing into store. A non-positive fps
// yields zero timestamps (unknown frame rate); frameSkip below 1 is treated
// as 1.
func NewVideoTracker(store *Store, fps float64, frameSkip int) *VideoTracker {
	if frameSkip < 1 {
		frameSkip = 1
	}
	return &VideoTracker{
		store:     store,
		fps:       fps,
		frameSkip: frameSkip,
	}
}

// ProcessFrame appends the detections for one frame, returning the number of
// samples stored. Frames outside the skip stride are ignored.
func (vt *VideoTracker) ProcessFrame(frame int, obs []Observation) int {
	if frame%vt.frameSkip != 0 {
		return 0
	}

	ts := 0.0
	if vt.fps > 0 {
		ts = float64(frame) / vt.fps
	}

	for _, o := range obs {
		vt.store.Append(PoseSample{
			Timestamp: ts,
			Frame:     frame,
			MarkerID:  o.MarkerID,
			X:         o.Translation[0],
			Y:         o.Translation[1],
			Z:         o.Translation[2],
			RX:        o.Rotation[0],
			RY:        o.Rotation[1],
			RZ:        o.Rotation[2],
		})
	}
	return len(obs)
}

// ProcessImage runs the pose estimator on one decoded frame and appends the
// resulting detections. A frame with no detections is not an error.
func (vt *VideoTracker) ProcessImage(ctx context.Context, est vision.PoseEstimator, frame int, img image.Image) (int, error) {
	if frame%vt.frameSkip != 0 {
		return 0, nil
	}

	detections, err := est.EstimatePoses(ctx, img)
	if err != nil {
		return 0, fmt.Errorf("pose estimation on frame %d: %w", frame, err)
	}

	obs := make([]Observation, len(detections))
	for i, d := range detections {
		obs[i] = Observation{
			MarkerID:    d.MarkerID,
			Translation: d.Translation,
			Rotation:    d.Rotation,
		}
	}
	return vt.ProcessFrame(frame, obs), nil
}
