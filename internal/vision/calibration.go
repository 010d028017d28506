package vision

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Calibration holds the camera parameters a pose estimator needs: the 3x3
// intrinsic matrix (row-major), the distortion coefficient vector, and the
// physical marker edge length.
type Calibration struct {
	CameraMatrix     [9]float64 `json:"camera_matrix"` // row-major 3x3
	DistCoeffs       []float64  `json:"dist_coeffs"`
	MarkerSizeMeters float64    `json:"marker_size_meters"`

	ImageWidth  int `json:"image_width,omitempty"`
	ImageHeight int `json:"image_height,omitempty"`

	// RMSError is the reprojection error reported by the calibration run,
	// if known.
	RMSError     float64   `json:"rms_error,omitempty"`
	CalibratedAt time.Time `json:"calibrated_at,omitempty"`
}

// Validate checks that the calibration is usable for pose estimation.
func (c *Calibration) Validate() error {
	fx, fy := c.CameraMatrix[0], c.CameraMatrix[4]
	if fx <= 0 || fy <= 0 {
		return fmt.Errorf("camera matrix focal lengths must be positive, got fx=%v fy=%v", fx, fy)
	}
	if c.MarkerSizeMeters <= 0 {
		return fmt.Errorf("marker size must be positive, got %v", c.MarkerSizeMeters)
	}
	return nil
}

// LoadCalibration reads a calibration JSON file.
func LoadCalibration(path string) (*Calibration, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("calibration file must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read calibration file: %w", err)
	}

	var c Calibration
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse calibration file %s: %w", cleanPath, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid calibration in %s: %w", cleanPath, err)
	}
	return &c, nil
}

// Save writes the calibration as indented JSON.
func (c *Calibration) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
