package vision

import (
	"path/filepath"
	"testing"
)

func validCalibration() *Calibration {
	return &Calibration{
		CameraMatrix:     [9]float64{800, 0, 320, 0, 800, 240, 0, 0, 1},
		DistCoeffs:       []float64{0.1, -0.05, 0, 0, 0},
		MarkerSizeMeters: 0.05,
		ImageWidth:       640,
		ImageHeight:      480,
	}
}

func TestCalibrationRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "camera.json")
	c := validCalibration()

	if err := c.Save(path); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	loaded, err := LoadCalibration(path)
	if err != nil {
		t.Fatalf("LoadCalibration returned error: %v", err)
	}
	if loaded.CameraMatrix != c.CameraMatrix {
		t.Errorf("camera matrix mismatch: %v != %v", loaded.CameraMatrix, c.CameraMatrix)
	}
	if loaded.MarkerSizeMeters != c.MarkerSizeMeters {
		t.Errorf("marker size mismatch: %v != %v", loaded.MarkerSizeMeters, c.MarkerSizeMeters)
	}
}

func TestCalibrationValidate(t *testing.T) {
	c := validCalibration()
	c.CameraMatrix[0] = 0
	if err := c.Validate(); err == nil {
		t.Error("expected error for zero focal length")
	}

	c = validCalibration()
	c.MarkerSizeMeters = -1
	if err := c.Validate(); err == nil {
		t.Error("expected error for negative marker size")
	}
}

func TestLoadCalibrationRejectsNonJSON(t *testing.T) {
	if _, err := LoadCalibration("camera.yaml"); err == nil {
		t.Error("expected error for non-JSON extension")
	}
}
