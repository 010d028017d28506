package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tracker.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestEmptyConfigReportsDefaults(t *testing.T) {
	cfg := EmptyTrackerConfig()

	if got := cfg.MarkerSize(); got != DefaultMarkerSizeMeters {
		t.Errorf("MarkerSize = %f, want %f", got, DefaultMarkerSizeMeters)
	}
	if got := cfg.Dictionary(); got != DefaultDictionaryName {
		t.Errorf("Dictionary = %q, want %q", got, DefaultDictionaryName)
	}
	if got := cfg.VideoFrameSkip(); got != DefaultFrameSkip {
		t.Errorf("VideoFrameSkip = %d, want %d", got, DefaultFrameSkip)
	}

	sm := cfg.Smoothing()
	if !sm.Enabled || sm.Window != 5 || sm.PolyOrder != 2 {
		t.Errorf("Smoothing defaults = %+v, want enabled 5/2", sm)
	}
}

func TestLoadPartialConfig(t *testing.T) {
	path := writeConfig(t, `{"marker_size_meters": 0.1, "smoothing_window": 7}`)

	cfg, err := LoadTrackerConfig(path)
	if err != nil {
		t.Fatalf("LoadTrackerConfig returned error: %v", err)
	}
	if got := cfg.MarkerSize(); got != 0.1 {
		t.Errorf("MarkerSize = %f, want 0.1", got)
	}
	// Unset fields keep defaults.
	if got := cfg.Dictionary(); got != DefaultDictionaryName {
		t.Errorf("Dictionary = %q, want default", got)
	}
	sm := cfg.Smoothing()
	if sm.Window != 7 || sm.PolyOrder != 2 {
		t.Errorf("Smoothing = %+v, want window 7 polyorder 2", sm)
	}
}

func TestLoadRejectsEvenSmoothingWindow(t *testing.T) {
	path := writeConfig(t, `{"smoothing_window": 4}`)
	if _, err := LoadTrackerConfig(path); err == nil {
		t.Error("expected error for even smoothing window")
	}
}

func TestLoadRejectsPolyOrderAtWindow(t *testing.T) {
	path := writeConfig(t, `{"smoothing_window": 5, "smoothing_poly_order": 5}`)
	if _, err := LoadTrackerConfig(path); err == nil {
		t.Error("expected error for poly order >= window")
	}
}

func TestLoadRejectsNonPositiveMarkerSize(t *testing.T) {
	path := writeConfig(t, `{"marker_size_meters": 0}`)
	if _, err := LoadTrackerConfig(path); err == nil {
		t.Error("expected error for zero marker size")
	}
}

func TestLoadRejectsNonJSONExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracker.yaml")
	if err := os.WriteFile(path, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadTrackerConfig(path); err == nil {
		t.Error("expected error for non-JSON extension")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := LoadTrackerConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDefaultsFileParses(t *testing.T) {
	// The shipped defaults file must itself load and validate.
	path := filepath.Join("..", "..", DefaultConfigPath)
	if _, err := os.Stat(path); err != nil {
		t.Skipf("defaults file not present: %v", err)
	}
	cfg, err := LoadTrackerConfig(path)
	if err != nil {
		t.Fatalf("shipped defaults failed to load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("shipped defaults invalid: %v", err)
	}
}
