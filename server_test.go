package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/marker-data/trajectory.report/internal/config"
	"github.com/marker-data/trajectory.report/internal/trajdb"
	"github.com/marker-data/trajectory.report/internal/trajectory"
	"github.com/marker-data/trajectory.report/internal/units"
)

func setupTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	db, err := trajdb.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store := trajectory.NewStore()
	session := trajectory.NewRecordingSession(store)
	server := NewServer(store, session, db, config.EmptyTrackerConfig(), units.MPS)

	ts := httptest.NewServer(server.ServeMux())
	t.Cleanup(ts.Close)
	return server, ts
}

func postJSON(t *testing.T, url string, body interface{}, out interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request: %v", err)
		}
	}
	resp, err := http.Post(url, "application/json", &buf)
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("failed to decode response from %s: %v", url, err)
		}
	}
	return resp
}

func getJSON(t *testing.T, url string, out interface{}) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("failed to decode response from %s: %v", url, err)
		}
	}
	return resp
}

func observeFrames(t *testing.T, baseURL string, frames int) {
	t.Helper()
	for i := 0; i < frames; i++ {
		req := ObserveRequest{
			Frame: i,
			Detections: []PoseObservation{
				{MarkerID: 1, Translation: [3]float64{float64(i) * 0.01, 0, 1}},
			},
		}
		var resp ObserveResponse
		postJSON(t, baseURL+"/api/poses", req, &resp)
		if resp.Appended != 1 {
			t.Fatalf("frame %d: appended %d, want 1", i, resp.Appended)
		}
	}
}

func TestObserveIgnoredWhileIdle(t *testing.T) {
	_, ts := setupTestServer(t)

	req := ObserveRequest{Frame: 0, Detections: []PoseObservation{{MarkerID: 1}}}
	var resp ObserveResponse
	postJSON(t, ts.URL+"/api/poses", req, &resp)

	if resp.Recording {
		t.Error("expected idle session")
	}
	if resp.Appended != 0 {
		t.Errorf("idle session appended %d samples, want 0", resp.Appended)
	}
}

func TestRecordingFlow(t *testing.T) {
	_, ts := setupTestServer(t)

	var toggle ToggleResponse
	postJSON(t, ts.URL+"/api/session/toggle", nil, &toggle)
	if !toggle.Recording {
		t.Fatal("first toggle should start recording")
	}
	if toggle.SessionID == "" {
		t.Fatal("expected a session id")
	}

	observeFrames(t, ts.URL, 10)

	var status SessionStatus
	getJSON(t, ts.URL+"/api/session", &status)
	if !status.Recording || status.SampleCount != 10 {
		t.Fatalf("status = %+v, want recording with 10 samples", status)
	}
	if status.ElapsedSecs == nil {
		t.Error("expected elapsed_secs while recording")
	}

	var stop ToggleResponse
	postJSON(t, ts.URL+"/api/session/toggle", nil, &stop)
	if stop.Recording {
		t.Fatal("second toggle should stop recording")
	}
	if stop.Persisted != 10 {
		t.Errorf("persisted %d samples, want 10", stop.Persisted)
	}

	// The stopped episode is listed and loadable.
	var episodes struct {
		Episodes []struct {
			SessionID   string `json:"session_id"`
			SampleCount int    `json:"sample_count"`
		} `json:"episodes"`
	}
	getJSON(t, ts.URL+"/api/episodes", &episodes)
	if len(episodes.Episodes) != 1 || episodes.Episodes[0].SessionID != stop.SessionID {
		t.Fatalf("episodes = %+v, want the stopped session", episodes.Episodes)
	}

	var loaded struct {
		SampleCount int   `json:"sample_count"`
		Markers     []int `json:"markers"`
	}
	resp := postJSON(t, ts.URL+"/api/episodes/load?session_id="+stop.SessionID, nil, &loaded)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("load episode status = %d", resp.StatusCode)
	}
	if loaded.SampleCount != 10 {
		t.Errorf("loaded %d samples, want 10", loaded.SampleCount)
	}
}

func TestToggleClearsPreviousCapture(t *testing.T) {
	server, ts := setupTestServer(t)

	postJSON(t, ts.URL+"/api/session/toggle", nil, nil)
	observeFrames(t, ts.URL, 3)
	postJSON(t, ts.URL+"/api/session/toggle", nil, nil)

	if server.store.Len() != 3 {
		t.Fatalf("store length = %d, want 3 after stop", server.store.Len())
	}

	postJSON(t, ts.URL+"/api/session/toggle", nil, nil)
	if server.store.Len() != 0 {
		t.Errorf("store length = %d, want 0 after restart", server.store.Len())
	}
}

func TestSummaryEndpoint(t *testing.T) {
	_, ts := setupTestServer(t)

	postJSON(t, ts.URL+"/api/session/toggle", nil, nil)
	observeFrames(t, ts.URL, 8)
	postJSON(t, ts.URL+"/api/session/toggle", nil, nil)

	var out struct {
		Summaries []JSONMarkerSummary `json:"summaries"`
	}
	resp := getJSON(t, ts.URL+"/api/summary?marker_id=1&units=mph", &out)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("summary status = %d", resp.StatusCode)
	}
	if len(out.Summaries) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(out.Summaries))
	}
	s := out.Summaries[0]
	if s.MarkerID != 1 || s.SampleCount != 8 {
		t.Errorf("summary = marker %d count %d, want marker 1 count 8", s.MarkerID, s.SampleCount)
	}
	if s.SpeedUnits != "mph" {
		t.Errorf("speed units = %q, want mph", s.SpeedUnits)
	}
}

func TestSummaryUnknownMarker(t *testing.T) {
	_, ts := setupTestServer(t)

	resp := getJSON(t, ts.URL+"/api/summary?marker_id=99", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestSummaryInvalidUnits(t *testing.T) {
	_, ts := setupTestServer(t)

	resp := getJSON(t, ts.URL+"/api/summary?units=knots", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestExportEndpoints(t *testing.T) {
	_, ts := setupTestServer(t)

	postJSON(t, ts.URL+"/api/session/toggle", nil, nil)
	observeFrames(t, ts.URL, 4)
	postJSON(t, ts.URL+"/api/session/toggle", nil, nil)

	resp, err := http.Get(ts.URL + "/api/trajectory.csv")
	if err != nil {
		t.Fatalf("GET trajectory.csv: %v", err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 5 {
		t.Errorf("raw export has %d lines, want header + 4 rows", len(lines))
	}
	if lines[0] != "timestamp,frame,marker_id,x,y,z,rx,ry,rz" {
		t.Errorf("unexpected raw export header: %s", lines[0])
	}

	resp2, err := http.Get(ts.URL + "/api/export")
	if err != nil {
		t.Fatalf("GET export: %v", err)
	}
	defer resp2.Body.Close()
	if ct := resp2.Header.Get("Content-Type"); ct != "text/csv" {
		t.Errorf("derived export content type = %q, want text/csv", ct)
	}
}

func TestLoadEpisodeRefusedWhileRecording(t *testing.T) {
	_, ts := setupTestServer(t)

	postJSON(t, ts.URL+"/api/session/toggle", nil, nil)
	resp := postJSON(t, ts.URL+"/api/episodes/load?session_id=whatever", nil, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409", resp.StatusCode)
	}
}

func TestChartEndpoints(t *testing.T) {
	_, ts := setupTestServer(t)

	postJSON(t, ts.URL+"/api/session/toggle", nil, nil)
	observeFrames(t, ts.URL, 10)
	postJSON(t, ts.URL+"/api/session/toggle", nil, nil)

	for _, name := range []string{"position", "velocity", "distance", "angular", "acceleration"} {
		resp, err := http.Get(fmt.Sprintf("%s/charts/%s", ts.URL, name))
		if err != nil {
			t.Fatalf("GET /charts/%s: %v", name, err)
		}
		var buf bytes.Buffer
		buf.ReadFrom(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("/charts/%s status = %d", name, resp.StatusCode)
			continue
		}
		if !strings.Contains(buf.String(), "<html") {
			t.Errorf("/charts/%s did not return HTML", name)
		}
	}
}

func TestChartEndpointsEmptyStore(t *testing.T) {
	_, ts := setupTestServer(t)

	resp := getJSON(t, ts.URL+"/charts/position", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for empty store", resp.StatusCode)
	}
}

func TestConfigEndpoint(t *testing.T) {
	_, ts := setupTestServer(t)

	var cfg struct {
		MarkerSize      float64 `json:"marker_size_meters"`
		Dictionary      string  `json:"dictionary_name"`
		SmoothingWindow int     `json:"smoothing_window"`
		SpeedUnits      string  `json:"speed_units"`
	}
	resp := getJSON(t, ts.URL+"/api/config", &cfg)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("config status = %d", resp.StatusCode)
	}
	if cfg.MarkerSize != 0.05 || cfg.Dictionary != "DICT_4X4_50" {
		t.Errorf("defaults not reported: %+v", cfg)
	}
	if cfg.SmoothingWindow != 5 || cfg.SpeedUnits != "mps" {
		t.Errorf("defaults not reported: %+v", cfg)
	}
}

func TestFloatMarshalsNonFiniteAsNull(t *testing.T) {
	b, err := json.Marshal(struct {
		A Float `json:"a"`
		B Float `json:"b"`
		C Float `json:"c"`
	}{Float(math.NaN()), Float(math.Inf(1)), Float(1.5)})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	want := `{"a":null,"b":null,"c":1.5}`
	if string(b) != want {
		t.Errorf("got %s, want %s", b, want)
	}
}
