package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/marker-data/trajectory.report/internal/charts"
	"github.com/marker-data/trajectory.report/internal/config"
	"github.com/marker-data/trajectory.report/internal/trajdb"
	"github.com/marker-data/trajectory.report/internal/trajectory"
	"github.com/marker-data/trajectory.report/internal/units"
)

type Server struct {
	store   *trajectory.Store
	session *trajectory.RecordingSession
	db      *trajdb.DB
	cfg     *config.TrackerConfig
	units   string
}

func NewServer(store *trajectory.Store, session *trajectory.RecordingSession, db *trajdb.DB, cfg *config.TrackerConfig, speedUnits string) *Server {
	return &Server{
		store:   store,
		session: session,
		db:      db,
		cfg:     cfg,
		units:   speedUnits,
	}
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.homeHandler)

	mux.HandleFunc("/api/poses", s.observeHandler)
	mux.HandleFunc("/api/session", s.sessionHandler)
	mux.HandleFunc("/api/session/toggle", s.toggleHandler)
	mux.HandleFunc("/api/markers", s.markersHandler)
	mux.HandleFunc("/api/config", s.configHandler)
	mux.HandleFunc("/api/summary", s.summaryHandler)
	mux.HandleFunc("/api/export", s.exportDerivedHandler)
	mux.HandleFunc("/api/trajectory.csv", s.exportRawHandler)
	mux.HandleFunc("/api/episodes", s.episodesHandler)
	mux.HandleFunc("/api/episodes/load", s.loadEpisodeHandler)

	mux.HandleFunc("/charts/position", s.chartHandler(charts.RenderPosition))
	mux.HandleFunc("/charts/velocity", s.chartHandler(charts.RenderVelocity))
	mux.HandleFunc("/charts/distance", s.chartHandler(charts.RenderDistance))
	mux.HandleFunc("/charts/angular", s.chartHandler(charts.RenderAngular))
	mux.HandleFunc("/charts/acceleration", s.chartHandler(charts.RenderAcceleration))

	return mux
}

func (s *Server) homeHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("Welcome to the Trajectory Server!"))
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// observeHandler ingests one frame of detector output. Samples are only
// appended while a recording session is active; the response reports how
// many were accepted so detectors can tell gating from failure.
func (s *Server) observeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ObserveRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	obs := make([]trajectory.Observation, len(req.Detections))
	for i, d := range req.Detections {
		obs[i] = trajectory.Observation{
			MarkerID:    d.MarkerID,
			Translation: d.Translation,
			Rotation:    d.Rotation,
		}
	}

	appended := s.session.Observe(req.Frame, obs)
	s.writeJSON(w, ObserveResponse{
		Recording: s.session.IsRecording(),
		Appended:  appended,
	})
}

func (s *Server) sessionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status := SessionStatus{
		Recording:   s.session.IsRecording(),
		SessionID:   s.session.SessionID(),
		SampleCount: s.store.Len(),
	}
	if elapsed, err := s.session.Elapsed(); err == nil {
		status.ElapsedSecs = &elapsed
	}
	s.writeJSON(w, status)
}

// toggleHandler flips the recording state. Stopping a non-empty session
// persists the episode before replying, so a client that sees the response
// can immediately load it back.
func (s *Server) toggleHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	recording := s.session.Toggle()
	resp := ToggleResponse{
		Recording: recording,
		SessionID: s.session.SessionID(),
	}

	if !recording {
		samples := s.store.All()
		if len(samples) > 0 {
			if err := s.db.SaveEpisode(s.session.SessionID(), s.session.StartedAt(), time.Now(), samples); err != nil {
				s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to persist episode: %v", err))
				return
			}
			resp.Persisted = len(samples)
		}
		log.Printf("recording stopped: session=%s samples=%d", s.session.SessionID(), len(samples))
	} else {
		log.Printf("recording started: session=%s", s.session.SessionID())
	}

	s.writeJSON(w, resp)
}

func (s *Server) markersHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, map[string]interface{}{
		"markers":      s.store.Markers(),
		"sample_count": s.store.Len(),
	})
}

// configHandler reports the effective tuning parameters after defaults.
func (s *Server) configHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sm := s.cfg.Smoothing()
	s.writeJSON(w, map[string]interface{}{
		"marker_size_meters":   s.cfg.MarkerSize(),
		"dictionary_name":      s.cfg.Dictionary(),
		"calibration_path":     s.cfg.CalibrationFile(),
		"frame_skip":           s.cfg.VideoFrameSkip(),
		"smoothing_enabled":    sm.Enabled,
		"smoothing_window":     sm.Window,
		"smoothing_poly_order": sm.PolyOrder,
		"speed_units":          s.units,
	})
}

// summaryHandler returns summary statistics for one marker
// (?marker_id=N&units=mph) or for all markers when marker_id is omitted.
func (s *Server) summaryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	speedUnits := s.units
	if u := r.URL.Query().Get("units"); u != "" {
		if !units.IsValid(u) {
			s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid units %q (valid: %s)", u, units.ValidUnitsString()))
			return
		}
		speedUnits = u
	}

	markerIDs := s.store.Markers()
	if q := r.URL.Query().Get("marker_id"); q != "" {
		id, err := strconv.Atoi(q)
		if err != nil {
			s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid marker_id %q", q))
			return
		}
		markerIDs = []int{id}
	}

	summaries := make([]JSONMarkerSummary, 0, len(markerIDs))
	for _, id := range markerIDs {
		ds, err := s.deriveMarker(id)
		if err != nil {
			if errors.Is(err, trajectory.ErrMarkerNotFound) {
				s.writeJSONError(w, http.StatusNotFound, err.Error())
			} else {
				s.writeJSONError(w, http.StatusInternalServerError, err.Error())
			}
			return
		}
		summaries = append(summaries, toJSONSummary(trajectory.Summarize(ds), speedUnits))
	}

	s.writeJSON(w, map[string]interface{}{"summaries": summaries})
}

// exportDerivedHandler streams the full derived-kinematics table as CSV.
// CSV sidesteps JSON's inability to carry the NaN sentinels the derivative
// columns legitimately hold.
func (s *Server) exportDerivedHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	all, err := s.deriveAll()
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=analysis_metrics.csv")
	if err := trajectory.WriteDerivedCSV(w, all...); err != nil {
		log.Printf("failed to write derived CSV: %v", err)
	}
}

func (s *Server) exportRawHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=trajectory.csv")
	if err := trajectory.WriteCSV(w, s.store.All()); err != nil {
		log.Printf("failed to write trajectory CSV: %v", err)
	}
}

func (s *Server) episodesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	episodes, err := s.db.Episodes()
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list episodes: %v", err))
		return
	}

	type episodeJSON struct {
		SessionID   string `json:"session_id"`
		StartedAt   string `json:"started_at"`
		StoppedAt   string `json:"stopped_at,omitempty"`
		SampleCount int    `json:"sample_count"`
	}
	out := make([]episodeJSON, 0, len(episodes))
	for _, e := range episodes {
		ej := episodeJSON{
			SessionID:   e.SessionID,
			StartedAt:   time.Unix(0, e.StartedUnixNanos).UTC().Format(time.RFC3339),
			SampleCount: e.SampleCount,
		}
		if e.StoppedUnixNanos != 0 {
			ej.StoppedAt = time.Unix(0, e.StoppedUnixNanos).UTC().Format(time.RFC3339)
		}
		out = append(out, ej)
	}
	s.writeJSON(w, map[string]interface{}{"episodes": out})
}

// loadEpisodeHandler replaces the in-memory store with a persisted episode.
// Refused while recording so a live session cannot be clobbered.
func (s *Server) loadEpisodeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		s.writeJSONError(w, http.StatusBadRequest, "session_id is required")
		return
	}
	if s.session.IsRecording() {
		s.writeJSONError(w, http.StatusConflict, "cannot load an episode while recording")
		return
	}

	samples, err := s.db.LoadEpisode(sessionID)
	if err != nil {
		s.writeJSONError(w, http.StatusNotFound, fmt.Sprintf("failed to load episode %s: %v", sessionID, err))
		return
	}

	s.store.LoadBulk(samples)
	s.writeJSON(w, map[string]interface{}{
		"session_id":   sessionID,
		"sample_count": len(samples),
		"markers":      s.store.Markers(),
	})
}

// chartHandler renders into a buffer first so a mid-render failure becomes a
// clean error response instead of a truncated page.
func (s *Server) chartHandler(render func(io.Writer, []*trajectory.DerivedSeries) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		all, err := s.deriveAll()
		if err != nil {
			s.writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if len(all) == 0 {
			http.Error(w, "No trajectory data captured yet", http.StatusNotFound)
			return
		}

		var buf bytes.Buffer
		if err := render(&buf, all); err != nil {
			s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(buf.Bytes())
	}
}

func (s *Server) deriveMarker(markerID int) (*trajectory.DerivedSeries, error) {
	seq, err := s.store.SequenceFor(markerID)
	if err != nil {
		return nil, err
	}
	return trajectory.Derive(seq, s.cfg.Smoothing())
}

func (s *Server) deriveAll() ([]*trajectory.DerivedSeries, error) {
	var all []*trajectory.DerivedSeries
	for _, id := range s.store.Markers() {
		ds, err := s.deriveMarker(id)
		if err != nil {
			return nil, fmt.Errorf("failed to derive marker %d: %w", id, err)
		}
		all = append(all, ds)
	}
	return all, nil
}
