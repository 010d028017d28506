package trajectory

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RecordingSession is the two-state machine that gates live capture. While
// Recording, observations are stamped with a timestamp relative to the
// session origin and appended to the store. While Idle nothing is appended,
// regardless of whether upstream detection succeeds.
//
// The Idle -> Recording transition clears the store and captures the new
// origin as a single atomic step: Observe holds the same lock, so no sample
// stamped from a stale origin can ever land after a transition begins.
type RecordingSession struct {
	mu        sync.Mutex
	store     *Store
	recording bool
	sessionID string
	start     time.Time
	now       func() time.Time
}

// NewRecordingSession creates an idle session writing into store.
func NewRecordingSession(store *Store) *RecordingSession {
	return &RecordingSession{
		store: store,
		now:   time.Now,
	}
}

// Toggle flips Idle <-> Recording and returns the new recording state.
// Starting a session discards all previously captured samples across all
// markers and zeroes the time axis; stopping retains everything captured
// until the next start.
func (rs *RecordingSession) Toggle() bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.recording {
		rs.recording = false
		return false
	}

	rs.store.Clear()
	rs.start = rs.now()
	rs.sessionID = uuid.NewString()
	rs.recording = true
	return true
}

// IsRecording reports whether the session is currently recording.
func (rs *RecordingSession) IsRecording() bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.recording
}

// SessionID returns the id of the current (or most recent) recording
// episode, or "" if no episode has started yet.
func (rs *RecordingSession) SessionID() string {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.sessionID
}

// StartedAt returns the wall-clock origin of the current (or most recent)
// episode.
func (rs *RecordingSession) StartedAt() time.Time {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.start
}

// Elapsed returns seconds since the session origin. It returns
// ErrSessionIdle when called while idle.
func (rs *RecordingSession) Elapsed() (float64, error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if !rs.recording {
		return 0, fmt.Errorf("elapsed: %w", ErrSessionIdle)
	}
	return rs.now().Sub(rs.start).Seconds(), nil
}

// Observe stamps the detections from one frame with the session-relative
// timestamp and appends them to the store. It returns the number of samples
// appended: zero while idle. All detections from the same frame share one
// timestamp.
func (rs *RecordingSession) Observe(frame int, obs []Observation) int {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.recording || len(obs) == 0 {
		return 0
	}

	ts := rs.now().Sub(rs.start).Seconds()
	for _, o := range obs {
		rs.store.Append(PoseSample{
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
