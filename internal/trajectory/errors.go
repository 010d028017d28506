package trajectory

import (
	"errors"
	"fmt"
)

// ErrMarkerNotFound is returned when a marker id was never observed in the
// store.
var ErrMarkerNotFound = errors.New("marker not found")

// ErrSessionIdle is returned by operations that require an active recording
// session when the session is idle.
var ErrSessionIdle = errors.New("recording session is idle")

// MalformedRecordError reports a persisted trajectory record that is missing
// a required field or carries a non-numeric value. The bulk loader fails the
// entire load on the first malformed record so derivation never runs over a
// silently incomplete dataset.
type MalformedRecordError struct {
	Line   int    // 1-based line in the source file, 0 if unknown
	Reason string
}

func (e *MalformedRecordError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed record at line %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("malformed record: %s", e.Reason)
}
