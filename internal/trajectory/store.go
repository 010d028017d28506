package trajectory

import (
	"fmt"
	"sort"
	"sync"
)

// Store accumulates pose samples grouped by marker id, preserving arrival
// order within each marker's sequence. Within one recording session or one
// bulk load, insertion order equals temporal order.
//
// The store owns the sample sequences exclusively: SequenceFor returns a
// copy, so callers can never alias or mutate stored samples.
type Store struct {
	mu      sync.RWMutex
	samples map[int][]PoseSample
}

// NewStore creates an empty trajectory store.
func NewStore() *Store {
	return &Store{
		samples: make(map[int][]PoseSample),
	}
}

// Append inserts a sample at the end of its marker's sequence. The store
// does not validate or reorder; callers (the recording session or the bulk
// loader) are responsible for timestamp ordering.
func (s *Store) Append(sample PoseSample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples[sample.MarkerID] = append(s.samples[sample.MarkerID], sample)
}

// LoadBulk replaces the store contents with an unordered collection of
// samples, grouped by marker id and sorted by ascending timestamp within
// each group. This is the one place reordering happens: it normalises
// externally-authored CSV input that may interleave markers in arbitrary
// row order.
func (s *Store) LoadBulk(records []PoseSample) {
	grouped := make(map[int][]PoseSample)
	for _, r := range records {
		grouped[r.MarkerID] = append(grouped[r.MarkerID], r)
	}
	for id := range grouped {
		seq := grouped[id]
		sort.SliceStable(seq, func(i, j int) bool {
			return seq[i].Timestamp < seq[j].Timestamp
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = grouped
}

// Markers returns the marker ids present in the store, sorted ascending.
func (s *Store) Markers() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int, 0, len(s.samples))
	for id := range s.samples {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// SequenceFor returns a copy of the ordered sample sequence for the given
// marker. It returns ErrMarkerNotFound if the marker was never observed.
func (s *Store) SequenceFor(markerID int) ([]PoseSample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seq, ok := s.samples[markerID]
	if !ok {
		return nil, fmt.Errorf("marker %d: %w", markerID, ErrMarkerNotFound)
	}
	out := make([]PoseSample, len(seq))
	copy(out, seq)
	return out, nil
}

// All returns a copy of every stored sample across all markers, grouped by
// marker in ascending id order and time-ordered within each marker.
func (s *Store) All() []PoseSample {
	ids := s.Markers()
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []PoseSample
	for _, id := range ids {
		out = append(out, s.samples[id]...)
	}
	return out
}

// Len returns the total number of stored samples across all markers.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, seq := range s.samples {
		n += len(seq)
	}
	return n
}

// Clear empties all marker sequences. Used when a new recording session
// begins.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = make(map[int][]PoseSample)
}
