package measure

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/crest-data/freeboard.report/internal/profile"
)

// Session groups the records of one analysis run over one wall. All access
// goes through its methods; records are copied in and out so callers never
// share mutable state with the session.
type Session struct {
	id        string
	wall      string
	mode      Mode
	createdAt time.Time

	mu       sync.RWMutex
	records  map[float64]*Record
	profiles map[float64]*profile.Profile
}

// NewSession creates an empty session for a wall and mode.
func NewSession(wall string, mode Mode) (*Session, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("unknown measurement mode %q", mode)
	}
	return &Session{
		id:        uuid.New().String(),
		wall:      wall,
		mode:      mode,
		createdAt: time.Now().UTC(),
		records:   make(map[float64]*Record),
		profiles:  make(map[float64]*profile.Profile),
	}, nil
}

// RestoreSession rebuilds a session with a known identity, used when
// loading persisted sessions.
func RestoreSession(id, wall string, mode Mode, createdAt time.Time) (*Session, error) {
	s, err := NewSession(wall, mode)
	if err != nil {
		return nil, err
	}
	s.id = id
	s.createdAt = createdAt
	return s, nil
}

func (s *Session) ID() string           { return s.id }
func (s *Session) Wall() string         { return s.wall }
func (s *Session) Mode() Mode           { return s.mode }
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Get returns a copy of the record at chainage.
func (s *Session) Get(chainage float64) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[chainage]
	if !ok {
		return Record{}, false
	}
	return *r, true
}

// Put stores a copy of rec, replacing any record at the same chainage.
func (s *Session) Put(rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := rec
	s.records[rec.Chainage] = &cp
}

// Apply runs fn against the record at chainage under the session lock,
// creating the record if missing. Manual overrides from the API layer go
// through here.
func (s *Session) Apply(chainage float64, fn func(*Record)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[chainage]
	if !ok {
		r = NewRecord(chainage)
		s.records[chainage] = r
	}
	fn(r)
}

// Records returns copies of every record ordered by chainage.
func (s *Session) Records() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Chainage < out[j].Chainage })
	return out
}

// Len returns the number of records in the session.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// SetProfile caches the generated cross-section for a station so charts
// and renders do not re-sample the terrain.
func (s *Session) SetProfile(p *profile.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.Chainage] = p
}

// Profile returns the cached cross-section for a chainage.
func (s *Session) Profile(chainage float64) (*profile.Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[chainage]
	return p, ok
}
