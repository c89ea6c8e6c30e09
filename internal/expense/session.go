package expense

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/expense-report/internal/scanning"
)

// Session owns one user's list of recorded expenses and the defaults read from
// their last scanned receipt. Nothing in a session is shared with other sessions.
type Session struct {
	ID string

	mu       sync.Mutex
	expenses []Expense
	prefill  *scanning.ExtractionResult
	lastSeen time.Time
}

// NewSession creates an empty session
func NewSession(id string) *Session {
	return &Session{ID: id}
}

// Expenses returns a copy of the recorded expenses ordered by date.
// Expenses on the same date keep the order they were added in.
func (s *Session) Expenses() []Expense {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := slices.Clone(s.expenses)
	slices.SortStableFunc(out, func(a, b Expense) int {
		return a.Date.Compare(b.Date)
	})
	return out
}

// Added returns a copy of the recorded expenses in the order they were added
func (s *Session) Added() []Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.expenses)
}

// Prefill returns the values read from the last scanned receipt, if any
func (s *Session) Prefill() (scanning.ExtractionResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.prefill == nil {
		return scanning.ExtractionResult{}, false
	}
	return *s.prefill, true
}

// SetPrefill stores the values read from a scanned receipt
func (s *Session) SetPrefill(r scanning.ExtractionResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefill = &r
}

// Reset drops every recorded expense and the scanned defaults
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses = nil
	s.prefill = nil
}

// record allocates the candidate against a consistent snapshot of the session and
// appends the resulting expense unless it was rejected
func (s *Session) record(c Candidate, build func(Decision) Expense) (*Expense, Decision) {
	s.mu.Lock()
	defer s.mu.Unlock()

	decision := Allocate(c, s.expenses)
	if decision.Outcome == Rejected {
		return nil, decision
	}

	e := build(decision)
	s.expenses = append(s.expenses, e)
	s.prefill = nil
	return &e, decision
}

// SessionStore keeps the sessions of the HTTP server in memory
type SessionStore struct {
	mu         sync.Mutex
	sessions   map[string]*Session
	ttl        time.Duration
	timeSource TimeSource
}

// NewSessionStore creates a store that forgets sessions idle for longer than ttl.
// A zero ttl keeps sessions until they are deleted.
func NewSessionStore(ttl time.Duration, timeSource TimeSource) *SessionStore {
	if timeSource == nil {
		timeSource = &defaultTimeSource{}
	}
	return &SessionStore{
		sessions:   make(map[string]*Session),
		ttl:        ttl,
		timeSource: timeSource,
	}
}

// Get returns the session with the given ID and marks it as used
func (st *SessionStore) Get(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.timeSource.Now()
	s, ok := st.sessions[id]
	if !ok {
		return nil, false
	}
	if st.expired(s, now) {
		delete(st.sessions, id)
		return nil, false
	}
	s.lastSeen = now
	return s, true
}

// Create starts a new session, sweeping expired ones first
func (st *SessionStore) Create() *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.timeSource.Now()
	for id, s := range st.sessions {
		if st.expired(s, now) {
			delete(st.sessions, id)
		}
	}

	s := NewSession(uuid.NewString())
	s.lastSeen = now
	st.sessions[s.ID] = s
	return s
}

// size returns the number of sessions held, expired or not
func (st *SessionStore) size() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

func (st *SessionStore) expired(s *Session, now time.Time) bool {
	return st.ttl > 0 && now.Sub(s.lastSeen) > st.ttl
}
