package research

import (
	"sync"
	"time"

	"company_research/pkg/core/utils"
)

// Session is the set of documents retrieved for one company.
type Session struct {
	Company   string    `json:"company"`
	DocIDs    []string  `json:"doc_ids"`
	Source    string    `json:"source"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SessionStore keeps retrieved doc ids in memory, keyed by normalized company name.
type SessionStore struct {
	sessions map[string]Session
	mu       sync.RWMutex
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]Session)}
}

// Put replaces the session for company.
func (s *SessionStore) Put(company string, docIDs []string, source string) Session {
	sess := Session{
		Company:   company,
		DocIDs:    append([]string(nil), docIDs...),
		Source:    source,
		UpdatedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[utils.NormalizeCompanyName(company)] = sess
	return sess
}

// Get returns the session for company, if any.
func (s *SessionStore) Get(company string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[utils.NormalizeCompanyName(company)]
	return sess, ok
}
