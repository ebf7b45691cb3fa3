package bridge

import "sync"

// ResumeLatest is the continuation marker for vendors whose CLI can only
// resume the most recent session in a directory, not an arbitrary session
// id. Storing it records "this key has completed a turn"; the launcher
// turns its presence into the vendor's resume-latest flag.
const ResumeLatest = "@latest"

// SessionStore maps opaque caller-supplied session keys to vendor
// continuation tokens (a session id, an agent id, or ResumeLatest).
//
// Entries are created on the first event of a call that carries a fresh
// vendor identifier and never expire; the caller removes them explicitly
// when starting a new conversation. The store is the only state shared
// across calls, so it is the only place that locks.
type SessionStore struct {
	mu     sync.Mutex
	tokens map[string]string
}

// NewSessionStore creates an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{tokens: make(map[string]string)}
}

// Token returns the continuation token for key, if any.
func (s *SessionStore) Token(key string) (string, bool) {
	if key == "" {
		return "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tok, ok := s.tokens[key]
	return tok, ok
}

// Capture stores token for key only when the key has no token yet, and
// reports whether it stored. First identifier wins: later ids observed
// during the same call (e.g. from subagent sessions) are ignored.
func (s *SessionStore) Capture(key, token string) bool {
	if key == "" || token == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tokens[key]; exists {
		return false
	}
	s.tokens[key] = token
	return true
}

// Replace overwrites the token for key unconditionally. Used when a
// terminal full-response payload reports a new id for the conversation.
func (s *SessionStore) Replace(key, token string) {
	if key == "" || token == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[key] = token
}

// Clear removes the token for key.
func (s *SessionStore) Clear(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, key)
}

// Len returns the number of stored tokens.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}
