// Package session holds the per-operator order composition state: the
// bearer credential, the resolved contragent, and the four required
// reference selections.
package session

import (
	"strings"
	"sync"

	"github.com/Danokray/Tablecrm/internal/domain/ident"
	"github.com/Danokray/Tablecrm/internal/domain/order"
)

// Session is the mutable selection state for one order. Safe for
// concurrent reads from the presentation loop while search callbacks
// fire on timer goroutines.
type Session struct {
	mu         sync.RWMutex
	token      string
	client     *order.Client
	selections map[order.ReferenceKind]ident.ID
}

// New creates a session, optionally seeded with a stored token.
func New(token string) *Session {
	return &Session{
		token:      strings.TrimSpace(token),
		selections: make(map[order.ReferenceKind]ident.ID),
	}
}

// SetToken replaces the bearer credential.
func (s *Session) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = strings.TrimSpace(token)
}

// Token returns the bearer credential, empty when unauthenticated.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// SetClient records the resolved contragent, replacing any previous
// one wholesale.
func (s *Session) SetClient(c order.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = &c
}

// Client returns the resolved contragent, if any.
func (s *Session) Client() (order.Client, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.client == nil {
		return order.Client{}, false
	}
	return *s.client, true
}

// ClearClient drops the resolved contragent.
func (s *Session) ClearClient() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = nil
}

// Select records the chosen entry for one reference dimension. An
// unset id clears the dimension.
func (s *Session) Select(kind order.ReferenceKind, id ident.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !id.IsSet() {
		delete(s.selections, kind)
		return
	}
	s.selections[kind] = id
}

// Selection returns the chosen entry for one dimension.
func (s *Session) Selection(kind order.ReferenceKind) (ident.ID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.selections[kind]
	return id, ok
}

// Complete reports whether a client is resolved and all four
// dimensions are selected.
func (s *Session) Complete() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.client == nil {
		return false
	}
	for _, kind := range order.Kinds() {
		if _, ok := s.selections[kind]; !ok {
			return false
		}
	}
	return true
}

// ResetOrder clears the client and all selections, retaining the
// credential. Called after a successful submission.
func (s *Session) ResetOrder() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = nil
	s.selections = make(map[order.ReferenceKind]ident.ID)
}

// Logout tears the session down entirely, credential included.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.client = nil
	s.selections = make(map[order.ReferenceKind]ident.ID)
}
