package store

import (
	"context"
	"fmt"
	"sync"

	"namecheck/internal/ownercheck/models"
	"namecheck/pkg/platform/sentinel"
)

// InMemoryStore keeps sessions for the life of the process.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.SessionState
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]*models.SessionState)}
}

func (s *InMemoryStore) Load(_ context.Context, accountNumber string) (*models.SessionState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.sessions[accountNumber]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", accountNumber, sentinel.ErrNotFound)
	}
	return st.Clone(), nil
}

func (s *InMemoryStore) Save(_ context.Context, accountNumber string, state *models.SessionState) error {
	if err := validateKey(accountNumber); err != nil {
		return err
	}
	if state == nil {
		return fmt.Errorf("session state is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[accountNumber] = state.Clone()
	return nil
}
