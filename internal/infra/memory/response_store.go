package memory

import (
	"context"
	"fmt"
	"sync"

	"challenge-response-service/internal/domain"
)

// ResponseStore is an in-memory implementation of app.ResponseRepository.
// Documents are cloned on the way in and out so callers never share maps with it.
type ResponseStore struct {
	mu        sync.RWMutex
	responses map[string]domain.Response
}

func NewResponseStore() *ResponseStore {
	return &ResponseStore{
		responses: make(map[string]domain.Response),
	}
}

func (s *ResponseStore) Insert(_ context.Context, r domain.Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.responses[r.ID]; exists {
		return fmt.Errorf("response %s already exists", r.ID)
	}
	s.responses[r.ID] = r.Clone()
	return nil
}

func (s *ResponseStore) FindByID(_ context.Context, responseID string) (domain.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.responses[responseID]
	if !ok {
		return domain.Response{}, domain.ErrResponseNotFound
	}
	return r.Clone(), nil
}

func (s *ResponseStore) Replace(_ context.Context, r domain.Response, expected domain.ResponseStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.responses[r.ID]
	if !ok {
		return domain.ErrResponseNotFound
	}
	if current.Status != expected {
		return domain.ErrStatusConflict
	}
	s.responses[r.ID] = r.Clone()
	return nil
}
