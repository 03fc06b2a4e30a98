package catalog

import (
	"context"
	"errors"
	"sync"
)

var errDuplicateID = errors.New("duplicate id")

// MemStore keeps products in insertion order.
type MemStore struct {
	mu    sync.RWMutex
	m     map[string]Product
	order []string
}

func NewMemStore(seed ...Product) *MemStore {
	s := &MemStore{m: map[string]Product{}}
	for _, p := range seed {
		s.m[p.ID] = p
		s.order = append(s.order, p.ID)
	}
	return s
}

func (s *MemStore) Ping(ctx context.Context) error  { return nil }
func (s *MemStore) Close(ctx context.Context) error { return nil }

func (s *MemStore) Create(ctx context.Context, p Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.m[p.ID]; ok {
		return &StorageError{Op: "create", Err: errDuplicateID, Conflict: true}
	}
	s.m[p.ID] = p
	s.order = append(s.order, p.ID)
	return nil
}

func (s *MemStore) ListAll(ctx context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Product, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.m[id])
	}
	return out, nil
}

func (s *MemStore) Get(ctx context.Context, id string) (Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.m[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (s *MemStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.m[id]; !ok {
		return ErrNotFound
	}
	delete(s.m, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}
