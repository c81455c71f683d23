package store

import "sync"

// MemoryStore is a concurrency-safe in-memory Store.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]FarmerState
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]FarmerState)}
}

// Load returns the saved state for a farmer, or ErrNotFound.
func (s *MemoryStore) Load(farmerID string) (FarmerState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.data[farmerID]
	if !ok {
		return FarmerState{}, ErrNotFound
	}
	return state, nil
}

// Save overwrites the farmer's state.
func (s *MemoryStore) Save(farmerID string, state FarmerState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[farmerID] = state
	return nil
}
