package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileStore persists each farmer's state as a JSON file under a data
// directory. Writes go through a temp file and rename so a crash mid-write
// never leaves a truncated state file.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates the data directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Load reads the farmer's state file, returning ErrNotFound when absent.
func (s *FileStore) Load(farmerID string) (FarmerState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(farmerID))
	if err != nil {
		if os.IsNotExist(err) {
			return FarmerState{}, ErrNotFound
		}
		return FarmerState{}, fmt.Errorf("read farmer state: %w", err)
	}

	var state FarmerState
	if err := json.Unmarshal(data, &state); err != nil {
		return FarmerState{}, fmt.Errorf("decode farmer state: %w", err)
	}
	return state, nil
}

// Save writes the farmer's state atomically.
func (s *FileStore) Save(farmerID string, state FarmerState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode farmer state: %w", err)
	}

	path := s.path(farmerID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write farmer state: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace farmer state: %w", err)
	}
	return nil
}

// path sanitizes the farmer ID into a filename; IDs come from the host
// application and may contain separators.
func (s *FileStore) path(farmerID string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '.':
			return '_'
		}
		return r
	}, farmerID)
	return filepath.Join(s.dir, name+".json")
}
