package operations

import (
	"fmt"
	"slices"
	"sync"

	"charmcli/pkg/contracts/domain"
)

// MemoryRunStore is an in-memory implementation of RunStore
type MemoryRunStore struct {
	mu   sync.RWMutex
	runs map[string]domain.RunRecord
}

// NewMemoryRunStore creates a new in-memory run store
func NewMemoryRunStore() *MemoryRunStore {
	return &MemoryRunStore{
		runs: make(map[string]domain.RunRecord),
	}
}

// CreateRun stores a new run
func (s *MemoryRunStore) CreateRun(rec domain.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[rec.ID]; exists {
		return fmt.Errorf("run %s already exists", rec.ID)
	}
	s.runs[rec.ID] = clone(rec)
	return nil
}

// UpdateRun replaces an existing run
func (s *MemoryRunStore) UpdateRun(rec domain.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[rec.ID]; !exists {
		return fmt.Errorf("%w: %s", ErrRunNotFound, rec.ID)
	}
	s.runs[rec.ID] = clone(rec)
	return nil
}

// GetRun retrieves a run by ID
func (s *MemoryRunStore) GetRun(id string) (domain.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.runs[id]
	if !exists {
		return domain.RunRecord{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return clone(rec), nil
}

// ListRuns returns runs matching the filter, newest first
func (s *MemoryRunStore) ListRuns(filter RunFilter) ([]domain.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := make([]domain.RunRecord, 0, len(s.runs))
	for _, rec := range s.runs {
		if filter.Match(rec) {
			recs = append(recs, clone(rec))
		}
	}
	return newestFirst(recs, filter.Limit), nil
}

// Close is a no-op
func (s *MemoryRunStore) Close() error {
	return nil
}

func clone(rec domain.RunRecord) domain.RunRecord {
	rec.Participants = slices.Clone(rec.Participants)
	rec.Steps = slices.Clone(rec.Steps)
	return rec
}
