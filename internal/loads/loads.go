// Package loads tracks data load attempts against the remote source. The
// dashboard has no persistence of its own, so records live in memory and
// are lost on restart.
package loads

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of one load attempt.
type Status string

const (
	// StatusRunning indicates the fetch/aggregate cycle is in flight.
	StatusRunning Status = "running"
	// StatusSucceeded indicates the collection was replaced.
	StatusSucceeded Status = "succeeded"
	// StatusFailed indicates a fetch or schema failure; previous data stands.
	StatusFailed Status = "failed"
)

// Record is one load attempt. Overlapping attempts are not de-duplicated;
// each gets its own record and the last successful one wins.
type Record struct {
	ID            string     `json:"id"`
	Source        string     `json:"source"`
	Status        Status     `json:"status"`
	Error         string     `json:"error,omitempty"`
	RowCount      int        `json:"rowCount"`
	MaterialCount int        `json:"materialCount"`
	StartedAt     time.Time  `json:"startedAt"`
	FinishedAt    *time.Time `json:"finishedAt,omitempty"`
}

// Store is an in-memory record of load attempts, safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	records map[string]*Record
	order   []string
}

// NewStore creates an empty load store.
func NewStore() *Store {
	return &Store{records: map[string]*Record{}}
}

// Begin registers a new running attempt and returns a copy of its record.
func (s *Store) Begin(ctx context.Context, source string) *Record {
	rec := &Record{
		ID:        uuid.NewString(),
		Source:    source,
		Status:    StatusRunning,
		StartedAt: time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[rec.ID] = rec
	s.order = append(s.order, rec.ID)

	recCopy := *rec
	return &recCopy
}

// Finish marks an attempt succeeded with the counts it produced.
func (s *Store) Finish(ctx context.Context, id string, rowCount, materialCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.records[id]
	if !exists {
		return fmt.Errorf("load not found: %s", id)
	}

	now := time.Now()
	rec.Status = StatusSucceeded
	rec.RowCount = rowCount
	rec.MaterialCount = materialCount
	rec.FinishedAt = &now
	return nil
}

// Fail marks an attempt failed with the error's message.
func (s *Store) Fail(ctx context.Context, id string, loadErr error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.records[id]
	if !exists {
		return fmt.Errorf("load not found: %s", id)
	}

	now := time.Now()
	rec.Status = StatusFailed
	rec.FinishedAt = &now
	if loadErr != nil {
		rec.Error = loadErr.Error()
	}
	return nil
}

// Get retrieves a copy of one record by ID.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.records[id]
	if !exists {
		return nil, fmt.Errorf("load not found: %s", id)
	}

	recCopy := *rec
	return &recCopy, nil
}

// List returns copies of the records, newest first. A positive limit caps
// the result.
func (s *Store) List(ctx context.Context, limit int) []*Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Record, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		recCopy := *s.records[s.order[i]]
		result = append(result, &recCopy)
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result
}
