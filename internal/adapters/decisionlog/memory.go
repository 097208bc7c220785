package decisionlog

import (
	"context"
	"sync"

	"github.com/0xcro3dile/ragroute/internal/domain/entities"
)

// Store defaults.
const (
	DefaultRecentLimit = 50
	DefaultCapacity    = 1000
)

// MemoryLog keeps the most recent decisions in a ring buffer.
type MemoryLog struct {
	mu      sync.RWMutex
	records []entities.DecisionRecord
	next    int
	full    bool
}

// NewMemoryLog creates a ring buffer holding up to capacity decisions.
func NewMemoryLog(capacity int) *MemoryLog {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemoryLog{records: make([]entities.DecisionRecord, capacity)}
}

// Record implements ports.DecisionLog. The oldest entry is overwritten when full.
func (s *MemoryLog) Record(ctx context.Context, rec entities.DecisionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[s.next] = rec
	s.next = (s.next + 1) % len(s.records)
	if s.next == 0 {
		s.full = true
	}
	return nil
}

// Recent implements ports.DecisionLog.
func (s *MemoryLog) Recent(ctx context.Context, limit int) ([]entities.DecisionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	size := s.next
	if s.full {
		size = len(s.records)
	}
	if limit > size {
		limit = size
	}

	out := make([]entities.DecisionRecord, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (s.next - i + len(s.records)) % len(s.records)
		out = append(out, s.records[idx])
	}
	return out, nil
}
