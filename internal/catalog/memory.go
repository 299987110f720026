package catalog

import (
	"context"
	"fmt"
	"sync"

	"rentalmap/internal/models"
)

// MemoryStore serves an in-memory slice of properties in its stored order
type MemoryStore struct {
	mu       sync.RWMutex
	records  []models.Property
	pageSize int
}

func NewMemoryStore(records []models.Property, pageSize int) *MemoryStore {
	if pageSize < 1 {
		pageSize = 1
	}
	s := &MemoryStore{pageSize: pageSize}
	s.Replace(records)
	return s
}

// Replace swaps the stored catalog. Sessions already running see the new
// content from their next page on.
func (s *MemoryStore) Replace(records []models.Property) {
	cp := make([]models.Property, len(records))
	copy(cp, records)

	s.mu.Lock()
	s.records = cp
	s.mu.Unlock()
}

// Len returns the number of stored properties
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *MemoryStore) FetchPage(ctx context.Context, pageIndex int) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}
	if pageIndex < 0 {
		return Page{}, fmt.Errorf("invalid page index %d", pageIndex)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	total := len(s.records)
	start := min(pageIndex*s.pageSize, total)
	end := min(start+s.pageSize, total)

	records := make([]models.Property, end-start)
	copy(records, s.records[start:end])

	return Page{
		Records:    records,
		TotalCount: total,
		HasMore:    HasMore(pageIndex, s.pageSize, total),
	}, nil
}
