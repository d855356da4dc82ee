package listing

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store exposes listing persistence to handlers and the store-backed suggester.
type Store interface {
	Create(ctx context.Context, l Listing) (Listing, error)
	// Query returns the listings matching filter ordered by creation time descending.
	Query(ctx context.Context, filter Filter) ([]Listing, error)
}

// MemoryStore implements Store with an in-memory slice, suitable for development.
type MemoryStore struct {
	mu    sync.RWMutex
	items []Listing
	now   func() time.Time
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied listings.
func NewMemoryStore(items []Listing) *MemoryStore {
	return &MemoryStore{
		items: append([]Listing(nil), items...),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Create assigns an id and creation time and stores the listing.
func (s *MemoryStore) Create(_ context.Context, l Listing) (Listing, error) {
	l.ID = uuid.NewString()
	l.CreatedAt = s.now()

	s.mu.Lock()
	s.items = append(s.items, l)
	s.mu.Unlock()

	return l, nil
}

// Query filters a snapshot of the stored listings.
func (s *MemoryStore) Query(_ context.Context, filter Filter) ([]Listing, error) {
	// newest first so that equal timestamps keep insertion recency
	s.mu.RLock()
	snapshot := make([]Listing, 0, len(s.items))
	for i := len(s.items) - 1; i >= 0; i-- {
		snapshot = append(snapshot, s.items[i])
	}
	s.mu.RUnlock()

	return filter.Apply(snapshot), nil
}
