package polling

import (
	"sync"
	"time"
)

// View is a point-in-time copy of a snapshot.
type View[T any] struct {
	Items     []T        `json:"items"`
	Available bool       `json:"available"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// Snapshot holds a read-only list that is replaced wholesale on each fetch.
type Snapshot[T any] struct {
	mu        sync.RWMutex
	items     []T
	available bool
	updatedAt time.Time
	onChange  func()
}

// NewSnapshot creates an empty snapshot. onChange, if set, runs after every
// update outside the lock.
func NewSnapshot[T any](onChange func()) *Snapshot[T] {
	return &Snapshot[T]{onChange: onChange}
}

// Replace swaps in a freshly fetched list.
func (s *Snapshot[T]) Replace(items []T, at time.Time) {
	s.mu.Lock()
	s.items = append([]T(nil), items...)
	s.available = true
	s.updatedAt = at
	s.mu.Unlock()
	s.changed()
}

// MarkUnavailable records that the list cannot be fetched from the current
// source. Previously fetched items are kept.
func (s *Snapshot[T]) MarkUnavailable() {
	s.mu.Lock()
	wasAvailable := s.available
	s.available = false
	s.mu.Unlock()
	if wasAvailable {
		s.changed()
	}
}

// Get returns a copy of the snapshot.
func (s *Snapshot[T]) Get() View[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v := View[T]{
		Items:     append([]T{}, s.items...),
		Available: s.available,
	}
	if !s.updatedAt.IsZero() {
		at := s.updatedAt
		v.UpdatedAt = &at
	}
	return v
}

func (s *Snapshot[T]) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}
