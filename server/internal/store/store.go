package store

import (
	"sync"
	"time"

	"github.com/tonerelay/tonerelay/pkg/types"
)

// Store is a thread-safe in-memory holder of the canonical oscillator state.
// Replace is exclusive; Get may run concurrently with other readers.
type Store struct {
	mu        sync.RWMutex
	oscs      []types.Oscillator
	revision  uint64
	updatedAt time.Time
	now       func() time.Time // injectable for deterministic tests
}

// New creates a Store seeded with seed. The seed is copied, so later changes
// to the caller's slice do not leak into the store.
func New(seed []types.Oscillator) *Store {
	s := &Store{now: time.Now}
	s.oscs = types.Clone(seed)
	s.updatedAt = s.now()
	return s
}

// Get returns a copy of the current canonical state. The result is never nil.
func (s *Store) Get() []types.Oscillator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return types.Clone(s.oscs)
}

// Replace swaps in next as the canonical state, discarding the previous value
// entirely. next is accepted as-is: no validation, no merge. It returns the
// new revision number.
func (s *Store) Replace(next []types.Oscillator) uint64 {
	cp := types.Clone(next)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.oscs = cp
	s.revision++
	s.updatedAt = s.now()
	return s.revision
}

// Len returns the number of oscillators currently held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.oscs)
}

// Revision returns how many updates have been accepted since startup.
// The seed is revision 0.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// UpdatedAt returns the time of the last Replace, or the creation time if the
// store still holds its seed.
func (s *Store) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}
