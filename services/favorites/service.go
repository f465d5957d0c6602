package favorites

import (
	"sync"

	"phimtoc/internal/localstore"
)

// storageKey holds the favorite id list, insertion-ordered.
const storageKey = "phimtoc_favorites"

// Service tracks which catalog items the profile has favorited. Membership
// is a set, but listing preserves the order items were added in.
type Service struct {
	mu    sync.Mutex
	store *localstore.Store
}

func NewService(store *localstore.Store) *Service {
	return &Service{store: store}
}

// Add records id as a favorite. Adding an existing id is a no-op.
func (s *Service) Add(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.listLocked()
	for _, existing := range ids {
		if existing == id {
			return nil
		}
	}
	return s.store.Put(storageKey, append(ids, id))
}

// Remove drops id from the favorites. Removing an absent id is a no-op.
func (s *Service) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.listLocked()
	kept := ids[:0]
	for _, existing := range ids {
		if existing != id {
			kept = append(kept, existing)
		}
	}
	if len(kept) == len(ids) {
		return nil
	}
	return s.store.Put(storageKey, kept)
}

// Toggle flips membership and reports the new state.
func (s *Service) Toggle(id string) (bool, error) {
	if s.Has(id) {
		if err := s.Remove(id); err != nil {
			return true, err
		}
		return false, nil
	}
	if err := s.Add(id); err != nil {
		return false, err
	}
	return true, nil
}

// Has reports whether id is currently favorited.
func (s *Service) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.listLocked() {
		if existing == id {
			return true
		}
	}
	return false
}

// List returns the favorite ids in the order they were added.
func (s *Service) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked()
}

// Count returns the number of favorites.
func (s *Service) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listLocked())
}

func (s *Service) listLocked() []string {
	return localstore.Read(s.store, storageKey, []string(nil))
}
