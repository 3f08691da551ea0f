package role

import (
	"fmt"
	"sync"

	"packmate/keystore"
	"packmate/models"
	"packmate/utils"

	"go.uber.org/zap"
)

// Store holds the selected account role. The role persists across restarts
// and is only removed by ClearRole; it says nothing about authentication.
//
// Until Initialize has completed, Loading reports true and consumers must
// not fall back to a default role: rendering a home-screen variant before
// the stored value is known would flash the wrong one.
type Store struct {
	mu      sync.Mutex
	keys    *keystore.Store
	role    models.Role
	set     bool
	loading bool
}

// NewStore creates a role store in the loading state.
func NewStore(keys *keystore.Store) *Store {
	return &Store{keys: keys, loading: true}
}

// Initialize reads the persisted role. An absent key leaves the role unset;
// unreadable values are logged and treated as unset.
func (s *Store) Initialize() {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.loading = false }()

	raw, err := s.keys.Get(keystore.KeyUserRole)
	if err != nil {
		if err != keystore.ErrKeyNotFound {
			utils.GetLogger().Warn("role: failed to read stored role", zap.Error(err))
		}
		return
	}
	r := models.Role(raw)
	if !r.Valid() {
		utils.GetLogger().Warn("role: stored role is not a known value", zap.String("role", raw))
		return
	}
	s.role = r
	s.set = true
}

// SetRole persists the role before updating memory, so a reader observing
// the returned call already sees the stored value.
func (s *Store) SetRole(r models.Role) error {
	if !r.Valid() {
		return fmt.Errorf("role: unknown role %q", r)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.keys.Set(keystore.KeyUserRole, string(r)); err != nil {
		return fmt.Errorf("role: persist: %w", err)
	}
	s.role = r
	s.set = true
	return nil
}

// ClearRole removes the persisted value and resets the in-memory state.
func (s *Store) ClearRole() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.keys.Delete(keystore.KeyUserRole); err != nil {
		return fmt.Errorf("role: clear: %w", err)
	}
	s.role = ""
	s.set = false
	return nil
}

// Role returns the current role and whether one is set. Unset and loading
// are distinct states; check Loading before interpreting ok==false.
func (s *Store) Role() (models.Role, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.role, s.set
}

// Loading reports whether the initial read has not completed yet.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}
