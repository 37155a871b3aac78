// Package memory provides in-memory store implementations for tests and dev.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/checkin-engine/gamify"
)

// =============================================================================
// MEMORY STORE - In-memory EmployeeStore + RewardCatalog
// =============================================================================

type Store struct {
	mu        sync.RWMutex
	employees map[gamify.EmployeeID]*gamify.Employee
	catalog   []gamify.RewardDefinition
}

func New() *Store {
	return &Store{
		employees: make(map[gamify.EmployeeID]*gamify.Employee),
		catalog:   gamify.DefaultCatalog(),
	}
}

// Put inserts or replaces an employee directly (test/demo seeding).
func (s *Store) Put(e *gamify.Employee) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees[e.ID] = e.Clone()
}

// SetCatalog replaces the reward catalog (test/demo seeding).
func (s *Store) SetCatalog(defs []gamify.RewardDefinition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = append([]gamify.RewardDefinition(nil), defs...)
}

// Load returns a deep copy so callers never share mutable state.
func (s *Store) Load(_ context.Context, id gamify.EmployeeID) (*gamify.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.employees[id]
	if !ok {
		return nil, gamify.ErrEmployeeNotFound
	}
	return e.Clone(), nil
}

func (s *Store) Save(_ context.Context, e *gamify.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees[e.ID] = e.Clone()
	return nil
}

func (s *Store) List(_ context.Context) ([]*gamify.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*gamify.Employee, 0, len(s.employees))
	for _, e := range s.employees {
		out = append(out, e.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) FindRedemptionOwner(_ context.Context, id gamify.RedemptionID) (gamify.EmployeeID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.employees {
		if e.Redemption(id) != nil {
			return e.ID, nil
		}
	}
	return "", gamify.ErrRedemptionNotFound
}

func (s *Store) LoadCatalog(_ context.Context) ([]gamify.RewardDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]gamify.RewardDefinition(nil), s.catalog...), nil
}

func (s *Store) FindReward(_ context.Context, id gamify.RewardID) (*gamify.RewardDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, def := range s.catalog {
		if def.ID == id {
			d := def
			return &d, nil
		}
	}
	return nil, gamify.ErrRewardNotFound
}

// Compile-time interface checks.
var (
	_ gamify.EmployeeStore = (*Store)(nil)
	_ gamify.RewardCatalog = (*Store)(nil)
)
