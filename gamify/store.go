/*
store.go - Persistence ports for the gamification engine

PURPOSE:
  Defines the interface between the engine and its storage. The engine
  treats persistence as a synchronous key-value store over Employee
  aggregates plus a read-only reward catalog.

AGGREGATE CONTRACT:
  Load returns a private copy of the full Employee aggregate (balances,
  events, bonuses, badges, redemptions). Save persists the whole aggregate.
  CheckInEvents and BonusGrants are append-only: implementations must never
  rewrite an existing event. Redemptions are the only children whose status
  may change after insert.

IMPLEMENTATIONS:
  - store/sqlite: Production store with a DB-level unique (employee, day)
    constraint on check-in events as the last defense against races
  - store/memory: In-memory store for tests and demos

SEE ALSO:
  - service.go: Serializes Load-mutate-Save per employee id
  - rewards.go: Uses FindRedemptionOwner to route approvals
*/
package gamify

import "context"

// EmployeeStore persists Employee aggregates.
type EmployeeStore interface {
	// Load returns the aggregate for an employee id.
	// Returns ErrEmployeeNotFound if absent.
	Load(ctx context.Context, id EmployeeID) (*Employee, error)

	// Save persists the full aggregate.
	Save(ctx context.Context, e *Employee) error

	// List returns all employees, for admin views and leaderboards.
	List(ctx context.Context) ([]*Employee, error)

	// FindRedemptionOwner resolves a redemption id to the employee holding
	// it. Returns ErrRedemptionNotFound if absent.
	FindRedemptionOwner(ctx context.Context, id RedemptionID) (EmployeeID, error)
}

// RewardCatalog reads the read-only reward definitions.
type RewardCatalog interface {
	// LoadCatalog returns all reward definitions.
	LoadCatalog(ctx context.Context) ([]RewardDefinition, error)

	// FindReward returns a single definition.
	// Returns ErrRewardNotFound if absent.
	FindReward(ctx context.Context, id RewardID) (*RewardDefinition, error)
}
