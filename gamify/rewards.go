/*
rewards.go - Reward redemption lifecycle with point escrow

PURPOSE:
  Employees spend points on catalog rewards. The cost is debited the moment
  the request is made (escrow) and the redemption sits pending until an
  admin approves or rejects it.

STATE MACHINE:
  pending --approve()--> approved   (terminal, no balance change)
  pending --reject()---> rejected   (terminal, cost credited back)

  No other edges exist. Approve/reject on a non-pending redemption is an
  ErrInvalidRedemptionState no-op.

COST SNAPSHOT:
  The redemption stores the reward name and cost at redemption time, so a
  later catalog price change cannot alter what is refunded on rejection.

SEE ALSO:
  - points.go: The escrow debits/credits hit all four counters
  - service.go: Shares the same EntityLocks instance
*/
package gamify

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// SERVICE
// =============================================================================

type RewardService struct {
	store   EmployeeStore
	catalog RewardCatalog
	clock   Clock
	locks   *EntityLocks
}

func NewRewardService(store EmployeeStore, catalog RewardCatalog, clock Clock, locks *EntityLocks) *RewardService {
	return &RewardService{store: store, catalog: catalog, clock: clock, locks: locks}
}

// Redeem creates a pending redemption and immediately escrows the cost.
// Fails with ErrInsufficientPoints (no state change) when the total balance
// cannot cover the reward.
func (s *RewardService) Redeem(ctx context.Context, employeeID EmployeeID, rewardID RewardID) (*RewardRedemption, error) {
	reward, err := s.catalog.FindReward(ctx, rewardID)
	if err != nil {
		return nil, err
	}
	if !reward.Available {
		return nil, ErrRewardUnavailable
	}

	release := s.locks.Acquire(employeeID)
	defer release()

	e, err := s.store.Load(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	if e.Balances.Total.LessThan(reward.PointsCost) {
		return nil, &InsufficientPointsError{
			EmployeeID: employeeID,
			Available:  e.Balances.Total,
			Requested:  reward.PointsCost,
			Shortfall:  reward.PointsCost.Sub(e.Balances.Total),
		}
	}

	redemption := RewardRedemption{
		ID:         RedemptionID(uuid.NewString()),
		RewardID:   reward.ID,
		RewardName: reward.Name,
		PointsCost: reward.PointsCost,
		Status:     RedemptionPending,
		RedeemedAt: s.clock.Now(),
	}

	e.Redemptions = append(e.Redemptions, redemption)
	e.Balances.Debit(redemption.PointsCost)
	UnlockBadges(e, DefaultBadgeRules(), redemption.RedeemedAt)

	if err := s.store.Save(ctx, e); err != nil {
		return nil, err
	}
	return &redemption, nil
}

// Approve moves a pending redemption to approved. The cost was already
// escrowed at redemption time, so balances do not change.
func (s *RewardService) Approve(ctx context.Context, id RedemptionID) (*RewardRedemption, error) {
	return s.resolve(ctx, id, RedemptionApproved)
}

// Reject moves a pending redemption to rejected and credits the cost
// snapshot back to all four counters.
func (s *RewardService) Reject(ctx context.Context, id RedemptionID) (*RewardRedemption, error) {
	return s.resolve(ctx, id, RedemptionRejected)
}

func (s *RewardService) resolve(ctx context.Context, id RedemptionID, terminal RedemptionStatus) (*RewardRedemption, error) {
	owner, err := s.store.FindRedemptionOwner(ctx, id)
	if err != nil {
		return nil, err
	}

	release := s.locks.Acquire(owner)
	defer release()

	e, err := s.store.Load(ctx, owner)
	if err != nil {
		return nil, err
	}

	redemption := e.Redemption(id)
	if redemption == nil {
		return nil, ErrRedemptionNotFound
	}
	if redemption.Status != RedemptionPending {
		return nil, &RedemptionStateError{RedemptionID: id, Status: redemption.Status}
	}

	now := s.clock.Now()
	redemption.Status = terminal
	redemption.ResolvedAt = &now

	if terminal == RedemptionRejected {
		e.Balances.Credit(redemption.PointsCost)
	}

	if err := s.store.Save(ctx, e); err != nil {
		return nil, err
	}

	out := *redemption
	return &out, nil
}

// =============================================================================
// ADMIN QUERIES
// =============================================================================

// PendingRedemption pairs a redemption with its owner for approval queues.
type PendingRedemption struct {
	EmployeeID   EmployeeID
	EmployeeName string
	Redemption   RewardRedemption
}

// PendingRedemptions lists all pending redemptions across employees.
func (s *RewardService) PendingRedemptions(ctx context.Context) ([]PendingRedemption, error) {
	employees, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	var pending []PendingRedemption
	for _, e := range employees {
		for _, r := range e.Redemptions {
			if r.Status == RedemptionPending {
				pending = append(pending, PendingRedemption{
					EmployeeID:   e.ID,
					EmployeeName: e.Name,
					Redemption:   r,
				})
			}
		}
	}
	return pending, nil
}

// =============================================================================
// DEFAULT CATALOG - Seeded on first run
// =============================================================================

// DefaultCatalog returns the stock reward definitions.
func DefaultCatalog() []RewardDefinition {
	return []RewardDefinition{
		{ID: "coffee-card", Name: "Coffee Gift Card", Description: "$10 card for the cafe downstairs", PointsCost: intPoints(25), Category: RewardGiftCard, Available: true},
		{ID: "lunch-voucher", Name: "Team Lunch Voucher", Description: "Lunch on the company", PointsCost: intPoints(50), Category: RewardExperience, Available: true},
		{ID: "hoodie", Name: "Company Hoodie", Description: "Limited edition hoodie", PointsCost: intPoints(75), Category: RewardMerchandise, Available: true},
		{ID: "half-day", Name: "Half Day Off", Description: "Leave at noon, guilt free", PointsCost: intPoints(100), Category: RewardTimeOff, Available: true},
		{ID: "parking-spot", Name: "Reserved Parking (1 month)", Description: "The spot by the door", PointsCost: intPoints(150), Category: RewardExperience, Available: false},
	}
}

func intPoints(n int64) decimal.Decimal { return decimal.NewFromInt(n) }
