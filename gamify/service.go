/*
service.go - Check-in orchestration

PURPOSE:
  CheckInService is the entry point for a scan. It chains the two gates,
  enforces the one-check-in-per-day invariant, computes the arrival tier,
  and drives the streak tracker, points aggregator, and badge engine.

CHECK-IN FLOW:
  1. Token Validator  - reject forged or out-of-period tokens
  2. Window Gate      - reject scans outside the daily window
  3. Resolve employee - ErrEmployeeNotFound if absent
  4. Idempotency      - one event per calendar day, no state change on repeat
  5. Tier + points    - ordered minute-of-day thresholds
  6. Streak           - may merge a milestone bonus into the same event
  7. Aggregate        - credit all four counters with the final value
  8. Badges           - evaluate unlock rules against updated aggregates

ATOMICITY:
  The aggregate is loaded, mutated in memory, and saved once. A failure at
  any step leaves the stored state untouched: operations fully succeed or
  fully no-op.

SEE ALSO:
  - rewards.go: The other entry point, sharing the same EntityLocks
*/
package gamify

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// SERVICE
// =============================================================================

type CheckInService struct {
	store    EmployeeStore
	settings Settings
	clock    Clock
	rules    []BadgeRule
	locks    *EntityLocks

	validator *TokenValidator
	gate      *WindowGate
}

// NewCheckInService wires a service. The locks instance must be shared with
// the RewardService operating on the same store.
func NewCheckInService(store EmployeeStore, settings Settings, clock Clock, locks *EntityLocks) *CheckInService {
	return &CheckInService{
		store:     store,
		settings:  settings,
		clock:     clock,
		rules:     DefaultBadgeRules(),
		locks:     locks,
		validator: &TokenValidator{Settings: settings, Clock: clock},
		gate:      &WindowGate{Settings: settings, Clock: clock},
	}
}

// CheckInResult is the typed outcome handed to the caller. Tier is the key
// the external quote provider maps to an affirmation.
type CheckInResult struct {
	Success   bool
	Message   string
	Points    decimal.Decimal
	Tier      ArrivalTier
	Streak    int
	NewBadges []Badge
}

// CheckIn validates a scanned token and records today's check-in.
func (s *CheckInService) CheckIn(ctx context.Context, employeeID EmployeeID, rawToken string) (*CheckInResult, error) {
	if _, err := s.validator.Validate(rawToken); err != nil {
		return nil, err
	}
	if _, err := s.gate.Check(); err != nil {
		return nil, err
	}

	release := s.locks.Acquire(employeeID)
	defer release()

	e, err := s.store.Load(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().In(s.settings.Timezone)
	day := now.Format("2006-01-02")

	if e.HasCheckInOn(day) {
		return nil, &DuplicateCheckInError{EmployeeID: employeeID, Day: day}
	}

	tier := s.settings.ClassifyArrival(MinuteOfDay(now))
	event := CheckInEvent{
		ID:         EventID(uuid.NewString()),
		OccurredAt: now,
		Day:        day,
		Tier:       tier,
		Points:     PointsForTier(tier),
	}

	// The streak tracker may merge a milestone bonus into the event's
	// points and reason before it is final.
	applyStreak(e, &event)

	e.CheckIns = append(e.CheckIns, event)
	e.Balances.Credit(event.Points)
	unlocked := UnlockBadges(e, s.rules, now)

	if err := s.store.Save(ctx, e); err != nil {
		return nil, err
	}

	return &CheckInResult{
		Success:   true,
		Message:   checkInMessage(event),
		Points:    event.Points,
		Tier:      tier,
		Streak:    e.CurrentStreak,
		NewBadges: unlocked,
	}, nil
}

// GrantBonus awards admin points outside the check-in flow. The granter
// identity comes from the external directory and is recorded verbatim.
func (s *CheckInService) GrantBonus(ctx context.Context, employeeID EmployeeID, points decimal.Decimal, reason, grantedBy string) (*BonusGrant, error) {
	if !points.IsPositive() {
		return nil, fmt.Errorf("bonus points must be positive, got %s", points)
	}

	release := s.locks.Acquire(employeeID)
	defer release()

	e, err := s.store.Load(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	grant := BonusGrant{
		ID:        BonusID(uuid.NewString()),
		GrantedAt: s.clock.Now().In(s.settings.Timezone),
		Points:    points,
		Reason:    reason,
		GrantedBy: grantedBy,
	}

	e.Bonuses = append(e.Bonuses, grant)
	e.Balances.Credit(grant.Points)
	UnlockBadges(e, s.rules, grant.GrantedAt)

	if err := s.store.Save(ctx, e); err != nil {
		return nil, err
	}
	return &grant, nil
}

// CurrentToken exposes the rotating kiosk token for display surfaces.
func (s *CheckInService) CurrentToken() string {
	g := &TokenGenerator{Settings: s.settings, Clock: s.clock}
	return g.Generate()
}

// WindowStatus exposes the gate state for display surfaces.
func (s *CheckInService) WindowStatus() (WindowStatus, error) {
	return s.gate.Check()
}

func checkInMessage(ev CheckInEvent) string {
	var base string
	switch ev.Tier {
	case TierEarly:
		base = fmt.Sprintf("Checked in early! +%s points", ev.Points)
	case TierOnTime:
		base = fmt.Sprintf("Checked in on time. +%s point(s)", ev.Points)
	default:
		base = "Checked in late. Better luck tomorrow!"
	}
	if ev.BonusReason != "" {
		base += " (includes " + ev.BonusReason + ")"
	}
	return base
}
