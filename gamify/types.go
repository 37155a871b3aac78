/*
Package gamify provides the core attendance gamification engine.

PURPOSE:
  This package contains the domain types and algorithms for turning daily
  check-ins into points, streaks, badges, and redeemable rewards. Employees
  scan a rotating token during a configured morning window; the engine
  validates the scan, classifies the arrival, and maintains the point ledger.

KEY CONCEPTS IN THIS FILE (types.go):
  - Employee: The aggregate root - balances, streaks, badges, and history
  - CheckInEvent: An immutable record of one day's check-in
  - BonusGrant: Admin-awarded points outside the check-in flow
  - Badge: A one-time achievement unlock from a fixed catalog
  - RewardRedemption: A pending/approved/rejected spend of points
  - Settings: The admin-controlled configuration surface

DESIGN PRINCIPLES:
  1. Immutability: CheckInEvents and BonusGrants are never modified once
     appended; redemptions mutate exactly once, to a terminal status
  2. Precision: Uses decimal.Decimal for all point arithmetic
  3. Type Safety: Closed string types for tiers, strategies, and statuses
  4. Reconstructibility: The total balance is always derivable by replaying
     events, bonuses, and non-rejected redemptions

SEE ALSO:
  - service.go: Check-in orchestration
  - points.go: Balance counters and reconstruction
  - rewards.go: Redemption lifecycle
*/
package gamify

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type EventID string
type BonusID string
type BadgeID string
type RewardID string
type RedemptionID string

// =============================================================================
// ARRIVAL TIER - Classification of a check-in by minute of day
// =============================================================================

type ArrivalTier string

const (
	TierEarly  ArrivalTier = "early"
	TierOnTime ArrivalTier = "onTime"
	TierLate   ArrivalTier = "late"
)

// =============================================================================
// ROTATION STRATEGY - How often the check-in token's period changes
// =============================================================================

type RotationStrategy string

const (
	RotationDaily   RotationStrategy = "daily"
	RotationWeekly  RotationStrategy = "weekly"
	RotationMonthly RotationStrategy = "monthly"
	RotationManual  RotationStrategy = "manual"
)

// ParseRotationStrategy validates a strategy string.
func ParseRotationStrategy(s string) (RotationStrategy, bool) {
	switch RotationStrategy(s) {
	case RotationDaily, RotationWeekly, RotationMonthly, RotationManual:
		return RotationStrategy(s), true
	}
	return "", false
}

// =============================================================================
// CHECK-IN EVENT - One day's arrival, immutable once appended
// =============================================================================

// CheckInEvent records a single successful check-in. Points may include a
// merged streak bonus; when it does, BonusReason names it.
type CheckInEvent struct {
	ID          EventID
	OccurredAt  time.Time
	Day         string // calendar day in the engine timezone, "2006-01-02"
	Tier        ArrivalTier
	Points      decimal.Decimal
	BonusReason string
}

// =============================================================================
// BONUS GRANT - Admin-awarded points
// =============================================================================

type BonusGrant struct {
	ID        BonusID
	GrantedAt time.Time
	Points    decimal.Decimal
	Reason    string
	GrantedBy string // actor id from the external identity directory
}

// =============================================================================
// BADGE - One-time achievement unlock
// =============================================================================

type Badge struct {
	ID         BadgeID
	Name       string
	Icon       string
	UnlockedAt time.Time
}

// =============================================================================
// REWARD CATALOG + REDEMPTION
// =============================================================================

type RewardCategory string

const (
	RewardGiftCard    RewardCategory = "gift_card"
	RewardMerchandise RewardCategory = "merchandise"
	RewardExperience  RewardCategory = "experience"
	RewardTimeOff     RewardCategory = "time_off"
)

// RewardDefinition is a read-only catalog entry.
type RewardDefinition struct {
	ID          RewardID
	Name        string
	Description string
	PointsCost  decimal.Decimal
	Category    RewardCategory
	Available   bool
}

type RedemptionStatus string

const (
	RedemptionPending  RedemptionStatus = "pending"
	RedemptionApproved RedemptionStatus = "approved"
	RedemptionRejected RedemptionStatus = "rejected"
)

// RewardRedemption snapshots the reward name and cost at redemption time so
// later catalog edits cannot change what was escrowed.
type RewardRedemption struct {
	ID         RedemptionID
	RewardID   RewardID
	RewardName string
	PointsCost decimal.Decimal
	Status     RedemptionStatus
	RedeemedAt time.Time
	ResolvedAt *time.Time
}

// =============================================================================
// EMPLOYEE - Aggregate root
// =============================================================================

type Employee struct {
	ID    EmployeeID
	Name  string
	Email string

	Balances      Balances
	CurrentStreak int
	LongestStreak int

	Badges      []Badge
	CheckIns    []CheckInEvent
	Bonuses     []BonusGrant
	Redemptions []RewardRedemption

	CreatedAt time.Time
}

// HasCheckInOn reports whether a check-in exists for a calendar day.
func (e *Employee) HasCheckInOn(day string) bool {
	for _, ev := range e.CheckIns {
		if ev.Day == day {
			return true
		}
	}
	return false
}

// HasBadge reports whether a badge id is already unlocked.
func (e *Employee) HasBadge(id BadgeID) bool {
	for _, b := range e.Badges {
		if b.ID == id {
			return true
		}
	}
	return false
}

// Redemption returns the redemption with the given id, or nil.
func (e *Employee) Redemption(id RedemptionID) *RewardRedemption {
	for i := range e.Redemptions {
		if e.Redemptions[i].ID == id {
			return &e.Redemptions[i]
		}
	}
	return nil
}

// Clone returns a deep copy. Stores hand out clones so callers can never
// mutate shared state outside the per-employee lock.
func (e *Employee) Clone() *Employee {
	c := *e
	c.Badges = append([]Badge(nil), e.Badges...)
	c.CheckIns = append([]CheckInEvent(nil), e.CheckIns...)
	c.Bonuses = append([]BonusGrant(nil), e.Bonuses...)
	c.Redemptions = append([]RewardRedemption(nil), e.Redemptions...)
	return &c
}

// =============================================================================
// SETTINGS - Admin-controlled configuration surface
// =============================================================================

// Settings is supplied by the external admin-settings collaborator.
// Thresholds and the window are minutes since midnight in Timezone.
type Settings struct {
	BaseURL  string
	Timezone *time.Location

	WindowStart int // check-ins accepted from this minute of day
	WindowEnd   int // ...through this minute of day

	EarlyThreshold  int // t <= early        -> TierEarly, 2 points
	OnTimeThreshold int // early < t <= ot   -> TierOnTime, 1 point
	LateThreshold   int // ot < t <= late    -> TierLate, 0 points

	Strategy      RotationStrategy
	ManualVersion int // informational only; rotation is operator discipline
}

// DefaultSettings returns the stock configuration: scans accepted 06:00-10:00,
// early before 07:45, on time before 08:15, in UTC with daily rotation.
func DefaultSettings() Settings {
	return Settings{
		BaseURL:         "https://checkin.example.com/scan",
		Timezone:        time.UTC,
		WindowStart:     6 * 60,
		WindowEnd:       10 * 60,
		EarlyThreshold:  7*60 + 45,
		OnTimeThreshold: 8*60 + 15,
		LateThreshold:   9 * 60,
		Strategy:        RotationDaily,
		ManualVersion:   1,
	}
}

// Validate checks internal consistency of the settings.
func (s Settings) Validate() error {
	if s.BaseURL == "" {
		return fmt.Errorf("base URL is required")
	}
	if s.Timezone == nil {
		return fmt.Errorf("timezone is required")
	}
	if s.WindowStart > s.WindowEnd {
		return fmt.Errorf("window start %s is after window end %s",
			FormatMinute(s.WindowStart), FormatMinute(s.WindowEnd))
	}
	if s.EarlyThreshold > s.OnTimeThreshold || s.OnTimeThreshold > s.LateThreshold {
		return fmt.Errorf("arrival thresholds must be ordered early <= onTime <= late")
	}
	if _, ok := ParseRotationStrategy(string(s.Strategy)); !ok {
		return fmt.Errorf("unknown rotation strategy %q", s.Strategy)
	}
	return nil
}

// DayOf formats an instant as a calendar day in the configured timezone.
func (s Settings) DayOf(t time.Time) string {
	return t.In(s.Timezone).Format("2006-01-02")
}
