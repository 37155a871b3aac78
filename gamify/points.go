/*
points.go - Point balances and reconstruction

PURPOSE:
  Every employee carries four additive counters: total, weekly, monthly,
  quarterly. Check-in events and bonus grants credit all four; non-rejected
  redemptions debit all four; a later rejection credits them back.

NO PERIODIC RESET:
  The source system never resets the weekly/monthly/quarterly counters on a
  calendar boundary. That behavior is preserved faithfully here rather than
  inventing a reset policy; see DESIGN.md.

RECONSTRUCTION INVARIANT:
  total == sum(events.points) + sum(bonuses.points)
           - sum(redemption costs where status != rejected)
  RebuildTotal recomputes the right-hand side; tests assert it against the
  running counter after every mutation.
*/
package gamify

import "github.com/shopspring/decimal"

// =============================================================================
// BALANCES - Four additive counters
// =============================================================================

type Balances struct {
	Total     decimal.Decimal
	Weekly    decimal.Decimal
	Monthly   decimal.Decimal
	Quarterly decimal.Decimal
}

// Credit adds points to all four counters.
func (b *Balances) Credit(p decimal.Decimal) {
	b.Total = b.Total.Add(p)
	b.Weekly = b.Weekly.Add(p)
	b.Monthly = b.Monthly.Add(p)
	b.Quarterly = b.Quarterly.Add(p)
}

// Debit removes points from all four counters.
func (b *Balances) Debit(p decimal.Decimal) {
	b.Total = b.Total.Sub(p)
	b.Weekly = b.Weekly.Sub(p)
	b.Monthly = b.Monthly.Sub(p)
	b.Quarterly = b.Quarterly.Sub(p)
}

// =============================================================================
// TIER POINT VALUES
// =============================================================================

var (
	pointsEarly  = decimal.NewFromInt(2)
	pointsOnTime = decimal.NewFromInt(1)
	pointsLate   = decimal.Zero
)

// PointsForTier returns the base points for an arrival tier.
func PointsForTier(tier ArrivalTier) decimal.Decimal {
	switch tier {
	case TierEarly:
		return pointsEarly
	case TierOnTime:
		return pointsOnTime
	default:
		return pointsLate
	}
}

// ClassifyArrival maps a minute-of-day to an arrival tier using the ordered
// thresholds. Minutes above OnTimeThreshold land in TierLate whether or not
// they exceed LateThreshold; both ranges exist in the source system and both
// score zero, so they are kept as written.
func (s Settings) ClassifyArrival(minute int) ArrivalTier {
	switch {
	case minute <= s.EarlyThreshold:
		return TierEarly
	case minute <= s.OnTimeThreshold:
		return TierOnTime
	case minute <= s.LateThreshold:
		return TierLate
	default:
		return TierLate
	}
}

// =============================================================================
// RECONSTRUCTION
// =============================================================================

// RebuildTotal recomputes the total balance from the employee's history.
// The running Balances.Total must always equal this value.
func RebuildTotal(e *Employee) decimal.Decimal {
	total := decimal.Zero
	for _, ev := range e.CheckIns {
		total = total.Add(ev.Points)
	}
	for _, b := range e.Bonuses {
		total = total.Add(b.Points)
	}
	for _, r := range e.Redemptions {
		if r.Status != RedemptionRejected {
			total = total.Sub(r.PointsCost)
		}
	}
	return total
}
