/*
badges.go - Badge catalog and unlock rules

PURPOSE:
  Badges are one-time achievement unlocks evaluated against aggregate stats
  after every mutating operation. The rule list is fixed and ordered; each
  rule is idempotent (skipped when the badge id is already unlocked) and a
  badge is never re-locked if its condition later becomes false.

RULES:
  totalPoints   >= 100 -> "Point Collector"
  currentStreak >= 7   -> "Streak Master"
*/
package gamify

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CATALOG
// =============================================================================

type BadgeDef struct {
	ID   BadgeID
	Name string
	Icon string
}

var (
	BadgePointCollector = BadgeDef{ID: "point-collector", Name: "Point Collector", Icon: "💎"}
	BadgeStreakMaster   = BadgeDef{ID: "streak-master", Name: "Streak Master", Icon: "🔥"}
)

// =============================================================================
// RULES
// =============================================================================

// BadgeRule pairs a badge definition with its qualifying condition.
type BadgeRule struct {
	Badge     BadgeDef
	Qualifies func(e *Employee) bool
}

var pointCollectorFloor = decimal.NewFromInt(100)

// DefaultBadgeRules is the fixed, ordered rule list.
func DefaultBadgeRules() []BadgeRule {
	return []BadgeRule{
		{
			Badge: BadgePointCollector,
			Qualifies: func(e *Employee) bool {
				return e.Balances.Total.GreaterThanOrEqual(pointCollectorFloor)
			},
		},
		{
			Badge: BadgeStreakMaster,
			Qualifies: func(e *Employee) bool {
				return e.CurrentStreak >= perfectWeekStreak
			},
		},
	}
}

// UnlockBadges runs the rules against the employee's current aggregates and
// appends any newly qualified badges with the evaluation time as the unlock
// timestamp. Returns the badges unlocked by this evaluation.
func UnlockBadges(e *Employee, rules []BadgeRule, now time.Time) []Badge {
	var unlocked []Badge
	for _, rule := range rules {
		if e.HasBadge(rule.Badge.ID) {
			continue
		}
		if !rule.Qualifies(e) {
			continue
		}
		b := Badge{
			ID:         rule.Badge.ID,
			Name:       rule.Badge.Name,
			Icon:       rule.Badge.Icon,
			UnlockedAt: now,
		}
		e.Badges = append(e.Badges, b)
		unlocked = append(unlocked, b)
	}
	return unlocked
}
