/*
streak.go - Consecutive-day streak derivation and milestone bonuses

PURPOSE:
  A streak is the count of consecutive calendar days with a check-in,
  evaluated in the engine timezone. After each new event: if yesterday has
  an event the streak increments, otherwise it resets to 1. The longest
  streak only ever grows.

MILESTONES:
  Milestone bonuses fire on EXACT equality, not a threshold range, so each
  fires once per streak run. The bonus is merged into the same check-in
  event (its points and reason), not recorded as a separate entry.

    streak == 7  -> +5  "Perfect Week Bonus"
    streak == 10 -> +10 "10-Day Streak Bonus"
*/
package gamify

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	perfectWeekStreak = 7
	tenDayStreak      = 10

	perfectWeekReason = "Perfect Week Bonus"
	tenDayReason      = "10-Day Streak Bonus"
)

var (
	perfectWeekPoints = decimal.NewFromInt(5)
	tenDayPoints      = decimal.NewFromInt(10)
)

// applyStreak updates the employee's streak counters for a freshly built
// event and merges any milestone bonus into the event before it is
// considered final. Must be called before the event is appended.
func applyStreak(e *Employee, ev *CheckInEvent) {
	if e.HasCheckInOn(previousDay(ev.Day)) {
		e.CurrentStreak++
	} else {
		e.CurrentStreak = 1
	}
	if e.CurrentStreak > e.LongestStreak {
		e.LongestStreak = e.CurrentStreak
	}

	switch e.CurrentStreak {
	case perfectWeekStreak:
		ev.Points = ev.Points.Add(perfectWeekPoints)
		ev.BonusReason = perfectWeekReason
	case tenDayStreak:
		ev.Points = ev.Points.Add(tenDayPoints)
		ev.BonusReason = tenDayReason
	}
}

// previousDay returns the calendar day before a "2006-01-02" day string.
func previousDay(day string) string {
	t, err := time.Parse("2006-01-02", day)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, -1).Format("2006-01-02")
}
