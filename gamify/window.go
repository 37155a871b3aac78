/*
window.go - Daily check-in time window

PURPOSE:
  Check-ins are only accepted during a configured clock-time range each
  day (e.g. 06:00-10:00) in a fixed timezone. The gate converts the
  current instant to that timezone, computes minutes-since-midnight, and
  compares against the window.

TWO REFUSAL REASONS:
  "too early"     - before the window opens; the UI tells people when to
                    come back
  "window closed" - after the window ends; the UI explains today is missed

SEE ALSO:
  - token.go: The other gate a check-in must pass
  - errors.go: WindowError carries the distinction
*/
package gamify

import (
	"fmt"
	"time"
)

// =============================================================================
// MINUTE-OF-DAY HELPERS
// =============================================================================

// MinuteOfDay returns minutes since midnight for an instant (in its location).
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// FormatMinute renders a minute-of-day as "HH:MM".
func FormatMinute(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// ParseClockTime parses "HH:MM" into a minute-of-day.
func ParseClockTime(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid clock time %q (want HH:MM): %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock time %q out of range", s)
	}
	return h*60 + m, nil
}

// =============================================================================
// WINDOW GATE
// =============================================================================

type WindowGate struct {
	Settings Settings
	Clock    Clock
}

// WindowStatus is returned for display regardless of outcome.
type WindowStatus struct {
	Open          bool
	Now           time.Time // current instant in the engine timezone
	CurrentMinute int
	WindowStart   int
	WindowEnd     int
}

// Check evaluates the current instant against the window. When the window is
// closed the error is a *WindowError distinguishing too-early from closed;
// the status is still populated for display.
func (g *WindowGate) Check() (WindowStatus, error) {
	now := g.Clock.Now().In(g.Settings.Timezone)
	minute := MinuteOfDay(now)

	status := WindowStatus{
		Now:           now,
		CurrentMinute: minute,
		WindowStart:   g.Settings.WindowStart,
		WindowEnd:     g.Settings.WindowEnd,
	}

	switch {
	case minute < g.Settings.WindowStart:
		return status, &WindowError{
			TooEarly:      true,
			CurrentMinute: minute,
			WindowStart:   g.Settings.WindowStart,
			WindowEnd:     g.Settings.WindowEnd,
		}
	case minute > g.Settings.WindowEnd:
		return status, &WindowError{
			CurrentMinute: minute,
			WindowStart:   g.Settings.WindowStart,
			WindowEnd:     g.Settings.WindowEnd,
		}
	}

	status.Open = true
	return status, nil
}
