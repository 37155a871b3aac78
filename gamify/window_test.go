package gamify_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/checkin-engine/gamify"
)

func newGateAt(t *testing.T, hour, minute int) *gamify.WindowGate {
	t.Helper()
	clock := gamify.NewFixedClock(time.Date(2025, time.March, 10, hour, minute, 0, 0, time.UTC))
	return &gamify.WindowGate{Settings: gamify.DefaultSettings(), Clock: clock}
}

// =============================================================================
// WINDOW GATE TESTS - Default window is 06:00-10:00
// =============================================================================

func TestWindowGate_TooEarly(t *testing.T) {
	// GIVEN: 05:30, before the window opens
	// WHEN: Checking the gate
	// THEN: Refused with the too-early reason

	gate := newGateAt(t, 5, 30)

	status, err := gate.Check()
	assert.False(t, status.Open)

	var winErr *gamify.WindowError
	require.ErrorAs(t, err, &winErr)
	assert.True(t, winErr.TooEarly)
	assert.Contains(t, winErr.Error(), "too early")
	assert.Contains(t, winErr.Error(), "06:00")
}

func TestWindowGate_Closed(t *testing.T) {
	// GIVEN: 10:01, after the window closed
	// WHEN: Checking the gate
	// THEN: Refused with the window-closed reason

	gate := newGateAt(t, 10, 1)

	status, err := gate.Check()
	assert.False(t, status.Open)

	var winErr *gamify.WindowError
	require.ErrorAs(t, err, &winErr)
	assert.False(t, winErr.TooEarly)
	assert.Contains(t, winErr.Error(), "closed")
	assert.ErrorIs(t, err, gamify.ErrOutsideWindow)
}

func TestWindowGate_BoundariesInclusive(t *testing.T) {
	// Both edges of the window accept a check-in.
	for _, tc := range []struct{ hour, minute int }{{6, 0}, {10, 0}} {
		gate := newGateAt(t, tc.hour, tc.minute)
		status, err := gate.Check()
		assert.NoError(t, err, "%02d:%02d should be inside the window", tc.hour, tc.minute)
		assert.True(t, status.Open)
	}
}

func TestWindowGate_TimezoneConversion(t *testing.T) {
	// GIVEN: A gate configured for America/New_York and a UTC instant that is
	//        07:00 New York time
	// WHEN: Checking the gate
	// THEN: Open, because the window is evaluated in the engine timezone

	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	settings := gamify.DefaultSettings()
	settings.Timezone = loc

	// 11:00 UTC in March (EDT, UTC-4) is 07:00 in New York.
	clock := gamify.NewFixedClock(time.Date(2025, time.March, 10, 11, 0, 0, 0, time.UTC))
	gate := &gamify.WindowGate{Settings: settings, Clock: clock}

	status, err := gate.Check()
	require.NoError(t, err)
	assert.True(t, status.Open)
	assert.Equal(t, 7*60, status.CurrentMinute)
}

// =============================================================================
// CLOCK TIME HELPERS
// =============================================================================

func TestParseClockTime(t *testing.T) {
	m, err := gamify.ParseClockTime("07:45")
	require.NoError(t, err)
	assert.Equal(t, 7*60+45, m)

	_, err = gamify.ParseClockTime("25:00")
	assert.Error(t, err)

	_, err = gamify.ParseClockTime("morning")
	assert.Error(t, err)
}

func TestFormatMinute(t *testing.T) {
	assert.Equal(t, "06:00", gamify.FormatMinute(360))
	assert.Equal(t, "09:05", gamify.FormatMinute(545))
}
