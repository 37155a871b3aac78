package gamify_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/checkin-engine/gamify"
	"github.com/warp/checkin-engine/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestCheckInService(t *testing.T) (*gamify.CheckInService, *memory.Store, *gamify.FixedClock) {
	t.Helper()

	store := memory.New()
	// 08:00 on Monday March 10: inside the window, in the onTime band.
	clock := gamify.NewFixedClock(time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC))
	svc := gamify.NewCheckInService(store, gamify.DefaultSettings(), clock, gamify.NewEntityLocks())

	store.Put(&gamify.Employee{ID: "emp-1", Name: "Ada"})
	return svc, store, clock
}

// seedStreak gives emp-1 one onTime check-in per day for `days` consecutive
// days ending the day before March 10, with balances kept consistent.
func seedStreak(t *testing.T, store *memory.Store, days int) {
	t.Helper()

	e, err := store.Load(context.Background(), "emp-1")
	require.NoError(t, err)

	for i := days; i >= 1; i-- {
		day := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -i)
		ev := gamify.CheckInEvent{
			ID:         gamify.EventID(fmt.Sprintf("seed-%d", i)),
			OccurredAt: day.Add(8 * time.Hour),
			Day:        day.Format("2006-01-02"),
			Tier:       gamify.TierOnTime,
			Points:     decimal.NewFromInt(1),
		}
		e.CheckIns = append(e.CheckIns, ev)
		e.Balances.Credit(ev.Points)
	}
	e.CurrentStreak = days
	e.LongestStreak = days
	require.NoError(t, store.Save(context.Background(), e))
}

// =============================================================================
// TIER CLASSIFICATION TESTS
// =============================================================================

func TestCheckIn_Early_TwoPoints(t *testing.T) {
	// GIVEN: 07:30, before the early threshold of 07:45
	// WHEN: Checking in with a valid token
	// THEN: Early tier, 2 points, streak starts at 1

	svc, store, clock := newTestCheckInService(t)
	clock.Set(time.Date(2025, time.March, 10, 7, 30, 0, 0, time.UTC))

	result, err := svc.CheckIn(context.Background(), "emp-1", svc.CurrentToken())
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, gamify.TierEarly, result.Tier)
	assert.True(t, result.Points.Equal(decimal.NewFromInt(2)))
	assert.Equal(t, 1, result.Streak)

	e, err := store.Load(context.Background(), "emp-1")
	require.NoError(t, err)
	assert.True(t, e.Balances.Total.Equal(decimal.NewFromInt(2)))
	assert.True(t, e.Balances.Weekly.Equal(decimal.NewFromInt(2)))
}

func TestCheckIn_OnTime_OnePoint(t *testing.T) {
	// GIVEN: 08:00, between 07:45 and 08:15
	// WHEN: Checking in
	// THEN: OnTime tier, 1 point

	svc, _, _ := newTestCheckInService(t)

	result, err := svc.CheckIn(context.Background(), "emp-1", svc.CurrentToken())
	require.NoError(t, err)
	assert.Equal(t, gamify.TierOnTime, result.Tier)
	assert.True(t, result.Points.Equal(decimal.NewFromInt(1)))
}

func TestCheckIn_Late_ZeroPoints(t *testing.T) {
	// GIVEN: 09:30, past the on-time threshold but inside the window
	// WHEN: Checking in
	// THEN: Late tier, zero points, but the day still counts for the streak

	svc, store, clock := newTestCheckInService(t)
	clock.Set(time.Date(2025, time.March, 10, 9, 30, 0, 0, time.UTC))

	result, err := svc.CheckIn(context.Background(), "emp-1", svc.CurrentToken())
	require.NoError(t, err)
	assert.Equal(t, gamify.TierLate, result.Tier)
	assert.True(t, result.Points.IsZero())
	assert.Equal(t, 1, result.Streak)

	e, _ := store.Load(context.Background(), "emp-1")
	assert.Len(t, e.CheckIns, 1)
}

func TestCheckIn_EarlyBoundaryInclusive(t *testing.T) {
	// Exactly 07:45 is still early; 07:46 is onTime.
	svc, _, clock := newTestCheckInService(t)

	clock.Set(time.Date(2025, time.March, 10, 7, 45, 0, 0, time.UTC))
	result, err := svc.CheckIn(context.Background(), "emp-1", svc.CurrentToken())
	require.NoError(t, err)
	assert.Equal(t, gamify.TierEarly, result.Tier)
}

// =============================================================================
// GATE + IDEMPOTENCY TESTS
// =============================================================================

func TestCheckIn_InvalidToken_NoStateChange(t *testing.T) {
	// GIVEN: A forged token
	// WHEN: Checking in
	// THEN: Invalid-token error and no event recorded

	svc, store, _ := newTestCheckInService(t)

	_, err := svc.CheckIn(context.Background(), "emp-1",
		gamify.DefaultSettings().BaseURL+"?period=2025-03-10&strategy=daily&token=bm9wZQ")
	assert.ErrorIs(t, err, gamify.ErrInvalidToken)

	e, _ := store.Load(context.Background(), "emp-1")
	assert.Empty(t, e.CheckIns)
}

func TestCheckIn_OutsideWindow_Rejected(t *testing.T) {
	// GIVEN: A valid token but the clock at 11:00
	// WHEN: Checking in
	// THEN: Window error; token validity does not override the window

	svc, _, clock := newTestCheckInService(t)
	token := svc.CurrentToken()
	clock.Set(time.Date(2025, time.March, 10, 11, 0, 0, 0, time.UTC))

	_, err := svc.CheckIn(context.Background(), "emp-1", token)
	assert.ErrorIs(t, err, gamify.ErrOutsideWindow)
}

func TestCheckIn_SameDayTwice_Idempotent(t *testing.T) {
	// GIVEN: A successful check-in this morning
	// WHEN: Scanning again an hour later
	// THEN: DuplicateCheckInError and no change to points or streak

	svc, store, clock := newTestCheckInService(t)
	ctx := context.Background()

	_, err := svc.CheckIn(ctx, "emp-1", svc.CurrentToken())
	require.NoError(t, err)

	before, _ := store.Load(ctx, "emp-1")
	clock.Advance(time.Hour)

	_, err = svc.CheckIn(ctx, "emp-1", svc.CurrentToken())
	assert.ErrorIs(t, err, gamify.ErrDuplicateCheckIn)

	var dupErr *gamify.DuplicateCheckInError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, "2025-03-10", dupErr.Day)

	after, _ := store.Load(ctx, "emp-1")
	assert.True(t, before.Balances.Total.Equal(after.Balances.Total))
	assert.Equal(t, before.CurrentStreak, after.CurrentStreak)
	assert.Len(t, after.CheckIns, 1)
}

func TestCheckIn_UnknownEmployee(t *testing.T) {
	svc, _, _ := newTestCheckInService(t)

	_, err := svc.CheckIn(context.Background(), "ghost", svc.CurrentToken())
	assert.ErrorIs(t, err, gamify.ErrEmployeeNotFound)
}

// =============================================================================
// STREAK TESTS
// =============================================================================

func TestCheckIn_StreakIncrementsAcrossDays(t *testing.T) {
	// GIVEN: A check-in yesterday
	// WHEN: Checking in today
	// THEN: Streak is 2

	svc, store, _ := newTestCheckInService(t)
	seedStreak(t, store, 1)

	result, err := svc.CheckIn(context.Background(), "emp-1", svc.CurrentToken())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Streak)
}

func TestCheckIn_StreakResetsAfterGap(t *testing.T) {
	// GIVEN: A 5-day streak that ended three days ago
	// WHEN: Checking in today
	// THEN: Streak resets to 1; longest streak keeps the old high-water mark

	svc, store, _ := newTestCheckInService(t)
	ctx := context.Background()

	e, _ := store.Load(ctx, "emp-1")
	for i := 0; i < 5; i++ {
		day := time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
		e.CheckIns = append(e.CheckIns, gamify.CheckInEvent{
			ID:     gamify.EventID(fmt.Sprintf("old-%d", i)),
			Day:    day.Format("2006-01-02"),
			Tier:   gamify.TierOnTime,
			Points: decimal.NewFromInt(1),
		})
		e.Balances.Credit(decimal.NewFromInt(1))
	}
	e.CurrentStreak = 5
	e.LongestStreak = 5
	require.NoError(t, store.Save(ctx, e))

	result, err := svc.CheckIn(ctx, "emp-1", svc.CurrentToken())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Streak)

	after, _ := store.Load(ctx, "emp-1")
	assert.Equal(t, 5, after.LongestStreak)
}

func TestCheckIn_SeventhDay_PerfectWeekBonusMerged(t *testing.T) {
	// GIVEN: A 6-day streak ending yesterday
	// WHEN: Checking in on time today (day 7)
	// THEN: The event carries 1 + 5 points and the bonus reason; no separate
	//       bonus entry is recorded

	svc, store, _ := newTestCheckInService(t)
	ctx := context.Background()
	seedStreak(t, store, 6)

	result, err := svc.CheckIn(ctx, "emp-1", svc.CurrentToken())
	require.NoError(t, err)
	assert.Equal(t, 7, result.Streak)
	assert.True(t, result.Points.Equal(decimal.NewFromInt(6)), "1 base + 5 milestone")

	e, _ := store.Load(ctx, "emp-1")
	last := e.CheckIns[len(e.CheckIns)-1]
	assert.Equal(t, "Perfect Week Bonus", last.BonusReason)
	assert.Empty(t, e.Bonuses, "milestone merges into the event, not a grant")
	assert.True(t, gamify.RebuildTotal(e).Equal(e.Balances.Total))
}

func TestCheckIn_TenthDay_TenDayBonus(t *testing.T) {
	// GIVEN: A 9-day streak ending yesterday
	// WHEN: Checking in early today (day 10)
	// THEN: The event carries 2 + 10 points

	svc, store, clock := newTestCheckInService(t)
	ctx := context.Background()
	seedStreak(t, store, 9)
	clock.Set(time.Date(2025, time.March, 10, 7, 0, 0, 0, time.UTC))

	result, err := svc.CheckIn(ctx, "emp-1", svc.CurrentToken())
	require.NoError(t, err)
	assert.Equal(t, 10, result.Streak)
	assert.True(t, result.Points.Equal(decimal.NewFromInt(12)), "2 base + 10 milestone")

	e, _ := store.Load(ctx, "emp-1")
	last := e.CheckIns[len(e.CheckIns)-1]
	assert.Equal(t, "10-Day Streak Bonus", last.BonusReason)
}

func TestCheckIn_EighthDay_NoMilestone(t *testing.T) {
	// Milestones fire on exact equality only.
	svc, store, _ := newTestCheckInService(t)
	seedStreak(t, store, 7)

	result, err := svc.CheckIn(context.Background(), "emp-1", svc.CurrentToken())
	require.NoError(t, err)
	assert.Equal(t, 8, result.Streak)
	assert.True(t, result.Points.Equal(decimal.NewFromInt(1)))
}

// =============================================================================
// BADGE TESTS
// =============================================================================

func TestCheckIn_StreakMasterBadge_UnlockedOnce(t *testing.T) {
	// GIVEN: A 6-day streak
	// WHEN: Hitting day 7, then day 8
	// THEN: Streak Master unlocks exactly once

	svc, store, clock := newTestCheckInService(t)
	ctx := context.Background()
	seedStreak(t, store, 6)

	result, err := svc.CheckIn(ctx, "emp-1", svc.CurrentToken())
	require.NoError(t, err)
	require.Len(t, result.NewBadges, 1)
	assert.Equal(t, gamify.BadgeID("streak-master"), result.NewBadges[0].ID)

	clock.Advance(24 * time.Hour)
	result, err = svc.CheckIn(ctx, "emp-1", svc.CurrentToken())
	require.NoError(t, err)
	assert.Empty(t, result.NewBadges, "already unlocked")
}

func TestGrantBonus_PointCollectorBadge(t *testing.T) {
	// GIVEN: An employee with no points
	// WHEN: Granting a 100-point bonus
	// THEN: Point Collector unlocks and the balance reflects the grant

	svc, store, _ := newTestCheckInService(t)
	ctx := context.Background()

	grant, err := svc.GrantBonus(ctx, "emp-1", decimal.NewFromInt(100), "Q1 MVP", "admin-7")
	require.NoError(t, err)
	assert.Equal(t, "admin-7", grant.GrantedBy)

	e, _ := store.Load(ctx, "emp-1")
	assert.True(t, e.HasBadge("point-collector"))
	assert.True(t, e.Balances.Total.Equal(decimal.NewFromInt(100)))
	assert.True(t, gamify.RebuildTotal(e).Equal(e.Balances.Total))
}

func TestGrantBonus_NonPositive_Rejected(t *testing.T) {
	svc, store, _ := newTestCheckInService(t)
	ctx := context.Background()

	_, err := svc.GrantBonus(ctx, "emp-1", decimal.Zero, "nothing", "admin-7")
	assert.Error(t, err)

	_, err = svc.GrantBonus(ctx, "emp-1", decimal.NewFromInt(-5), "clawback", "admin-7")
	assert.Error(t, err)

	e, _ := store.Load(ctx, "emp-1")
	assert.Empty(t, e.Bonuses)
}

func TestBadges_NeverRelocked(t *testing.T) {
	// GIVEN: An employee holding Streak Master with a broken streak
	// WHEN: Badges are re-evaluated on a fresh check-in
	// THEN: The badge stays unlocked

	svc, store, _ := newTestCheckInService(t)
	ctx := context.Background()

	e, _ := store.Load(ctx, "emp-1")
	e.Badges = append(e.Badges, gamify.Badge{ID: "streak-master", Name: "Streak Master"})
	e.CurrentStreak = 0
	require.NoError(t, store.Save(ctx, e))

	_, err := svc.CheckIn(ctx, "emp-1", svc.CurrentToken())
	require.NoError(t, err)

	after, _ := store.Load(ctx, "emp-1")
	assert.True(t, after.HasBadge("streak-master"))
	assert.Len(t, after.Badges, 1)
}

// =============================================================================
// RECONSTRUCTION INVARIANT
// =============================================================================

func TestRebuildTotal_MatchesRunningBalance(t *testing.T) {
	// Mixed history: check-ins, a bonus, and a redemption. The running total
	// must always equal the replayed one.

	svc, store, clock := newTestCheckInService(t)
	ctx := context.Background()
	seedStreak(t, store, 3)

	_, err := svc.CheckIn(ctx, "emp-1", svc.CurrentToken())
	require.NoError(t, err)

	_, err = svc.GrantBonus(ctx, "emp-1", decimal.NewFromInt(30), "spot award", "admin-1")
	require.NoError(t, err)

	rewards := gamify.NewRewardService(store, store, clock, gamify.NewEntityLocks())
	_, err = rewards.Redeem(ctx, "emp-1", "coffee-card")
	require.NoError(t, err)

	e, _ := store.Load(ctx, "emp-1")
	assert.True(t, gamify.RebuildTotal(e).Equal(e.Balances.Total),
		"rebuilt %s vs running %s", gamify.RebuildTotal(e), e.Balances.Total)
}
