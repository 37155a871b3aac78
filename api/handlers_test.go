package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/checkin-engine/api"
	"github.com/warp/checkin-engine/gamify"
	"github.com/warp/checkin-engine/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) (*httptest.Server, *memory.Store, *gamify.FixedClock) {
	t.Helper()

	store := memory.New()
	clock := gamify.NewFixedClock(time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC))
	handler := api.NewHandler(store, store, gamify.DefaultSettings(), clock)

	srv := httptest.NewServer(api.NewRouter(handler))
	t.Cleanup(srv.Close)
	return srv, store, clock
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func currentToken(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/token", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

// =============================================================================
// CHECK-IN FLOW TESTS
// =============================================================================

func TestAPI_CheckInFlow(t *testing.T) {
	// GIVEN: A created employee and the current kiosk token
	// WHEN: Posting a check-in at 08:00
	// THEN: 201 with tier, points, streak, and an affirmation

	srv, _, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/employees",
		map[string]string{"id": "emp-1", "name": "Ada", "email": "ada@example.com"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/checkins",
		map[string]string{"employee_id": "emp-1", "token": currentToken(t, srv)})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	assert.Equal(t, true, body["success"])
	assert.Equal(t, "onTime", body["tier"])
	assert.Equal(t, "1", body["points_earned"])
	assert.Equal(t, float64(1), body["streak"])
	assert.NotEmpty(t, body["affirmation"])
}

func TestAPI_CheckIn_Duplicate_Conflict(t *testing.T) {
	// GIVEN: An employee who already checked in today
	// WHEN: Scanning again
	// THEN: 409 with success=false and the duplicate message

	srv, _, _ := newTestServer(t)

	doJSON(t, http.MethodPost, srv.URL+"/api/employees", map[string]string{"id": "emp-1", "name": "Ada"})
	token := currentToken(t, srv)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/checkins",
		map[string]string{"employee_id": "emp-1", "token": token})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/checkins",
		map[string]string{"employee_id": "emp-1", "token": token})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["message"], "already checked in")
}

func TestAPI_CheckIn_BadToken_BadRequest(t *testing.T) {
	srv, _, _ := newTestServer(t)
	doJSON(t, http.MethodPost, srv.URL+"/api/employees", map[string]string{"id": "emp-1", "name": "Ada"})

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/checkins",
		map[string]string{"employee_id": "emp-1", "token": "https://elsewhere/qr?x=1"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, body["success"])
}

func TestAPI_CheckIn_OutsideWindow(t *testing.T) {
	srv, _, clock := newTestServer(t)
	doJSON(t, http.MethodPost, srv.URL+"/api/employees", map[string]string{"id": "emp-1", "name": "Ada"})

	token := currentToken(t, srv)
	clock.Set(time.Date(2025, time.March, 10, 23, 0, 0, 0, time.UTC))

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/checkins",
		map[string]string{"employee_id": "emp-1", "token": token})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["message"], "closed")
}

func TestAPI_CheckIn_UnknownEmployee(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/checkins",
		map[string]string{"employee_id": "ghost", "token": currentToken(t, srv)})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_Window(t *testing.T) {
	srv, _, clock := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/window", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["open"])
	assert.Equal(t, "06:00", body["window_start"])
	assert.Equal(t, "10:00", body["window_end"])

	clock.Set(time.Date(2025, time.March, 10, 5, 0, 0, 0, time.UTC))
	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/window", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["open"])
	assert.Contains(t, body["reason"], "too early")
}

// =============================================================================
// EMPLOYEE ENDPOINT TESTS
// =============================================================================

func TestAPI_CreateEmployee_DuplicateConflict(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/employees", map[string]string{"id": "emp-1", "name": "Ada"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/employees", map[string]string{"id": "emp-1", "name": "Ada"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAPI_GetEmployee_NotFound(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/api/employees/ghost", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_GrantBonus(t *testing.T) {
	// GIVEN: An employee
	// WHEN: An admin grants 100 points
	// THEN: 201; the profile shows the balance and the Point Collector badge

	srv, _, _ := newTestServer(t)
	doJSON(t, http.MethodPost, srv.URL+"/api/employees", map[string]string{"id": "emp-1", "name": "Ada"})

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/employees/emp-1/bonuses",
		map[string]string{"points": "100", "reason": "Q1 MVP", "granted_by": "admin-7"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "100", body["points"])

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/employees/emp-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	points := body["points"].(map[string]any)
	assert.Equal(t, "100", points["total"])
	badges := body["badges"].([]any)
	require.Len(t, badges, 1)
	assert.Equal(t, "point-collector", badges[0].(map[string]any)["id"])
}

func TestAPI_GrantBonus_BadPoints(t *testing.T) {
	srv, _, _ := newTestServer(t)
	doJSON(t, http.MethodPost, srv.URL+"/api/employees", map[string]string{"id": "emp-1", "name": "Ada"})

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/employees/emp-1/bonuses",
		map[string]string{"points": "lots", "reason": "x", "granted_by": "admin-7"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// REWARD ENDPOINT TESTS
// =============================================================================

func TestAPI_RedemptionLifecycle(t *testing.T) {
	// GIVEN: An employee with 100 points
	// WHEN: Redeeming a reward, listing the queue, approving it
	// THEN: Statuses and balances track the state machine

	srv, _, _ := newTestServer(t)
	doJSON(t, http.MethodPost, srv.URL+"/api/employees", map[string]string{"id": "emp-1", "name": "Ada"})
	doJSON(t, http.MethodPost, srv.URL+"/api/employees/emp-1/bonuses",
		map[string]string{"points": "100", "reason": "seed", "granted_by": "admin-7"})

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/employees/emp-1/redemptions",
		map[string]string{"reward_id": "coffee-card"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "pending", body["status"])
	redemptionID := body["id"].(string)

	// Escrowed immediately.
	_, profile := doJSON(t, http.MethodGet, srv.URL+"/api/employees/emp-1", nil)
	assert.Equal(t, "75", profile["points"].(map[string]any)["total"])

	// Appears in the pending queue.
	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/redemptions/pending", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Approve: terminal, no balance change.
	resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/redemptions/"+redemptionID+"/approve", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "approved", body["status"])

	_, profile = doJSON(t, http.MethodGet, srv.URL+"/api/employees/emp-1", nil)
	assert.Equal(t, "75", profile["points"].(map[string]any)["total"])

	// A second resolution is a conflict.
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/redemptions/"+redemptionID+"/reject", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAPI_Redeem_InsufficientPoints(t *testing.T) {
	srv, _, _ := newTestServer(t)
	doJSON(t, http.MethodPost, srv.URL+"/api/employees", map[string]string{"id": "emp-1", "name": "Ada"})

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/employees/emp-1/redemptions",
		map[string]string{"reward_id": "coffee-card"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_ListRewards(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/rewards", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rewards []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rewards))
	assert.Len(t, rewards, 5)
}

// =============================================================================
// LEADERBOARD TESTS
// =============================================================================

func TestAPI_Leaderboard(t *testing.T) {
	// GIVEN: Two employees with different totals
	// WHEN: Fetching the total leaderboard
	// THEN: Ranked by points descending

	srv, _, _ := newTestServer(t)
	doJSON(t, http.MethodPost, srv.URL+"/api/employees", map[string]string{"id": "emp-1", "name": "Ada"})
	doJSON(t, http.MethodPost, srv.URL+"/api/employees", map[string]string{"id": "emp-2", "name": "Grace"})
	doJSON(t, http.MethodPost, srv.URL+"/api/employees/emp-1/bonuses",
		map[string]string{"points": "10", "reason": "seed", "granted_by": "a"})
	doJSON(t, http.MethodPost, srv.URL+"/api/employees/emp-2/bonuses",
		map[string]string{"points": "20", "reason": "seed", "granted_by": "a"})

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/leaderboard?period=total", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var entries []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "emp-2", entries[0]["employee_id"])
	assert.Equal(t, float64(1), entries[0]["rank"])
	assert.Equal(t, "emp-1", entries[1]["employee_id"])
}

func TestAPI_Leaderboard_BadPeriod(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/api/leaderboard?period=hourly", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
