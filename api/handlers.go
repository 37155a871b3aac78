/*
handlers.go - HTTP API handlers for the attendance gamification engine

PURPOSE:
  Exposes the engine via REST API. Handles HTTP request/response, JSON
  serialization, and delegates to domain logic.

ENDPOINTS:
  Check-ins:
    GET    /api/token                        Current rotating kiosk token
    GET    /api/window                       Check-in window status
    POST   /api/checkins                     Record a scan

  Employees:
    GET    /api/employees                    List all employees
    POST   /api/employees                    Create employee
    GET    /api/employees/{id}               Profile, balances, badges
    GET    /api/employees/{id}/events        Check-in history
    POST   /api/employees/{id}/bonuses       Admin point grant
    POST   /api/employees/{id}/redemptions   Redeem a reward

  Rewards:
    GET    /api/rewards                      Reward catalog
    GET    /api/redemptions/pending          Admin approval queue
    POST   /api/redemptions/{id}/approve     Approve pending redemption
    POST   /api/redemptions/{id}/reject      Reject pending redemption

  Leaderboard:
    GET    /api/leaderboard?period=...       total|weekly|monthly|quarterly

ERROR HANDLING:
  Domain errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid input, bad/expired tokens, closed window, short balance
  - 404: Employee/reward/redemption not found
  - 409: Duplicate check-in, non-pending redemption
  - 500: Internal errors

SECURITY NOTE:
  The identity/approval directory is an external collaborator; this API
  trusts the ids it is handed and carries no authentication middleware.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/warp/checkin-engine/gamify"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	CheckIns *gamify.CheckInService
	Rewards  *gamify.RewardService
	Store    gamify.EmployeeStore
	Catalog  gamify.RewardCatalog
	Quotes   QuoteProvider
	Clock    gamify.Clock
	Settings gamify.Settings
}

// NewHandler wires a handler over one shared lock set.
func NewHandler(store gamify.EmployeeStore, catalog gamify.RewardCatalog, settings gamify.Settings, clock gamify.Clock) *Handler {
	locks := gamify.NewEntityLocks()
	return &Handler{
		CheckIns: gamify.NewCheckInService(store, settings, clock, locks),
		Rewards:  gamify.NewRewardService(store, catalog, clock, locks),
		Store:    store,
		Catalog:  catalog,
		Quotes:   StaticQuotes{},
		Clock:    clock,
		Settings: settings,
	}
}

// =============================================================================
// CHECK-IN HANDLERS
// =============================================================================

// GetToken returns the current rotating kiosk token.
func (h *Handler) GetToken(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, TokenDTO{
		Token:    h.CheckIns.CurrentToken(),
		Strategy: string(h.Settings.Strategy),
		Version:  h.Settings.ManualVersion,
	})
}

// GetWindow returns the current window status for display.
func (h *Handler) GetWindow(w http.ResponseWriter, r *http.Request) {
	status, err := h.CheckIns.WindowStatus()
	dto := WindowDTO{
		Open:        status.Open,
		CurrentTime: gamify.FormatMinute(status.CurrentMinute),
		WindowStart: gamify.FormatMinute(status.WindowStart),
		WindowEnd:   gamify.FormatMinute(status.WindowEnd),
	}
	if err != nil {
		dto.Reason = err.Error()
	}
	writeJSON(w, http.StatusOK, dto)
}

// PostCheckIn records a scan.
func (h *Handler) PostCheckIn(w http.ResponseWriter, r *http.Request) {
	var req CheckInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.EmployeeID == "" || req.Token == "" {
		writeError(w, http.StatusBadRequest, "employee_id and token are required", nil)
		return
	}

	result, err := h.CheckIns.CheckIn(r.Context(), gamify.EmployeeID(req.EmployeeID), req.Token)
	if err != nil {
		writeJSON(w, statusFor(err), CheckInResponse{Success: false, Message: err.Error()})
		return
	}

	badges := make([]BadgeDTO, len(result.NewBadges))
	for i, b := range result.NewBadges {
		badges[i] = toBadgeDTO(b)
	}
	writeJSON(w, http.StatusCreated, CheckInResponse{
		Success:     true,
		Message:     result.Message,
		Points:      result.Points.String(),
		Tier:        string(result.Tier),
		Streak:      result.Streak,
		NewBadges:   badges,
		Affirmation: h.Quotes.Affirmation(result.Tier, h.Settings.DayOf(h.Clock.Now())),
	})
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id := gamify.EmployeeID(chi.URLParam(r, "id"))
	e, err := h.Store.Load(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), "failed to get employee", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(e))
}

func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}

	if _, err := h.Store.Load(r.Context(), gamify.EmployeeID(req.ID)); err == nil {
		writeError(w, http.StatusConflict, "employee already exists", nil)
		return
	} else if !errors.Is(err, gamify.ErrEmployeeNotFound) {
		writeError(w, http.StatusInternalServerError, "failed to check employee", err)
		return
	}

	e := &gamify.Employee{
		ID:        gamify.EmployeeID(req.ID),
		Name:      req.Name,
		Email:     req.Email,
		CreatedAt: h.Clock.Now(),
	}
	if err := h.Store.Save(r.Context(), e); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(e))
}

func (h *Handler) GetEvents(w http.ResponseWriter, r *http.Request) {
	id := gamify.EmployeeID(chi.URLParam(r, "id"))
	e, err := h.Store.Load(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), "failed to get employee", err)
		return
	}

	dtos := make([]EventDTO, len(e.CheckIns))
	for i, ev := range e.CheckIns {
		dtos[i] = toEventDTO(ev)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GrantBonus(w http.ResponseWriter, r *http.Request) {
	id := gamify.EmployeeID(chi.URLParam(r, "id"))

	var req GrantBonusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	points, err := decimal.NewFromString(req.Points)
	if err != nil {
		writeError(w, http.StatusBadRequest, "points must be a number", err)
		return
	}
	if req.Reason == "" || req.GrantedBy == "" {
		writeError(w, http.StatusBadRequest, "reason and granted_by are required", nil)
		return
	}

	grant, err := h.CheckIns.GrantBonus(r.Context(), id, points, req.Reason, req.GrantedBy)
	if err != nil {
		writeError(w, statusFor(err), "failed to grant bonus", err)
		return
	}
	writeJSON(w, http.StatusCreated, BonusDTO{
		ID:        string(grant.ID),
		Points:    grant.Points.String(),
		Reason:    grant.Reason,
		GrantedBy: grant.GrantedBy,
		GrantedAt: formatTime(grant.GrantedAt),
	})
}

// =============================================================================
// REWARD HANDLERS
// =============================================================================

func (h *Handler) ListRewards(w http.ResponseWriter, r *http.Request) {
	defs, err := h.Catalog.LoadCatalog(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load catalog", err)
		return
	}

	dtos := make([]RewardDTO, len(defs))
	for i, def := range defs {
		dtos[i] = toRewardDTO(def)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) Redeem(w http.ResponseWriter, r *http.Request) {
	id := gamify.EmployeeID(chi.URLParam(r, "id"))

	var req RedeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.RewardID == "" {
		writeError(w, http.StatusBadRequest, "reward_id is required", nil)
		return
	}

	redemption, err := h.Rewards.Redeem(r.Context(), id, gamify.RewardID(req.RewardID))
	if err != nil {
		writeError(w, statusFor(err), "failed to redeem", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRedemptionDTO(*redemption))
}

func (h *Handler) ListPendingRedemptions(w http.ResponseWriter, r *http.Request) {
	pending, err := h.Rewards.PendingRedemptions(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list pending redemptions", err)
		return
	}

	dtos := make([]PendingRedemptionDTO, len(pending))
	for i, p := range pending {
		dtos[i] = PendingRedemptionDTO{
			EmployeeID:   string(p.EmployeeID),
			EmployeeName: p.EmployeeName,
			Redemption:   toRedemptionDTO(p.Redemption),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) ApproveRedemption(w http.ResponseWriter, r *http.Request) {
	id := gamify.RedemptionID(chi.URLParam(r, "id"))
	redemption, err := h.Rewards.Approve(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), "failed to approve redemption", err)
		return
	}
	writeJSON(w, http.StatusOK, toRedemptionDTO(*redemption))
}

func (h *Handler) RejectRedemption(w http.ResponseWriter, r *http.Request) {
	id := gamify.RedemptionID(chi.URLParam(r, "id"))
	redemption, err := h.Rewards.Reject(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), "failed to reject redemption", err)
		return
	}
	writeJSON(w, http.StatusOK, toRedemptionDTO(*redemption))
}

// =============================================================================
// LEADERBOARD
// =============================================================================

func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "total"
	}

	employees, err := h.Store.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list employees", err)
		return
	}

	switch period {
	case "total", "weekly", "monthly", "quarterly":
	default:
		writeError(w, http.StatusBadRequest, "period must be total, weekly, monthly, or quarterly", nil)
		return
	}

	points := func(e *gamify.Employee) decimal.Decimal {
		switch period {
		case "weekly":
			return e.Balances.Weekly
		case "monthly":
			return e.Balances.Monthly
		case "quarterly":
			return e.Balances.Quarterly
		default:
			return e.Balances.Total
		}
	}

	sort.Slice(employees, func(i, j int) bool {
		return points(employees[i]).GreaterThan(points(employees[j]))
	})

	entries := make([]LeaderboardEntryDTO, len(employees))
	for i, e := range employees {
		entries[i] = LeaderboardEntryDTO{
			Rank:          i + 1,
			EmployeeID:    string(e.ID),
			Name:          e.Name,
			Points:        points(e).String(),
			CurrentStreak: e.CurrentStreak,
		}
	}
	writeJSON(w, http.StatusOK, entries)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	resp := errorResponse{Error: msg}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case gamify.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, gamify.ErrDuplicateCheckIn),
		errors.Is(err, gamify.ErrInvalidRedemptionState):
		return http.StatusConflict
	case gamify.IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
