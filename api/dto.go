/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/warp/checkin-engine/gamify"
)

// =============================================================================
// EMPLOYEES
// =============================================================================

type EmployeeDTO struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Email         string      `json:"email,omitempty"`
	Points        BalancesDTO `json:"points"`
	CurrentStreak int         `json:"current_streak"`
	LongestStreak int         `json:"longest_streak"`
	Badges        []BadgeDTO  `json:"badges"`
	CreatedAt     string      `json:"created_at,omitempty"`
}

type BalancesDTO struct {
	Total     string `json:"total"`
	Weekly    string `json:"weekly"`
	Monthly   string `json:"monthly"`
	Quarterly string `json:"quarterly"`
}

type BadgeDTO struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Icon       string `json:"icon,omitempty"`
	UnlockedAt string `json:"unlocked_at"`
}

type CreateEmployeeRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// =============================================================================
// CHECK-INS
// =============================================================================

type CheckInRequest struct {
	EmployeeID string `json:"employee_id"`
	Token      string `json:"token"`
}

type CheckInResponse struct {
	Success     bool       `json:"success"`
	Message     string     `json:"message"`
	Points      string     `json:"points_earned,omitempty"`
	Tier        string     `json:"tier,omitempty"`
	Streak      int        `json:"streak,omitempty"`
	NewBadges   []BadgeDTO `json:"new_badges,omitempty"`
	Affirmation string     `json:"affirmation,omitempty"`
}

type EventDTO struct {
	ID          string `json:"id"`
	Day         string `json:"day"`
	OccurredAt  string `json:"occurred_at"`
	Tier        string `json:"tier"`
	Points      string `json:"points"`
	BonusReason string `json:"bonus_reason,omitempty"`
}

type TokenDTO struct {
	Token    string `json:"token"`
	Strategy string `json:"strategy"`
	Version  int    `json:"version"`
}

type WindowDTO struct {
	Open        bool   `json:"open"`
	CurrentTime string `json:"current_time"`
	WindowStart string `json:"window_start"`
	WindowEnd   string `json:"window_end"`
	Reason      string `json:"reason,omitempty"`
}

// =============================================================================
// BONUSES
// =============================================================================

type GrantBonusRequest struct {
	Points    string `json:"points"`
	Reason    string `json:"reason"`
	GrantedBy string `json:"granted_by"`
}

type BonusDTO struct {
	ID        string `json:"id"`
	Points    string `json:"points"`
	Reason    string `json:"reason"`
	GrantedBy string `json:"granted_by"`
	GrantedAt string `json:"granted_at"`
}

// =============================================================================
// REWARDS
// =============================================================================

type RewardDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	PointsCost  string `json:"points_cost"`
	Category    string `json:"category"`
	Available   bool   `json:"available"`
}

type RedeemRequest struct {
	RewardID string `json:"reward_id"`
}

type RedemptionDTO struct {
	ID         string `json:"id"`
	RewardID   string `json:"reward_id"`
	RewardName string `json:"reward_name"`
	PointsCost string `json:"points_cost"`
	Status     string `json:"status"`
	RedeemedAt string `json:"redeemed_at"`
	ResolvedAt string `json:"resolved_at,omitempty"`
}

type PendingRedemptionDTO struct {
	EmployeeID   string        `json:"employee_id"`
	EmployeeName string        `json:"employee_name"`
	Redemption   RedemptionDTO `json:"redemption"`
}

// =============================================================================
// LEADERBOARD
// =============================================================================

type LeaderboardEntryDTO struct {
	Rank          int    `json:"rank"`
	EmployeeID    string `json:"employee_id"`
	Name          string `json:"name"`
	Points        string `json:"points"`
	CurrentStreak int    `json:"current_streak"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toEmployeeDTO(e *gamify.Employee) EmployeeDTO {
	badges := make([]BadgeDTO, len(e.Badges))
	for i, b := range e.Badges {
		badges[i] = toBadgeDTO(b)
	}
	return EmployeeDTO{
		ID:    string(e.ID),
		Name:  e.Name,
		Email: e.Email,
		Points: BalancesDTO{
			Total:     e.Balances.Total.String(),
			Weekly:    e.Balances.Weekly.String(),
			Monthly:   e.Balances.Monthly.String(),
			Quarterly: e.Balances.Quarterly.String(),
		},
		CurrentStreak: e.CurrentStreak,
		LongestStreak: e.LongestStreak,
		Badges:        badges,
		CreatedAt:     formatTime(e.CreatedAt),
	}
}

func toBadgeDTO(b gamify.Badge) BadgeDTO {
	return BadgeDTO{
		ID:         string(b.ID),
		Name:       b.Name,
		Icon:       b.Icon,
		UnlockedAt: formatTime(b.UnlockedAt),
	}
}

func toEventDTO(ev gamify.CheckInEvent) EventDTO {
	return EventDTO{
		ID:          string(ev.ID),
		Day:         ev.Day,
		OccurredAt:  formatTime(ev.OccurredAt),
		Tier:        string(ev.Tier),
		Points:      ev.Points.String(),
		BonusReason: ev.BonusReason,
	}
}

func toRedemptionDTO(r gamify.RewardRedemption) RedemptionDTO {
	dto := RedemptionDTO{
		ID:         string(r.ID),
		RewardID:   string(r.RewardID),
		RewardName: r.RewardName,
		PointsCost: r.PointsCost.String(),
		Status:     string(r.Status),
		RedeemedAt: formatTime(r.RedeemedAt),
	}
	if r.ResolvedAt != nil {
		dto.ResolvedAt = formatTime(*r.ResolvedAt)
	}
	return dto
}

func toRewardDTO(def gamify.RewardDefinition) RewardDTO {
	return RewardDTO{
		ID:          string(def.ID),
		Name:        def.Name,
		Description: def.Description,
		PointsCost:  def.PointsCost.String(),
		Category:    string(def.Category),
		Available:   def.Available,
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
