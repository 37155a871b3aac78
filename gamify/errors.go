/*
errors.go - Centralized error types for the gamification engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Every failure carries a human-readable reason the caller surfaces
  verbatim; none are transient, so none are retried by the engine.

ERROR CATEGORIES:
  1. Token errors      - Bad or out-of-period scan codes
  2. Window errors     - Check-in attempted outside the daily window
  3. Ledger errors     - Duplicate day, missing employee
  4. Redemption errors - Insufficient points, illegal state transitions

USAGE:
  Callers branch with errors.Is():

    if errors.Is(err, gamify.ErrDuplicateCheckIn) {
        // already checked in today, nothing changed
    }

SEE ALSO:
  - token.go: Returns TokenError
  - window.go: Returns WindowError
  - service.go, rewards.go: Return the ledger and redemption errors
*/
package gamify

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidToken is returned when a scanned string is malformed or its
	// signature does not match the expected encoding.
	ErrInvalidToken = errors.New("invalid check-in token")

	// ErrExpiredToken is returned when a token's period is not the current
	// period for its rotation strategy.
	ErrExpiredToken = errors.New("expired check-in token")

	// ErrOutsideWindow is returned when the current time is outside the
	// configured daily check-in window.
	ErrOutsideWindow = errors.New("outside check-in window")

	// ErrDuplicateCheckIn is returned when an employee already has a
	// check-in event for today's calendar date. No state changes.
	ErrDuplicateCheckIn = errors.New("already checked in today")

	// ErrEmployeeNotFound is returned when an employee id cannot be resolved.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrRewardNotFound is returned when a catalog reward id doesn't exist.
	ErrRewardNotFound = errors.New("reward not found")

	// ErrRewardUnavailable is returned when a reward exists but is not
	// currently offered.
	ErrRewardUnavailable = errors.New("reward not available")

	// ErrInsufficientPoints is returned when a redemption costs more than
	// the employee's total balance. No state changes.
	ErrInsufficientPoints = errors.New("insufficient points")

	// ErrRedemptionNotFound is returned when a redemption id cannot be resolved.
	ErrRedemptionNotFound = errors.New("redemption not found")

	// ErrInvalidRedemptionState is returned when approving or rejecting a
	// redemption that is no longer pending. The operation is a no-op.
	ErrInvalidRedemptionState = errors.New("redemption is not pending")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// TokenError describes why a scanned token was refused.
type TokenError struct {
	Expired bool   // false = malformed/bad signature, true = wrong period
	Reason  string // user-facing explanation
	Parsed  *ParsedToken
}

func (e *TokenError) Error() string { return e.Reason }

func (e *TokenError) Unwrap() error {
	if e.Expired {
		return ErrExpiredToken
	}
	return ErrInvalidToken
}

// WindowError describes a check-in attempt outside the daily window.
// TooEarly distinguishes "come back later" from "window closed" so the
// caller can show different guidance.
type WindowError struct {
	TooEarly      bool
	CurrentMinute int
	WindowStart   int
	WindowEnd     int
}

func (e *WindowError) Error() string {
	if e.TooEarly {
		return fmt.Sprintf("too early: check-ins open at %s (current time %s)",
			FormatMinute(e.WindowStart), FormatMinute(e.CurrentMinute))
	}
	return fmt.Sprintf("check-in window closed at %s (current time %s)",
		FormatMinute(e.WindowEnd), FormatMinute(e.CurrentMinute))
}

func (e *WindowError) Unwrap() error { return ErrOutsideWindow }

// DuplicateCheckInError reports a second check-in on the same calendar day.
type DuplicateCheckInError struct {
	EmployeeID EmployeeID
	Day        string
}

func (e *DuplicateCheckInError) Error() string {
	return fmt.Sprintf("already checked in on %s", e.Day)
}

func (e *DuplicateCheckInError) Unwrap() error { return ErrDuplicateCheckIn }

// InsufficientPointsError provides details about a balance shortage.
type InsufficientPointsError struct {
	EmployeeID EmployeeID
	Available  decimal.Decimal
	Requested  decimal.Decimal
	Shortfall  decimal.Decimal
}

func (e *InsufficientPointsError) Error() string {
	return fmt.Sprintf("insufficient points: available %s, requested %s, shortfall %s",
		e.Available, e.Requested, e.Shortfall)
}

func (e *InsufficientPointsError) Unwrap() error { return ErrInsufficientPoints }

// RedemptionStateError reports an approve/reject on a non-pending redemption.
type RedemptionStateError struct {
	RedemptionID RedemptionID
	Status       RedemptionStatus
}

func (e *RedemptionStateError) Error() string {
	return fmt.Sprintf("redemption %s is already %s", e.RedemptionID, e.Status)
}

func (e *RedemptionStateError) Unwrap() error { return ErrInvalidRedemptionState }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input or
// state, as opposed to an infrastructure failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrExpiredToken) ||
		errors.Is(err, ErrOutsideWindow) ||
		errors.Is(err, ErrDuplicateCheckIn) ||
		errors.Is(err, ErrInsufficientPoints) ||
		errors.Is(err, ErrInvalidRedemptionState) ||
		errors.Is(err, ErrRewardUnavailable)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound) ||
		errors.Is(err, ErrRewardNotFound) ||
		errors.Is(err, ErrRedemptionNotFound)
}
