/*
token.go - Rotating check-in token generation and validation

PURPOSE:
  The kiosk displays a rotating token URL; employees scan it to check in.
  This file generates the current token and validates scanned strings
  against the current period for the configured rotation strategy.

TOKEN WIRE FORMAT (URL-encoded):
  Current: <baseURL>?period=<string>&token=<sig>&strategy=<strategy>&v=<n>
  Legacy:  <baseURL>?date=<YYYY-MM-DD>&token=<sig>   (treated as daily)

SIGNATURE:
  The "token" parameter is a deterministic base64 encoding of a fixed
  marker, the period string, and the base URL. It is NOT a MAC: anyone who
  knows the scheme can forge it. The source system works this way and the
  behavior is preserved; see DESIGN.md before hardening.

PERIODS:
  daily:   "2006-01-02" of the current local day
  weekly:  "week-" + ISO Monday of the current week
  monthly: "month-" + "2006-01" of the current month
  manual:  any period accepted; operators invalidate by bumping the
           version embedded in newly generated tokens and reprinting

SEE ALSO:
  - window.go: The other gate a check-in must pass
  - service.go: Runs both gates before touching the ledger
*/
package gamify

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// tokenMarker is the fixed prefix mixed into every signature.
const tokenMarker = "warp-checkin-v1"

// =============================================================================
// SIGNATURE + PERIODS
// =============================================================================

// SignPeriod computes the deterministic token signature for a period.
func SignPeriod(period, baseURL string) string {
	payload := tokenMarker + "|" + period + "|" + baseURL
	return base64.RawURLEncoding.EncodeToString([]byte(payload))
}

// currentPeriod returns the valid period string for a strategy at the
// clock's current instant. RotationManual has no calendar period; it maps
// to a stable "manual" marker.
func currentPeriod(strategy RotationStrategy, s Settings, clock Clock) string {
	now := clock.Now().In(s.Timezone)
	switch strategy {
	case RotationWeekly:
		// ISO weeks start Monday.
		offset := (int(now.Weekday()) + 6) % 7
		monday := now.AddDate(0, 0, -offset)
		return "week-" + monday.Format("2006-01-02")
	case RotationMonthly:
		return "month-" + now.Format("2006-01")
	case RotationManual:
		return "manual"
	default: // RotationDaily
		return now.Format("2006-01-02")
	}
}

// =============================================================================
// GENERATOR - Produces the rotating kiosk token
// =============================================================================

type TokenGenerator struct {
	Settings Settings
	Clock    Clock
}

// Generate returns the full token URL for the configured strategy.
func (g *TokenGenerator) Generate() string {
	return g.GenerateFor(g.Settings.Strategy)
}

// GenerateFor returns the token URL for an explicit strategy.
func (g *TokenGenerator) GenerateFor(strategy RotationStrategy) string {
	period := currentPeriod(strategy, g.Settings, g.Clock)
	q := url.Values{}
	q.Set("period", period)
	q.Set("token", SignPeriod(period, g.Settings.BaseURL))
	q.Set("strategy", string(strategy))
	q.Set("v", strconv.Itoa(g.Settings.ManualVersion))
	return g.Settings.BaseURL + "?" + q.Encode()
}

// =============================================================================
// PARSED TOKEN
// =============================================================================

// ParsedToken is the decoded form of a scanned string.
type ParsedToken struct {
	Period   string
	Token    string
	Strategy RotationStrategy
	Version  int
	Legacy   bool // came in as ?date=...&token=... with no strategy
}

// =============================================================================
// VALIDATOR
// =============================================================================

type TokenValidator struct {
	Settings Settings
	Clock    Clock
}

// Validate parses a scanned string and checks it against the current period.
// On success the parsed token is returned. On failure the error is a
// *TokenError wrapping ErrInvalidToken or ErrExpiredToken.
func (v *TokenValidator) Validate(raw string) (*ParsedToken, error) {
	if !strings.Contains(raw, v.Settings.BaseURL) {
		return nil, &TokenError{Reason: "this code is not a check-in token"}
	}

	parsed, err := parseToken(raw)
	if err != nil {
		return nil, err
	}

	expected := SignPeriod(parsed.Period, v.Settings.BaseURL)
	if parsed.Token != expected {
		return nil, &TokenError{
			Reason: "token signature mismatch: this code was not issued by the kiosk",
			Parsed: parsed,
		}
	}

	// Manual tokens never expire by date. Invalidation happens by bumping
	// the generator version and reprinting; the validator accepts any
	// correctly signed manual token.
	if parsed.Strategy == RotationManual {
		return parsed, nil
	}

	current := currentPeriod(parsed.Strategy, v.Settings, v.Clock)
	if parsed.Period != current {
		return nil, &TokenError{
			Expired: true,
			Reason:  expiredMessage(parsed.Strategy),
			Parsed:  parsed,
		}
	}

	return parsed, nil
}

func parseToken(raw string) (*ParsedToken, error) {
	idx := strings.Index(raw, "?")
	if idx < 0 {
		return nil, &TokenError{Reason: "token has no parameters"}
	}
	q, err := url.ParseQuery(raw[idx+1:])
	if err != nil {
		return nil, &TokenError{Reason: "token parameters are malformed"}
	}

	parsed := &ParsedToken{
		Period: q.Get("period"),
		Token:  q.Get("token"),
	}

	// Legacy form: ?date=YYYY-MM-DD&token=... is an old daily token.
	if parsed.Period == "" && q.Get("date") != "" {
		parsed.Period = q.Get("date")
		parsed.Strategy = RotationDaily
		parsed.Legacy = true
	} else {
		strategy, ok := ParseRotationStrategy(q.Get("strategy"))
		if !ok {
			return nil, &TokenError{Reason: fmt.Sprintf("unknown rotation strategy %q", q.Get("strategy"))}
		}
		parsed.Strategy = strategy
	}

	if parsed.Period == "" || parsed.Token == "" {
		return nil, &TokenError{Reason: "token is missing its period or signature"}
	}

	if ver := q.Get("v"); ver != "" {
		n, err := strconv.Atoi(ver)
		if err != nil {
			return nil, &TokenError{Reason: "token version is not a number"}
		}
		parsed.Version = n
	}

	return parsed, nil
}

func expiredMessage(strategy RotationStrategy) string {
	switch strategy {
	case RotationWeekly:
		return "this token expired: a new code is issued every Monday"
	case RotationMonthly:
		return "this token expired: a new code is issued each month"
	default:
		return "this token expired: a new code is issued each day"
	}
}
