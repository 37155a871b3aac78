/*
Package sqlite provides a SQLite-backed implementation of the storage ports.

PURPOSE:
  Implements gamify.EmployeeStore and gamify.RewardCatalog using SQLite.
  In production the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

AGGREGATE PERSISTENCE:
  Load assembles the full Employee aggregate from five tables; Save writes
  it back in one database transaction. Check-in events, bonus grants, and
  badges are insert-only (INSERT OR IGNORE by primary key); redemptions are
  the only children that may change after insert, and only their status and
  resolution time.

KEY TABLES:
  employees:      Identity, balances, streak counters
  checkin_events: One row per employee per calendar day
  bonus_grants:   Admin point awards
  badges:         Unlocked achievements, unique per (employee, badge)
  redemptions:    Reward spends with status lifecycle
  rewards:        Read-only catalog

DUPLICATE-DAY DEFENSE:
  idx_unique_checkin_day enforces one check-in per employee per day at the
  database level. The service checks first under its per-employee lock, but
  the constraint is the last line of defense against races.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  multiple readers don't block and crash recovery improves.

USAGE:
  store, err := sqlite.New("./data/checkin.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - gamify/store.go: Port definitions
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/checkin-engine/gamify"
)

// Store implements the storage ports using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a SQLite store at the given path. Use ":memory:" for tests.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT,
		total_points TEXT NOT NULL DEFAULT '0',
		weekly_points TEXT NOT NULL DEFAULT '0',
		monthly_points TEXT NOT NULL DEFAULT '0',
		quarterly_points TEXT NOT NULL DEFAULT '0',
		current_streak INTEGER NOT NULL DEFAULT 0,
		longest_streak INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS checkin_events (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id),
		occurred_at TEXT NOT NULL,
		day TEXT NOT NULL,
		tier TEXT NOT NULL,
		points TEXT NOT NULL,
		bonus_reason TEXT
	);

	-- CRITICAL: one check-in per employee per calendar day.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_unique_checkin_day
		ON checkin_events(employee_id, day);

	CREATE INDEX IF NOT EXISTS idx_checkin_events_employee
		ON checkin_events(employee_id, day DESC);

	CREATE TABLE IF NOT EXISTS bonus_grants (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id),
		granted_at TEXT NOT NULL,
		points TEXT NOT NULL,
		reason TEXT NOT NULL,
		granted_by TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_bonus_grants_employee
		ON bonus_grants(employee_id);

	CREATE TABLE IF NOT EXISTS badges (
		employee_id TEXT NOT NULL REFERENCES employees(id),
		badge_id TEXT NOT NULL,
		name TEXT NOT NULL,
		icon TEXT,
		unlocked_at TEXT NOT NULL,
		PRIMARY KEY (employee_id, badge_id)
	);

	CREATE TABLE IF NOT EXISTS redemptions (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id),
		reward_id TEXT NOT NULL,
		reward_name TEXT NOT NULL,
		points_cost TEXT NOT NULL,
		status TEXT NOT NULL,
		redeemed_at TEXT NOT NULL,
		resolved_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_redemptions_employee
		ON redemptions(employee_id);
	CREATE INDEX IF NOT EXISTS idx_redemptions_status
		ON redemptions(status);

	CREATE TABLE IF NOT EXISTS rewards (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		points_cost TEXT NOT NULL,
		category TEXT NOT NULL,
		available INTEGER NOT NULL DEFAULT 1
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// EMPLOYEE STORE
// =============================================================================

func (s *Store) Load(ctx context.Context, id gamify.EmployeeID) (*gamify.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.load(ctx, id)
}

func (s *Store) load(ctx context.Context, id gamify.EmployeeID) (*gamify.Employee, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, total_points, weekly_points, monthly_points,
		       quarterly_points, current_streak, longest_streak, created_at
		FROM employees WHERE id = ?`, string(id))

	e := &gamify.Employee{}
	var total, weekly, monthly, quarterly, createdAt string
	var email sql.NullString
	err := row.Scan(&e.ID, &e.Name, &email, &total, &weekly, &monthly,
		&quarterly, &e.CurrentStreak, &e.LongestStreak, &createdAt)
	if err == sql.ErrNoRows {
		return nil, gamify.ErrEmployeeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load employee: %w", err)
	}

	e.Email = email.String
	e.Balances = gamify.Balances{
		Total:     mustDecimal(total),
		Weekly:    mustDecimal(weekly),
		Monthly:   mustDecimal(monthly),
		Quarterly: mustDecimal(quarterly),
	}
	e.CreatedAt = parseTime(createdAt)

	if e.CheckIns, err = s.loadEvents(ctx, id); err != nil {
		return nil, err
	}
	if e.Bonuses, err = s.loadBonuses(ctx, id); err != nil {
		return nil, err
	}
	if e.Badges, err = s.loadBadges(ctx, id); err != nil {
		return nil, err
	}
	if e.Redemptions, err = s.loadRedemptions(ctx, id); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Store) loadEvents(ctx context.Context, id gamify.EmployeeID) ([]gamify.CheckInEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, occurred_at, day, tier, points, bonus_reason
		FROM checkin_events WHERE employee_id = ? ORDER BY day`, string(id))
	if err != nil {
		return nil, fmt.Errorf("failed to load check-in events: %w", err)
	}
	defer rows.Close()

	var events []gamify.CheckInEvent
	for rows.Next() {
		var ev gamify.CheckInEvent
		var occurredAt, points string
		var reason sql.NullString
		if err := rows.Scan(&ev.ID, &occurredAt, &ev.Day, &ev.Tier, &points, &reason); err != nil {
			return nil, err
		}
		ev.OccurredAt = parseTime(occurredAt)
		ev.Points = mustDecimal(points)
		ev.BonusReason = reason.String
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (s *Store) loadBonuses(ctx context.Context, id gamify.EmployeeID) ([]gamify.BonusGrant, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, granted_at, points, reason, granted_by
		FROM bonus_grants WHERE employee_id = ? ORDER BY granted_at`, string(id))
	if err != nil {
		return nil, fmt.Errorf("failed to load bonus grants: %w", err)
	}
	defer rows.Close()

	var grants []gamify.BonusGrant
	for rows.Next() {
		var g gamify.BonusGrant
		var grantedAt, points string
		if err := rows.Scan(&g.ID, &grantedAt, &points, &g.Reason, &g.GrantedBy); err != nil {
			return nil, err
		}
		g.GrantedAt = parseTime(grantedAt)
		g.Points = mustDecimal(points)
		grants = append(grants, g)
	}
	return grants, rows.Err()
}

func (s *Store) loadBadges(ctx context.Context, id gamify.EmployeeID) ([]gamify.Badge, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT badge_id, name, icon, unlocked_at
		FROM badges WHERE employee_id = ? ORDER BY unlocked_at`, string(id))
	if err != nil {
		return nil, fmt.Errorf("failed to load badges: %w", err)
	}
	defer rows.Close()

	var badges []gamify.Badge
	for rows.Next() {
		var b gamify.Badge
		var icon sql.NullString
		var unlockedAt string
		if err := rows.Scan(&b.ID, &b.Name, &icon, &unlockedAt); err != nil {
			return nil, err
		}
		b.Icon = icon.String
		b.UnlockedAt = parseTime(unlockedAt)
		badges = append(badges, b)
	}
	return badges, rows.Err()
}

func (s *Store) loadRedemptions(ctx context.Context, id gamify.EmployeeID) ([]gamify.RewardRedemption, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, reward_id, reward_name, points_cost, status, redeemed_at, resolved_at
		FROM redemptions WHERE employee_id = ? ORDER BY redeemed_at`, string(id))
	if err != nil {
		return nil, fmt.Errorf("failed to load redemptions: %w", err)
	}
	defer rows.Close()

	var redemptions []gamify.RewardRedemption
	for rows.Next() {
		var r gamify.RewardRedemption
		var cost, redeemedAt string
		var resolvedAt sql.NullString
		if err := rows.Scan(&r.ID, &r.RewardID, &r.RewardName, &cost, &r.Status, &redeemedAt, &resolvedAt); err != nil {
			return nil, err
		}
		r.PointsCost = mustDecimal(cost)
		r.RedeemedAt = parseTime(redeemedAt)
		if resolvedAt.Valid {
			t := parseTime(resolvedAt.String)
			r.ResolvedAt = &t
		}
		redemptions = append(redemptions, r)
	}
	return redemptions, rows.Err()
}

// Save persists the full aggregate in one database transaction.
func (s *Store) Save(ctx context.Context, e *gamify.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin save: %w", err)
	}
	defer tx.Rollback()

	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO employees (id, name, email, total_points, weekly_points,
			monthly_points, quarterly_points, current_streak, longest_streak, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			total_points = excluded.total_points,
			weekly_points = excluded.weekly_points,
			monthly_points = excluded.monthly_points,
			quarterly_points = excluded.quarterly_points,
			current_streak = excluded.current_streak,
			longest_streak = excluded.longest_streak`,
		string(e.ID), e.Name, e.Email,
		e.Balances.Total.String(), e.Balances.Weekly.String(),
		e.Balances.Monthly.String(), e.Balances.Quarterly.String(),
		e.CurrentStreak, e.LongestStreak, formatTime(createdAt))
	if err != nil {
		return fmt.Errorf("failed to save employee: %w", err)
	}

	for _, ev := range e.CheckIns {
		var reason any
		if ev.BonusReason != "" {
			reason = ev.BonusReason
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO checkin_events (id, employee_id, occurred_at, day, tier, points, bonus_reason)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING`,
			string(ev.ID), string(e.ID), formatTime(ev.OccurredAt), ev.Day,
			string(ev.Tier), ev.Points.String(), reason)
		if err != nil {
			if isUniqueConstraintError(err) {
				return &gamify.DuplicateCheckInError{EmployeeID: e.ID, Day: ev.Day}
			}
			return fmt.Errorf("failed to save check-in event: %w", err)
		}
	}

	for _, g := range e.Bonuses {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO bonus_grants (id, employee_id, granted_at, points, reason, granted_by)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING`,
			string(g.ID), string(e.ID), formatTime(g.GrantedAt),
			g.Points.String(), g.Reason, g.GrantedBy)
		if err != nil {
			return fmt.Errorf("failed to save bonus grant: %w", err)
		}
	}

	for _, b := range e.Badges {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO badges (employee_id, badge_id, name, icon, unlocked_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(employee_id, badge_id) DO NOTHING`,
			string(e.ID), string(b.ID), b.Name, b.Icon, formatTime(b.UnlockedAt))
		if err != nil {
			return fmt.Errorf("failed to save badge: %w", err)
		}
	}

	for _, r := range e.Redemptions {
		var resolvedAt any
		if r.ResolvedAt != nil {
			resolvedAt = formatTime(*r.ResolvedAt)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO redemptions (id, employee_id, reward_id, reward_name,
				points_cost, status, redeemed_at, resolved_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				status = excluded.status,
				resolved_at = excluded.resolved_at`,
			string(r.ID), string(e.ID), string(r.RewardID), r.RewardName,
			r.PointsCost.String(), string(r.Status), formatTime(r.RedeemedAt), resolvedAt)
		if err != nil {
			return fmt.Errorf("failed to save redemption: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit save: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]*gamify.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id FROM employees ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	ids := []gamify.EmployeeID{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, gamify.EmployeeID(id))
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	employees := make([]*gamify.Employee, 0, len(ids))
	for _, id := range ids {
		e, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, nil
}

func (s *Store) FindRedemptionOwner(ctx context.Context, id gamify.RedemptionID) (gamify.EmployeeID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var owner string
	err := s.db.QueryRowContext(ctx,
		`SELECT employee_id FROM redemptions WHERE id = ?`, string(id)).Scan(&owner)
	if err == sql.ErrNoRows {
		return "", gamify.ErrRedemptionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to find redemption owner: %w", err)
	}
	return gamify.EmployeeID(owner), nil
}

// =============================================================================
// REWARD CATALOG
// =============================================================================

func (s *Store) LoadCatalog(ctx context.Context) ([]gamify.RewardDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, points_cost, category, available
		FROM rewards ORDER BY points_cost`)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	defer rows.Close()

	var defs []gamify.RewardDefinition
	for rows.Next() {
		def, err := scanReward(rows.Scan)
		if err != nil {
			return nil, err
		}
		defs = append(defs, *def)
	}
	return defs, rows.Err()
}

func (s *Store) FindReward(ctx context.Context, id gamify.RewardID) (*gamify.RewardDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, points_cost, category, available
		FROM rewards WHERE id = ?`, string(id))

	def, err := scanReward(row.Scan)
	if err == sql.ErrNoRows {
		return nil, gamify.ErrRewardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find reward: %w", err)
	}
	return def, nil
}

// SeedCatalog inserts reward definitions that are not already present.
func (s *Store) SeedCatalog(ctx context.Context, defs []gamify.RewardDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, def := range defs {
		available := 0
		if def.Available {
			available = 1
		}
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO rewards (id, name, description, points_cost, category, available)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING`,
			string(def.ID), def.Name, def.Description,
			def.PointsCost.String(), string(def.Category), available)
		if err != nil {
			return fmt.Errorf("failed to seed reward %s: %w", def.ID, err)
		}
	}
	return nil
}

func scanReward(scan func(...any) error) (*gamify.RewardDefinition, error) {
	var def gamify.RewardDefinition
	var desc sql.NullString
	var cost string
	var available int
	if err := scan(&def.ID, &def.Name, &desc, &cost, &def.Category, &available); err != nil {
		return nil, err
	}
	def.Description = desc.String
	def.PointsCost = mustDecimal(cost)
	def.Available = available != 0
	return &def, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Compile-time interface checks.
var (
	_ gamify.EmployeeStore = (*Store)(nil)
	_ gamify.RewardCatalog = (*Store)(nil)
)
