package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"sitetrack-service/internal/domain"
)

// Initialize the database schema. Statements are portable between SQLite and Postgres.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("init schema: db is nil: %w", domain.ErrStoreUnavailable)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createUsersQuery := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		role TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		company TEXT NOT NULL DEFAULT '',
		vehicle_type TEXT NOT NULL DEFAULT '',
		license_plate TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE
	);
	`

	createRoutesQuery := `
	CREATE TABLE IF NOT EXISTS routes (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		waypoints TEXT NOT NULL,
		destination TEXT NOT NULL,
		vehicle_types TEXT NOT NULL,
		speed_limits TEXT NOT NULL,
		danger_zones TEXT NOT NULL,
		restricted_zones TEXT NOT NULL,
		estimated_time INTEGER NOT NULL DEFAULT 0,
		distance DOUBLE PRECISION NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE
	);
	`

	createDeliveriesQuery := `
	CREATE TABLE IF NOT EXISTS deliveries (
		id TEXT PRIMARY KEY,
		driver_id TEXT NOT NULL DEFAULT '',
		driver_name TEXT NOT NULL DEFAULT '',
		route_id TEXT NOT NULL,
		route_name TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		scheduled_time TEXT,
		start_time TEXT,
		end_time TEXT,
		company TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		vehicle_type TEXT NOT NULL DEFAULT '',
		license_plate TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);
	`

	createLocationHistoryQuery := `
	CREATE TABLE IF NOT EXISTS location_history (
		id TEXT PRIMARY KEY,
		driver_id TEXT NOT NULL,
		delivery_id TEXT NOT NULL DEFAULT '',
		latitude DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		speed DOUBLE PRECISION NOT NULL DEFAULT 0,
		heading DOUBLE PRECISION NOT NULL DEFAULT 0,
		recorded_at TEXT NOT NULL
	);
	`

	createAlertsQuery := `
	CREATE TABLE IF NOT EXISTS alerts (
		id TEXT PRIMARY KEY,
		driver_id TEXT NOT NULL,
		driver_name TEXT NOT NULL DEFAULT '',
		delivery_id TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL,
		message TEXT NOT NULL,
		latitude DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		severity TEXT NOT NULL,
		is_resolved BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL,
		resolved_at TEXT
	);
	`

	statements := []string{
		createUsersQuery,
		createRoutesQuery,
		createDeliveriesQuery,
		createLocationHistoryQuery,
		createAlertsQuery,
		`CREATE INDEX IF NOT EXISTS idx_deliveries_status_created ON deliveries(status, created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_location_history_delivery ON location_history(delivery_id, recorded_at);`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_resolved_created ON alerts(is_resolved, created_at);`,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

// SeedRoutes inserts catalog routes whose ids are not stored yet and
// reports how many were added. Existing rows are left untouched.
func (s *SQLStore) SeedRoutes(ctx context.Context, routes []domain.Route) (_ int, err error) {
	defer s.timer(ctx, "store.SeedRoutes")(&err)

	if err := s.ready("seed routes"); err != nil {
		return 0, err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, s.classify("seed routes: begin tx", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, s.rebind(insertRouteQuery+" ON CONFLICT (id) DO NOTHING"))
	if err != nil {
		return 0, fmt.Errorf("seed routes: prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	added := 0
	for i := range routes {
		r := routes[i]
		if strings.TrimSpace(r.ID) == "" {
			return 0, fmt.Errorf("seed routes: route at index %d has no id: %w", i, domain.ErrValidation)
		}
		if err := r.Validate(); err != nil {
			return 0, fmt.Errorf("seed routes: %w", err)
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}

		args, err := routeArgs(&r)
		if err != nil {
			return 0, fmt.Errorf("seed routes: route %s: %w", r.ID, err)
		}
		res, err := stmt.ExecContext(ctx, args...)
		if err != nil {
			return 0, fmt.Errorf("seed routes: insert route %s: %w", r.ID, err)
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			added++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("seed routes: commit tx: %w", err)
	}

	return added, nil
}

var errEmptyID = errors.New("id must not be empty")
