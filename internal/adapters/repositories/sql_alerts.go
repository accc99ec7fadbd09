package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"sitetrack-service/internal/domain"
	"sitetrack-service/internal/ports"
)

const alertColumns = `
	id, driver_id, driver_name, delivery_id, type, message, latitude, longitude,
	severity, is_resolved, created_at, resolved_at`

func scanAlert(row rowScanner) (*domain.Alert, error) {
	var (
		a          domain.Alert
		createdAt  string
		resolvedAt sql.NullString
	)
	err := row.Scan(
		&a.ID, &a.DriverID, &a.DriverName, &a.DeliveryID, &a.Kind, &a.Message,
		&a.Latitude, &a.Longitude, &a.Severity, &a.IsResolved, &createdAt, &resolvedAt,
	)
	if err != nil {
		return nil, err
	}
	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if a.ResolvedAt, err = parseTimePtr(resolvedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func alertConds(f ports.AlertFilter) ([]string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.Resolved != nil {
		conds = append(conds, "is_resolved = ?")
		args = append(args, *f.Resolved)
	}
	if f.Severity != "" {
		conds = append(conds, "severity = ?")
		args = append(args, string(f.Severity))
	}
	return conds, args
}

func (s *SQLStore) InsertAlert(ctx context.Context, a *domain.Alert) (err error) {
	defer s.timer(ctx, "store.InsertAlert")(&err)

	if err := s.ready("insert alert"); err != nil {
		return err
	}
	if a.ID == "" {
		return fmt.Errorf("insert alert: %w: %w", errEmptyID, domain.ErrValidation)
	}

	q := `INSERT INTO alerts (` + alertColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.exec(ctx, q,
		a.ID, a.DriverID, a.DriverName, a.DeliveryID, string(a.Kind), a.Message,
		a.Latitude, a.Longitude, string(a.Severity), a.IsResolved,
		formatTime(a.CreatedAt), formatTimePtr(a.ResolvedAt),
	)
	if err != nil {
		return s.classify(fmt.Sprintf("insert alert %s", a.ID), err)
	}
	return nil
}

func (s *SQLStore) ListAlerts(ctx context.Context, f ports.AlertFilter, limit int) (_ []*domain.Alert, err error) {
	defer s.timer(ctx, "store.ListAlerts")(&err)

	if err := s.ready("list alerts"); err != nil {
		return nil, err
	}

	conds, args := alertConds(f)
	q := `SELECT ` + alertColumns + ` FROM alerts` + whereClause(conds) + ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limitOrMax(limit))

	rows, err := s.query(ctx, q, args...)
	if err != nil {
		return nil, s.classify("list alerts: query alerts table", err)
	}
	defer rows.Close()

	out := make([]*domain.Alert, 0, 32)
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("list alerts: scan row: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, s.classify("list alerts: row iteration", err)
	}

	return out, nil
}

func (s *SQLStore) ResolveAlert(ctx context.Context, id string, at time.Time) (err error) {
	defer s.timer(ctx, "store.ResolveAlert")(&err)

	if err := s.ready("resolve alert"); err != nil {
		return err
	}

	res, err := s.exec(ctx, `UPDATE alerts SET is_resolved = ?, resolved_at = ? WHERE id = ?`, true, formatTime(at), id)
	if err != nil {
		return s.classify(fmt.Sprintf("resolve alert %s", id), err)
	}
	return expectOne(fmt.Sprintf("resolve alert %s", id), res)
}

func (s *SQLStore) CountAlerts(ctx context.Context, f ports.AlertFilter) (_ int, err error) {
	defer s.timer(ctx, "store.CountAlerts")(&err)

	if err := s.ready("count alerts"); err != nil {
		return 0, err
	}

	conds, args := alertConds(f)
	var n int
	if err := s.queryRow(ctx, `SELECT COUNT(*) FROM alerts`+whereClause(conds), args...).Scan(&n); err != nil {
		return 0, s.classify("count alerts", err)
	}
	return n, nil
}
