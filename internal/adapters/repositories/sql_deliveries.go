package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"sitetrack-service/internal/domain"
	"sitetrack-service/internal/ports"
)

const deliveryColumns = `
	id, driver_id, driver_name, route_id, route_name, status, scheduled_time,
	start_time, end_time, company, notes, vehicle_type, license_plate, created_at`

func scanDelivery(row rowScanner) (*domain.Delivery, error) {
	var (
		d                         domain.Delivery
		scheduled, started, ended sql.NullString
		createdAt                 string
	)
	err := row.Scan(
		&d.ID, &d.DriverID, &d.DriverName, &d.RouteID, &d.RouteName, &d.Status,
		&scheduled, &started, &ended, &d.Company, &d.Notes, &d.VehicleType,
		&d.LicensePlate, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	if d.ScheduledTime, err = parseTimePtr(scheduled); err != nil {
		return nil, err
	}
	if d.StartTime, err = parseTimePtr(started); err != nil {
		return nil, err
	}
	if d.EndTime, err = parseTimePtr(ended); err != nil {
		return nil, err
	}
	if d.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &d, nil
}

func deliveryConds(f ports.DeliveryFilter) ([]string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(f.Status))
	}
	if !f.CreatedSince.IsZero() {
		conds = append(conds, "created_at >= ?")
		args = append(args, formatTime(f.CreatedSince))
	}
	if !f.EndedSince.IsZero() {
		conds = append(conds, "end_time >= ?")
		args = append(args, formatTime(f.EndedSince))
	}
	return conds, args
}

func (s *SQLStore) FindDelivery(ctx context.Context, id string) (_ *domain.Delivery, err error) {
	defer s.timer(ctx, "store.FindDelivery")(&err)

	if err := s.ready("find delivery"); err != nil {
		return nil, err
	}

	q := `SELECT ` + deliveryColumns + ` FROM deliveries WHERE id = ?`
	d, err := scanDelivery(s.queryRow(ctx, q, id))
	if err != nil {
		return nil, s.classify(fmt.Sprintf("find delivery %s", id), err)
	}
	return d, nil
}

func (s *SQLStore) ListDeliveries(ctx context.Context, f ports.DeliveryFilter, limit int) (_ []*domain.Delivery, err error) {
	defer s.timer(ctx, "store.ListDeliveries")(&err)

	if err := s.ready("list deliveries"); err != nil {
		return nil, err
	}

	conds, args := deliveryConds(f)
	q := `SELECT ` + deliveryColumns + ` FROM deliveries` + whereClause(conds) +
		` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limitOrMax(limit))

	rows, err := s.query(ctx, q, args...)
	if err != nil {
		return nil, s.classify("list deliveries: query deliveries table", err)
	}
	defer rows.Close()

	out := make([]*domain.Delivery, 0, 32)
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, fmt.Errorf("list deliveries: scan row: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, s.classify("list deliveries: row iteration", err)
	}

	return out, nil
}

func (s *SQLStore) InsertDelivery(ctx context.Context, d *domain.Delivery) (err error) {
	defer s.timer(ctx, "store.InsertDelivery")(&err)

	if err := s.ready("insert delivery"); err != nil {
		return err
	}
	if d.ID == "" {
		return fmt.Errorf("insert delivery: %w: %w", errEmptyID, domain.ErrValidation)
	}

	q := `INSERT INTO deliveries (` + deliveryColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.exec(ctx, q,
		d.ID, d.DriverID, d.DriverName, d.RouteID, d.RouteName, string(d.Status),
		formatTimePtr(d.ScheduledTime), formatTimePtr(d.StartTime), formatTimePtr(d.EndTime),
		d.Company, d.Notes, d.VehicleType, d.LicensePlate, formatTime(d.CreatedAt),
	)
	if err != nil {
		return s.classify(fmt.Sprintf("insert delivery %s", d.ID), err)
	}
	return nil
}

func (s *SQLStore) UpdateDeliveryFields(ctx context.Context, id string, u ports.DeliveryUpdate) (err error) {
	defer s.timer(ctx, "store.UpdateDeliveryFields")(&err)

	if err := s.ready("update delivery"); err != nil {
		return err
	}

	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if u.Status != nil {
		set("status", string(*u.Status))
	}
	if u.StartTime != nil {
		set("start_time", formatTimePtr(u.StartTime))
	}
	if u.EndTime != nil {
		set("end_time", formatTimePtr(u.EndTime))
	}
	if u.DriverID != nil {
		set("driver_id", *u.DriverID)
	}
	if u.DriverName != nil {
		set("driver_name", *u.DriverName)
	}
	if u.VehicleType != nil {
		set("vehicle_type", *u.VehicleType)
	}
	if u.LicensePlate != nil {
		set("license_plate", *u.LicensePlate)
	}
	if len(sets) == 0 {
		return nil
	}

	q := `UPDATE deliveries SET `
	for i, c := range sets {
		if i > 0 {
			q += ", "
		}
		q += c
	}
	q += ` WHERE id = ?`
	args = append(args, id)

	res, err := s.exec(ctx, q, args...)
	if err != nil {
		return s.classify(fmt.Sprintf("update delivery %s", id), err)
	}
	return expectOne(fmt.Sprintf("update delivery %s", id), res)
}

func (s *SQLStore) CountDeliveries(ctx context.Context, f ports.DeliveryFilter) (_ int, err error) {
	defer s.timer(ctx, "store.CountDeliveries")(&err)

	if err := s.ready("count deliveries"); err != nil {
		return 0, err
	}

	conds, args := deliveryConds(f)
	var n int
	if err := s.queryRow(ctx, `SELECT COUNT(*) FROM deliveries`+whereClause(conds), args...).Scan(&n); err != nil {
		return 0, s.classify("count deliveries", err)
	}
	return n, nil
}
