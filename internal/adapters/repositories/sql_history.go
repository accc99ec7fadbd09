package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"sitetrack-service/internal/domain"
)

func (s *SQLStore) InsertLocationHistory(ctx context.Context, r domain.LocationReport) (err error) {
	defer s.timer(ctx, "store.InsertLocationHistory")(&err)

	if err := s.ready("insert location history"); err != nil {
		return err
	}

	q := `
	INSERT INTO location_history (
		id, driver_id, delivery_id, latitude, longitude, speed, heading, recorded_at
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.exec(ctx, q,
		uuid.NewString(), r.DriverID, r.DeliveryID, r.Latitude, r.Longitude,
		r.Speed, r.Heading, formatTime(r.Timestamp),
	)
	if err != nil {
		return s.classify(fmt.Sprintf("insert location history driver=%s", r.DriverID), err)
	}
	return nil
}

func (s *SQLStore) ListLocationHistory(ctx context.Context, deliveryID string, limit int) (_ []domain.LocationReport, err error) {
	defer s.timer(ctx, "store.ListLocationHistory")(&err)

	if err := s.ready("list location history"); err != nil {
		return nil, err
	}

	q := `
	SELECT driver_id, delivery_id, latitude, longitude, speed, heading, recorded_at
	FROM location_history
	WHERE delivery_id = ?
	ORDER BY recorded_at
	LIMIT ?`
	rows, err := s.query(ctx, q, deliveryID, limitOrMax(limit))
	if err != nil {
		return nil, s.classify("list location history: query location_history table", err)
	}
	defer rows.Close()

	out := make([]domain.LocationReport, 0, 64)
	for rows.Next() {
		var (
			r  domain.LocationReport
			ts string
		)
		if err := rows.Scan(&r.DriverID, &r.DeliveryID, &r.Latitude, &r.Longitude, &r.Speed, &r.Heading, &ts); err != nil {
			return nil, fmt.Errorf("list location history: scan row: %w", err)
		}
		if r.Timestamp, err = parseTime(ts); err != nil {
			return nil, fmt.Errorf("list location history: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, s.classify("list location history: row iteration", err)
	}

	return out, nil
}
