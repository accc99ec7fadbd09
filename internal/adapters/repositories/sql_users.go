package repositories

import (
	"context"
	"fmt"
	"strings"

	"sitetrack-service/internal/domain"
)

const userColumns = `id, email, name, role, phone, company, vehicle_type, license_plate, created_at, is_active`

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		u         domain.User
		createdAt string
	)
	err := row.Scan(
		&u.ID, &u.Email, &u.Name, &u.Role, &u.Phone, &u.Company,
		&u.VehicleType, &u.LicensePlate, &createdAt, &u.IsActive,
	)
	if err != nil {
		return nil, err
	}
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *SQLStore) InsertUser(ctx context.Context, u *domain.User) (err error) {
	defer s.timer(ctx, "store.InsertUser")(&err)

	if err := s.ready("insert user"); err != nil {
		return err
	}
	if u.ID == "" {
		return fmt.Errorf("insert user: %w: %w", errEmptyID, domain.ErrValidation)
	}

	q := `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.exec(ctx, q,
		u.ID, strings.ToLower(u.Email), u.Name, string(u.Role), u.Phone, u.Company,
		u.VehicleType, u.LicensePlate, formatTime(u.CreatedAt), u.IsActive,
	)
	if err != nil {
		return s.classify(fmt.Sprintf("insert user %s", u.Email), err)
	}
	return nil
}

func (s *SQLStore) FindUserByEmail(ctx context.Context, email string) (_ *domain.User, err error) {
	defer s.timer(ctx, "store.FindUserByEmail")(&err)

	if err := s.ready("find user by email"); err != nil {
		return nil, err
	}

	q := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	u, err := scanUser(s.queryRow(ctx, q, strings.ToLower(email)))
	if err != nil {
		return nil, s.classify(fmt.Sprintf("find user by email %s", email), err)
	}
	return u, nil
}

func (s *SQLStore) FindUserByID(ctx context.Context, id string) (_ *domain.User, err error) {
	defer s.timer(ctx, "store.FindUserByID")(&err)

	if err := s.ready("find user"); err != nil {
		return nil, err
	}

	q := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	u, err := scanUser(s.queryRow(ctx, q, id))
	if err != nil {
		return nil, s.classify(fmt.Sprintf("find user %s", id), err)
	}
	return u, nil
}

func (s *SQLStore) ListUsers(ctx context.Context) (_ []*domain.User, err error) {
	defer s.timer(ctx, "store.ListUsers")(&err)

	if err := s.ready("list users"); err != nil {
		return nil, err
	}

	rows, err := s.query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, s.classify("list users: query users table", err)
	}
	defer rows.Close()

	users := make([]*domain.User, 0, 16)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("list users: scan row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, s.classify("list users: row iteration", err)
	}

	return users, nil
}
