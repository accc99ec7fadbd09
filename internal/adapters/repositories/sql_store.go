package repositories

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"sitetrack-service/internal/domain"
	"sitetrack-service/internal/platform/obs"
)

// SQL-backed implementation of ports.Store. The same queries run on SQLite
// (modernc) and Postgres (pgx stdlib); placeholders are rewritten for pgx.
//
// A nil DB is allowed: every call then fails with domain.ErrStoreUnavailable
// so the service can run without persistence.
type SQLStore struct {
	DB     *sql.DB
	Driver string
	log    logrus.FieldLogger
}

func NewSQLStore(db *sql.DB, driver string, log logrus.FieldLogger) *SQLStore {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &SQLStore{DB: db, Driver: driver, log: log.WithField("component", "sql_store")}
}

// Upper bound applied when callers pass a non-positive limit.
const maxListLimit = 1000

// Timestamps are stored as fixed-width UTC text so they sort lexically on both engines.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func (s *SQLStore) Ping(ctx context.Context) error {
	if err := s.ready("ping"); err != nil {
		return err
	}
	if err := s.DB.PingContext(ctx); err != nil {
		return s.classify("ping", err)
	}
	return nil
}

func (s *SQLStore) ready(op string) error {
	if s == nil || s.DB == nil {
		return fmt.Errorf("%s: db is nil: %w", op, domain.ErrStoreUnavailable)
	}
	return nil
}

// rebind rewrites ? placeholders to $1..$n for pgx.
func (s *SQLStore) rebind(q string) string {
	if s.Driver != "pgx" {
		return q
	}

	var b strings.Builder
	b.Grow(len(q) + 8)
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) exec(ctx context.Context, q string, args ...any) (sql.Result, error) {
	return s.DB.ExecContext(ctx, s.rebind(q), args...)
}

func (s *SQLStore) query(ctx context.Context, q string, args ...any) (*sql.Rows, error) {
	return s.DB.QueryContext(ctx, s.rebind(q), args...)
}

func (s *SQLStore) queryRow(ctx context.Context, q string, args ...any) *sql.Row {
	return s.DB.QueryRowContext(ctx, s.rebind(q), args...)
}

func (s *SQLStore) timer(ctx context.Context, op string) func(*error) {
	return obs.Time(ctx, s.log, op)
}

// classify maps driver errors onto domain error kinds.
func (s *SQLStore) classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	case isUnavailable(err):
		return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isUnavailable(err error) bool {
	if errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne)
}

func expectOne(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return nil
}

func limitOrMax(limit int) int {
	if limit <= 0 || limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseTime(v string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", v, err)
	}
	return t.UTC(), nil
}

func parseTimePtr(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	t, err := parseTime(v.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func toJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func fromJSON(s string, v any) error {
	if s == "" {
		return nil
	}
	return json.Unmarshal([]byte(s), v)
}

// whereClause joins conditions with AND.
func whereClause(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}
