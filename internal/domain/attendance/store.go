package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const selectRecord = `
    SELECT a.id, a.user_id, COALESCE(p.name, ''), COALESCE(p.department, ''), a.type, a.timestamp,
           COALESCE(a.latitude, 0), COALESCE(a.longitude, 0), COALESCE(a.distance_meters, 0),
           a.status, a.is_late, a.late_minutes, a.work_hours::float8, a.notes
    FROM attendance a
    LEFT JOIN profiles p ON p.id = a.user_id`

func collectRecords(rows pgx.Rows, err error) ([]Record, error) {
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Record, error) {
		var r Record
		err := row.Scan(&r.ID, &r.UserID, &r.UserName, &r.Department, &r.Type, &r.Timestamp,
			&r.Latitude, &r.Longitude, &r.DistanceMeters,
			&r.Status, &r.IsLate, &r.LateMinutes, &r.WorkHours, &r.Notes)
		return r, err
	})
}

func (s *Store) ActiveLocation(ctx context.Context) (Location, error) {
	var l Location
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, latitude, longitude, radius_meters, work_start, late_tolerance_minutes, updated_at
    FROM office_locations
    WHERE is_active
    ORDER BY updated_at DESC
    LIMIT 1
  `).Scan(&l.ID, &l.Name, &l.Latitude, &l.Longitude, &l.RadiusMeters, &l.WorkStart, &l.LateToleranceMinutes, &l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return l, ErrNoLocation
	}
	return l, err
}

// SaveLocation replaces the active office location.
func (s *Store) SaveLocation(ctx context.Context, l Location) (string, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "UPDATE office_locations SET is_active = false WHERE is_active"); err != nil {
		return "", err
	}
	var id string
	if err := tx.QueryRow(ctx, `
    INSERT INTO office_locations (name, latitude, longitude, radius_meters, work_start, late_tolerance_minutes, is_active)
    VALUES ($1, $2, $3, $4, $5, $6, true)
    RETURNING id
  `, l.Name, l.Latitude, l.Longitude, l.RadiusMeters, l.WorkStart, l.LateToleranceMinutes).Scan(&id); err != nil {
		return "", err
	}
	return id, tx.Commit(ctx)
}

func (s *Store) Insert(ctx context.Context, r Record) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO attendance (user_id, type, timestamp, latitude, longitude, distance_meters, status, is_late, late_minutes, work_hours, notes)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    RETURNING id
  `, r.UserID, r.Type, r.Timestamp, r.Latitude, r.Longitude, r.DistanceMeters, r.Status, r.IsLate, r.LateMinutes, r.WorkHours, r.Notes).Scan(&id)
	return id, err
}

// ForUser returns a user's records in [from, to), newest first.
func (s *Store) ForUser(ctx context.Context, userID string, from, to time.Time) ([]Record, error) {
	return collectRecords(s.DB.Query(ctx, selectRecord+`
    WHERE a.user_id = $1 AND a.timestamp >= $2 AND a.timestamp < $3
    ORDER BY a.timestamp DESC
  `, userID, from, to))
}

// Between returns everyone's records in [from, to), newest first.
func (s *Store) Between(ctx context.Context, from, to time.Time) ([]Record, error) {
	return collectRecords(s.DB.Query(ctx, selectRecord+`
    WHERE a.timestamp >= $1 AND a.timestamp < $2
    ORDER BY a.timestamp DESC
  `, from, to))
}

func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	return collectRecords(s.DB.Query(ctx, selectRecord+`
    ORDER BY a.timestamp DESC
    LIMIT $1
  `, limit))
}

// MissingCheckIn lists active employees without a successful check-in in
// [from, to).
func (s *Store) MissingCheckIn(ctx context.Context, from, to time.Time) ([]string, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT p.id
    FROM profiles p
    WHERE p.role = 'karyawan' AND p.status = 'active'
      AND NOT EXISTS (
        SELECT 1 FROM attendance a
        WHERE a.user_id = p.id AND a.type = 'masuk' AND a.status = 'berhasil'
          AND a.timestamp >= $1 AND a.timestamp < $2
      )
  `, from, to)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// CreateWarning is idempotent per user, type and day; it reports whether a
// row was inserted.
func (s *Store) CreateWarning(ctx context.Context, w Warning, createdBy string) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    INSERT INTO attendance_warnings (user_id, warning_type, warning_level, description, issue_date, created_by)
    VALUES ($1, $2, $3, $4, $5, NULLIF($6, '')::uuid)
    ON CONFLICT (user_id, warning_type, issue_date) DO NOTHING
  `, w.UserID, w.Type, w.Level, w.Description, w.IssueDate, createdBy)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) UnresolvedWarnings(ctx context.Context, limit int) ([]Warning, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT w.id, w.user_id, COALESCE(p.name, ''), COALESCE(p.department, ''), w.warning_type, w.warning_level,
           w.description, w.issue_date, w.is_resolved, w.resolved_at, w.created_at
    FROM attendance_warnings w
    LEFT JOIN profiles p ON p.id = w.user_id
    WHERE NOT w.is_resolved
    ORDER BY w.created_at DESC
    LIMIT $1
  `, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Warning, error) {
		var w Warning
		err := row.Scan(&w.ID, &w.UserID, &w.UserName, &w.Department, &w.Type, &w.Level,
			&w.Description, &w.IssueDate, &w.IsResolved, &w.ResolvedAt, &w.CreatedAt)
		return w, err
	})
}

func (s *Store) ResolveWarning(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE attendance_warnings SET is_resolved = true, resolved_at = now()
    WHERE id = $1 AND NOT is_resolved
  `, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
