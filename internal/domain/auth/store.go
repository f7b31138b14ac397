package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const UserStatusActive = "active"

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

type Credentials struct {
	ID           string
	Email        string
	PasswordHash string
	Status       string
	MFAEnabled   bool
	MFASecretEnc []byte
}

type SessionRow struct {
	UserID    string
	DeviceID  string
	ExpiresAt time.Time
}

type NewAccount struct {
	Email        string
	PasswordHash string
	Name         string
	Phone        string
	Role         string
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (Credentials, error) {
	var out Credentials
	err := s.DB.QueryRow(ctx, `
    SELECT id, email, password_hash, status, mfa_enabled, mfa_secret_enc
    FROM users
    WHERE email = $1
  `, strings.ToLower(email)).Scan(&out.ID, &out.Email, &out.PasswordHash, &out.Status, &out.MFAEnabled, &out.MFASecretEnc)
	return out, err
}

func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM users WHERE email = $1", strings.ToLower(email)).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateAccount inserts the login and its profile in one transaction.
func (s *Store) CreateAccount(ctx context.Context, acc NewAccount) (string, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id string
	if err := tx.QueryRow(ctx, `
    INSERT INTO users (email, password_hash)
    VALUES ($1, $2)
    RETURNING id
  `, strings.ToLower(acc.Email), acc.PasswordHash).Scan(&id); err != nil {
		return "", err
	}

	if _, err := tx.Exec(ctx, `
    INSERT INTO profiles (id, name, full_name, email, phone, role, join_date)
    VALUES ($1, $2, $2, $3, $4, $5, CURRENT_DATE)
  `, id, acc.Name, strings.ToLower(acc.Email), acc.Phone, acc.Role); err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) CreateSession(ctx context.Context, userID, tokenHash, deviceID string, expires time.Time) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO sessions (user_id, token_hash, device_id, expires_at)
    VALUES ($1, $2, $3, $4)
  `, userID, tokenHash, deviceID, expires)
	return err
}

// LookupSession returns the live session for tokenHash, or pgx.ErrNoRows.
func (s *Store) LookupSession(ctx context.Context, tokenHash string) (SessionRow, error) {
	var out SessionRow
	err := s.DB.QueryRow(ctx, `
    SELECT user_id, device_id, expires_at
    FROM sessions
    WHERE token_hash = $1 AND expires_at > now() AND revoked_at IS NULL
  `, tokenHash).Scan(&out.UserID, &out.DeviceID, &out.ExpiresAt)
	return out, err
}

func (s *Store) RevokeSession(ctx context.Context, tokenHash string) (string, error) {
	var deviceID string
	err := s.DB.QueryRow(ctx, `
    UPDATE sessions SET revoked_at = now()
    WHERE token_hash = $1 AND revoked_at IS NULL
    RETURNING device_id
  `, tokenHash).Scan(&deviceID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return deviceID, err
}

// RevokeUserSessions revokes every live session of a user and returns the
// devices they were bound to.
func (s *Store) RevokeUserSessions(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.DB.Query(ctx, `
    UPDATE sessions SET revoked_at = now()
    WHERE user_id = $1 AND revoked_at IS NULL AND expires_at > now()
    RETURNING device_id
  `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var devices []string
	for rows.Next() {
		var deviceID string
		if err := rows.Scan(&deviceID); err != nil {
			return nil, err
		}
		if deviceID != "" {
			devices = append(devices, deviceID)
		}
	}
	return devices, rows.Err()
}

func (s *Store) RotateSession(ctx context.Context, oldHash, newHash string, expires time.Time) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE sessions
    SET token_hash = $1, expires_at = $2, rotated_at = now()
    WHERE token_hash = $3 AND revoked_at IS NULL AND expires_at > now()
  `, newHash, expires, oldHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *Store) UpdateLastLogin(ctx context.Context, userID string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET last_login = now() WHERE id = $1", userID)
	return err
}

func (s *Store) UpdateMFASecret(ctx context.Context, userID string, secretEnc []byte) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET mfa_secret_enc = $1, mfa_enabled = false WHERE id = $2", secretEnc, userID)
	return err
}

func (s *Store) GetMFASecret(ctx context.Context, userID string) ([]byte, error) {
	var secretEnc []byte
	if err := s.DB.QueryRow(ctx, "SELECT mfa_secret_enc FROM users WHERE id = $1", userID).Scan(&secretEnc); err != nil {
		return nil, err
	}
	return secretEnc, nil
}

func (s *Store) SetMFAEnabled(ctx context.Context, userID string, enabled bool) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET mfa_enabled = $1 WHERE id = $2", enabled, userID)
	return err
}

func (s *Store) SetUserStatus(ctx context.Context, userID, status string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET status = $1 WHERE id = $2", status, userID)
	return err
}
