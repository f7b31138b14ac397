package profiles

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	cryptoutil "absensi/internal/platform/crypto"
)

var ErrNotFound = errors.New("profile not found")

type Store struct {
	DB     *pgxpool.Pool
	Crypto *cryptoutil.Service
}

func NewStore(db *pgxpool.Pool, crypto *cryptoutil.Service) *Store {
	return &Store{DB: db, Crypto: crypto}
}

// RoleOf is the single-field read behind role resolution.
func (s *Store) RoleOf(ctx context.Context, userID string) (string, error) {
	var role string
	err := s.DB.QueryRow(ctx, "SELECT role FROM profiles WHERE id = $1", userID).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return role, err
}

const selectProfile = `
    SELECT p.id, p.name, p.full_name, p.email, p.phone, p.role,
           COALESCE(p.position_id::text, ''), COALESCE(pos.name_id, ''),
           p.department, p.employee_id, p.salary::float8, p.status, p.join_date, p.contract_type,
           COALESCE(p.bank_id::text, ''), COALESCE(b.bank_name, ''),
           p.bank_account_number_enc, p.bank_account_name, p.created_at
    FROM profiles p
    LEFT JOIN positions pos ON pos.id = p.position_id
    LEFT JOIN bank_info b ON b.id = p.bank_id`

func (s *Store) scan(row pgx.Row) (Profile, error) {
	var p Profile
	var accountEnc []byte
	err := row.Scan(
		&p.ID, &p.Name, &p.FullName, &p.Email, &p.Phone, &p.Role,
		&p.PositionID, &p.PositionName,
		&p.Department, &p.EmployeeID, &p.Salary, &p.Status, &p.JoinDate, &p.ContractType,
		&p.BankID, &p.BankName,
		&accountEnc, &p.BankAccountName, &p.CreatedAt,
	)
	if err != nil {
		return p, err
	}
	account, err := s.Crypto.DecryptString(accountEnc)
	if err != nil {
		slog.Warn("bank account decrypt failed", "profileId", p.ID, "err", err)
	}
	p.BankAccountNumber = account
	return p, nil
}

func (s *Store) Get(ctx context.Context, id string) (Profile, error) {
	p, err := s.scan(s.DB.QueryRow(ctx, selectProfile+" WHERE p.id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return p, ErrNotFound
	}
	return p, err
}

// buildFilter returns the WHERE clause and its arguments.
func buildFilter(f Filter) (string, []any) {
	var clauses []string
	var args []any
	if q := strings.TrimSpace(f.Query); q != "" {
		args = append(args, "%"+strings.ToLower(q)+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf("(LOWER(p.name) LIKE $%d OR LOWER(p.email) LIKE $%d OR LOWER(p.employee_id) LIKE $%d)", n, n, n))
	}
	if f.Role != "" {
		args = append(args, f.Role)
		clauses = append(clauses, fmt.Sprintf("p.role = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		clauses = append(clauses, fmt.Sprintf("p.status = $%d", len(args)))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (s *Store) List(ctx context.Context, f Filter) ([]Profile, error) {
	where, args := buildFilter(f)
	rows, err := s.DB.Query(ctx, selectProfile+where+" ORDER BY p.created_at DESC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Profile
	for rows.Next() {
		p, err := s.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1),
           COUNT(1) FILTER (WHERE status = 'active'),
           COUNT(1) FILTER (WHERE status <> 'active'),
           COUNT(1) FILTER (WHERE role = 'admin'),
           COUNT(1) FILTER (WHERE role = 'karyawan')
    FROM profiles
  `).Scan(&st.Total, &st.Active, &st.Inactive, &st.Admins, &st.Employees)
	return st, err
}

func (s *Store) UpdateByAdmin(ctx context.Context, id string, u AdminUpdate) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE profiles
    SET name = $2, full_name = $3, phone = $4, role = $5,
        position_id = NULLIF($6, '')::uuid, department = $7, employee_id = $8,
        salary = $9, status = $10, join_date = $11, contract_type = $12, updated_at = now()
    WHERE id = $1
  `, id, u.Name, u.FullName, u.Phone, u.Role, u.PositionID, u.Department, u.EmployeeID,
		u.Salary, u.Status, u.JoinDate, u.ContractType)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) UpdateSelf(ctx context.Context, id string, u SelfUpdate) error {
	accountEnc, err := s.Crypto.EncryptString(strings.TrimSpace(u.BankAccountNumber))
	if err != nil {
		return fmt.Errorf("encrypt bank account: %w", err)
	}
	tag, err := s.DB.Exec(ctx, `
    UPDATE profiles
    SET full_name = $2, phone = $3, bank_id = NULLIF($4, '')::uuid,
        bank_account_number_enc = $5, bank_account_name = $6, updated_at = now()
    WHERE id = $1
  `, id, u.FullName, u.Phone, u.BankID, accountEnc, u.BankAccountName)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the login; the profile and its records cascade.
func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Email(ctx context.Context, id string) (string, string, error) {
	var email, name string
	err := s.DB.QueryRow(ctx, "SELECT email, name FROM profiles WHERE id = $1", id).Scan(&email, &name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", "", ErrNotFound
	}
	return email, name, err
}
