package payroll

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const selectPayment = `
    SELECT sp.id, sp.user_id, COALESCE(p.name, ''), COALESCE(p.email, ''), COALESCE(p.employee_id, ''),
           COALESCE(p.department, ''), COALESCE(b.bank_name, ''), COALESCE(p.bank_account_name, ''),
           sp.payment_amount::float8, sp.period_start, sp.period_end, sp.payment_method, sp.payment_status,
           sp.payment_date, sp.reference_number, sp.notes, sp.created_at
    FROM salary_payments sp
    LEFT JOIN profiles p ON p.id = sp.user_id
    LEFT JOIN bank_info b ON b.id = p.bank_id`

func scanPayment(row pgx.Row) (Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.UserID, &p.EmployeeName, &p.EmployeeEmail, &p.EmployeeID,
		&p.Department, &p.BankName, &p.BankAccountName,
		&p.Amount, &p.PeriodStart, &p.PeriodEnd, &p.Method, &p.Status,
		&p.PaymentDate, &p.Reference, &p.Notes, &p.CreatedAt)
	return p, err
}

func buildFilter(f Filter) (string, []any) {
	var clauses []string
	var args []any
	add := func(expr string, v any) {
		args = append(args, v)
		clauses = append(clauses, fmt.Sprintf(expr, len(args)))
	}
	if f.UserID != "" {
		add("sp.user_id = $%d", f.UserID)
	}
	if f.Status != "" {
		add("sp.payment_status = $%d", f.Status)
	}
	if f.From != nil {
		add("sp.period_end >= $%d", *f.From)
	}
	if f.To != nil {
		add("sp.period_start <= $%d", *f.To)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (s *Store) List(ctx context.Context, f Filter, limit int) ([]Payment, error) {
	where, args := buildFilter(f)
	query := selectPayment + where + " ORDER BY sp.period_end DESC, sp.created_at DESC"
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Payment, error) {
		return scanPayment(row)
	})
}

func (s *Store) Get(ctx context.Context, id string) (Payment, error) {
	p, err := scanPayment(s.DB.QueryRow(ctx, selectPayment+" WHERE sp.id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return p, ErrNotFound
	}
	return p, err
}

func (s *Store) Create(ctx context.Context, p NewPayment, createdBy string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO salary_payments (user_id, payment_amount, period_start, period_end, payment_method, reference_number, notes, created_by)
    VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, '')::uuid)
    RETURNING id
  `, p.UserID, p.Amount, p.PeriodStart, p.PeriodEnd, p.Method, p.Reference, p.Notes, createdBy).Scan(&id)
	return id, err
}

// SetStatus moves a payment from one status to another; it fails with
// ErrNotFound if the payment is no longer in the expected status.
func (s *Store) SetStatus(ctx context.Context, id, from, to string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE salary_payments
    SET payment_status = $3,
        payment_date = CASE WHEN $3 = 'completed' THEN COALESCE(payment_date, now()) ELSE payment_date END,
        updated_at = now()
    WHERE id = $1 AND payment_status = $2
  `, id, from, to)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Totals(ctx context.Context) (Totals, error) {
	var t Totals
	err := s.DB.QueryRow(ctx, `
    SELECT COALESCE(SUM(payment_amount) FILTER (WHERE payment_status = 'completed'), 0)::float8,
           COUNT(1) FILTER (WHERE payment_status IN ('pending', 'processing'))
    FROM salary_payments
  `).Scan(&t.Paid, &t.Pending)
	return t, err
}
