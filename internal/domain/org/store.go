package org

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store keeps the reference tables administrators maintain: departments,
// positions and banks.
type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func affected(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListDepartments(ctx context.Context, activeOnly bool) ([]Department, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name, description, is_active, created_at
    FROM departments
    WHERE ($1 = false OR is_active)
    ORDER BY name
  `, activeOnly)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Department, error) {
		var d Department
		err := row.Scan(&d.ID, &d.Name, &d.Description, &d.IsActive, &d.CreatedAt)
		return d, err
	})
}

func (s *Store) CreateDepartment(ctx context.Context, d Department) (string, error) {
	if err := d.Normalize(); err != nil {
		return "", err
	}
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO departments (name, description, is_active)
    VALUES ($1, $2, true)
    RETURNING id
  `, d.Name, d.Description).Scan(&id)
	return id, err
}

func (s *Store) UpdateDepartment(ctx context.Context, id string, d Department) error {
	if err := d.Normalize(); err != nil {
		return err
	}
	return affected(s.DB.Exec(ctx, `
    UPDATE departments SET name = $2, description = $3, is_active = $4 WHERE id = $1
  `, id, d.Name, d.Description, d.IsActive))
}

func (s *Store) DeactivateDepartment(ctx context.Context, id string) error {
	return affected(s.DB.Exec(ctx, "UPDATE departments SET is_active = false WHERE id = $1", id))
}

func (s *Store) ListPositions(ctx context.Context, activeOnly bool) ([]Position, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name_id, name_en, department, base_salary::float8, is_active, created_at
    FROM positions
    WHERE ($1 = false OR is_active)
    ORDER BY department, name_id
  `, activeOnly)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Position, error) {
		var p Position
		err := row.Scan(&p.ID, &p.NameID, &p.NameEN, &p.Department, &p.BaseSalary, &p.IsActive, &p.CreatedAt)
		return p, err
	})
}

func (s *Store) CreatePosition(ctx context.Context, p Position) (string, error) {
	if err := p.Normalize(); err != nil {
		return "", err
	}
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO positions (name_id, name_en, department, base_salary, is_active)
    VALUES ($1, $2, $3, $4, true)
    RETURNING id
  `, p.NameID, p.NameEN, p.Department, p.BaseSalary).Scan(&id)
	return id, err
}

func (s *Store) UpdatePosition(ctx context.Context, id string, p Position) error {
	if err := p.Normalize(); err != nil {
		return err
	}
	return affected(s.DB.Exec(ctx, `
    UPDATE positions
    SET name_id = $2, name_en = $3, department = $4, base_salary = $5, is_active = $6
    WHERE id = $1
  `, id, p.NameID, p.NameEN, p.Department, p.BaseSalary, p.IsActive))
}

func (s *Store) DeactivatePosition(ctx context.Context, id string) error {
	return affected(s.DB.Exec(ctx, "UPDATE positions SET is_active = false WHERE id = $1", id))
}

func (s *Store) ListBanks(ctx context.Context, activeOnly bool) ([]Bank, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, bank_name, bank_code, bank_logo, is_active, created_at
    FROM bank_info
    WHERE ($1 = false OR is_active)
    ORDER BY bank_name
  `, activeOnly)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Bank, error) {
		var b Bank
		err := row.Scan(&b.ID, &b.Name, &b.Code, &b.Logo, &b.IsActive, &b.CreatedAt)
		return b, err
	})
}

func (s *Store) CreateBank(ctx context.Context, b Bank) (string, error) {
	if err := b.Normalize(); err != nil {
		return "", err
	}
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO bank_info (bank_name, bank_code, bank_logo, is_active)
    VALUES ($1, $2, $3, true)
    RETURNING id
  `, b.Name, b.Code, b.Logo).Scan(&id)
	return id, err
}

func (s *Store) UpdateBank(ctx context.Context, id string, b Bank) error {
	if err := b.Normalize(); err != nil {
		return err
	}
	return affected(s.DB.Exec(ctx, `
    UPDATE bank_info SET bank_name = $2, bank_code = $3, bank_logo = $4, is_active = $5 WHERE id = $1
  `, id, b.Name, b.Code, b.Logo, b.IsActive))
}

func (s *Store) DeactivateBank(ctx context.Context, id string) error {
	return affected(s.DB.Exec(ctx, "UPDATE bank_info SET is_active = false WHERE id = $1", id))
}
