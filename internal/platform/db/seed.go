package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"absensi/internal/domain/access"
	"absensi/internal/domain/auth"
	"absensi/internal/platform/config"
)

var defaultBanks = [][2]string{
	{"Bank Central Asia", "BCA"},
	{"Bank Mandiri", "MANDIRI"},
	{"Bank Rakyat Indonesia", "BRI"},
	{"Bank Negara Indonesia", "BNI"},
}

// Seed creates the first administrator and the reference rows a fresh
// install needs. Every step is idempotent.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if err := ensureAdmin(ctx, pool, cfg.SeedAdminEmail, cfg.SeedAdminPassword, cfg.SeedAdminName); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if err := ensureBanks(ctx, pool); err != nil {
		return fmt.Errorf("seed banks: %w", err)
	}
	if err := ensureOfficeLocation(ctx, pool); err != nil {
		return fmt.Errorf("seed office location: %w", err)
	}
	return nil
}

func ensureAdmin(ctx context.Context, pool *pgxpool.Pool, email, password, name string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || strings.TrimSpace(password) == "" {
		return nil
	}

	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", email).Scan(&id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	if name == "" {
		name = "Administrator"
	}
	_, err = auth.NewStore(pool).CreateAccount(ctx, auth.NewAccount{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         string(access.RoleAdmin),
	})
	return err
}

func ensureBanks(ctx context.Context, pool *pgxpool.Pool) error {
	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(1) FROM bank_info").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	for _, bank := range defaultBanks {
		if _, err := pool.Exec(ctx, "INSERT INTO bank_info (bank_name, bank_code) VALUES ($1, $2)", bank[0], bank[1]); err != nil {
			return err
		}
	}
	return nil
}

func ensureOfficeLocation(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
    INSERT INTO office_locations (name, latitude, longitude, radius_meters, work_start, late_tolerance_minutes)
    SELECT 'Kantor Pusat', -6.200000, 106.816666, 100, '08:00', 15
    WHERE NOT EXISTS (SELECT 1 FROM office_locations)
  `)
	return err
}
