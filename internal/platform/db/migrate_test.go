package db

import (
	"io/fs"
	"strings"
	"testing"
)

func TestMigrationURL(t *testing.T) {
	tests := map[string]string{
		"postgres://u:p@localhost:5432/absensi?sslmode=disable": "pgx5://u:p@localhost:5432/absensi?sslmode=disable",
		"postgresql://localhost/absensi":                        "pgx5://localhost/absensi",
		"pgx5://localhost/absensi":                              "pgx5://localhost/absensi",
	}
	for in, want := range tests {
		if got := MigrationURL(in); got != want {
			t.Fatalf("MigrationURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		t.Fatalf("read migrations: %v", err)
	}
	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, entry := range entries {
		name := entry.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Fatalf("unexpected migration file %s", name)
		}
	}
	if len(ups) == 0 {
		t.Fatal("expected at least one migration")
	}
	for version := range ups {
		if !downs[version] {
			t.Fatalf("migration %s has no down file", version)
		}
	}
}
