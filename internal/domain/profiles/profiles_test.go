package profiles

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"absensi/internal/domain/access"
)

type readerFunc func(ctx context.Context, id string) (string, error)

func (f readerFunc) RoleOf(ctx context.Context, id string) (string, error) { return f(ctx, id) }

func TestResolverOutcomes(t *testing.T) {
	cases := []struct {
		name    string
		stored  string
		err     error
		want    access.Role
		wantErr bool
	}{
		{name: "admin", stored: "admin", want: access.RoleAdmin},
		{name: "employee", stored: "karyawan", want: access.RoleEmployee},
		{name: "supervisor parses", stored: "kepala", want: access.RoleSupervisor},
		{name: "garbage", stored: "root", wantErr: true},
		{name: "missing row", err: ErrNotFound, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var observed []error
			r := NewResolver(readerFunc(func(ctx context.Context, id string) (string, error) {
				return tc.stored, tc.err
			}), time.Second, func(err error) { observed = append(observed, err) })

			role, err := r.ResolveRole(context.Background(), "u-1")
			require.Len(t, observed, 1)
			if tc.wantErr {
				assert.Error(t, err)
				assert.Error(t, observed[0])
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, role)
		})
	}
}

func TestResolverTimesOut(t *testing.T) {
	r := NewResolver(readerFunc(func(ctx context.Context, id string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}), 10*time.Millisecond, nil)

	_, err := r.ResolveRole(context.Background(), "u-1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestResolverRejectsEmptyPrincipal(t *testing.T) {
	called := false
	r := NewResolver(readerFunc(func(ctx context.Context, id string) (string, error) {
		called = true
		return "admin", nil
	}), 0, nil)
	_, err := r.ResolveRole(context.Background(), "")
	assert.Error(t, err)
	assert.False(t, called)
}

func TestResolverFeedsStateMachine(t *testing.T) {
	r := NewResolver(readerFunc(func(ctx context.Context, id string) (string, error) {
		return "", errors.New("connection reset")
	}), 0, nil)
	role, err := r.ResolveRole(context.Background(), "u-1")

	state, _ := access.Bootstrapping().Apply(access.SessionLoaded{Session: access.Session{PrincipalID: "u-1", SessionID: "s", ExpiresAt: time.Now().Add(time.Hour)}})
	state, _ = state.Apply(access.RoleResolved{Generation: state.Generation(), Role: role, Err: err})
	assert.Equal(t, access.PhaseDenied, state.Phase)
	assert.Equal(t, access.Redirect, access.Decide(state, "/admin").Kind)
}

func TestBuildFilter(t *testing.T) {
	where, args := buildFilter(Filter{})
	assert.Empty(t, where)
	assert.Empty(t, args)

	where, args = buildFilter(Filter{Query: " Budi ", Role: "karyawan", Status: "active"})
	assert.Equal(t, " WHERE (LOWER(p.name) LIKE $1 OR LOWER(p.email) LIKE $1 OR LOWER(p.employee_id) LIKE $1) AND p.role = $2 AND p.status = $3", where)
	assert.Equal(t, []any{"%budi%", "karyawan", "active"}, args)
}

func TestStatsOf(t *testing.T) {
	st := StatsOf([]Profile{
		{Role: "admin", Status: StatusActive},
		{Role: "karyawan", Status: StatusActive},
		{Role: "karyawan", Status: StatusInactive},
	})
	assert.Equal(t, Stats{Total: 3, Active: 2, Inactive: 1, Admins: 1, Employees: 2}, st)
}

func TestWriteCSV(t *testing.T) {
	joined := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []Profile{{
		EmployeeID: "EMP-1", Name: "Budi, S.", Email: "budi@example.com", Role: "karyawan",
		Status: StatusActive, ContractType: "permanent", JoinDate: &joined, Salary: 5000000,
	}}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Join(csvHeader, ","), lines[0])
	assert.Equal(t, `EMP-1,"Budi, S.",budi@example.com,,karyawan,,,active,permanent,2024-03-01,5000000.00`, lines[1])
}
