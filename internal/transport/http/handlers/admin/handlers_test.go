package adminhandler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"absensi/internal/domain/access"
	"absensi/internal/domain/activity"
	"absensi/internal/domain/attendance"
	"absensi/internal/domain/org"
	"absensi/internal/domain/payroll"
	"absensi/internal/domain/profiles"
	"absensi/internal/domain/reports"
)

type fakeProfiles struct {
	people  map[string]profiles.Profile
	updated map[string]profiles.AdminUpdate
	deleted []string
	calls   *[]string
}

func (f *fakeProfiles) Get(_ context.Context, id string) (profiles.Profile, error) {
	p, ok := f.people[id]
	if !ok {
		return profiles.Profile{}, profiles.ErrNotFound
	}
	return p, nil
}

func (f *fakeProfiles) List(context.Context, profiles.Filter) ([]profiles.Profile, error) {
	out := make([]profiles.Profile, 0, len(f.people))
	for _, p := range f.people {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeProfiles) Stats(context.Context) (profiles.Stats, error) {
	list, _ := f.List(context.Background(), profiles.Filter{})
	return profiles.StatsOf(list), nil
}

func (f *fakeProfiles) UpdateByAdmin(_ context.Context, id string, u profiles.AdminUpdate) error {
	if _, ok := f.people[id]; !ok {
		return profiles.ErrNotFound
	}
	f.updated[id] = u
	return nil
}

func (f *fakeProfiles) Delete(_ context.Context, id string) error {
	*f.calls = append(*f.calls, "delete:"+id)
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeOrg struct {
	created []string
}

func (f *fakeOrg) ListDepartments(context.Context, bool) ([]org.Department, error) {
	return []org.Department{{ID: "d1", Name: "IT", IsActive: true}}, nil
}
func (f *fakeOrg) CreateDepartment(_ context.Context, d org.Department) (string, error) {
	if err := d.Normalize(); err != nil {
		return "", err
	}
	f.created = append(f.created, d.Name)
	return "d2", nil
}
func (f *fakeOrg) UpdateDepartment(context.Context, string, org.Department) error { return nil }
func (f *fakeOrg) DeactivateDepartment(_ context.Context, id string) error {
	if id != "d1" {
		return org.ErrNotFound
	}
	return nil
}
func (f *fakeOrg) ListPositions(context.Context, bool) ([]org.Position, error) { return nil, nil }
func (f *fakeOrg) CreatePosition(context.Context, org.Position) (string, error) {
	return "p1", nil
}
func (f *fakeOrg) UpdatePosition(context.Context, string, org.Position) error { return nil }
func (f *fakeOrg) DeactivatePosition(context.Context, string) error           { return nil }
func (f *fakeOrg) ListBanks(context.Context, bool) ([]org.Bank, error)        { return nil, nil }
func (f *fakeOrg) CreateBank(context.Context, org.Bank) (string, error)       { return "b1", nil }
func (f *fakeOrg) UpdateBank(context.Context, string, org.Bank) error         { return nil }
func (f *fakeOrg) DeactivateBank(context.Context, string) error               { return nil }

type fakeAttendance struct {
	saved     []attendance.Location
	duplicate bool
	records   []attendance.Record
}

func (f *fakeAttendance) Location(context.Context) (attendance.Location, error) {
	return attendance.Location{}, attendance.ErrNoLocation
}
func (f *fakeAttendance) SaveLocation(_ context.Context, l attendance.Location) (string, error) {
	f.saved = append(f.saved, l)
	return "loc-1", nil
}
func (f *fakeAttendance) OnDate(context.Context, time.Time) ([]attendance.Record, error) {
	return f.records, nil
}
func (f *fakeAttendance) Warnings(context.Context, int) ([]attendance.Warning, error) {
	return nil, nil
}
func (f *fakeAttendance) ResolveWarning(context.Context, string) error { return nil }
func (f *fakeAttendance) IssueWarning(context.Context, string, string, int, string, string) (bool, error) {
	return !f.duplicate, nil
}

type fakePayroll struct {
	payment payroll.Payment
}

func (f *fakePayroll) List(context.Context, payroll.Filter) ([]payroll.Payment, error) {
	return []payroll.Payment{f.payment}, nil
}
func (f *fakePayroll) Totals(context.Context) (payroll.Totals, error) { return payroll.Totals{}, nil }
func (f *fakePayroll) Create(_ context.Context, p payroll.NewPayment, _ string) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	return "pay-2", nil
}
func (f *fakePayroll) UpdateStatus(_ context.Context, id, to string) (payroll.Payment, error) {
	if !payroll.CanTransition(f.payment.Status, to) {
		return payroll.Payment{}, fmt.Errorf("%w: %s to %s", payroll.ErrInvalidTransition, f.payment.Status, to)
	}
	f.payment.Status = to
	return f.payment, nil
}
func (f *fakePayroll) Slip(_ context.Context, id string, w io.Writer) (payroll.Payment, error) {
	if id != f.payment.ID {
		return payroll.Payment{}, payroll.ErrNotFound
	}
	return f.payment, payroll.WriteSlip(w, f.payment)
}

type fakeReports struct{}

func (fakeReports) Admin(context.Context) (reports.AdminDashboard, error) {
	return reports.AdminDashboard{Stats: reports.AdminStats{TotalEmployees: 3}}, nil
}

type fakeSessions struct {
	calls    *[]string
	statuses map[string]string
}

func (f *fakeSessions) RevokeUser(_ context.Context, id string) error {
	*f.calls = append(*f.calls, "revoke:"+id)
	return nil
}
func (f *fakeSessions) SetUserStatus(_ context.Context, id, status string) error {
	f.statuses[id] = status
	return nil
}

type fakeRecorder struct{ actions []string }

func (f *fakeRecorder) Record(_ context.Context, _ string, action string, _ activity.Origin, _ any) error {
	f.actions = append(f.actions, action)
	return nil
}

type fixture struct {
	handler    *Handler
	router     http.Handler
	profiles   *fakeProfiles
	sessions   *fakeSessions
	attendance *fakeAttendance
	payroll    *fakePayroll
	org        *fakeOrg
	recorder   *fakeRecorder
	calls      []string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{}
	f.profiles = &fakeProfiles{
		people: map[string]profiles.Profile{
			"admin-1": {ID: "admin-1", Name: "Admin", Role: "admin", Status: "active"},
			"emp-1":   {ID: "emp-1", Name: "Sari", Role: "karyawan", Status: "active", EmployeeID: "K001"},
		},
		updated: map[string]profiles.AdminUpdate{},
		calls:   &f.calls,
	}
	f.sessions = &fakeSessions{calls: &f.calls, statuses: map[string]string{}}
	f.attendance = &fakeAttendance{}
	f.payroll = &fakePayroll{payment: payroll.Payment{
		ID: "pay-1", EmployeeName: "Sari", EmployeeID: "K001", Amount: 4500000, Status: payroll.StatusCompleted,
		PeriodStart: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), PeriodEnd: time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC),
	}}
	f.org = &fakeOrg{}
	f.recorder = &fakeRecorder{}
	f.handler = NewHandler(f.profiles, f.org, f.attendance, f.payroll, fakeReports{}, f.sessions, f.recorder, time.UTC)

	admin, _ := access.Bootstrapping().Apply(access.SessionLoaded{Session: access.Session{PrincipalID: "admin-1"}})
	admin, _ = admin.Apply(access.RoleResolved{Generation: admin.Generation(), Role: access.RoleAdmin})
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(access.WithState(req.Context(), admin)))
		})
	})
	f.handler.RegisterRoutes(r)
	f.router = r
	return f
}

func (f *fixture) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) get(path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestDashboardRenders(t *testing.T) {
	f := newFixture(t)
	w := f.get("/admin")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Signed in as Admin")
	assert.Contains(t, w.Body.String(), "<dd>3</dd>")
}

func TestDeleteUserRevokesSessionsFirst(t *testing.T) {
	f := newFixture(t)
	w := f.post("/admin/users/emp-1/delete", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/admin/users?ok=deleted", w.Header().Get("Location"))
	assert.Equal(t, []string{"revoke:emp-1", "delete:emp-1"}, f.calls)
	assert.Equal(t, []string{activity.ActionUserDelete}, f.recorder.actions)
}

func TestAdminCannotDeleteThemselves(t *testing.T) {
	f := newFixture(t)
	w := f.post("/admin/users/admin-1/delete", nil)
	assert.Equal(t, "/admin/users?err=invalid", w.Header().Get("Location"))
	assert.Empty(t, f.calls)
}

func TestUpdateUser(t *testing.T) {
	f := newFixture(t)
	base := url.Values{"name": {"Sari"}, "role": {"karyawan"}, "status": {"inactive"}, "salary": {"5000000"}, "join_date": {"2024-01-02"}}

	w := f.post("/admin/users/emp-1", base)
	assert.Equal(t, "/admin/users/emp-1?ok=saved", w.Header().Get("Location"))
	assert.Equal(t, "inactive", f.sessions.statuses["emp-1"])
	require.NotNil(t, f.profiles.updated["emp-1"].JoinDate)
	assert.Equal(t, 5000000.0, f.profiles.updated["emp-1"].Salary)

	bad := url.Values{"name": {"Sari"}, "role": {"owner"}, "salary": {"1"}}
	w = f.post("/admin/users/emp-1", bad)
	assert.Equal(t, "/admin/users/emp-1?err=invalid", w.Header().Get("Location"))

	w = f.post("/admin/users/nobody", base)
	assert.Equal(t, "/admin/users/nobody?err=not_found", w.Header().Get("Location"))
}

func TestIssueWarning(t *testing.T) {
	f := newFixture(t)
	form := url.Values{"level": {"2"}, "description": {"Late three times"}}
	assert.Equal(t, "/admin/users/emp-1?ok=warned", f.post("/admin/users/emp-1/warnings", form).Header().Get("Location"))

	f.attendance.duplicate = true
	assert.Equal(t, "/admin/users/emp-1?err=duplicate", f.post("/admin/users/emp-1/warnings", form).Header().Get("Location"))

	bad := url.Values{"level": {"7"}, "description": {"x"}}
	assert.Equal(t, "/admin/users/emp-1?err=invalid", f.post("/admin/users/emp-1/warnings", bad).Header().Get("Location"))
}

func TestPaymentStatusTransitions(t *testing.T) {
	f := newFixture(t)
	w := f.post("/admin/salary-payment/pay-1/status", url.Values{"status": {"pending"}})
	assert.Equal(t, "/admin/salary-payment?err=transition", w.Header().Get("Location"))

	f.payroll.payment.Status = payroll.StatusPending
	w = f.post("/admin/salary-payment/pay-1/status", url.Values{"status": {"completed"}})
	assert.Equal(t, "/admin/salary-payment?ok=status", w.Header().Get("Location"))
	assert.Equal(t, []string{activity.ActionPaymentStatus}, f.recorder.actions)
}

func TestPaymentCreateValidation(t *testing.T) {
	f := newFixture(t)
	w := f.post("/admin/salary-payment", url.Values{"user_id": {"emp-1"}, "amount": {"100"}, "period_start": {"2025-05-31"}, "period_end": {"2025-05-01"}})
	assert.Equal(t, "/admin/salary-payment?err=invalid", w.Header().Get("Location"))

	w = f.post("/admin/salary-payment", url.Values{"user_id": {"emp-1"}, "amount": {"100"}, "period_start": {"2025-05-01"}, "period_end": {"2025-05-31"}})
	assert.Equal(t, "/admin/salary-payment?ok=created", w.Header().Get("Location"))
}

func TestSlipAndExports(t *testing.T) {
	f := newFixture(t)

	w := f.get("/admin/salary-payment/pay-1/slip.pdf")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "slip-K001-2025-05.pdf")

	w = f.get("/admin/salary-payment/missing/slip.pdf")
	assert.Equal(t, "/admin/salary-payment?err=not_found", w.Header().Get("Location"))

	w = f.get("/admin/users/export.csv")
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "employee_id")

	w = f.get("/admin/attendance/export.csv?date=2025-05-14")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attendance-2025-05-14.csv")
}

func TestLocationSave(t *testing.T) {
	f := newFixture(t)
	w := f.get("/admin/location")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `value="08:00"`)

	form := url.Values{"name": {"HQ"}, "latitude": {"-6.2"}, "longitude": {"106.8"}, "radius": {"150"}, "work_start": {"08:30"}, "late_tolerance": {"10"}}
	assert.Equal(t, "/admin/location?ok=saved", f.post("/admin/location", form).Header().Get("Location"))
	require.Len(t, f.attendance.saved, 1)
	assert.Equal(t, 150, f.attendance.saved[0].RadiusMeters)

	form.Set("latitude", "123")
	assert.Equal(t, "/admin/location?err=invalid", f.post("/admin/location", form).Header().Get("Location"))
}

func TestDepartmentActions(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, "/admin/departments?err=invalid", f.post("/admin/departments", url.Values{"name": {"  "}}).Header().Get("Location"))
	assert.Equal(t, "/admin/departments?ok=created", f.post("/admin/departments", url.Values{"name": {"Finance"}}).Header().Get("Location"))
	assert.Equal(t, []string{"Finance"}, f.org.created)
	assert.Equal(t, "/admin/departments?err=not_found", f.post("/admin/departments/zzz/deactivate", nil).Header().Get("Location"))
}
