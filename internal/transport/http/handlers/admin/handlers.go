package adminhandler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"absensi/internal/domain/access"
	"absensi/internal/domain/activity"
	"absensi/internal/domain/attendance"
	"absensi/internal/domain/org"
	"absensi/internal/domain/payroll"
	"absensi/internal/domain/profiles"
	"absensi/internal/domain/reports"
	"absensi/internal/transport/http/middleware"
	"absensi/internal/transport/http/shared"
	"absensi/internal/transport/http/views"
)

type profileStore interface {
	Get(ctx context.Context, id string) (profiles.Profile, error)
	List(ctx context.Context, f profiles.Filter) ([]profiles.Profile, error)
	Stats(ctx context.Context) (profiles.Stats, error)
	UpdateByAdmin(ctx context.Context, id string, u profiles.AdminUpdate) error
	Delete(ctx context.Context, id string) error
}

type orgStore interface {
	ListDepartments(ctx context.Context, activeOnly bool) ([]org.Department, error)
	CreateDepartment(ctx context.Context, d org.Department) (string, error)
	UpdateDepartment(ctx context.Context, id string, d org.Department) error
	DeactivateDepartment(ctx context.Context, id string) error
	ListPositions(ctx context.Context, activeOnly bool) ([]org.Position, error)
	CreatePosition(ctx context.Context, p org.Position) (string, error)
	UpdatePosition(ctx context.Context, id string, p org.Position) error
	DeactivatePosition(ctx context.Context, id string) error
	ListBanks(ctx context.Context, activeOnly bool) ([]org.Bank, error)
	CreateBank(ctx context.Context, b org.Bank) (string, error)
	UpdateBank(ctx context.Context, id string, b org.Bank) error
	DeactivateBank(ctx context.Context, id string) error
}

type attendanceService interface {
	Location(ctx context.Context) (attendance.Location, error)
	SaveLocation(ctx context.Context, l attendance.Location) (string, error)
	OnDate(ctx context.Context, day time.Time) ([]attendance.Record, error)
	Warnings(ctx context.Context, limit int) ([]attendance.Warning, error)
	ResolveWarning(ctx context.Context, id string) error
	IssueWarning(ctx context.Context, userID, kind string, level int, description, issuedBy string) (bool, error)
}

type payrollService interface {
	List(ctx context.Context, f payroll.Filter) ([]payroll.Payment, error)
	Totals(ctx context.Context) (payroll.Totals, error)
	Create(ctx context.Context, p payroll.NewPayment, createdBy string) (string, error)
	UpdateStatus(ctx context.Context, id, to string) (payroll.Payment, error)
	Slip(ctx context.Context, id string, w io.Writer) (payroll.Payment, error)
}

type dashboard interface {
	Admin(ctx context.Context) (reports.AdminDashboard, error)
}

// sessions signs users out when an administrator removes or deactivates them.
type sessions interface {
	RevokeUser(ctx context.Context, userID string) error
	SetUserStatus(ctx context.Context, userID, status string) error
}

type recorder interface {
	Record(ctx context.Context, userID, action string, origin activity.Origin, details any) error
}

type Handler struct {
	Profiles   profileStore
	Org        orgStore
	Attendance attendanceService
	Payroll    payrollService
	Reports    dashboard
	Sessions   sessions
	Activity   recorder
	Loc        *time.Location
	now        func() time.Time
}

func NewHandler(p profileStore, o orgStore, a attendanceService, pay payrollService, rep dashboard, s sessions, rec recorder, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		Profiles:   p,
		Org:        o,
		Attendance: a,
		Payroll:    pay,
		Reports:    rep,
		Sessions:   s,
		Activity:   rec,
		Loc:        loc,
		now:        time.Now,
	}
}

// RegisterRoutes mounts the admin tree. The caller wraps it in the guard.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/admin", h.HandleDashboard)

	r.Get("/admin/users", h.HandleUsers)
	r.Get("/admin/users/export.csv", h.HandleUsersExport)
	r.Get("/admin/users/{id}", h.HandleUserEdit)
	r.Post("/admin/users/{id}", h.HandleUserUpdate)
	r.Post("/admin/users/{id}/delete", h.HandleUserDelete)
	r.Post("/admin/users/{id}/revoke", h.HandleUserRevoke)
	r.Post("/admin/users/{id}/warnings", h.HandleIssueWarning)

	r.Get("/admin/departments", h.HandleDepartments)
	r.Post("/admin/departments", h.HandleDepartmentCreate)
	r.Post("/admin/departments/{id}", h.HandleDepartmentUpdate)
	r.Post("/admin/departments/{id}/deactivate", h.HandleDepartmentDeactivate)

	r.Get("/admin/positions", h.HandlePositions)
	r.Post("/admin/positions", h.HandlePositionCreate)
	r.Post("/admin/positions/{id}", h.HandlePositionUpdate)
	r.Post("/admin/positions/{id}/deactivate", h.HandlePositionDeactivate)

	r.Get("/admin/bank", h.HandleBanks)
	r.Post("/admin/bank", h.HandleBankCreate)
	r.Post("/admin/bank/{id}", h.HandleBankUpdate)
	r.Post("/admin/bank/{id}/deactivate", h.HandleBankDeactivate)

	r.Get("/admin/salary-payment", h.HandlePayments)
	r.Post("/admin/salary-payment", h.HandlePaymentCreate)
	r.Get("/admin/salary-payment/export.csv", h.HandlePaymentsExport)
	r.Post("/admin/salary-payment/{id}/status", h.HandlePaymentStatus)
	r.Get("/admin/salary-payment/{id}/slip.pdf", h.HandlePaymentSlip)

	r.Get("/admin/location", h.HandleLocation)
	r.Post("/admin/location", h.HandleLocationSave)

	r.Get("/admin/attendance", h.HandleAttendance)
	r.Get("/admin/attendance/export.csv", h.HandleAttendanceExport)
	r.Post("/admin/attendance/warnings/{id}/resolve", h.HandleResolveWarning)
}

func (h *Handler) chrome(r *http.Request, title, active string) views.Chrome {
	c := views.Chrome{Title: title, Active: active}
	c.Flash, c.Error = views.Messages(r.URL.Query())
	if id, ok := access.PrincipalID(r.Context()); ok {
		if p, err := h.Profiles.Get(r.Context(), id); err == nil {
			c.UserName = p.Name
		}
	}
	return c
}

func state(r *http.Request) access.State {
	return access.StateFromContext(r.Context())
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("admin view failed", "path", r.URL.Path, "err", err, "requestId", middleware.GetRequestID(r.Context()))
	views.Render(w, http.StatusInternalServerError, views.ErrorPage("Error", "The page could not be loaded.", access.PathAdminHome))
}

func (h *Handler) record(r *http.Request, action string, details any) {
	id, ok := access.PrincipalID(r.Context())
	if !ok || h.Activity == nil {
		return
	}
	if err := h.Activity.Record(r.Context(), id, action, shared.Origin(r), details); err != nil {
		slog.Warn("activity record failed", "action", action, "err", err)
	}
}

// outcome redirects back to path with a banner for err, or with ok.
func (h *Handler) outcome(w http.ResponseWriter, r *http.Request, path, ok string, err error) {
	if err == nil {
		shared.Back(w, r, path, "ok", ok)
		return
	}
	code := "failed"
	switch {
	case errors.Is(err, org.ErrNotFound), errors.Is(err, profiles.ErrNotFound),
		errors.Is(err, payroll.ErrNotFound), errors.Is(err, attendance.ErrNotFound):
		code = "not_found"
	case errors.Is(err, payroll.ErrInvalidTransition):
		code = "transition"
	case errors.Is(err, org.ErrNameRequired), errors.Is(err, org.ErrNegativePay),
		errors.Is(err, payroll.ErrInvalidPayment), errors.Is(err, attendance.ErrInvalidCoordinate),
		errors.Is(err, errInvalid):
		code = "invalid"
	default:
		slog.Error("admin action failed", "path", r.URL.Path, "err", err, "requestId", middleware.GetRequestID(r.Context()))
	}
	shared.Back(w, r, path, "err", code)
}

var errInvalid = errors.New("invalid form")

func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.Reports.Admin(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	views.Render(w, http.StatusOK, views.AdminDashboard(state(r), h.chrome(r, "Dashboard", "dashboard"), d, h.Loc))
}
