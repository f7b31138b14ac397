package employeehandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"absensi/internal/domain/access"
	"absensi/internal/domain/activity"
	"absensi/internal/domain/attendance"
	"absensi/internal/domain/auth"
	"absensi/internal/domain/org"
	"absensi/internal/domain/profiles"
	"absensi/internal/domain/reports"
	"absensi/internal/transport/http/middleware"
	"absensi/internal/transport/http/shared"
	"absensi/internal/transport/http/views"
)

type profileStore interface {
	Get(ctx context.Context, id string) (profiles.Profile, error)
	UpdateSelf(ctx context.Context, id string, u profiles.SelfUpdate) error
}

type bankLister interface {
	ListBanks(ctx context.Context, activeOnly bool) ([]org.Bank, error)
}

type attendanceService interface {
	Location(ctx context.Context) (attendance.Location, error)
	Today(ctx context.Context, userID string) (attendance.Today, error)
	Record(ctx context.Context, userID, kind string, lat, lon float64, notes string) (attendance.Record, error)
	Month(ctx context.Context, userID string, month time.Time) ([]attendance.Record, attendance.MonthSummary, error)
}

type dashboard interface {
	Employee(ctx context.Context, userID string) (reports.EmployeeDashboard, error)
}

type mfa interface {
	SetupMFA(ctx context.Context, userID, accountName string) (auth.MFASetup, error)
	EnableMFA(ctx context.Context, userID, code string) error
}

type activityLog interface {
	Record(ctx context.Context, userID, action string, origin activity.Origin, details any) error
	List(ctx context.Context, userID, action string, limit, offset int) ([]activity.Entry, error)
	Count(ctx context.Context, userID, action string) (int, error)
}

type Handler struct {
	Profiles   profileStore
	Banks      bankLister
	Attendance attendanceService
	Reports    dashboard
	MFA        mfa
	Activity   activityLog
	Loc        *time.Location
	now        func() time.Time
}

func NewHandler(p profileStore, b bankLister, a attendanceService, rep dashboard, m mfa, act activityLog, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		Profiles:   p,
		Banks:      b,
		Attendance: a,
		Reports:    rep,
		MFA:        m,
		Activity:   act,
		Loc:        loc,
		now:        time.Now,
	}
}

// RegisterRoutes mounts the employee tree. The caller wraps it in the guard.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleDashboard)
	r.Get("/attendance", h.HandleAttendance)
	r.Post("/attendance", h.HandleRecord)
	r.Get("/profile", h.HandleProfile)
	r.Post("/profile", h.HandleProfileUpdate)
	r.Post("/profile/mfa/setup", h.HandleMFASetup)
	r.Post("/profile/mfa/enable", h.HandleMFAEnable)
	r.Get("/history", h.HandleHistory)
	r.Get("/activity", h.HandleActivity)
}

func state(r *http.Request) access.State {
	return access.StateFromContext(r.Context())
}

// self is the signed in employee. The guard only lets admitted requests in,
// so a missing principal is a wiring error.
func self(r *http.Request) string {
	id, _ := access.PrincipalID(r.Context())
	return id
}

func (h *Handler) chrome(r *http.Request, title, active string) views.Chrome {
	c := views.Chrome{Title: title, Active: active}
	c.Flash, c.Error = views.Messages(r.URL.Query())
	if p, err := h.Profiles.Get(r.Context(), self(r)); err == nil {
		c.UserName = p.Name
	}
	return c
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("employee view failed", "path", r.URL.Path, "err", err, "requestId", middleware.GetRequestID(r.Context()))
	views.Render(w, http.StatusInternalServerError, views.ErrorPage("Error", "The page could not be loaded.", access.PathEmployeeHome))
}

func (h *Handler) record(r *http.Request, action string, details any) {
	if h.Activity == nil {
		return
	}
	if err := h.Activity.Record(r.Context(), self(r), action, shared.Origin(r), details); err != nil {
		slog.Warn("activity record failed", "action", action, "err", err)
	}
}

func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.Reports.Employee(r.Context(), self(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	views.Render(w, http.StatusOK, views.EmployeeDashboard(state(r), h.chrome(r, "Dashboard", "dashboard"), d, h.Loc))
}

func (h *Handler) checkInData(ctx context.Context, userID string) (views.CheckInData, error) {
	var d views.CheckInData
	office, err := h.Attendance.Location(ctx)
	switch {
	case err == nil:
		d.Office = &office
	case !errors.Is(err, attendance.ErrNoLocation):
		return d, err
	}
	d.Today, err = h.Attendance.Today(ctx, userID)
	return d, err
}

func (h *Handler) HandleAttendance(w http.ResponseWriter, r *http.Request) {
	d, err := h.checkInData(r.Context(), self(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	views.Render(w, http.StatusOK, views.CheckInPage(state(r), h.chrome(r, "Attendance", "attendance"), d, h.Loc))
}

var recordFailures = []struct {
	err  error
	code string
}{
	{attendance.ErrAlreadyCheckedIn, "already_in"},
	{attendance.ErrAlreadyCheckedOut, "already_out"},
	{attendance.ErrNotCheckedIn, "not_in"},
	{attendance.ErrNoLocation, "no_location"},
	{attendance.ErrInvalidCoordinate, "bad_coordinates"},
	{attendance.ErrInvalidType, "invalid"},
}

func (h *Handler) HandleRecord(w http.ResponseWriter, r *http.Request) {
	const back = "/attendance"
	if err := r.ParseForm(); err != nil {
		shared.Back(w, r, back, "err", "invalid")
		return
	}
	v := shared.NewValidator()
	kind := strings.TrimSpace(r.PostFormValue("type"))
	lat := v.Float("latitude", r.PostFormValue("latitude"))
	lon := v.Float("longitude", r.PostFormValue("longitude"))
	if v.HasIssues() {
		shared.Back(w, r, back, "err", "invalid")
		return
	}

	userID := self(r)
	rec, err := h.Attendance.Record(r.Context(), userID, kind, lat, lon, strings.TrimSpace(r.PostFormValue("notes")))
	if err != nil {
		for _, f := range recordFailures {
			if errors.Is(err, f.err) {
				shared.Back(w, r, back, "err", f.code)
				return
			}
		}
		slog.Error("attendance record failed", "userId", userID, "err", err, "requestId", middleware.GetRequestID(r.Context()))
		shared.Back(w, r, back, "err", "failed")
		return
	}

	action := activity.ActionCheckIn
	if rec.Type == attendance.TypeCheckOut {
		action = activity.ActionCheckOut
	}
	h.record(r, action, map[string]any{"status": rec.Status, "distance": int(rec.DistanceMeters), "late": rec.IsLate})

	if rec.Status != attendance.StatusSuccess {
		// Show the failed attempt with its distance instead of redirecting.
		d, err := h.checkInData(r.Context(), userID)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		d.Last = &rec
		c := h.chrome(r, "Attendance", "attendance")
		c.Flash, c.Error = views.Messages(url.Values{"err": {"outside"}})
		views.Render(w, http.StatusOK, views.CheckInPage(state(r), c, d, h.Loc))
		return
	}
	code := "checked_in"
	if rec.Type == attendance.TypeCheckOut {
		code = "checked_out"
	}
	shared.Back(w, r, back, "ok", code)
}

func (h *Handler) profilePage(w http.ResponseWriter, r *http.Request, setup *auth.MFASetup, c views.Chrome) {
	p, err := h.Profiles.Get(r.Context(), self(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	banks, err := h.Banks.ListBanks(r.Context(), true)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	views.Render(w, http.StatusOK, views.ProfilePage(state(r), c, views.ProfileData{Profile: p, Banks: banks, MFA: setup}, h.Loc))
}

func (h *Handler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	h.profilePage(w, r, nil, h.chrome(r, "Profile", "profile"))
}

func (h *Handler) HandleProfileUpdate(w http.ResponseWriter, r *http.Request) {
	const back = "/profile"
	if err := r.ParseForm(); err != nil {
		shared.Back(w, r, back, "err", "invalid")
		return
	}
	u := profiles.SelfUpdate{
		FullName:          strings.TrimSpace(r.PostFormValue("full_name")),
		Phone:             strings.TrimSpace(r.PostFormValue("phone")),
		BankID:            strings.TrimSpace(r.PostFormValue("bank_id")),
		BankAccountNumber: strings.TrimSpace(r.PostFormValue("bank_account_number")),
		BankAccountName:   strings.TrimSpace(r.PostFormValue("bank_account_name")),
	}
	if u.BankAccountNumber != "" && u.BankID == "" {
		shared.Back(w, r, back, "err", "invalid")
		return
	}
	if err := h.Profiles.UpdateSelf(r.Context(), self(r), u); err != nil {
		slog.Error("profile update failed", "err", err, "requestId", middleware.GetRequestID(r.Context()))
		shared.Back(w, r, back, "err", "failed")
		return
	}
	h.record(r, activity.ActionProfileUpdate, map[string]string{"bankId": u.BankID})
	shared.Back(w, r, back, "ok", "saved")
}

func (h *Handler) HandleMFASetup(w http.ResponseWriter, r *http.Request) {
	p, err := h.Profiles.Get(r.Context(), self(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	setup, err := h.MFA.SetupMFA(r.Context(), p.ID, p.Email)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.profilePage(w, r, &setup, h.chrome(r, "Profile", "profile"))
}

func (h *Handler) HandleMFAEnable(w http.ResponseWriter, r *http.Request) {
	const back = "/profile"
	if err := r.ParseForm(); err != nil {
		shared.Back(w, r, back, "err", "invalid")
		return
	}
	if err := h.MFA.EnableMFA(r.Context(), self(r), r.PostFormValue("code")); err != nil {
		if errors.Is(err, auth.ErrMFAInvalid) {
			shared.Back(w, r, back, "err", "mfa_invalid")
			return
		}
		slog.Error("mfa enable failed", "err", err, "requestId", middleware.GetRequestID(r.Context()))
		shared.Back(w, r, back, "err", "failed")
		return
	}
	h.record(r, activity.ActionMFAEnable, nil)
	shared.Back(w, r, back, "ok", "mfa_enabled")
}

func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	month := shared.ParseMonth(r.URL.Query().Get("month"), h.now().In(h.Loc))
	records, summary, err := h.Attendance.Month(r.Context(), self(r), month)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	data := views.HistoryData{Month: month, Records: records, Summary: summary}
	views.Render(w, http.StatusOK, views.HistoryPage(state(r), h.chrome(r, "History", "history"), data, h.Loc))
}

func (h *Handler) HandleActivity(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 25, 100)
	userID := self(r)
	entries, err := h.Activity.List(r.Context(), userID, "", page.Limit, page.Offset)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	total, err := h.Activity.Count(r.Context(), userID, "")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	data := views.ActivityData{Entries: entries}
	if prev, ok := page.Previous(); ok {
		data.Newer = views.ActivityLink(prev)
	}
	if next, ok := page.Following(total); ok {
		data.Older = views.ActivityLink(next)
	}
	views.Render(w, http.StatusOK, views.ActivityPage(state(r), h.chrome(r, "Activity", "activity"), data, h.Loc))
}
