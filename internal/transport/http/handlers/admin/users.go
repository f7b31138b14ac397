package adminhandler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"absensi/internal/domain/access"
	"absensi/internal/domain/activity"
	"absensi/internal/domain/attendance"
	"absensi/internal/domain/org"
	"absensi/internal/domain/profiles"
	"absensi/internal/transport/http/shared"
	"absensi/internal/transport/http/views"
)

func userFilter(r *http.Request) profiles.Filter {
	q := r.URL.Query()
	return profiles.Filter{
		Query:  strings.TrimSpace(q.Get("q")),
		Role:   strings.TrimSpace(q.Get("role")),
		Status: strings.TrimSpace(q.Get("status")),
	}
}

func (h *Handler) HandleUsers(w http.ResponseWriter, r *http.Request) {
	filter := userFilter(r)
	var data views.UsersData
	data.Filter = filter

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		data.People, err = h.Profiles.List(ctx, filter)
		return err
	})
	g.Go(func() (err error) {
		data.Stats, err = h.Profiles.Stats(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		h.fail(w, r, err)
		return
	}
	views.Render(w, http.StatusOK, views.UsersPage(state(r), h.chrome(r, "Employees", "users"), data, h.Loc))
}

func (h *Handler) HandleUsersExport(w http.ResponseWriter, r *http.Request) {
	list, err := h.Profiles.List(r.Context(), userFilter(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	attachment(w, "text/csv; charset=utf-8", fmt.Sprintf("employees-%s.csv", h.now().In(h.Loc).Format("2006-01-02")))
	if err := profiles.WriteCSV(w, list); err != nil {
		h.fail(w, r, err)
	}
}

func attachment(w http.ResponseWriter, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
}

func (h *Handler) HandleUserEdit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var data views.UserEditData

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		data.Profile, err = h.Profiles.Get(ctx, id)
		return err
	})
	g.Go(func() (err error) {
		data.Positions, err = h.Org.ListPositions(ctx, true)
		return err
	})
	g.Go(func() (err error) {
		data.Departments, err = h.Org.ListDepartments(ctx, true)
		return err
	})
	if err := g.Wait(); err != nil {
		if isNotFound(err) {
			shared.Back(w, r, "/admin/users", "err", "not_found")
			return
		}
		h.fail(w, r, err)
		return
	}
	views.Render(w, http.StatusOK, views.UserEditPage(state(r), h.chrome(r, "Edit "+data.Profile.Name, "users"), data))
}

func isNotFound(err error) bool {
	return errors.Is(err, profiles.ErrNotFound) || errors.Is(err, org.ErrNotFound)
}

func (h *Handler) HandleUserUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	back := "/admin/users/" + id
	if err := r.ParseForm(); err != nil {
		h.outcome(w, r, back, "", errInvalid)
		return
	}

	v := shared.NewValidator()
	u := profiles.AdminUpdate{
		Name:         strings.TrimSpace(r.PostFormValue("name")),
		FullName:     strings.TrimSpace(r.PostFormValue("full_name")),
		Phone:        strings.TrimSpace(r.PostFormValue("phone")),
		Role:         strings.TrimSpace(r.PostFormValue("role")),
		PositionID:   strings.TrimSpace(r.PostFormValue("position_id")),
		Department:   strings.TrimSpace(r.PostFormValue("department")),
		EmployeeID:   strings.TrimSpace(r.PostFormValue("employee_id")),
		Status:       strings.TrimSpace(r.PostFormValue("status")),
		ContractType: strings.TrimSpace(r.PostFormValue("contract_type")),
	}
	v.Required("name", u.Name)
	v.Required("role", u.Role)
	if _, err := access.ParseRole(u.Role); err != nil {
		v.Add("role", "is not a known role")
	}
	v.Enum("status", u.Status, []string{profiles.StatusActive, profiles.StatusInactive})
	u.Salary = v.Float("salary", r.PostFormValue("salary"))
	if raw := strings.TrimSpace(r.PostFormValue("join_date")); raw != "" {
		if join, ok := v.Date("join_date", raw); ok {
			u.JoinDate = &join
		}
	}
	if u.Status == "" {
		u.Status = profiles.StatusActive
	}
	if v.HasIssues() {
		h.outcome(w, r, back, "", errInvalid)
		return
	}

	if err := h.Profiles.UpdateByAdmin(r.Context(), id, u); err != nil {
		h.outcome(w, r, back, "", err)
		return
	}
	if err := h.Sessions.SetUserStatus(r.Context(), id, u.Status); err != nil {
		h.outcome(w, r, back, "", err)
		return
	}
	h.record(r, activity.ActionUserUpdate, map[string]string{"userId": id, "role": u.Role, "status": u.Status})
	h.outcome(w, r, back, "saved", nil)
}

func (h *Handler) HandleUserDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if self, _ := access.PrincipalID(r.Context()); self == id {
		h.outcome(w, r, "/admin/users", "", errInvalid)
		return
	}
	// Sign the user out first so open pages leave before the rows vanish.
	if err := h.Sessions.RevokeUser(r.Context(), id); err != nil {
		h.outcome(w, r, "/admin/users", "", err)
		return
	}
	if err := h.Profiles.Delete(r.Context(), id); err != nil {
		h.outcome(w, r, "/admin/users", "", err)
		return
	}
	h.record(r, activity.ActionUserDelete, map[string]string{"userId": id})
	h.outcome(w, r, "/admin/users", "deleted", nil)
}

func (h *Handler) HandleUserRevoke(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := h.Sessions.RevokeUser(r.Context(), id)
	h.outcome(w, r, "/admin/users/"+id, "revoked", err)
}

func (h *Handler) HandleIssueWarning(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	back := "/admin/users/" + id
	if err := r.ParseForm(); err != nil {
		h.outcome(w, r, back, "", errInvalid)
		return
	}
	v := shared.NewValidator()
	level := v.Int("level", r.PostFormValue("level"))
	description := strings.TrimSpace(r.PostFormValue("description"))
	v.Required("description", description)
	if level < 1 || level > 3 {
		v.Add("level", "must be between 1 and 3")
	}
	if v.HasIssues() {
		h.outcome(w, r, back, "", errInvalid)
		return
	}

	issuer, _ := access.PrincipalID(r.Context())
	created, err := h.Attendance.IssueWarning(r.Context(), id, attendance.WarningManual, level, description, issuer)
	if err != nil {
		h.outcome(w, r, back, "", err)
		return
	}
	if !created {
		shared.Back(w, r, back, "err", "duplicate")
		return
	}
	h.record(r, activity.ActionWarningIssue, map[string]any{"userId": id, "level": level})
	h.outcome(w, r, back, "warned", nil)
}
