package adminhandler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"absensi/internal/domain/activity"
	"absensi/internal/domain/attendance"
	"absensi/internal/transport/http/shared"
	"absensi/internal/transport/http/views"
)

func (h *Handler) HandleLocation(w http.ResponseWriter, r *http.Request) {
	loc, err := h.Attendance.Location(r.Context())
	if err != nil && !errors.Is(err, attendance.ErrNoLocation) {
		h.fail(w, r, err)
		return
	}
	if errors.Is(err, attendance.ErrNoLocation) {
		loc = attendance.Location{RadiusMeters: 100, WorkStart: "08:00", LateToleranceMinutes: 15}
	}
	views.Render(w, http.StatusOK, views.LocationPage(state(r), h.chrome(r, "Office location", "location"), loc))
}

func (h *Handler) HandleLocationSave(w http.ResponseWriter, r *http.Request) {
	const back = "/admin/location"
	if err := r.ParseForm(); err != nil {
		h.outcome(w, r, back, "", errInvalid)
		return
	}
	v := shared.NewValidator()
	l := attendance.Location{
		Name:      strings.TrimSpace(r.PostFormValue("name")),
		WorkStart: strings.TrimSpace(r.PostFormValue("work_start")),
	}
	v.Required("name", l.Name)
	v.Required("work_start", l.WorkStart)
	l.Latitude = v.Float("latitude", r.PostFormValue("latitude"))
	l.Longitude = v.Float("longitude", r.PostFormValue("longitude"))
	l.RadiusMeters = int(v.Float("radius", r.PostFormValue("radius")))
	l.LateToleranceMinutes = int(v.Float("late_tolerance", r.PostFormValue("late_tolerance")))
	if !v.HasIssues() {
		if err := l.Validate(); err != nil {
			v.Add("location", err.Error())
		}
	}
	if v.HasIssues() {
		h.outcome(w, r, back, "", errInvalid)
		return
	}

	id, err := h.Attendance.SaveLocation(r.Context(), l)
	if err == nil {
		h.record(r, activity.ActionLocation, map[string]any{"id": id, "radius": l.RadiusMeters, "workStart": l.WorkStart})
	}
	h.outcome(w, r, back, "saved", err)
}

func (h *Handler) HandleAttendance(w http.ResponseWriter, r *http.Request) {
	day := shared.ParseDay(r.URL.Query().Get("date"), h.now().In(h.Loc))
	data := views.AttendanceData{Day: day}
	var err error
	if data.Records, err = h.Attendance.OnDate(r.Context(), day); err != nil {
		h.fail(w, r, err)
		return
	}
	if data.Warnings, err = h.Attendance.Warnings(r.Context(), 100); err != nil {
		h.fail(w, r, err)
		return
	}
	views.Render(w, http.StatusOK, views.AttendancePage(state(r), h.chrome(r, "Attendance", "attendance"), data, h.Loc))
}

func (h *Handler) HandleAttendanceExport(w http.ResponseWriter, r *http.Request) {
	day := shared.ParseDay(r.URL.Query().Get("date"), h.now().In(h.Loc))
	records, err := h.Attendance.OnDate(r.Context(), day)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	attachment(w, "text/csv; charset=utf-8", fmt.Sprintf("attendance-%s.csv", day.Format("2006-01-02")))
	if err := attendance.WriteCSV(w, records, h.Loc); err != nil {
		h.fail(w, r, err)
	}
}

func (h *Handler) HandleResolveWarning(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	back := "/admin/attendance"
	if err := r.ParseForm(); err == nil {
		if day := strings.TrimSpace(r.PostFormValue("date")); day != "" {
			back += "?date=" + shared.ParseDay(day, h.now().In(h.Loc)).Format("2006-01-02")
		}
	}
	err := h.Attendance.ResolveWarning(r.Context(), id)
	if err == nil {
		h.record(r, activity.ActionWarningResolve, map[string]string{"warningId": id})
	}
	h.outcome(w, r, back, "resolved", err)
}
