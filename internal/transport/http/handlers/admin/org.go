package adminhandler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"absensi/internal/domain/activity"
	"absensi/internal/domain/org"
	"absensi/internal/transport/http/shared"
	"absensi/internal/transport/http/views"
)

func (h *Handler) HandleDepartments(w http.ResponseWriter, r *http.Request) {
	list, err := h.Org.ListDepartments(r.Context(), false)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	views.Render(w, http.StatusOK, views.DepartmentsPage(state(r), h.chrome(r, "Departments", "departments"), list))
}

func departmentForm(r *http.Request) (org.Department, bool) {
	if err := r.ParseForm(); err != nil {
		return org.Department{}, false
	}
	return org.Department{
		Name:        r.PostFormValue("name"),
		Description: r.PostFormValue("description"),
	}, true
}

func (h *Handler) HandleDepartmentCreate(w http.ResponseWriter, r *http.Request) {
	d, ok := departmentForm(r)
	if !ok {
		h.outcome(w, r, "/admin/departments", "", errInvalid)
		return
	}
	id, err := h.Org.CreateDepartment(r.Context(), d)
	if err == nil {
		h.record(r, activity.ActionDepartment, map[string]string{"op": "create", "id": id, "name": strings.TrimSpace(d.Name)})
	}
	h.outcome(w, r, "/admin/departments", "created", err)
}

func (h *Handler) HandleDepartmentUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	d, ok := departmentForm(r)
	if !ok {
		h.outcome(w, r, "/admin/departments", "", errInvalid)
		return
	}
	err := h.Org.UpdateDepartment(r.Context(), id, d)
	if err == nil {
		h.record(r, activity.ActionDepartment, map[string]string{"op": "update", "id": id})
	}
	h.outcome(w, r, "/admin/departments", "saved", err)
}

func (h *Handler) HandleDepartmentDeactivate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := h.Org.DeactivateDepartment(r.Context(), id)
	if err == nil {
		h.record(r, activity.ActionDepartment, map[string]string{"op": "deactivate", "id": id})
	}
	h.outcome(w, r, "/admin/departments", "deactivated", err)
}

func (h *Handler) HandlePositions(w http.ResponseWriter, r *http.Request) {
	list, err := h.Org.ListPositions(r.Context(), false)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	departments, err := h.Org.ListDepartments(r.Context(), true)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	views.Render(w, http.StatusOK, views.PositionsPage(state(r), h.chrome(r, "Positions", "positions"), list, departments))
}

func positionForm(r *http.Request) (org.Position, bool) {
	if err := r.ParseForm(); err != nil {
		return org.Position{}, false
	}
	v := shared.NewValidator()
	p := org.Position{
		NameID:     r.PostFormValue("name_id"),
		NameEN:     r.PostFormValue("name_en"),
		Department: r.PostFormValue("department"),
		BaseSalary: v.Float("base_salary", r.PostFormValue("base_salary")),
	}
	return p, !v.HasIssues()
}

func (h *Handler) HandlePositionCreate(w http.ResponseWriter, r *http.Request) {
	p, ok := positionForm(r)
	if !ok {
		h.outcome(w, r, "/admin/positions", "", errInvalid)
		return
	}
	id, err := h.Org.CreatePosition(r.Context(), p)
	if err == nil {
		h.record(r, activity.ActionPosition, map[string]string{"op": "create", "id": id})
	}
	h.outcome(w, r, "/admin/positions", "created", err)
}

func (h *Handler) HandlePositionUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, ok := positionForm(r)
	if !ok {
		h.outcome(w, r, "/admin/positions", "", errInvalid)
		return
	}
	err := h.Org.UpdatePosition(r.Context(), id, p)
	if err == nil {
		h.record(r, activity.ActionPosition, map[string]string{"op": "update", "id": id})
	}
	h.outcome(w, r, "/admin/positions", "saved", err)
}

func (h *Handler) HandlePositionDeactivate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := h.Org.DeactivatePosition(r.Context(), id)
	if err == nil {
		h.record(r, activity.ActionPosition, map[string]string{"op": "deactivate", "id": id})
	}
	h.outcome(w, r, "/admin/positions", "deactivated", err)
}

func (h *Handler) HandleBanks(w http.ResponseWriter, r *http.Request) {
	list, err := h.Org.ListBanks(r.Context(), false)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	views.Render(w, http.StatusOK, views.BanksPage(state(r), h.chrome(r, "Banks", "bank"), list))
}

func bankForm(r *http.Request) (org.Bank, bool) {
	if err := r.ParseForm(); err != nil {
		return org.Bank{}, false
	}
	b := org.Bank{
		Name: r.PostFormValue("bank_name"),
		Code: r.PostFormValue("bank_code"),
		Logo: r.PostFormValue("bank_logo"),
	}
	return b, strings.TrimSpace(b.Code) != ""
}

func (h *Handler) HandleBankCreate(w http.ResponseWriter, r *http.Request) {
	b, ok := bankForm(r)
	if !ok {
		h.outcome(w, r, "/admin/bank", "", errInvalid)
		return
	}
	id, err := h.Org.CreateBank(r.Context(), b)
	if err == nil {
		h.record(r, activity.ActionBank, map[string]string{"op": "create", "id": id})
	}
	h.outcome(w, r, "/admin/bank", "created", err)
}

func (h *Handler) HandleBankUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	b, ok := bankForm(r)
	if !ok {
		h.outcome(w, r, "/admin/bank", "", errInvalid)
		return
	}
	err := h.Org.UpdateBank(r.Context(), id, b)
	if err == nil {
		h.record(r, activity.ActionBank, map[string]string{"op": "update", "id": id})
	}
	h.outcome(w, r, "/admin/bank", "saved", err)
}

func (h *Handler) HandleBankDeactivate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := h.Org.DeactivateBank(r.Context(), id)
	if err == nil {
		h.record(r, activity.ActionBank, map[string]string{"op": "deactivate", "id": id})
	}
	h.outcome(w, r, "/admin/bank", "deactivated", err)
}
