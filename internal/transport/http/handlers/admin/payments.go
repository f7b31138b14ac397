package adminhandler

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"absensi/internal/domain/access"
	"absensi/internal/domain/activity"
	"absensi/internal/domain/payroll"
	"absensi/internal/domain/profiles"
	"absensi/internal/transport/http/shared"
	"absensi/internal/transport/http/views"
)

func paymentFilter(r *http.Request) payroll.Filter {
	q := r.URL.Query()
	return payroll.Filter{
		UserID: strings.TrimSpace(q.Get("user_id")),
		Status: strings.TrimSpace(q.Get("status")),
	}
}

func (h *Handler) HandlePayments(w http.ResponseWriter, r *http.Request) {
	data := views.PaymentsData{Filter: paymentFilter(r)}
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		data.Payments, err = h.Payroll.List(ctx, data.Filter)
		return err
	})
	g.Go(func() (err error) {
		data.Totals, err = h.Payroll.Totals(ctx)
		return err
	})
	g.Go(func() (err error) {
		data.People, err = h.Profiles.List(ctx, profiles.Filter{Status: profiles.StatusActive})
		return err
	})
	if err := g.Wait(); err != nil {
		h.fail(w, r, err)
		return
	}
	views.Render(w, http.StatusOK, views.PaymentsPage(state(r), h.chrome(r, "Salary payments", "salary-payment"), data, h.Loc))
}

func (h *Handler) HandlePaymentsExport(w http.ResponseWriter, r *http.Request) {
	list, err := h.Payroll.List(r.Context(), paymentFilter(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	attachment(w, "text/csv; charset=utf-8", fmt.Sprintf("salary-payments-%s.csv", h.now().In(h.Loc).Format("2006-01-02")))
	if err := payroll.WriteCSV(w, list); err != nil {
		h.fail(w, r, err)
	}
}

func (h *Handler) HandlePaymentCreate(w http.ResponseWriter, r *http.Request) {
	const back = "/admin/salary-payment"
	if err := r.ParseForm(); err != nil {
		h.outcome(w, r, back, "", errInvalid)
		return
	}
	v := shared.NewValidator()
	p := payroll.NewPayment{
		UserID:    strings.TrimSpace(r.PostFormValue("user_id")),
		Method:    strings.TrimSpace(r.PostFormValue("method")),
		Reference: strings.TrimSpace(r.PostFormValue("reference")),
		Notes:     strings.TrimSpace(r.PostFormValue("notes")),
	}
	v.Required("user_id", p.UserID)
	p.Amount = v.Float("amount", r.PostFormValue("amount"))
	p.PeriodStart, _ = v.Date("period_start", r.PostFormValue("period_start"))
	p.PeriodEnd, _ = v.Date("period_end", r.PostFormValue("period_end"))
	v.DateOrder("period_start", p.PeriodStart, "period_end", p.PeriodEnd)
	if v.HasIssues() {
		h.outcome(w, r, back, "", errInvalid)
		return
	}

	creator, _ := access.PrincipalID(r.Context())
	id, err := h.Payroll.Create(r.Context(), p, creator)
	if err == nil {
		h.record(r, activity.ActionPaymentCreate, map[string]any{"paymentId": id, "userId": p.UserID, "amount": p.Amount})
	}
	h.outcome(w, r, back, "created", err)
}

func (h *Handler) HandlePaymentStatus(w http.ResponseWriter, r *http.Request) {
	const back = "/admin/salary-payment"
	id := chi.URLParam(r, "id")
	if err := r.ParseForm(); err != nil {
		h.outcome(w, r, back, "", errInvalid)
		return
	}
	to := strings.TrimSpace(r.PostFormValue("status"))
	updated, err := h.Payroll.UpdateStatus(r.Context(), id, to)
	if err == nil {
		h.record(r, activity.ActionPaymentStatus, map[string]string{"paymentId": id, "status": updated.Status})
	}
	h.outcome(w, r, back, "status", err)
}

func (h *Handler) HandlePaymentSlip(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var buf bytes.Buffer
	p, err := h.Payroll.Slip(r.Context(), id, &buf)
	if err != nil {
		h.outcome(w, r, "/admin/salary-payment", "", err)
		return
	}
	name := p.EmployeeID
	if name == "" {
		name = p.ID
	}
	attachment(w, "application/pdf", fmt.Sprintf("slip-%s-%s.pdf", name, p.PeriodEnd.Format("2006-01")))
	_, _ = buf.WriteTo(w)
}
