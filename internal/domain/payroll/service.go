package payroll

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"absensi/internal/platform/email"
)

type store interface {
	List(ctx context.Context, f Filter, limit int) ([]Payment, error)
	Get(ctx context.Context, id string) (Payment, error)
	Create(ctx context.Context, p NewPayment, createdBy string) (string, error)
	SetStatus(ctx context.Context, id, from, to string) error
	Totals(ctx context.Context) (Totals, error)
}

type Service struct {
	store  store
	mailer email.Mailer
}

func NewService(s store, mailer email.Mailer) *Service {
	return &Service{store: s, mailer: mailer}
}

func (s *Service) List(ctx context.Context, f Filter) ([]Payment, error) {
	if f.Status != "" && !slices.Contains(Statuses, f.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidPayment, f.Status)
	}
	return s.store.List(ctx, f, 0)
}

// Latest returns the most recent payment for an employee, if any.
func (s *Service) Latest(ctx context.Context, userID string) (*Payment, error) {
	list, err := s.store.List(ctx, Filter{UserID: userID}, 1)
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return &list[0], nil
}

func (s *Service) Get(ctx context.Context, id string) (Payment, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) Totals(ctx context.Context) (Totals, error) {
	return s.store.Totals(ctx)
}

func (s *Service) Create(ctx context.Context, p NewPayment, createdBy string) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	return s.store.Create(ctx, p, createdBy)
}

// UpdateStatus applies a status change and notifies the employee once a
// payment completes. Notification failures are logged, not returned.
func (s *Service) UpdateStatus(ctx context.Context, id, to string) (Payment, error) {
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return Payment{}, err
	}
	if !CanTransition(current.Status, to) {
		return Payment{}, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, current.Status, to)
	}
	if err := s.store.SetStatus(ctx, id, current.Status, to); err != nil {
		return Payment{}, err
	}
	updated, err := s.store.Get(ctx, id)
	if err != nil {
		return Payment{}, err
	}
	if to == StatusCompleted {
		subject, body := completionNotice(updated)
		if err := s.mailer.Send(ctx, updated.EmployeeEmail, subject, body); err != nil {
			slog.Warn("salary notification failed", "paymentId", id, "err", err)
		}
	}
	return updated, nil
}

func (s *Service) Slip(ctx context.Context, id string, w io.Writer) (Payment, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return Payment{}, err
	}
	return p, WriteSlip(w, p)
}

func completionNotice(p Payment) (string, string) {
	subject := fmt.Sprintf("Gaji periode %s telah dibayarkan", p.PeriodEnd.Format("January 2006"))
	body := fmt.Sprintf(
		"Halo %s,\n\nPembayaran gaji Anda untuk periode %s s/d %s sebesar %s telah selesai.\nMetode: %s\nReferensi: %s\n",
		p.EmployeeName,
		p.PeriodStart.Format("2006-01-02"), p.PeriodEnd.Format("2006-01-02"),
		FormatRupiah(p.Amount), p.Method, p.Reference,
	)
	return subject, body
}
