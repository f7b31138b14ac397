package reports

import (
	"context"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"absensi/internal/domain/attendance"
	"absensi/internal/domain/payroll"
	"absensi/internal/domain/profiles"
)

type profileLister interface {
	List(ctx context.Context, f profiles.Filter) ([]profiles.Profile, error)
}

type attendanceReader interface {
	Between(ctx context.Context, from, to time.Time) ([]attendance.Record, error)
	Recent(ctx context.Context, limit int) ([]attendance.Record, error)
	UnresolvedWarnings(ctx context.Context, limit int) ([]attendance.Warning, error)
	ForUser(ctx context.Context, userID string, from, to time.Time) ([]attendance.Record, error)
}

type paymentReader interface {
	Totals(ctx context.Context) (payroll.Totals, error)
	List(ctx context.Context, f payroll.Filter, limit int) ([]payroll.Payment, error)
}

type Service struct {
	profiles   profileLister
	attendance attendanceReader
	payments   paymentReader
	loc        *time.Location
	now        func() time.Time
}

func NewService(p profileLister, a attendanceReader, pay paymentReader, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{profiles: p, attendance: a, payments: pay, loc: loc, now: time.Now}
}

type AdminDashboard struct {
	Stats       AdminStats          `json:"stats"`
	Departments []Bucket            `json:"departments"`
	Top         []Performer         `json:"topPerformers"`
	Alerts      []Alert             `json:"alerts"`
	Recent      []attendance.Record `json:"recentActivities"`
}

// Admin loads every dashboard source concurrently; any failure fails the
// whole dashboard.
func (s *Service) Admin(ctx context.Context) (AdminDashboard, error) {
	now := s.now().In(s.loc)
	dayFrom, dayTo := attendance.DayRange(now)
	monthFrom, monthTo := attendance.MonthRange(now)

	var (
		people   []profiles.Profile
		today    []attendance.Record
		month    []attendance.Record
		recent   []attendance.Record
		warnings []attendance.Warning
		totals   payroll.Totals
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { people, err = s.profiles.List(ctx, profiles.Filter{}); return })
	g.Go(func() (err error) { today, err = s.attendance.Between(ctx, dayFrom, dayTo); return })
	g.Go(func() (err error) { month, err = s.attendance.Between(ctx, monthFrom, monthTo); return })
	g.Go(func() (err error) { recent, err = s.attendance.Recent(ctx, 10); return })
	g.Go(func() (err error) { warnings, err = s.attendance.UnresolvedWarnings(ctx, 5); return })
	g.Go(func() (err error) { totals, err = s.payments.Totals(ctx); return })
	if err := g.Wait(); err != nil {
		return AdminDashboard{}, err
	}

	return AdminDashboard{
		Stats:       Summarize(people, today, month, totals),
		Departments: Departments(people),
		Top:         TopPerformers(month, 5),
		Alerts:      Alerts(warnings, today, 5),
		Recent:      recent,
	}, nil
}

type EmployeeDashboard struct {
	Today         attendance.Today        `json:"today"`
	Month         attendance.MonthSummary `json:"month"`
	LatestPayment *payroll.Payment        `json:"latestPayment,omitempty"`
}

func (s *Service) Employee(ctx context.Context, userID string) (EmployeeDashboard, error) {
	now := s.now().In(s.loc)
	monthFrom, monthTo := attendance.MonthRange(now)
	dayFrom, _ := attendance.DayRange(now)

	var (
		month    []attendance.Record
		payments []payroll.Payment
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { month, err = s.attendance.ForUser(ctx, userID, monthFrom, monthTo); return })
	g.Go(func() (err error) {
		payments, err = s.payments.List(ctx, payroll.Filter{UserID: userID}, 1)
		return
	})
	if err := g.Wait(); err != nil {
		return EmployeeDashboard{}, err
	}

	var todays []attendance.Record
	for _, r := range month {
		if !r.Timestamp.Before(dayFrom) {
			todays = append(todays, r)
		}
	}
	out := EmployeeDashboard{Month: attendance.Summarize(month), Today: attendance.TodayOf(todays)}
	if len(payments) > 0 {
		out.LatestPayment = &payments[0]
	}
	return out, nil
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
