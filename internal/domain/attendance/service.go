package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

type store interface {
	ActiveLocation(ctx context.Context) (Location, error)
	SaveLocation(ctx context.Context, l Location) (string, error)
	Insert(ctx context.Context, r Record) (string, error)
	ForUser(ctx context.Context, userID string, from, to time.Time) ([]Record, error)
	Between(ctx context.Context, from, to time.Time) ([]Record, error)
	MissingCheckIn(ctx context.Context, from, to time.Time) ([]string, error)
	CreateWarning(ctx context.Context, w Warning, createdBy string) (bool, error)
	UnresolvedWarnings(ctx context.Context, limit int) ([]Warning, error)
	ResolveWarning(ctx context.Context, id string) error
}

type Service struct {
	store store
	loc   *time.Location
	now   func() time.Time
}

func NewService(s store, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: s, loc: loc, now: time.Now}
}

func (s *Service) clock() time.Time {
	return s.now().In(s.loc)
}

func (s *Service) Location(ctx context.Context) (Location, error) {
	return s.store.ActiveLocation(ctx)
}

func (s *Service) SaveLocation(ctx context.Context, l Location) (string, error) {
	if err := l.Validate(); err != nil {
		return "", err
	}
	return s.store.SaveLocation(ctx, l)
}

// Today returns the latest successful check-in and check-out of the day.
func (s *Service) Today(ctx context.Context, userID string) (Today, error) {
	from, to := DayRange(s.clock())
	records, err := s.store.ForUser(ctx, userID, from, to)
	if err != nil {
		return Today{}, err
	}
	return TodayOf(records), nil
}

// TodayOf picks the latest successful check-in and check-out from records
// ordered newest first.
func TodayOf(records []Record) Today {
	var out Today
	for i := range records {
		r := records[i]
		if r.Status != StatusSuccess {
			continue
		}
		switch {
		case r.Type == TypeCheckIn && out.CheckIn == nil:
			out.CheckIn = &r
		case r.Type == TypeCheckOut && out.CheckOut == nil:
			out.CheckOut = &r
		}
	}
	return out
}

// Record registers a check-in or check-out attempt. Attempts outside the
// geofence are stored with status gagal and returned without error so the
// employee sees the distance.
func (s *Service) Record(ctx context.Context, userID, kind string, lat, lon float64, notes string) (Record, error) {
	if kind != TypeCheckIn && kind != TypeCheckOut {
		return Record{}, ErrInvalidType
	}
	if !ValidCoordinate(lat, lon) {
		return Record{}, ErrInvalidCoordinate
	}
	office, err := s.store.ActiveLocation(ctx)
	if err != nil {
		return Record{}, err
	}
	today, err := s.Today(ctx, userID)
	if err != nil {
		return Record{}, fmt.Errorf("load today: %w", err)
	}
	switch kind {
	case TypeCheckIn:
		if today.CheckIn != nil {
			return Record{}, ErrAlreadyCheckedIn
		}
	case TypeCheckOut:
		if today.CheckIn == nil {
			return Record{}, ErrNotCheckedIn
		}
		if today.CheckOut != nil {
			return Record{}, ErrAlreadyCheckedOut
		}
	}

	at := s.clock()
	status, distance := Evaluate(office, lat, lon)
	rec := Record{
		UserID:         userID,
		Type:           kind,
		Timestamp:      at,
		Latitude:       lat,
		Longitude:      lon,
		DistanceMeters: distance,
		Status:         status,
		Notes:          notes,
	}
	if status == StatusSuccess {
		switch kind {
		case TypeCheckIn:
			rec.IsLate, rec.LateMinutes = Lateness(office, at)
		case TypeCheckOut:
			rec.WorkHours = WorkHours(today.CheckIn.Timestamp, at)
		}
	}
	id, err := s.store.Insert(ctx, rec)
	if err != nil {
		return Record{}, fmt.Errorf("insert attendance: %w", err)
	}
	rec.ID = id
	return rec, nil
}

func (s *Service) Month(ctx context.Context, userID string, month time.Time) ([]Record, MonthSummary, error) {
	from, to := MonthRange(month.In(s.loc))
	records, err := s.store.ForUser(ctx, userID, from, to)
	if err != nil {
		return nil, MonthSummary{}, err
	}
	return records, Summarize(records), nil
}

func (s *Service) OnDate(ctx context.Context, day time.Time) ([]Record, error) {
	from, to := DayRange(day.In(s.loc))
	return s.store.Between(ctx, from, to)
}

func (s *Service) Warnings(ctx context.Context, limit int) ([]Warning, error) {
	return s.store.UnresolvedWarnings(ctx, limit)
}

func (s *Service) ResolveWarning(ctx context.Context, id string) error {
	return s.store.ResolveWarning(ctx, id)
}

func (s *Service) IssueWarning(ctx context.Context, userID, kind string, level int, description, issuedBy string) (bool, error) {
	if kind == "" {
		kind = WarningManual
	}
	if level < 1 || level > 3 {
		return false, fmt.Errorf("warning level must be between 1 and 3")
	}
	return s.store.CreateWarning(ctx, Warning{
		UserID:      userID,
		Type:        kind,
		Level:       level,
		Description: description,
		IssueDate:   s.clock(),
	}, issuedBy)
}

// SweepAbsences issues an absence warning to every active employee who has
// not checked in on the given day. Re-running it for the same day is a no-op.
func (s *Service) SweepAbsences(ctx context.Context, day time.Time) (int, error) {
	from, to := DayRange(day.In(s.loc))
	missing, err := s.store.MissingCheckIn(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("list absentees: %w", err)
	}
	created := 0
	for _, userID := range missing {
		ok, err := s.store.CreateWarning(ctx, Warning{
			UserID:      userID,
			Type:        WarningAbsent,
			Level:       1,
			Description: "Tidak ada absensi masuk pada " + from.Format("2006-01-02"),
			IssueDate:   from,
		}, "")
		if err != nil {
			slog.Warn("absence warning insert failed", "userId", userID, "err", err)
			continue
		}
		if ok {
			created++
		}
	}
	return created, nil
}
