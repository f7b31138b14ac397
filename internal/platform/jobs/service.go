package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
)

const JobAbsenceSweep = "absence_sweep"

type sweeper interface {
	SweepAbsences(ctx context.Context, day time.Time) (int, error)
}

type runLog interface {
	start(ctx context.Context, jobType string) string
	finish(ctx context.Context, runID, status string, details any)
}

// Service schedules background work and records each run in job_runs.
type Service struct {
	cron    *cron.Cron
	runs    runLog
	sweeper sweeper
	loc     *time.Location
	created func(int)
}

func New(db *pgxpool.Pool, s sweeper, loc *time.Location, created func(int)) *Service {
	var runs runLog = noopRuns{}
	if db != nil {
		runs = dbRuns{db: db}
	}
	if loc == nil {
		loc = time.UTC
	}
	if created == nil {
		created = func(int) {}
	}
	return &Service{
		cron:    cron.New(cron.WithLocation(loc)),
		runs:    runs,
		sweeper: s,
		loc:     loc,
		created: created,
	}
}

// Start registers the absence sweep on the given cron schedule. An empty
// schedule disables it.
func (s *Service) Start(ctx context.Context, schedule string) error {
	if schedule == "" {
		slog.Info("absence sweep disabled")
		return nil
	}
	if _, err := s.cron.AddFunc(schedule, func() {
		if _, err := s.SweepNow(ctx, time.Now()); err != nil {
			slog.Warn("absence sweep failed", "err", err)
		}
	}); err != nil {
		return fmt.Errorf("schedule absence sweep: %w", err)
	}
	s.cron.Start()
	go func() {
		<-ctx.Done()
		<-s.cron.Stop().Done()
	}()
	slog.Info("absence sweep scheduled", "schedule", schedule)
	return nil
}

// SweepNow runs the absence sweep for the day containing at.
func (s *Service) SweepNow(ctx context.Context, at time.Time) (int, error) {
	runID := s.runs.start(ctx, JobAbsenceSweep)
	day := at.In(s.loc)
	n, err := s.sweeper.SweepAbsences(ctx, day)
	status := "completed"
	details := map[string]any{"day": day.Format("2006-01-02"), "created": n}
	if err != nil {
		status = "failed"
		details["error"] = err.Error()
	}
	s.runs.finish(ctx, runID, status, details)
	s.created(n)
	slog.Info("absence sweep finished", "day", details["day"], "created", n, "status", status)
	return n, err
}

type noopRuns struct{}

func (noopRuns) start(context.Context, string) string        { return "" }
func (noopRuns) finish(context.Context, string, string, any) {}

type dbRuns struct {
	db *pgxpool.Pool
}

func (r dbRuns) start(ctx context.Context, jobType string) string {
	var runID string
	if err := r.db.QueryRow(ctx, `
    INSERT INTO job_runs (job_type, status)
    VALUES ($1, 'running')
    RETURNING id
  `, jobType).Scan(&runID); err != nil {
		slog.Warn("job run insert failed", "jobType", jobType, "err", err)
	}
	return runID
}

func (r dbRuns) finish(ctx context.Context, runID, status string, details any) {
	if runID == "" {
		return
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		slog.Warn("job details marshal failed", "err", err)
		detailsJSON = []byte("{}")
	}
	if _, err := r.db.Exec(ctx, `
    UPDATE job_runs
    SET status = $1, details_json = $2, completed_at = now()
    WHERE id = $3
  `, status, detailsJSON, runID); err != nil {
		slog.Warn("job run update failed", "err", err)
	}
}
