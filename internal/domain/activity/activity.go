package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	ActionLogin          = "login"
	ActionLogout         = "logout"
	ActionRegister       = "register"
	ActionCheckIn        = "check_in"
	ActionCheckOut       = "check_out"
	ActionProfileUpdate  = "profile_update"
	ActionUserUpdate     = "user_update"
	ActionUserDelete     = "user_delete"
	ActionWarningIssue   = "warning_issue"
	ActionWarningResolve = "warning_resolve"
	ActionDepartment     = "department_change"
	ActionPosition       = "position_change"
	ActionBank           = "bank_change"
	ActionLocation       = "location_change"
	ActionPaymentCreate  = "salary_payment_create"
	ActionPaymentStatus  = "salary_payment_status"
	ActionMFAEnable      = "mfa_enable"
)

type Entry struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	Action    string          `json:"actionType"`
	Details   json.RawMessage `json:"actionDetails,omitempty"`
	IP        string          `json:"ipAddress"`
	UserAgent string          `json:"userAgent"`
	RequestID string          `json:"requestId"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Origin describes where a request came from.
type Origin struct {
	IP        string
	UserAgent string
	RequestID string
}

type Service struct {
	DB *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Service {
	return &Service{DB: db}
}

func (s *Service) Record(ctx context.Context, userID, action string, origin Origin, details any) error {
	var payload []byte
	if details != nil {
		encoded, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("encode activity details: %w", err)
		}
		payload = encoded
	}
	_, err := s.DB.Exec(ctx, `
    INSERT INTO activity_logs (user_id, action_type, action_details, ip_address, user_agent, request_id)
    VALUES ($1, $2, $3, $4, $5, $6)
  `, userID, action, payload, origin.IP, origin.UserAgent, origin.RequestID)
	return err
}

// List returns a user's activity, newest first. An empty action matches all.
func (s *Service) List(ctx context.Context, userID, action string, limit, offset int) ([]Entry, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, user_id, action_type, action_details, ip_address, user_agent, request_id, created_at
    FROM activity_logs
    WHERE user_id = $1 AND ($2 = '' OR action_type = $2)
    ORDER BY created_at DESC
    LIMIT $3 OFFSET $4
  `, userID, action, limit, offset)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Entry, error) {
		var e Entry
		err := row.Scan(&e.ID, &e.UserID, &e.Action, &e.Details, &e.IP, &e.UserAgent, &e.RequestID, &e.CreatedAt)
		return e, err
	})
}

func (s *Service) Count(ctx context.Context, userID, action string) (int, error) {
	var n int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM activity_logs WHERE user_id = $1 AND ($2 = '' OR action_type = $2)
  `, userID, action).Scan(&n)
	return n, err
}
