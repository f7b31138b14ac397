package attendance

import (
	"errors"
	"time"
)

const (
	TypeCheckIn  = "masuk"
	TypeCheckOut = "pulang"

	StatusSuccess = "berhasil"
	StatusFailed  = "gagal"

	WarningAbsent = "absent"
	WarningLate   = "late"
	WarningManual = "manual"
)

var (
	ErrAlreadyCheckedIn  = errors.New("already checked in today")
	ErrAlreadyCheckedOut = errors.New("already checked out today")
	ErrNotCheckedIn      = errors.New("no check-in recorded today")
	ErrInvalidType       = errors.New("attendance type must be masuk or pulang")
	ErrInvalidCoordinate = errors.New("coordinates out of range")
	ErrNoLocation        = errors.New("office location is not configured")
	ErrNotFound          = errors.New("not found")
)

type Record struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	UserName       string    `json:"userName,omitempty"`
	Department     string    `json:"department,omitempty"`
	Type           string    `json:"type"`
	Timestamp      time.Time `json:"timestamp"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	DistanceMeters float64   `json:"distanceMeters"`
	Status         string    `json:"status"`
	IsLate         bool      `json:"isLate"`
	LateMinutes    int       `json:"lateMinutes"`
	WorkHours      float64   `json:"workHours"`
	Notes          string    `json:"notes"`
}

// Location is the office geofence and the working-day rules tied to it.
type Location struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	Latitude             float64   `json:"latitude"`
	Longitude            float64   `json:"longitude"`
	RadiusMeters         int       `json:"radiusMeters"`
	WorkStart            string    `json:"workStart"`
	LateToleranceMinutes int       `json:"lateToleranceMinutes"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

type Warning struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	UserName    string     `json:"userName,omitempty"`
	Department  string     `json:"department,omitempty"`
	Type        string     `json:"warningType"`
	Level       int        `json:"warningLevel"`
	Description string     `json:"description"`
	IssueDate   time.Time  `json:"issueDate"`
	IsResolved  bool       `json:"isResolved"`
	ResolvedAt  *time.Time `json:"resolvedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// MonthSummary is what an employee sees for the current month.
type MonthSummary struct {
	Present      int     `json:"present"`
	Late         int     `json:"late"`
	OnTime       int     `json:"onTime"`
	Failed       int     `json:"failed"`
	TotalHours   float64 `json:"totalHours"`
	AverageHours float64 `json:"averageHours"`
}

// Today reports an employee's attendance for the current day.
type Today struct {
	CheckIn  *Record `json:"checkIn,omitempty"`
	CheckOut *Record `json:"checkOut,omitempty"`
}
