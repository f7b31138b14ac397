package profiles

import "time"

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

type Profile struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	FullName          string     `json:"fullName"`
	Email             string     `json:"email"`
	Phone             string     `json:"phone"`
	Role              string     `json:"role"`
	PositionID        string     `json:"positionId,omitempty"`
	PositionName      string     `json:"positionName,omitempty"`
	Department        string     `json:"department"`
	EmployeeID        string     `json:"employeeId"`
	Salary            float64    `json:"salary"`
	Status            string     `json:"status"`
	JoinDate          *time.Time `json:"joinDate,omitempty"`
	ContractType      string     `json:"contractType"`
	BankID            string     `json:"bankId,omitempty"`
	BankName          string     `json:"bankName,omitempty"`
	BankAccountNumber string     `json:"bankAccountNumber,omitempty"`
	BankAccountName   string     `json:"bankAccountName"`
	CreatedAt         time.Time  `json:"createdAt"`
}

type Filter struct {
	Query  string
	Role   string
	Status string
}

type Stats struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Inactive  int `json:"inactive"`
	Admins    int `json:"admins"`
	Employees int `json:"employees"`
}

// AdminUpdate carries the fields an administrator can change on any profile.
type AdminUpdate struct {
	Name         string
	FullName     string
	Phone        string
	Role         string
	PositionID   string
	Department   string
	EmployeeID   string
	Salary       float64
	Status       string
	JoinDate     *time.Time
	ContractType string
}

// SelfUpdate carries the fields employees maintain themselves.
type SelfUpdate struct {
	FullName          string
	Phone             string
	BankID            string
	BankAccountNumber string
	BankAccountName   string
}

// StatsOf tallies a slice of profiles.
func StatsOf(list []Profile) Stats {
	var out Stats
	for _, p := range list {
		out.Total++
		if p.Status == StatusActive {
			out.Active++
		} else {
			out.Inactive++
		}
		switch p.Role {
		case "admin":
			out.Admins++
		case "karyawan":
			out.Employees++
		}
	}
	return out
}
