package payroll

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

type Payment struct {
	ID              string     `json:"id"`
	UserID          string     `json:"userId"`
	EmployeeName    string     `json:"employeeName"`
	EmployeeEmail   string     `json:"employeeEmail"`
	EmployeeID      string     `json:"employeeId"`
	Department      string     `json:"department"`
	BankName        string     `json:"bankName,omitempty"`
	BankAccountName string     `json:"bankAccountName,omitempty"`
	Amount          float64    `json:"paymentAmount"`
	PeriodStart     time.Time  `json:"periodStart"`
	PeriodEnd       time.Time  `json:"periodEnd"`
	Method          string     `json:"paymentMethod"`
	Status          string     `json:"paymentStatus"`
	PaymentDate     *time.Time `json:"paymentDate,omitempty"`
	Reference       string     `json:"referenceNumber"`
	Notes           string     `json:"notes"`
	CreatedAt       time.Time  `json:"createdAt"`
}

type NewPayment struct {
	UserID      string
	Amount      float64
	PeriodStart time.Time
	PeriodEnd   time.Time
	Method      string
	Reference   string
	Notes       string
}

type Filter struct {
	UserID string
	Status string
	From   *time.Time
	To     *time.Time
}

type Totals struct {
	Paid    float64 `json:"paid"`
	Pending int     `json:"pending"`
}

func (p *NewPayment) Validate() error {
	if strings.TrimSpace(p.UserID) == "" {
		return fmt.Errorf("%w: employee is required", ErrInvalidPayment)
	}
	if p.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidPayment)
	}
	if p.PeriodStart.IsZero() || p.PeriodEnd.IsZero() || p.PeriodEnd.Before(p.PeriodStart) {
		return fmt.Errorf("%w: period end must not precede period start", ErrInvalidPayment)
	}
	if p.Method == "" {
		p.Method = MethodBankTransfer
	}
	if !slices.Contains(Methods, p.Method) {
		return fmt.Errorf("%w: unknown payment method %q", ErrInvalidPayment, p.Method)
	}
	return nil
}

// TotalsOf sums completed payments and counts those still open.
func TotalsOf(list []Payment) Totals {
	var t Totals
	for _, p := range list {
		switch p.Status {
		case StatusCompleted:
			t.Paid += p.Amount
		case StatusPending, StatusProcessing:
			t.Pending++
		}
	}
	return t
}
