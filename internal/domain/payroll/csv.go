package payroll

import (
	"encoding/csv"
	"io"
	"strconv"
)

func WriteCSV(w io.Writer, list []Payment) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"employee_id", "name", "department", "amount", "period_start", "period_end", "method", "status", "payment_date", "reference"}); err != nil {
		return err
	}
	for _, p := range list {
		paid := ""
		if p.PaymentDate != nil {
			paid = p.PaymentDate.Format("2006-01-02")
		}
		if err := cw.Write([]string{
			p.EmployeeID, p.EmployeeName, p.Department, strconv.FormatFloat(p.Amount, 'f', 2, 64),
			p.PeriodStart.Format("2006-01-02"), p.PeriodEnd.Format("2006-01-02"),
			p.Method, p.Status, paid, p.Reference,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
