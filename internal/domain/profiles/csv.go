package profiles

import (
	"encoding/csv"
	"io"
	"strconv"
)

var csvHeader = []string{"employee_id", "name", "email", "phone", "role", "department", "position", "status", "contract_type", "join_date", "salary"}

func WriteCSV(w io.Writer, list []Profile) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, p := range list {
		joined := ""
		if p.JoinDate != nil {
			joined = p.JoinDate.Format("2006-01-02")
		}
		if err := cw.Write([]string{
			p.EmployeeID, p.Name, p.Email, p.Phone, p.Role, p.Department, p.PositionName,
			p.Status, p.ContractType, joined, strconv.FormatFloat(p.Salary, 'f', 2, 64),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
