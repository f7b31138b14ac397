package payroll

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// WriteSlip renders a one-page salary slip.
func WriteSlip(w io.Writer, p Payment) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Slip Gaji "+p.EmployeeName, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "SLIP GAJI", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Periode %s - %s", p.PeriodStart.Format("02 Jan 2006"), p.PeriodEnd.Format("02 Jan 2006")), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	rows := [][2]string{
		{"Nama", p.EmployeeName},
		{"ID Karyawan", p.EmployeeID},
		{"Departemen", p.Department},
		{"Email", p.EmployeeEmail},
		{"Bank", strings.TrimSpace(p.BankName + " " + p.BankAccountName)},
		{"Metode", p.Method},
		{"Status", p.Status},
		{"Referensi", p.Reference},
	}
	if p.PaymentDate != nil {
		rows = append(rows, [2]string{"Tanggal Bayar", p.PaymentDate.Format("02 Jan 2006")})
	}
	for _, row := range rows {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(50, 8, row[0], "1", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 8, row[1], "1", 1, "L", false, 0, "")
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(50, 10, "Total Dibayar", "1", 0, "L", false, 0, "")
	pdf.CellFormat(0, 10, FormatRupiah(p.Amount), "1", 1, "R", false, 0, "")

	if p.Notes != "" {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "I", 9)
		pdf.MultiCell(0, 5, p.Notes, "", "L", false)
	}
	return pdf.Output(w)
}

// FormatRupiah renders an amount as "Rp 1.234.567".
func FormatRupiah(amount float64) string {
	negative := amount < 0
	digits := strconv.FormatInt(int64(math.Round(math.Abs(amount))), 10)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if negative {
		return "-Rp " + b.String()
	}
	return "Rp " + b.String()
}
