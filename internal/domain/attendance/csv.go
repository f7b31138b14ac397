package attendance

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

func WriteCSV(w io.Writer, records []Record, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"name", "department", "type", "timestamp", "status", "distance_m", "late", "late_minutes", "work_hours"}); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write([]string{
			r.UserName, r.Department, r.Type, r.Timestamp.In(loc).Format("2006-01-02 15:04:05"), r.Status,
			strconv.FormatFloat(r.DistanceMeters, 'f', 1, 64),
			strconv.FormatBool(r.IsLate), strconv.Itoa(r.LateMinutes),
			strconv.FormatFloat(r.WorkHours, 'f', 2, 64),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
