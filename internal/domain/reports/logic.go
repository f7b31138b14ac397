package reports

import (
	"math"
	"sort"

	"absensi/internal/domain/attendance"
	"absensi/internal/domain/payroll"
	"absensi/internal/domain/profiles"
)

type AdminStats struct {
	TotalEmployees   int     `json:"totalEmployees"`
	ActiveEmployees  int     `json:"activeEmployees"`
	TodayCheckIns    int     `json:"todayAttendance"`
	MonthlyCheckIns  int     `json:"monthlyAttendance"`
	LateToday        int     `json:"lateEmployees"`
	AbsentToday      int     `json:"absentEmployees"`
	OnTimePercentage int     `json:"onTimePercentage"`
	AverageWorkHours float64 `json:"avgWorkHours"`
	TotalSalaryPaid  float64 `json:"totalSalaryPaid"`
	PendingPayments  int     `json:"pendingPayments"`
}

type Bucket struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

type Performer struct {
	UserID           string  `json:"userId"`
	Name             string  `json:"name"`
	Department       string  `json:"department"`
	TotalDays        int     `json:"totalDays"`
	OnTimePercentage int     `json:"onTimePercentage"`
	AverageHours     float64 `json:"avgHours"`
}

type Alert struct {
	Kind     string `json:"type"`
	Title    string `json:"title"`
	Message  string `json:"message"`
	Severity int    `json:"severity"`
}

const noDepartment = "Tidak Ada"

func employeesOnly(list []profiles.Profile) []profiles.Profile {
	out := make([]profiles.Profile, 0, len(list))
	for _, p := range list {
		if p.Role != "admin" {
			out = append(out, p)
		}
	}
	return out
}

func successfulCheckIns(records []attendance.Record) []attendance.Record {
	var out []attendance.Record
	for _, r := range records {
		if r.Type == attendance.TypeCheckIn && r.Status == attendance.StatusSuccess {
			out = append(out, r)
		}
	}
	return out
}

// Summarize computes the admin dashboard headline numbers. Non-admin
// profiles count as employees; only successful check-ins count as presence.
func Summarize(people []profiles.Profile, today, month []attendance.Record, totals payroll.Totals) AdminStats {
	employees := employeesOnly(people)
	stats := AdminStats{
		TotalEmployees:  len(employees),
		TotalSalaryPaid: totals.Paid,
		PendingPayments: totals.Pending,
	}
	for _, p := range employees {
		if p.Status == profiles.StatusActive {
			stats.ActiveEmployees++
		}
	}

	todayIns := successfulCheckIns(today)
	stats.TodayCheckIns = len(todayIns)
	for _, r := range todayIns {
		if r.IsLate {
			stats.LateToday++
		}
	}
	stats.OnTimePercentage = 100
	if stats.TodayCheckIns > 0 {
		stats.OnTimePercentage = int(math.Round(float64(stats.TodayCheckIns-stats.LateToday) / float64(stats.TodayCheckIns) * 100))
	}
	stats.AbsentToday = max(stats.ActiveEmployees-stats.TodayCheckIns, 0)

	var hours float64
	for _, r := range month {
		if r.Status != attendance.StatusSuccess {
			continue
		}
		switch r.Type {
		case attendance.TypeCheckIn:
			stats.MonthlyCheckIns++
		case attendance.TypeCheckOut:
			hours += r.WorkHours
		}
	}
	stats.AverageWorkHours = math.Round(hours/float64(max(stats.MonthlyCheckIns, 1))*10) / 10
	return stats
}

// Departments counts active employees per department, largest first.
func Departments(people []profiles.Profile) []Bucket {
	counts := map[string]int{}
	for _, p := range employeesOnly(people) {
		if p.Status != profiles.StatusActive {
			continue
		}
		name := p.Department
		if name == "" {
			name = noDepartment
		}
		counts[name]++
	}
	out := make([]Bucket, 0, len(counts))
	for name, n := range counts {
		out = append(out, Bucket{Name: name, Value: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// TopPerformers ranks employees by on-time check-in rate over the given
// records, breaking ties by days present.
func TopPerformers(month []attendance.Record, limit int) []Performer {
	type tally struct {
		p      Performer
		onTime int
		hours  float64
	}
	byUser := map[string]*tally{}
	for _, r := range month {
		if r.Status != attendance.StatusSuccess {
			continue
		}
		t, ok := byUser[r.UserID]
		if !ok {
			t = &tally{p: Performer{UserID: r.UserID, Name: r.UserName, Department: r.Department}}
			byUser[r.UserID] = t
		}
		switch r.Type {
		case attendance.TypeCheckIn:
			t.p.TotalDays++
			if !r.IsLate {
				t.onTime++
			}
		case attendance.TypeCheckOut:
			t.hours += r.WorkHours
		}
	}

	out := make([]Performer, 0, len(byUser))
	for _, t := range byUser {
		if t.p.TotalDays == 0 {
			continue
		}
		t.p.OnTimePercentage = int(math.Round(float64(t.onTime) / float64(t.p.TotalDays) * 100))
		t.p.AverageHours = math.Round(t.hours/float64(t.p.TotalDays)*10) / 10
		out = append(out, t.p)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.OnTimePercentage != b.OnTimePercentage {
			return a.OnTimePercentage > b.OnTimePercentage
		}
		if a.TotalDays != b.TotalDays {
			return a.TotalDays > b.TotalDays
		}
		return a.UserID < b.UserID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Alerts merges open warnings with today's late arrivals, worst lateness
// first, capped at limit.
func Alerts(warnings []attendance.Warning, today []attendance.Record, limit int) []Alert {
	var out []Alert
	for _, w := range warnings {
		out = append(out, Alert{
			Kind:     "warning",
			Title:    "Peringatan " + w.Type,
			Message:  w.UserName + " - " + w.Description,
			Severity: w.Level,
		})
	}
	late := successfulCheckIns(today)
	sort.SliceStable(late, func(i, j int) bool { return late[i].LateMinutes > late[j].LateMinutes })
	for _, r := range late {
		if !r.IsLate {
			continue
		}
		out = append(out, Alert{
			Kind:     "late",
			Title:    "Keterlambatan",
			Message:  r.UserName + " terlambat " + itoa(r.LateMinutes) + " menit",
			Severity: attendance.LateSeverity(r.LateMinutes),
		})
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
