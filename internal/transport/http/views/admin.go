package views

import (
	"fmt"
	"strconv"
	"time"

	. "maragu.dev/gomponents"
	html "maragu.dev/gomponents/html"

	"absensi/internal/domain/access"
	"absensi/internal/domain/attendance"
	"absensi/internal/domain/org"
	"absensi/internal/domain/payroll"
	"absensi/internal/domain/profiles"
	"absensi/internal/domain/reports"
)

func AdminDashboard(state access.State, c Chrome, d reports.AdminDashboard, loc *time.Location) Node {
	s := d.Stats
	stats := []struct {
		label string
		value string
	}{
		{"Employees", strconv.Itoa(s.TotalEmployees)},
		{"Active employees", strconv.Itoa(s.ActiveEmployees)},
		{"Checked in today", strconv.Itoa(s.TodayCheckIns)},
		{"Late today", strconv.Itoa(s.LateToday)},
		{"Absent today", strconv.Itoa(s.AbsentToday)},
		{"On time", strconv.Itoa(s.OnTimePercentage) + "%"},
		{"Check-ins this month", strconv.Itoa(s.MonthlyCheckIns)},
		{"Average work hours", fmt.Sprintf("%.1f", s.AverageWorkHours)},
		{"Salary paid", payroll.FormatRupiah(s.TotalSalaryPaid)},
		{"Pending payments", strconv.Itoa(s.PendingPayments)},
	}
	cards := make([]Node, 0, len(stats)*2)
	for _, st := range stats {
		cards = append(cards, html.Dt(Text(st.label)), html.Dd(Text(st.value)))
	}

	departments := Map(d.Departments, func(b reports.Bucket) Node {
		return html.Tr(cells(b.Name, strconv.Itoa(b.Value)))
	})
	top := Map(d.Top, func(p reports.Performer) Node {
		return html.Tr(cells(p.Name, p.Department, strconv.Itoa(p.TotalDays), strconv.Itoa(p.OnTimePercentage)+"%", fmt.Sprintf("%.1f", p.AverageHours)))
	})
	alerts := Map(d.Alerts, func(a reports.Alert) Node {
		return html.Li(Attr("data-severity", strconv.Itoa(a.Severity)), html.Strong(Text(a.Title)), Text(" "+a.Message))
	})
	recent := Map(d.Recent, func(r attendance.Record) Node {
		return html.Tr(cells(r.UserName, r.Type, formatDateTime(r.Timestamp, loc), r.Status, lateLabel(r)))
	})

	return Page(state, c,
		html.Section(html.Dl(Group(cards))),
		html.Section(html.H2(Text("Departments")), table([]string{"Department", "Employees"}, departments)),
		html.Section(html.H2(Text("Top performers this month")), table([]string{"Name", "Department", "Days", "On time", "Avg hours"}, top)),
		html.Section(html.H2(Text("Alerts")), If(len(alerts) == 0, html.P(html.Em(Text("Nothing needs attention.")))), html.Ul(alerts)),
		html.Section(html.H2(Text("Recent attendance")), table([]string{"Employee", "Type", "Time", "Status", "Late"}, recent)),
	)
}

func lateLabel(r attendance.Record) string {
	if !r.IsLate {
		return "-"
	}
	return strconv.Itoa(r.LateMinutes) + " min"
}

type UsersData struct {
	People      []profiles.Profile
	Stats       profiles.Stats
	Filter      profiles.Filter
	Positions   []org.Position
	Departments []org.Department
}

func roleChoices() []choice {
	out := make([]choice, 0, len(access.Roles))
	for _, r := range access.Roles {
		out = append(out, choice{Value: r.String(), Label: r.String()})
	}
	return out
}

var statusChoices = plainChoices([]string{profiles.StatusActive, profiles.StatusInactive})

func UsersPage(state access.State, c Chrome, d UsersData, loc *time.Location) Node {
	rows := Map(d.People, func(p profiles.Profile) Node {
		return html.Tr(
			cells(p.EmployeeID, p.Name, p.Email, p.Role, p.Department, p.PositionName, p.Status, formatDatePtr(p.JoinDate, loc)),
			html.Td(
				html.A(html.Href("/admin/users/"+p.ID), Text("Edit")),
				Text(" "),
				postButton("/admin/users/"+p.ID+"/delete", "Delete"),
			),
		)
	})
	return Page(state, c,
		html.P(Textf("%d total, %d active, %d inactive, %d admins, %d employees.",
			d.Stats.Total, d.Stats.Active, d.Stats.Inactive, d.Stats.Admins, d.Stats.Employees)),
		html.Form(html.Method("get"), html.Action("/admin/users"),
			html.Input(html.Type("search"), html.Name("q"), html.Value(d.Filter.Query), html.Placeholder("Name, email or employee id")),
			selectInput("role", d.Filter.Role, roleChoices(), "All roles"),
			selectInput("status", d.Filter.Status, statusChoices, "All statuses"),
			html.Button(html.Type("submit"), Text("Filter")),
			Text(" "),
			html.A(html.Href(withQuery("/admin/users/export.csv", "q", d.Filter.Query, "role", d.Filter.Role, "status", d.Filter.Status)), Text("Export CSV")),
		),
		table([]string{"ID", "Name", "Email", "Role", "Department", "Position", "Status", "Joined", ""}, rows),
	)
}

type UserEditData struct {
	Profile     profiles.Profile
	Positions   []org.Position
	Departments []org.Department
}

func UserEditPage(state access.State, c Chrome, d UserEditData) Node {
	p := d.Profile
	positions := make([]choice, 0, len(d.Positions))
	for _, pos := range d.Positions {
		positions = append(positions, choice{Value: pos.ID, Label: pos.NameID})
	}
	departments := make([]choice, 0, len(d.Departments))
	for _, dep := range d.Departments {
		departments = append(departments, choice{Value: dep.Name, Label: dep.Name})
	}
	join := ""
	if p.JoinDate != nil {
		join = p.JoinDate.Format("2006-01-02")
	}
	return Page(state, c,
		html.P(Text(p.Email)),
		html.Form(html.Method("post"), html.Action("/admin/users/"+p.ID),
			field("Name", textInput("name", p.Name, true)),
			field("Full name", textInput("full_name", p.FullName, false)),
			field("Phone", typedInput("tel", "phone", p.Phone, false)),
			field("Role", selectInput("role", p.Role, roleChoices(), "")),
			field("Department", selectInput("department", p.Department, departments, "None")),
			field("Position", selectInput("position_id", p.PositionID, positions, "None")),
			field("Employee ID", textInput("employee_id", p.EmployeeID, false)),
			field("Salary", numberInput("salary", p.Salary, "1000")),
			field("Status", selectInput("status", p.Status, statusChoices, "")),
			field("Join date", typedInput("date", "join_date", join, false)),
			field("Contract type", selectInput("contract_type", p.ContractType, plainChoices([]string{"permanent", "contract", "internship"}), "")),
			submit("Save"),
		),
		html.Section(
			html.H2(Text("Issue warning")),
			html.Form(html.Method("post"), html.Action("/admin/users/"+p.ID+"/warnings"),
				field("Level", selectInput("level", "1", plainChoices([]string{"1", "2", "3"}), "")),
				field("Description", html.Textarea(html.Name("description"), html.Required())),
				submit("Issue warning"),
			),
		),
		html.Section(
			html.H2(Text("Sessions")),
			postButton("/admin/users/"+p.ID+"/revoke", "Sign out everywhere"),
		),
	)
}

func DepartmentsPage(state access.State, c Chrome, list []org.Department) Node {
	rows := Map(list, func(d org.Department) Node {
		return html.Tr(
			html.Td(html.Form(html.Method("post"), html.Action("/admin/departments/"+d.ID),
				textInput("name", d.Name, true),
				textInput("description", d.Description, false),
				html.Button(html.Type("submit"), Text("Save")),
			)),
			html.Td(Text(yesNo(d.IsActive))),
			html.Td(If(d.IsActive, postButton("/admin/departments/"+d.ID+"/deactivate", "Deactivate"))),
		)
	})
	return Page(state, c,
		table([]string{"Department", "Active", ""}, rows),
		html.Section(html.H2(Text("New department")),
			html.Form(html.Method("post"), html.Action("/admin/departments"),
				field("Name", textInput("name", "", true)),
				field("Description", textInput("description", "", false)),
				submit("Create"),
			),
		),
	)
}

func PositionsPage(state access.State, c Chrome, list []org.Position, departments []org.Department) Node {
	deps := make([]choice, 0, len(departments))
	for _, d := range departments {
		deps = append(deps, choice{Value: d.Name, Label: d.Name})
	}
	rows := Map(list, func(p org.Position) Node {
		return html.Tr(
			html.Td(html.Form(html.Method("post"), html.Action("/admin/positions/"+p.ID),
				textInput("name_id", p.NameID, true),
				textInput("name_en", p.NameEN, false),
				selectInput("department", p.Department, deps, "None"),
				numberInput("base_salary", p.BaseSalary, "1000"),
				html.Button(html.Type("submit"), Text("Save")),
			)),
			html.Td(Text(payroll.FormatRupiah(p.BaseSalary))),
			html.Td(Text(yesNo(p.IsActive))),
			html.Td(If(p.IsActive, postButton("/admin/positions/"+p.ID+"/deactivate", "Deactivate"))),
		)
	})
	return Page(state, c,
		table([]string{"Position", "Base salary", "Active", ""}, rows),
		html.Section(html.H2(Text("New position")),
			html.Form(html.Method("post"), html.Action("/admin/positions"),
				field("Name (Indonesian)", textInput("name_id", "", true)),
				field("Name (English)", textInput("name_en", "", false)),
				field("Department", selectInput("department", "", deps, "None")),
				field("Base salary", numberInput("base_salary", 0, "1000")),
				submit("Create"),
			),
		),
	)
}

func BanksPage(state access.State, c Chrome, list []org.Bank) Node {
	rows := Map(list, func(b org.Bank) Node {
		return html.Tr(
			html.Td(html.Form(html.Method("post"), html.Action("/admin/bank/"+b.ID),
				textInput("bank_name", b.Name, true),
				textInput("bank_code", b.Code, true),
				textInput("bank_logo", b.Logo, false),
				html.Button(html.Type("submit"), Text("Save")),
			)),
			html.Td(Text(yesNo(b.IsActive))),
			html.Td(If(b.IsActive, postButton("/admin/bank/"+b.ID+"/deactivate", "Deactivate"))),
		)
	})
	return Page(state, c,
		table([]string{"Bank", "Active", ""}, rows),
		html.Section(html.H2(Text("New bank")),
			html.Form(html.Method("post"), html.Action("/admin/bank"),
				field("Name", textInput("bank_name", "", true)),
				field("Code", textInput("bank_code", "", true)),
				field("Logo URL", textInput("bank_logo", "", false)),
				submit("Create"),
			),
		),
	)
}

type PaymentsData struct {
	Payments []payroll.Payment
	Totals   payroll.Totals
	Filter   payroll.Filter
	People   []profiles.Profile
}

func PaymentsPage(state access.State, c Chrome, d PaymentsData, loc *time.Location) Node {
	people := make([]choice, 0, len(d.People))
	for _, p := range d.People {
		people = append(people, choice{Value: p.ID, Label: p.Name + " (" + p.EmployeeID + ")"})
	}
	rows := Map(d.Payments, func(p payroll.Payment) Node {
		next := make([]string, 0, len(payroll.Statuses))
		for _, st := range payroll.Statuses {
			if payroll.CanTransition(p.Status, st) {
				next = append(next, st)
			}
		}
		return html.Tr(
			cells(p.EmployeeName, p.Department, payroll.FormatRupiah(p.Amount),
				formatDate(p.PeriodStart, loc)+" - "+formatDate(p.PeriodEnd, loc),
				p.Method, p.Status, formatDatePtr(p.PaymentDate, loc), p.Reference),
			html.Td(
				If(len(next) > 0, html.Form(html.Method("post"), html.Action("/admin/salary-payment/"+p.ID+"/status"), html.StyleAttr("display:inline"),
					selectInput("status", next[0], plainChoices(next), ""),
					html.Button(html.Type("submit"), Text("Update")),
				)),
				Text(" "),
				html.A(html.Href("/admin/salary-payment/"+p.ID+"/slip.pdf"), Text("Slip")),
			),
		)
	})
	return Page(state, c,
		html.P(Textf("Paid: %s. Pending: %d.", payroll.FormatRupiah(d.Totals.Paid), d.Totals.Pending)),
		html.Form(html.Method("get"), html.Action("/admin/salary-payment"),
			selectInput("user_id", d.Filter.UserID, people, "All employees"),
			selectInput("status", d.Filter.Status, plainChoices(payroll.Statuses), "All statuses"),
			html.Button(html.Type("submit"), Text("Filter")),
			Text(" "),
			html.A(html.Href(withQuery("/admin/salary-payment/export.csv", "user_id", d.Filter.UserID, "status", d.Filter.Status)), Text("Export CSV")),
		),
		table([]string{"Employee", "Department", "Amount", "Period", "Method", "Status", "Paid on", "Reference", ""}, rows),
		html.Section(html.H2(Text("New payment")),
			html.Form(html.Method("post"), html.Action("/admin/salary-payment"),
				field("Employee", selectInput("user_id", "", people, "Choose")),
				field("Amount", numberInput("amount", 0, "1")),
				field("Period start", typedInput("date", "period_start", "", true)),
				field("Period end", typedInput("date", "period_end", "", true)),
				field("Method", selectInput("method", payroll.MethodBankTransfer, plainChoices(payroll.Methods), "")),
				field("Reference", textInput("reference", "", false)),
				field("Notes", html.Textarea(html.Name("notes"))),
				submit("Create"),
			),
		),
	)
}

func LocationPage(state access.State, c Chrome, l attendance.Location) Node {
	return Page(state, c,
		html.Form(html.Method("post"), html.Action("/admin/location"),
			field("Name", textInput("name", l.Name, true)),
			field("Latitude", numberInput("latitude", l.Latitude, "any")),
			field("Longitude", numberInput("longitude", l.Longitude, "any")),
			field("Radius (m)", numberInput("radius", float64(l.RadiusMeters), "1")),
			field("Work starts", typedInput("time", "work_start", l.WorkStart, true)),
			field("Late tolerance (minutes)", numberInput("late_tolerance", float64(l.LateToleranceMinutes), "1")),
			submit("Save"),
		),
		If(!l.UpdatedAt.IsZero(), html.P(html.Small(Text("Last updated "+l.UpdatedAt.Format(time.RFC3339))))),
	)
}

type AttendanceData struct {
	Day      time.Time
	Records  []attendance.Record
	Warnings []attendance.Warning
}

func AttendancePage(state access.State, c Chrome, d AttendanceData, loc *time.Location) Node {
	day := d.Day.Format("2006-01-02")
	rows := Map(d.Records, func(r attendance.Record) Node {
		return html.Tr(cells(r.UserName, r.Department, r.Type, formatClock(r.Timestamp, loc), r.Status,
			fmt.Sprintf("%.0f m", r.DistanceMeters), lateLabel(r), fmt.Sprintf("%.2f", r.WorkHours), r.Notes))
	})
	warnings := Map(d.Warnings, func(w attendance.Warning) Node {
		return html.Tr(
			cells(w.UserName, w.Type, strconv.Itoa(w.Level), formatDate(w.IssueDate, loc), w.Description),
			html.Td(postButton("/admin/attendance/warnings/"+w.ID+"/resolve", "Resolve", hidden("date", day))),
		)
	})
	return Page(state, c,
		html.Form(html.Method("get"), html.Action("/admin/attendance"),
			typedInput("date", "date", day, false),
			html.Button(html.Type("submit"), Text("Show")),
			Text(" "),
			html.A(html.Href(withQuery("/admin/attendance/export.csv", "date", day)), Text("Export CSV")),
		),
		table([]string{"Employee", "Department", "Type", "Time", "Status", "Distance", "Late", "Hours", "Notes"}, rows),
		html.Section(html.H2(Text("Open warnings")),
			table([]string{"Employee", "Type", "Level", "Issued", "Description", ""}, warnings),
		),
	)
}
