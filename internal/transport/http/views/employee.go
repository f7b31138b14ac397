package views

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	. "maragu.dev/gomponents"
	html "maragu.dev/gomponents/html"

	"absensi/internal/domain/access"
	"absensi/internal/domain/activity"
	"absensi/internal/domain/attendance"
	"absensi/internal/domain/auth"
	"absensi/internal/domain/org"
	"absensi/internal/domain/payroll"
	"absensi/internal/domain/profiles"
	"absensi/internal/domain/reports"
)

func EmployeeDashboard(state access.State, c Chrome, d reports.EmployeeDashboard, loc *time.Location) Node {
	m := d.Month
	payment := html.P(html.Em(Text("No salary payments yet.")))
	if p := d.LatestPayment; p != nil {
		payment = html.Dl(
			html.Dt(Text("Amount")), html.Dd(Text(payroll.FormatRupiah(p.Amount))),
			html.Dt(Text("Period")), html.Dd(Text(formatDate(p.PeriodStart, loc)+" - "+formatDate(p.PeriodEnd, loc))),
			html.Dt(Text("Status")), html.Dd(Text(p.Status)),
			html.Dt(Text("Paid on")), html.Dd(Text(formatDatePtr(p.PaymentDate, loc))),
		)
	}
	return Page(state, c,
		html.Section(html.H2(Text("Today")), todayStatus(d.Today, loc), html.P(html.A(html.Href("/attendance"), Text("Go to check in / out")))),
		html.Section(html.H2(Text("This month")), html.Dl(
			html.Dt(Text("Days present")), html.Dd(Text(strconv.Itoa(m.Present))),
			html.Dt(Text("On time")), html.Dd(Text(strconv.Itoa(m.OnTime))),
			html.Dt(Text("Late")), html.Dd(Text(strconv.Itoa(m.Late))),
			html.Dt(Text("Failed attempts")), html.Dd(Text(strconv.Itoa(m.Failed))),
			html.Dt(Text("Hours worked")), html.Dd(Text(fmt.Sprintf("%.1f", m.TotalHours))),
			html.Dt(Text("Average hours")), html.Dd(Text(fmt.Sprintf("%.1f", m.AverageHours))),
		)),
		html.Section(html.H2(Text("Latest salary")), payment),
	)
}

func todayStatus(t attendance.Today, loc *time.Location) Node {
	in, out := "not yet", "not yet"
	if t.CheckIn != nil {
		in = formatClock(t.CheckIn.Timestamp, loc)
		if t.CheckIn.IsLate {
			in += fmt.Sprintf(" (late %d min)", t.CheckIn.LateMinutes)
		}
	}
	if t.CheckOut != nil {
		out = fmt.Sprintf("%s (%.2f h)", formatClock(t.CheckOut.Timestamp, loc), t.CheckOut.WorkHours)
	}
	return html.Dl(
		html.Dt(Text("Check in")), html.Dd(Text(in)),
		html.Dt(Text("Check out")), html.Dd(Text(out)),
	)
}

type CheckInData struct {
	Today  attendance.Today
	Office *attendance.Location
	Last   *attendance.Record
}

func CheckInPage(state access.State, c Chrome, d CheckInData, loc *time.Location) Node {
	next := attendance.TypeCheckIn
	label := "Check in"
	if d.Today.CheckIn != nil {
		next, label = attendance.TypeCheckOut, "Check out"
	}
	done := d.Today.CheckIn != nil && d.Today.CheckOut != nil

	var office Node = html.P(html.Role("alert"), Text("The office location has not been configured yet."))
	if d.Office != nil {
		office = html.P(Textf("%s: within %d m of %.6f, %.6f. Work starts %s, %d minutes tolerance.",
			d.Office.Name, d.Office.RadiusMeters, d.Office.Latitude, d.Office.Longitude, d.Office.WorkStart, d.Office.LateToleranceMinutes))
	}

	var last Node
	if d.Last != nil {
		last = html.Section(html.H2(Text("Last attempt")), html.Dl(
			html.Dt(Text("Type")), html.Dd(Text(d.Last.Type)),
			html.Dt(Text("Status")), html.Dd(Text(d.Last.Status)),
			html.Dt(Text("Distance")), html.Dd(Text(fmt.Sprintf("%.0f m", d.Last.DistanceMeters))),
			html.Dt(Text("Time")), html.Dd(Text(formatClock(d.Last.Timestamp, loc))),
		))
	}

	return Page(state, c,
		todayStatus(d.Today, loc),
		office,
		If(done, html.P(Text("You have checked in and out today."))),
		If(!done && d.Office != nil, html.Form(html.ID("attendance-form"), html.Method("post"), html.Action("/attendance"),
			hidden("type", next),
			html.P(html.ID("geo-status"), html.Role("status"), Text("Finding your location...")),
			field("Latitude", html.Input(html.Type("number"), html.Name("latitude"), html.Step("any"), html.Required())),
			field("Longitude", html.Input(html.Type("number"), html.Name("longitude"), html.Step("any"), html.Required())),
			field("Notes", html.Textarea(html.Name("notes"))),
			submit(label),
		)),
		last,
		html.Script(html.Src("/static/attendance.js"), html.Defer()),
	)
}

type ProfileData struct {
	Profile profiles.Profile
	Banks   []org.Bank
	MFA     *auth.MFASetup
}

func ProfilePage(state access.State, c Chrome, d ProfileData, loc *time.Location) Node {
	p := d.Profile
	banks := make([]choice, 0, len(d.Banks))
	for _, b := range d.Banks {
		banks = append(banks, choice{Value: b.ID, Label: b.Name})
	}
	return Page(state, c,
		html.Dl(
			html.Dt(Text("Email")), html.Dd(Text(p.Email)),
			html.Dt(Text("Employee ID")), html.Dd(Text(p.EmployeeID)),
			html.Dt(Text("Department")), html.Dd(Text(p.Department)),
			html.Dt(Text("Position")), html.Dd(Text(p.PositionName)),
			html.Dt(Text("Joined")), html.Dd(Text(formatDatePtr(p.JoinDate, loc))),
		),
		html.Form(html.Method("post"), html.Action("/profile"),
			field("Full name", textInput("full_name", p.FullName, false)),
			field("Phone", typedInput("tel", "phone", p.Phone, false)),
			field("Bank", selectInput("bank_id", p.BankID, banks, "None")),
			field("Account number", textInput("bank_account_number", p.BankAccountNumber, false)),
			field("Account holder", textInput("bank_account_name", p.BankAccountName, false)),
			submit("Save"),
		),
		mfaSection(d.MFA),
	)
}

type HistoryData struct {
	Month   time.Time
	Records []attendance.Record
	Summary attendance.MonthSummary
}

func HistoryPage(state access.State, c Chrome, d HistoryData, loc *time.Location) Node {
	rows := Map(d.Records, func(r attendance.Record) Node {
		return html.Tr(cells(formatDate(r.Timestamp, loc), r.Type, formatClock(r.Timestamp, loc), r.Status,
			fmt.Sprintf("%.0f m", r.DistanceMeters), lateLabel(r), fmt.Sprintf("%.2f", r.WorkHours)))
	})
	s := d.Summary
	return Page(state, c,
		html.Form(html.Method("get"), html.Action("/history"),
			typedInput("month", "month", d.Month.Format("2006-01"), false),
			html.Button(html.Type("submit"), Text("Show")),
		),
		html.P(Textf("%d days present, %d on time, %d late, %.1f hours.", s.Present, s.OnTime, s.Late, s.TotalHours)),
		table([]string{"Date", "Type", "Time", "Status", "Distance", "Late", "Hours"}, rows),
	)
}

type ActivityData struct {
	Entries []activity.Entry
	// Newer and Older are the pager links; empty hides them.
	Newer string
	Older string
}

func ActivityPage(state access.State, c Chrome, d ActivityData, loc *time.Location) Node {
	rows := Map(d.Entries, func(e activity.Entry) Node {
		return html.Tr(cells(formatDateTime(e.CreatedAt, loc), e.Action, describe(e.Details), e.IP))
	})
	return Page(state, c,
		table([]string{"When", "Action", "Details", "IP"}, rows),
		html.P(
			If(d.Newer != "", html.A(html.Href(d.Newer), Text("Newer"))),
			If(d.Newer != "" && d.Older != "", Text(" ")),
			If(d.Older != "", html.A(html.Href(d.Older), Text("Older"))),
		),
	)
}

// ActivityLink is the activity page at offset.
func ActivityLink(offset int) string {
	return withQuery("/activity", "offset", strconv.Itoa(offset))
}

// describe flattens stored activity details into a short line.
func describe(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return string(raw)
	}
	out := ""
	for _, k := range sortedKeys(fields) {
		if out != "" {
			out += ", "
		}
		out += fmt.Sprintf("%s: %v", k, fields[k])
	}
	return out
}
