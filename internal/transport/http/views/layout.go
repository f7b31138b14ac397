// Package views renders the server side HTML for the public, admin and
// employee trees.
package views

import (
	"net/http"
	"time"

	. "maragu.dev/gomponents"
	html "maragu.dev/gomponents/html"

	"absensi/internal/domain/access"
)

type navItem struct {
	Label string
	Href  string
	Key   string
}

var adminNav = []navItem{
	{Label: "Dashboard", Href: "/admin", Key: "dashboard"},
	{Label: "Employees", Href: "/admin/users", Key: "users"},
	{Label: "Departments", Href: "/admin/departments", Key: "departments"},
	{Label: "Positions", Href: "/admin/positions", Key: "positions"},
	{Label: "Salary payments", Href: "/admin/salary-payment", Key: "salary-payment"},
	{Label: "Office location", Href: "/admin/location", Key: "location"},
	{Label: "Banks", Href: "/admin/bank", Key: "bank"},
	{Label: "Attendance", Href: "/admin/attendance", Key: "attendance"},
}

var employeeNav = []navItem{
	{Label: "Dashboard", Href: "/", Key: "dashboard"},
	{Label: "Check in / out", Href: "/attendance", Key: "attendance"},
	{Label: "Profile", Href: "/profile", Key: "profile"},
	{Label: "History", Href: "/history", Key: "history"},
	{Label: "Activity", Href: "/activity", Key: "activity"},
}

// Chrome is what every signed in page shows around its content.
type Chrome struct {
	Title    string
	Active   string
	UserName string
	Flash    string
	Error    string
}

// Render writes node as an HTML response.
func Render(w http.ResponseWriter, status int, node Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = node.Render(w)
}

func document(title string, bodyAttrs []Node, body ...Node) Node {
	return html.Doctype(html.HTML(
		html.Lang("id"),
		html.Head(
			html.Meta(html.Charset("utf-8")),
			html.Meta(html.Name("viewport"), html.Content("width=device-width, initial-scale=1")),
			html.TitleEl(Text(title+" | Absensi")),
			html.Link(html.Rel("icon"), html.Href("data:,")),
			html.Script(html.Src("/static/session.js"), html.Defer()),
		),
		html.Body(Group(bodyAttrs), Group(body)),
	))
}

// Page wraps content in the navigation of the tree the state admits.
func Page(state access.State, c Chrome, body ...Node) Node {
	items := employeeNav
	if state.Admitted(access.RoleAdmin) {
		items = adminNav
	}
	nav := make([]Node, 0, len(items))
	for _, item := range items {
		attrs := []Node{html.Href(item.Href)}
		if item.Key == c.Active {
			attrs = append(attrs, html.Class("active"), html.Aria("current", "page"))
		}
		nav = append(nav, html.Li(html.A(append(attrs, Text(item.Label))...)))
	}

	who := c.UserName
	if who == "" {
		who = state.Session.PrincipalID
	}

	return document(c.Title, nil,
		html.Header(
			html.Strong(Text("Absensi")),
			html.Nav(html.Ul(Group(nav))),
			html.Div(
				html.Small(Text("Signed in as "+who+" ("+state.Role.String()+")")),
				html.Form(html.Method("post"), html.Action("/logout"),
					html.Button(html.Type("submit"), Text("Sign out")),
				),
			),
		),
		html.Main(
			html.H1(Text(c.Title)),
			banner(c.Flash, c.Error),
			Group(body),
		),
	)
}

// Public wraps the login and register forms.
func Public(title string, body ...Node) Node {
	return document(title, nil, html.Main(html.H1(Text(title)), Group(body)))
}

// Loading is the neutral placeholder shown while the session or role is
// still being determined. The session stream reloads it once settled.
func Loading() Node {
	return document("Loading", []Node{Attr("data-pending", "true")},
		html.Main(html.P(html.Role("status"), Text("Loading..."))),
	)
}

// ErrorPage reports a failure that left nothing to render.
func ErrorPage(title, message, back string) Node {
	return document(title, nil, html.Main(
		html.H1(Text(title)),
		html.P(html.Role("alert"), Text(message)),
		html.P(html.A(html.Href(back), Text("Back"))),
	))
}

func banner(flash, errMsg string) Node {
	return Group{
		If(flash != "", html.P(html.Class("flash"), html.Role("status"), Text(flash))),
		If(errMsg != "", html.P(html.Class("error"), html.Role("alert"), Text(errMsg))),
	}
}

func formatDate(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return "-"
	}
	return t.In(orUTC(loc)).Format("02 Jan 2006")
}

func formatDatePtr(t *time.Time, loc *time.Location) string {
	if t == nil {
		return "-"
	}
	return formatDate(*t, loc)
}

func formatClock(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return "-"
	}
	return t.In(orUTC(loc)).Format("15:04")
}

func formatDateTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return "-"
	}
	return t.In(orUTC(loc)).Format("02 Jan 2006 15:04")
}

func orUTC(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}
