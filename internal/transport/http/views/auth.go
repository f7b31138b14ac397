package views

import (
	. "maragu.dev/gomponents"
	html "maragu.dev/gomponents/html"

	"absensi/internal/domain/auth"
)

type LoginForm struct {
	Email   string
	NeedMFA bool
	Error   string
	Flash   string
	Signup  bool
}

func LoginPage(f LoginForm) Node {
	return Public("Sign in",
		banner(f.Flash, f.Error),
		html.Form(html.Method("post"), html.Action("/login"),
			field("Email", typedInput("email", "email", f.Email, true)),
			field("Password", html.Input(html.Type("password"), html.Name("password"), html.Required(), html.AutoComplete("current-password"))),
			If(f.NeedMFA, field("Authenticator code", html.Input(html.Type("text"), html.Name("mfa_code"), html.AutoComplete("one-time-code")))),
			submit("Sign in"),
		),
		If(f.Signup, html.P(Text("No account yet? "), html.A(html.Href("/register"), Text("Register")))),
	)
}

type RegisterForm struct {
	Name  string
	Email string
	Phone string
	Error string
}

func RegisterPage(f RegisterForm) Node {
	return Public("Register",
		banner("", f.Error),
		html.Form(html.Method("post"), html.Action("/register"),
			field("Full name", textInput("name", f.Name, true)),
			field("Email", typedInput("email", "email", f.Email, true)),
			field("Phone", typedInput("tel", "phone", f.Phone, false)),
			field("Password", html.Input(html.Type("password"), html.Name("password"), html.Required(), html.AutoComplete("new-password"))),
			field("Confirm password", html.Input(html.Type("password"), html.Name("confirm"), html.Required(), html.AutoComplete("new-password"))),
			submit("Create account"),
		),
		html.P(Text("Already registered? "), html.A(html.Href("/login"), Text("Sign in"))),
	)
}

// mfaSection shows either the enrolment secret or the enable form.
func mfaSection(setup *auth.MFASetup) Node {
	if setup == nil {
		return html.Section(
			html.H2(Text("Two-factor authentication")),
			postButton("/profile/mfa/setup", "Set up authenticator app"),
		)
	}
	return html.Section(
		html.H2(Text("Two-factor authentication")),
		html.P(Text("Add this secret to your authenticator app, then confirm with a code.")),
		html.P(html.Code(Text(setup.Secret))),
		html.P(html.Small(Text(setup.URL))),
		html.Form(html.Method("post"), html.Action("/profile/mfa/enable"),
			field("Code", textInput("code", "", true)),
			submit("Enable"),
		),
	)
}
