package authhandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"absensi/internal/domain/access"
	"absensi/internal/domain/activity"
	"absensi/internal/domain/auth"
	"absensi/internal/platform/metrics"
	"absensi/internal/transport/http/api"
	"absensi/internal/transport/http/middleware"
	"absensi/internal/transport/http/session"
	"absensi/internal/transport/http/shared"
	"absensi/internal/transport/http/views"
)

type authService interface {
	Login(ctx context.Context, email, password, mfaCode, deviceID string) (auth.LoginResult, error)
	Register(ctx context.Context, reg auth.Registration) (string, error)
	Logout(ctx context.Context, token, deviceID string) error
	Refresh(ctx context.Context, token, deviceID string) (auth.LoginResult, error)
}

type recorder interface {
	Record(ctx context.Context, userID, action string, origin activity.Origin, details any) error
}

type Handler struct {
	Auth        authService
	Activity    recorder
	Sources     middleware.SourceFunc
	Resolver    access.RoleResolver
	Metrics     *metrics.Collector
	Secure      bool
	AllowSignup bool
	// KeepAlive is the comment interval on idle session streams.
	KeepAlive time.Duration
}

func NewHandler(svc authService, rec recorder, sources middleware.SourceFunc, resolver access.RoleResolver, m *metrics.Collector, secure, allowSignup bool) *Handler {
	return &Handler{
		Auth:        svc,
		Activity:    rec,
		Sources:     sources,
		Resolver:    resolver,
		Metrics:     m,
		Secure:      secure,
		AllowSignup: allowSignup,
		KeepAlive:   25 * time.Second,
	}
}

func (h *Handler) record(r *http.Request, userID, action string, details any) {
	if h.Activity == nil || userID == "" {
		return
	}
	if err := h.Activity.Record(r.Context(), userID, action, shared.Origin(r), details); err != nil {
		slog.Warn("activity record failed", "action", action, "userId", userID, "err", err)
	}
}

func (h *Handler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	flash, errMsg := views.Messages(r.URL.Query())
	views.Render(w, http.StatusOK, views.LoginPage(views.LoginForm{Flash: flash, Error: errMsg, Signup: h.AllowSignup}))
}

func (h *Handler) HandleLoginForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		views.Render(w, http.StatusBadRequest, views.LoginPage(views.LoginForm{Error: "Unable to read the form.", Signup: h.AllowSignup}))
		return
	}
	email := strings.TrimSpace(r.PostFormValue("email"))
	form := views.LoginForm{Email: email, Signup: h.AllowSignup}

	device := session.EnsureDevice(w, r, h.Secure)
	result, err := h.Auth.Login(r.Context(), email, r.PostFormValue("password"), r.PostFormValue("mfa_code"), device)
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrMFARequired):
		form.NeedMFA = true
		form.Error = "Enter the code from your authenticator app."
		views.Render(w, http.StatusUnauthorized, views.LoginPage(form))
		return
	case errors.Is(err, auth.ErrMFAInvalid):
		form.NeedMFA = true
		form.Error = "The authenticator code was not accepted."
		views.Render(w, http.StatusUnauthorized, views.LoginPage(form))
		return
	case errors.Is(err, auth.ErrInvalidCredentials):
		form.Error = "Email or password is incorrect."
		views.Render(w, http.StatusUnauthorized, views.LoginPage(form))
		return
	default:
		slog.Error("login failed", "err", err, "requestId", middleware.GetRequestID(r.Context()))
		form.Error = "Sign in is unavailable right now."
		views.Render(w, http.StatusInternalServerError, views.LoginPage(form))
		return
	}

	session.SetToken(w, result.Token, result.Session.ExpiresAt, h.Secure)
	h.record(r, result.Session.PrincipalID, activity.ActionLogin, map[string]string{"channel": "web"})
	// The guard sends the new session on to the home of its role.
	http.Redirect(w, r, access.PathEmployeeHome, http.StatusSeeOther)
}

func (h *Handler) HandleRegisterPage(w http.ResponseWriter, r *http.Request) {
	if !h.AllowSignup {
		http.Redirect(w, r, access.PathLogin, http.StatusSeeOther)
		return
	}
	views.Render(w, http.StatusOK, views.RegisterPage(views.RegisterForm{}))
}

func (h *Handler) HandleRegisterForm(w http.ResponseWriter, r *http.Request) {
	if !h.AllowSignup {
		http.Redirect(w, r, access.PathLogin, http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		views.Render(w, http.StatusBadRequest, views.RegisterPage(views.RegisterForm{Error: "Unable to read the form."}))
		return
	}
	form := views.RegisterForm{
		Name:  strings.TrimSpace(r.PostFormValue("name")),
		Email: strings.TrimSpace(r.PostFormValue("email")),
		Phone: strings.TrimSpace(r.PostFormValue("phone")),
	}
	password := r.PostFormValue("password")

	v := shared.NewValidator()
	v.Required("name", form.Name)
	v.Required("email", form.Email)
	v.Required("password", password)
	if password != r.PostFormValue("confirm") {
		v.Add("confirm", "does not match the password")
	}
	if password != "" {
		if err := auth.ValidatePassword(password); err != nil {
			v.Add("password", err.Error())
		}
	}
	if v.HasIssues() {
		form.Error = v.Summary()
		views.Render(w, http.StatusBadRequest, views.RegisterPage(form))
		return
	}

	userID, err := h.Auth.Register(r.Context(), auth.Registration{Name: form.Name, Email: form.Email, Phone: form.Phone, Password: password})
	if err != nil {
		status := http.StatusBadRequest
		form.Error = "Registration failed: " + err.Error()
		if errors.Is(err, auth.ErrEmailTaken) {
			status = http.StatusConflict
			form.Error = "That email is already registered."
		}
		views.Render(w, status, views.RegisterPage(form))
		return
	}
	h.record(r, userID, activity.ActionRegister, nil)
	shared.Back(w, r, access.PathLogin, "ok", "registered")
}

func (h *Handler) HandleLogoutForm(w http.ResponseWriter, r *http.Request) {
	h.logout(w, r)
	http.Redirect(w, r, access.PathLogin, http.StatusSeeOther)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if current, err := h.Sources(w, r).Current(r.Context()); err == nil && current.Valid() {
		h.record(r, current.PrincipalID, activity.ActionLogout, nil)
	}
	if err := h.Auth.Logout(r.Context(), session.Token(r), session.Device(r)); err != nil {
		slog.Warn("logout failed", "err", err, "requestId", middleware.GetRequestID(r.Context()))
	}
	session.ClearToken(w, h.Secure)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	MFACode  string `json:"mfaCode"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload loginRequest
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	v := shared.NewValidator()
	v.Required("email", payload.Email)
	v.Required("password", payload.Password)
	if v.Reject(w, reqID) {
		return
	}

	device := session.EnsureDevice(w, r, h.Secure)
	result, err := h.Auth.Login(r.Context(), payload.Email, payload.Password, payload.MFACode, device)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrMFARequired):
			api.Fail(w, http.StatusUnauthorized, "mfa_required", "mfa code required", reqID)
		case errors.Is(err, auth.ErrMFAInvalid):
			api.Fail(w, http.StatusUnauthorized, "mfa_invalid", "invalid mfa code", reqID)
		case errors.Is(err, auth.ErrInvalidCredentials):
			api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", reqID)
		default:
			slog.Error("login failed", "err", err, "requestId", reqID)
			api.Fail(w, http.StatusInternalServerError, "login_failed", "failed to sign in", reqID)
		}
		return
	}

	session.SetToken(w, result.Token, result.Session.ExpiresAt, h.Secure)
	h.record(r, result.Session.PrincipalID, activity.ActionLogin, map[string]string{"channel": "api"})
	api.Success(w, tokenResponse{Token: result.Token, UserID: result.Session.PrincipalID, ExpiresAt: result.Session.ExpiresAt}, reqID)
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.logout(w, r)
	api.Success(w, map[string]string{"status": "signed_out"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	result, err := h.Auth.Refresh(r.Context(), session.Token(r), session.Device(r))
	if err != nil {
		if errors.Is(err, auth.ErrNoSession) {
			session.ClearToken(w, h.Secure)
			api.Fail(w, http.StatusUnauthorized, "no_session", "session expired", reqID)
			return
		}
		slog.Error("refresh failed", "err", err, "requestId", reqID)
		api.Fail(w, http.StatusInternalServerError, "refresh_failed", "failed to refresh session", reqID)
		return
	}
	session.SetToken(w, result.Token, result.Session.ExpiresAt, h.Secure)
	api.Success(w, tokenResponse{Token: result.Token, UserID: result.Session.PrincipalID, ExpiresAt: result.Session.ExpiresAt}, reqID)
}

type sessionResponse struct {
	Phase       string     `json:"phase"`
	PrincipalID string     `json:"principalId,omitempty"`
	Role        string     `json:"role,omitempty"`
	Home        string     `json:"home"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
}

// HandleSession reports the settled guard state of the caller.
func (h *Handler) HandleSession(w http.ResponseWriter, r *http.Request) {
	state := access.Resolve(r.Context(), h.Sources(w, r), h.Resolver)
	w.Header().Set("Cache-Control", "no-store")
	resp := sessionResponse{Phase: state.Phase.String(), Home: access.PathLogin}
	if state.Session.Valid() {
		resp.PrincipalID = state.Session.PrincipalID
		if !state.Session.ExpiresAt.IsZero() {
			expires := state.Session.ExpiresAt
			resp.ExpiresAt = &expires
		}
	}
	if state.Phase == access.PhaseAdmitted {
		resp.Role = state.Role.String()
		resp.Home = state.Role.Home()
	}
	api.Success(w, resp, middleware.GetRequestID(r.Context()))
}
