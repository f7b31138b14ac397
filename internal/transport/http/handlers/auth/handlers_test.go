package authhandler

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"absensi/internal/domain/access"
	"absensi/internal/domain/activity"
	"absensi/internal/domain/auth"
	"absensi/internal/transport/http/middleware"
	"absensi/internal/transport/http/session"
)

type fakeAuth struct {
	loginErr    error
	registerErr error
	refreshErr  error
	registered  []auth.Registration
	loggedOut   []string
}

func (f *fakeAuth) Login(_ context.Context, email, password, mfaCode, deviceID string) (auth.LoginResult, error) {
	if f.loginErr != nil {
		return auth.LoginResult{}, f.loginErr
	}
	return auth.LoginResult{
		Token:   "signed-token",
		Session: access.Session{PrincipalID: "user-1", SessionID: "s-1", ExpiresAt: time.Now().Add(time.Hour)},
	}, nil
}

func (f *fakeAuth) Register(_ context.Context, reg auth.Registration) (string, error) {
	if f.registerErr != nil {
		return "", f.registerErr
	}
	f.registered = append(f.registered, reg)
	return "user-2", nil
}

func (f *fakeAuth) Logout(_ context.Context, token, deviceID string) error {
	f.loggedOut = append(f.loggedOut, token)
	return nil
}

func (f *fakeAuth) Refresh(_ context.Context, token, deviceID string) (auth.LoginResult, error) {
	if f.refreshErr != nil {
		return auth.LoginResult{}, f.refreshErr
	}
	return auth.LoginResult{Token: "rotated", Session: access.Session{PrincipalID: "user-1", SessionID: "s-2"}}, nil
}

type fakeRecorder struct {
	mu      sync.Mutex
	actions []string
}

func (f *fakeRecorder) Record(_ context.Context, userID, action string, _ activity.Origin, _ any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, userID+":"+action)
	return nil
}

// liveSource is a session source whose subscription the test drives.
type liveSource struct {
	current access.Session
	events  chan access.Session
}

func (s *liveSource) Current(context.Context) (access.Session, error) { return s.current, nil }

func (s *liveSource) Subscribe(context.Context) (<-chan access.Session, func()) {
	return s.events, func() {}
}

func roles(m map[string]access.Role) access.RoleResolverFunc {
	return func(_ context.Context, id string) (access.Role, error) {
		if role, ok := m[id]; ok {
			return role, nil
		}
		return "", errors.New("no profile")
	}
}

func newHandler(svc *fakeAuth, rec *fakeRecorder, src access.SessionSource) *Handler {
	sources := func(http.ResponseWriter, *http.Request) access.SessionSource { return src }
	h := NewHandler(svc, rec, sources, roles(map[string]access.Role{"user-1": access.RoleEmployee, "boss": access.RoleAdmin}), nil, false, true)
	h.KeepAlive = time.Hour
	return h
}

func postForm(target string, values url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func TestLoginFormOutcomes(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{name: "success", wantStatus: http.StatusSeeOther},
		{name: "bad password", err: auth.ErrInvalidCredentials, wantStatus: http.StatusUnauthorized, wantBody: "incorrect"},
		{name: "mfa required", err: auth.ErrMFARequired, wantStatus: http.StatusUnauthorized, wantBody: `name="mfa_code"`},
		{name: "mfa invalid", err: auth.ErrMFAInvalid, wantStatus: http.StatusUnauthorized, wantBody: "not accepted"},
		{name: "store down", err: errors.New("db gone"), wantStatus: http.StatusInternalServerError, wantBody: "unavailable"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := &fakeRecorder{}
			h := newHandler(&fakeAuth{loginErr: tc.err}, rec, &liveSource{})
			w := httptest.NewRecorder()
			h.HandleLoginForm(w, postForm("/login", url.Values{"email": {"a@b.c"}, "password": {"x"}}))

			assert.Equal(t, tc.wantStatus, w.Code)
			if tc.wantBody != "" {
				assert.Contains(t, w.Body.String(), tc.wantBody)
				assert.Empty(t, rec.actions)
				return
			}
			assert.Equal(t, "/", w.Header().Get("Location"))
			var names []string
			for _, c := range w.Result().Cookies() {
				names = append(names, c.Name)
			}
			assert.ElementsMatch(t, []string{session.DeviceCookie, session.TokenCookie}, names)
			assert.Equal(t, []string{"user-1:" + activity.ActionLogin}, rec.actions)
		})
	}
}

func TestRegisterForm(t *testing.T) {
	valid := url.Values{"name": {"Sari"}, "email": {"sari@example.com"}, "password": {"Stronger123"}, "confirm": {"Stronger123"}}

	t.Run("mismatched confirmation", func(t *testing.T) {
		svc := &fakeAuth{}
		bad := url.Values{"name": {"Sari"}, "email": {"sari@example.com"}, "password": {"Stronger123"}, "confirm": {"other"}}
		w := httptest.NewRecorder()
		newHandler(svc, &fakeRecorder{}, &liveSource{}).HandleRegisterForm(w, postForm("/register", bad))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "does not match")
		assert.Empty(t, svc.registered)
	})

	t.Run("taken email", func(t *testing.T) {
		w := httptest.NewRecorder()
		newHandler(&fakeAuth{registerErr: auth.ErrEmailTaken}, &fakeRecorder{}, &liveSource{}).HandleRegisterForm(w, postForm("/register", valid))
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("success", func(t *testing.T) {
		svc := &fakeAuth{}
		w := httptest.NewRecorder()
		newHandler(svc, &fakeRecorder{}, &liveSource{}).HandleRegisterForm(w, postForm("/register", valid))
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/login?ok=registered", w.Header().Get("Location"))
		require.Len(t, svc.registered, 1)
		assert.Equal(t, "Sari", svc.registered[0].Name)
	})

	t.Run("signup disabled", func(t *testing.T) {
		h := newHandler(&fakeAuth{}, &fakeRecorder{}, &liveSource{})
		h.AllowSignup = false
		w := httptest.NewRecorder()
		h.HandleRegisterForm(w, postForm("/register", valid))
		assert.Equal(t, "/login", w.Header().Get("Location"))
	})
}

func TestLogoutClearsCookieAndRecords(t *testing.T) {
	svc := &fakeAuth{}
	rec := &fakeRecorder{}
	h := newHandler(svc, rec, &liveSource{current: access.Session{PrincipalID: "user-1"}})
	r := httptest.NewRequest(http.MethodPost, "/logout", nil)
	r.AddCookie(&http.Cookie{Name: session.TokenCookie, Value: "tok"})
	w := httptest.NewRecorder()
	h.HandleLogoutForm(w, r)

	assert.Equal(t, "/login", w.Header().Get("Location"))
	assert.Equal(t, []string{"tok"}, svc.loggedOut)
	assert.Equal(t, []string{"user-1:" + activity.ActionLogout}, rec.actions)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestJSONLogin(t *testing.T) {
	h := newHandler(&fakeAuth{}, &fakeRecorder{}, &liveSource{})

	w := httptest.NewRecorder()
	h.HandleLogin(w, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":""}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "validation_error")

	w = httptest.NewRecorder()
	h.HandleLogin(w, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"a@b.c","password":"x"}`)))
	require.Equal(t, http.StatusOK, w.Code)
	var env struct {
		Data tokenResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, "signed-token", env.Data.Token)
	assert.Equal(t, "user-1", env.Data.UserID)
}

func TestRefreshWithoutSession(t *testing.T) {
	h := newHandler(&fakeAuth{refreshErr: auth.ErrNoSession}, &fakeRecorder{}, &liveSource{})
	w := httptest.NewRecorder()
	h.HandleRefresh(w, httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "no_session")
}

func TestSessionEndpoint(t *testing.T) {
	tests := []struct {
		name      string
		session   access.Session
		wantPhase string
		wantHome  string
	}{
		{name: "anonymous", wantPhase: "unauthenticated", wantHome: "/login"},
		{name: "employee", session: access.Session{PrincipalID: "user-1"}, wantPhase: "admitted", wantHome: "/"},
		{name: "admin", session: access.Session{PrincipalID: "boss"}, wantPhase: "admitted", wantHome: "/admin"},
		{name: "no profile", session: access.Session{PrincipalID: "ghost"}, wantPhase: "denied", wantHome: "/login"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHandler(&fakeAuth{}, &fakeRecorder{}, &liveSource{current: tc.session})
			w := httptest.NewRecorder()
			h.HandleSession(w, httptest.NewRequest(http.MethodGet, "/api/v1/session", nil))
			var env struct {
				Data sessionResponse `json:"data"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
			assert.Equal(t, tc.wantPhase, env.Data.Phase)
			assert.Equal(t, tc.wantHome, env.Data.Home)
		})
	}
}

type sseEvent struct {
	name string
	data string
}

func readEvents(t *testing.T, sc *bufio.Scanner, out chan<- sseEvent) {
	t.Helper()
	var ev sseEvent
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			ev.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			ev.data = strings.TrimPrefix(line, "data: ")
		case line == "" && ev.name != "":
			out <- ev
			ev = sseEvent{}
		}
	}
	close(out)
}

func nextEvent(t *testing.T, events <-chan sseEvent) sseEvent {
	t.Helper()
	select {
	case ev, ok := <-events:
		require.True(t, ok, "stream closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for session event")
		return sseEvent{}
	}
}

func TestSessionEventsFollowSignInElsewhere(t *testing.T) {
	src := &liveSource{events: make(chan access.Session, 4)}
	h := newHandler(&fakeAuth{}, &fakeRecorder{}, src)
	srv := httptest.NewServer(middleware.RequestID(http.HandlerFunc(h.HandleSessionEvents)))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/session/events?path=/login", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := make(chan sseEvent, 4)
	go readEvents(t, bufio.NewScanner(resp.Body), events)

	assert.Equal(t, sseEvent{name: "render", data: "public"}, nextEvent(t, events))

	// Another tab of the same browser signs in as an employee.
	src.events <- access.Session{PrincipalID: "user-1"}
	assert.Equal(t, sseEvent{name: "redirect", data: "/"}, nextEvent(t, events))
}

func TestSessionEventsRedirectSignedOutViewer(t *testing.T) {
	src := &liveSource{current: access.Session{PrincipalID: "boss"}, events: make(chan access.Session, 4)}
	h := newHandler(&fakeAuth{}, &fakeRecorder{}, src)
	srv := httptest.NewServer(http.HandlerFunc(h.HandleSessionEvents))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/session/events?path=/admin/users", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	events := make(chan sseEvent, 4)
	go readEvents(t, bufio.NewScanner(resp.Body), events)

	assert.Equal(t, sseEvent{name: "render", data: "admin"}, nextEvent(t, events))

	src.events <- access.Session{}
	assert.Equal(t, sseEvent{name: "redirect", data: "/login"}, nextEvent(t, events))
}
