package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"absensi/internal/domain/access"
	"absensi/internal/platform/metrics"
)

type staticSource struct {
	session access.Session
	err     error
}

func (s staticSource) Current(context.Context) (access.Session, error) { return s.session, s.err }

func (s staticSource) Subscribe(context.Context) (<-chan access.Session, func()) {
	return nil, func() {}
}

func signedIn(id string) staticSource {
	return staticSource{session: access.Session{PrincipalID: id, SessionID: "s-" + id, ExpiresAt: time.Now().Add(time.Hour)}}
}

func rolesFor(m map[string]access.Role) access.RoleResolverFunc {
	return func(ctx context.Context, id string) (access.Role, error) {
		role, ok := m[id]
		if !ok {
			return "", errors.New("no profile")
		}
		return role, nil
	}
}

func guarded(src access.SessionSource, observe func(access.State, access.Decision)) http.Handler {
	view := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state := access.StateFromContext(r.Context())
		_, _ = w.Write([]byte("view:" + r.URL.Path + ":" + string(state.Role)))
	})
	return Guard(GuardConfig{
		Sources:  func(http.ResponseWriter, *http.Request) access.SessionSource { return src },
		Resolver: rolesFor(map[string]access.Role{"adm": access.RoleAdmin, "emp": access.RoleEmployee, "boss": access.RoleSupervisor}),
		Observe:  observe,
	})(view)
}

func TestGuardAdmissionTable(t *testing.T) {
	cases := []struct {
		name     string
		src      access.SessionSource
		path     string
		status   int
		location string
		body     string
	}{
		{name: "admin sees admin users", src: signedIn("adm"), path: "/admin/users", status: 200, body: "view:/admin/users:admin"},
		{name: "admin bounced from employee tree", src: signedIn("adm"), path: "/attendance", status: 303, location: "/admin"},
		{name: "employee sees history", src: signedIn("emp"), path: "/history", status: 200, body: "view:/history:karyawan"},
		{name: "employee bounced from admin tree", src: signedIn("emp"), path: "/admin/salary-payment", status: 303, location: "/"},
		{name: "signed in user leaves login", src: signedIn("emp"), path: "/login", status: 303, location: "/"},
		{name: "anonymous to login", src: staticSource{}, path: "/profile", status: 303, location: "/login"},
		{name: "anonymous sees login", src: staticSource{}, path: "/login", status: 200, body: "view:/login:"},
		{name: "fetch failure fails closed", src: staticSource{err: errors.New("boom")}, path: "/admin", status: 303, location: "/login"},
		{name: "missing profile denied", src: signedIn("ghost"), path: "/", status: 303, location: "/login"},
		{name: "supervisor denied", src: signedIn("boss"), path: "/admin", status: 303, location: "/login"},
		{name: "unknown path for employee", src: signedIn("emp"), path: "/nowhere", status: 303, location: "/"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			guarded(tc.src, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
			require.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.location, rec.Header().Get("Location"))
			if tc.body != "" {
				assert.Equal(t, tc.body, rec.Body.String())
			}
			assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
		})
	}
}

func TestGuardObservesDecision(t *testing.T) {
	var got access.Decision
	rec := httptest.NewRecorder()
	guarded(signedIn("emp"), func(_ access.State, d access.Decision) { got = d }).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, access.Redirect, got.Kind)
	assert.Equal(t, access.TreeAdmin, got.Tree)
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen, ip string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		ip = ClientIP(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.7:4000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "198.51.100.7", ip)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc")
	req.Header.Set("X-Forwarded-For", "203.0.113.1, 10.0.0.1")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "abc", seen)
	assert.Equal(t, "203.0.113.1", ip)
}

func TestRateLimiterThrottlesPostsPerIP(t *testing.T) {
	rl := NewRateLimiter(2, nil)
	handler := RequestID(rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	send := func(method, addr string) int {
		req := httptest.NewRequest(method, "/login", strings.NewReader("email=a"))
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusNoContent, send(http.MethodPost, "203.0.113.10:1"))
	assert.Equal(t, http.StatusNoContent, send(http.MethodPost, "203.0.113.10:2"))
	assert.Equal(t, http.StatusTooManyRequests, send(http.MethodPost, "203.0.113.10:3"))
	assert.Equal(t, http.StatusNoContent, send(http.MethodGet, "203.0.113.10:4"))
	assert.Equal(t, http.StatusNoContent, send(http.MethodPost, "203.0.113.11:1"))
}

func TestSecureHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecureHeaders(true)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, rec.Header().Get("Permissions-Policy"), "geolocation=(self)")
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestBodyLimit(t *testing.T) {
	handler := BodyLimit(4)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
		}
	}))
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("name=too-long"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestMetricsUseRoutePattern(t *testing.T) {
	c := metrics.New()
	r := chi.NewRouter()
	r.Use(Metrics(c))
	r.Get("/admin/salary-payment/{id}/slip", func(w http.ResponseWriter, _ *http.Request) {})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/admin/salary-payment/42/slip", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/admin/salary-payment/43/slip", nil))

	count := testutil.CollectAndCount(c.Registry(), "absensi_http_requests_total")
	assert.Equal(t, 1, count)
}
