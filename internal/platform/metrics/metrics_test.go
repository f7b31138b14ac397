package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorCounts(t *testing.T) {
	c := New()
	c.Record(http.MethodGet, "/admin/users", 200, 10*time.Millisecond)
	c.Record(http.MethodGet, "/admin/users", 200, 5*time.Millisecond)
	c.Record(http.MethodGet, "", 404, time.Millisecond)
	c.Decision("redirect", "admin")
	c.RoleLookup(nil)
	c.RoleLookup(errors.New("boom"))
	c.WarningsCreated(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.requests.WithLabelValues("GET", "/admin/users", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.requests.WithLabelValues("GET", "unmatched", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.decisions.WithLabelValues("redirect", "admin")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.roleLookups.WithLabelValues("error")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.warningsCreated))
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.Record("GET", "/", 200, time.Millisecond)
		c.Decision("render", "public")
		c.StreamOpened()
	})
}

func TestHandlerExposesMetrics(t *testing.T) {
	c := New()
	c.Decision("wait", "employee")
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `absensi_guard_decisions_total{decision="wait",tree="employee"} 1`)
}
