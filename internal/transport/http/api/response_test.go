package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeShapes(t *testing.T) {
	rec := httptest.NewRecorder()
	Success(rec, map[string]string{"role": "admin"}, "req-1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":{"role":"admin"},"requestId":"req-1"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	FailWithDetails(rec, http.StatusBadRequest, "validation_error", "bad", map[string]int{"n": 1}, "req-2")
	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.False(t, env.Success)
	assert.Equal(t, "validation_error", env.Error.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	var dst struct {
		Email string `json:"email"`
	}
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a","role":"admin"}`))
	assert.Error(t, Decode(r, &dst))
}
