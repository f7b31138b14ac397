// Package session carries the browser's session token and device id between
// requests.
package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	TokenCookie  = "absensi_session"
	DeviceCookie = "absensi_device"

	deviceMaxAge = 400 * 24 * time.Hour
)

// Token returns the bearer token from the Authorization header or, failing
// that, the session cookie.
func Token(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "bearer") {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(TokenCookie); err == nil {
		return c.Value
	}
	return ""
}

// Device returns the device id cookie, if the browser has one.
func Device(r *http.Request) string {
	if c, err := r.Cookie(DeviceCookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}
	return ""
}

// EnsureDevice returns the browser's device id, issuing one when missing.
func EnsureDevice(w http.ResponseWriter, r *http.Request, secure bool) string {
	if id := Device(r); id != "" {
		return id
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     DeviceCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(deviceMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	r.AddCookie(&http.Cookie{Name: DeviceCookie, Value: id})
	return id
}

func SetToken(w http.ResponseWriter, token string, expires time.Time, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearToken(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
