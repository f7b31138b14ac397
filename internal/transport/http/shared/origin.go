package shared

import (
	"net/http"
	"strings"

	"absensi/internal/domain/activity"
	"absensi/internal/transport/http/middleware"
)

// Origin describes where a request came from for the activity log.
func Origin(r *http.Request) activity.Origin {
	return activity.Origin{
		IP:        middleware.ClientIP(r.Context()),
		UserAgent: r.UserAgent(),
		RequestID: middleware.GetRequestID(r.Context()),
	}
}

// Back redirects to path with a banner code.
func Back(w http.ResponseWriter, r *http.Request, path, key, code string) {
	target := path
	if code != "" {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		target += sep + key + "=" + code
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
