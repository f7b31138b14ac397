package middleware

import (
	"log/slog"
	"net/http"

	"absensi/internal/domain/access"
)

// SourceFunc builds the session source for the browser behind a request.
type SourceFunc func(w http.ResponseWriter, r *http.Request) access.SessionSource

type GuardConfig struct {
	Sources  SourceFunc
	Resolver access.RoleResolver
	// Loading renders the neutral placeholder while the state is pending.
	Loading http.Handler
	Observe func(access.State, access.Decision)
}

// Guard resolves who is asking and which role they hold, then either renders
// the requested view with the state in context or redirects. Views behind it
// never run for a request the admission table rejects.
func Guard(cfg GuardConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state := access.Resolve(r.Context(), cfg.Sources(w, r), cfg.Resolver)
			decision := access.Decide(state, r.URL.Path)
			if cfg.Observe != nil {
				cfg.Observe(state, decision)
			}
			w.Header().Set("Cache-Control", "no-store")

			switch decision.Kind {
			case access.Render:
				next.ServeHTTP(w, r.WithContext(access.WithState(r.Context(), state)))
			case access.Redirect:
				slog.Debug("guard redirect",
					"path", r.URL.Path,
					"target", decision.Target,
					"phase", state.Phase.String(),
					"requestId", GetRequestID(r.Context()),
				)
				http.Redirect(w, r, decision.Target, http.StatusSeeOther)
			default:
				if cfg.Loading != nil {
					cfg.Loading.ServeHTTP(w, r)
					return
				}
				w.WriteHeader(http.StatusAccepted)
			}
		})
	}
}
