package authhandler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"absensi/internal/domain/access"
	"absensi/internal/transport/http/middleware"
)

// HandleSessionEvents keeps a guard alive for an open page and streams its
// decisions for that page's path. The page follows "redirect" events and
// reloads itself on "render" when it was showing the loading placeholder.
func (h *Handler) HandleSessionEvents(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" || !strings.HasPrefix(path, "/") {
		path = access.PathEmployeeHome
	}

	source := h.Sources(w, r)
	rc := http.NewResponseController(w)
	// The stream outlives the server's write timeout.
	_ = rc.SetWriteDeadline(time.Time{})
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		slog.Warn("session stream unsupported", "err", err)
		return
	}

	h.Metrics.StreamOpened()
	defer h.Metrics.StreamClosed()

	ctx := r.Context()
	guard := access.NewGuard(source, h.Resolver, access.WithLogger(slog.Default().With(
		"requestId", middleware.GetRequestID(ctx),
	)))
	done := make(chan error, 1)
	go func() { done <- guard.Run(ctx) }()

	keepAlive := h.KeepAlive
	if keepAlive <= 0 {
		keepAlive = 25 * time.Second
	}
	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	var last *access.Decision
	for {
		select {
		case <-ctx.Done():
			<-done
			return
		case err := <-done:
			slog.Debug("session guard stopped", "err", err)
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			_ = rc.Flush()
		case state := <-guard.Updates():
			if state.Pending() {
				continue
			}
			decision := access.Decide(state, path)
			if last != nil && *last == decision {
				continue
			}
			last = &decision
			if err := writeEvent(w, decision); err != nil {
				return
			}
			_ = rc.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, d access.Decision) error {
	data := d.Target
	if d.Kind == access.Render {
		data = d.Tree.String()
	}
	_, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", d.Kind.String(), data)
	return err
}
