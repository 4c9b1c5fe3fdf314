package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"dompet/internal/auth"
	"dompet/internal/core"
	"dompet/internal/fetch"
	"dompet/internal/log"
	"dompet/internal/notify"
)

const (
	msgSessionExpired = "Sesi habis."
	msgInvalidAmount  = "Masukkan jumlah valid"
	msgRateLimited    = "Terlalu banyak permintaan, coba lagi sebentar lagi."

	streamHeartbeat = 25 * time.Second
)

func (s *Server) storeContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), storeTimeout)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	NewResponse().Data(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.storeContext(r)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Readiness check failed", log.FieldError, err.Error())
		ErrorResponse(http.StatusServiceUnavailable, "store unavailable").Write(w)
		return
	}
	NewResponse().Data(map[string]string{"status": "ready"}).Write(w)
}

func (s *Server) handleCategories(w http.ResponseWriter, _ *http.Request) {
	NewResponse().Data(s.catalog).Write(w)
}

// writeError maps err onto the response status and, for failures the user
// should see, an error notification.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	ctx := r.Context()
	user := auth.UserFrom(ctx)
	logger := log.FromContext(ctx)

	switch {
	case core.IsValidation(err):
		msg := err.Error()
		if errors.Is(err, core.ErrInvalidAmount) {
			msg = msgInvalidAmount
		}
		logger.DebugContext(ctx, "Request rejected", log.FieldOperation, operation, log.FieldError, err.Error())
		ErrorResponse(http.StatusUnprocessableEntity, err.Error()).
			Notify(s.hub.Error(user, msg)).
			Write(w)

	case errors.Is(err, core.ErrNotFound):
		ErrorResponse(http.StatusNotFound, "not found").
			Notify(s.hub.Error(user, "Data tidak ditemukan")).
			Write(w)

	case errors.Is(err, fetch.ErrSuperseded):
		// A newer request for the same view owns the result; stay quiet.
		logger.DebugContext(ctx, "Fetch superseded", log.FieldOperation, operation)
		ErrorResponse(http.StatusConflict, err.Error()).Write(w)

	default:
		logger.Failure(ctx, "Request failed", operation, err)
		ErrorResponse(http.StatusInternalServerError, err.Error()).
			Notify(s.hub.Error(user, fmt.Sprintf("Gagal: %s", err.Error()))).
			Write(w)
	}
}

func (s *Server) authFailed(w http.ResponseWriter, r *http.Request, err error) {
	log.FromContext(r.Context()).InfoContext(r.Context(), "Authentication failed",
		log.FieldComponent, log.ComponentAuth,
		log.FieldError, err.Error())
	ErrorResponse(http.StatusUnauthorized, err.Error()).
		Header("WWW-Authenticate", `Bearer realm="dompet"`).
		Notify(s.hub.Transient(notify.LevelError, msgSessionExpired)).
		Write(w)
}

func (s *Server) rateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldComponent, log.ComponentRateLimit,
		log.FieldClientIP, s.detector.ClientIP(r))
	ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded").
		Notify(s.hub.Transient(notify.LevelWarning, msgRateLimited)).
		Write(w)
}

func (s *Server) handleCurrentNotification(w http.ResponseWriter, r *http.Request) {
	n, ok := s.hub.Current(auth.UserFrom(r.Context()))
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	NewResponse().Data(n).Write(w)
}

func (s *Server) handleDismissNotification(w http.ResponseWriter, r *http.Request) {
	s.hub.Dismiss(auth.UserFrom(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}

// handleNotificationStream pushes the user's notifications as server-sent
// events until the client goes away.
func (s *Server) handleNotificationStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rc := http.NewResponseController(w)
	// The stream outlives the server's write timeout.
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		s.writeError(w, r, log.OpRead, err)
		return
	}

	events, unsubscribe := s.hub.Subscribe(auth.UserFrom(ctx))
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		return
	}

	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
		case n, ok := <-events:
			if !ok {
				return
			}
			payload, err := json.Marshal(n)
			if err != nil {
				log.FromContext(ctx).Failure(ctx, "Failed to encode notification", log.OpRender, err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: notification\ndata: %s\n\n", payload); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
