package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/otpvault/otpvault/internal/gate"
	"github.com/otpvault/otpvault/internal/vault"
	"github.com/otpvault/otpvault/pkg/clientip"
	"github.com/otpvault/otpvault/pkg/logger"
	"github.com/otpvault/otpvault/pkg/requestid"
)

// NewRouter assembles the HTTP surface: the gated vault API and an ungated
// health endpoint.
func NewRouter(svc *vault.Service, g *gate.Gate, log *slog.Logger, healthChecks ...func(context.Context) error) http.Handler {
	h := NewHandler(svc, log)

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", healthHandler(log, healthChecks...))

	r.Route("/api/vault", func(r chi.Router) {
		r.Use(gate.Middleware(g))

		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Post("/preview", h.preview)
		r.Post("/{id}/code", h.code)
		r.Get("/{id}/note", h.note)
		r.Put("/{id}/note", h.updateNote)
		r.Get("/{id}/qr", h.exportQR)
		r.Delete("/{id}", h.delete)
	})

	return r
}

// requestLogger logs one line per request with identity and timing.
func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			log.InfoContext(r.Context(), "request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.String("ip", clientip.GetIP(r)),
				slog.String("request_id", requestid.FromContext(r.Context())),
				logger.Duration(time.Since(start)),
			)
		})
	}
}

// healthHandler serves liveness when no checks are supplied and readiness
// otherwise.
func healthHandler(log *slog.Logger, checks ...func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, check := range checks {
			if err := check(r.Context()); err != nil {
				log.ErrorContext(r.Context(), "readiness check failed", logger.Error(err))
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte("NOT_READY"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("READY"))
	}
}
