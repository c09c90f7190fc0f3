// Package httpapi exposes the intake pipeline and the admin console
// endpoints over HTTP.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/dictamed/backend/internal/config"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

type Server struct {
	cfg     *config.Config
	handler *Handler
	srv     *http.Server
}

func NewServer(cfg *config.Config, handler *Handler) *Server {
	s := &Server{cfg: cfg, handler: handler}
	s.srv = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           s.routes(),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", s.handler.HandleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/submissions", s.handler.HandleSubmit)
		r.Get("/stats/{userID}", s.handler.HandleGetStats)

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.handler.RequireAdmin)
			r.Get("/users", s.handler.HandleListUsers)
			r.Get("/webhooks", s.handler.HandleListWebhooks)
			r.Put("/users/{userID}/webhook", s.handler.HandlePutWebhook)
			r.Delete("/users/{userID}/webhook", s.handler.HandleDeleteWebhook)
			r.Post("/webhooks/test", s.handler.HandleTestWebhook)
		})
	})

	return r
}

func (s *Server) ListenAndServe() error {
	slog.Info("http server listening", "addr", s.cfg.ListenAddr)
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(wrapped, r)
		slog.Info("request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.Status(),
			"duration", time.Since(start),
			"request_id", chimiddleware.GetReqID(r.Context()))
	})
}
