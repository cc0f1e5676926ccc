package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/strokestats/strokestats/server/internal/alerts"
	"github.com/strokestats/strokestats/server/internal/api"
	"github.com/strokestats/strokestats/server/internal/auth"
	"github.com/strokestats/strokestats/server/internal/config"
	"github.com/strokestats/strokestats/server/internal/metrics"
	"github.com/strokestats/strokestats/server/internal/receiver"
	"github.com/strokestats/strokestats/server/internal/store"
	"github.com/strokestats/strokestats/server/internal/ws"
)

// server holds the wired components behind the HTTP router.
type server struct {
	store   *store.Store
	alerts  *alerts.Engine
	metrics *metrics.Metrics
	hub     *ws.Hub
	handler http.Handler
}

// newServer wires store, alert engine, metrics, receiver, stream hub and
// router from cfg.
func newServer(cfg config.ServerConfig) (*server, error) {
	st := store.New(cfg.Reports.MaxScopes, cfg.Reports.TTL)
	eng, err := alerts.New(cfg.Alerts)
	if err != nil {
		return nil, err
	}
	m := metrics.New(st)
	hub := ws.New(st, cfg.Stream.Interval, m)

	rc := receiver.New(st, eng, m)
	rc.OnAccept(hub.Notify)

	guard := auth.APIKey(cfg.Auth.Mode, cfg.Auth.EffectiveHeader(), cfg.Auth.Key())

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLog)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", cfg.Auth.EffectiveHeader()},
		MaxAge:         300,
	}))

	r.Mount("/api/v1", api.New(api.Options{
		Store:    st,
		Alerts:   eng,
		Receiver: rc,
		Auth:     guard,
	}))
	r.Handle("/metrics", m.Handler())
	r.With(guard).Handle("/ws/stream", hub)

	return &server{store: st, alerts: eng, metrics: m, hub: hub, handler: r}, nil
}

// requestLog logs one line per request at debug level, and at warn for
// server errors.
func requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		level := slog.LevelDebug
		if ww.Status() >= 500 {
			level = slog.LevelWarn
		}
		slog.Log(r.Context(), level, "http: request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
