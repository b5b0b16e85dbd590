// Package api serves the practice engine over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/abhisek/adaptiq/internal/analytics"
	"github.com/abhisek/adaptiq/internal/logger"
	"github.com/abhisek/adaptiq/internal/misconception"
	"github.com/abhisek/adaptiq/internal/session"
	"github.com/abhisek/adaptiq/internal/store"
)

type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
}

// Deps are the services behind the handlers.
type Deps struct {
	Content        store.ContentRepo
	Registry       *session.Registry
	Analytics      *analytics.Service
	Misconceptions *misconception.Service
	Log            *logger.Logger
}

type Server struct {
	cfg  Config
	deps Deps
	log  *logger.Logger
	srv  *http.Server
}

func New(deps Deps, cfg Config) *Server {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	if deps.Misconceptions == nil {
		deps.Misconceptions = misconception.NewService(nil, log)
	}
	s := &Server{cfg: cfg, deps: deps, log: log.With("component", "api")}
	s.srv = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Handler returns the router with every route mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, s.requestLogger, middleware.Recoverer)
	if s.cfg.WriteTimeout > 0 {
		r.Use(middleware.Timeout(s.cfg.WriteTimeout))
	}

	origins := s.cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"Content-Length", "Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.health)

	r.Route("/chapters", func(r chi.Router) {
		r.Get("/", s.listChapters)
		r.Route("/{chapterID}", func(r chi.Router) {
			r.Get("/concepts", s.listConcepts)
			r.Get("/analytics", s.classAnalytics)
			r.Get("/analytics.xlsx", s.classAnalyticsXLSX)
		})
	})

	r.Route("/students/{studentID}", func(r chi.Router) {
		r.Post("/sessions", s.startSession)
		r.Delete("/sessions/current", s.endSession)
		r.Post("/attempts", s.recordAttempt)
		r.Get("/analytics", s.studentAnalytics)
		r.Route("/concepts/{conceptID}", func(r chi.Router) {
			r.Get("/next", s.nextQuestion)
			r.Get("/mastery", s.conceptMastery)
		})
	})

	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", s.cfg.Addr)
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log.Info("http server shutting down")
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
