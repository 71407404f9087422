// Package http exposes the analysis engine, tax calculator and session store
// as a JSON API.
package http

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/Veraticus/transcript-recon/internal/analysis"
	"github.com/Veraticus/transcript-recon/internal/rules"
	"github.com/Veraticus/transcript-recon/internal/service"
	"github.com/Veraticus/transcript-recon/internal/storage"
	"github.com/Veraticus/transcript-recon/internal/taxcalc"
)

// DefaultMaxBodyBytes caps request bodies when Options leaves it zero.
const DefaultMaxBodyBytes = 10 << 20

// FindingQuerier is implemented by stores that index findings by year.
type FindingQuerier interface {
	FindingsByYear(ctx context.Context, taxYear int) ([]storage.FindingRecord, error)
}

// Deps are the collaborators behind the API.
type Deps struct {
	Engine     *analysis.Engine
	Calculator *taxcalc.Calculator
	Rules      *rules.Book
	// Store persists sessions. Optional; session routes answer 503 without it.
	Store service.ResultStore
	// Metrics serves /metrics. Optional.
	Metrics http.Handler
	Logger  *slog.Logger
}

// Options tunes request handling.
type Options struct {
	// TLS, when set, makes ListenAndServe speak HTTPS.
	TLS            *tls.Config
	MaxBodyBytes   int64
	RequestTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

// Server holds the handlers.
type Server struct {
	deps     Deps
	opts     Options
	logger   *slog.Logger
	validate *validator.Validate
}

// NewServer checks deps and builds a server.
func NewServer(deps Deps, opts Options) (*Server, error) {
	if deps.Engine == nil {
		return nil, errors.New("engine dependency is required")
	}
	if deps.Calculator == nil || deps.Rules == nil {
		return nil, errors.New("calculator and rules dependencies are required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 2 * time.Minute
	}

	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Server{
		deps:     deps,
		opts:     opts,
		logger:   deps.Logger.With(slog.String("component", "api")),
		validate: v,
	}, nil
}

// Routes builds the router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)
	if s.deps.Metrics != nil {
		r.Handle("/metrics", s.deps.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(s.opts.RequestTimeout))
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Post("/analyze", s.analyze)
		r.Post("/calculate", s.calculate)
		r.Get("/rules", s.listRules)
		r.Get("/findings", s.findings)

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", s.listSessions)
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", s.getSession)
				r.Delete("/", s.deleteSession)
				r.Get("/export", s.exportSession)
			})
		})
	})

	return r
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadTimeout:       s.opts.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.opts.WriteTimeout,
		TLSConfig:         s.opts.TLS,
	}

	errCh := make(chan error, 1)
	go func() {
		if srv.TLSConfig != nil {
			s.logger.Info("API listening", "addr", addr, "scheme", "https")
			errCh <- srv.ListenAndServeTLS("", "")
			return
		}
		s.logger.Info("API listening", "addr", addr, "scheme", "http")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	s.logger.Info("Shutting down API")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.LogAttrs(r.Context(), slog.LevelInfo, "request",
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Int("bytes", ww.BytesWritten()),
			slog.Duration("elapsed", time.Since(start)),
		)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{
		"status": "ok",
		"years":  s.deps.Rules.Years(),
	})
}
