// Package api serves the pipeline results to the dashboard.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/NissanArmada/GazooRazoo/log"
	"github.com/NissanArmada/GazooRazoo/pkg/analysis"
	"github.com/NissanArmada/GazooRazoo/pkg/pipeline"
	"github.com/NissanArmada/GazooRazoo/pkg/processing/gear"
	"github.com/NissanArmada/GazooRazoo/pkg/utils/cache"
	"github.com/NissanArmada/GazooRazoo/pkg/utils/cache/loadercache"
)

type (
	Option func(*Server)
	Server struct {
		router   *chi.Mux
		session  *pipeline.Session
		client   *analysis.Client
		table    *gear.Table
		cacheTTL time.Duration
		drivers  cache.Cache[string, []string]
		dna      cache.Cache[analysis.DNARequest, analysis.DNA]
		l        *log.Logger
	}
)

func WithAnalysisClient(c *analysis.Client) Option {
	return func(s *Server) {
		s.client = c
	}
}

func WithGearTable(t *gear.Table) Option {
	return func(s *Server) {
		s.table = t
	}
}

func WithCacheExpiration(d time.Duration) Option {
	return func(s *Server) {
		s.cacheTTL = d
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		s.l = l
	}
}

func NewServer(session *pipeline.Session, opts ...Option) *Server {
	s := &Server{
		session:  session,
		table:    gear.DefaultTable(),
		cacheTTL: 10 * time.Minute,
		l:        log.Default().Named("api"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = analysis.NewClient(analysis.WithLogger(s.l.Named("analysis")))
	}
	s.drivers = loadercache.New(
		loadercache.WithExpiration[string, []string](s.cacheTTL),
		loadercache.WithLogger[string, []string](s.l.Named("cache")),
		loadercache.WithLoader[string, []string](func(ctx context.Context, _ string) (*[]string, error) {
			ids, err := s.session.Discover(ctx)
			if err != nil {
				return nil, err
			}
			return &ids, nil
		}))
	s.dna = loadercache.New(
		loadercache.WithExpiration[analysis.DNARequest, analysis.DNA](s.cacheTTL),
		loadercache.WithLogger[analysis.DNARequest, analysis.DNA](s.l.Named("cache")),
		loadercache.WithLoader[analysis.DNARequest, analysis.DNA](s.client.AnalyzeDNA))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/health", s.health)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/drivers", s.listDrivers)
		r.Post("/drivers/{id}/select", s.selectDriver)
		r.Get("/progress", s.progress)
		r.Get("/telemetry", s.telemetry)
		r.Get("/laps", s.laps)
		r.Get("/laps/fastest", s.fastestLap)
		r.Get("/laps/{lap}/analysis", s.lapAnalysis)
		r.Get("/gear", s.gearReport)
		r.Get("/dna", s.dnaBaseline)
		r.Post("/overtake", s.overtake)
		r.Post("/grip", s.grip)
	})
	s.router = r
	return s
}

// Handler returns the router wrapped for CORS and h2c
func (s *Server) Handler() http.Handler {
	return h2c.NewHandler(newCORS().Handler(s.router), &http2.Server{})
}

// InvalidateDrivers drops the cached discovery result
func (s *Server) InvalidateDrivers(ctx context.Context) {
	s.drivers.InvalidateAll(ctx)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.l.Debug("request",
			log.String("method", r.Method),
			log.String("path", r.URL.Path),
			log.Int("status", ww.Status()),
			log.Duration("duration", time.Since(start)),
			log.String("requestId", middleware.GetReqID(r.Context())))
	})
}

func newCORS() *cors.Cors {
	// the dashboard is served from a different origin during development
	return cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowOriginFunc: func(origin string) bool {
			return true
		},
		AllowedHeaders: []string{"*"},
		MaxAge:         int(2 * time.Hour / time.Second),
	})
}
