// Package web provides the HTTP API of the mzTab validation service.
//
// Routes:
//
//	GET  /healthz                liveness and database check
//	POST /api/validate           validate an uploaded file, returns the report
//	GET  /api/reports            list stored reports
//	GET  /api/reports/{id}       fetch a stored report
//	GET  /api/error-types        the error catalogue
//	GET  /api/sections           the section and column catalogue
//	GET  /api/status             upload slots in use
package web

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/JonMunkholm/mztab/internal/config"
	"github.com/JonMunkholm/mztab/internal/validate"
	mw "github.com/JonMunkholm/mztab/internal/web/middleware"
)

// ReportStore persists reports. *store.Store implements it.
type ReportStore interface {
	SaveReport(ctx context.Context, r *validate.Report) error
	GetReport(ctx context.Context, id uuid.UUID) (*validate.Report, error)
	ListReports(ctx context.Context, limit int) ([]*validate.Report, error)
	Ping(ctx context.Context) error
}

// Server is the HTTP server.
type Server struct {
	cfg     *config.Config
	store   ReportStore
	limiter *Limiter
	rate    *rateLimiter
	router  *chi.Mux
	server  *http.Server
}

// NewServer builds the router. store may be nil, in which case reports are
// only returned to the caller.
func NewServer(cfg *config.Config, store ReportStore) *Server {
	s := &Server{
		cfg:     cfg,
		store:   store,
		limiter: NewLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime),
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(securityHeaders)

	if s.cfg.Server.RateLimit > 0 {
		s.rate = newRateLimiter(s.cfg.Server.RateLimit, time.Minute)
		s.router.Use(s.rate.middleware)
	}
}

func (s *Server) setupRoutes() {
	timeout := middleware.Timeout(s.cfg.Server.RequestTimeout)

	s.router.With(timeout).Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(&s.cfg.Security))

		// Uploads are bounded by Upload.Timeout inside the handler.
		r.Post("/validate", s.handleValidate)

		r.Group(func(r chi.Router) {
			r.Use(timeout)
			r.Use(middleware.Compress(5))

			r.Get("/reports", s.handleListReports)
			r.Get("/reports/{reportID}", s.handleGetReport)
			r.Get("/error-types", s.handleErrorTypes)
			r.Get("/sections", s.handleSections)
			r.Get("/status", s.handleStatus)
		})
	})
}

// Start listens on the configured address. It returns http.ErrServerClosed
// after Shutdown.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
	return s.server.ListenAndServe()
}

// Shutdown stops accepting requests and waits for running validations.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.rate != nil {
		s.rate.stop()
	}
	if s.server == nil {
		return nil
	}
	err := s.server.Shutdown(ctx)
	if drainErr := s.limiter.WaitForDrain(ctx); err == nil {
		err = drainErr
	}
	return err
}

// Router returns the handler, for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// securityHeaders sets headers suitable for a JSON API.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// rateLimiter allows rate requests per window per client IP.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int
	window   time.Duration
	done     chan struct{}
	once     sync.Once
}

type visitor struct {
	tokens    int
	lastReset time.Time
}

func newRateLimiter(rate int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
		done:     make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// cleanup drops visitors idle for two windows.
func (rl *rateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()
	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.mu.Lock()
			for ip, v := range rl.visitors {
				if time.Since(v.lastReset) > rl.window*2 {
					delete(rl.visitors, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.once.Do(func() { close(rl.done) })
}

// allow consumes a token for ip if one is left.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	v, ok := rl.visitors[ip]
	if !ok || now.Sub(v.lastReset) > rl.window {
		rl.visitors[ip] = &visitor{tokens: rl.rate - 1, lastReset: now}
		return true
	}
	if v.tokens <= 0 {
		return false
	}
	v.tokens--
	return true
}

// middleware keys on RemoteAddr, which TrustedRealIP has already resolved.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(mw.ClientIP(r)) {
			w.Header().Set("Retry-After", "60")
			respondError(w, r, errRateLimited, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
