package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"dompet/internal/auth"
	"dompet/internal/cache"
	"dompet/internal/core"
	"dompet/internal/export"
	"dompet/internal/fetch"
	"dompet/internal/log"
	"dompet/internal/metrics"
	"dompet/internal/middleware/ratelimit"
	"dompet/internal/middleware/security"
	"dompet/internal/middleware/trace"
	"dompet/internal/notify"
	"dompet/internal/ports"
	"dompet/internal/services"
	"dompet/internal/streak"
)

const (
	// storeTimeout bounds every store call made on behalf of a request.
	storeTimeout = 7 * time.Second

	cacheCleanupInterval = time.Minute
	maxRecentLimit       = 50
)

// Options wires the server to its collaborators. Store and Auth are required.
type Options struct {
	Store     ports.Store
	Publisher services.Publisher
	Auth      auth.Authenticator
	Metrics   *metrics.Collector
	Logger    *log.Logger
	Catalog   core.Catalog

	DailyLimit         decimal.Decimal
	NotificationTTL    time.Duration
	CacheSize          int
	CacheTTL           time.Duration
	RateLimitPerMinute int

	// Today overrides the clock for the analytics and streak views.
	Today func() core.Date
}

type Server struct {
	http.Server

	store    ports.Store
	ledger   *services.LedgerService
	fetcher  *fetch.Fetcher
	hub      *notify.Hub
	reports  *cache.ReportCache
	caches   *cache.Manager
	streaks  *streak.Engine
	reporter *export.Reporter
	limiter  *ratelimit.Limiter
	detector *security.Detector
	metrics  *metrics.Collector
	logger   *log.Logger
	catalog  core.Catalog
	today    func() core.Date

	shutdownOnce sync.Once
}

// NewServer builds the API server listening on addr. Background cache and
// rate limiter sweeps start immediately and stop on Shutdown.
func NewServer(addr string, opts Options) (*Server, error) {
	if opts.Store == nil {
		return nil, errors.New("http server requires a store")
	}
	if opts.Auth == nil {
		return nil, errors.New("http server requires an authenticator")
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	if opts.Today == nil {
		opts.Today = core.Today
	}
	if opts.Catalog.Income == nil {
		opts.Catalog = core.DefaultCatalog()
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 500
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}

	reporter, err := export.NewReporter()
	if err != nil {
		return nil, err
	}

	rlCfg := ratelimit.DefaultConfig()
	if opts.RateLimitPerMinute > 0 {
		rlCfg.RequestsPerMinute = opts.RateLimitPerMinute
	}

	s := &Server{
		store:    opts.Store,
		fetcher:  fetch.New(opts.Store),
		hub:      notify.NewHub(opts.NotificationTTL),
		reports:  cache.NewReportCache(opts.CacheSize, opts.CacheTTL),
		caches:   cache.NewManager(),
		streaks:  streak.New(opts.DailyLimit),
		reporter: reporter,
		limiter:  ratelimit.NewLimiter(rlCfg),
		detector: security.NewDetector(),
		metrics:  opts.Metrics,
		logger:   opts.Logger.WithComponent(log.ComponentHTTP),
		catalog:  opts.Catalog,
		today:    opts.Today,
	}
	s.ledger = services.NewLedgerService(opts.Store, opts.Publisher, s.reports)

	s.caches.Register(s.reports)
	s.caches.Register(s.hub)
	s.caches.StartCleanup(cacheCleanupInterval)
	s.limiter.Start()

	s.Addr = addr
	s.Handler = s.routes(opts.Auth)
	s.ReadHeaderTimeout = 10 * time.Second
	s.ReadTimeout = 15 * time.Second
	s.WriteTimeout = 30 * time.Second
	s.IdleTimeout = 60 * time.Second
	return s, nil
}

func (s *Server) routes(a auth.Authenticator) http.Handler {
	r := mux.NewRouter()
	r.Use(s.metrics.Middleware)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		ErrorResponse(http.StatusNotFound, "not found").Write(w)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, "method not allowed").Write(w)
	})

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.limiter.Middleware(s.detector.ClientIP, s.rateLimited))
	api.Use(auth.Middleware(a, s.authFailed))

	api.HandleFunc("/categories", s.handleCategories).Methods(http.MethodGet)
	api.HandleFunc("/transactions", s.handleCreateTransaction).Methods(http.MethodPost)
	api.HandleFunc("/transactions/recent", s.handleRecentTransactions).Methods(http.MethodGet)
	api.HandleFunc("/dashboard", s.handleDashboard).Methods(http.MethodGet)
	api.HandleFunc("/analytics", s.handleAnalytics).Methods(http.MethodGet)
	api.HandleFunc("/analytics/export.csv", s.handleExportCSV).Methods(http.MethodGet)
	api.HandleFunc("/analytics/export.html", s.handleExportHTML).Methods(http.MethodGet)
	api.HandleFunc("/streak", s.handleStreak).Methods(http.MethodGet)
	api.HandleFunc("/goals", s.handleListGoals).Methods(http.MethodGet)
	api.HandleFunc("/goals", s.handleCreateGoal).Methods(http.MethodPost)
	api.HandleFunc("/goals/{id}", s.handleDeleteGoal).Methods(http.MethodDelete)
	api.HandleFunc("/notifications/current", s.handleCurrentNotification).Methods(http.MethodGet)
	api.HandleFunc("/notifications/current", s.handleDismissNotification).Methods(http.MethodDelete)
	api.HandleFunc("/notifications/stream", s.handleNotificationStream).Methods(http.MethodGet)

	// Outermost first: headers, request id and logger, probe rejection, router.
	var h http.Handler = r
	h = s.detector.Middleware(h)
	h = trace.NewMiddleware(s.logger, s.detector.ClientIP).Middleware(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	return h
}

// Shutdown stops background sweeps, then drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.limiter.Stop()
	})
	return s.Server.Shutdown(ctx)
}

// Hub exposes the notification hub so other components can notify users.
func (s *Server) Hub() *notify.Hub { return s.hub }
