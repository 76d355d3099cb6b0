// Package http exposes the ledger as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"caixa/internal/cache"
	"caixa/internal/catalog"
	"caixa/internal/flow"
	"caixa/internal/log"
	"caixa/internal/report"
	"caixa/internal/services"
	"caixa/internal/users"
)

// Deps collects the application services the server exposes.
type Deps struct {
	Movements  *services.MovementService
	Catalog    *catalog.Service
	Aggregator *flow.Aggregator
	Reports    *report.Service
	Users      *users.Service
	Logger     *log.Logger
}

type Server struct {
	http.Server
	movements  *services.MovementService
	catalog    *catalog.Service
	aggregator *flow.Aggregator
	reports    *report.Service
	users      *users.Service
	logger     *log.Logger

	rateLimiter *rateLimiter

	// Year views are expensive to build, so they are cached and cleared
	// whenever the ledger or the catalog mutates.
	flowCache *cache.Cache[flow.YearView]

	cancelJanitor context.CancelFunc
	shutdownOnce  sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = log.Default(log.ComponentHTTP)
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		movements:   d.Movements,
		catalog:     d.Catalog,
		aggregator:  d.Aggregator,
		reports:     d.Reports,
		users:       d.Users,
		logger:      logger,
		rateLimiter: newRateLimiter(),
		flowCache:   cache.New[flow.YearView](16, 5*time.Minute),
	}

	janitorCtx, cancel := context.WithCancel(context.Background())
	s.cancelJanitor = cancel
	s.flowCache.StartJanitor(janitorCtx, 10*time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/summary", s.withMiddleware(s.handleSummary))

	mux.HandleFunc("GET /api/movements", s.withMiddleware(s.handleListMovements))
	mux.HandleFunc("POST /api/movements", s.withMiddleware(s.handleCreateMovement))
	mux.HandleFunc("GET /api/movements/{id}", s.withMiddleware(s.handleGetMovement))
	mux.HandleFunc("PUT /api/movements/{id}", s.withMiddleware(s.handleUpdateMovement))
	mux.HandleFunc("DELETE /api/movements/{id}", s.withMiddleware(s.handleDeleteMovement))

	mux.HandleFunc("GET /api/accounts", s.withMiddleware(s.handleListAccounts))
	mux.HandleFunc("POST /api/accounts", s.withMiddleware(s.handleCreateAccount))
	mux.HandleFunc("POST /api/accounts/order", s.withMiddleware(s.handleOrderAccounts))
	mux.HandleFunc("PUT /api/accounts/{id}", s.withMiddleware(s.handleUpdateAccount))
	mux.HandleFunc("DELETE /api/accounts/{id}", s.withMiddleware(s.handleDeleteAccount))

	mux.HandleFunc("GET /api/categories", s.withMiddleware(s.handleListCategories))
	mux.HandleFunc("POST /api/categories", s.withMiddleware(s.handleCreateCategory))

	mux.HandleFunc("GET /api/flow", s.withMiddleware(s.handleFlow))
	mux.HandleFunc("GET /api/reports", s.withMiddleware(s.handleReports))

	mux.HandleFunc("GET /api/users", s.withMiddleware(s.handleListUsers))
	mux.HandleFunc("POST /api/users", s.withMiddleware(s.handleCreateUser))
	mux.HandleFunc("GET /api/users/search", s.withMiddleware(s.handleSearchUsers))
	mux.HandleFunc("GET /api/users/stats", s.withMiddleware(s.handleUserStats))
	mux.HandleFunc("GET /api/users/{id}", s.withMiddleware(s.handleGetUser))
	mux.HandleFunc("PUT /api/users/{id}", s.withMiddleware(s.handleUpdateUser))
	mux.HandleFunc("DELETE /api/users/{id}", s.withMiddleware(s.handleDeleteUser))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.cancelJanitor != nil {
			s.cancelJanitor()
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// invalidateViews drops every cached year view after a ledger or catalog
// mutation. A movement can shift the carried balance of later years, so
// per-year invalidation would not be safe.
func (s *Server) invalidateViews() {
	s.flowCache.Clear()
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
