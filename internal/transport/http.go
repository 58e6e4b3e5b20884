package transport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ganot/taskdeck/internal/dashboard"
	"github.com/ganot/taskdeck/internal/realtime"
)

// RPCHandler handles JSON-RPC method dispatch.
type RPCHandler interface {
	Handle(ctx context.Context, sessionID, method string, params json.RawMessage) (any, error)
}

// Dashboards hands out per-session dashboards for the realtime stream.
type Dashboards interface {
	Acquire(ctx context.Context, sessionID string) (*dashboard.Dashboard, func(), error)
}

// HealthReporter exposes the change-feed connection states.
type HealthReporter interface {
	Statuses() []realtime.Status
}

// Options configures the HTTP surface.
type Options struct {
	// Auth resolves the session of /rpc and /realtime requests.
	Auth           func(http.Handler) http.Handler
	Dashboards     Dashboards
	Health         HealthReporter
	AllowedOrigins []string
	Logger         *slog.Logger
}

// Server wires HTTP handlers.
type Server struct {
	handler    RPCHandler
	dashboards Dashboards
	health     HealthReporter
	origins    map[string]bool
	logger     *slog.Logger
}

// NewServer creates an HTTP server router with middleware.
func NewServer(handler RPCHandler, opts Options) *chi.Mux {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	srv := &Server{
		handler:    handler,
		dashboards: opts.Dashboards,
		health:     opts.Health,
		logger:     logger,
	}
	if len(opts.AllowedOrigins) > 0 {
		srv.origins = make(map[string]bool, len(opts.AllowedOrigins))
		for _, o := range opts.AllowedOrigins {
			srv.origins[o] = true
		}
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", srv.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if opts.Auth != nil {
			r.Use(opts.Auth)
		}
		r.Post("/rpc", srv.handleRPC)
		if srv.dashboards != nil {
			r.Get("/realtime", srv.handleRealtime)
		}
	})

	return r
}

type healthResponse struct {
	Status   string            `json:"status"`
	Realtime []realtime.Status `json:"realtime,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: "ok"}
	if s.health != nil {
		resp.Realtime = s.health.Statuses()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	req, err := ParseRequest(r.Body)
	if err != nil {
		writeResponse(w, failure(nil, errorFor(err)))
		return
	}

	sessionID, _ := SessionFromContext(r.Context())
	result, err := s.handler.Handle(r.Context(), sessionID, req.Method, req.Params)
	if err != nil {
		rpcErr := errorFor(err)
		if rpcErr.Code == ErrInternal {
			s.logger.Error("rpc failed", "method", req.Method, "session_id", sessionID, "error", err)
		}
		writeResponse(w, failure(req.ID, rpcErr))
		return
	}
	writeResponse(w, success(req.ID, result))
}
