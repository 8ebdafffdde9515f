// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/okian/cupstats/internal/domain/aggregate"
	"github.com/okian/cupstats/internal/domain/chart"
	"github.com/okian/cupstats/internal/domain/dataset"
	"github.com/okian/cupstats/internal/domain/view"
	"github.com/okian/cupstats/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	StatsProvider

	Views() []view.View
	Render(ctx context.Context, v view.View) (*view.Screen, error)

	Queries() []aggregate.Query
	Aggregate(ctx context.Context, name string, order aggregate.Order) (*aggregate.Aggregate, error)
	KPI(ctx context.Context) (aggregate.KPI, error)

	Info() dataset.Info
	Charts(ctx context.Context) ([]*chart.Chart, error)
}

// DefaultChartsTitle is the title of the /charts page.
const DefaultChartsTitle = "Data Analytics App"

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	viewsHandler  *ViewsHandler
	aggHandler    *AggregatesHandler
	dataHandler   *DatasetHandler
	chartsHandler *ChartsHandler
	logger        logger.Logger
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets the request logger.
func WithLogger(l logger.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithChartsTitle sets the title of the /charts page.
func WithChartsTitle(title string) ServerOption {
	return func(s *Server) {
		if title != "" {
			s.chartsHandler.title = title
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...ServerOption) *Server {
	s := &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(deps),
		viewsHandler:  NewViewsHandler(deps),
		aggHandler:    NewAggregatesHandler(deps),
		dataHandler:   NewDatasetHandler(deps),
		chartsHandler: NewChartsHandler(deps, DefaultChartsTitle),
		logger:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	if r == nil {
		panic("router is nil")
	}

	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	r.Get("/charts", MetricsMiddleware(s.chartsHandler.HandleCharts, "charts"))

	r.Route("/api", func(r chi.Router) {
		r.Use(RequestID, Logging(s.logger))
		r.Get("/views", MetricsMiddleware(s.viewsHandler.HandleList, "views"))
		r.Get("/views/{view}", MetricsMiddleware(s.viewsHandler.HandleGet, "view"))
		r.Get("/aggregates", MetricsMiddleware(s.aggHandler.HandleList, "aggregates"))
		r.Get("/aggregates/{name}", MetricsMiddleware(s.aggHandler.HandleGet, "aggregate"))
		r.Get("/kpi", MetricsMiddleware(s.dataHandler.HandleKPI, "kpi"))
		r.Get("/dataset", MetricsMiddleware(s.dataHandler.HandleInfo, "dataset"))
	})
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// fail writes err with the status its kind maps to.
func fail(w http.ResponseWriter, err error) {
	status, code := statusOf(err)
	writeError(w, status, code, err)
}
