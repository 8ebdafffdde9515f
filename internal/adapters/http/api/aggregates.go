package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/okian/cupstats/internal/domain/aggregate"
)

// AggregatesHandler serves the aggregation queries.
type AggregatesHandler struct {
	deps Dependencies
}

// NewAggregatesHandler creates a new aggregates handler.
func NewAggregatesHandler(deps Dependencies) *AggregatesHandler {
	return &AggregatesHandler{deps: deps}
}

type aggregateResponse struct {
	Aggregate *aggregate.Aggregate `json:"aggregate"`
	Warning   string               `json:"warning,omitempty"`
}

// HandleList handles GET /api/aggregates requests.
func (h *AggregatesHandler) HandleList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Queries())
}

// HandleGet handles GET /api/aggregates/{name} requests. The optional
// order parameter selects literal or intent ranking.
func (h *AggregatesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	var order aggregate.Order
	if raw := r.URL.Query().Get("order"); raw != "" {
		o, err := aggregate.ParseOrder(raw)
		if err != nil {
			fail(w, WrapKind("api.aggregate", ErrBadRequest, err))
			return
		}
		order = o
	}

	a, err := h.deps.Aggregate(r.Context(), chi.URLParam(r, "name"), order)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, aggregateResponse{Aggregate: a})
	case aggregate.IsEmptyResult(err):
		writeJSON(w, http.StatusOK, aggregateResponse{Aggregate: a, Warning: err.Error()})
	default:
		fail(w, Wrap("api.aggregate", err))
	}
}
