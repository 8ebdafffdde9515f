package api

import (
	"bytes"
	"net/http"

	"github.com/okian/cupstats/internal/domain/chart"
)

// ChartsHandler serves every Visuals chart on one ECharts page.
type ChartsHandler struct {
	deps  Dependencies
	title string
}

// NewChartsHandler creates a new charts handler.
func NewChartsHandler(deps Dependencies, title string) *ChartsHandler {
	return &ChartsHandler{deps: deps, title: title}
}

// HandleCharts handles GET /charts requests.
func (h *ChartsHandler) HandleCharts(w http.ResponseWriter, r *http.Request) {
	cs, err := h.deps.Charts(r.Context())
	if err != nil {
		fail(w, Wrap("api.charts", err))
		return
	}
	var buf bytes.Buffer
	if err := chart.Page(&buf, h.title, cs); err != nil {
		fail(w, WrapKind("api.charts", ErrServe, err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
