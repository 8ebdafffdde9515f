package api

import "net/http"

// DatasetHandler serves the dataset overview and headline KPIs.
type DatasetHandler struct {
	deps Dependencies
}

// NewDatasetHandler creates a new dataset handler.
func NewDatasetHandler(deps Dependencies) *DatasetHandler {
	return &DatasetHandler{deps: deps}
}

// HandleKPI handles GET /api/kpi requests.
func (h *DatasetHandler) HandleKPI(w http.ResponseWriter, r *http.Request) {
	kpi, err := h.deps.KPI(r.Context())
	if err != nil {
		fail(w, Wrap("api.kpi", err))
		return
	}
	writeJSON(w, http.StatusOK, kpi)
}

// HandleInfo handles GET /api/dataset requests.
func (h *DatasetHandler) HandleInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Info())
}
