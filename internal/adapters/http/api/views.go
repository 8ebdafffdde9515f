package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/okian/cupstats/internal/domain/view"
)

// ViewsHandler serves the menu and rendered screens.
type ViewsHandler struct {
	deps Dependencies
}

// NewViewsHandler creates a new views handler.
func NewViewsHandler(deps Dependencies) *ViewsHandler {
	return &ViewsHandler{deps: deps}
}

type viewEntry struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
	Icon string `json:"icon"`
}

type screenResponse struct {
	*view.Screen
	ChartOptions map[string]map[string]interface{} `json:"chart_options,omitempty"`
}

// HandleList handles GET /api/views requests.
func (h *ViewsHandler) HandleList(w http.ResponseWriter, _ *http.Request) {
	vs := h.deps.Views()
	out := make([]viewEntry, 0, len(vs))
	for _, v := range vs {
		out = append(out, viewEntry{Name: string(v), Slug: v.Slug(), Icon: v.Icon()})
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGet handles GET /api/views/{view} requests. The view may be named
// by title or slug.
func (h *ViewsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	v, err := view.ParseView(chi.URLParam(r, "view"))
	if err != nil {
		fail(w, Wrap("api.view", err))
		return
	}
	screen, err := h.deps.Render(r.Context(), v)
	if err != nil {
		fail(w, Wrap("api.view", err))
		return
	}

	resp := screenResponse{Screen: screen}
	for _, tab := range screen.Tabs {
		if tab.Chart == nil {
			continue
		}
		if resp.ChartOptions == nil {
			resp.ChartOptions = make(map[string]map[string]interface{}, len(screen.Tabs))
		}
		resp.ChartOptions[tab.Chart.ID] = tab.Chart.Options()
	}
	writeJSON(w, http.StatusOK, resp)
}
