// Package site renders the dashboard pages: a themed shell with a
// horizontal view menu around the screen of the selected view.
package site

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/okian/cupstats/internal/domain/view"
	"github.com/okian/cupstats/pkg/logger"
)

// Error constants
var (
	ErrRender = errors.New("page render failed")
	ErrServe  = errors.New("page serve failed")
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Theme holds the page configuration and menu colors.
type Theme struct {
	PageTitle              string
	BackgroundImage        string
	MenuBackground         string
	MenuAccent             string
	MenuSelectedBackground string
}

// DefaultTheme returns the stock dark theme.
func DefaultTheme() Theme {
	return Theme{
		PageTitle:              "Data Analytics App",
		MenuBackground:         "#0a0f1a",
		MenuAccent:             "gold",
		MenuSelectedBackground: "#1a2333",
	}
}

// Renderer draws screens for the shell.
type Renderer interface {
	Views() []view.View
	Render(ctx context.Context, v view.View) (*view.Screen, error)
}

// Shell serves the dashboard pages.
type Shell struct {
	renderer Renderer
	theme    Theme
	tmpl     *template.Template
	logger   logger.Logger
}

// Option configures a Shell.
type Option func(*Shell)

// WithTheme overrides the non-empty fields of the default theme.
func WithTheme(t Theme) Option {
	return func(s *Shell) {
		if t.PageTitle != "" {
			s.theme.PageTitle = t.PageTitle
		}
		if t.BackgroundImage != "" {
			s.theme.BackgroundImage = t.BackgroundImage
		}
		if t.MenuBackground != "" {
			s.theme.MenuBackground = t.MenuBackground
		}
		if t.MenuAccent != "" {
			s.theme.MenuAccent = t.MenuAccent
		}
		if t.MenuSelectedBackground != "" {
			s.theme.MenuSelectedBackground = t.MenuSelectedBackground
		}
	}
}

// WithLogger sets the shell logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Shell) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewShell parses the embedded templates. It panics if they do not parse.
func NewShell(r Renderer, opts ...Option) *Shell {
	s := &Shell{
		renderer: r,
		theme:    DefaultTheme(),
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.tmpl = template.Must(template.New("site").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
	return s
}

// Theme returns the effective theme.
func (s *Shell) Theme() Theme { return s.theme }

// Register attaches the dashboard routes to r. The home view is served at
// root and every other view at its slug.
func (s *Shell) Register(_ context.Context, r chi.Router) {
	if r == nil {
		panic("router is nil")
	}

	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(sub))))
	r.Get("/", s.HandleView)
	r.Get("/{view}", s.HandleView)
}

// HandleView renders the page of the view named in the path, defaulting to
// the first menu entry.
func (s *Shell) HandleView(w http.ResponseWriter, r *http.Request) {
	v := view.Home
	if slug := chi.URLParam(r, "view"); slug != "" {
		parsed, err := view.ParseView(slug)
		if err != nil {
			s.fail(w, r, http.StatusNotFound, err)
			return
		}
		v = parsed
	}

	var buf bytes.Buffer
	if err := s.Write(r.Context(), &buf, v); err != nil {
		s.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Debug(r.Context(), "page write aborted", logger.Error(fmt.Errorf("%w: %w", ErrServe, err)))
	}
}

// Write renders the full page of v to buf.
func (s *Shell) Write(ctx context.Context, buf *bytes.Buffer, v view.View) error {
	screen, err := s.renderer.Render(ctx, v)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRender, v, err)
	}
	data, err := s.page(screen)
	if err != nil {
		return err
	}
	if err := s.tmpl.ExecuteTemplate(buf, "layout.html", data); err != nil {
		return fmt.Errorf("%w: %w", ErrRender, err)
	}
	return nil
}

func (s *Shell) fail(w http.ResponseWriter, r *http.Request, status int, err error) {
	s.logger.Warn(r.Context(), "page failed",
		logger.String("path", r.URL.Path),
		logger.Int("status", status),
		logger.Error(err),
	)
	var buf bytes.Buffer
	data := pageData{Theme: s.theme, Menu: s.menu(""), Error: err.Error(), Status: status}
	if terr := s.tmpl.ExecuteTemplate(&buf, "layout.html", data); terr != nil {
		http.Error(w, err.Error(), status)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

type menuItem struct {
	Name     string
	Slug     string
	Icon     string
	Selected bool
}

type chartData struct {
	ElementID string
	Options   template.JS
}

type pageData struct {
	Theme  Theme
	Menu   []menuItem
	Screen *view.Screen
	Charts map[string]chartData
	Error  string
	Status int
}

func (s *Shell) menu(selected view.View) []menuItem {
	vs := s.renderer.Views()
	out := make([]menuItem, 0, len(vs))
	for _, v := range vs {
		out = append(out, menuItem{Name: string(v), Slug: v.Slug(), Icon: v.Icon(), Selected: v == selected})
	}
	return out
}

func (s *Shell) page(screen *view.Screen) (pageData, error) {
	data := pageData{Theme: s.theme, Menu: s.menu(screen.View), Screen: screen}
	for _, tab := range screen.Tabs {
		if tab.Chart == nil {
			continue
		}
		raw, err := json.Marshal(tab.Chart.Options())
		if err != nil {
			return pageData{}, fmt.Errorf("%w: chart %s: %w", ErrRender, tab.Chart.ID, err)
		}
		if data.Charts == nil {
			data.Charts = make(map[string]chartData, len(screen.Tabs))
		}
		data.Charts[tab.Name] = chartData{ElementID: tab.Chart.ElementID(), Options: template.JS(raw)}
	}
	return data, nil
}

var funcs = template.FuncMap{
	"num": func(f float64) string { return strconv.FormatFloat(f, 'f', 6, 64) },
	"std": func(f *float64) string {
		if f == nil {
			return "NaN"
		}
		return strconv.FormatFloat(*f, 'f', 6, 64)
	},
	"inc": func(i int) int { return i + 1 },
}
