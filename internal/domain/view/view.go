// Package view maps a menu selection to one of the dashboard screens and
// derives everything that screen shows from the immutable dataset.
package view

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownView is returned for a menu entry that does not exist.
var ErrUnknownView = errors.New("unknown view")

// View is a menu entry.
type View string

const (
	Home        View = "Home"
	DatasetInfo View = "Dataset Info"
	Visuals     View = "Visuals"
	Insights    View = "Insights"
)

// Views lists the menu entries in menu order. The first is the default.
var Views = []View{Home, DatasetInfo, Visuals, Insights}

var icons = map[View]string{
	Home:        "house",
	DatasetInfo: "table",
	Visuals:     "bar-chart",
	Insights:    "lightbulb",
}

// Slug returns the URL form of the view, e.g. "dataset-info".
func (v View) Slug() string {
	return strings.ReplaceAll(strings.ToLower(string(v)), " ", "-")
}

// Icon returns the menu icon name.
func (v View) Icon() string { return icons[v] }

// ParseView accepts a view name or slug, case-insensitively.
func ParseView(s string) (View, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, v := range Views {
		if key == strings.ToLower(string(v)) || key == v.Slug() {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownView, s)
}
