// Package chart turns aggregates into bar and line chart descriptors with a
// shared look: transparent background and value labels on every point.
package chart

import (
	"slices"

	"github.com/okian/cupstats/internal/domain/aggregate"
	"github.com/okian/cupstats/internal/domain/model"
)

// Transparent is the plot and page background of every chart.
const Transparent = "rgba(0, 0, 0, 0)"

// Kind is the chart type.
type Kind string

const (
	KindBar  Kind = "bar"
	KindLine Kind = "line"
)

// Series is one named value sequence aligned with Chart.Categories. A nil
// entry marks a category the series has no value for.
type Series struct {
	Name   string   `json:"name"`
	Values []*int64 `json:"values"`
}

// Chart is a renderer-independent chart descriptor.
type Chart struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	Kind          Kind        `json:"kind"`
	CategoryField model.Field `json:"category_field"`
	ValueField    model.Field `json:"value_field"`
	ColorField    model.Field `json:"color_field,omitempty"`
	Categories    []string    `json:"categories"`
	Series        []Series    `json:"series"`
	Horizontal    bool        `json:"horizontal"`
	ShowLabels    bool        `json:"show_labels"`
	Markers       bool        `json:"markers"`
	Background    string      `json:"background"`
}

// Option adjusts a category chart.
type Option func(*Chart)

// WithColorBy splits bars into one stacked series per value of f.
func WithColorBy(f model.Field) Option {
	return func(c *Chart) { c.ColorField = f }
}

// WithTitle sets the chart title.
func WithTitle(title string) Option {
	return func(c *Chart) { c.Title = title }
}

// WithID sets the identifier used by page renderers.
func WithID(id string) Option {
	return func(c *Chart) { c.ID = id }
}

// WithHorizontal selects bar orientation. Bars are horizontal by default,
// with categories on the vertical axis.
func WithHorizontal(h bool) Option {
	return func(c *Chart) { c.Horizontal = h }
}

// BuildCategoryChart builds a labeled bar chart of valueField per categoryField.
// Both fields must belong to data; the color field, if any, must be a key.
func BuildCategoryChart(data *aggregate.Aggregate, categoryField, valueField model.Field, opts ...Option) (*Chart, error) {
	c := &Chart{
		ID:            data.Name,
		Kind:          KindBar,
		CategoryField: categoryField,
		ValueField:    valueField,
		Horizontal:    true,
		ShowLabels:    true,
		Background:    Transparent,
	}
	for _, opt := range opts {
		opt(c)
	}

	labels, err := data.Labels(categoryField)
	if err != nil {
		return nil, err
	}
	if err := checkMetric(data, valueField); err != nil {
		return nil, err
	}
	values := data.Values()

	if c.ColorField == "" {
		c.Categories = labels
		c.Series = []Series{{Name: string(valueField), Values: pointers(values)}}
		return c, nil
	}

	colors, err := data.Labels(c.ColorField)
	if err != nil {
		return nil, err
	}
	c.Categories, c.Series = split(labels, colors, values)
	return c, nil
}

// BuildTrendChart builds a line chart of yField over xField with markers and
// value labels.
func BuildTrendChart(data *aggregate.Aggregate, xField, yField model.Field) (*Chart, error) {
	labels, err := data.Labels(xField)
	if err != nil {
		return nil, err
	}
	if err := checkMetric(data, yField); err != nil {
		return nil, err
	}
	return &Chart{
		ID:            data.Name,
		Kind:          KindLine,
		CategoryField: xField,
		ValueField:    yField,
		Categories:    labels,
		Series:        []Series{{Name: string(yField), Values: pointers(data.Values())}},
		ShowLabels:    true,
		Markers:       true,
		Background:    Transparent,
	}, nil
}

func checkMetric(data *aggregate.Aggregate, f model.Field) error {
	if f != data.Metric {
		return model.NewSchemaError(data.Name, string(f))
	}
	return nil
}

func pointers(values []int64) []*int64 {
	out := make([]*int64, len(values))
	for i := range values {
		v := values[i]
		out[i] = &v
	}
	return out
}

// split pivots rows into one series per color. Categories and colors keep
// first-appearance order; repeated (category, color) pairs are summed.
func split(labels, colors []string, values []int64) ([]string, []Series) {
	var categories, names []string
	for i := range labels {
		if !slices.Contains(categories, labels[i]) {
			categories = append(categories, labels[i])
		}
		if !slices.Contains(names, colors[i]) {
			names = append(names, colors[i])
		}
	}
	series := make([]Series, len(names))
	for s, name := range names {
		series[s] = Series{Name: name, Values: make([]*int64, len(categories))}
	}
	for i := range labels {
		s := slices.Index(names, colors[i])
		c := slices.Index(categories, labels[i])
		if series[s].Values[c] == nil {
			series[s].Values[c] = new(int64)
		}
		*series[s].Values[c] += values[i]
	}
	return categories, series
}
