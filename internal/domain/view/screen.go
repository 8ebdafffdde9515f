package view

import (
	"github.com/okian/cupstats/internal/domain/aggregate"
	"github.com/okian/cupstats/internal/domain/chart"
	"github.com/okian/cupstats/internal/domain/dataset"
)

// Screen is everything one view renders. Exactly one content block is set.
type Screen struct {
	View     View             `json:"view"`
	Title    string           `json:"title"`
	Home     *HomeContent     `json:"home,omitempty"`
	Info     *dataset.Info    `json:"info,omitempty"`
	Tabs     []Tab            `json:"tabs,omitempty"`
	Insights *InsightsContent `json:"insights,omitempty"`
}

// HomeContent is the landing screen.
type HomeContent struct {
	Intro   string   `json:"intro"`
	Bullets []string `json:"bullets"`
	Cards   []Card   `json:"cards"`
}

// Card is an info box.
type Card struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// Tab is one chart of the Visuals screen.
type Tab struct {
	Name      string               `json:"name"`
	Question  string               `json:"question"`
	Chart     *chart.Chart         `json:"chart"`
	Aggregate *aggregate.Aggregate `json:"aggregate"`
	Notes     []string             `json:"notes"`
	Empty     bool                 `json:"empty"`
}

// Metric is a labeled KPI value.
type Metric struct {
	Label string `json:"label"`
	Value int64  `json:"value"`
}

// InsightsContent is the key-findings screen.
type InsightsContent struct {
	KPI              aggregate.KPI `json:"kpi"`
	Metrics          []Metric      `json:"metrics"`
	TopStadiumsTitle string        `json:"top_stadiums_title"`
	TopStadiums      []string      `json:"top_stadiums"`
	TopTeamsTitle    string        `json:"top_teams_title"`
	TopTeams         []string      `json:"top_teams"`
	Summary          []string      `json:"summary"`
}
