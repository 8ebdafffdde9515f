package view

import (
	"context"
	"fmt"

	"github.com/okian/cupstats/internal/domain/aggregate"
	"github.com/okian/cupstats/internal/domain/chart"
	"github.com/okian/cupstats/internal/domain/model"
	"github.com/okian/cupstats/pkg/logger"
)

// DefaultPreviewRows is how many raw rows the Dataset Info preview shows.
const DefaultPreviewRows = 5

// Router renders screens. It holds no per-render state, so every Render
// recomputes its aggregates from the engine's dataset.
type Router struct {
	engine      *aggregate.Engine
	previewRows int
	log         logger.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithPreviewRows sets the Dataset Info preview length.
func WithPreviewRows(n int) Option {
	return func(r *Router) {
		if n > 0 {
			r.previewRows = n
		}
	}
}

// WithLogger sets the router logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Router) {
		if l != nil {
			r.log = l
		}
	}
}

// NewRouter creates a Router over the engine.
func NewRouter(engine *aggregate.Engine, opts ...Option) *Router {
	r := &Router{engine: engine, previewRows: DefaultPreviewRows, log: logger.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Engine returns the aggregation engine behind the router.
func (r *Router) Engine() *aggregate.Engine { return r.engine }

// Render draws view v. A SchemaError from any aggregation fails the whole
// screen; empty aggregates render as empty tabs.
func (r *Router) Render(ctx context.Context, v View) (*Screen, error) {
	r.log.Debug(ctx, "render view", logger.String("view", string(v)))
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch v {
	case Home:
		return r.home(), nil
	case DatasetInfo:
		return r.info(), nil
	case Visuals:
		return r.visuals(ctx)
	case Insights:
		return r.insights(ctx)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownView, v)
	}
}

func (r *Router) home() *Screen {
	return &Screen{
		View:  Home,
		Title: "📈 Welcome to the Data Analytics Web App",
		Home: &HomeContent{
			Intro: "This interactive dashboard helps you explore, analyze, and visualize FIFA World Cup match data.",
			Bullets: []string{
				"📄 View dataset structure",
				"📊 Explore visual insights",
				"💡 Understand key findings",
			},
			Cards: []Card{
				{Title: "🔍 Explore match details", Text: "host countries, stadiums, rounds."},
				{Title: "📈 Analyze trends", Text: "goals over years, match frequency."},
				{Title: "⚽ Understand performance", Text: "high-scoring teams, goals conceded."},
			},
		},
	}
}

func (r *Router) info() *Screen {
	info := r.engine.Dataset().Describe(r.previewRows)
	return &Screen{View: DatasetInfo, Title: "📝 Dataset Information", Info: &info}
}

type tabSpec struct {
	name     string
	question string
	query    string
	category model.Field
	color    model.Field
	trend    bool
	notes    []string
}

var tabs = []tabSpec{
	{
		name:     "Host Countries",
		question: "Which Countries hosted world cup most often?",
		query:    aggregate.QueryHosts,
		category: model.FieldCountry,
		notes: []string{
			"Each bar shows how many World Cup matches were played in that country.",
			"Countries with more matches have hosted more games across tournaments.",
		},
	},
	{
		name:     "Stadium with Most Games",
		question: "Which stadium hosts the highest number of games in each country?",
		query:    aggregate.QueryTopStadiumPerCountry,
		category: model.FieldCountry,
		color:    model.FieldStadium,
		notes: []string{
			"For each country, we pick the single stadium that hosted the most games.",
			"Hover to see the stadium name and match count.",
		},
	},
	{
		name:     "Goals over years",
		question: "How have total goals changed across different World Cups?",
		query:    aggregate.QueryGoalsOverTime,
		category: model.FieldYear,
		trend:    true,
		notes: []string{
			"This line shows how total goals scored in a tournament changed over time.",
			"Peaks indicate more attacking tournaments; drops may indicate more defensive eras.",
		},
	},
	{
		name:     "Most Goal Conceded",
		question: "Which team conceded the most goals in World Cups?",
		query:    aggregate.QueryGoalsConceded,
		category: model.FieldTeam,
		notes: []string{
			"Each bar shows the total number of goals conceded by that team across all World Cups in the dataset.",
			"Teams on top have historically weaker defenses or have played many matches.",
		},
	},
	{
		name:     "Stadiums with most Goals",
		question: "Which stadiums have seen most goals scored?",
		query:    aggregate.QueryGoalsAtStadium,
		category: model.FieldStadium,
		notes: []string{
			"These stadiums have witnessed the highest total number of goals.",
			"This depends on both how many matches were played and how high-scoring they were.",
		},
	},
	{
		name:     "Matches per Round",
		question: "Which rounds has the most matches?",
		query:    aggregate.QueryMatchesPerRound,
		category: model.FieldRound,
		notes: []string{
			"Group-stage rounds usually appear at the top because they contain many matches.",
			"Knockout rounds (Quarter-finals, Semi-finals, Final) have fewer matches.",
		},
	},
}

func (r *Router) visuals(ctx context.Context) (*Screen, error) {
	s := &Screen{View: Visuals, Title: "📊 Visuals", Tabs: make([]Tab, 0, len(tabs))}
	for _, spec := range tabs {
		tab, err := r.tab(ctx, spec)
		if err != nil {
			return nil, err
		}
		s.Tabs = append(s.Tabs, tab)
	}
	return s, nil
}

func (r *Router) tab(ctx context.Context, spec tabSpec) (Tab, error) {
	a, err := r.engine.Run(ctx, spec.query)
	empty := aggregate.IsEmptyResult(err)
	if err != nil && !empty {
		return Tab{}, fmt.Errorf("tab %q: %w", spec.name, err)
	}
	if empty {
		r.log.Warn(ctx, "empty aggregate", logger.String("query", spec.query))
	}

	var c *chart.Chart
	if spec.trend {
		c, err = chart.BuildTrendChart(a, spec.category, a.Metric)
	} else {
		opts := []chart.Option{chart.WithTitle(spec.name)}
		if spec.color != "" {
			opts = append(opts, chart.WithColorBy(spec.color))
		}
		c, err = chart.BuildCategoryChart(a, spec.category, a.Metric, opts...)
	}
	if err != nil {
		return Tab{}, fmt.Errorf("tab %q: %w", spec.name, err)
	}
	if spec.trend {
		c.Title = spec.name
	}
	return Tab{
		Name:      spec.name,
		Question:  spec.question,
		Chart:     c,
		Aggregate: a,
		Notes:     spec.notes,
		Empty:     empty,
	}, nil
}

func (r *Router) insights(ctx context.Context) (*Screen, error) {
	kpi, err := r.engine.KPI(ctx)
	if err != nil {
		return nil, fmt.Errorf("kpi: %w", err)
	}
	stadiums, err := r.list(ctx, aggregate.QueryTopStadiums, "%s: %d matches.")
	if err != nil {
		return nil, err
	}
	teams, err := r.list(ctx, aggregate.QueryTopTeams, "%s: %d goals")
	if err != nil {
		return nil, err
	}
	p := r.engine.Params()
	return &Screen{
		View:  Insights,
		Title: "💡 Key insights",
		Insights: &InsightsContent{
			KPI: kpi,
			Metrics: []Metric{
				{Label: "Total Matches Played", Value: int64(kpi.TotalMatches)},
				{Label: "Total Goal Scored", Value: kpi.TotalGoals},
				{Label: "Countries Hosted", Value: int64(kpi.CountriesHosted)},
				{Label: "Total Stadium Used", Value: int64(kpi.StadiumsUsed)},
			},
			TopStadiumsTitle: fmt.Sprintf("🏟️ Top %d Most Used Stadiums", p.TopStadiums),
			TopStadiums:      stadiums,
			TopTeamsTitle:    fmt.Sprintf("⚽ Top %d Highest Scoring Teams", p.TopTeams),
			TopTeams:         teams,
			Summary: []string{
				"Stadium usage varies significantly across World Cups, with a few iconic stadiums hosting the majority of matches.",
				"Several teams have consistently shown strong attacking performance across the years.",
				"The distribution of matches highlights the global spread and evolution of World Cup tournaments.",
			},
		},
	}, nil
}

func (r *Router) list(ctx context.Context, query, format string) ([]string, error) {
	a, err := r.engine.Run(ctx, query)
	if err != nil && !aggregate.IsEmptyResult(err) {
		return nil, fmt.Errorf("%s: %w", query, err)
	}
	out := make([]string, 0, a.Len())
	for _, row := range a.Rows {
		out = append(out, fmt.Sprintf(format, row.Keys[0], row.Value))
	}
	return out, nil
}
