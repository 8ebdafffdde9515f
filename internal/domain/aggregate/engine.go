package aggregate

import (
	"context"
	"fmt"
	"slices"

	"github.com/okian/cupstats/internal/domain/dataset"
)

// Params bound the ranked queries.
type Params struct {
	Order       Order `json:"order"`
	Limit       int   `json:"limit"`
	TopStadiums int   `json:"top_stadiums"`
	TopTeams    int   `json:"top_teams"`
}

// Default bounds of the ranked queries.
const (
	DefaultLimit       = 10
	DefaultTopStadiums = 3
	DefaultTopTeams    = 5
)

// DefaultParams returns the bounds used when no option overrides them.
func DefaultParams() Params {
	return Params{
		Order:       OrderLiteral,
		Limit:       DefaultLimit,
		TopStadiums: DefaultTopStadiums,
		TopTeams:    DefaultTopTeams,
	}
}

// Query describes a registered aggregation.
type Query struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Table       string `json:"table"`
	Description string `json:"description"`
	Ranked      bool   `json:"ranked"`

	run func(ds *dataset.Dataset, p Params) (*Aggregate, error)
}

var registry = []Query{
	{
		Name: QueryHosts, Title: "Host Countries", Table: dataset.MatchesTable,
		Description: "Matches hosted per country, ascending.",
		run:         func(ds *dataset.Dataset, _ Params) (*Aggregate, error) { return Hosts(ds) },
	},
	{
		Name: QueryTopStadiumPerCountry, Title: "Stadium with Most Games", Table: dataset.MatchesTable,
		Description: "Busiest stadium of every host country, ascending by match count.",
		run:         func(ds *dataset.Dataset, _ Params) (*Aggregate, error) { return TopStadiumPerCountry(ds) },
	},
	{
		Name: QueryGoalsOverTime, Title: "Goals over years", Table: dataset.MatchesTable,
		Description: "Total goals per season, chronological.",
		run:         func(ds *dataset.Dataset, _ Params) (*Aggregate, error) { return GoalsOverTime(ds) },
	},
	{
		Name: QueryGoalsConceded, Title: "Most Goal Conceded", Table: dataset.RawTable, Ranked: true,
		Description: "Goals conceded per team, bounded ranking.",
		run: func(ds *dataset.Dataset, p Params) (*Aggregate, error) {
			return GoalsConceded(ds, p.Order, p.Limit)
		},
	},
	{
		Name: QueryGoalsAtStadium, Title: "Stadiums with most Goals", Table: dataset.MatchesTable, Ranked: true,
		Description: "Total goals per stadium, bounded ranking.",
		run: func(ds *dataset.Dataset, p Params) (*Aggregate, error) {
			return GoalsAtStadium(ds, p.Order, p.Limit)
		},
	},
	{
		Name: QueryMatchesPerRound, Title: "Matches per Round", Table: dataset.MatchesTable,
		Description: "Matches per round, ascending.",
		run:         func(ds *dataset.Dataset, _ Params) (*Aggregate, error) { return MatchesPerRound(ds) },
	},
	{
		Name: QueryTopStadiums, Title: "Top Most Used Stadiums", Table: dataset.MatchesTable,
		Description: "Most used stadiums, descending.",
		run: func(ds *dataset.Dataset, p Params) (*Aggregate, error) {
			return TopStadiums(ds, p.TopStadiums)
		},
	},
	{
		Name: QueryTopTeams, Title: "Top Highest Scoring Teams", Table: dataset.RawTable,
		Description: "Teams with the most goals scored, descending.",
		run: func(ds *dataset.Dataset, p Params) (*Aggregate, error) {
			return TopTeams(ds, p.TopTeams)
		},
	},
}

// Queries lists the registered aggregations in display order.
func Queries() []Query {
	return slices.Clone(registry)
}

// Lookup finds a registered aggregation by name.
func Lookup(name string) (Query, error) {
	for _, q := range registry {
		if q.Name == name {
			return q, nil
		}
	}
	return Query{}, fmt.Errorf("%w: %q", ErrUnknownQuery, name)
}

// Engine runs registered aggregations against one dataset.
type Engine struct {
	ds     *dataset.Dataset
	params Params
}

// Option configures an Engine.
type Option func(*Engine)

// WithOrder sets the ranking order of the bounded rankings.
func WithOrder(o Order) Option {
	return func(e *Engine) {
		if o != "" {
			e.params.Order = o
		}
	}
}

// WithLimit sets how many rows the bounded rankings keep.
func WithLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.params.Limit = n
		}
	}
}

// WithTopStadiums sets the length of the most-used stadium list.
func WithTopStadiums(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.params.TopStadiums = n
		}
	}
}

// WithTopTeams sets the length of the highest-scoring team list.
func WithTopTeams(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.params.TopTeams = n
		}
	}
}

// NewEngine creates an Engine over ds.
func NewEngine(ds *dataset.Dataset, opts ...Option) *Engine {
	e := &Engine{ds: ds, params: DefaultParams()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Dataset returns the dataset the engine reads.
func (e *Engine) Dataset() *dataset.Dataset { return e.ds }

// Params returns the configured bounds.
func (e *Engine) Params() Params { return e.params }

// Run executes the named aggregation with the configured bounds.
func (e *Engine) Run(ctx context.Context, name string) (*Aggregate, error) {
	return e.RunWith(ctx, name, e.params)
}

// RunWith executes the named aggregation with explicit bounds. An empty
// result comes back together with an *EmptyResultWarning.
func (e *Engine) RunWith(ctx context.Context, name string, p Params) (*Aggregate, error) {
	q, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a, err := q.run(e.ds, p)
	if err != nil {
		return nil, err
	}
	if a.Empty() {
		return a, &EmptyResultWarning{Aggregate: name}
	}
	return a, nil
}

// KPI computes the headline summary.
func (e *Engine) KPI(ctx context.Context) (KPI, error) {
	if err := ctx.Err(); err != nil {
		return KPI{}, err
	}
	return Summary(e.ds)
}
