package aggregate

import (
	"fmt"
	"strings"

	"github.com/okian/cupstats/internal/domain/dataset"
	"github.com/okian/cupstats/internal/domain/model"
)

// Metric labels of the derived tables.
const (
	MetricMatchesHosted model.Field = "MatchesHosted"
	MetricMatchCount    model.Field = "MatchCount"
	MetricGoalsConceded model.Field = "GoalsConceded"
	MetricMatches       model.Field = "Matches"
)

// Registered query names.
const (
	QueryHosts                = "hosts"
	QueryTopStadiumPerCountry = "top-stadium-per-country"
	QueryGoalsOverTime        = "goals-over-time"
	QueryGoalsConceded        = "goals-conceded"
	QueryGoalsAtStadium       = "goals-at-stadium"
	QueryMatchesPerRound      = "matches-per-round"
	QueryTopStadiums          = "top-stadiums"
	QueryTopTeams             = "top-teams"
)

// Order selects how the bounded rankings pick their rows.
type Order string

const (
	// OrderLiteral sorts ascending and keeps the first rows: the lowest values.
	OrderLiteral Order = "literal"
	// OrderIntent sorts descending and keeps the first rows: the highest values.
	OrderIntent Order = "intent"
)

// ParseOrder parses a ranking order; empty selects OrderLiteral.
func ParseOrder(s string) (Order, error) {
	switch o := Order(strings.ToLower(strings.TrimSpace(s))); o {
	case "":
		return OrderLiteral, nil
	case OrderLiteral, OrderIntent:
		return o, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownOrder, s)
	}
}

func (o Order) rank(a *Aggregate, limit int) *Aggregate {
	if o == OrderIntent {
		return a.SortDescending().Head(limit)
	}
	return a.SortAscending().Head(limit)
}

// Hosts counts matches per host country, ascending by count.
func Hosts(ds *dataset.Dataset) (*Aggregate, error) {
	a, err := GroupBy(ds.Matches, QueryHosts, MetricMatchesHosted, CountRows, model.FieldCountry)
	if err != nil {
		return nil, err
	}
	return a.SortAscending(), nil
}

// TopStadiumPerCountry keeps, per country, the stadium that hosted the most
// matches. On a tie the alphabetically first stadium wins.
func TopStadiumPerCountry(ds *dataset.Dataset) (*Aggregate, error) {
	a, err := GroupBy(ds.Matches, QueryTopStadiumPerCountry, MetricMatchCount, CountRows,
		model.FieldCountry, model.FieldStadium)
	if err != nil {
		return nil, err
	}
	top, err := a.MaxPer(model.FieldCountry)
	if err != nil {
		return nil, err
	}
	return top.SortAscending(), nil
}

// GoalsOverTime sums TotalGoals per season in chronological order.
func GoalsOverTime(ds *dataset.Dataset) (*Aggregate, error) {
	return GroupBy(ds.Matches, QueryGoalsOverTime, model.FieldTotalGoals,
		SumOf(model.FieldTotalGoals), model.FieldYear)
}

// GoalsConceded sums Opponent G per team over the raw table and keeps limit
// rows picked by order.
func GoalsConceded(ds *dataset.Dataset, order Order, limit int) (*Aggregate, error) {
	a, err := GroupBy(ds.Raw, QueryGoalsConceded, MetricGoalsConceded,
		SumOf(model.FieldOpponentGoals), model.FieldTeam)
	if err != nil {
		return nil, err
	}
	return order.rank(a, limit), nil
}

// GoalsAtStadium sums TotalGoals per stadium and keeps limit rows picked by order.
func GoalsAtStadium(ds *dataset.Dataset, order Order, limit int) (*Aggregate, error) {
	a, err := GroupBy(ds.Matches, QueryGoalsAtStadium, model.FieldTotalGoals,
		SumOf(model.FieldTotalGoals), model.FieldStadium)
	if err != nil {
		return nil, err
	}
	return order.rank(a, limit), nil
}

// MatchesPerRound counts matches per round, ascending by count.
func MatchesPerRound(ds *dataset.Dataset) (*Aggregate, error) {
	a, err := GroupBy(ds.Matches, QueryMatchesPerRound, MetricMatchCount, CountRows, model.FieldRound)
	if err != nil {
		return nil, err
	}
	return a.SortAscending(), nil
}

// TopStadiums returns the n most used stadiums, most used first.
func TopStadiums(ds *dataset.Dataset, n int) (*Aggregate, error) {
	a, err := ValueCounts(ds.Matches, QueryTopStadiums, MetricMatches, model.FieldStadium)
	if err != nil {
		return nil, err
	}
	return a.Head(n), nil
}

// TopTeams returns the n teams with the most goals scored over the raw table.
func TopTeams(ds *dataset.Dataset, n int) (*Aggregate, error) {
	a, err := GroupBy(ds.Raw, QueryTopTeams, model.FieldTeamGoals,
		SumOf(model.FieldTeamGoals), model.FieldTeam)
	if err != nil {
		return nil, err
	}
	return a.SortDescending().Head(n), nil
}

// KPI is the headline summary of the deduplicated table.
type KPI struct {
	TotalMatches    int   `json:"total_matches"`
	TotalGoals      int64 `json:"total_goals"`
	CountriesHosted int   `json:"countries_hosted"`
	StadiumsUsed    int   `json:"stadiums_used"`
}

// Summary computes the KPI block.
func Summary(ds *dataset.Dataset) (KPI, error) {
	t := ds.Matches
	goals, err := Sum(t, model.FieldTotalGoals)
	if err != nil {
		return KPI{}, err
	}
	countries, err := Distinct(t, model.FieldCountry)
	if err != nil {
		return KPI{}, err
	}
	stadiums, err := Distinct(t, model.FieldStadium)
	if err != nil {
		return KPI{}, err
	}
	return KPI{
		TotalMatches:    t.Len(),
		TotalGoals:      goals,
		CountriesHosted: countries,
		StadiumsUsed:    stadiums,
	}, nil
}
