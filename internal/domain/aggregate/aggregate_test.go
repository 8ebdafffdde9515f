package aggregate_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/okian/cupstats/internal/domain/aggregate"
	"github.com/okian/cupstats/internal/domain/dataset"
	"github.com/okian/cupstats/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// pair returns both perspective rows of one physical match.
func pair(year, game int, country, stadium, round, team, opp string, tg, og int) []model.MatchRecord {
	r := model.MatchRecord{
		Year: year, Game: game, Country: country, Stadium: stadium, Round: round,
		Team: team, Opponent: opp, TeamGoals: tg, OpponentGoals: og,
	}
	m := r
	m.Team, m.Opponent, m.TeamGoals, m.OpponentGoals = opp, team, og, tg
	return []model.MatchRecord{r, m}
}

func fixture(t *testing.T) *dataset.Dataset {
	t.Helper()
	var recs []model.MatchRecord
	recs = append(recs, pair(2018, 1, "Russia", "Luzhniki", "Group A", "Russia", "Saudi Arabia", 5, 0)...)
	recs = append(recs, pair(2018, 2, "Russia", "Ekaterinburg", "Group A", "Egypt", "Uruguay", 0, 1)...)
	recs = append(recs, pair(2018, 64, "Russia", "Luzhniki", "Final", "France", "Croatia", 4, 2)...)
	recs = append(recs, pair(2018, 3, "Russia", "Saint Petersburg", "Group B", "Morocco", "Iran", 0, 1)...)
	recs = append(recs, pair(2014, 1, "Brazil", "Arena Corinthians", "Group A", "Brazil", "Croatia", 3, 1)...)
	recs = append(recs, pair(2014, 64, "Brazil", "Maracana", "Final", "Germany", "Argentina", 1, 0)...)
	recs = append(recs, pair(2014, 2, "Brazil", "Maracana", "Group F", "Argentina", "Bosnia", 2, 1)...)
	ds, err := dataset.Build(context.Background(), recs)
	if err != nil {
		t.Fatal(err)
	}
	return ds
}

type pairRow struct {
	key   string
	value int64
}

func flatten(a *aggregate.Aggregate) []pairRow {
	out := make([]pairRow, 0, a.Len())
	for _, r := range a.Rows {
		k := r.Keys[0]
		for _, extra := range r.Keys[1:] {
			k += "/" + extra
		}
		out = append(out, pairRow{key: k, value: r.Value})
	}
	return out
}

func TestNamedQueries(t *testing.T) {
	Convey("Given seven matches across two tournaments", t, func() {
		ds := fixture(t)
		So(ds.Matches.Len(), ShouldEqual, 7)

		Convey("Hosts counts matches per country ascending and sums to the match count", func() {
			a, err := aggregate.Hosts(ds)
			So(err, ShouldBeNil)
			So(a.Keys, ShouldResemble, []model.Field{model.FieldCountry})
			So(a.Metric, ShouldEqual, aggregate.MetricMatchesHosted)
			So(flatten(a), ShouldResemble, []pairRow{{"Brazil", 3}, {"Russia", 4}})
			So(a.Total(), ShouldEqual, ds.Matches.Len())
		})

		Convey("Top stadium per country keeps the busiest stadium", func() {
			a, err := aggregate.TopStadiumPerCountry(ds)
			So(err, ShouldBeNil)
			So(a.Keys, ShouldResemble, []model.Field{model.FieldCountry, model.FieldStadium})
			So(flatten(a), ShouldResemble, []pairRow{{"Brazil/Maracana", 2}, {"Russia/Luzhniki", 2}})
		})

		Convey("Goals over time is chronological", func() {
			a, err := aggregate.GoalsOverTime(ds)
			So(err, ShouldBeNil)
			So(a.Metric, ShouldEqual, model.FieldTotalGoals)
			So(flatten(a), ShouldResemble, []pairRow{{"2014", 8}, {"2018", 13}})
		})

		Convey("Goals conceded in literal order keeps the ten lowest", func() {
			a, err := aggregate.GoalsConceded(ds, aggregate.OrderLiteral, 10)
			So(err, ShouldBeNil)
			So(flatten(a), ShouldResemble, []pairRow{
				{"Germany", 0}, {"Iran", 0}, {"Russia", 0}, {"Uruguay", 0},
				{"Brazil", 1}, {"Egypt", 1}, {"Morocco", 1},
				{"Argentina", 2}, {"Bosnia", 2}, {"France", 2},
			})
		})

		Convey("Goals conceded in intent order keeps the highest", func() {
			a, err := aggregate.GoalsConceded(ds, aggregate.OrderIntent, 3)
			So(err, ShouldBeNil)
			So(flatten(a), ShouldResemble, []pairRow{{"Croatia", 7}, {"Saudi Arabia", 5}, {"Argentina", 2}})
		})

		Convey("Goals at stadium follows the same two orders", func() {
			lit, err := aggregate.GoalsAtStadium(ds, aggregate.OrderLiteral, 10)
			So(err, ShouldBeNil)
			So(flatten(lit), ShouldResemble, []pairRow{
				{"Ekaterinburg", 1}, {"Saint Petersburg", 1}, {"Arena Corinthians", 4}, {"Maracana", 4}, {"Luzhniki", 11},
			})

			in, err := aggregate.GoalsAtStadium(ds, aggregate.OrderIntent, 2)
			So(err, ShouldBeNil)
			So(flatten(in), ShouldResemble, []pairRow{{"Luzhniki", 11}, {"Arena Corinthians", 4}})
		})

		Convey("Matches per round is ascending and sums to the match count", func() {
			a, err := aggregate.MatchesPerRound(ds)
			So(err, ShouldBeNil)
			So(flatten(a), ShouldResemble, []pairRow{{"Group B", 1}, {"Group F", 1}, {"Final", 2}, {"Group A", 3}})
			So(a.Total(), ShouldEqual, ds.Matches.Len())
		})

		Convey("Top stadiums is descending with ties in first-appearance order", func() {
			a, err := aggregate.TopStadiums(ds, 3)
			So(err, ShouldBeNil)
			So(flatten(a), ShouldResemble, []pairRow{{"Luzhniki", 2}, {"Maracana", 2}, {"Ekaterinburg", 1}})

			Convey("And every entry matches its stadium count without repeats", func() {
				counts, err := aggregate.GroupBy(ds.Matches, "stadiums", aggregate.MetricMatchCount,
					aggregate.CountRows, model.FieldStadium)
				So(err, ShouldBeNil)
				byName := map[string]int64{}
				for _, r := range counts.Rows {
					byName[r.Keys[0]] = r.Value
				}
				seen := map[string]bool{}
				for _, r := range a.Rows {
					So(seen[r.Keys[0]], ShouldBeFalse)
					seen[r.Keys[0]] = true
					So(r.Value, ShouldEqual, byName[r.Keys[0]])
				}
			})
		})

		Convey("Top teams ranks raw goals scored", func() {
			a, err := aggregate.TopTeams(ds, 5)
			So(err, ShouldBeNil)
			So(a.Metric, ShouldEqual, model.FieldTeamGoals)
			So(flatten(a), ShouldResemble, []pairRow{
				{"Russia", 5}, {"France", 4}, {"Brazil", 3}, {"Croatia", 3}, {"Argentina", 2},
			})
		})

		Convey("Summary reports the KPI block", func() {
			kpi, err := aggregate.Summary(ds)
			So(err, ShouldBeNil)
			So(kpi, ShouldResemble, aggregate.KPI{
				TotalMatches: 7, TotalGoals: 21, CountriesHosted: 2, StadiumsUsed: 5,
			})
		})
	})
}

func TestScenario(t *testing.T) {
	Convey("Given a mirrored match and a goalless match in Russia", t, func() {
		recs := pair(2018, 1, "Russia", "Luzhniki", "Group A", "A", "B", 2, 1)
		recs = append(recs, model.MatchRecord{
			Year: 2018, Game: 2, Country: "Russia", Stadium: "Luzhniki", Round: "Group A", Team: "C", Opponent: "D",
		})
		ds, err := dataset.Build(context.Background(), recs)
		So(err, ShouldBeNil)

		Convey("Then Hosts yields Russia with two matches", func() {
			a, err := aggregate.Hosts(ds)
			So(err, ShouldBeNil)
			So(flatten(a), ShouldResemble, []pairRow{{"Russia", 2}})
		})

		Convey("And the top stadium of Russia is Luzhniki with two matches", func() {
			a, err := aggregate.TopStadiumPerCountry(ds)
			So(err, ShouldBeNil)
			So(a.Rows, ShouldResemble, []aggregate.Row{{Keys: []string{"Russia", "Luzhniki"}, Value: 2}})
		})
	})
}

func TestTiesAndEdges(t *testing.T) {
	ctx := context.Background()

	Convey("Given a country whose stadiums tie", t, func() {
		var recs []model.MatchRecord
		recs = append(recs, pair(1930, 1, "Uruguay", "Pocitos", "Group 1", "France", "Mexico", 4, 1)...)
		recs = append(recs, pair(1930, 2, "Uruguay", "Centenario", "Group 1", "Uruguay", "Peru", 1, 0)...)
		ds, err := dataset.Build(ctx, recs)
		So(err, ShouldBeNil)

		Convey("Then the alphabetically first stadium wins", func() {
			a, err := aggregate.TopStadiumPerCountry(ds)
			So(err, ShouldBeNil)
			So(flatten(a), ShouldResemble, []pairRow{{"Uruguay/Centenario", 1}})
		})
	})

	Convey("Given numeric keys", t, func() {
		var recs []model.MatchRecord
		recs = append(recs, pair(2002, 1, "Japan", "Yokohama", "Final", "Brazil", "Germany", 2, 0)...)
		recs = append(recs, pair(930, 1, "Uruguay", "Centenario", "Final", "Uruguay", "Argentina", 4, 2)...)
		ds, err := dataset.Build(ctx, recs)
		So(err, ShouldBeNil)

		Convey("Then they group numerically rather than lexically", func() {
			a, err := aggregate.GoalsOverTime(ds)
			So(err, ShouldBeNil)
			So(flatten(a), ShouldResemble, []pairRow{{"930", 6}, {"2002", 2}})
		})
	})

	Convey("Given rows with an empty stadium", t, func() {
		recs := pair(1934, 1, "Italy", "", "Round of 16", "Italy", "USA", 7, 1)
		recs = append(recs, pair(1934, 2, "Italy", "Littoriale", "Round of 16", "Spain", "Brazil", 3, 1)...)
		ds, err := dataset.Build(ctx, recs)
		So(err, ShouldBeNil)

		Convey("Then they are left out of stadium groups and distinct counts", func() {
			a, err := aggregate.GoalsAtStadium(ds, aggregate.OrderLiteral, 10)
			So(err, ShouldBeNil)
			So(flatten(a), ShouldResemble, []pairRow{{"Littoriale", 4}})

			kpi, err := aggregate.Summary(ds)
			So(err, ShouldBeNil)
			So(kpi.StadiumsUsed, ShouldEqual, 1)
			So(kpi.TotalMatches, ShouldEqual, 2)
		})
	})

	Convey("Given a dataset whose match table lacks TotalGoals", t, func() {
		recs := pair(2018, 1, "Russia", "Luzhniki", "Group A", "A", "B", 2, 1)
		broken := &dataset.Dataset{Raw: dataset.NewRawTable(recs), Matches: dataset.NewRawTable(recs)}

		Convey("Then goal sums fail with a SchemaError", func() {
			a, err := aggregate.GoalsOverTime(broken)
			So(errors.Is(err, model.ErrSchema), ShouldBeTrue)
			So(a, ShouldBeNil)

			_, err = aggregate.GoalsAtStadium(broken, aggregate.OrderLiteral, 10)
			var missing *model.SchemaError
			So(errors.As(err, &missing), ShouldBeTrue)
			So(missing.Field, ShouldEqual, string(model.FieldTotalGoals))

			_, err = aggregate.GroupBy(broken.Matches, "x", "Goals",
				aggregate.SumOf(model.FieldTotalGoals), model.FieldYear)
			So(errors.Is(err, model.ErrSchema), ShouldBeTrue)

			_, err = aggregate.Summary(broken)
			var se *model.SchemaError
			So(errors.As(err, &se), ShouldBeTrue)
			So(se.Field, ShouldEqual, string(model.FieldTotalGoals))
		})

		Convey("And counts still work", func() {
			a, err := aggregate.Hosts(broken)
			So(err, ShouldBeNil)
			So(a.Total(), ShouldEqual, 2)
		})
	})

	Convey("Given an aggregate", t, func() {
		a := &aggregate.Aggregate{
			Name: "x", Keys: []model.Field{model.FieldTeam}, Metric: "Goals",
			Rows: []aggregate.Row{{Keys: []string{"A"}, Value: 1}, {Keys: []string{"B"}, Value: 2}},
		}

		Convey("Then labels of a missing field fail with a SchemaError", func() {
			_, err := a.Labels(model.FieldStadium)
			So(errors.Is(err, model.ErrSchema), ShouldBeTrue)
			labels, err := a.Labels(model.FieldTeam)
			So(err, ShouldBeNil)
			So(labels, ShouldResemble, []string{"A", "B"})
		})

		Convey("And sorting does not mutate the receiver", func() {
			d := a.SortDescending()
			So(d.Values(), ShouldResemble, []int64{2, 1})
			So(a.Values(), ShouldResemble, []int64{1, 2})
			So(a.Head(-3).Empty(), ShouldBeTrue)
			So(a.Head(10).Len(), ShouldEqual, 2)
		})

		Convey("And Has covers keys and metric", func() {
			So(a.Has(model.FieldTeam), ShouldBeTrue)
			So(a.Has("Goals"), ShouldBeTrue)
			So(a.Has(model.FieldYear), ShouldBeFalse)
			So(a.Fields(), ShouldResemble, []model.Field{model.FieldTeam, "Goals"})
		})
	})
}

func TestMissingCells(t *testing.T) {
	Convey("Given a match whose Opponent G cell was empty", t, func() {
		recs := pair(2018, 1, "Russia", "Luzhniki", "Group A", "A", "B", 2, 1)
		gap := model.MatchRecord{
			Year: 2018, Game: 2, Country: "Russia", Stadium: "Kazan", Round: "Group B",
			Team: "C", Opponent: "D", TeamGoals: 2,
			Blank: model.FieldSet(0).With(model.FieldOpponentGoals),
		}
		ds, err := dataset.Build(context.Background(), append(recs, gap))
		So(err, ShouldBeNil)

		Convey("Then goal sums skip the missing total", func() {
			a, err := aggregate.GoalsOverTime(ds)
			So(err, ShouldBeNil)
			So(flatten(a), ShouldResemble, []pairRow{{"2018", 3}})

			kpi, err := aggregate.Summary(ds)
			So(err, ShouldBeNil)
			So(kpi.TotalGoals, ShouldEqual, 3)
			So(kpi.TotalMatches, ShouldEqual, 2)
		})

		Convey("And the stadium still appears with nothing summed", func() {
			a, err := aggregate.GoalsAtStadium(ds, aggregate.OrderLiteral, 10)
			So(err, ShouldBeNil)
			So(flatten(a), ShouldResemble, []pairRow{{"Kazan", 0}, {"Luzhniki", 3}})
		})

		Convey("And the team that scored keeps its goals", func() {
			a, err := aggregate.TopTeams(ds, 5)
			So(err, ShouldBeNil)
			So(a.Rows[0].Keys, ShouldResemble, []string{"A"})
			So(a.Total(), ShouldEqual, 5)
		})
	})
}

func TestEmptyRows(t *testing.T) {
	Convey("Given an empty dataset", t, func() {
		ds, err := dataset.Build(context.Background(), nil)
		So(err, ShouldBeNil)

		Convey("Then every query yields a non-nil empty row slice", func() {
			a, err := aggregate.TopStadiumPerCountry(ds)
			So(err, ShouldBeNil)
			So(a.Rows, ShouldNotBeNil)
			So(a.Rows, ShouldBeEmpty)

			b, err := json.Marshal(a)
			So(err, ShouldBeNil)
			So(string(b), ShouldContainSubstring, `"rows":[]`)
		})
	})
}

func TestEngine(t *testing.T) {
	ctx := context.Background()

	Convey("Given an engine over the fixture", t, func() {
		ds := fixture(t)
		e := aggregate.NewEngine(ds)

		Convey("Then defaults match the documented bounds", func() {
			So(e.Params(), ShouldResemble, aggregate.Params{
				Order: aggregate.OrderLiteral, Limit: 10, TopStadiums: 3, TopTeams: 5,
			})
			So(e.Dataset(), ShouldEqual, ds)
		})

		Convey("Then every registered query runs and is idempotent", func() {
			for _, q := range aggregate.Queries() {
				first, err := e.Run(ctx, q.Name)
				So(err, ShouldBeNil)
				second, err := e.Run(ctx, q.Name)
				So(err, ShouldBeNil)
				So(second, ShouldResemble, first)
				So(first.Name, ShouldEqual, q.Name)
			}
		})

		Convey("Then options change the bounded rankings", func() {
			e := aggregate.NewEngine(ds, aggregate.WithOrder(aggregate.OrderIntent), aggregate.WithLimit(1),
				aggregate.WithTopStadiums(1), aggregate.WithTopTeams(2))
			a, err := e.Run(ctx, aggregate.QueryGoalsConceded)
			So(err, ShouldBeNil)
			So(flatten(a), ShouldResemble, []pairRow{{"Croatia", 7}})

			a, err = e.Run(ctx, aggregate.QueryTopStadiums)
			So(err, ShouldBeNil)
			So(a.Len(), ShouldEqual, 1)

			a, err = e.Run(ctx, aggregate.QueryTopTeams)
			So(err, ShouldBeNil)
			So(a.Len(), ShouldEqual, 2)
		})

		Convey("Then an unknown query is reported", func() {
			_, err := e.Run(ctx, "attendance")
			So(errors.Is(err, aggregate.ErrUnknownQuery), ShouldBeTrue)
		})

		Convey("Then KPI matches the summary", func() {
			kpi, err := e.KPI(ctx)
			So(err, ShouldBeNil)
			So(kpi.TotalMatches, ShouldEqual, 7)
		})

		Convey("Then a cancelled context stops the run", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := e.Run(cctx, aggregate.QueryHosts)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})

	Convey("Given an empty dataset", t, func() {
		ds, err := dataset.Build(ctx, nil)
		So(err, ShouldBeNil)
		e := aggregate.NewEngine(ds)

		Convey("Then queries return an empty aggregate with a warning", func() {
			a, err := e.Run(ctx, aggregate.QueryHosts)
			So(a, ShouldNotBeNil)
			So(a.Empty(), ShouldBeTrue)
			So(aggregate.IsEmptyResult(err), ShouldBeTrue)
			var w *aggregate.EmptyResultWarning
			So(errors.As(err, &w), ShouldBeTrue)
			So(w.Aggregate, ShouldEqual, aggregate.QueryHosts)
		})

		Convey("And KPI is all zeros", func() {
			kpi, err := e.KPI(ctx)
			So(err, ShouldBeNil)
			So(kpi, ShouldResemble, aggregate.KPI{})
		})
	})
}

func TestParseOrder(t *testing.T) {
	Convey("Given ranking order names", t, func() {
		o, err := aggregate.ParseOrder("")
		So(err, ShouldBeNil)
		So(o, ShouldEqual, aggregate.OrderLiteral)

		o, err = aggregate.ParseOrder(" Intent ")
		So(err, ShouldBeNil)
		So(o, ShouldEqual, aggregate.OrderIntent)

		_, err = aggregate.ParseOrder("random")
		So(errors.Is(err, aggregate.ErrUnknownOrder), ShouldBeTrue)
	})
}
