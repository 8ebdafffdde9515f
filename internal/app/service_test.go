package service_test

import (
	"context"
	"errors"
	"testing"

	service "github.com/okian/cupstats/internal/app"
	"github.com/okian/cupstats/internal/domain/aggregate"
	"github.com/okian/cupstats/internal/domain/dataset"
	"github.com/okian/cupstats/internal/domain/model"
	"github.com/okian/cupstats/internal/domain/view"
	"github.com/okian/cupstats/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func pair(year, game int, country, stadium, round, team, opp string, tg, og int) []model.MatchRecord {
	r := model.MatchRecord{
		Year: year, Game: game, Country: country, Stadium: stadium, Round: round,
		Team: team, Opponent: opp, TeamGoals: tg, OpponentGoals: og,
	}
	m := r
	m.Team, m.Opponent, m.TeamGoals, m.OpponentGoals = opp, team, og, tg
	return []model.MatchRecord{r, m}
}

func testDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	var recs []model.MatchRecord
	recs = append(recs, pair(2018, 1, "Russia", "Luzhniki", "Group A", "Russia", "Saudi Arabia", 5, 0)...)
	recs = append(recs, pair(2018, 64, "Russia", "Luzhniki", "Final", "France", "Croatia", 4, 2)...)
	recs = append(recs, pair(2014, 64, "Brazil", "Maracana", "Final", "Germany", "Argentina", 1, 0)...)
	ds, err := dataset.Build(context.Background(), recs)
	if err != nil {
		t.Fatal(err)
	}
	return ds
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New(testDataset(t))

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
			stats := svc.GetStats()
			So(stats["started"], ShouldBeFalse)
			So(stats["rankingOrder"], ShouldEqual, "literal")
			So(stats["rankingLimit"], ShouldEqual, 10)
			So(stats["renderCache"], ShouldBeFalse)
			So(stats["matches"], ShouldEqual, 3)
		})

		Convey("And operations fail until it is started", func() {
			_, err := svc.Render(context.Background(), view.Home)
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			_, err = svc.KPI(context.Background())
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})
	})

	Convey("Given a service without a dataset", t, func() {
		svc := service.New(nil)

		Convey("Then Start fails", func() {
			So(svc.Start(context.Background()), ShouldNotBeNil)
		})
	})
}

func TestService_Operations(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started service", t, func() {
		svc := service.New(testDataset(t), service.WithRankingLimit(2), service.WithTopTeams(3))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When starting twice", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.GetStats()["started"], ShouldBeTrue)
		})

		Convey("When rendering every view", func() {
			for _, v := range svc.Views() {
				screen, err := svc.Render(ctx, v)
				So(err, ShouldBeNil)
				So(screen.View, ShouldEqual, v)
			}
		})

		Convey("When running a ranked aggregate with and without an order override", func() {
			lit, err := svc.Aggregate(ctx, aggregate.QueryGoalsConceded, "")
			So(err, ShouldBeNil)
			So(lit.Len(), ShouldEqual, 2)
			So(lit.Rows[0].Value, ShouldEqual, 0)

			in, err := svc.Aggregate(ctx, aggregate.QueryGoalsConceded, aggregate.OrderIntent)
			So(err, ShouldBeNil)
			So(in.Rows[0].Keys, ShouldResemble, []string{"Saudi Arabia"})
			So(in.Rows[0].Value, ShouldEqual, 5)
		})

		Convey("When running an unknown aggregate", func() {
			_, err := svc.Aggregate(ctx, "attendance", "")
			So(errors.Is(err, aggregate.ErrUnknownQuery), ShouldBeTrue)
		})

		Convey("When reading KPIs, info and charts", func() {
			kpi, err := svc.KPI(ctx)
			So(err, ShouldBeNil)
			So(kpi.TotalGoals, ShouldEqual, 12)

			info := svc.Info()
			So(info.Rows, ShouldEqual, 6)
			So(len(info.Preview), ShouldEqual, 5)

			charts, err := svc.Charts(ctx)
			So(err, ShouldBeNil)
			So(len(charts), ShouldEqual, 6)
			So(len(svc.Queries()), ShouldEqual, 8)
		})

		Convey("When insights use the configured list sizes", func() {
			screen, err := svc.Render(ctx, view.Insights)
			So(err, ShouldBeNil)
			So(len(screen.Insights.TopTeams), ShouldEqual, 3)
		})
	})
}

func TestService_RenderCache(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service with the render cache enabled", t, func() {
		svc := service.New(testDataset(t), service.WithRenderCache(true))
		So(svc.Start(ctx), ShouldBeNil)

		Convey("When rendering the same view twice", func() {
			first, err := svc.Render(ctx, view.Visuals)
			So(err, ShouldBeNil)
			second, err := svc.Render(ctx, view.Visuals)
			So(err, ShouldBeNil)

			Convey("Then the cached screen is returned", func() {
				So(second, ShouldPointTo, first)
				So(svc.GetStats()["cachedScreens"], ShouldEqual, 1)
			})

			Convey("And stopping clears the cache", func() {
				svc.Stop()
				So(svc.GetStats()["cachedScreens"], ShouldEqual, 0)
			})
		})
	})

	Convey("Given a service without the render cache", t, func() {
		svc := service.New(testDataset(t))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("Then every render recomputes an equal screen", func() {
			first, err := svc.Render(ctx, view.Insights)
			So(err, ShouldBeNil)
			second, err := svc.Render(ctx, view.Insights)
			So(err, ShouldBeNil)
			So(second, ShouldNotPointTo, first)
			So(second, ShouldResemble, first)
		})
	})
}

func TestService_SchemaErrors(t *testing.T) {
	ctx := context.Background()

	Convey("Given a dataset whose match table lacks TotalGoals", t, func() {
		recs := pair(2018, 1, "Russia", "Luzhniki", "Group A", "A", "B", 2, 1)
		broken := &dataset.Dataset{Version: "broken", Raw: dataset.NewRawTable(recs), Matches: dataset.NewRawTable(recs)}
		svc := service.New(broken)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("Then the affected view fails with a SchemaError and others render", func() {
			_, err := svc.Render(ctx, view.Insights)
			So(errors.Is(err, model.ErrSchema), ShouldBeTrue)

			_, err = svc.Render(ctx, view.Home)
			So(err, ShouldBeNil)

			_, err = svc.Aggregate(ctx, aggregate.QueryGoalsOverTime, "")
			So(errors.Is(err, model.ErrSchema), ShouldBeTrue)
		})
	})
}

func TestService_Warm(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started service with the render cache enabled", t, func() {
		svc := service.New(testDataset(t), service.WithRenderCache(true))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When the cache is warmed", func() {
			err := svc.Warm(ctx, 2)

			Convey("Then every view is cached", func() {
				So(err, ShouldBeNil)
				So(svc.GetStats()["cachedScreens"], ShouldEqual, len(view.Views))
			})
		})
	})

	Convey("Given a service without the render cache", t, func() {
		svc := service.New(testDataset(t))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("Then warming is a no-op", func() {
			So(svc.Warm(ctx, 2), ShouldBeNil)
			So(svc.GetStats()["cachedScreens"], ShouldEqual, 0)
		})
	})

	Convey("Given a cached service whose match table lacks TotalGoals", t, func() {
		recs := pair(2018, 1, "Russia", "Luzhniki", "Group A", "A", "B", 2, 1)
		broken := &dataset.Dataset{Version: "broken", Raw: dataset.NewRawTable(recs), Matches: dataset.NewRawTable(recs)}
		svc := service.New(broken, service.WithRenderCache(true))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("Then warming reports the failed views and caches the rest", func() {
			err := svc.Warm(ctx, 1)
			So(errors.Is(err, model.ErrSchema), ShouldBeTrue)
			So(svc.GetStats()["cachedScreens"], ShouldBeGreaterThan, 0)
		})
	})

	Convey("Given a service that was never started", t, func() {
		svc := service.New(testDataset(t), service.WithRenderCache(true))

		Convey("Then warming fails with ErrNotStarted", func() {
			So(errors.Is(svc.Warm(ctx, 1), service.ErrNotStarted), ShouldBeTrue)
		})
	})
}
