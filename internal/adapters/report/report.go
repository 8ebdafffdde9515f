// Package report renders aggregates, KPIs, dataset info and views as
// terminal tables.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/okian/cupstats/internal/domain/aggregate"
	"github.com/okian/cupstats/internal/domain/dataset"
	"github.com/okian/cupstats/internal/domain/view"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

func cells(names ...string) []any {
	out := make([]any, len(names))
	for i, n := range names {
		out[i] = n
	}
	return out
}

// PrintKPI writes the headline metrics as a two-column table.
func PrintKPI(w io.Writer, k aggregate.KPI) error {
	table := newTable(w)
	table.Header("METRIC", "VALUE")
	rows := [][]string{
		{"Total Matches Played", strconv.Itoa(k.TotalMatches)},
		{"Total Goal Scored", strconv.FormatInt(k.TotalGoals, 10)},
		{"Countries Hosted", strconv.Itoa(k.CountriesHosted)},
		{"Total Stadium Used", strconv.Itoa(k.StadiumsUsed)},
	}
	for _, r := range rows {
		if err := table.Append(r[0], r[1]); err != nil {
			return err
		}
	}
	return table.Render()
}

// PrintAggregate writes one row per group: the key labels then the metric.
func PrintAggregate(w io.Writer, a *aggregate.Aggregate) error {
	fmt.Fprintf(w, "\n%s\n\n", a.Name)
	table := newTable(w)
	names := make([]string, 0, len(a.Keys)+1)
	for _, k := range a.Keys {
		names = append(names, string(k))
	}
	names = append(names, string(a.Metric))
	table.Header(cells(names...)...)

	for _, row := range a.Rows {
		vals := make([]string, 0, len(row.Keys)+1)
		vals = append(vals, row.Keys...)
		vals = append(vals, strconv.FormatInt(row.Value, 10))
		if err := table.Append(cells(vals...)...); err != nil {
			return err
		}
	}
	return table.Render()
}

// PrintInfo writes the dataset overview: preview, shape, dtypes, missing
// values and summary statistics.
func PrintInfo(w io.Writer, info dataset.Info) error {
	fmt.Fprintf(w, "\nPreview\n\n")
	preview := newTable(w)
	names := make([]string, 0, len(info.DTypes))
	for _, c := range info.DTypes {
		names = append(names, string(c.Field))
	}
	preview.Header(cells(names...)...)
	for _, r := range info.Preview {
		if err := preview.Append(cells(r.Cells()...)...); err != nil {
			return err
		}
	}
	if err := preview.Render(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nShape: %d rows, %d columns\n\n", info.Rows, info.Columns)

	columns := newTable(w)
	columns.Header("COLUMN", "DTYPE", "MISSING")
	for i, c := range info.DTypes {
		missing := 0
		if i < len(info.Missing) {
			missing = info.Missing[i].Count
		}
		if err := columns.Append(string(c.Field), c.DType, strconv.Itoa(missing)); err != nil {
			return err
		}
	}
	if err := columns.Render(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nSummary statistics\n\n")
	summary := newTable(w)
	summary.Header(" ", "count", "mean", "std", "min", "25%", "50%", "75%", "max")
	for _, s := range info.Summary {
		std := "NaN"
		if s.Std != nil {
			std = num(*s.Std)
		}
		if err := summary.Append(
			string(s.Field), strconv.Itoa(s.Count), num(s.Mean), std,
			num(s.Min), num(s.Q25), num(s.Q50), num(s.Q75), num(s.Max),
		); err != nil {
			return err
		}
	}
	return summary.Render()
}

// PrintScreen writes a rendered view in terminal form.
func PrintScreen(w io.Writer, s *view.Screen) error {
	fmt.Fprintf(w, "%s\n", s.Title)
	switch {
	case s.Home != nil:
		fmt.Fprintf(w, "\n%s\n\n", s.Home.Intro)
		for _, b := range s.Home.Bullets {
			fmt.Fprintf(w, "  - %s\n", b)
		}
		fmt.Fprintln(w)
		for _, c := range s.Home.Cards {
			fmt.Fprintf(w, "  %s: %s\n", c.Title, c.Text)
		}
	case s.Info != nil:
		return PrintInfo(w, *s.Info)
	case s.Tabs != nil:
		for _, t := range s.Tabs {
			fmt.Fprintf(w, "\n[%s] %s\n", t.Name, t.Question)
			if t.Empty {
				fmt.Fprintln(w, "  (no data)")
				continue
			}
			if err := PrintAggregate(w, t.Aggregate); err != nil {
				return err
			}
			for _, n := range t.Notes {
				fmt.Fprintf(w, "  - %s\n", n)
			}
		}
	case s.Insights != nil:
		if err := PrintKPI(w, s.Insights.KPI); err != nil {
			return err
		}
		fmt.Fprintf(w, "\n%s\n", s.Insights.TopStadiumsTitle)
		for _, l := range s.Insights.TopStadiums {
			fmt.Fprintf(w, "  - %s\n", l)
		}
		fmt.Fprintf(w, "\n%s\n", s.Insights.TopTeamsTitle)
		for _, l := range s.Insights.TopTeams {
			fmt.Fprintf(w, "  - %s\n", l)
		}
		fmt.Fprintln(w)
		for _, l := range s.Insights.Summary {
			fmt.Fprintf(w, "  - %s\n", l)
		}
	}
	return nil
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', 6, 64)
}
