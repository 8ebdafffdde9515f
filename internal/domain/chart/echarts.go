package chart

import (
	"io"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const (
	textColor = "#f5f5f5"
	stackName = "total"
)

// Charter converts the descriptor into a go-echarts chart.
func (c *Chart) Charter() components.Charter {
	if c.Kind == KindLine {
		return c.line()
	}
	return c.bar()
}

// Options returns the ECharts option object of the chart.
func (c *Chart) Options() map[string]interface{} {
	if c.Kind == KindLine {
		l := c.line()
		l.Validate()
		return l.JSON()
	}
	b := c.bar()
	b.Validate()
	return b.JSON()
}

func (c *Chart) globals() []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{
			ChartID:         c.ElementID(),
			BackgroundColor: c.Background,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:      c.Title,
			TitleStyle: &opts.TextStyle{Color: textColor},
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{
			Show:      opts.Bool(c.ColorField != ""),
			Right:     "10",
			TextStyle: &opts.TextStyle{Color: textColor},
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name:      xName(c),
			AxisLabel: &opts.AxisLabel{Color: textColor},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:      yName(c),
			AxisLabel: &opts.AxisLabel{Color: textColor},
		}),
		charts.WithGridOpts(opts.Grid{Left: "160", Bottom: "60"}),
	}
}

func (c *Chart) bar() *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(c.globals()...)
	bar.SetXAxis(c.Categories)

	position := "top"
	if c.Horizontal {
		position = "right"
	}
	for _, s := range c.Series {
		data := make([]opts.BarData, len(s.Values))
		for i, v := range s.Values {
			data[i] = opts.BarData{Value: value(v)}
		}
		so := []charts.SeriesOpts{
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(c.ShowLabels), Position: position, Color: textColor}),
		}
		if c.ColorField != "" {
			so = append(so, charts.WithBarChartOpts(opts.BarChart{Stack: stackName}))
		}
		bar.AddSeries(s.Name, data, so...)
	}
	if c.Horizontal {
		bar.XYReversal()
	}
	return bar
}

func (c *Chart) line() *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(c.globals()...)
	line.SetXAxis(c.Categories)
	for _, s := range c.Series {
		data := make([]opts.LineData, len(s.Values))
		for i, v := range s.Values {
			data[i] = opts.LineData{Value: value(v)}
		}
		line.AddSeries(s.Name, data,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(c.ShowLabels), Position: "top", Color: textColor}),
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(c.Markers)}),
		)
	}
	return line
}

// Page renders every chart on one HTML page.
func Page(w io.Writer, title string, cs []*Chart) error {
	page := components.NewPage()
	page.PageTitle = title
	for _, c := range cs {
		page.AddCharts(c.Charter())
	}
	return page.Render(w)
}

// ElementID is the chart ID made usable as a DOM id and a script identifier.
func (c *Chart) ElementID() string {
	return "chart_" + strings.ReplaceAll(c.ID, "-", "_")
}

func value(v *int64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func xName(c *Chart) string {
	if c.Horizontal {
		return string(c.ValueField)
	}
	return string(c.CategoryField)
}

func yName(c *Chart) string {
	if c.Horizontal {
		return string(c.CategoryField)
	}
	return string(c.ValueField)
}
