package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should register under the cupstats namespace", func() {
				So(manager, ShouldNotBeNil)
				So(manager.RefreshInterval(), ShouldEqual, 10*time.Second)

				manager.viewRenders.WithLabelValues("Home", OutcomeOK).Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "cupstats_dashboard_dataset_matches")
				So(names, ShouldContain, "cupstats_dashboard_view_renders_total")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithSubsystem("test_subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithRefreshInterval(5*time.Second),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then names and constant labels follow the options", func() {
				So(manager.RefreshInterval(), ShouldEqual, 5*time.Second)
				manager.datasetRawRows.Set(4)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() != "test_namespace_test_subsystem_dataset_raw_rows" {
						continue
					}
					found = true
					So(f.GetMetric()[0].GetLabel()[0].GetName(), ShouldEqual, "env")
					So(f.GetMetric()[0].GetGauge().GetValue(), ShouldEqual, 4)
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When options receive empty values", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithRefreshInterval(0),
				WithCustomLabels(nil),
				WithPrometheusRegistry(registry),
			)

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "cupstats")
				So(manager.subsystem, ShouldEqual, "dashboard")
				So(manager.RefreshInterval(), ShouldEqual, defaultRefreshInterval)
				So(manager.customLabels, ShouldNotBeNil)
			})
		})
	})
}

func TestGlobalRecorders(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording dataset gauges", func() {
			UpdateDataset(900, 450, 450, 0)
			RecordDatasetLoad(1500 * time.Microsecond)

			Convey("Then the gauges hold the values", func() {
				So(testutil.ToFloat64(globalManager.datasetRawRows), ShouldEqual, 900)
				So(testutil.ToFloat64(globalManager.datasetMatches), ShouldEqual, 450)
				So(testutil.ToFloat64(globalManager.datasetDropped), ShouldEqual, 450)
				So(testutil.ToFloat64(globalManager.datasetLoadMillis), ShouldEqual, 1.5)
			})
		})

		Convey("When recording renders and aggregations", func() {
			before := testutil.ToFloat64(globalManager.viewRenders.WithLabelValues("Insights", OutcomeOK))
			RecordViewRender("Insights", OutcomeOK, time.Millisecond)
			emptyBefore := testutil.ToFloat64(globalManager.emptyResults.WithLabelValues("hosts"))
			RecordAggregation("hosts", OutcomeEmpty, time.Millisecond)
			RecordEmptyResult("hosts")
			RecordSchemaError("chart")
			RecordRenderCache(true)
			RecordRenderCache(false)

			Convey("Then the counters advance", func() {
				So(testutil.ToFloat64(globalManager.viewRenders.WithLabelValues("Insights", OutcomeOK)), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.emptyResults.WithLabelValues("hosts")), ShouldEqual, emptyBefore+1)
				So(testutil.ToFloat64(globalManager.schemaErrors.WithLabelValues("chart")), ShouldBeGreaterThanOrEqualTo, 1)
				So(testutil.ToFloat64(globalManager.renderCacheHits), ShouldBeGreaterThanOrEqualTo, 1)
				So(testutil.ToFloat64(globalManager.renderCacheMisses), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When recording HTTP and MCP traffic", func() {
			RecordHTTPRequest("/api/kpi", "GET", "200")
			RecordHTTPRequestDuration("/api/kpi", "GET", "200", 3.2)
			RecordHTTPError("/api/views/{view}", "GET", "not_found")
			RecordMCPToolCall("kpi_summary", OutcomeOK)
			RecordErrorByComponent("http", "not_found")
			UpdateSystemMemoryUsage(1 << 20)
			UpdateSystemGoroutineCount(12)
			RecordSystemGCPauseTime(0.3)

			Convey("Then the registry exposes them", func() {
				count, err := testutil.GatherAndCount(GetRegistry(), "cupstats_dashboard_http_errors_total")
				So(err, ShouldBeNil)
				So(count, ShouldBeGreaterThanOrEqualTo, 1)
				So(testutil.ToFloat64(globalManager.systemGoroutineCount), ShouldEqual, 12)
				So(RefreshInterval(), ShouldEqual, defaultRefreshInterval)
			})
		})
	})
}

func TestConfigure(t *testing.T) {
	Convey("Given a configured global manager", t, func() {
		previous, previousRegistry := globalManager, customRegistry
		Reset(func() { globalManager, customRegistry = previous, previousRegistry })

		Configure(
			WithNamespace("fifa"),
			WithSubsystem("worldcup"),
			WithRefreshInterval(time.Second),
			WithCustomLabels(map[string]string{"env": "test"}),
		)
		RecordSchemaError("loader")

		Convey("Then a fresh registry carries the new names", func() {
			So(GetRegistry(), ShouldNotEqual, previousRegistry)
			So(RefreshInterval(), ShouldEqual, time.Second)
			count, err := testutil.GatherAndCount(GetRegistry(), "fifa_worldcup_schema_errors_total")
			So(err, ShouldBeNil)
			So(count, ShouldEqual, 1)
			legacy, err := testutil.GatherAndCount(GetRegistry(), "cupstats_dashboard_schema_errors_total")
			So(err, ShouldBeNil)
			So(legacy, ShouldEqual, 0)
		})
	})
}
