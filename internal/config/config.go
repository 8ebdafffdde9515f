// Package config defines process configuration and its loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and CUPSTATS_ env vars over the defaults.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DatasetPath is the results spreadsheet (.xlsx) or CSV export.
	DatasetPath string `koanf:"dataset_path"`

	// DatasetSheet names the sheet to read. Empty selects the first sheet.
	DatasetSheet string `koanf:"dataset_sheet"`

	// StrictDedupe fails the load when a match key has more than two rows.
	StrictDedupe bool `koanf:"strict_dedupe"`

	// RankingOrder is literal (ascending, lowest first) or intent (descending).
	RankingOrder string `koanf:"ranking_order"`

	// RankingLimit caps the goals conceded and goals at stadium rankings.
	RankingLimit int `koanf:"ranking_limit"`

	// TopStadiums and TopTeams size the Insights lists.
	TopStadiums int `koanf:"top_stadiums"`
	TopTeams    int `koanf:"top_teams"`

	// PreviewRows sizes the Dataset Info preview.
	PreviewRows int `koanf:"preview_rows"`

	// RenderCache memoizes rendered screens per dataset version.
	RenderCache bool `koanf:"render_cache"`

	// PrerenderWorkers renders every view into the cache at startup.
	// Zero uses one worker per CPU. Ignored without RenderCache.
	PrerenderWorkers int `koanf:"prerender_workers"`

	// Presentation shell.
	PageTitle              string `koanf:"page_title"`
	BackgroundImage        string `koanf:"background_image"`
	MenuBackground         string `koanf:"menu_background"`
	MenuAccent             string `koanf:"menu_accent"`
	MenuSelectedBackground string `koanf:"menu_selected_background"`

	// MCPEnabled mounts the MCP tool endpoint at MCPPath.
	MCPEnabled bool   `koanf:"mcp_enabled"`
	MCPPath    string `koanf:"mcp_path"`

	// Metrics naming and sampling. Labels are attached to every series.
	MetricsNamespace       string            `koanf:"metrics_namespace"`
	MetricsSubsystem       string            `koanf:"metrics_subsystem"`
	MetricsRefreshInterval time.Duration     `koanf:"metrics_refresh_interval"`
	MetricsLatencyBuckets  []float64         `koanf:"metrics_latency_buckets"`
	MetricsLabels          map[string]string `koanf:"metrics_labels"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		LogFormat:              "text",
		Addr:                   ":9080",
		DatasetPath:            "world_cup_results.xlsx",
		RankingOrder:           "literal",
		RankingLimit:           10,
		TopStadiums:            3,
		TopTeams:               5,
		PreviewRows:            5,
		PageTitle:              "Data Analytics App",
		BackgroundImage:        "https://i.imgur.com/YgHUBtu.jpeg",
		MenuBackground:         "#0a0f1a",
		MenuAccent:             "gold",
		MenuSelectedBackground: "#1a2333",
		MCPEnabled:             true,
		MCPPath:                "/mcp",
		MetricsNamespace:       "cupstats",
		MetricsSubsystem:       "dashboard",
		MetricsRefreshInterval: 10 * time.Second,
	}
}

// Validate checks values that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.DatasetPath) == "":
		return fmt.Errorf("%w: dataset_path must not be empty", ErrInvalidConfig)
	case c.RankingLimit <= 0:
		return fmt.Errorf("%w: ranking_limit must be positive", ErrInvalidConfig)
	case c.TopStadiums <= 0:
		return fmt.Errorf("%w: top_stadiums must be positive", ErrInvalidConfig)
	case c.TopTeams <= 0:
		return fmt.Errorf("%w: top_teams must be positive", ErrInvalidConfig)
	case c.PreviewRows <= 0:
		return fmt.Errorf("%w: preview_rows must be positive", ErrInvalidConfig)
	case c.PrerenderWorkers < 0:
		return fmt.Errorf("%w: prerender_workers must not be negative", ErrInvalidConfig)
	case c.MCPEnabled && !strings.HasPrefix(c.MCPPath, "/"):
		return fmt.Errorf("%w: mcp_path must start with /", ErrInvalidConfig)
	case strings.TrimSpace(c.MetricsNamespace) == "":
		return fmt.Errorf("%w: metrics_namespace must not be empty", ErrInvalidConfig)
	case c.MetricsRefreshInterval <= 0:
		return fmt.Errorf("%w: metrics_refresh_interval must be positive", ErrInvalidConfig)
	}
	switch strings.ToLower(c.RankingOrder) {
	case "literal", "intent":
	default:
		return fmt.Errorf("%w: ranking_order %q", ErrInvalidConfig, c.RankingOrder)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}
