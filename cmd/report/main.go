// Package main is the entry point of the report CLI, which prints the
// dashboard aggregates, KPIs, dataset info and views as terminal tables.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/okian/cupstats/internal/adapters/report"
	app "github.com/okian/cupstats/internal/app"
	"github.com/okian/cupstats/internal/config"
	"github.com/okian/cupstats/internal/domain/aggregate"
	"github.com/okian/cupstats/internal/domain/dataset"
	"github.com/okian/cupstats/internal/domain/view"
	"github.com/okian/cupstats/pkg/logger"
	"github.com/spf13/cobra"
)

type flags struct {
	dataset string
	sheet   string
	order   string
	strict  bool
	verbose bool
}

func main() {
	if err := logger.Init(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:           "report",
		Short:         "World Cup results report",
		Long:          "Load the World Cup results spreadsheet and print dashboard tables.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&f.dataset, "dataset", "", "results file (.xlsx or .csv); defaults to CUPSTATS_DATASET_PATH")
	root.PersistentFlags().StringVar(&f.sheet, "sheet", "", "sheet to read; defaults to the first sheet")
	root.PersistentFlags().StringVar(&f.order, "order", "", "ranking order: literal or intent")
	root.PersistentFlags().BoolVar(&f.strict, "strict", false, "fail when a match has more than two rows")
	root.PersistentFlags().BoolVarP(&f.verbose, "verbose", "v", false, "log loading progress")

	root.AddCommand(
		&cobra.Command{
			Use:   "kpi",
			Short: "Print the headline metrics",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				svc, err := open(cmd.Context(), f)
				if err != nil {
					return err
				}
				kpi, err := svc.KPI(cmd.Context())
				if err != nil {
					return err
				}
				return report.PrintKPI(cmd.OutOrStdout(), kpi)
			},
		},
		&cobra.Command{
			Use:   "aggregate <name>",
			Short: "Print one aggregation",
			Long:  "Print one aggregation. Run 'report aggregates' for the list of names.",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				svc, err := open(cmd.Context(), f)
				if err != nil {
					return err
				}
				a, err := svc.Aggregate(cmd.Context(), args[0], "")
				if err != nil && !aggregate.IsEmptyResult(err) {
					return err
				}
				if err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), "warning:", err)
				}
				return report.PrintAggregate(cmd.OutOrStdout(), a)
			},
		},
		&cobra.Command{
			Use:   "aggregates",
			Short: "List the aggregation names",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				for _, q := range aggregate.Queries() {
					fmt.Fprintf(cmd.OutOrStdout(), "%-24s %s\n", q.Name, q.Description)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "info",
			Short: "Print the dataset overview",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				svc, err := open(cmd.Context(), f)
				if err != nil {
					return err
				}
				return report.PrintInfo(cmd.OutOrStdout(), svc.Info())
			},
		},
		&cobra.Command{
			Use:   "view <name>",
			Short: "Print a dashboard view (home, dataset-info, visuals, insights)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				v, err := view.ParseView(args[0])
				if err != nil {
					return err
				}
				svc, err := open(cmd.Context(), f)
				if err != nil {
					return err
				}
				screen, err := svc.Render(cmd.Context(), v)
				if err != nil {
					return err
				}
				return report.PrintScreen(cmd.OutOrStdout(), screen)
			},
		},
	)
	return root
}

// open loads configuration, applies flag overrides and starts a service.
func open(ctx context.Context, f *flags) (*app.Service, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	if f.dataset != "" {
		cfg.DatasetPath = f.dataset
	}
	if f.sheet != "" {
		cfg.DatasetSheet = f.sheet
	}
	if f.order != "" {
		cfg.RankingOrder = f.order
	}
	order, err := aggregate.ParseOrder(cfg.RankingOrder)
	if err != nil {
		return nil, err
	}

	log := logger.Nop()
	if f.verbose {
		log = logger.Get()
	}
	ds, err := dataset.Load(ctx, cfg.DatasetPath,
		dataset.WithSheet(cfg.DatasetSheet),
		dataset.WithStrictDedupe(cfg.StrictDedupe || f.strict),
		dataset.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}

	svc := app.New(ds,
		app.WithLogger(log),
		app.WithRankingOrder(order),
		app.WithRankingLimit(cfg.RankingLimit),
		app.WithTopStadiums(cfg.TopStadiums),
		app.WithTopTeams(cfg.TopTeams),
		app.WithPreviewRows(cfg.PreviewRows),
	)
	if err := svc.Start(ctx); err != nil {
		return nil, err
	}
	return svc, nil
}
