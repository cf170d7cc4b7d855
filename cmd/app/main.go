package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"EarnScan/internal/di"
	"EarnScan/internal/domain/models"
	"EarnScan/internal/usecase"
	"EarnScan/pkg/config"
	"EarnScan/pkg/server"
	"EarnScan/pkg/util"
)

// Set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "earnscan",
		Short:        "Scan the earnings calendar for options opportunities",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "config file path")

	root.AddCommand(newScanCmd(&configPath), newServeCmd(&configPath), newVersionCmd())
	return root
}

func initApp(configPath string) (*server.App, error) {
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}
	app, err := di.InitializeApp(cfg)
	if err != nil {
		return nil, fmt.Errorf("app initialization failed: %w", err)
	}
	return app, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newScanCmd(configPath *string) *cobra.Command {
	var (
		noAnalyze bool
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one scan and print the report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := initApp(*configPath)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, cancel := signalContext()
			defer cancel()

			report, err := app.Scan(ctx, usecase.ScanOptions{Analyze: !noAnalyze})
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			return printReport(cmd, report)
		},
	}
	cmd.Flags().BoolVar(&noAnalyze, "no-analyze", false, "rank only, skip the language model")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the scan API",
		RunE: func(_ *cobra.Command, _ []string) error {
			app, err := initApp(*configPath)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, cancel := signalContext()
			defer cancel()
			return app.Serve(ctx)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "earnscan", version)
		},
	}
}

func printReport(cmd *cobra.Command, r *models.ScanReport) error {
	out := cmd.OutOrStdout()

	market := r.MarketContext.Regime.Description()
	if r.MarketContext.VIX != nil {
		market = fmt.Sprintf("VIX %.2f, %s", *r.MarketContext.VIX, market)
	}
	fmt.Fprintf(out, "run %s  %s\nmarket: %s\n\n", r.RunID, r.GeneratedAt.Format("2006-01-02 15:04"), market)

	if len(r.Opportunities) == 0 {
		fmt.Fprintln(out, "no opportunities passed the filters")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SYMBOL\tDATE\tDAYS\tQUALITY\tVOL SCORE\tIV\tHV")
	for _, o := range r.Opportunities {
		var iv, hv float64
		if o.Volatility != nil {
			iv, hv = o.Volatility.ImpliedVolatility, o.Volatility.HistoricalVolatility
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%.1f\t%.1f\t%.1f\n",
			o.Symbol, util.FormatDate(o.Date), o.DaysToEarnings, o.QualityScore, o.VolatilityScore, iv, hv)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, a := range r.Analyses {
		fmt.Fprintf(out, "\n%s: %s", a.Analysis.Symbol, a.Analysis.Recommendation)
		if a.Analysis.SentimentScore != nil {
			fmt.Fprintf(out, " (sentiment %d/10)", *a.Analysis.SentimentScore)
		}
		fmt.Fprintln(out)
		if !a.Validation.IsValid {
			fmt.Fprintf(out, "  invalid: %v\n", a.Validation.Issues)
			continue
		}
		for _, s := range a.Analysis.Strategies {
			fmt.Fprintf(out, "  - %s: %s\n", s.Name, s.Details)
		}
	}
	return nil
}
