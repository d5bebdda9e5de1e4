package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"FinSignal/internal/di"
	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"

	"github.com/spf13/cobra"
)

var recomputeCmd = &cobra.Command{
	Use:   "recompute",
	Short: "Rebuild the performance aggregate from the decision history",
	Long: `Scan every settled decision, recompute the performance aggregate,
store it in the cache and print it.

Example:
  finsignal recompute --config config/config.yaml`,
	RunE: runRecompute,
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Run one fusion evaluation for an asset without storing it",
	Long: `Fetch the latest bars for an asset, run the fusion engine once and print
the decision or the no-decision reason. Nothing is persisted or published.

Example:
  finsignal evaluate --asset "EUR/USD (OTC)"`,
	RunE: runEvaluate,
}

var (
	evaluateAsset   string
	evaluateTimeout time.Duration
)

func init() {
	rootCmd.AddCommand(recomputeCmd)
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().StringVar(&evaluateAsset, "asset", "", "instrument label, e.g. \"EUR/USD (OTC)\"")
	evaluateCmd.Flags().DurationVar(&evaluateTimeout, "timeout", 30*time.Second, "overall timeout")
	_ = evaluateCmd.MarkFlagRequired("asset")
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runRecompute(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	tk, cleanup, err := di.InitializeToolkit(cfg)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}
	defer cleanup()

	agg, err := tk.Performance.Recompute(cmd.Context())
	if err != nil {
		return fmt.Errorf("recompute: %w", err)
	}
	return printJSON(models.NewPerformanceResponse(agg))
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	tk, cleanup, err := di.InitializeToolkit(cfg)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(cmd.Context(), evaluateTimeout)
	defer cancel()

	series, err := tk.Market.LatestSeries(ctx, evaluateAsset, cfg.Market.Lookback, domrepo.NormalizeTimeframe(cfg.Market.Timeframe))
	if err != nil {
		return fmt.Errorf("market data: %w", err)
	}
	if len(series) == 0 {
		return printJSON(models.GenerateResponse{Reason: models.ReasonDataUnavailable})
	}

	ev, err := tk.Engine.Evaluate(ctx, evaluateAsset, series)
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}
	return printJSON(models.NewGenerateResponse(ev))
}
