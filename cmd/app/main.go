package main

import (
	"fmt"
	"os"

	"FinSignal/internal/di"
	"FinSignal/pkg/config"

	"github.com/spf13/cobra"
)

var configPath string

// rootCmd runs the service when no subcommand is given.
var rootCmd = &cobra.Command{
	Use:   "finsignal",
	Short: "BUY/SELL signal fusion service",
	Long: `FinSignal fuses technical indicators, an optional market-structure opinion
and the fear/greed index into short-expiry BUY/SELL decisions, settles them
and keeps a running performance aggregate.`,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, WebSocket stream and background workers",
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "config file path")
	rootCmd.AddCommand(serveCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	app, cleanup, err := di.InitializeApp(cfg)
	if err != nil {
		return fmt.Errorf("app initialization failed: %w", err)
	}
	defer cleanup()

	return app.Run(cmd.Context())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
