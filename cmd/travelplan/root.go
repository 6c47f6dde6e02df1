package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Kocoro-lab/travelian/internal/app"
	"github.com/Kocoro-lab/travelian/internal/config"
	"github.com/Kocoro-lab/travelian/internal/logging"
	"github.com/Kocoro-lab/travelian/internal/workflows"
)

var rootCmd = &cobra.Command{
	Use:           "travelplan",
	Short:         "Plan trips across India with a team of AI travel specialists",
	Long:          `travelplan builds a day-by-day itinerary from destination, accommodation, transport, activity and dining research, and answers travel questions in a chat.`,
	Version:       app.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a travelian.yaml configuration file")
	rootCmd.PersistentFlags().String("api-key", "", "Gemini API key (defaults to GEMINI_API_KEY)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log every model call")
}

// buildApp loads configuration and wires the planner for a single command run.
func buildApp(cmd *cobra.Command, opts ...workflows.Option) (*app.App, *zap.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")

	var cfg *config.Config
	var err error
	if path != "" {
		cfg, err = config.LoadFrom(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, nil, err
	}

	// Interactive output owns the terminal; keep logs to warnings unless asked.
	cfg.Logging.Format = "console"
	if !verbose {
		cfg.Logging.Level = "warn"
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, err
	}

	a, err := app.New(cmd.Context(), cfg, logger, opts...)
	if err != nil {
		return nil, nil, err
	}
	return a, logger, nil
}

func credentialFlag(cmd *cobra.Command) string {
	key, _ := cmd.Flags().GetString("api-key")
	return key
}
