package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/entrhq/titleforge/pkg/config"
	"github.com/entrhq/titleforge/pkg/logging"
)

var (
	cfgFile  string
	verbose  bool
	headless bool
	flagVals config.Overrides
)

var rootCmd = &cobra.Command{
	Use:   "titleforge",
	Short: "Generate YouTube title ideas from the titles on your screen",
	Long: `titleforge opens a Chromium window, scrapes the video titles on the
page you browse to, and asks a Gemini model for new titles on your topic.

Commands:
  serve     Run the HTTP API used by the desktop shell
  generate  Run the whole pipeline once from the terminal
  config    Write or show the configuration file`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is ~/.titleforge/config.yaml)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "mirror logs to stderr at debug level")
	pf.StringVar(&flagVals.APIKey, "api-key", "", "model API key (or set TITLEFORGE_API_KEY / GEMINI_API_KEY)")
	pf.StringVar(&flagVals.BaseURL, "base-url", "", "OpenAI-compatible endpoint (default is Gemini)")
	pf.StringVar(&flagVals.ModelKey, "model", "", "model key: flash-exp, flash, flash-8b or pro")
	pf.StringVar(&flagVals.StartURL, "url", "", "page the browser opens")
	pf.BoolVar(&headless, "headless", false, "hide the browser window")
}

// setup loads .env and the configuration and configures logging before any
// subcommand runs.
func setup(cmd *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}

	if cmd.Flags().Changed("headless") {
		flagVals.Headless = &headless
	}
	if err := config.Initialize(cfgFile, flagVals); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if verbose {
		logging.EnableConsole(os.Stderr, true)
		return logging.SetLevel("debug")
	}
	return logging.SetLevel(config.GetServer().Snapshot().LogLevel)
}
