package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/entrhq/titleforge/pkg/config"
)

var initForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
	// Replaces the root hook: these commands must work with a broken or
	// missing file.
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if cmd.Flags().Changed("headless") {
			flagVals.Headless = &headless
		}
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with defaults",
	Long: `Write a configuration file with the built-in defaults plus any values
given as flags. Environment variables are not written.

Example:
  titleforge config init --model flash --api-key "$GEMINI_API_KEY"`,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long:  "Print the configuration after the file, environment and flags are applied. The API key is masked.",
	RunE:  runConfigShow,
}

func init() {
	configInitCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	path := cfgFile
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}

	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	if err := writeDefaultConfig(path, flagVals); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}

// writeDefaultConfig writes defaults plus overrides to path, replacing any
// existing content.
func writeDefaultConfig(path string, overrides config.Overrides) error {
	store, err := config.NewFileStore(path)
	if err != nil {
		// An unreadable file is replaced.
		if removeErr := os.Remove(path); removeErr != nil {
			return err
		}
		if store, err = config.NewFileStore(path); err != nil {
			return err
		}
	}

	manager, err := config.NewDefaultManager(store)
	if err != nil {
		return err
	}
	config.ApplyOverrides(manager, overrides)
	return manager.SaveAll()
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	manager, err := config.Load(cfgFile, flagVals)
	if err != nil {
		return err
	}

	out, err := renderConfig(manager)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), out)
	return err
}

func renderConfig(manager *config.Manager) (string, error) {
	sections := make(map[string]map[string]interface{})
	for _, s := range manager.GetSections() {
		data := s.Data()
		if key, ok := data["api_key"].(string); ok && key != "" {
			data["api_key"] = maskKey(key)
		}
		sections[s.ID()] = data
	}

	raw, err := yaml.Marshal(map[string]interface{}{"sections": sections})
	if err != nil {
		return "", fmt.Errorf("failed to encode configuration: %w", err)
	}
	return string(raw), nil
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return "********"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
