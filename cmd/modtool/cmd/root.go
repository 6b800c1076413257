/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/modtool/pkg/config"
	"github.com/ssargent/modtool/pkg/di"
)

var container *di.Container

// SetContainer injects the dependency container used by every command
func SetContainer(c *di.Container) {
	container = c
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "modtool",
	Short: "Inspect and split mod patch files",
	Long: `modtool works with mod patch files: flat lists of address/size/payload
records terminated by a single 0xff byte.

It can dump a mod file as text, split it into one file per record, join
split files back together, apply mods to an image, and catalog many mods
to find overlapping patches.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if container == nil {
			return fmt.Errorf("dependency container not initialized")
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		if cmd.Flags().Changed("log-level") {
			cfg.Logging.Level, _ = cmd.Flags().GetString("log-level")
		}
		if cmd.Flags().Changed("log-format") {
			cfg.Logging.Format, _ = cmd.Flags().GetString("log-format")
		}

		return container.Configure(cfg)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if container != nil {
		_ = container.GetLogger().Sync()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SilenceErrors = true

	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to config file (default: OS-specific location, if present)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "Log format (console, json)")
}

// loadConfig reads the config named by --config. Without the flag the
// default location is used when it exists, otherwise built-in defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath != "" {
		return config.LoadConfig(configPath)
	}

	if defaultPath := config.GetDefaultConfigPath(); config.ConfigExists(defaultPath) {
		return config.LoadConfig(defaultPath)
	}

	return config.DefaultConfig(), nil
}
