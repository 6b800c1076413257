/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ssargent/modtool/pkg/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Long: `Write a default modtool config file. Add jobs to it to replace
one-off invocation scripts, then execute them with "modtool run".

Examples:
  modtool init
  modtool init --config ./modtool.yaml --mods-dir ./mods`,
	Args: cobra.NoArgs,
	// The config does not exist yet, so skip loading it
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		modsDir, _ := cmd.Flags().GetString("mods-dir")
		force, _ := cmd.Flags().GetBool("force")

		if configPath == "" {
			configPath = config.GetDefaultConfigPath()
		}

		if config.ConfigExists(configPath) && !force {
			cmd.Printf("Config already exists at %s. Use --force to overwrite.\n", configPath)
			return nil
		}

		if _, err := config.BootstrapConfig(configPath, modsDir); err != nil {
			return err
		}

		cmd.Printf("Wrote config to %s\n", configPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().String("mods-dir", "", "Mods directory to record in the config (default: ./mods)")
	initCmd.Flags().Bool("force", false, "Overwrite an existing config")
}
