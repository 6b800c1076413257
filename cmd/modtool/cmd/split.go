package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ssargent/modtool/pkg/modfile"
)

// splitCmd represents the split command
var splitCmd = &cobra.Command{
	Use:   "split <mod-file>",
	Short: "Split a mod file into one file per record",
	Long: `Split a mod file into one file per record. Each output file is a
complete mod stream holding a single record and its own terminator.

Files are named <prefix>-<n> starting at 1. The prefix defaults to the
input file name and the directory to the configured mods directory.

Example:
  modtool split mods/misc-changes
  modtool split mods/misc-changes --prefix misc --dir out --atomic`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prefix, _ := cmd.Flags().GetString("prefix")
		dir, _ := cmd.Flags().GetString("dir")
		atomic, _ := cmd.Flags().GetBool("atomic")

		if prefix == "" {
			prefix = filepath.Base(args[0])
		}
		if dir == "" {
			dir = container.GetConfig().ModsDir
		}

		paths, err := container.NewProcessor().SplitFile(args[0], modfile.SplitConfig{
			Directory: dir,
			Prefix:    prefix,
			Atomic:    atomic,
		})
		if err != nil {
			return err
		}

		cmd.Printf("Wrote %d files to %s\n", len(paths), dir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(splitCmd)
	splitCmd.Flags().StringP("prefix", "p", "", "Output file name prefix (default: input file name)")
	splitCmd.Flags().String("dir", "", "Output directory (default: configured mods_dir)")
	splitCmd.Flags().Bool("atomic", false, "Only publish output files if the whole stream splits cleanly")
}
