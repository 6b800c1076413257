package cmd

import (
	"github.com/spf13/cobra"
)

// joinCmd represents the join command
var joinCmd = &cobra.Command{
	Use:   "join <mod-file>...",
	Short: "Join mod files into a single mod file",
	Long: `Join mod files into one stream, keeping records in argument order and
writing a single terminator. This reverses split.

Example:
  modtool join mods/misc-changes-1 mods/misc-changes-2 --out mods/misc-changes`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")

		n, err := container.NewProcessor().JoinFiles(out, args...)
		if err != nil {
			return err
		}

		cmd.Printf("Wrote %d bytes to %s\n", n, out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(joinCmd)
	joinCmd.Flags().StringP("out", "o", "", "Output mod file (required)")
	if err := joinCmd.MarkFlagRequired("out"); err != nil {
		panic(err)
	}
}
