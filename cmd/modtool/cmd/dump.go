package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ssargent/modtool/pkg/modfile"
)

// dumpCmd represents the dump command
var dumpCmd = &cobra.Command{
	Use:   "dump <mod-file>",
	Short: "Print a mod file as text",
	Long: `Print every record of a mod file as one line of text:

  0x<address>, 0x<size>: ['0x<b0>', '0x<b1>', ...]

Example:
  modtool dump mods/misc-changes
  modtool dump mods/misc-changes --out misc-changes.txt`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")
		p := container.NewProcessor()

		if out != "" {
			count, err := p.DumpFile(args[0], out)
			if err != nil {
				return err
			}
			cmd.Printf("Wrote %d records to %s\n", count, out)
			return nil
		}

		data, err := modfile.ReadFile(args[0])
		if err != nil {
			return err
		}
		_, err = p.Dump(data, cmd.OutOrStdout())
		return err
	},
}

func init() {
	rootCmd.AddCommand(dumpCmd)
	dumpCmd.Flags().StringP("out", "o", "", "Write the dump to a file instead of stdout")
}
