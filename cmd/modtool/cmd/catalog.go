package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ssargent/modtool/pkg/modfile"
)

// catalogCmd represents the catalog command
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Track which addresses many mod files patch",
	Long: `Record the address ranges patched by mod files in a local catalog and
report ranges patched by more than one mod.`,
}

// catalogAddCmd represents the catalog add command
var catalogAddCmd = &cobra.Command{
	Use:   "add <mod-file>...",
	Short: "Add mod files to the catalog",
	Long: `Add every record of each mod file to the catalog. A file that fails
to decode adds nothing.

Example:
  modtool catalog add mods/fix-music mods/quick-text`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _ := cmd.Flags().GetString("db")

		cat, err := container.OpenCatalog(db)
		if err != nil {
			return err
		}
		defer cat.Close()

		for _, path := range args {
			data, err := modfile.ReadFile(path)
			if err != nil {
				return err
			}
			n, err := cat.Add(path, data)
			if err != nil {
				return err
			}
			cmd.Printf("%s: %d records\n", path, n)
		}
		return nil
	},
}

// catalogListCmd represents the catalog list command
var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog entries in address order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _ := cmd.Flags().GetString("db")

		cat, err := container.OpenCatalog(db)
		if err != nil {
			return err
		}
		defer cat.Close()

		entries, err := cat.Entries()
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		return outputEntries(cmd.OutOrStdout(), entries, format)
	},
}

// catalogOverlapsCmd represents the catalog overlaps command
var catalogOverlapsCmd = &cobra.Command{
	Use:   "overlaps",
	Short: "Report address ranges patched by more than one mod file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _ := cmd.Flags().GetString("db")

		cat, err := container.OpenCatalog(db)
		if err != nil {
			return err
		}
		defer cat.Close()

		overlaps, err := cat.Overlaps()
		if err != nil {
			return err
		}
		for _, o := range overlaps {
			cmd.Printf("%s#%d [%#x, %#x) overlaps %s#%d [%#x, %#x)\n",
				o.First.Source, o.First.Index, o.First.Address, o.First.End(),
				o.Second.Source, o.Second.Index, o.Second.Address, o.Second.End())
		}
		cmd.Printf("%d overlaps\n", len(overlaps))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogAddCmd, catalogListCmd, catalogOverlapsCmd)
	catalogCmd.PersistentFlags().String("db", "", "Catalog directory (default: configured catalog)")
	catalogListCmd.Flags().StringP("format", "f", "table", "Output format (table, json)")
}
