package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// applyCmd represents the apply command
var applyCmd = &cobra.Command{
	Use:   "apply <mod-file>...",
	Short: "Apply mod files to an image",
	Long: `Apply mod files, in order, to a copy of an image. Every record's payload
is written at (address - base). Later mods overwrite earlier ones.

Example:
  modtool apply mods/fix-music mods/quick-text --image rom.z64 --out patched.z64
  modtool apply mods/fix-link-1 --image link.zobj --out link.zobj.new --base 0x06000000`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		image, _ := cmd.Flags().GetString("image")
		out, _ := cmd.Flags().GetString("out")
		baseFlag, _ := cmd.Flags().GetString("base")

		base, err := parseAddress(baseFlag)
		if err != nil {
			return err
		}

		count, err := container.NewProcessor().ApplyFiles(image, out, base, args...)
		if err != nil {
			return err
		}

		cmd.Printf("Applied %d records from %d mods to %s\n", count, len(args), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(applyCmd)
	applyCmd.Flags().String("image", "", "Image to patch (required)")
	applyCmd.Flags().StringP("out", "o", "", "Patched image output (required)")
	applyCmd.Flags().String("base", "0", "Address of the first image byte (decimal or 0x hex)")
	for _, name := range []string{"image", "out"} {
		if err := applyCmd.MarkFlagRequired(name); err != nil {
			panic(err)
		}
	}
}

// parseAddress accepts decimal, 0x hex or 0o octal 32-bit addresses
func parseAddress(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return uint32(v), nil
}
