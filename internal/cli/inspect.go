package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tilepad/tilepad-cli/internal/archive"
	"github.com/tilepad/tilepad-cli/internal/bundle"
)

var inspectList bool

func init() {
	inspectCmd.Flags().BoolVarP(&inspectList, "list", "l", false, "List every entry in the archive")
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <archive>",
	Short: "Show the manifest, checksum and contents of a bundle",
	Long: `Open a .tilepadPlugin or .tilepadIcons archive, validate the manifest at its
root and print its SHA-256 checksum. Archives with entries outside the archive
root are rejected.

Example:
  tilepad inspect demo.tilepadPlugin --list`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		insp, err := bundle.Inspect(args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %s (%s)\n", insp.Manifest.Kind(), insp.Manifest.ID(), insp.Manifest.Name())
		if v := insp.Manifest.Version(); v != "" {
			fmt.Fprintf(out, "version: %s\n", v)
		}
		fmt.Fprintf(out, "sha256:  %s\n", insp.SHA256)
		fmt.Fprintf(out, "files:   %d (%d bytes)\n", insp.Files(), insp.Size)

		if inspectList {
			for _, e := range insp.Entries {
				if e.Kind == archive.EntryDirectory {
					fmt.Fprintf(out, "  %s/\n", e.Name)
				} else {
					fmt.Fprintf(out, "  %s (%d)\n", e.Name, e.Size)
				}
			}
		}
		return nil
	},
}
