package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tilepad/tilepad-cli/internal/bundle"
	"github.com/tilepad/tilepad-cli/internal/manifest"
)

var (
	bundlePath   string
	bundleName   string
	bundleOutput string
)

func init() {
	for _, c := range []*cobra.Command{bundleCmd, bundleIconPackCmd} {
		c.Flags().StringVarP(&bundlePath, "path", "p", "", "directory containing the sources (default: current directory)")
		c.Flags().StringVarP(&bundleName, "name", "n", "", "archive name without extension (default: manifest id)")
		c.Flags().StringVarP(&bundleOutput, "output", "o", "", "directory to write the archive to (default: current directory)")
		rootCmd.AddCommand(c)
	}
}

var bundleCmd = &cobra.Command{
	Use:   "bundle",
	Short: "Bundle the .tilepadPlugin directory into a .tilepadPlugin archive",
	Long: `Bundle the .tilepadPlugin directory into a .tilepadPlugin archive ready to be
installed by Tilepad. The archive contains the contents of .tilepadPlugin at its
root and is named after the plugin id unless --name is given.

Example:
  tilepad bundle
  tilepad bundle -p ./my-plugin -o ./dist`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBundle(cmd, manifest.KindPlugin)
	},
}

var bundleIconPackCmd = &cobra.Command{
	Use:   "bundle-icon-pack",
	Short: "Bundle an icon pack directory into a .tilepadIcons archive",
	Long: `Bundle an icon pack into a .tilepadIcons archive. The directory given by
--path must contain the icon pack manifest; it is archived as a whole.

Example:
  tilepad bundle-icon-pack -p ./icons`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBundle(cmd, manifest.KindIconPack)
	},
}

func runBundle(cmd *cobra.Command, kind manifest.Kind) error {
	result, err := bundle.Run(cmd.Context(), bundle.Options{
		Kind:      kind,
		Path:      bundlePath,
		Name:      bundleName,
		OutputDir: bundleOutput,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Bundled %s %s into %s (%d files)\n",
		result.Manifest.Kind(), result.Manifest.ID(), result.OutputPath, result.Report.Files())
	fmt.Fprintf(out, "sha256: %s\n", result.SHA256)
	if n := len(result.Report.Skipped); n > 0 {
		fmt.Fprintf(out, "Skipped %d unreadable entries:\n", n)
		for _, s := range result.Report.Skipped {
			fmt.Fprintf(out, "  %s: %v\n", s.Name, s.Err)
		}
	}
	return nil
}
