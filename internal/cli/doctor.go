package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/tilepad/tilepad-cli/internal/manifest"
	"github.com/tilepad/tilepad-cli/internal/userdata"
)

var checkManifest string

func init() {
	doctorCmd.Flags().StringVar(&checkManifest, "check-manifest", "", "Validate the manifest in the given directory")
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the Tilepad installation and dev links",
	Long: `Run diagnostic checks: whether the desktop app's data directory exists,
whether directory symlinks can be created, which plugins are dev-linked and
whether the app's control server is reachable.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		if checkManifest != "" {
			return runManifestCheck(out, checkManifest)
		}

		if _, err := userdata.CheckHost(out); err != nil {
			return err
		}

		client := controlClient()
		fmt.Fprintln(out, "Control server check:")
		if _, ok := client.Probe(cmd.Context()); ok {
			fmt.Fprintf(out, "  [ OK ] Tilepad is running at %s\n", client.BaseURL())
		} else {
			fmt.Fprintf(out, "  [MISS] Tilepad is not running at %s\n", client.BaseURL())
		}
		return nil
	},
}

func runManifestCheck(out io.Writer, dir string) error {
	fmt.Fprintf(out, "Manifest validation: %s\n", dir)

	doc, err := manifest.Load(dir, "")
	if err != nil {
		fmt.Fprintf(out, "  [FAIL] %v\n", err)
		return fmt.Errorf("manifest validation failed: %w", err)
	}

	version := doc.Version()
	if version == "" {
		version = "unversioned"
	} else {
		version = "v" + version
	}
	fmt.Fprintf(out, "  [ OK ] Valid %s manifest: %s (%s, %s)\n", doc.Kind(), doc.ID(), doc.Name(), version)
	return nil
}
