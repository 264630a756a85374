package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tilepad/tilepad-cli/internal/bundle"
	"github.com/tilepad/tilepad-cli/internal/control"
	"github.com/tilepad/tilepad-cli/internal/linker"
	"github.com/tilepad/tilepad-cli/internal/manifest"
)

var linkPath string

func init() {
	linkCmd.PersistentFlags().StringVarP(&linkPath, "path", "p", "", "directory containing the .tilepadPlugin directory (default: current directory)")
	linkCmd.AddCommand(linkStatusCmd)
	rootCmd.AddCommand(linkCmd)
}

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Link the current plugin into Tilepad",
	Long: `Create a symlink in Tilepad's plugins directory pointing at the .tilepadPlugin
directory, so changes to it are picked up by the app without re-bundling.

Anything already in the plugin's slot, including an installed copy of the
plugin, is replaced. A running Tilepad is asked to reload its plugins.

Example:
  tilepad link
  tilepad link -p ./my-plugin`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := pluginSourceDir()
		if err != nil {
			return err
		}

		result, err := linkManager().Link(cmd.Context(), src)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Linked %s -> %s\n", result.Slot.Path, result.Source)
		if result.Notified == control.OutcomeSent {
			fmt.Fprintln(out, "Reloaded plugins.")
		}
		return nil
	},
}

var linkStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the current plugin is linked",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := pluginSourceDir()
		if err != nil {
			return err
		}

		slot, err := linkManager().Status(src)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch slot.State {
		case linker.StateLinked:
			fmt.Fprintf(out, "  [ OK ] %s: linked -> %s\n", slot.PluginID, slot.Target)
		case linker.StateOccupied:
			fmt.Fprintf(out, "  [WARN] %s: %s is not a link (installed copy?)\n", slot.PluginID, slot.Path)
		default:
			fmt.Fprintf(out, "  [ -- ] %s: not linked\n", slot.PluginID)
		}
		return nil
	},
}

func pluginSourceDir() (string, error) {
	src, _, err := bundle.SourceDir(manifest.KindPlugin, linkPath)
	return src, err
}
