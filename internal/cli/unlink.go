package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tilepad/tilepad-cli/internal/control"
)

func init() {
	unlinkCmd.Flags().StringVarP(&linkPath, "path", "p", "", "directory containing the .tilepadPlugin directory (default: current directory)")
	rootCmd.AddCommand(unlinkCmd)
}

var unlinkCmd = &cobra.Command{
	Use:   "unlink",
	Short: "Remove the link for the current plugin",
	Long: `Remove the symlink created by 'tilepad link'. A real directory in the
plugin's slot is never removed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := pluginSourceDir()
		if err != nil {
			return err
		}

		result, err := linkManager().Unlink(cmd.Context(), src)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if !result.Removed {
			fmt.Fprintf(out, "Link not found for %s, nothing to do.\n", result.Slot.PluginID)
			return nil
		}
		fmt.Fprintf(out, "Removed link %s\n", result.Slot.Path)
		if result.Notified == control.OutcomeSent {
			fmt.Fprintln(out, "Reloaded plugins.")
		}
		return nil
	},
}
