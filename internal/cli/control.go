package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tilepad/tilepad-cli/internal/control"
)

func init() {
	rootCmd.AddCommand(reloadPluginsCmd)
	rootCmd.AddCommand(restartCmd)
	rootCmd.AddCommand(stopCmd)
}

var reloadPluginsCmd = &cobra.Command{
	Use:   "reload-plugins",
	Short: "Tell Tilepad to reload its plugins",
	Long: `Tell a running Tilepad to reload the currently loaded plugins and load any
new plugins that were added. Does nothing when Tilepad is not running.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendAction(cmd, control.ReloadPlugins())
	},
}

var restartCmd = &cobra.Command{
	Use:   "restart <plugin-id>",
	Short: "Restart a specific plugin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendAction(cmd, control.RestartPlugin(args[0]))
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop <plugin-id>",
	Short: "Stop a specific plugin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendAction(cmd, control.StopPlugin(args[0]))
	},
}

// sendAction delivers an explicit request. A rejected request fails the
// command; a missing app does not.
func sendAction(cmd *cobra.Command, action control.Action) error {
	outcome, err := controlClient().Notify(cmd.Context(), action)
	if err != nil {
		return err
	}
	if outcome == control.OutcomeSent {
		fmt.Fprintf(cmd.OutOrStdout(), "Sent %s\n", action)
	}
	return nil
}
