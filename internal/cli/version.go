package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tilepad/tilepad-cli/internal/branding"
	"github.com/tilepad/tilepad-cli/internal/config"
	"github.com/tilepad/tilepad-cli/internal/control"
)

var (
	versionShort bool
	versionJSON  bool
)

// versionInfo is printed by `version --json`. The control fields let bug
// reports show which desktop app protocol the CLI was talking to.
type versionInfo struct {
	Version     string `json:"version"`
	Commit      string `json:"commit"`
	Date        string `json:"date"`
	HostApp     string `json:"host_app"`
	ControlID   string `json:"control_identifier"`
	ControlPort int    `json:"control_port"`
}

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Print version number only")
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Print version and control settings as JSON")
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch {
		case versionShort:
			fmt.Fprintln(out, buildVersion)
		case versionJSON:
			data, err := json.MarshalIndent(versionInfo{
				Version:     buildVersion,
				Commit:      buildCommit,
				Date:        buildDate,
				HostApp:     branding.HostAppID(),
				ControlID:   control.Identifier,
				ControlPort: config.Port(),
			}, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling version info: %w", err)
			}
			fmt.Fprintln(out, string(data))
		default:
			fmt.Fprintf(out, "%s version %s\n", branding.CLIName(), versionString())
		}
		return nil
	},
}
