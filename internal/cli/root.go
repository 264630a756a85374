package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/tilepad/tilepad-cli/internal/branding"
	"github.com/tilepad/tilepad-cli/internal/config"
	"github.com/tilepad/tilepad-cli/internal/control"
	"github.com/tilepad/tilepad-cli/internal/linker"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string

	port    int
	verbose bool

	logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: branding.CLIName()})
)

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` plugin developer tool.

Bundles plugins and icon packs into installable archives, links a plugin
under development into the desktop app and tells a running app to reload,
restart or stop plugins.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.Load()
		if err := config.BindFlag(config.KeyPort, cmd.Flags().Lookup("port")); err != nil {
			return err
		}
		if verbose {
			logger.SetLevel(log.DebugLevel)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().IntVar(&port, "port", config.DefaultPort, "port of the desktop app's control server")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	return fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(versionString()),
		fang.WithNotifySignal(os.Interrupt),
	)
}

func versionString() string {
	if buildVersion == "" || buildVersion == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", buildVersion, buildCommit, buildDate)
}

// controlClient returns a client for the configured control server port.
func controlClient() *control.Client {
	return control.New(config.Port(), control.WithLogger(logger))
}

func linkManager() *linker.Manager {
	return linker.New(linker.WithNotifier(controlClient()), linker.WithLogger(logger))
}
