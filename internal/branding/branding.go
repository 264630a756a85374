// Package branding provides compile-time identity values for the CLI.
//
// branding.yaml is embedded with //go:embed and overlays the hard defaults
// below, so a fork targeting a differently named host only edits the YAML.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName     string `yaml:"cli_name"`
	DisplayName string `yaml:"display_name"`
	Description string `yaml:"description"`
	HomeDir     string `yaml:"home_dir"`
	EnvPrefix   string `yaml:"env_prefix"`
	HostAppID   string `yaml:"host_app_id"`
}

func load() {
	once.Do(func() {
		// Set hard defaults in case the embedded file is missing/empty.
		defaults = brand{
			CLIName:     "tilepad",
			DisplayName: "Tilepad",
			Description: "Developer tooling for Tilepad plugins and icon packs",
			HomeDir:     ".tilepad",
			EnvPrefix:   "TILEPAD",
			HostAppID:   "com.jacobtread.tilepad.desktop",
		}
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "tilepad").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name (e.g., "Tilepad").
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// HomeDir returns the dot-directory name under $HOME (e.g., ".tilepad").
func HomeDir() string { load(); return defaults.HomeDir }

// EnvPrefix returns the environment variable prefix (e.g., "TILEPAD").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// HostAppID returns the application namespace the host desktop app uses
// under the OS data directory (e.g., "com.jacobtread.tilepad.desktop").
func HostAppID() string { load(); return defaults.HostAppID }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("PORT") → "TILEPAD_PORT".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
