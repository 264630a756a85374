// Package cli defines the Cobra command tree for the tilepad CLI. Each file
// in this package registers one command (bundle, link, restart, etc.) with the
// root command. Command implementations delegate to internal packages for the
// work and only handle flag parsing and output.
package cli
