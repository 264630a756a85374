// Package config manages user-level settings stored at ~/.tilepad/config.yaml.
// Values resolve from command-line flags, TILEPAD_* environment variables,
// the config file, then built-in defaults such as the control server port.
package config
