// Package manifest locates, parses and validates Tilepad plugin and icon pack
// manifests. A manifest may be written as JSON (JSON5 tolerated), TOML or
// YAML; the format is chosen by file extension, falling back to content
// sniffing. Every document is checked against an embedded JSON schema for its
// kind before the rest of the CLI sees it, and only the namespaced identifier
// and a few descriptive fields are exposed.
package manifest
