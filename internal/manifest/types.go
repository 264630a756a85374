package manifest

import (
	"errors"
	"fmt"
	"strings"
)

// Kind identifies which namespace a manifest describes.
type Kind string

const (
	KindPlugin   Kind = "plugin"
	KindIconPack Kind = "icon-pack"
)

// namespace returns the top-level key holding the identifier for the kind.
func (k Kind) namespace() string {
	if k == KindIconPack {
		return "icons"
	}
	return "plugin"
}

// Format is the serialization format of a manifest file.
type Format string

const (
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FileNames lists the manifest file names searched for, in priority order.
var FileNames = []string{
	"manifest.json",
	"manifest.json5",
	"manifest.toml",
	"manifest.yaml",
	"manifest.yml",
}

// Sentinel errors for manifest lookup.
var (
	ErrNotFound      = errors.New("not found")
	ErrNotADirectory = errors.New("not a directory")
)

// ParseError reports a manifest whose body could not be decoded or failed
// schema validation.
type ParseError struct {
	Path   string
	Issues []ValidationIssue
	Err    error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "failed to parse manifest %s", e.Path)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	for _, issue := range e.Issues {
		if issue.Path != "" {
			fmt.Fprintf(&b, "\n  %s: %s", issue.Path, issue.Message)
		} else {
			fmt.Fprintf(&b, "\n  %s", issue.Message)
		}
	}
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

// PluginManifest is the typed view of a plugin manifest.
type PluginManifest struct {
	Plugin   PluginMeta        `json:"plugin"`
	Category *Category         `json:"category,omitempty"`
	Actions  map[string]Action `json:"actions,omitempty"`
}

// PluginMeta holds the plugin namespace block.
type PluginMeta struct {
	ID          string   `json:"id"`
	Name        string   `json:"name,omitempty"`
	Version     string   `json:"version,omitempty"`
	Authors     []string `json:"authors,omitempty"`
	Description string   `json:"description,omitempty"`
	Icon        string   `json:"icon,omitempty"`
}

// Category groups a plugin's actions in the host UI.
type Category struct {
	Label string `json:"label"`
	Icon  string `json:"icon,omitempty"`
}

// Action is a single action a plugin exposes.
type Action struct {
	Label       string `json:"label"`
	Icon        string `json:"icon,omitempty"`
	Description string `json:"description,omitempty"`
}

// IconPackManifest is the typed view of an icon pack manifest.
type IconPackManifest struct {
	Icons IconPackMeta `json:"icons"`
}

// IconPackMeta holds the icons namespace block.
type IconPackMeta struct {
	ID          string   `json:"id"`
	Name        string   `json:"name,omitempty"`
	Version     string   `json:"version,omitempty"`
	Authors     []string `json:"authors,omitempty"`
	Description string   `json:"description,omitempty"`
}

// Document is a parsed, validated manifest. It is immutable once returned.
type Document struct {
	kind     Kind
	path     string
	format   Format
	plugin   *PluginManifest
	iconPack *IconPackManifest
}

// Kind returns the manifest namespace.
func (d *Document) Kind() Kind { return d.kind }

// Path returns the file the manifest was read from.
func (d *Document) Path() string { return d.path }

// Format returns the serialization format the manifest was decoded from.
func (d *Document) Format() Format { return d.format }

// Plugin returns the typed plugin view, or nil for icon packs.
func (d *Document) Plugin() *PluginManifest { return d.plugin }

// IconPack returns the typed icon pack view, or nil for plugins.
func (d *Document) IconPack() *IconPackManifest { return d.iconPack }

// ID returns the namespaced identifier.
func (d *Document) ID() string {
	if d.iconPack != nil {
		return d.iconPack.Icons.ID
	}
	return d.plugin.Plugin.ID
}

// Name returns the display name, falling back to the identifier.
func (d *Document) Name() string {
	var name string
	if d.iconPack != nil {
		name = d.iconPack.Icons.Name
	} else if d.plugin != nil {
		name = d.plugin.Plugin.Name
	}
	if name == "" {
		return d.ID()
	}
	return name
}

// Version returns the declared version, or an empty string.
func (d *Document) Version() string {
	if d.iconPack != nil {
		return d.iconPack.Icons.Version
	}
	return d.plugin.Plugin.Version
}
