package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/pelletier/go-toml/v2"
	json5 "github.com/yosuke-furukawa/json5/encoding/json5"
	"go.yaml.in/yaml/v3"
)

// Load finds the manifest directly inside rootDir, parses it and validates it
// as the given kind. An empty kind is detected from the document's top-level
// namespace key.
func Load(rootDir string, kind Kind) (*Document, error) {
	path, err := FindFile(rootDir)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file %s: %w", path, err)
	}

	return Parse(data, path, kind)
}

// FindFile returns the path of the first manifest file in rootDir matching
// FileNames.
func FindFile(rootDir string) (string, error) {
	info, err := os.Stat(rootDir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%s directory does not exist: %w", rootDir, ErrNotFound)
		}
		return "", fmt.Errorf("checking %s: %w", rootDir, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s: %w", rootDir, ErrNotADirectory)
	}

	for _, name := range FileNames {
		path := filepath.Join(rootDir, name)
		info, err := os.Stat(path)
		if err == nil && info.Mode().IsRegular() {
			return path, nil
		}
	}

	return "", fmt.Errorf("%s manifest file does not exist: %w", filepath.Join(rootDir, FileNames[0]), ErrNotFound)
}

// Parse decodes manifest bytes read from path and validates them as kind.
// The format is chosen from path's extension or sniffed from data.
func Parse(data []byte, path string, kind Kind) (*Document, error) {
	format := DetectFormat(path, data)

	raw, err := decode(data, format)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	if kind == "" {
		kind, err = detectKind(raw)
		if err != nil {
			return nil, &ParseError{Path: path, Err: err}
		}
	}

	jsonData, result, err := validateRaw(raw, kind)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	if !result.Valid {
		return nil, &ParseError{Path: path, Err: fmt.Errorf("invalid %s manifest", kind), Issues: result.Issues}
	}

	doc := &Document{kind: kind, path: path, format: format}
	switch kind {
	case KindIconPack:
		doc.iconPack, err = parseTyped[IconPackManifest](jsonData)
	default:
		doc.plugin, err = parseTyped[PluginManifest](jsonData)
	}
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	if v := doc.Version(); v != "" {
		if _, err := semver.NewVersion(v); err != nil {
			return nil, &ParseError{
				Path:   path,
				Err:    fmt.Errorf("invalid %s manifest", kind),
				Issues: []ValidationIssue{{Path: "/" + kind.namespace() + "/version", Message: err.Error(), Keyword: "semver"}},
			}
		}
	}

	return doc, nil
}

// DetectFormat picks a decoder from the file extension. Unknown extensions are
// sniffed: a leading '{' means JSON, a TOML table header or key = value line
// means TOML, anything else is treated as YAML.
func DetectFormat(path string, data []byte) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".json5":
		return FormatJSON
	case ".toml":
		return FormatTOML
	case ".yaml", ".yml":
		return FormatYAML
	}

	trimmed := bytes.TrimSpace(data)
	if bytes.HasPrefix(trimmed, []byte("{")) {
		return FormatJSON
	}
	var probe map[string]interface{}
	if bytes.HasPrefix(trimmed, []byte("[")) || toml.Unmarshal(trimmed, &probe) == nil {
		return FormatTOML
	}
	return FormatYAML
}

// decode unmarshals data into a generic map using the decoder for format.
func decode(data []byte, format Format) (map[string]interface{}, error) {
	var raw map[string]interface{}
	var err error

	switch format {
	case FormatJSON:
		err = json5.Unmarshal(data, &raw)
	case FormatTOML:
		err = toml.Unmarshal(data, &raw)
	case FormatYAML:
		err = yaml.Unmarshal(data, &raw)
	default:
		return nil, fmt.Errorf("unsupported manifest format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("unmarshaling %s: %w", strings.ToUpper(string(format)), err)
	}
	if raw == nil {
		return nil, fmt.Errorf("manifest is empty")
	}
	return raw, nil
}

// detectKind inspects the top-level keys to decide between plugin and icon
// pack manifests.
func detectKind(raw map[string]interface{}) (Kind, error) {
	_, hasPlugin := raw[KindPlugin.namespace()]
	_, hasIcons := raw[KindIconPack.namespace()]

	switch {
	case hasPlugin && !hasIcons:
		return KindPlugin, nil
	case hasIcons && !hasPlugin:
		return KindIconPack, nil
	case hasPlugin && hasIcons:
		return "", fmt.Errorf("manifest declares both 'plugin' and 'icons' blocks")
	default:
		return "", fmt.Errorf("manifest missing required 'plugin' or 'icons' block")
	}
}

// parseTyped unmarshals normalized JSON data into a typed manifest struct.
func parseTyped[T any](data []byte) (*T, error) {
	var m T
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding manifest fields: %w", err)
	}
	return &m, nil
}
