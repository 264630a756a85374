package bundle

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/tilepad/tilepad-cli/internal/archive"
	"github.com/tilepad/tilepad-cli/internal/manifest"
)

// Inspection describes a bundle on disk and the manifest it carries.
type Inspection struct {
	*archive.Listing
	Manifest *manifest.Document
}

// KindForExtension returns the bundle kind for an archive file extension, or
// an empty kind when the extension is not a bundle extension.
func KindForExtension(ext string) manifest.Kind {
	switch strings.ToLower(ext) {
	case strings.ToLower(PluginExtension):
		return manifest.KindPlugin
	case strings.ToLower(IconPackExtension):
		return manifest.KindIconPack
	default:
		return ""
	}
}

// Inspect lists the archive at path and parses the manifest at its root.
// The manifest kind follows the file extension and is detected from the
// document for other extensions.
func Inspect(path string) (*Inspection, error) {
	listing, err := archive.Inspect(path)
	if err != nil {
		return nil, err
	}

	kind := KindForExtension(filepath.Ext(path))
	for _, name := range manifest.FileNames {
		data, err := archive.ReadFile(path, name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}

		doc, err := manifest.Parse(data, path+"!/"+name, kind)
		if err != nil {
			return nil, err
		}
		return &Inspection{Listing: listing, Manifest: doc}, nil
	}

	return nil, fmt.Errorf("%s has no manifest at its root: %w", path, manifest.ErrNotFound)
}
