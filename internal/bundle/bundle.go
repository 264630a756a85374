package bundle

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/tilepad/tilepad-cli/internal/archive"
	"github.com/tilepad/tilepad-cli/internal/manifest"
)

const (
	// PluginSourceDir is the directory inside a plugin project holding the
	// files that are shipped.
	PluginSourceDir = ".tilepadPlugin"

	PluginExtension   = ".tilepadPlugin"
	IconPackExtension = ".tilepadIcons"
)

// Options controls a bundle run. Zero values pick the defaults.
type Options struct {
	Kind      manifest.Kind
	Path      string // project directory, defaults to "."
	Name      string // output file name without extension, defaults to the manifest id
	OutputDir string // defaults to "."
	Logger    *log.Logger
}

// Result describes a written bundle.
type Result struct {
	OutputPath string
	SHA256     string
	Manifest   *manifest.Document
	Report     *archive.Report
}

// SourceDir returns the directory that is archived for kind and its output
// file extension.
func SourceDir(kind manifest.Kind, path string) (string, string, error) {
	if path == "" {
		path = "."
	}
	switch kind {
	case manifest.KindPlugin:
		return filepath.Join(path, PluginSourceDir), PluginExtension, nil
	case manifest.KindIconPack:
		return filepath.Clean(path), IconPackExtension, nil
	default:
		return "", "", fmt.Errorf("unknown bundle kind %q", kind)
	}
}

// Run loads the manifest of the source directory and writes
// <OutputDir>/<Name><ext>. A failed build removes the partial output file.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	src, ext, err := SourceDir(opts.Kind, opts.Path)
	if err != nil {
		return nil, err
	}

	doc, err := manifest.Load(src, opts.Kind)
	if err != nil {
		return nil, err
	}

	name := opts.Name
	if name == "" {
		name = doc.ID()
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return nil, fmt.Errorf("invalid bundle name %q: must be a plain file name", name)
	}

	outDir := opts.OutputDir
	if outDir == "" {
		outDir = "."
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory %s: %w", outDir, err)
	}
	outPath := filepath.Join(outDir, name+ext)

	logger.Debug("bundling", "source", src, "output", outPath, "id", doc.ID())

	f, err := os.Create(outPath)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", outPath, err)
	}

	builder := archive.NewBuilder(
		archive.WithExclude(outPath),
		archive.WithLogger(logger),
	)
	h := sha256.New()
	report, buildErr := builder.Build(src, io.MultiWriter(f, h))
	if closeErr := f.Close(); buildErr == nil && closeErr != nil {
		buildErr = fmt.Errorf("closing %s: %w", outPath, closeErr)
	}
	if buildErr != nil {
		os.Remove(outPath)
		return nil, fmt.Errorf("bundling %s: %w", src, buildErr)
	}

	return &Result{
		OutputPath: outPath,
		SHA256:     hex.EncodeToString(h.Sum(nil)),
		Manifest:   doc,
		Report:     report,
	}, nil
}
