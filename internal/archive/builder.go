package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
)

// DefaultBufferSize is the size of the buffer file contents are copied through.
const DefaultBufferSize = 32 * 1024

// EntryKind distinguishes file entries from directory entries.
type EntryKind string

const (
	EntryFile      EntryKind = "file"
	EntryDirectory EntryKind = "directory"
)

// Entry is an item written to the archive.
type Entry struct {
	Name string // slash-separated, relative to the archive root
	Kind EntryKind
	Size int64 // uncompressed bytes, zero for directories
}

// SkippedEntry is an item the walk could not read and left out.
type SkippedEntry struct {
	Name string
	Err  error
}

// Report describes what a build wrote and what it left out.
type Report struct {
	Entries []Entry
	Skipped []SkippedEntry
}

// Files returns the number of file entries written.
func (r *Report) Files() int {
	n := 0
	for _, e := range r.Entries {
		if e.Kind == EntryFile {
			n++
		}
	}
	return n
}

func (r *Report) skip(name string, err error) {
	r.Skipped = append(r.Skipped, SkippedEntry{Name: name, Err: err})
}

// Builder writes directory trees into zip archives.
type Builder struct {
	fs      afero.Fs
	bufSize int
	exclude map[string]bool
	logger  *log.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithFs sets the filesystem the tree is read from (useful for testing).
func WithFs(fs afero.Fs) Option {
	return func(b *Builder) {
		b.fs = fs
	}
}

// WithBufferSize sets the copy buffer size.
func WithBufferSize(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.bufSize = n
		}
	}
}

// WithExclude leaves the given paths out of the archive. A directory is
// excluded together with everything below it.
func WithExclude(paths ...string) Option {
	return func(b *Builder) {
		for _, p := range paths {
			b.exclude[pathKey(p)] = true
		}
	}
}

// WithLogger sets the logger used for per-entry debug output and skip warnings.
func WithLogger(l *log.Logger) Option {
	return func(b *Builder) {
		b.logger = l
	}
}

// NewBuilder creates a Builder reading from the OS filesystem by default.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		fs:      afero.NewOsFs(),
		bufSize: DefaultBufferSize,
		exclude: make(map[string]bool),
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build walks root depth-first in lexical order and writes every readable
// entry to w as a zip archive. The root itself is never an entry.
//
// Unreadable entries and broken symlinks are recorded in Report.Skipped and
// the walk continues. Failures writing to w, or finalizing the archive, are
// returned as errors; the archive is invalid in that case.
func (b *Builder) Build(root string, w io.Writer) (*Report, error) {
	root, err := b.resolveRoot(filepath.Clean(root))
	if err != nil {
		return nil, err
	}

	info, err := b.fs.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	zw := zip.NewWriter(w)
	buf := make([]byte, b.bufSize)
	report := &Report{}

	walkErr := afero.Walk(b.fs, root, func(path string, info fs.FileInfo, walkErr error) error {
		if path == root {
			if walkErr != nil {
				return fmt.Errorf("reading %s: %w", root, walkErr)
			}
			return nil
		}

		name, nameErr := entryName(root, path)
		if nameErr != nil {
			report.skip(filepath.ToSlash(path), nameErr)
			return nil
		}

		if walkErr != nil {
			// Either the entry could not be stat'ed or a directory that was
			// already written could not be listed.
			b.logger.Warn("skipping unreadable entry", "path", name, "err", walkErr)
			report.skip(name, walkErr)
			return nil
		}

		if b.exclude[pathKey(path)] {
			b.logger.Debug("excluded", "path", name)
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		return b.addEntry(zw, report, path, name, info, buf)
	})
	if walkErr != nil {
		return report, walkErr
	}

	if err := zw.Close(); err != nil {
		return report, fmt.Errorf("finalizing archive: %w", err)
	}

	return report, nil
}

// resolveRoot follows root when it is itself a symlink; the walk lstat's the
// root and would otherwise not descend into it.
func (b *Builder) resolveRoot(root string) (string, error) {
	lstater, ok := b.fs.(afero.Lstater)
	if !ok {
		return root, nil
	}
	info, _, err := lstater.LstatIfPossible(root)
	if err != nil || info.Mode()&fs.ModeSymlink == 0 {
		return root, nil
	}

	reader, ok := b.fs.(afero.LinkReader)
	if !ok {
		return root, nil
	}
	target, err := reader.ReadlinkIfPossible(root)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", root, err)
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(root), target)
	}
	return filepath.Clean(target), nil
}

// addEntry writes a single walked item. Only write failures are returned.
func (b *Builder) addEntry(zw *zip.Writer, report *Report, path, name string, info fs.FileInfo, buf []byte) error {
	if info.Mode()&fs.ModeSymlink != 0 {
		// Links are followed one level: a link to a file archives the file's
		// contents, a link to a directory becomes an empty directory entry.
		target, err := b.fs.Stat(path)
		if err != nil {
			b.logger.Warn("skipping broken symlink", "path", name, "err", err)
			report.skip(name, fmt.Errorf("broken symlink: %w", err))
			return nil
		}
		info = target
	}

	switch {
	case info.IsDir():
		return b.addDir(zw, report, name, info)
	case info.Mode().IsRegular():
		return b.addFile(zw, report, path, name, info, buf)
	default:
		report.skip(name, fmt.Errorf("unsupported file type %s", info.Mode().Type()))
		return nil
	}
}

func (b *Builder) addDir(zw *zip.Writer, report *Report, name string, info fs.FileInfo) error {
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("creating header for %s: %w", name, err)
	}
	header.Name = name + "/"

	if _, err := zw.CreateHeader(header); err != nil {
		return fmt.Errorf("writing directory entry %s: %w", name, err)
	}

	b.logger.Debug("added directory", "path", name)
	report.Entries = append(report.Entries, Entry{Name: name, Kind: EntryDirectory})
	return nil
}

func (b *Builder) addFile(zw *zip.Writer, report *Report, path, name string, info fs.FileInfo, buf []byte) error {
	// Open before writing a header so an unreadable file leaves no entry behind.
	f, err := b.fs.Open(path)
	if err != nil {
		b.logger.Warn("skipping unreadable file", "path", name, "err", err)
		report.skip(name, err)
		return nil
	}
	defer f.Close()

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("creating header for %s: %w", name, err)
	}
	header.Name = name
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("writing file entry %s: %w", name, err)
	}

	// Hide any WriterTo on the source so the copy goes through buf.
	n, err := io.CopyBuffer(w, struct{ io.Reader }{f}, buf)
	if err != nil {
		return fmt.Errorf("writing file entry %s: %w", name, err)
	}

	b.logger.Debug("added file", "path", name, "bytes", n)
	report.Entries = append(report.Entries, Entry{Name: name, Kind: EntryFile, Size: n})
	return nil
}

// entryName returns the slash-separated archive name of path relative to root.
func entryName(root, path string) (string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", fmt.Errorf("resolving relative path: %w", err)
	}
	name := filepath.ToSlash(rel)
	if err := ValidateEntryName(name); err != nil {
		return "", err
	}
	return name, nil
}

// ErrInvalidEntryName is returned for archive names that are empty, absolute,
// or contain a ".." segment.
var ErrInvalidEntryName = errors.New("invalid archive entry name")

// ValidateEntryName checks that name is a non-empty relative path that stays
// inside the archive root.
func ValidateEntryName(name string) error {
	trimmed := strings.TrimSuffix(name, "/")
	if trimmed == "" || trimmed == "." {
		return fmt.Errorf("%w: empty", ErrInvalidEntryName)
	}
	if strings.HasPrefix(trimmed, "/") || filepath.IsAbs(trimmed) {
		return fmt.Errorf("%w: %q is absolute", ErrInvalidEntryName, name)
	}
	for _, seg := range strings.Split(trimmed, "/") {
		if seg == ".." {
			return fmt.Errorf("%w: %q escapes the root", ErrInvalidEntryName, name)
		}
	}
	return nil
}

// pathKey normalizes a path for exclusion lookups.
func pathKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
