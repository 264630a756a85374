package platform

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
)

// LinkKind describes what currently occupies a path.
type LinkKind int

const (
	// KindAbsent means nothing exists at the path.
	KindAbsent LinkKind = iota
	// KindSymlink means the path is a symbolic link (possibly dangling).
	KindSymlink
	// KindDirectory means the path is a real directory.
	KindDirectory
	// KindFile means the path is a regular file or other non-directory entry.
	KindFile
)

// String returns a human-readable name for the kind.
func (k LinkKind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindSymlink:
		return "symlink"
	case KindDirectory:
		return "directory"
	case KindFile:
		return "file"
	default:
		return "unknown"
	}
}

// Inspect reports what occupies path without following symlinks.
func Inspect(path string) (LinkKind, error) {
	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return KindAbsent, nil
		}
		return KindAbsent, err
	}

	switch {
	case info.Mode()&os.ModeSymlink != 0:
		return KindSymlink, nil
	case info.IsDir():
		return KindDirectory, nil
	default:
		return KindFile, nil
	}
}

// IsSymlink returns true if path exists and is a symbolic link.
func IsSymlink(path string) bool {
	kind, err := Inspect(path)
	return err == nil && kind == KindSymlink
}

// CreateDirSymlink creates a symbolic link at link pointing to the directory
// target. target should be absolute so the link survives being read from a
// different working directory.
func CreateDirSymlink(target, link string) error {
	err := os.Symlink(target, link)
	if err == nil {
		return nil
	}

	if runtime.GOOS == "windows" {
		return fmt.Errorf("%w (enable Developer Mode or run as administrator to allow directory symlinks)", err)
	}
	return err
}

// RemoveDirSymlink removes the symbolic link at path. It refuses to touch
// anything that is not a symlink so a real directory is never removed by
// mistake.
func RemoveDirSymlink(path string) error {
	kind, err := Inspect(path)
	if err != nil {
		return err
	}
	if kind != KindSymlink {
		return fmt.Errorf("%s is a %s, not a symlink", path, kind)
	}
	return os.Remove(path)
}

// ReadSymlinkTarget returns the target of a symlink. Relative targets are
// resolved against the directory containing the link.
func ReadSymlinkTarget(path string) (string, error) {
	target, err := os.Readlink(path)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(path), target)
	}
	return target, nil
}

// IsSymlinkSupported returns true if the current platform can create
// directory symlinks. On Windows this attempts a test symlink to check
// developer mode.
func IsSymlinkSupported() bool {
	if runtime.GOOS != "windows" {
		return true
	}

	tmpDir := os.TempDir()
	link := filepath.Join(tmpDir, ".tilepad-symlink-test")
	defer os.Remove(link)

	if err := os.Symlink(tmpDir, link); err != nil {
		return false
	}
	return true
}
