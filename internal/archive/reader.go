package archive

import (
	"archive/zip"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Listing describes an archive on disk.
type Listing struct {
	Path    string
	Size    int64
	SHA256  string
	Entries []Entry
}

// Files returns the number of file entries.
func (l *Listing) Files() int {
	r := Report{Entries: l.Entries}
	return r.Files()
}

// Inspect reads the central directory of the zip archive at path, checks that
// every entry name stays inside the archive root and computes the archive's
// SHA-256.
func Inspect(path string) (*Listing, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, fmt.Errorf("computing checksum: %w", err)
	}

	// Names are checked below, so an insecure path is reported as such.
	zr, err := zip.NewReader(f, info.Size())
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return nil, fmt.Errorf("reading archive %s: %w", path, err)
	}

	listing := &Listing{
		Path:   path,
		Size:   info.Size(),
		SHA256: hex.EncodeToString(h.Sum(nil)),
	}
	for _, zf := range zr.File {
		if err := ValidateEntryName(zf.Name); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if strings.HasSuffix(zf.Name, "/") {
			listing.Entries = append(listing.Entries, Entry{Name: strings.TrimSuffix(zf.Name, "/"), Kind: EntryDirectory})
			continue
		}
		listing.Entries = append(listing.Entries, Entry{Name: zf.Name, Kind: EntryFile, Size: int64(zf.UncompressedSize64)})
	}

	return listing, nil
}

// ReadFile returns the contents of the file entry name in the archive at
// path. A missing entry returns an error wrapping fs.ErrNotExist.
func ReadFile(path, name string) ([]byte, error) {
	zr, err := zip.OpenReader(path)
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	defer zr.Close()

	f, err := zr.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s from archive: %w", name, err)
	}
	return data, nil
}
