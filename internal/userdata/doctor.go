package userdata

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/tilepad/tilepad-cli/internal/platform"
)

// HostReport summarizes the state of the host data directory.
type HostReport struct {
	HostRoot      string
	HostFound     bool
	PluginsDir    string
	PluginsExists bool
	SymlinksOK    bool
	Links         []DevLink
}

// DevLink is a symlinked slot found in the plugins directory.
type DevLink struct {
	Name   string
	Target string
	Broken bool
}

// CheckHost inspects the host data directory and prints a report to w.
// Problems are reported, not returned; the error return is for failures to
// resolve paths at all.
func CheckHost(w io.Writer) (*HostReport, error) {
	root, err := GetHostRoot()
	if err != nil {
		return nil, err
	}

	report := &HostReport{
		HostRoot:   root,
		PluginsDir: filepath.Join(root, PluginsDir),
		SymlinksOK: platform.IsSymlinkSupported(),
	}

	fmt.Fprintln(w, "Host check:")

	if info, statErr := os.Stat(root); statErr != nil || !info.IsDir() {
		fmt.Fprintf(w, "  [MISS] %s does not exist\n", root)
		fmt.Fprintln(w, "         Install and launch the Tilepad desktop app first")
		return report, nil
	}
	report.HostFound = true
	fmt.Fprintf(w, "  [ OK ] %s exists\n", root)

	if report.SymlinksOK {
		fmt.Fprintln(w, "  [ OK ] directory symlinks supported")
	} else {
		fmt.Fprintln(w, "  [FAIL] directory symlinks not supported (enable Developer Mode)")
	}

	entries, err := os.ReadDir(report.PluginsDir)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintf(w, "  [MISS] %s does not exist (created on first link)\n", report.PluginsDir)
			return report, nil
		}
		fmt.Fprintf(w, "  [FAIL] %s: %v\n", report.PluginsDir, err)
		return report, nil
	}
	report.PluginsExists = true
	fmt.Fprintf(w, "  [ OK ] %s exists\n", report.PluginsDir)

	for _, entry := range entries {
		path := filepath.Join(report.PluginsDir, entry.Name())
		if !platform.IsSymlink(path) {
			continue
		}

		link := DevLink{Name: entry.Name()}
		link.Target, err = platform.ReadSymlinkTarget(path)
		if err != nil {
			link.Broken = true
		} else if _, err := os.Stat(link.Target); err != nil {
			link.Broken = true
		}
		report.Links = append(report.Links, link)

		if link.Broken {
			fmt.Fprintf(w, "  [WARN] dev link %s -> %s is broken\n", link.Name, link.Target)
		} else {
			fmt.Fprintf(w, "  [ OK ] dev link %s -> %s\n", link.Name, link.Target)
		}
	}

	return report, nil
}
