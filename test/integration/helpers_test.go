//go:build integration

package integration_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/tilepad/tilepad-cli/internal/branding"
	"github.com/tilepad/tilepad-cli/internal/control"
	"github.com/tilepad/tilepad-cli/internal/platform"
)

// testEnv holds paths to isolated test directories.
type testEnv struct {
	DataDir    string // TILEPAD_DATA_DIR, the per-user data root
	HostRoot   string // <DataDir>/<host app id>
	ProjectDir string // a mock plugin project
}

// setupTestEnv creates isolated temp directories and points the data dir at
// them so nothing touches the real desktop app install.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	if !platform.IsSymlinkSupported() {
		t.Skip("directory symlinks are not available")
	}

	env := &testEnv{
		DataDir:    t.TempDir(),
		ProjectDir: t.TempDir(),
	}
	env.HostRoot = filepath.Join(env.DataDir, branding.HostAppID())

	t.Setenv(branding.EnvVar("DATA_DIR"), env.DataDir)
	t.Setenv("HOME", t.TempDir())

	if err := os.MkdirAll(env.HostRoot, 0755); err != nil {
		t.Fatalf("creating host root: %v", err)
	}
	return env
}

// writePlugin writes a plugin project with the given manifest id.
func (e *testEnv) writePlugin(t *testing.T, id string) string {
	t.Helper()
	src := filepath.Join(e.ProjectDir, ".tilepadPlugin")
	writeFile(t, filepath.Join(src, "manifest.toml"), "[plugin]\nid = \""+id+"\"\nname = \"Demo\"\nversion = \"1.2.0\"\n")
	writeFile(t, filepath.Join(src, "bin", "plugin.js"), "console.log('hi')")
	writeFile(t, filepath.Join(src, "images", "icon.svg"), "<svg/>")
	return src
}

// desktopApp is a minimal control server that records the paths it was sent.
type desktopApp struct {
	mu       sync.Mutex
	requests []string
}

func (a *desktopApp) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/server/details" {
		_ = json.NewEncoder(w).Encode(control.ServerDetails{Identifier: control.Identifier})
		return
	}
	_, _ = io.Copy(io.Discard, r.Body)
	a.mu.Lock()
	a.requests = append(a.requests, r.Method+" "+r.URL.EscapedPath())
	a.mu.Unlock()
}

func (a *desktopApp) seen() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.requests...)
}

// startApp serves a desktopApp and returns a client pointed at it.
func startApp(t *testing.T) (*desktopApp, *control.Client) {
	t.Helper()
	app := &desktopApp{}
	srv := httptest.NewServer(app)
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parsing server url: %v", err)
	}
	client := control.New(0, control.WithBaseURL("http://"+u.Host), control.WithLogger(quietLogger()))
	return app, client
}

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("creating dir %s: %v", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func assertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file to exist: %s (error: %v)", path, err)
	}
}

func assertNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Lstat(path); err == nil {
		t.Errorf("expected %s not to exist", path)
	}
}

func assertContains(t *testing.T, got []string, want string) {
	t.Helper()
	for _, g := range got {
		if g == want {
			return
		}
	}
	t.Errorf("expected %q in [%s]", want, strings.Join(got, ", "))
}
