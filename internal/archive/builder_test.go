package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// testingT is satisfied by both *testing.T and *rapid.T.
type testingT interface {
	require.TestingT
	Helper()
}

// extracted is the content of an archive: file bodies keyed by name plus the
// set of explicit directory entries.
type extracted struct {
	Files map[string]string
	Dirs  map[string]bool
	Order []string
}

func readArchive(t testingT, data []byte) extracted {
	t.Helper()
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	out := extracted{Files: map[string]string{}, Dirs: map[string]bool{}}
	for _, f := range r.File {
		out.Order = append(out.Order, f.Name)
		if strings.HasSuffix(f.Name, "/") {
			out.Dirs[strings.TrimSuffix(f.Name, "/")] = true
			continue
		}
		require.Equal(t, zip.Deflate, f.Method, "file %s should be deflated", f.Name)
		rc, err := f.Open()
		require.NoError(t, err)
		body, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		out.Files[f.Name] = string(body)
	}
	return out
}

func quietBuilder(opts ...Option) *Builder {
	return NewBuilder(append([]Option{WithLogger(log.New(io.Discard))}, opts...)...)
}

func writeMemFile(t testingT, fs afero.Fs, name, body string) {
	t.Helper()
	require.NoError(t, fs.MkdirAll(filepath.Dir(name), 0755))
	require.NoError(t, afero.WriteFile(fs, name, []byte(body), 0644))
}

func TestBuild_PluginDirectoryHasNoRootPrefix(t *testing.T) {
	fs := afero.NewMemMapFs()
	root := "/work/.tilepadPlugin"
	writeMemFile(t, fs, root+"/manifest.json", `{"plugin":{"id":"demo"}}`)
	writeMemFile(t, fs, root+"/index.js", "console.log('hi')")

	var buf bytes.Buffer
	report, err := quietBuilder(WithFs(fs)).Build(root, &buf)
	require.NoError(t, err)

	got := readArchive(t, buf.Bytes())
	assert.Equal(t, map[string]string{
		"manifest.json": `{"plugin":{"id":"demo"}}`,
		"index.js":      "console.log('hi')",
	}, got.Files)
	assert.Empty(t, got.Dirs)
	assert.Equal(t, 2, report.Files())
	assert.Empty(t, report.Skipped)
}

func TestBuild_DirectoriesAndOrder(t *testing.T) {
	fs := afero.NewMemMapFs()
	root := "/src"
	writeMemFile(t, fs, root+"/b.txt", "b")
	writeMemFile(t, fs, root+"/a/nested/c.txt", "c")
	require.NoError(t, fs.MkdirAll(root+"/empty", 0755))

	var buf bytes.Buffer
	_, err := quietBuilder(WithFs(fs)).Build(root, &buf)
	require.NoError(t, err)

	got := readArchive(t, buf.Bytes())
	assert.Equal(t, []string{"a/", "a/nested/", "a/nested/c.txt", "b.txt", "empty/"}, got.Order)
}

func TestBuild_EntryNamesStayInsideRoot(t *testing.T) {
	fs := afero.NewMemMapFs()
	root := "/src"
	writeMemFile(t, fs, root+"/x/y/z.bin", "z")
	writeMemFile(t, fs, root+"/top", "t")

	var buf bytes.Buffer
	report, err := quietBuilder(WithFs(fs)).Build(root, &buf)
	require.NoError(t, err)

	for _, e := range report.Entries {
		assert.NoError(t, ValidateEntryName(e.Name))
	}
	for _, name := range readArchive(t, buf.Bytes()).Order {
		assert.NotEmpty(t, name)
		assert.NotContains(t, strings.Split(name, "/"), "..")
		assert.False(t, strings.HasPrefix(name, "/"))
	}
}

func TestBuild_Exclude(t *testing.T) {
	fs := afero.NewMemMapFs()
	root := "/pack"
	writeMemFile(t, fs, root+"/manifest.json", "{}")
	writeMemFile(t, fs, root+"/pack.tilepadIcons", "stale")
	writeMemFile(t, fs, root+"/dist/out.txt", "out")

	var buf bytes.Buffer
	_, err := quietBuilder(WithFs(fs), WithExclude(root+"/pack.tilepadIcons", root+"/dist")).Build(root, &buf)
	require.NoError(t, err)

	got := readArchive(t, buf.Bytes())
	assert.Equal(t, map[string]string{"manifest.json": "{}"}, got.Files)
	assert.Empty(t, got.Dirs)
}

func TestBuild_RootErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeMemFile(t, fs, "/file.txt", "x")

	_, err := quietBuilder(WithFs(fs)).Build("/missing", io.Discard)
	assert.Error(t, err)

	_, err = quietBuilder(WithFs(fs)).Build("/file.txt", io.Discard)
	assert.Error(t, err)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestBuild_WriteFailureIsFatal(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeMemFile(t, fs, "/src/big.bin", strings.Repeat("x", 1<<16))

	_, err := quietBuilder(WithFs(fs)).Build("/src", failingWriter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestBuild_SymlinksOnDisk(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require developer mode on windows")
	}
	tmp := t.TempDir()
	root := filepath.Join(tmp, "src")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "dir"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "real.txt"), []byte("real"), 0644))
	outside := filepath.Join(tmp, "outside.txt")
	require.NoError(t, os.WriteFile(outside, []byte("outside"), 0644))

	require.NoError(t, os.Symlink(outside, filepath.Join(root, "linked.txt")))
	require.NoError(t, os.Symlink(filepath.Join(tmp, "missing"), filepath.Join(root, "broken")))
	require.NoError(t, os.Symlink(filepath.Join(root, "dir"), filepath.Join(root, "dirlink")))

	var buf bytes.Buffer
	report, err := quietBuilder().Build(root, &buf)
	require.NoError(t, err)

	got := readArchive(t, buf.Bytes())
	assert.Equal(t, map[string]string{"real.txt": "real", "linked.txt": "outside"}, got.Files)
	assert.Equal(t, map[string]bool{"dir": true, "dirlink": true}, got.Dirs)

	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "broken", report.Skipped[0].Name)
}

func TestBuild_RootIsSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require developer mode on windows")
	}
	tmp := t.TempDir()
	real := filepath.Join(tmp, "real")
	require.NoError(t, os.MkdirAll(real, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(real, "index.js"), []byte("js"), 0644))
	link := filepath.Join(tmp, "link")
	require.NoError(t, os.Symlink(real, link))

	var buf bytes.Buffer
	_, err := quietBuilder().Build(link, &buf)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"index.js": "js"}, readArchive(t, buf.Bytes()).Files)
}

func TestBuild_UnreadableFileIsSkipped(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced here")
	}
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "ok.txt"), []byte("ok"), 0644))
	secret := filepath.Join(root, "secret.txt")
	require.NoError(t, os.WriteFile(secret, []byte("secret"), 0000))

	var buf bytes.Buffer
	report, err := quietBuilder().Build(root, &buf)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"ok.txt": "ok"}, readArchive(t, buf.Bytes()).Files)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "secret.txt", report.Skipped[0].Name)
}

func TestValidateEntryName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"index.js", false},
		{"a/b/c.txt", false},
		{"dir/", false},
		{"..hidden", false},
		{"", true},
		{".", true},
		{"/etc/passwd", true},
		{"../escape", true},
		{"a/../../b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEntryName(tt.name)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidEntryName)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

var (
	dirSegments = []string{"d0", "d1", "d2"}
	fileNames   = []string{"f0.txt", "f1.bin", "f2", "manifest.json"}
)

type genFile struct {
	Path string
	Data []byte
}

// TestBuild_RoundTrip checks that extracting a built archive reproduces the
// source tree's files byte for byte and all of its directories.
func TestBuild_RoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		fileGen := rapid.Custom(func(rt *rapid.T) genFile {
			dirs := rapid.SliceOfN(rapid.SampledFrom(dirSegments), 0, 3).Draw(rt, "dirs")
			name := rapid.SampledFrom(fileNames).Draw(rt, "name")
			data := rapid.SliceOfN(rapid.Byte(), 0, 2048).Draw(rt, "data")
			return genFile{Path: path.Join(append(dirs, name)...), Data: data}
		})
		files := rapid.SliceOfN(fileGen, 0, 12).Draw(rt, "files")
		emptyDirs := rapid.SliceOfN(rapid.SliceOfN(rapid.SampledFrom(dirSegments), 1, 3), 0, 4).Draw(rt, "emptyDirs")
		bufSize := rapid.IntRange(1, 4096).Draw(rt, "bufSize")

		fs := afero.NewMemMapFs()
		root := "/tree"
		require.NoError(rt, fs.MkdirAll(root, 0755))

		want := extracted{Files: map[string]string{}, Dirs: map[string]bool{}}
		addDirs := func(p string) {
			for d := p; d != "." && d != ""; d = path.Dir(d) {
				want.Dirs[d] = true
			}
		}

		for _, f := range files {
			writeMemFile(rt, fs, root+"/"+f.Path, string(f.Data))
			want.Files[f.Path] = string(f.Data)
			addDirs(path.Dir(f.Path))
		}
		for _, segs := range emptyDirs {
			p := path.Join(segs...)
			require.NoError(rt, fs.MkdirAll(root+"/"+p, 0755))
			addDirs(p)
		}

		var buf bytes.Buffer
		report, err := quietBuilder(WithFs(fs), WithBufferSize(bufSize)).Build(root, &buf)
		require.NoError(rt, err)
		require.Empty(rt, report.Skipped)

		got := readArchive(rt, buf.Bytes())
		got.Order = nil
		if diff := cmp.Diff(want, got); diff != "" {
			rt.Fatalf("archive mismatch (-want +got):\n%s", diff)
		}
		require.Equal(rt, len(want.Files), report.Files())
	})
}
