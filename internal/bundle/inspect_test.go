package bundle

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tilepad/tilepad-cli/internal/manifest"
)

func TestInspect_RoundTripsBundle(t *testing.T) {
	project := t.TempDir()
	writeFile(t, filepath.Join(project, ".tilepadPlugin", "manifest.yaml"), "plugin:\n  id: com.example.yaml\n  version: 1.0.0\n")
	writeFile(t, filepath.Join(project, ".tilepadPlugin", "index.js"), "// entry")

	result, err := Run(context.Background(), Options{Kind: manifest.KindPlugin, Path: project, OutputDir: t.TempDir(), Logger: quiet()})
	require.NoError(t, err)

	insp, err := Inspect(result.OutputPath)
	require.NoError(t, err)

	assert.Equal(t, result.SHA256, insp.SHA256)
	assert.Equal(t, "com.example.yaml", insp.Manifest.ID())
	assert.Equal(t, manifest.KindPlugin, insp.Manifest.Kind())
	assert.Equal(t, "1.0.0", insp.Manifest.Version())
	assert.Equal(t, 2, insp.Files())
}

func TestInspect_DetectsKindForOtherExtensions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pack.zip")
	writeZip(t, path, map[string]string{"manifest.json": `{"icons":{"id":"pack"}}`})

	insp, err := Inspect(path)
	require.NoError(t, err)
	assert.Equal(t, manifest.KindIconPack, insp.Manifest.Kind())
}

func TestInspect_WrongKindForExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pack.tilepadPlugin")
	writeZip(t, path, map[string]string{"manifest.json": `{"icons":{"id":"pack"}}`})

	_, err := Inspect(path)
	var parseErr *manifest.ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestInspect_MissingManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.tilepadPlugin")
	writeZip(t, path, map[string]string{"nested/manifest.json": `{"plugin":{"id":"x"}}`})

	_, err := Inspect(path)
	assert.ErrorIs(t, err, manifest.ErrNotFound)
}

func TestKindForExtension(t *testing.T) {
	assert.Equal(t, manifest.KindPlugin, KindForExtension(".tilepadPlugin"))
	assert.Equal(t, manifest.KindPlugin, KindForExtension(".TILEPADPLUGIN"))
	assert.Equal(t, manifest.KindIconPack, KindForExtension(".tilepadIcons"))
	assert.Equal(t, manifest.Kind(""), KindForExtension(".zip"))
}

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}
