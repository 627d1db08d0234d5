package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFileStore_FormatFromExtension(t *testing.T) {
	dir := t.TempDir()

	yamlStore, err := NewFileStore(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, yamlStore.Format())
	assert.False(t, yamlStore.IsModified())

	jsonStore, err := NewFileStore(filepath.Join(dir, "config.JSON"))
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, jsonStore.Format())
}

func TestNewFileStore_DefaultPath(t *testing.T) {
	store, err := NewFileStore("")
	require.NoError(t, err)

	want, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, want, store.Path())
	assert.Equal(t, FormatYAML, store.Format())
}

func TestFileStore_RoundTrip(t *testing.T) {
	for _, name := range []string{"config.yaml", "config.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)

			store, err := NewFileStore(path)
			require.NoError(t, err)
			require.NoError(t, store.SetSection("llm", map[string]interface{}{
				"model_key":  "pro",
				"candidates": 7,
			}))
			assert.True(t, store.IsModified())
			require.NoError(t, store.Save())
			assert.False(t, store.IsModified())

			info, err := os.Stat(path)
			require.NoError(t, err)
			assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
			assert.NoFileExists(t, path+".tmp")

			reloaded, err := NewFileStore(path)
			require.NoError(t, err)
			data, err := reloaded.GetSection("llm")
			require.NoError(t, err)
			assert.Equal(t, "pro", data["model_key"])
			n, ok := asInt(data["candidates"])
			require.True(t, ok)
			assert.Equal(t, 7, n)
		})
	}
}

func TestFileStore_ReadsHandWrittenYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`version: "1.0"
sections:
  browser:
    start_url: https://www.youtube.com/feed/trending
    headless: true
  server:
    allowed_origins:
      - http://localhost:5173
`), 0600))

	store, err := NewFileStore(path)
	require.NoError(t, err)

	browser, err := store.GetSection("browser")
	require.NoError(t, err)
	assert.Equal(t, "https://www.youtube.com/feed/trending", browser["start_url"])
	assert.Equal(t, true, browser["headless"])

	server, err := store.GetSection("server")
	require.NoError(t, err)
	origins, ok := asStrings(server["allowed_origins"])
	require.True(t, ok)
	assert.Equal(t, []string{"http://localhost:5173"}, origins)
}

func TestFileStore_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := NewFileStore(path)
	assert.Error(t, err)
}

func TestFileStore_Copies(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "c.yaml"))
	require.NoError(t, err)

	in := map[string]interface{}{"k": "v"}
	require.NoError(t, store.SetSection("s", in))
	in["k"] = "changed"

	out, err := store.GetSection("s")
	require.NoError(t, err)
	assert.Equal(t, "v", out["k"])
	out["k"] = "changed again"

	all, err := store.GetAll()
	require.NoError(t, err)
	assert.Equal(t, "v", all["s"]["k"])

	missing, err := store.GetSection("missing")
	require.NoError(t, err)
	assert.NotNil(t, missing)
	assert.Empty(t, missing)

	require.NoError(t, store.SetAll(map[string]map[string]interface{}{"x": {"a": 1}}))
	all, err = store.GetAll()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
