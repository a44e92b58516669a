package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	p := Load(filepath.Join(t.TempDir(), "prefs.toml"))

	assert.Equal(t, Defaults(), p)
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prefs.toml")

	require.NoError(t, Save(path, Prefs{
		ServerURL:        "http://backend:4000",
		DescribeEndpoint: "https://example.com/generate",
	}))

	p := Load(path)
	assert.Equal(t, "http://backend:4000", p.ServerURL)
	assert.Equal(t, "https://example.com/generate", p.DescribeEndpoint)
}

func TestLoadMalformedFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.toml")
	require.NoError(t, os.WriteFile(path, []byte("server_url = ["), 0o644))

	assert.Equal(t, Defaults(), Load(path))
}

func TestLoadFillsBlankFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.toml")
	require.NoError(t, os.WriteFile(path, []byte(`server_url = "http://backend:4000"`), 0o644))

	p := Load(path)
	assert.Equal(t, "http://backend:4000", p.ServerURL)
	assert.Equal(t, Defaults().DescribeEndpoint, p.DescribeEndpoint)
}
