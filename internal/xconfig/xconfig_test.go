package xconfig

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsEmptyConfig(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "dbcrossbar.toml"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Temporary)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dbcrossbar.toml")
	cfg := &Config{Temporary: []string{"gs", "s3"}}
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"gs", "s3"}, loaded.Temporary)
}

func TestAddTemporaryIsIdempotent(t *testing.T) {
	cfg := &Config{}
	AddTemporary(cfg, "gs")
	AddTemporary(cfg, "gs")
	assert.Equal(t, []string{"gs"}, cfg.Temporary)
}

func TestRemoveTemporary(t *testing.T) {
	cfg := &Config{Temporary: []string{"gs", "s3"}}
	RemoveTemporary(cfg, "gs")
	assert.Equal(t, []string{"s3"}, cfg.Temporary)
}

func TestDirDefaultsUnderHome(t *testing.T) {
	t.Setenv("DBCROSSBAR_CONFIG_DIR", "")
	dir, err := Dir()
	require.NoError(t, err)
	assert.Contains(t, dir, ".config")
}

func TestDirHonorsEnvOverride(t *testing.T) {
	t.Setenv("DBCROSSBAR_CONFIG_DIR", "/tmp/custom-dbcrossbar")
	dir, err := Dir()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom-dbcrossbar", dir)
}
