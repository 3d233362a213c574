package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navikit/navgraph/pkg/errs"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 384, cfg.Dimension)
	assert.Equal(t, "brute", cfg.VectorBackend)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen_addr: ":9090"
environment: production
vector_backend: hnsw
dimension: 768
snapshot_path: /var/lib/navgraph/snapshot.db
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, "hnsw", cfg.VectorBackend)
	assert.Equal(t, 768, cfg.Dimension)
	assert.Equal(t, "/var/lib/navgraph/snapshot.db", cfg.SnapshotPath)
	assert.False(t, cfg.IsDevelopment())
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen_addr: \":9090\"\n"), 0o644))

	t.Setenv("NAVGRAPH_LISTEN_ADDR", ":7070")
	t.Setenv("NAVGRAPH_DIMENSION", "128")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.ListenAddr)
	assert.Equal(t, 128, cfg.Dimension)
}

func TestMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Equal(t, errs.KindConfiguration, errs.KindOf(err))
}

func TestInvalidBackend(t *testing.T) {
	t.Setenv("NAVGRAPH_VECTOR_BACKEND", "faiss")

	_, err := Load("")
	require.Error(t, err)
	assert.Equal(t, errs.KindConfiguration, errs.KindOf(err))
	assert.Contains(t, err.Error(), "faiss")
}

func TestInvalidDimension(t *testing.T) {
	t.Setenv("NAVGRAPH_DIMENSION", "-1")

	_, err := Load("")
	require.Error(t, err)
	assert.Equal(t, errs.KindConfiguration, errs.KindOf(err))
}

func TestString(t *testing.T) {
	assert.Equal(t, "addr=:8080 env=development backend=brute dim=384", Default().String())
}
