package di

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/modtool/pkg/config"
)

func TestNewContainer(t *testing.T) {
	c := NewContainer()

	assert.Equal(t, config.DefaultConfig(), c.GetConfig())
	assert.NotNil(t, c.GetLogger())
	assert.NotNil(t, c.NewProcessor())
}

func TestContainer_Configure(t *testing.T) {
	c := NewContainer()

	cfg := config.DefaultConfig()
	cfg.Logging.Level = "debug"
	cfg.Logging.Format = "json"
	require.NoError(t, c.Configure(cfg))
	assert.Same(t, cfg, c.GetConfig())

	bad := config.DefaultConfig()
	bad.Logging.Level = "chatty"
	assert.Error(t, c.Configure(bad))
	assert.Same(t, cfg, c.GetConfig(), "failed configure must keep the previous config")
}

func TestContainer_OpenCatalog(t *testing.T) {
	c := NewContainer()
	cfg := config.DefaultConfig()
	cfg.Catalog = filepath.Join(t.TempDir(), "catalog")
	require.NoError(t, c.Configure(cfg))

	cat, err := c.OpenCatalog("")
	require.NoError(t, err)
	require.NoError(t, cat.Close())
	assert.DirExists(t, cfg.Catalog)
}
