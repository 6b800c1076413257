// Package di provides dependency injection container
package di

import (
	"go.uber.org/zap"

	"github.com/ssargent/modtool/pkg/catalog"
	"github.com/ssargent/modtool/pkg/config"
	"github.com/ssargent/modtool/pkg/logging"
	"github.com/ssargent/modtool/pkg/modfile"
)

// CatalogOpener opens the address catalog at dir
type CatalogOpener func(dir string, logger *zap.Logger) (*catalog.Catalog, error)

// Container holds all the dependencies for the application
type Container struct {
	config        *config.Config
	logger        *zap.Logger
	catalogOpener CatalogOpener
}

// NewContainer creates a new dependency injection container with the
// default configuration and a no-op logger
func NewContainer() *Container {
	return &Container{
		config:        config.DefaultConfig(),
		logger:        zap.NewNop(),
		catalogOpener: catalog.Open,
	}
}

// Configure installs cfg and builds the logger it describes
func (c *Container) Configure(cfg *config.Config) error {
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	c.config = cfg
	c.logger = logger
	return nil
}

// GetConfig returns the active configuration
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetLogger returns the shared logger
func (c *Container) GetLogger() *zap.Logger {
	return c.logger
}

// NewProcessor returns a processor bound to the shared logger
func (c *Container) NewProcessor() *modfile.Processor {
	return modfile.NewProcessor(c.logger)
}

// OpenCatalog opens the catalog at dir, or the configured one when dir is empty
func (c *Container) OpenCatalog(dir string) (*catalog.Catalog, error) {
	if dir == "" {
		dir = c.config.Catalog
	}
	return c.catalogOpener(dir, c.logger.Named("catalog"))
}

// SetLogger allows overriding the logger (for testing)
func (c *Container) SetLogger(logger *zap.Logger) {
	c.logger = logger
}

// SetCatalogOpener allows overriding how catalogs are opened (for testing)
func (c *Container) SetCatalogOpener(opener CatalogOpener) {
	c.catalogOpener = opener
}
