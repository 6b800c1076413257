package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Job modes
const (
	ModeSplit = "split"
	ModeDump  = "dump"
	ModeJoin  = "join"
	ModeApply = "apply"
)

// Config represents the modtool configuration
type Config struct {
	ModsDir string  `yaml:"mods_dir"`
	Catalog string  `yaml:"catalog"`
	Logging Logging `yaml:"logging"`
	Jobs    []Job   `yaml:"jobs,omitempty"`
}

// Logging contains logging configuration
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console | json
}

// Job describes one invocation that used to be a hard-coded script
type Job struct {
	Name   string   `yaml:"name"`
	Mode   string   `yaml:"mode"`
	Input  string   `yaml:"input"`
	Inputs []string `yaml:"inputs,omitempty"` // join only
	Prefix string   `yaml:"prefix,omitempty"`
	Output string   `yaml:"output,omitempty"`
	Image  string   `yaml:"image,omitempty"` // apply only
	Base   uint32   `yaml:"base,omitempty"`  // apply only
	Atomic bool     `yaml:"atomic,omitempty"`
}

var ErrInvalidJob = errors.New("invalid job")

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		ModsDir: "./mods",
		Catalog: "./mods/.catalog",
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from the specified path. Fields missing
// from the file keep their defaults.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// SaveConfig saves the configuration to the specified path
func SaveConfig(config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks every job for the fields its mode needs
func (c *Config) Validate() error {
	for i, job := range c.Jobs {
		if err := job.Validate(); err != nil {
			return fmt.Errorf("job %d (%s): %w", i+1, job.Name, err)
		}
	}
	return nil
}

// Validate checks that the job names a known mode and its required fields
func (j Job) Validate() error {
	switch j.Mode {
	case ModeSplit:
		if j.Input == "" || j.Prefix == "" {
			return fmt.Errorf("%w: split needs input and prefix", ErrInvalidJob)
		}
	case ModeDump:
		if j.Input == "" {
			return fmt.Errorf("%w: dump needs input", ErrInvalidJob)
		}
	case ModeJoin:
		if len(j.Inputs) == 0 || j.Output == "" {
			return fmt.Errorf("%w: join needs inputs and output", ErrInvalidJob)
		}
	case ModeApply:
		if j.Input == "" || j.Image == "" || j.Output == "" {
			return fmt.Errorf("%w: apply needs input, image and output", ErrInvalidJob)
		}
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidJob, j.Mode)
	}
	return nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./modtool.yaml"
	}

	return filepath.Join(homeDir, ".config", "modtool", "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}

// BootstrapConfig writes a default configuration rooted at modsDir
func BootstrapConfig(configPath string, modsDir string) (*Config, error) {
	config := DefaultConfig()
	if modsDir != "" {
		config.ModsDir = modsDir
		config.Catalog = filepath.Join(modsDir, ".catalog")
	}

	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save bootstrap config: %w", err)
	}

	return config, nil
}
